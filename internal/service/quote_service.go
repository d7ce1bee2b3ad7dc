package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/nordprofil/quote-ai/internal/ai"
	"github.com/nordprofil/quote-ai/internal/config"
	"github.com/nordprofil/quote-ai/internal/model"
	"github.com/nordprofil/quote-ai/internal/predictor"
	"github.com/nordprofil/quote-ai/internal/repository"
)

type PDFGenerator interface {
	Generate(doc model.QuoteDocument) ([]byte, error)
}

type ExcelGenerator interface {
	Generate(quotes []model.Quote) ([]byte, error)
}

type FileStore interface {
	Save(originalName string, content []byte, quoteID int64) (string, bool)
	ExtractText(path string) (string, bool)
}

type QuoteService struct {
	quotes    *repository.QuoteRepository
	customers *repository.CustomerRepository
	predictor *predictor.Predictor
	extractor *ai.Extractor
	writer    *ai.QuoteWriter
	pdf       PDFGenerator
	excel     ExcelGenerator
	files     FileStore
	cfg       *config.Config
}

func NewQuoteService(
	quotes *repository.QuoteRepository,
	customers *repository.CustomerRepository,
	pricePredictor *predictor.Predictor,
	extractor *ai.Extractor,
	writer *ai.QuoteWriter,
	pdfGen PDFGenerator,
	excelGen ExcelGenerator,
	fileStore FileStore,
	cfg *config.Config,
) *QuoteService {
	return &QuoteService{
		quotes:    quotes,
		customers: customers,
		predictor: pricePredictor,
		extractor: extractor,
		writer:    writer,
		pdf:       pdfGen,
		excel:     excelGen,
		files:     fileStore,
		cfg:       cfg,
	}
}

type SpecInput struct {
	Description         string  `json:"description" binding:"required"`
	ProfileType         string  `json:"profile_type" binding:"required"`
	Alloy               string  `json:"alloy" binding:"required"`
	WeightPerMeter      float64 `json:"weight_per_meter" binding:"required"`
	TotalLength         float64 `json:"total_length" binding:"required"`
	SurfaceTreatment    string  `json:"surface_treatment" binding:"required"`
	MachiningComplexity string  `json:"machining_complexity" binding:"required"`
}

type ContextInput struct {
	ContextText      string  `json:"context_text" binding:"required"`
	ExtractedUrgency *string `json:"extracted_urgency"`
	CustomRequests   *string `json:"custom_requests"`
	PastAgreements   *string `json:"past_agreements"`
}

type QuoteCreateInput struct {
	Title                string       `json:"title" binding:"required"`
	ValidityDate         *time.Time   `json:"validity_date"`
	CustomerID           int64        `json:"customer_id" binding:"required"`
	Status               string       `json:"status"`
	ProductSpec          SpecInput    `json:"product_specs" binding:"required"`
	CommunicationContext ContextInput `json:"communication_context" binding:"required"`
}

func validateSpec(spec SpecInput) error {
	if spec.WeightPerMeter <= 0 {
		return fmt.Errorf("%w: weight_per_meter must be positive", ErrInvalidInput)
	}
	if spec.TotalLength <= 0 {
		return fmt.Errorf("%w: total_length must be positive", ErrInvalidInput)
	}
	if !slices.Contains(model.Alloys, spec.Alloy) {
		return fmt.Errorf("%w: alloy must be one of %v", ErrInvalidInput, model.Alloys)
	}
	if !slices.Contains(model.SurfaceTreatments, strings.ToLower(spec.SurfaceTreatment)) {
		return fmt.Errorf("%w: surface_treatment must be one of %v", ErrInvalidInput, model.SurfaceTreatments)
	}
	if !slices.Contains(model.MachiningComplexities, strings.ToLower(spec.MachiningComplexity)) {
		return fmt.Errorf("%w: machining_complexity must be one of %v", ErrInvalidInput, model.MachiningComplexities)
	}
	return nil
}

func (s *QuoteService) Create(ctx context.Context, input QuoteCreateInput) (*model.Quote, error) {
	if err := validateSpec(input.ProductSpec); err != nil {
		return nil, err
	}
	if _, err := s.customers.GetByID(ctx, input.CustomerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: customer %d", ErrNotFound, input.CustomerID)
		}
		return nil, err
	}

	now := time.Now().UTC()
	validity := now.AddDate(0, 0, s.cfg.Quotes.ValidityDays)
	if input.ValidityDate != nil {
		validity = *input.ValidityDate
	}
	status := input.Status
	if status == "" {
		status = model.QuoteStatusDraft
	}

	quote := model.Quote{
		Title:           input.Title,
		ReferenceNumber: NewReferenceNumber(now),
		ValidityDate:    validity,
		CustomerID:      input.CustomerID,
		Status:          status,
	}
	spec := model.ProductSpecification{
		Description:         input.ProductSpec.Description,
		ProfileType:         input.ProductSpec.ProfileType,
		Alloy:               input.ProductSpec.Alloy,
		WeightPerMeter:      input.ProductSpec.WeightPerMeter,
		TotalLength:         input.ProductSpec.TotalLength,
		SurfaceTreatment:    strings.ToLower(input.ProductSpec.SurfaceTreatment),
		MachiningComplexity: strings.ToLower(input.ProductSpec.MachiningComplexity),
	}
	commCtx := model.CommunicationContext{
		ContextText:      input.CommunicationContext.ContextText,
		ExtractedUrgency: input.CommunicationContext.ExtractedUrgency,
		CustomRequests:   input.CommunicationContext.CustomRequests,
		PastAgreements:   input.CommunicationContext.PastAgreements,
	}

	return s.quotes.Create(ctx, quote, spec, commCtx)
}

func (s *QuoteService) Get(ctx context.Context, id int64) (*model.Quote, error) {
	quote, err := s.quotes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return quote, nil
}

func (s *QuoteService) List(ctx context.Context, offset, limit int) ([]model.Quote, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.quotes.List(ctx, offset, limit)
}

func (s *QuoteService) Update(ctx context.Context, id int64, patch model.QuotePatch) (*model.Quote, error) {
	updated, err := s.quotes.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes the quote together with its specification and communication
// context rows.
func (s *QuoteService) Delete(ctx context.Context, id int64) error {
	if err := s.quotes.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// PredictPrice runs the model for a standalone specification.
func (s *QuoteService) PredictPrice(ctx context.Context, spec SpecInput) (*predictor.Prediction, error) {
	if err := validateSpec(spec); err != nil {
		return nil, err
	}
	prediction, err := s.predictor.Predict(specFeatures(spec))
	if err != nil {
		if errors.Is(err, predictor.ErrInvalidSpec) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil, err
	}
	return prediction, nil
}

type GenerateQuoteInput struct {
	CustomerID           int64        `json:"customer_id" binding:"required"`
	ProductSpec          SpecInput    `json:"product_specs" binding:"required"`
	CommunicationContext ContextInput `json:"communication_context" binding:"required"`
}

type GenerateQuoteResult struct {
	Status    string  `json:"status"`
	Message   string  `json:"message"`
	QuoteText string  `json:"quote_text"`
	Predicted float64 `json:"predicted_price"`
	Final     float64 `json:"final_price"`
}

// GenerateQuote predicts pricing once and hands the figures to the text
// generator, so a quote never carries two diverging predictions.
func (s *QuoteService) GenerateQuote(ctx context.Context, input GenerateQuoteInput) (*GenerateQuoteResult, error) {
	if err := validateSpec(input.ProductSpec); err != nil {
		return nil, err
	}
	customer, err := s.customers.GetByID(ctx, input.CustomerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: customer %d", ErrNotFound, input.CustomerID)
		}
		return nil, err
	}

	prediction, err := s.predictor.Predict(specFeatures(input.ProductSpec))
	if err != nil {
		return nil, err
	}
	finalPrice := predictor.FinalPrice(prediction.PredictedPrice, prediction.Confidence)

	doc := model.QuoteDocument{
		Customer: *customer,
		Spec: model.ProductSpecification{
			Description:         input.ProductSpec.Description,
			ProfileType:         input.ProductSpec.ProfileType,
			Alloy:               input.ProductSpec.Alloy,
			WeightPerMeter:      input.ProductSpec.WeightPerMeter,
			TotalLength:         input.ProductSpec.TotalLength,
			SurfaceTreatment:    input.ProductSpec.SurfaceTreatment,
			MachiningComplexity: input.ProductSpec.MachiningComplexity,
		},
		Context: model.CommunicationContext{
			ContextText: input.CommunicationContext.ContextText,
		},
		PredictedPrice: prediction.PredictedPrice,
		Confidence:     prediction.Confidence,
		FinalPrice:     finalPrice,
	}

	quoteText, err := s.writer.GenerateQuoteText(ctx, doc)
	if err != nil {
		return nil, err
	}

	return &GenerateQuoteResult{
		Status:    "success",
		Message:   "Quote generated",
		QuoteText: quoteText,
		Predicted: prediction.PredictedPrice,
		Final:     finalPrice,
	}, nil
}

type RenderResult struct {
	FileName string
	Content  []byte
}

// RenderPDF produces the quote document. Stored prices are reused; quotes
// that were never priced get one prediction, which is then persisted.
func (s *QuoteService) RenderPDF(ctx context.Context, id int64) (*RenderResult, error) {
	quote, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if quote.Customer == nil || quote.ProductSpec == nil {
		return nil, fmt.Errorf("%w: quote %d is missing customer or specification", ErrInvalidInput, id)
	}

	doc := model.QuoteDocument{
		Quote:    *quote,
		Customer: *quote.Customer,
		Spec:     *quote.ProductSpec,
	}
	if quote.CommunicationContext != nil {
		doc.Context = *quote.CommunicationContext
	}

	if quote.PredictedPrice != nil && quote.FinalPrice != nil {
		doc.PredictedPrice = *quote.PredictedPrice
		doc.FinalPrice = *quote.FinalPrice
		doc.Confidence = confidenceFromPrices(*quote.PredictedPrice, *quote.FinalPrice)
	} else {
		prediction, err := s.predictor.Predict(predictor.Features{
			WeightPerMeter:      quote.ProductSpec.WeightPerMeter,
			TotalLength:         quote.ProductSpec.TotalLength,
			MachiningComplexity: quote.ProductSpec.MachiningComplexity,
			SurfaceTreatment:    quote.ProductSpec.SurfaceTreatment,
			Alloy:               quote.ProductSpec.Alloy,
		})
		if err != nil {
			return nil, err
		}
		doc.PredictedPrice = prediction.PredictedPrice
		doc.Confidence = prediction.Confidence
		doc.FinalPrice = predictor.FinalPrice(prediction.PredictedPrice, prediction.Confidence)
		if err := s.quotes.UpdatePrices(ctx, id, doc.PredictedPrice, doc.FinalPrice); err != nil {
			return nil, err
		}
	}

	content, err := s.pdf.Generate(doc)
	if err != nil {
		return nil, err
	}
	return &RenderResult{
		FileName: fmt.Sprintf("quote_%d.pdf", id),
		Content:  content,
	}, nil
}

// ExportExcel builds the quote-book workbook over every stored quote.
func (s *QuoteService) ExportExcel(ctx context.Context) (*RenderResult, error) {
	quotes, err := s.quotes.ListWithRelations(ctx)
	if err != nil {
		return nil, err
	}
	content, err := s.excel.Generate(quotes)
	if err != nil {
		return nil, err
	}
	return &RenderResult{
		FileName: fmt.Sprintf("quotes-%s.xlsx", time.Now().Format("20060102")),
		Content:  content,
	}, nil
}

// TrainModel rebuilds the price model from historical quotes. Quotes without
// a price or specification are skipped.
func (s *QuoteService) TrainModel(ctx context.Context) (*predictor.TrainingReport, error) {
	quotes, err := s.quotes.ListWithRelations(ctx)
	if err != nil {
		return nil, err
	}

	rows := PrepareTrainingRows(quotes)
	report, err := s.predictor.Train(rows)
	if err != nil {
		if errors.Is(err, predictor.ErrInvalidSpec) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil, err
	}
	return report, nil
}

func (s *QuoteService) ModelInfo() (*predictor.ModelInfo, error) {
	return s.predictor.Info()
}

// PrepareTrainingRows flattens historical quotes into training rows,
// preferring the final price over the raw prediction.
func PrepareTrainingRows(quotes []model.Quote) []predictor.TrainingRow {
	var rows []predictor.TrainingRow
	for _, quote := range quotes {
		if quote.ProductSpec == nil {
			continue
		}
		var price float64
		switch {
		case quote.FinalPrice != nil:
			price = *quote.FinalPrice
		case quote.PredictedPrice != nil:
			price = *quote.PredictedPrice
		default:
			continue
		}
		rows = append(rows, predictor.TrainingRow{
			Features: predictor.Features{
				WeightPerMeter:      quote.ProductSpec.WeightPerMeter,
				TotalLength:         quote.ProductSpec.TotalLength,
				MachiningComplexity: quote.ProductSpec.MachiningComplexity,
				SurfaceTreatment:    quote.ProductSpec.SurfaceTreatment,
				Alloy:               quote.ProductSpec.Alloy,
			},
			Price: price,
		})
	}
	return rows
}

type ProcessFileResult struct {
	FilePath         string               `json:"file_path"`
	ExtractedContext *ai.ExtractedContext `json:"extracted_context,omitempty"`
	Error            string               `json:"error,omitempty"`
}

// ProcessFile extracts the text of an uploaded document and runs context
// extraction over it. Extraction problems are reported in the result rather
// than failing the request.
func (s *QuoteService) ProcessFile(ctx context.Context, path string, specs map[string]string) (*ProcessFileResult, error) {
	text, ok := s.files.ExtractText(path)
	if !ok {
		return &ProcessFileResult{
			FilePath: path,
			Error:    "failed to extract text or unsupported file type",
		}, nil
	}
	if strings.TrimSpace(text) == "" {
		return &ProcessFileResult{FilePath: path, Error: "no text content found in the file"}, nil
	}

	extracted, err := s.extractor.ExtractContext(ctx, text, specs)
	if err != nil {
		return nil, err
	}
	return &ProcessFileResult{FilePath: path, ExtractedContext: extracted}, nil
}

func specFeatures(spec SpecInput) predictor.Features {
	return predictor.Features{
		WeightPerMeter:      spec.WeightPerMeter,
		TotalLength:         spec.TotalLength,
		MachiningComplexity: spec.MachiningComplexity,
		SurfaceTreatment:    spec.SurfaceTreatment,
		Alloy:               spec.Alloy,
	}
}

// confidenceFromPrices inverts the margin formula for quotes whose prices
// were persisted earlier, so rendered documents show a consistent triple.
func confidenceFromPrices(predicted, final float64) float64 {
	if predicted <= 0 {
		return 0
	}
	confidence := 1 - (final/predicted-1)/0.1
	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}
