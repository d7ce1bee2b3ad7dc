package predictor

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/nordprofil/quote-ai/internal/config"
)

// Confidence is a fixed placeholder until a real reliability estimate exists.
// TODO: derive confidence from per-tree prediction variance instead.
const placeholderConfidence = 0.85

const splitSeed = 42

type Prediction struct {
	PredictedPrice float64 `json:"predicted_price"`
	Confidence     float64 `json:"confidence"`
}

type TrainingReport struct {
	MSE        float64      `json:"mse"`
	R2         float64      `json:"r2"`
	Samples    int          `json:"samples"`
	BestParams *BoostParams `json:"best_params,omitempty"`
}

type ModelInfo struct {
	ModelType   string    `json:"model_type"`
	NumFeatures int       `json:"n_features"`
	NumTrees    int       `json:"n_estimators"`
	LastTrained time.Time `json:"last_trained"`
	ModelPath   string    `json:"model_path"`
}

// Predictor owns the price model. The trained snapshot is held behind an
// atomic pointer so retraining never disturbs in-flight predictions.
type Predictor struct {
	path       string
	gridSearch bool
	log        zerolog.Logger

	model atomic.Pointer[ensemble]
}

func New(cfg config.PredictorConfig, log zerolog.Logger) *Predictor {
	return &Predictor{
		path:       cfg.ModelPath,
		gridSearch: cfg.GridSearch,
		log:        log,
	}
}

// Load reads the persisted model artifact. When no artifact exists yet, a
// fallback model is trained on a synthesized dataset so a fresh deployment can
// serve predictions immediately.
func (p *Predictor) Load() error {
	data, err := os.ReadFile(p.path)
	if os.IsNotExist(err) {
		p.log.Warn().Str("path", p.path).Msg("no trained model found, training with sample data")
		_, err := p.Train(SampleTrainingRows(100))
		return err
	}
	if err != nil {
		return fmt.Errorf("read model artifact: %w", err)
	}

	var model ensemble
	if err := json.Unmarshal(data, &model); err != nil {
		return fmt.Errorf("decode model artifact: %w", err)
	}
	p.model.Store(&model)
	p.log.Info().Str("path", p.path).Int("trees", len(model.Trees)).Msg("price model loaded")
	return nil
}

// Predict encodes the spec against the trained schema and runs the ensemble.
func (p *Predictor) Predict(f Features) (*Prediction, error) {
	if err := validateFeatures(f); err != nil {
		return nil, err
	}
	model := p.model.Load()
	if model == nil {
		return nil, fmt.Errorf("price model not loaded")
	}

	vector := encode(model.Columns, f)
	return &Prediction{
		PredictedPrice: model.predictVector(vector),
		Confidence:     placeholderConfidence,
	}, nil
}

// Train fits a new model on the rows, persists the artifact and atomically
// publishes the snapshot.
func (p *Predictor) Train(rows []TrainingRow) (*TrainingReport, error) {
	if len(rows) < 10 {
		return nil, fmt.Errorf("%w: need at least 10 training rows, got %d", ErrInvalidSpec, len(rows))
	}

	columns := buildColumns(rows)
	x := make([][]float64, len(rows))
	y := make([]float64, len(rows))
	for i, row := range rows {
		x[i] = encode(columns, row.Features)
		y[i] = row.Price
	}

	// 80/20 split with a fixed seed for reproducible evaluation.
	rng := rand.New(rand.NewSource(splitSeed))
	perm := rng.Perm(len(rows))
	cut := len(rows) * 8 / 10

	trainX := make([][]float64, 0, cut)
	trainY := make([]float64, 0, cut)
	testX := make([][]float64, 0, len(rows)-cut)
	testY := make([]float64, 0, len(rows)-cut)
	for pos, i := range perm {
		if pos < cut {
			trainX = append(trainX, x[i])
			trainY = append(trainY, y[i])
		} else {
			testX = append(testX, x[i])
			testY = append(testY, y[i])
		}
	}

	params := defaultParams
	report := &TrainingReport{Samples: len(rows)}
	if p.gridSearch {
		params = gridSearch(trainX, trainY, columns)
		report.BestParams = &params
	}

	model := fitEnsemble(trainX, trainY, columns, params)

	predicted := make([]float64, len(testX))
	for i := range testX {
		predicted[i] = model.predictVector(testX[i])
	}
	report.MSE = meanSquaredError(predicted, testY)
	report.R2 = stat.RSquaredFrom(predicted, testY, nil)

	if err := p.persist(model); err != nil {
		return nil, err
	}
	p.model.Store(model)

	p.log.Info().
		Float64("mse", report.MSE).
		Float64("r2", report.R2).
		Int("samples", len(rows)).
		Msg("price model trained")
	return report, nil
}

func (p *Predictor) persist(model *ensemble) error {
	if dir := filepath.Dir(p.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create model directory: %w", err)
		}
	}
	data, err := json.Marshal(model)
	if err != nil {
		return fmt.Errorf("encode model artifact: %w", err)
	}
	if err := os.WriteFile(p.path, data, 0o644); err != nil {
		return fmt.Errorf("write model artifact: %w", err)
	}
	return nil
}

func (p *Predictor) Info() (*ModelInfo, error) {
	model := p.model.Load()
	if model == nil {
		return nil, fmt.Errorf("price model not loaded")
	}
	info := &ModelInfo{
		ModelType:   "GradientBoostingRegressor",
		NumFeatures: len(model.Columns),
		NumTrees:    len(model.Trees),
		ModelPath:   p.path,
	}
	if fi, err := os.Stat(p.path); err == nil {
		info.LastTrained = fi.ModTime()
	}
	return info, nil
}

// FinalPrice applies the confidence margin: up to 10% on top of the predicted
// price, scaling linearly with how unsure the model is.
func FinalPrice(predicted, confidence float64) float64 {
	return predicted * (1 + (1-confidence)*0.1)
}

// SampleTrainingRows synthesizes a uniformly sampled dataset covering the
// closed category sets. Used to bootstrap a model on first start and in tests.
func SampleTrainingRows(n int) []TrainingRow {
	rng := rand.New(rand.NewSource(splitSeed))
	complexities := []string{"low", "medium", "high"}
	treatments := []string{"anodized", "painted", "raw"}
	alloys := []string{"6060", "6063", "6082"}

	rows := make([]TrainingRow, n)
	for i := range rows {
		rows[i] = TrainingRow{
			Features: Features{
				WeightPerMeter:      1.0 + rng.Float64()*4.0,
				TotalLength:         50 + rng.Float64()*450,
				MachiningComplexity: complexities[rng.Intn(len(complexities))],
				SurfaceTreatment:    treatments[rng.Intn(len(treatments))],
				Alloy:               alloys[rng.Intn(len(alloys))],
			},
			Price: 1000 + rng.Float64()*9000,
		}
	}
	return rows
}
