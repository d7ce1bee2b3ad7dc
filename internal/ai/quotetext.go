package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nordprofil/quote-ai/internal/model"
)

const quoteSystemPrompt = "You are a professional quote generator."

// QuoteWriter asks the provider for the prose body of a quote document.
// Pricing is computed by the caller once and passed down; the writer never
// re-runs the predictor.
type QuoteWriter struct {
	provider CompletionProvider
	gate     *Gate
	model    string
	log      zerolog.Logger
}

func NewQuoteWriter(provider CompletionProvider, gate *Gate, model string, log zerolog.Logger) *QuoteWriter {
	return &QuoteWriter{provider: provider, gate: gate, model: model, log: log}
}

func (w *QuoteWriter) GenerateQuoteText(ctx context.Context, doc model.QuoteDocument) (string, error) {
	if err := w.gate.acquire(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	defer w.gate.release()

	return w.provider.Complete(ctx, Request{
		Model:  w.model,
		System: quoteSystemPrompt,
		Prompt: quotePrompt(doc),
	})
}

func quotePrompt(doc model.QuoteDocument) string {
	var sb strings.Builder
	sb.WriteString("Generate a professional quote document with the following details:\n\n")

	fmt.Fprintf(&sb, `Customer Information:
- Company: %s
- Contact: %s
- Email: %s

`, orNA(doc.Customer.CompanyName), orNA(doc.Customer.ContactPerson), orNA(doc.Customer.Email))

	fmt.Fprintf(&sb, `Product Specifications:
- Description: %s
- Profile Type: %s
- Alloy: %s
- Weight per meter: %.2f kg
- Total Length: %.2f m
- Surface Treatment: %s
- Machining Complexity: %s

`, orNA(doc.Spec.Description), orNA(doc.Spec.ProfileType), orNA(doc.Spec.Alloy),
		doc.Spec.WeightPerMeter, doc.Spec.TotalLength,
		orNA(doc.Spec.SurfaceTreatment), orNA(doc.Spec.MachiningComplexity))

	fmt.Fprintf(&sb, "Communication Context:\n%s\n\n", orNA(doc.Context.ContextText))

	fmt.Fprintf(&sb, `Pricing Analysis:
- Predicted Base Price: %.2f SEK
- Prediction Confidence: %.0f%%
- Final Price (including margin): %.2f SEK

`, doc.PredictedPrice, doc.Confidence*100, doc.FinalPrice)

	sb.WriteString(`Please generate a professional quote document that includes:
1. A formal introduction
2. Detailed product specifications
3. Price breakdown and justification, including:
   - Base price calculation
   - Confidence level in the prediction
   - Final price with margin
4. Terms and conditions
5. Validity period (30 days from quote date)
6. Contact information
7. Any special notes or considerations from the communication context`)
	return sb.String()
}

func orNA(value string) string {
	if strings.TrimSpace(value) == "" {
		return "N/A"
	}
	return value
}
