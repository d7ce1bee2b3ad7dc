package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// ExtractedContext is the structured summary the provider is asked to return.
type ExtractedContext struct {
	ContextText      string `json:"context_text"`
	ExtractedUrgency string `json:"extracted_urgency"`
	CustomRequests   string `json:"custom_requests"`
	PastAgreements   string `json:"past_agreements"`
}

const extractorSystemPrompt = "You are a helpful assistant that extracts context from product specifications and uploaded documents for quote generation."

// Extractor turns free text from uploaded documents into a structured
// communication context via the configured provider.
type Extractor struct {
	provider CompletionProvider
	gate     *Gate
	model    string
	log      zerolog.Logger
}

func NewExtractor(provider CompletionProvider, gate *Gate, model string, log zerolog.Logger) *Extractor {
	return &Extractor{provider: provider, gate: gate, model: model, log: log}
}

func (e *Extractor) ExtractContext(ctx context.Context, text string, specs map[string]string) (*ExtractedContext, error) {
	if err := e.gate.acquire(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	defer e.gate.release()

	raw, err := e.provider.Complete(ctx, Request{
		Model:    e.model,
		System:   extractorSystemPrompt,
		Prompt:   extractionPrompt(text, specs),
		JSONMode: true,
	})
	if err != nil {
		return nil, err
	}

	result, err := decodeExtraction(raw)
	if err != nil {
		e.log.Error().Err(err).Str("raw", truncate(raw, 512)).Msg("context extraction decode failed")
		return nil, err
	}
	return result, nil
}

func extractionPrompt(text string, specs map[string]string) string {
	var sb strings.Builder
	sb.WriteString("Analyze the following product specifications and document content to extract relevant context for quote generation:\n\n")

	if len(specs) > 0 {
		sb.WriteString("Product Specifications:\n")
		keys := make([]string, 0, len(specs))
		for key := range specs {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Fprintf(&sb, "%s: %s\n", key, specs[key])
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Document Content:\n")
	sb.WriteString(text)
	sb.WriteString("\n\n")
	sb.WriteString(`Please extract the following information:
1. Any additional product requirements or specifications
2. Urgency level (High, Medium, Low)
3. Any custom requests or special requirements
4. Any past agreements or references
5. Any other relevant context for quote generation

Format the response as a JSON object with these keys:
- context_text: A summary of the extracted context
- extracted_urgency: The urgency level
- custom_requests: Any custom requirements
- past_agreements: Any past agreements or references`)
	return sb.String()
}

// decodeExtraction parses the provider's JSON content. Providers occasionally
// wrap JSON in markdown fences; those are stripped before decoding.
func decodeExtraction(raw string) (*ExtractedContext, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var result ExtractedContext
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadOutput, err)
	}
	if result.ExtractedUrgency == "" && result.CustomRequests == "" && result.PastAgreements == "" && result.ContextText == "" {
		return nil, fmt.Errorf("%w: no recognized keys in response", ErrBadOutput)
	}
	return &result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
