package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/nordprofil/quote-ai/internal/model"
)

func TestGenerateProducesPDF(t *testing.T) {
	g := NewGenerator()

	content, err := g.Generate(model.QuoteDocument{
		Quote: model.Quote{
			ReferenceNumber: "QT-20260314092653-A1B2C3",
			ValidityDate:    time.Date(2026, 4, 13, 0, 0, 0, 0, time.UTC),
			Status:          model.QuoteStatusDraft,
		},
		Customer: model.Customer{
			CompanyName:   "Nordic Extrusions AB",
			ContactPerson: "Anna Berg",
			Email:         "anna@nordic.se",
		},
		Spec: model.ProductSpecification{
			Description:         "U-profile for window frames",
			ProfileType:         "U-profile",
			Alloy:               "6063",
			WeightPerMeter:      1.8,
			TotalLength:         250,
			SurfaceTreatment:    "anodized",
			MachiningComplexity: "medium",
		},
		Context:        model.CommunicationContext{ContextText: "repeat customer"},
		PredictedPrice: 4200,
		Confidence:     0.85,
		FinalPrice:     4263,
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !bytes.HasPrefix(content, []byte("%PDF")) {
		t.Fatal("output does not start with the pdf magic bytes")
	}
	if len(content) < 1000 {
		t.Fatalf("suspiciously small pdf: %d bytes", len(content))
	}
}

func TestGenerateHandlesSparseDocument(t *testing.T) {
	g := NewGenerator()

	content, err := g.Generate(model.QuoteDocument{})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !bytes.HasPrefix(content, []byte("%PDF")) {
		t.Fatal("output does not start with the pdf magic bytes")
	}
}
