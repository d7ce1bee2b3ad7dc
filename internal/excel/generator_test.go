package excel

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nordprofil/quote-ai/internal/model"
)

func TestGenerateWorkbook(t *testing.T) {
	g := NewGenerator()

	predicted := 4200.0
	final := 4263.0
	quotes := []model.Quote{
		{
			ReferenceNumber: "QT-20260314092653-A1B2C3",
			Title:           "Window frames",
			Status:          model.QuoteStatusApproved,
			ValidityDate:    time.Date(2026, 4, 13, 0, 0, 0, 0, time.UTC),
			PredictedPrice:  &predicted,
			FinalPrice:      &final,
			Customer:        &model.Customer{CompanyName: "Nordic Extrusions AB"},
			ProductSpec: &model.ProductSpecification{
				Alloy:          "6063",
				ProfileType:    "U-profile",
				WeightPerMeter: 1.8,
				TotalLength:    250,
			},
		},
		{
			ReferenceNumber: "QT-20260314092654-D4E5F6",
			Title:           "Door frames",
			Status:          model.QuoteStatusDraft,
			ValidityDate:    time.Date(2026, 4, 20, 0, 0, 0, 0, time.UTC),
		},
	}

	content, err := g.Generate(quotes)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	file, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer file.Close()

	total, err := file.GetCellValue("Summary", "B2")
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	if total != "2" {
		t.Fatalf("expected 2 quotes in summary got %q", total)
	}

	reference, err := file.GetCellValue("Quotes", "A2")
	if err != nil {
		t.Fatalf("read quotes sheet: %v", err)
	}
	if reference != "QT-20260314092653-A1B2C3" {
		t.Fatalf("unexpected reference %q", reference)
	}

	company, err := file.GetCellValue("Quotes", "D2")
	if err != nil {
		t.Fatalf("read customer column: %v", err)
	}
	if company != "Nordic Extrusions AB" {
		t.Fatalf("unexpected customer %q", company)
	}

	// Status rows are sorted so repeated exports produce identical sheets.
	for i, want := range []string{model.QuoteStatusApproved, model.QuoteStatusDraft} {
		status, err := file.GetCellValue("Summary", fmt.Sprintf("A%d", 7+i))
		if err != nil {
			t.Fatalf("read status row: %v", err)
		}
		if status != want {
			t.Fatalf("status row %d: expected %q got %q", i, want, status)
		}
	}
}

func TestGenerateEmptyList(t *testing.T) {
	g := NewGenerator()
	content, err := g.Generate(nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(content) == 0 {
		t.Fatal("empty workbook bytes")
	}
}
