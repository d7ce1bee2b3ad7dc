package excel

import (
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nordprofil/quote-ai/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate builds the quote-book workbook: a summary sheet plus one row per
// quote with its customer, specification and pricing.
func (g *Generator) Generate(quotes []model.Quote) ([]byte, error) {
	file := excelize.NewFile()

	summarySheet := "Summary"
	file.SetSheetName("Sheet1", summarySheet)
	if err := g.writeSummary(file, summarySheet, quotes); err != nil {
		return nil, err
	}

	quotesSheet := "Quotes"
	if _, err := file.NewSheet(quotesSheet); err != nil {
		return nil, err
	}
	if err := g.writeQuotes(file, quotesSheet, quotes); err != nil {
		return nil, err
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, sheet string, quotes []model.Quote) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	var totalFinal float64
	var priced int
	statusCounts := map[string]int{}
	for _, quote := range quotes {
		statusCounts[quote.Status]++
		if quote.FinalPrice != nil {
			totalFinal += *quote.FinalPrice
			priced++
		}
	}

	set("A1", "Exported")
	set("B1", time.Now().Format("2006-01-02"))
	set("A2", "Total quotes")
	set("B2", len(quotes))
	set("A3", "Priced quotes")
	set("B3", priced)
	set("A4", "Total final price, SEK")
	set("B4", fmt.Sprintf("%.2f", totalFinal))

	statuses := make([]string, 0, len(statusCounts))
	for status := range statusCounts {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)

	row := 6
	set(fmt.Sprintf("A%d", row), "Status")
	set(fmt.Sprintf("B%d", row), "Count")
	for _, status := range statuses {
		row++
		set(fmt.Sprintf("A%d", row), status)
		set(fmt.Sprintf("B%d", row), statusCounts[status])
	}
	return nil
}

func (g *Generator) writeQuotes(file *excelize.File, sheet string, quotes []model.Quote) error {
	headers := []string{
		"Reference", "Title", "Status", "Customer", "Alloy", "Profile type",
		"Weight kg/m", "Length m", "Predicted price", "Final price", "Valid until",
	}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := file.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
	}

	for rowIdx, quote := range quotes {
		values := []interface{}{
			quote.ReferenceNumber,
			quote.Title,
			quote.Status,
			customerName(quote),
			specField(quote, func(s model.ProductSpecification) interface{} { return s.Alloy }),
			specField(quote, func(s model.ProductSpecification) interface{} { return s.ProfileType }),
			specField(quote, func(s model.ProductSpecification) interface{} { return s.WeightPerMeter }),
			specField(quote, func(s model.ProductSpecification) interface{} { return s.TotalLength }),
			priceValue(quote.PredictedPrice),
			priceValue(quote.FinalPrice),
			quote.ValidityDate.Format("2006-01-02"),
		}
		for colIdx, value := range values {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return err
			}
			if err := file.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}
	return nil
}

func customerName(quote model.Quote) string {
	if quote.Customer != nil {
		return quote.Customer.CompanyName
	}
	return ""
}

func specField(quote model.Quote, pick func(model.ProductSpecification) interface{}) interface{} {
	if quote.ProductSpec == nil {
		return ""
	}
	return pick(*quote.ProductSpec)
}

func priceValue(price *float64) interface{} {
	if price == nil {
		return ""
	}
	return *price
}
