package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/nordprofil/quote-ai/internal/model"
)

var termsAndConditions = []string{
	"1. Prices are exclusive of VAT unless otherwise stated.",
	"2. Payment terms: 30 days from invoice date.",
	"3. Delivery time will be confirmed upon order.",
	"4. This quote is valid until the date specified above.",
	"5. All specifications are subject to our standard terms and conditions.",
}

type Generator struct {
	fontName string
}

func NewGenerator() *Generator {
	return &Generator{fontName: "Helvetica"}
}

func (g *Generator) Generate(doc model.QuoteDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 16)
	pdf.CellFormat(0, 12, "QUOTE", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(g.fontName, "", 11)
	g.keyValueRow(pdf, "Quote Reference:", doc.Quote.ReferenceNumber, true)
	g.keyValueRow(pdf, "Date:", time.Now().Format("2006-01-02"), true)
	g.keyValueRow(pdf, "Valid Until:", formatDate(doc.Quote.ValidityDate), true)
	g.keyValueRow(pdf, "Status:", strings.ToUpper(doc.Quote.Status), true)
	pdf.Ln(6)

	g.sectionTitle(pdf, "Customer Details")
	g.keyValueRow(pdf, "Company:", doc.Customer.CompanyName, false)
	g.keyValueRow(pdf, "Contact Person:", doc.Customer.ContactPerson, false)
	g.keyValueRow(pdf, "Email:", doc.Customer.Email, false)
	pdf.Ln(6)

	g.sectionTitle(pdf, "Product Specifications")
	g.keyValueRow(pdf, "Description:", doc.Spec.Description, false)
	g.keyValueRow(pdf, "Profile Type:", doc.Spec.ProfileType, false)
	g.keyValueRow(pdf, "Alloy:", doc.Spec.Alloy, false)
	g.keyValueRow(pdf, "Weight per meter:", fmt.Sprintf("%.2f kg", doc.Spec.WeightPerMeter), false)
	g.keyValueRow(pdf, "Total Length:", fmt.Sprintf("%.2f m", doc.Spec.TotalLength), false)
	g.keyValueRow(pdf, "Surface Treatment:", doc.Spec.SurfaceTreatment, false)
	g.keyValueRow(pdf, "Machining Complexity:", doc.Spec.MachiningComplexity, false)
	pdf.Ln(6)

	g.sectionTitle(pdf, "Pricing")
	g.keyValueRow(pdf, "Predicted Price:", fmt.Sprintf("%.2f SEK", doc.PredictedPrice), true)
	g.keyValueRow(pdf, "Prediction Confidence:", fmt.Sprintf("%.0f%%", doc.Confidence*100), true)
	g.keyValueRow(pdf, "Final Price:", fmt.Sprintf("%.2f SEK", doc.FinalPrice), true)
	pdf.Ln(6)

	if strings.TrimSpace(doc.Context.ContextText) != "" {
		g.sectionTitle(pdf, "Communication Context")
		pdf.SetFont(g.fontName, "", 10)
		pdf.MultiCell(0, 5, doc.Context.ContextText, "", "L", false)
		pdf.Ln(6)
	}

	g.sectionTitle(pdf, "Terms and Conditions")
	pdf.SetFont(g.fontName, "", 10)
	for _, term := range termsAndConditions {
		pdf.MultiCell(0, 5, term, "", "L", false)
		pdf.Ln(1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) sectionTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
}

func (g *Generator) keyValueRow(pdf *gofpdf.Fpdf, label, value string, bold bool) {
	style := ""
	if bold {
		style = "B"
	}
	pdf.SetFont(g.fontName, style, 10)
	pdf.CellFormat(55, 6, label, "", 0, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)
	pdf.CellFormat(0, 6, safeValue(value), "", 1, "L", false, 0, "")
}

func safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "Not specified"
	}
	return value
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "Not specified"
	}
	return t.Format("2006-01-02")
}
