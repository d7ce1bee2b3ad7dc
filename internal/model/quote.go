package model

import "time"

type QuoteStatus = string

const (
	QuoteStatusDraft    QuoteStatus = "draft"
	QuoteStatusApproved QuoteStatus = "approved"
)

// Alloy designations, surface treatments and machining complexities form closed
// sets; everything else is rejected at the API boundary.
var (
	Alloys                = []string{"6060", "6063", "6082"}
	SurfaceTreatments     = []string{"anodized", "painted", "raw"}
	MachiningComplexities = []string{"low", "medium", "high"}
)

type Quote struct {
	ID              int64       `json:"id"`
	Title           string      `json:"title"`
	ReferenceNumber string      `json:"reference_number"`
	ValidityDate    time.Time   `json:"validity_date"`
	CustomerID      int64       `json:"customer_id"`
	PredictedPrice  *float64    `json:"predicted_price,omitempty"`
	FinalPrice      *float64    `json:"final_price,omitempty"`
	Status          QuoteStatus `json:"status"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`

	Customer             *Customer             `json:"customer,omitempty" gorm:"-"`
	ProductSpec          *ProductSpecification `json:"product_specs,omitempty" gorm:"-"`
	CommunicationContext *CommunicationContext `json:"communication_context,omitempty" gorm:"-"`
}

// QuotePatch carries a partial update; nil fields are left untouched.
type QuotePatch struct {
	Title           *string    `json:"title"`
	ReferenceNumber *string    `json:"reference_number"`
	ValidityDate    *time.Time `json:"validity_date"`
	PredictedPrice  *float64   `json:"predicted_price"`
	FinalPrice      *float64   `json:"final_price"`
	Status          *string    `json:"status"`
}

type ProductSpecification struct {
	ID                  int64   `json:"id"`
	QuoteID             int64   `json:"quote_id"`
	Description         string  `json:"description"`
	ProfileType         string  `json:"profile_type"`
	Alloy               string  `json:"alloy"`
	WeightPerMeter      float64 `json:"weight_per_meter"`
	TotalLength         float64 `json:"total_length"`
	SurfaceTreatment    string  `json:"surface_treatment"`
	MachiningComplexity string  `json:"machining_complexity"`
}

type CommunicationContext struct {
	ID               int64   `json:"id"`
	QuoteID          int64   `json:"quote_id"`
	ContextText      string  `json:"context_text"`
	ExtractedUrgency *string `json:"extracted_urgency,omitempty"`
	CustomRequests   *string `json:"custom_requests,omitempty"`
	PastAgreements   *string `json:"past_agreements,omitempty"`
}

// QuoteDocument is the flattened aggregate consumed by the PDF renderer and
// the quote text generator: one quote with its relations plus the pricing
// computed for it.
type QuoteDocument struct {
	Quote          Quote
	Customer       Customer
	Spec           ProductSpecification
	Context        CommunicationContext
	PredictedPrice float64
	Confidence     float64
	FinalPrice     float64
}
