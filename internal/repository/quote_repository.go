package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/nordprofil/quote-ai/internal/model"
)

type QuoteRepository struct {
	db *gorm.DB
}

func NewQuoteRepository(db *gorm.DB) *QuoteRepository {
	return &QuoteRepository{db: db}
}

// Create inserts the quote together with its product specification and
// communication context in one transaction.
func (r *QuoteRepository) Create(
	ctx context.Context,
	quote model.Quote,
	spec model.ProductSpecification,
	commCtx model.CommunicationContext,
) (*model.Quote, error) {
	now := time.Now().UTC()
	var saved model.Quote
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Raw(`
			INSERT INTO quotes (
				title,
				reference_number,
				validity_date,
				customer_id,
				predicted_price,
				final_price,
				status,
				created_at,
				updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id, title, reference_number, validity_date, customer_id,
				predicted_price, final_price, status, created_at, updated_at
		`,
			quote.Title,
			quote.ReferenceNumber,
			quote.ValidityDate,
			quote.CustomerID,
			quote.PredictedPrice,
			quote.FinalPrice,
			quote.Status,
			now,
			now,
		).Scan(&saved).Error
		if err != nil {
			return err
		}

		var savedSpec model.ProductSpecification
		err = tx.Raw(`
			INSERT INTO product_specifications (
				quote_id, description, profile_type, alloy,
				weight_per_meter, total_length, surface_treatment, machining_complexity
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id, quote_id, description, profile_type, alloy,
				weight_per_meter, total_length, surface_treatment, machining_complexity
		`,
			saved.ID,
			spec.Description,
			spec.ProfileType,
			spec.Alloy,
			spec.WeightPerMeter,
			spec.TotalLength,
			spec.SurfaceTreatment,
			spec.MachiningComplexity,
		).Scan(&savedSpec).Error
		if err != nil {
			return err
		}

		var savedCtx model.CommunicationContext
		err = tx.Raw(`
			INSERT INTO communication_contexts (
				quote_id, context_text, extracted_urgency, custom_requests, past_agreements
			) VALUES (?, ?, ?, ?, ?)
			RETURNING id, quote_id, context_text, extracted_urgency, custom_requests, past_agreements
		`,
			saved.ID,
			commCtx.ContextText,
			commCtx.ExtractedUrgency,
			commCtx.CustomRequests,
			commCtx.PastAgreements,
		).Scan(&savedCtx).Error
		if err != nil {
			return err
		}

		saved.ProductSpec = &savedSpec
		saved.CommunicationContext = &savedCtx
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *QuoteRepository) GetByID(ctx context.Context, id int64) (*model.Quote, error) {
	var quote model.Quote
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, title, reference_number, validity_date, customer_id,
			predicted_price, final_price, status, created_at, updated_at
		FROM quotes
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&quote).Error
	if err != nil {
		return nil, err
	}
	if quote.ID == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	var customer model.Customer
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, company_name, contact_person, email, phone, address, created_at, updated_at
		FROM customers
		WHERE id = ?
		LIMIT 1
	`, quote.CustomerID).Scan(&customer).Error; err != nil {
		return nil, err
	}
	if customer.ID != 0 {
		quote.Customer = &customer
	}

	var spec model.ProductSpecification
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, quote_id, description, profile_type, alloy,
			weight_per_meter, total_length, surface_treatment, machining_complexity
		FROM product_specifications
		WHERE quote_id = ?
		ORDER BY id ASC
		LIMIT 1
	`, quote.ID).Scan(&spec).Error; err != nil {
		return nil, err
	}
	if spec.ID != 0 {
		quote.ProductSpec = &spec
	}

	var commCtx model.CommunicationContext
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, quote_id, context_text, extracted_urgency, custom_requests, past_agreements
		FROM communication_contexts
		WHERE quote_id = ?
		ORDER BY id ASC
		LIMIT 1
	`, quote.ID).Scan(&commCtx).Error; err != nil {
		return nil, err
	}
	if commCtx.ID != 0 {
		quote.CommunicationContext = &commCtx
	}

	return &quote, nil
}

func (r *QuoteRepository) List(ctx context.Context, offset, limit int) ([]model.Quote, error) {
	var quotes []model.Quote
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, title, reference_number, validity_date, customer_id,
			predicted_price, final_price, status, created_at, updated_at
		FROM quotes
		ORDER BY id ASC
		LIMIT ? OFFSET ?
	`, limit, offset).Scan(&quotes).Error
	if err != nil {
		return nil, err
	}
	return quotes, nil
}

// ListWithRelations loads every quote together with its customer and
// specification. Used by the Excel export and training-data preparation.
func (r *QuoteRepository) ListWithRelations(ctx context.Context) ([]model.Quote, error) {
	quotes, err := r.List(ctx, 0, 1<<30)
	if err != nil {
		return nil, err
	}
	for i := range quotes {
		full, err := r.GetByID(ctx, quotes[i].ID)
		if err != nil {
			return nil, err
		}
		quotes[i] = *full
	}
	return quotes, nil
}

// Update applies a partial patch: nil fields keep their stored values.
func (r *QuoteRepository) Update(ctx context.Context, id int64, patch model.QuotePatch) (*model.Quote, error) {
	var saved model.Quote
	err := r.db.WithContext(ctx).Raw(`
		UPDATE quotes
		SET
			title = COALESCE(?, title),
			reference_number = COALESCE(?, reference_number),
			validity_date = COALESCE(?, validity_date),
			predicted_price = COALESCE(?, predicted_price),
			final_price = COALESCE(?, final_price),
			status = COALESCE(?, status),
			updated_at = ?
		WHERE id = ?
		RETURNING id, title, reference_number, validity_date, customer_id,
			predicted_price, final_price, status, created_at, updated_at
	`,
		patch.Title,
		patch.ReferenceNumber,
		patch.ValidityDate,
		patch.PredictedPrice,
		patch.FinalPrice,
		patch.Status,
		time.Now().UTC(),
		id,
	).Scan(&saved).Error
	if err != nil {
		return nil, err
	}
	if saved.ID == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &saved, nil
}

// Delete removes the quote and its dependent specification and context rows in
// one transaction.
func (r *QuoteRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM product_specifications WHERE quote_id = ?`, id).Error; err != nil {
			return err
		}
		if err := tx.Exec(`DELETE FROM communication_contexts WHERE quote_id = ?`, id).Error; err != nil {
			return err
		}
		result := tx.Exec(`DELETE FROM quotes WHERE id = ?`, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *QuoteRepository) UpdatePrices(ctx context.Context, id int64, predicted, final float64) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE quotes
		SET predicted_price = ?, final_price = ?, updated_at = ?
		WHERE id = ?
	`, predicted, final, time.Now().UTC(), id).Error
}
