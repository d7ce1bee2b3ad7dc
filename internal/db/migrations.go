package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS customers (
		id BIGSERIAL PRIMARY KEY,
		company_name VARCHAR(255) NOT NULL,
		contact_person VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		phone VARCHAR(64),
		address TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_customers_company_name ON customers (company_name);`,
	`CREATE TABLE IF NOT EXISTS quotes (
		id BIGSERIAL PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		reference_number VARCHAR(64) NOT NULL,
		validity_date TIMESTAMPTZ NOT NULL,
		customer_id BIGINT NOT NULL REFERENCES customers(id),
		predicted_price DOUBLE PRECISION,
		final_price DOUBLE PRECISION,
		status VARCHAR(32) NOT NULL DEFAULT 'draft',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_quotes_reference_number ON quotes (reference_number);`,
	`CREATE INDEX IF NOT EXISTS idx_quotes_customer_id ON quotes (customer_id);`,
	`CREATE INDEX IF NOT EXISTS idx_quotes_status ON quotes (status);`,
	`CREATE TABLE IF NOT EXISTS product_specifications (
		id BIGSERIAL PRIMARY KEY,
		quote_id BIGINT NOT NULL REFERENCES quotes(id),
		description TEXT NOT NULL,
		profile_type VARCHAR(128) NOT NULL,
		alloy VARCHAR(16) NOT NULL,
		weight_per_meter DOUBLE PRECISION NOT NULL,
		total_length DOUBLE PRECISION NOT NULL,
		surface_treatment VARCHAR(32) NOT NULL,
		machining_complexity VARCHAR(32) NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_product_specifications_quote_id ON product_specifications (quote_id);`,
	`CREATE TABLE IF NOT EXISTS communication_contexts (
		id BIGSERIAL PRIMARY KEY,
		quote_id BIGINT NOT NULL REFERENCES quotes(id),
		context_text TEXT NOT NULL,
		extracted_urgency VARCHAR(32),
		custom_requests TEXT,
		past_agreements TEXT
	);`,
	`CREATE INDEX IF NOT EXISTS idx_communication_contexts_quote_id ON communication_contexts (quote_id);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
