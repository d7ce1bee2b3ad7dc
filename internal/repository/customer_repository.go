package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/nordprofil/quote-ai/internal/model"
)

type CustomerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) Create(ctx context.Context, customer model.Customer) (*model.Customer, error) {
	now := time.Now().UTC()
	var saved model.Customer
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO customers (company_name, contact_person, email, phone, address, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id, company_name, contact_person, email, phone, address, created_at, updated_at
	`,
		customer.CompanyName,
		customer.ContactPerson,
		customer.Email,
		customer.Phone,
		customer.Address,
		now,
		now,
	).Scan(&saved).Error
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *CustomerRepository) GetByID(ctx context.Context, id int64) (*model.Customer, error) {
	var customer model.Customer
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, company_name, contact_person, email, phone, address, created_at, updated_at
		FROM customers
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&customer).Error
	if err != nil {
		return nil, err
	}
	if customer.ID == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &customer, nil
}

func (r *CustomerRepository) List(ctx context.Context, offset, limit int) ([]model.Customer, error) {
	var customers []model.Customer
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, company_name, contact_person, email, phone, address, created_at, updated_at
		FROM customers
		ORDER BY id ASC
		LIMIT ? OFFSET ?
	`, limit, offset).Scan(&customers).Error
	if err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *CustomerRepository) Update(ctx context.Context, customer model.Customer) (*model.Customer, error) {
	var saved model.Customer
	err := r.db.WithContext(ctx).Raw(`
		UPDATE customers
		SET
			company_name = ?,
			contact_person = ?,
			email = ?,
			phone = ?,
			address = ?,
			updated_at = ?
		WHERE id = ?
		RETURNING id, company_name, contact_person, email, phone, address, created_at, updated_at
	`,
		customer.CompanyName,
		customer.ContactPerson,
		customer.Email,
		customer.Phone,
		customer.Address,
		time.Now().UTC(),
		customer.ID,
	).Scan(&saved).Error
	if err != nil {
		return nil, err
	}
	if saved.ID == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &saved, nil
}

func (r *CustomerRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Exec(`DELETE FROM customers WHERE id = ?`, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountQuotes reports how many quotes reference the customer. Used to refuse
// deleting a customer that still owns quotes.
func (r *CustomerRepository) CountQuotes(ctx context.Context, customerID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) FROM quotes WHERE customer_id = ?
	`, customerID).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
