package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/nordprofil/quote-ai/internal/model"
	"github.com/nordprofil/quote-ai/internal/repository"
)

type CustomerService struct {
	repo *repository.CustomerRepository
}

func NewCustomerService(repo *repository.CustomerRepository) *CustomerService {
	return &CustomerService{repo: repo}
}

type CustomerInput struct {
	CompanyName   string  `json:"company_name" binding:"required"`
	ContactPerson string  `json:"contact_person" binding:"required"`
	Email         string  `json:"email" binding:"required"`
	Phone         *string `json:"phone"`
	Address       *string `json:"address"`
}

type CustomerPatch struct {
	CompanyName   *string `json:"company_name"`
	ContactPerson *string `json:"contact_person"`
	Email         *string `json:"email"`
	Phone         *string `json:"phone"`
	Address       *string `json:"address"`
}

func (s *CustomerService) Create(ctx context.Context, input CustomerInput) (*model.Customer, error) {
	if !strings.Contains(input.Email, "@") {
		return nil, fmt.Errorf("%w: email is malformed", ErrInvalidInput)
	}
	return s.repo.Create(ctx, model.Customer{
		CompanyName:   strings.TrimSpace(input.CompanyName),
		ContactPerson: strings.TrimSpace(input.ContactPerson),
		Email:         strings.TrimSpace(input.Email),
		Phone:         input.Phone,
		Address:       input.Address,
	})
}

func (s *CustomerService) Get(ctx context.Context, id int64) (*model.Customer, error) {
	customer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return customer, nil
}

func (s *CustomerService) List(ctx context.Context, offset, limit int) ([]model.Customer, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, offset, limit)
}

func (s *CustomerService) Update(ctx context.Context, id int64, patch CustomerPatch) (*model.Customer, error) {
	customer, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.CompanyName != nil {
		customer.CompanyName = *patch.CompanyName
	}
	if patch.ContactPerson != nil {
		customer.ContactPerson = *patch.ContactPerson
	}
	if patch.Email != nil {
		if !strings.Contains(*patch.Email, "@") {
			return nil, fmt.Errorf("%w: email is malformed", ErrInvalidInput)
		}
		customer.Email = *patch.Email
	}
	if patch.Phone != nil {
		customer.Phone = patch.Phone
	}
	if patch.Address != nil {
		customer.Address = patch.Address
	}

	updated, err := s.repo.Update(ctx, *customer)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return updated, nil
}

// Delete refuses removal while the customer still owns quotes; quotes are
// never silently deleted along with their customer.
func (s *CustomerService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	quoteCount, err := s.repo.CountQuotes(ctx, id)
	if err != nil {
		return err
	}
	if quoteCount > 0 {
		return fmt.Errorf("%w: customer has %d quotes, delete them first", ErrConflict, quoteCount)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
