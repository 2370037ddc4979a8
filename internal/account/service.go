package account

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service exposes account lifecycle operations on top of the store.
type Service struct {
	store Store
}

// NewService builds an account service instance.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// CreateInput captures the profile data required to open an account.
type CreateInput struct {
	Name  string
	Email string
	Phone string
}

// Create provisions an account with a fresh id, zero balances and KYC
// status pending.
func (s *Service) Create(ctx context.Context, input CreateInput) (Account, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	phone := strings.TrimSpace(input.Phone)
	if name == "" || email == "" || phone == "" {
		return Account{}, errors.New("name, email and phone are required")
	}

	acct := Account{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Phone:     phone,
		KYCStatus: KYCPending,
		Balances:  make(map[string]decimal.Decimal),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Create(ctx, acct); err != nil {
		return Account{}, err
	}
	return acct, nil
}

// Get retrieves the account by id.
func (s *Service) Get(ctx context.Context, id string) (Account, error) {
	return s.store.Get(ctx, id)
}

// SetKYCStatus records the outcome of an identity verification review.
func (s *Service) SetKYCStatus(ctx context.Context, id string, status KYCStatus) (Account, error) {
	if err := s.store.SetKYCStatus(ctx, id, status); err != nil {
		return Account{}, err
	}
	return s.store.Get(ctx, id)
}
