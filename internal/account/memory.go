package account

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// record pairs an account with the mutex that serializes its mutations.
type record struct {
	mu   sync.Mutex
	acct Account
}

type memoryStore struct {
	mu      sync.RWMutex
	records map[string]*record
	emails  map[string]string
	phones  map[string]string
}

// NewMemoryStore creates a concurrency-safe in-memory account store. Used
// in tests and when the service runs without a database.
func NewMemoryStore() Store {
	return &memoryStore{
		records: make(map[string]*record),
		emails:  make(map[string]string),
		phones:  make(map[string]string),
	}
}

func (s *memoryStore) Create(_ context.Context, acct Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[acct.ID]; exists {
		return ErrConflict
	}
	if _, exists := s.emails[acct.Email]; exists {
		return ErrConflict
	}
	if _, exists := s.phones[acct.Phone]; exists {
		return ErrConflict
	}
	stored := acct.clone()
	if stored.Balances == nil {
		stored.Balances = make(map[string]decimal.Decimal)
	}
	s.records[acct.ID] = &record{acct: stored}
	s.emails[acct.Email] = acct.ID
	s.phones[acct.Phone] = acct.ID
	return nil
}

func (s *memoryStore) Get(_ context.Context, id string) (Account, error) {
	rec, err := s.find(id)
	if err != nil {
		return Account{}, err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.acct.clone(), nil
}

func (s *memoryStore) Credit(_ context.Context, id, currency string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("credit amount must be positive")
	}
	rec, err := s.find(id)
	if err != nil {
		return err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.acct.Balances[currency] = rec.acct.Balance(currency).Add(amount)
	return nil
}

func (s *memoryStore) Debit(_ context.Context, id, currency string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("debit amount must be positive")
	}
	rec, err := s.find(id)
	if err != nil {
		return err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	balance := rec.acct.Balance(currency)
	if balance.LessThan(amount) {
		return ErrInsufficientFunds
	}
	rec.acct.Balances[currency] = balance.Sub(amount)
	return nil
}

// Settle applies the debit and credit legs together or not at all. Both
// account locks are taken in lexicographic id order.
func (s *memoryStore) Settle(_ context.Context, senderID, recipientID, currency string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("settlement amount must be positive")
	}
	if senderID == recipientID {
		return fmt.Errorf("settlement requires distinct accounts")
	}
	sender, err := s.find(senderID)
	if err != nil {
		return err
	}
	recipient, err := s.find(recipientID)
	if err != nil {
		return err
	}

	first, second := sender, recipient
	if recipientID < senderID {
		first, second = recipient, sender
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	balance := sender.acct.Balance(currency)
	if balance.LessThan(amount) {
		return ErrInsufficientFunds
	}
	sender.acct.Balances[currency] = balance.Sub(amount)
	recipient.acct.Balances[currency] = recipient.acct.Balance(currency).Add(amount)
	return nil
}

func (s *memoryStore) SetKYCStatus(_ context.Context, id string, status KYCStatus) error {
	if !status.Valid() {
		return fmt.Errorf("unknown kyc status %q", status)
	}
	rec, err := s.find(id)
	if err != nil {
		return err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.acct.KYCStatus = status
	return nil
}

func (s *memoryStore) find(id string) (*record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec, nil
}
