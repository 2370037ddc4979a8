package account

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrConflict occurs when the email or phone is already registered.
	ErrConflict = errors.New("email or phone already registered")

	// ErrNotFound occurs when no account exists for the identifier.
	ErrNotFound = errors.New("account not found")

	// ErrInsufficientFunds occurs when a debit would drive a balance negative.
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Store owns account records and per-currency balances. Credit, Debit and
// Settle are the only balance mutations and each serializes against every
// other mutating call on the same account. Settle applies both legs of a
// transfer atomically: it acquires the two accounts in lexicographic id
// order so concurrent settlements over the same pair cannot deadlock.
type Store interface {
	Create(ctx context.Context, acct Account) error
	Get(ctx context.Context, id string) (Account, error)
	Credit(ctx context.Context, id, currency string, amount decimal.Decimal) error
	Debit(ctx context.Context, id, currency string, amount decimal.Decimal) error
	Settle(ctx context.Context, senderID, recipientID, currency string, amount decimal.Decimal) error
	SetKYCStatus(ctx context.Context, id string, status KYCStatus) error
}
