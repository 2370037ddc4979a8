package account

import (
	"time"

	"github.com/shopspring/decimal"
)

// KYCStatus tracks identity verification progress for an account holder.
type KYCStatus string

const (
	KYCPending  KYCStatus = "pending"
	KYCApproved KYCStatus = "approved"
	KYCRejected KYCStatus = "rejected"
)

// Valid reports whether the value is a known KYC status.
func (s KYCStatus) Valid() bool {
	switch s {
	case KYCPending, KYCApproved, KYCRejected:
		return true
	}
	return false
}

// Account is a wallet holder with one balance per currency. A currency
// absent from Balances means a zero balance.
type Account struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	KYCStatus KYCStatus
	Balances  map[string]decimal.Decimal
	CreatedAt time.Time
}

// Balance returns the held amount for the currency, zero when absent.
func (a Account) Balance(currency string) decimal.Decimal {
	if amt, ok := a.Balances[currency]; ok {
		return amt
	}
	return decimal.Zero
}

// clone returns a deep copy so callers never alias the stored balance map.
func (a Account) clone() Account {
	out := a
	out.Balances = make(map[string]decimal.Decimal, len(a.Balances))
	for currency, amount := range a.Balances {
		out.Balances[currency] = amount
	}
	return out
}
