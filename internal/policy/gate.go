package policy

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/egwallet/egwallet/internal/account"
	"github.com/egwallet/egwallet/internal/money"
)

var (
	// ErrValidation occurs on a malformed or non-positive transfer request.
	ErrValidation = errors.New("invalid transfer request")

	// ErrSelfTransfer occurs when sender and recipient are the same account.
	ErrSelfTransfer = errors.New("cannot send money to yourself")

	// ErrKYCRequired occurs when the sender has not completed verification.
	ErrKYCRequired = errors.New("sender identity verification required")

	// ErrLimitExceeded occurs when the amount exceeds the wallet balance cap.
	ErrLimitExceeded = errors.New("amount exceeds the wallet balance cap")
)

// DefaultBalanceCap is the maximum single-wallet balance in reference units.
var DefaultBalanceCap = decimal.NewFromInt(250_000)

// Gate evaluates transfer rules. It is stateless and side-effect free:
// every check reads only the sender snapshot it is handed.
type Gate struct {
	maxWalletBalance decimal.Decimal
}

// NewGate builds a gate with the given balance cap; a non-positive cap
// falls back to DefaultBalanceCap.
func NewGate(maxWalletBalance decimal.Decimal) Gate {
	if !maxWalletBalance.IsPositive() {
		maxWalletBalance = DefaultBalanceCap
	}
	return Gate{maxWalletBalance: maxWalletBalance}
}

// CheckTransfer validates a transfer request before any journal entry is
// created. Order of checks: field validation, self-transfer, KYC, cap.
func (g Gate) CheckTransfer(sender account.Account, recipientID string, amount decimal.Decimal, currency string) error {
	if recipientID == "" || currency == "" {
		return fmt.Errorf("%w: recipient and currency are required", ErrValidation)
	}
	if !money.Supported(currency) {
		return fmt.Errorf("%w: unsupported currency %q", ErrValidation, currency)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be greater than zero", ErrValidation)
	}
	if sender.ID == recipientID {
		return ErrSelfTransfer
	}
	if sender.KYCStatus != account.KYCApproved {
		return ErrKYCRequired
	}
	if amount.GreaterThan(g.maxWalletBalance) {
		return ErrLimitExceeded
	}
	return nil
}
