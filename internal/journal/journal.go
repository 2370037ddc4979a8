package journal

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound occurs when no transaction exists for the identifier.
	ErrNotFound = errors.New("transaction not found")

	// ErrDuplicateTransaction occurs when appending an id that already exists.
	ErrDuplicateTransaction = errors.New("duplicate transaction")

	// ErrAlreadyFinalized occurs when a transition targets a transaction
	// that already reached a terminal status.
	ErrAlreadyFinalized = errors.New("transaction already finalized")

	// ErrStaleTransition occurs when the transaction moved past the
	// expected status but is not yet terminal.
	ErrStaleTransition = errors.New("transaction status changed")
)

// Journal is the append-only record of each transfer's workflow. Transition
// is the only mutation after Append: it compares-and-swaps the status so
// two concurrent drivers of the same transaction cannot both win. The
// journal never recomputes balances.
type Journal interface {
	Append(ctx context.Context, tx Transaction) error
	Transition(ctx context.Context, txID string, from, to Status, at time.Time, reason, adminID string) (Transaction, error)
	Get(ctx context.Context, txID string) (Transaction, error)
	ListForAccount(ctx context.Context, accountID string) ([]Transaction, error)
}

// apply stamps the transition onto the transaction. Shared by backends so
// both record identical timestamps semantics.
func apply(tx Transaction, to Status, at time.Time, reason, adminID string) Transaction {
	tx.Status = to
	switch to {
	case StatusApproved:
		t := at
		tx.ApprovedAt = &t
		tx.AdminID = adminID
	case StatusCompleted:
		t := at
		tx.CompletedAt = &t
	case StatusRejected:
		tx.Reason = reason
		tx.AdminID = adminID
	case StatusFailed:
		tx.Reason = reason
	}
	return tx
}

// transitionErr classifies a compare-and-swap miss by the current status.
func transitionErr(current Status) error {
	if current.Terminal() {
		return ErrAlreadyFinalized
	}
	return ErrStaleTransition
}
