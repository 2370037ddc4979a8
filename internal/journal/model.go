package journal

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is a transfer's position in the approval workflow.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusCompleted Status = "completed"
	StatusRejected  Status = "rejected"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusRejected, StatusFailed:
		return true
	}
	return false
}

// Transaction is one journal entry for a transfer. The id doubles as the
// idempotency key for approval and settlement. Only the status, reason,
// admin and timestamp fields change after Append, each written exactly
// once per transition.
type Transaction struct {
	ID          string
	SenderID    string
	RecipientID string
	Amount      decimal.Decimal
	Currency    string
	Status      Status
	Reason      string
	AdminID     string
	CreatedAt   time.Time
	ApprovedAt  *time.Time
	CompletedAt *time.Time
}
