package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/egwallet/egwallet/internal/account"
	"github.com/egwallet/egwallet/internal/journal"
	"github.com/egwallet/egwallet/internal/notification"
	"github.com/egwallet/egwallet/internal/policy"
)

// Engine orchestrates the transfer lifecycle: it runs the policy gate,
// appends journal entries and drives settlement against the account
// store. It is the only writer of money movement; the journal's
// compare-and-swap transitions make every workflow step idempotent.
//
// A pending transfer holds no funds. Settlement re-validates the sender
// balance, so a transfer that passed submission can still end Failed.
type Engine struct {
	accounts account.Store
	journal  journal.Journal
	gate     policy.Gate
	notifier notification.Notifier
	logger   *slog.Logger
}

// NewEngine constructs a ledger engine.
func NewEngine(accounts account.Store, jrnl journal.Journal, gate policy.Gate, notifier notification.Notifier, logger *slog.Logger) *Engine {
	return &Engine{accounts: accounts, journal: jrnl, gate: gate, notifier: notifier, logger: logger}
}

// Submit validates a transfer request and records it as Pending. No funds
// move or are reserved until an admin approves the transfer. Validation
// failures are returned synchronously and leave no journal entry.
func (e *Engine) Submit(ctx context.Context, senderID, recipientID string, amount decimal.Decimal, currency string) (journal.Transaction, error) {
	sender, err := e.accounts.Get(ctx, senderID)
	if err != nil {
		return journal.Transaction{}, err
	}
	if _, err := e.accounts.Get(ctx, recipientID); err != nil {
		return journal.Transaction{}, err
	}
	if err := e.gate.CheckTransfer(sender, recipientID, amount, currency); err != nil {
		return journal.Transaction{}, err
	}

	tx := journal.Transaction{
		ID:          uuid.NewString(),
		SenderID:    senderID,
		RecipientID: recipientID,
		Amount:      amount,
		Currency:    currency,
		Status:      journal.StatusPending,
		CreatedAt:   time.Now().UTC(),
	}
	if err := e.journal.Append(ctx, tx); err != nil {
		return journal.Transaction{}, err
	}

	e.logger.Info("transfer submitted",
		slog.String("tx_id", tx.ID),
		slog.String("sender_id", senderID),
		slog.String("recipient_id", recipientID),
		slog.String("amount", amount.String()),
		slog.String("currency", currency),
	)
	return tx, nil
}

// Approve moves a Pending transfer to Approved and settles it in the same
// call. Approving a transfer that already reached a terminal status is an
// idempotent no-op returning the current state; losing the race to a
// concurrent approval likewise returns whatever state the winner left.
func (e *Engine) Approve(ctx context.Context, txID, adminID string) (journal.Transaction, error) {
	now := time.Now().UTC()
	approved, err := e.journal.Transition(ctx, txID, journal.StatusPending, journal.StatusApproved, now, "", adminID)
	if err != nil {
		if errors.Is(err, journal.ErrAlreadyFinalized) || errors.Is(err, journal.ErrStaleTransition) {
			return approved, nil
		}
		return journal.Transaction{}, err
	}
	return e.settle(ctx, approved)
}

// Reject finalizes a Pending transfer without moving funds. Idempotent on
// terminal transactions.
func (e *Engine) Reject(ctx context.Context, txID, adminID, reason string) (journal.Transaction, error) {
	now := time.Now().UTC()
	rejected, err := e.journal.Transition(ctx, txID, journal.StatusPending, journal.StatusRejected, now, reason, adminID)
	if err != nil {
		if errors.Is(err, journal.ErrAlreadyFinalized) || errors.Is(err, journal.ErrStaleTransition) {
			return rejected, nil
		}
		return journal.Transaction{}, err
	}
	e.logger.Info("transfer rejected",
		slog.String("tx_id", txID),
		slog.String("admin_id", adminID),
		slog.String("reason", reason),
	)
	return rejected, nil
}

// settle applies the debit and credit legs atomically. A settlement error
// is recorded on the transaction as Failed, never propagated as a
// transport failure; the caller inspects the returned status.
func (e *Engine) settle(ctx context.Context, tx journal.Transaction) (journal.Transaction, error) {
	err := e.accounts.Settle(ctx, tx.SenderID, tx.RecipientID, tx.Currency, tx.Amount)
	now := time.Now().UTC()
	if err != nil {
		failed, terr := e.journal.Transition(ctx, tx.ID, journal.StatusApproved, journal.StatusFailed, now, err.Error(), "")
		if terr != nil {
			if errors.Is(terr, journal.ErrAlreadyFinalized) || errors.Is(terr, journal.ErrStaleTransition) {
				return failed, nil
			}
			return journal.Transaction{}, terr
		}
		e.logger.Warn("settlement failed",
			slog.String("tx_id", tx.ID),
			slog.String("reason", err.Error()),
		)
		return failed, nil
	}

	completed, terr := e.journal.Transition(ctx, tx.ID, journal.StatusApproved, journal.StatusCompleted, now, "", "")
	if terr != nil {
		if errors.Is(terr, journal.ErrAlreadyFinalized) || errors.Is(terr, journal.ErrStaleTransition) {
			return completed, nil
		}
		return journal.Transaction{}, terr
	}

	e.logger.Info("transfer completed",
		slog.String("tx_id", tx.ID),
		slog.String("sender_id", tx.SenderID),
		slog.String("recipient_id", tx.RecipientID),
		slog.String("amount", tx.Amount.String()),
		slog.String("currency", tx.Currency),
	)
	if e.notifier != nil {
		_ = e.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindTransferCompleted,
			Destination: tx.RecipientID,
			Body:        fmt.Sprintf("You received %s %s", tx.Amount.String(), tx.Currency),
		})
	}
	return completed, nil
}

// Get returns a single transaction by id.
func (e *Engine) Get(ctx context.Context, txID string) (journal.Transaction, error) {
	return e.journal.Get(ctx, txID)
}

// List returns the account's transactions, newest first.
func (e *Engine) List(ctx context.Context, accountID string) ([]journal.Transaction, error) {
	if _, err := e.accounts.Get(ctx, accountID); err != nil {
		return nil, err
	}
	return e.journal.ListForAccount(ctx, accountID)
}
