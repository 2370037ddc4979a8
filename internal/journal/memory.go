package journal

import (
	"context"
	"sync"
	"time"
)

type memoryJournal struct {
	mu        sync.RWMutex
	entries   map[string]Transaction
	byAccount map[string][]string // append order per account
}

// NewMemory creates a concurrency-safe in-memory journal for tests and
// database-less runs.
func NewMemory() Journal {
	return &memoryJournal{
		entries:   make(map[string]Transaction),
		byAccount: make(map[string][]string),
	}
}

func (j *memoryJournal) Append(_ context.Context, tx Transaction) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, exists := j.entries[tx.ID]; exists {
		return ErrDuplicateTransaction
	}
	j.entries[tx.ID] = tx
	j.byAccount[tx.SenderID] = append(j.byAccount[tx.SenderID], tx.ID)
	if tx.RecipientID != tx.SenderID {
		j.byAccount[tx.RecipientID] = append(j.byAccount[tx.RecipientID], tx.ID)
	}
	return nil
}

func (j *memoryJournal) Transition(_ context.Context, txID string, from, to Status, at time.Time, reason, adminID string) (Transaction, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	tx, ok := j.entries[txID]
	if !ok {
		return Transaction{}, ErrNotFound
	}
	if tx.Status != from {
		return tx, transitionErr(tx.Status)
	}
	tx = apply(tx, to, at, reason, adminID)
	j.entries[txID] = tx
	return tx, nil
}

func (j *memoryJournal) Get(_ context.Context, txID string) (Transaction, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	tx, ok := j.entries[txID]
	if !ok {
		return Transaction{}, ErrNotFound
	}
	return tx, nil
}

func (j *memoryJournal) ListForAccount(_ context.Context, accountID string) ([]Transaction, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	ids := j.byAccount[accountID]
	out := make([]Transaction, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- { // newest first
		out = append(out, j.entries[ids[i]])
	}
	return out, nil
}
