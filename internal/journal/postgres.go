package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const txColumns = `id, sender_id, recipient_id, amount::text, currency, status, reason, admin_id, created_at, approved_at, completed_at`

// PostgresJournal persists transactions in PostgreSQL. Status transitions
// are guarded with a conditional UPDATE so a concurrent driver that lost
// the race observes the current row instead of overwriting it.
type PostgresJournal struct {
	db *pgxpool.Pool
}

// NewPostgresJournal constructs a Postgres-backed journal.
func NewPostgresJournal(db *pgxpool.Pool) *PostgresJournal {
	return &PostgresJournal{db: db}
}

// Append inserts a new journal entry.
func (j *PostgresJournal) Append(ctx context.Context, tx Transaction) error {
	id, err := uuid.Parse(tx.ID)
	if err != nil {
		return fmt.Errorf("parse transaction id: %w", err)
	}
	_, err = j.db.Exec(ctx, `INSERT INTO transactions
        (id, sender_id, recipient_id, amount, currency, status, reason, admin_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id, tx.SenderID, tx.RecipientID, tx.Amount.String(), tx.Currency,
		string(tx.Status), tx.Reason, tx.AdminID, tx.CreatedAt.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateTransaction
		}
		return err
	}
	return nil
}

// Transition atomically advances the status when the stored status still
// matches from. On a miss it returns the current row and a classification
// error.
func (j *PostgresJournal) Transition(ctx context.Context, txID string, from, to Status, at time.Time, reason, adminID string) (Transaction, error) {
	id, err := uuid.Parse(txID)
	if err != nil {
		return Transaction{}, ErrNotFound
	}

	var query string
	args := []any{id, string(from), string(to)}
	switch to {
	case StatusApproved:
		query = `UPDATE transactions SET status = $3, approved_at = $4, admin_id = $5
            WHERE id = $1 AND status = $2 RETURNING ` + txColumns
		args = append(args, at.UTC(), adminID)
	case StatusCompleted:
		query = `UPDATE transactions SET status = $3, completed_at = $4
            WHERE id = $1 AND status = $2 RETURNING ` + txColumns
		args = append(args, at.UTC())
	case StatusRejected:
		query = `UPDATE transactions SET status = $3, reason = $4, admin_id = $5
            WHERE id = $1 AND status = $2 RETURNING ` + txColumns
		args = append(args, reason, adminID)
	case StatusFailed:
		query = `UPDATE transactions SET status = $3, reason = $4
            WHERE id = $1 AND status = $2 RETURNING ` + txColumns
		args = append(args, reason)
	default:
		return Transaction{}, fmt.Errorf("unsupported transition target %q", to)
	}

	tx, err := scanTransaction(j.db.QueryRow(ctx, query, args...))
	if err == nil {
		return tx, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, err
	}

	// CAS miss: report what the row looks like now.
	current, err := j.Get(ctx, txID)
	if err != nil {
		return Transaction{}, err
	}
	return current, transitionErr(current.Status)
}

// Get fetches a single transaction.
func (j *PostgresJournal) Get(ctx context.Context, txID string) (Transaction, error) {
	id, err := uuid.Parse(txID)
	if err != nil {
		return Transaction{}, ErrNotFound
	}
	tx, err := scanTransaction(j.db.QueryRow(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, ErrNotFound
	}
	return tx, err
}

// ListForAccount returns transactions where the account is sender or
// recipient, newest first.
func (j *PostgresJournal) ListForAccount(ctx context.Context, accountID string) ([]Transaction, error) {
	rows, err := j.db.Query(ctx, `SELECT `+txColumns+` FROM transactions
        WHERE sender_id = $1 OR recipient_id = $1 ORDER BY created_at DESC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (Transaction, error) {
	var (
		tx          Transaction
		id          uuid.UUID
		amount      string
		status      string
		createdAt   time.Time
		approvedAt  *time.Time
		completedAt *time.Time
	)
	if err := row.Scan(&id, &tx.SenderID, &tx.RecipientID, &amount, &tx.Currency,
		&status, &tx.Reason, &tx.AdminID, &createdAt, &approvedAt, &completedAt); err != nil {
		return Transaction{}, err
	}
	value, err := decimal.NewFromString(amount)
	if err != nil {
		return Transaction{}, fmt.Errorf("decode amount: %w", err)
	}
	tx.ID = id.String()
	tx.Amount = value
	tx.Status = Status(status)
	tx.CreatedAt = createdAt.UTC()
	tx.ApprovedAt = approvedAt
	tx.CompletedAt = completedAt
	return tx, nil
}
