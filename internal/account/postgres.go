package account

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

const uniqueViolation = "23505"

// PostgresStore persists accounts and balances in PostgreSQL. Balance rows
// are locked with SELECT ... FOR UPDATE so mutations on an account are
// serialized by the database.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed account store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts the account with zero balances.
func (s *PostgresStore) Create(ctx context.Context, acct Account) error {
	id, err := uuid.Parse(acct.ID)
	if err != nil {
		return fmt.Errorf("parse account id: %w", err)
	}
	_, err = s.db.Exec(ctx, `INSERT INTO accounts (id, name, email, phone, kyc_status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		id, acct.Name, acct.Email, acct.Phone, string(acct.KYCStatus), acct.CreatedAt.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrConflict
		}
		return err
	}
	return nil
}

// Get fetches the account and all of its balance rows.
func (s *PostgresStore) Get(ctx context.Context, id string) (Account, error) {
	acctID, err := uuid.Parse(id)
	if err != nil {
		return Account{}, ErrNotFound
	}

	var (
		acct      Account
		createdAt time.Time
		status    string
	)
	row := s.db.QueryRow(ctx, `SELECT id, name, email, phone, kyc_status, created_at
        FROM accounts WHERE id = $1`, acctID)
	var idVal uuid.UUID
	if err := row.Scan(&idVal, &acct.Name, &acct.Email, &acct.Phone, &status, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	acct.ID = idVal.String()
	acct.KYCStatus = KYCStatus(status)
	acct.CreatedAt = createdAt.UTC()
	acct.Balances = make(map[string]decimal.Decimal)

	rows, err := s.db.Query(ctx, `SELECT currency, amount::text FROM balances WHERE account_id = $1`, acctID)
	if err != nil {
		return Account{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var currency, amount string
		if err := rows.Scan(&currency, &amount); err != nil {
			return Account{}, err
		}
		value, err := decimal.NewFromString(amount)
		if err != nil {
			return Account{}, fmt.Errorf("decode balance for %s: %w", currency, err)
		}
		acct.Balances[currency] = value
	}
	return acct, rows.Err()
}

// Credit adds the amount to the account balance for the currency.
func (s *PostgresStore) Credit(ctx context.Context, id, currency string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("credit amount must be positive")
	}
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	acctID, err := lockAccount(ctx, tx, id)
	if err != nil {
		return err
	}
	if err := creditBalance(ctx, tx, acctID, currency, amount); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Debit subtracts the amount, failing when the balance would go negative.
func (s *PostgresStore) Debit(ctx context.Context, id, currency string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("debit amount must be positive")
	}
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	acctID, err := lockAccount(ctx, tx, id)
	if err != nil {
		return err
	}
	if err := debitBalance(ctx, tx, acctID, currency, amount); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Settle moves the amount between the two accounts in one transaction,
// locking both account rows ordered by id to avoid deadlocks.
func (s *PostgresStore) Settle(ctx context.Context, senderID, recipientID, currency string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("settlement amount must be positive")
	}
	if senderID == recipientID {
		return fmt.Errorf("settlement requires distinct accounts")
	}
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	first, second := senderID, recipientID
	if recipientID < senderID {
		first, second = recipientID, senderID
	}
	if _, err := lockAccount(ctx, tx, first); err != nil {
		return err
	}
	if _, err := lockAccount(ctx, tx, second); err != nil {
		return err
	}

	senderUUID := uuid.MustParse(senderID)
	recipientUUID := uuid.MustParse(recipientID)
	if err := debitBalance(ctx, tx, senderUUID, currency, amount); err != nil {
		return err
	}
	if err := creditBalance(ctx, tx, recipientUUID, currency, amount); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// SetKYCStatus updates the verification status for the account.
func (s *PostgresStore) SetKYCStatus(ctx context.Context, id string, status KYCStatus) error {
	if !status.Valid() {
		return fmt.Errorf("unknown kyc status %q", status)
	}
	acctID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := s.db.Exec(ctx, `UPDATE accounts SET kyc_status = $1 WHERE id = $2`, string(status), acctID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func lockAccount(ctx context.Context, tx pgx.Tx, id string) (uuid.UUID, error) {
	acctID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, ErrNotFound
	}
	var locked uuid.UUID
	if err := tx.QueryRow(ctx, `SELECT id FROM accounts WHERE id = $1 FOR UPDATE`, acctID).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrNotFound
		}
		return uuid.Nil, err
	}
	return locked, nil
}

func creditBalance(ctx context.Context, tx pgx.Tx, acctID uuid.UUID, currency string, amount decimal.Decimal) error {
	_, err := tx.Exec(ctx, `INSERT INTO balances (account_id, currency, amount) VALUES ($1, $2, $3)
        ON CONFLICT (account_id, currency) DO UPDATE SET amount = balances.amount + EXCLUDED.amount`,
		acctID, currency, amount.String())
	return err
}

func debitBalance(ctx context.Context, tx pgx.Tx, acctID uuid.UUID, currency string, amount decimal.Decimal) error {
	var current string
	err := tx.QueryRow(ctx, `SELECT amount::text FROM balances
        WHERE account_id = $1 AND currency = $2 FOR UPDATE`, acctID, currency).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrInsufficientFunds
		}
		return err
	}
	balance, err := decimal.NewFromString(current)
	if err != nil {
		return fmt.Errorf("decode balance: %w", err)
	}
	if balance.LessThan(amount) {
		return ErrInsufficientFunds
	}
	_, err = tx.Exec(ctx, `UPDATE balances SET amount = $1 WHERE account_id = $2 AND currency = $3`,
		balance.Sub(amount).String(), acctID, currency)
	return err
}
