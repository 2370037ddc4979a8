package infra

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema holds the wallet core tables. Balances carry a non-negative
// check so the database enforces the ledger invariant even if a bug
// slipped past the store.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
        id         UUID PRIMARY KEY,
        name       TEXT NOT NULL,
        email      TEXT NOT NULL UNIQUE,
        phone      TEXT NOT NULL UNIQUE,
        kyc_status TEXT NOT NULL DEFAULT 'pending',
        created_at TIMESTAMPTZ NOT NULL DEFAULT now()
    )`,
	`CREATE TABLE IF NOT EXISTS balances (
        account_id UUID NOT NULL REFERENCES accounts(id),
        currency   TEXT NOT NULL,
        amount     NUMERIC(20, 4) NOT NULL DEFAULT 0 CHECK (amount >= 0),
        PRIMARY KEY (account_id, currency)
    )`,
	`CREATE TABLE IF NOT EXISTS transactions (
        id           UUID PRIMARY KEY,
        sender_id    TEXT NOT NULL,
        recipient_id TEXT NOT NULL,
        amount       NUMERIC(20, 4) NOT NULL CHECK (amount > 0),
        currency     TEXT NOT NULL,
        status       TEXT NOT NULL,
        reason       TEXT NOT NULL DEFAULT '',
        admin_id     TEXT NOT NULL DEFAULT '',
        created_at   TIMESTAMPTZ NOT NULL,
        approved_at  TIMESTAMPTZ,
        completed_at TIMESTAMPTZ
    )`,
	`CREATE INDEX IF NOT EXISTS transactions_sender_idx ON transactions (sender_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS transactions_recipient_idx ON transactions (recipient_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS credentials (
        account_id    UUID PRIMARY KEY REFERENCES accounts(id),
        email         TEXT NOT NULL UNIQUE,
        password_hash BYTEA NOT NULL,
        created_at    TIMESTAMPTZ NOT NULL
    )`,
}

// EnsureSchema creates the wallet tables when they do not exist yet.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
