package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound occurs when no credential exists for the email.
	ErrNotFound = errors.New("credential not found")

	// ErrDuplicate occurs when the email already has a credential.
	ErrDuplicate = errors.New("credential already exists")
)

// Repository persists credentials.
type Repository interface {
	Create(ctx context.Context, cred Credential) error
	FindByEmail(ctx context.Context, email string) (Credential, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed credential repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new credential.
func (r *PostgresRepository) Create(ctx context.Context, cred Credential) error {
	acctID, err := uuid.Parse(cred.AccountID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO credentials (account_id, email, password_hash, created_at)
        VALUES ($1, $2, $3, $4)`, acctID, cred.Email, cred.PasswordHash, cred.CreatedAt.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// FindByEmail fetches the credential registered under the email.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (Credential, error) {
	row := r.db.QueryRow(ctx, `SELECT account_id, email, password_hash, created_at
        FROM credentials WHERE email = $1`, email)
	var (
		acctID    uuid.UUID
		createdAt time.Time
		cred      Credential
	)
	if err := row.Scan(&acctID, &cred.Email, &cred.PasswordHash, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Credential{}, ErrNotFound
		}
		return Credential{}, err
	}
	cred.AccountID = acctID.String()
	cred.CreatedAt = createdAt.UTC()
	return cred, nil
}
