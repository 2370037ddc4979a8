package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/egwallet/egwallet/internal/account"
)

// ErrInvalidCredentials occurs when the email or password does not match.
var ErrInvalidCredentials = errors.New("invalid credentials")

const minPasswordLength = 8

// Service handles signup and signin. It is a collaborator of the ledger
// core: it opens accounts through the account service and owns password
// hashing, nothing else.
type Service struct {
	repo     Repository
	accounts *account.Service
}

// NewService creates an identity service.
func NewService(repo Repository, accounts *account.Service) *Service {
	return &Service{repo: repo, accounts: accounts}
}

// RegisterInput captures signup data.
type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// Register opens an account and stores a bcrypt credential for it. The
// new account starts with zero balances and KYC pending.
func (s *Service) Register(ctx context.Context, input RegisterInput) (account.Account, error) {
	if len(input.Password) < minPasswordLength {
		return account.Account{}, errors.New("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return account.Account{}, err
	}

	acct, err := s.accounts.Create(ctx, account.CreateInput{
		Name:  input.Name,
		Email: input.Email,
		Phone: input.Phone,
	})
	if err != nil {
		return account.Account{}, err
	}

	cred := Credential{
		AccountID:    acct.ID,
		Email:        acct.Email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, cred); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return account.Account{}, account.ErrConflict
		}
		return account.Account{}, err
	}
	return acct, nil
}

// Authenticate verifies the email and password and returns the account.
func (s *Service) Authenticate(ctx context.Context, email, password string) (account.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	cred, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return account.Account{}, ErrInvalidCredentials
		}
		return account.Account{}, err
	}
	if err := bcrypt.CompareHashAndPassword(cred.PasswordHash, []byte(password)); err != nil {
		return account.Account{}, ErrInvalidCredentials
	}
	return s.accounts.Get(ctx, cred.AccountID)
}
