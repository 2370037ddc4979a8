package identity

import "time"

// Credential stores the hashed signin secret for an account. Profile data
// lives on the account itself; this package only owns verification.
type Credential struct {
	AccountID    string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}
