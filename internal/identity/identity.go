// Package identity manages local accounts. A tenant's account may be
// created directly at sign-up or minted automatically the first time a
// Square merchant connects.
package identity

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNoAccount means no account exists for the given email.
	ErrNoAccount = errors.New("identity: no account for email")

	// ErrInvalidCredentials means the account exists but the password
	// did not match.
	ErrInvalidCredentials = errors.New("identity: invalid credentials")

	// ErrEmailTaken means sign-up collided with an existing account.
	ErrEmailTaken = errors.New("identity: email already registered")
)

// Account is a local user record. PasswordHash never leaves this package.
type Account struct {
	ID        string
	Email     string
	Name      string
	Role      string
	Metadata  map[string]string
	CreatedAt time.Time
}

// SignUpParams carries the fields needed to mint an account.
type SignUpParams struct {
	Email    string
	Password string
	Name     string
	Role     string
	Metadata map[string]string
}

// Provider is the account store contract. Postgres backs it in
// production; the memory implementation backs tests.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*Account, error)
	SignUp(ctx context.Context, p SignUpParams) (*Account, error)
	GetCurrentUser(ctx context.Context, id string) (*Account, error)
}
