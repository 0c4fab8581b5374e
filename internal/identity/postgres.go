package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// DB is the slice of pgxpool.Pool the repository uses; pgxmock satisfies
// it in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresProvider stores accounts in the relational database with
// bcrypt-hashed passwords.
type PostgresProvider struct {
	db DB
}

// NewPostgresProvider initializes a provider backed by pgxpool.
func NewPostgresProvider(pool *pgxpool.Pool) *PostgresProvider {
	if pool == nil {
		panic("identity: pgx pool required")
	}
	return &PostgresProvider{db: pool}
}

// NewPostgresProviderWithDB allows injecting mocks for tests.
func NewPostgresProviderWithDB(db DB) *PostgresProvider {
	return &PostgresProvider{db: db}
}

// SignIn verifies email + password against the stored hash.
func (p *PostgresProvider) SignIn(ctx context.Context, email, password string) (*Account, error) {
	query := `
		SELECT id, email, name, role, metadata, password_hash, created_at
		FROM accounts
		WHERE email = $1
	`
	var (
		acct     Account
		hash     string
		metadata []byte
	)
	row := p.db.QueryRow(ctx, query, normalizeEmail(email))
	if err := row.Scan(&acct.ID, &acct.Email, &acct.Name, &acct.Role, &metadata, &hash, &acct.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoAccount
		}
		return nil, fmt.Errorf("identity: select account: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &acct.Metadata); err != nil {
			return nil, fmt.Errorf("identity: decode metadata: %w", err)
		}
	}
	return &acct, nil
}

// SignUp creates a new account. Emails are unique.
func (p *PostgresProvider) SignUp(ctx context.Context, params SignUpParams) (*Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("identity: hash password: %w", err)
	}

	metadata := []byte("{}")
	if len(params.Metadata) > 0 {
		metadata, err = json.Marshal(params.Metadata)
		if err != nil {
			return nil, fmt.Errorf("identity: encode metadata: %w", err)
		}
	}

	acct := Account{
		ID:       uuid.NewString(),
		Email:    normalizeEmail(params.Email),
		Name:     params.Name,
		Role:     params.Role,
		Metadata: params.Metadata,
	}
	query := `
		INSERT INTO accounts (id, email, name, role, metadata, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (email) DO NOTHING
		RETURNING created_at
	`
	row := p.db.QueryRow(ctx, query, acct.ID, acct.Email, acct.Name, acct.Role, metadata, string(hash))
	if err := row.Scan(&acct.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("identity: insert account: %w", err)
	}
	return &acct, nil
}

// GetCurrentUser loads an account by id.
func (p *PostgresProvider) GetCurrentUser(ctx context.Context, id string) (*Account, error) {
	query := `
		SELECT id, email, name, role, metadata, created_at
		FROM accounts
		WHERE id = $1
	`
	var (
		acct     Account
		metadata []byte
	)
	row := p.db.QueryRow(ctx, query, id)
	if err := row.Scan(&acct.ID, &acct.Email, &acct.Name, &acct.Role, &metadata, &acct.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoAccount
		}
		return nil, fmt.Errorf("identity: select account: %w", err)
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &acct.Metadata); err != nil {
			return nil, fmt.Errorf("identity: decode metadata: %w", err)
		}
	}
	return &acct, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
