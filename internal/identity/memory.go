package identity

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// MemoryProvider is an in-memory account store for tests and local
// development.
type MemoryProvider struct {
	mu     sync.RWMutex
	byID   map[string]*memoryAccount
	byMail map[string]string
}

type memoryAccount struct {
	account Account
	hash    []byte
}

// NewMemoryProvider creates an empty in-memory store.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		byID:   make(map[string]*memoryAccount),
		byMail: make(map[string]string),
	}
}

func (m *MemoryProvider) SignIn(_ context.Context, email, password string) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byMail[normalizeEmail(email)]
	if !ok {
		return nil, ErrNoAccount
	}
	rec := m.byID[id]
	if bcrypt.CompareHashAndPassword(rec.hash, []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	acct := rec.account
	return &acct, nil
}

func (m *MemoryProvider) SignUp(_ context.Context, p SignUpParams) (*Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	email := normalizeEmail(p.Email)
	if _, exists := m.byMail[email]; exists {
		return nil, ErrEmailTaken
	}
	acct := Account{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      p.Name,
		Role:      p.Role,
		Metadata:  p.Metadata,
		CreatedAt: time.Now().UTC(),
	}
	m.byID[acct.ID] = &memoryAccount{account: acct, hash: hash}
	m.byMail[email] = acct.ID
	out := acct
	return &out, nil
}

func (m *MemoryProvider) GetCurrentUser(_ context.Context, id string) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.byID[id]
	if !ok {
		return nil, ErrNoAccount
	}
	acct := rec.account
	return &acct, nil
}
