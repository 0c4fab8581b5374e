package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"golang.org/x/crypto/bcrypt"
)

func TestMemoryProviderSignUpSignIn(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryProvider()

	created, err := p.SignUp(ctx, SignUpParams{
		Email:    "Owner@Example.COM",
		Password: "hunter2!",
		Name:     "Rosa Vance",
		Role:     "owner",
		Metadata: map[string]string{"merchant_id": "MERCH-1"},
	})
	if err != nil {
		t.Fatalf("SignUp error: %v", err)
	}
	if created.Email != "owner@example.com" {
		t.Errorf("email not normalized: %q", created.Email)
	}

	got, err := p.SignIn(ctx, "owner@example.com", "hunter2!")
	if err != nil {
		t.Fatalf("SignIn error: %v", err)
	}
	if got.ID != created.ID || got.Metadata["merchant_id"] != "MERCH-1" {
		t.Errorf("account = %+v", got)
	}

	if _, err := p.SignIn(ctx, "owner@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: %v", err)
	}
	if _, err := p.SignIn(ctx, "nobody@example.com", "x"); !errors.Is(err, ErrNoAccount) {
		t.Errorf("unknown email: %v", err)
	}
}

func TestMemoryProviderDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryProvider()

	if _, err := p.SignUp(ctx, SignUpParams{Email: "a@b.c", Password: "pw"}); err != nil {
		t.Fatalf("first SignUp: %v", err)
	}
	if _, err := p.SignUp(ctx, SignUpParams{Email: "A@B.C", Password: "pw"}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("want ErrEmailTaken, got %v", err)
	}
}

func TestMemoryProviderGetCurrentUser(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryProvider()

	created, err := p.SignUp(ctx, SignUpParams{Email: "a@b.c", Password: "pw", Name: "A"})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	got, err := p.GetCurrentUser(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetCurrentUser: %v", err)
	}
	if got.Name != "A" {
		t.Errorf("account = %+v", got)
	}
	if _, err := p.GetCurrentUser(ctx, "missing"); !errors.Is(err, ErrNoAccount) {
		t.Errorf("missing id: %v", err)
	}
}

func TestPostgresSignInComparesHash(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	hash, _ := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	rows := pgxmock.NewRows([]string{"id", "email", "name", "role", "metadata", "password_hash", "created_at"}).
		AddRow("acct-1", "owner@example.com", "Rosa", "owner", []byte(`{"merchant_id":"M-1"}`), string(hash), time.Now())
	mock.ExpectQuery("SELECT id, email, name, role, metadata, password_hash, created_at").
		WithArgs("owner@example.com").
		WillReturnRows(rows)

	p := NewPostgresProviderWithDB(mock)
	acct, err := p.SignIn(context.Background(), "  Owner@Example.com ", "secret")
	if err != nil {
		t.Fatalf("SignIn error: %v", err)
	}
	if acct.Metadata["merchant_id"] != "M-1" {
		t.Errorf("metadata = %+v", acct.Metadata)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPostgresSignInWrongPassword(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	hash, _ := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	rows := pgxmock.NewRows([]string{"id", "email", "name", "role", "metadata", "password_hash", "created_at"}).
		AddRow("acct-1", "owner@example.com", "Rosa", "owner", []byte("{}"), string(hash), time.Now())
	mock.ExpectQuery("SELECT id, email, name, role, metadata, password_hash, created_at").
		WithArgs("owner@example.com").
		WillReturnRows(rows)

	p := NewPostgresProviderWithDB(mock)
	if _, err := p.SignIn(context.Background(), "owner@example.com", "not-it"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("want ErrInvalidCredentials, got %v", err)
	}
}

func TestPostgresSignUpEmailTaken(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	// ON CONFLICT DO NOTHING returns no row for a duplicate.
	mock.ExpectQuery("INSERT INTO accounts").
		WithArgs(pgxmock.AnyArg(), "owner@example.com", "Rosa", "owner", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}))

	p := NewPostgresProviderWithDB(mock)
	_, err = p.SignUp(context.Background(), SignUpParams{
		Email:    "owner@example.com",
		Password: "pw",
		Name:     "Rosa",
		Role:     "owner",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("want ErrEmailTaken, got %v", err)
	}
}
