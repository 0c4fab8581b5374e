package stylists

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrStylistNotFound is returned when no stylist matches the given id.
var ErrStylistNotFound = errors.New("stylists: not found")

// DB is the slice of pgxpool.Pool the repository uses; pgxmock satisfies
// it in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores stylists in the relational database.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("stylists: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting mocks for tests.
func NewPostgresRepositoryWithDB(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// UpsertRemote mirrors one Square team member. Name, role, and email follow
// the remote record on every sync; the permissions overlay is written only
// on first insert so local edits survive re-syncs.
func (r *PostgresRepository) UpsertRemote(ctx context.Context, tenantID string, s Stylist) (*Stylist, error) {
	if s.ID == "" {
		return nil, fmt.Errorf("stylists: upsert requires a team member id")
	}
	s.TenantID = tenantID
	perms, err := json.Marshal(s.Permissions)
	if err != nil {
		return nil, fmt.Errorf("stylists: encode permissions: %w", err)
	}
	query := `
		INSERT INTO stylists (id, tenant_id, name, role, email, permissions)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (tenant_id, id) DO UPDATE SET
			name = EXCLUDED.name,
			role = EXCLUDED.role,
			email = EXCLUDED.email,
			updated_at = now()
		RETURNING permissions, updated_at
	`
	var stored []byte
	if err := r.db.QueryRow(ctx, query,
		s.ID, s.TenantID, s.Name, s.Role, s.Email, perms,
	).Scan(&stored, &s.UpdatedAt); err != nil {
		return nil, fmt.Errorf("stylists: upsert failed: %w", err)
	}
	if err := json.Unmarshal(stored, &s.Permissions); err != nil {
		return nil, fmt.Errorf("stylists: decode permissions: %w", err)
	}
	return &s, nil
}

// List returns all of a tenant's stylists, owners first.
func (r *PostgresRepository) List(ctx context.Context, tenantID string) ([]*Stylist, error) {
	query := `
		SELECT id, tenant_id, name, role, email, permissions, updated_at
		FROM stylists
		WHERE tenant_id = $1
		ORDER BY role, name
	`
	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("stylists: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Stylist
	for rows.Next() {
		var (
			s     Stylist
			perms []byte
		)
		if err := rows.Scan(&s.ID, &s.TenantID, &s.Name, &s.Role, &s.Email, &perms, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("stylists: scan failed: %w", err)
		}
		if err := json.Unmarshal(perms, &s.Permissions); err != nil {
			return nil, fmt.Errorf("stylists: decode permissions: %w", err)
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

// UpdatePermissions replaces the local permissions overlay for one stylist.
func (r *PostgresRepository) UpdatePermissions(ctx context.Context, tenantID, id string, p Permissions) error {
	perms, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("stylists: encode permissions: %w", err)
	}
	query := `
		UPDATE stylists
		SET permissions = $1, updated_at = now()
		WHERE id = $2 AND tenant_id = $3
	`
	tag, err := r.db.Exec(ctx, query, perms, id, tenantID)
	if err != nil {
		return fmt.Errorf("stylists: update permissions: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStylistNotFound
	}
	return nil
}
