package clients

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrClientNotFound is returned when no client matches the given id.
var ErrClientNotFound = errors.New("clients: not found")

// DB is the slice of pgxpool.Pool the repository uses; pgxmock satisfies
// it in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores clients in the relational database.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("clients: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting mocks for tests.
func NewPostgresRepositoryWithDB(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a manually entered client.
func (r *PostgresRepository) Create(ctx context.Context, tenantID string, c Client) (*Client, error) {
	c.ID = uuid.NewString()
	c.TenantID = tenantID
	if c.Source == "" {
		c.Source = SourceManual
	}
	query := `
		INSERT INTO clients (id, tenant_id, external_id, name, email, phone, avatar_url, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	if err := r.db.QueryRow(ctx, query,
		c.ID, c.TenantID, c.ExternalID, c.Name, c.Email, c.Phone, c.AvatarURL, c.Source,
	).Scan(&c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, fmt.Errorf("clients: insert failed: %w", err)
	}
	return &c, nil
}

// UpsertRemote mirrors one Square customer. Re-running a sync with the same
// external id updates the existing row instead of creating a duplicate.
func (r *PostgresRepository) UpsertRemote(ctx context.Context, tenantID string, c Client) (*Client, error) {
	if c.ExternalID == "" {
		return nil, fmt.Errorf("clients: upsert requires an external id")
	}
	c.TenantID = tenantID
	c.Source = SourceRemote
	query := `
		INSERT INTO clients (id, tenant_id, external_id, name, email, phone, avatar_url, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (tenant_id, external_id) WHERE external_id <> '' DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			avatar_url = EXCLUDED.avatar_url,
			updated_at = now()
		RETURNING id, created_at, updated_at
	`
	if err := r.db.QueryRow(ctx, query,
		uuid.NewString(), c.TenantID, c.ExternalID, c.Name, c.Email, c.Phone, c.AvatarURL, c.Source,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, fmt.Errorf("clients: upsert failed: %w", err)
	}
	return &c, nil
}

// List returns all of a tenant's clients, most recently updated first.
func (r *PostgresRepository) List(ctx context.Context, tenantID string) ([]*Client, error) {
	query := `
		SELECT id, tenant_id, external_id, name, email, phone, avatar_url, source, created_at, updated_at
		FROM clients
		WHERE tenant_id = $1
		ORDER BY updated_at DESC
	`
	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("clients: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(
			&c.ID, &c.TenantID, &c.ExternalID, &c.Name, &c.Email, &c.Phone,
			&c.AvatarURL, &c.Source, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("clients: scan failed: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// GetByID fetches a client scoped to the tenant.
func (r *PostgresRepository) GetByID(ctx context.Context, tenantID, id string) (*Client, error) {
	query := `
		SELECT id, tenant_id, external_id, name, email, phone, avatar_url, source, created_at, updated_at
		FROM clients
		WHERE id = $1 AND tenant_id = $2
	`
	var c Client
	if err := r.db.QueryRow(ctx, query, id, tenantID).Scan(
		&c.ID, &c.TenantID, &c.ExternalID, &c.Name, &c.Email, &c.Phone,
		&c.AvatarURL, &c.Source, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("clients: select failed: %w", err)
	}
	return &c, nil
}
