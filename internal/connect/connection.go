package connect

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/velvetrow/salon-platform/internal/square"
)

// Connection is a tenant's stored Square link. AccessToken and RefreshToken
// are secrets: they carry no JSON tags on purpose and must never appear in
// logs or API responses.
type Connection struct {
	TenantID     string
	MerchantID   string
	MerchantName string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Environment  square.Environment
	LocationID   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DB is the slice of pgxpool.Pool the repository uses; pgxmock satisfies
// it in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores Square connections, one row per tenant.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("connect: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting mocks for tests.
func NewPostgresRepositoryWithDB(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Save upserts the tenant's connection. Reconnecting replaces the stored
// tokens instead of adding a second row.
func (r *PostgresRepository) Save(ctx context.Context, conn *Connection) error {
	query := `
		INSERT INTO square_connections (
			tenant_id, merchant_id, merchant_name, access_token, refresh_token,
			token_expires_at, environment, location_id, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (tenant_id) DO UPDATE SET
			merchant_id = EXCLUDED.merchant_id,
			merchant_name = EXCLUDED.merchant_name,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			token_expires_at = EXCLUDED.token_expires_at,
			environment = EXCLUDED.environment,
			location_id = COALESCE(NULLIF(EXCLUDED.location_id, ''), square_connections.location_id),
			updated_at = now()
	`
	_, err := r.db.Exec(ctx, query,
		conn.TenantID,
		conn.MerchantID,
		conn.MerchantName,
		conn.AccessToken,
		conn.RefreshToken,
		conn.ExpiresAt,
		string(conn.Environment),
		conn.LocationID,
	)
	if err != nil {
		return fmt.Errorf("connect: save connection: %w", err)
	}
	return nil
}

// Get loads the tenant's connection.
func (r *PostgresRepository) Get(ctx context.Context, tenantID string) (*Connection, error) {
	query := `
		SELECT tenant_id, merchant_id, merchant_name, access_token, refresh_token,
		       token_expires_at, environment, COALESCE(location_id, ''), created_at, updated_at
		FROM square_connections
		WHERE tenant_id = $1
	`
	var (
		conn Connection
		env  string
	)
	if err := r.db.QueryRow(ctx, query, tenantID).Scan(
		&conn.TenantID,
		&conn.MerchantID,
		&conn.MerchantName,
		&conn.AccessToken,
		&conn.RefreshToken,
		&conn.ExpiresAt,
		&env,
		&conn.LocationID,
		&conn.CreatedAt,
		&conn.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotConnected
		}
		return nil, fmt.Errorf("connect: load connection: %w", err)
	}
	conn.Environment = square.Environment(env)
	return &conn, nil
}

// Delete removes the tenant's connection.
func (r *PostgresRepository) Delete(ctx context.Context, tenantID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM square_connections WHERE tenant_id = $1`, tenantID); err != nil {
		return fmt.Errorf("connect: delete connection: %w", err)
	}
	return nil
}

// UpdateLocationID sets the default location for the tenant's connection.
func (r *PostgresRepository) UpdateLocationID(ctx context.Context, tenantID, locationID string) error {
	query := `UPDATE square_connections SET location_id = $2, updated_at = now() WHERE tenant_id = $1`
	tag, err := r.db.Exec(ctx, query, tenantID, locationID)
	if err != nil {
		return fmt.Errorf("connect: update location: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotConnected
	}
	return nil
}

// Credentials resolves the tenant's token and environment; the catalog and
// booking handlers call through this.
func (r *PostgresRepository) Credentials(ctx context.Context, tenantID string) (string, square.Environment, error) {
	conn, err := r.Get(ctx, tenantID)
	if err != nil {
		return "", "", err
	}
	return conn.AccessToken, conn.Environment, nil
}
