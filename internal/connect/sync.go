package connect

import (
	"context"
	"errors"
	"time"

	"github.com/velvetrow/salon-platform/internal/catalog"
	"github.com/velvetrow/salon-platform/internal/clients"
	"github.com/velvetrow/salon-platform/internal/observability/metrics"
	"github.com/velvetrow/salon-platform/internal/square"
	"github.com/velvetrow/salon-platform/internal/stylists"
	"github.com/velvetrow/salon-platform/internal/translate"
	"github.com/velvetrow/salon-platform/pkg/logging"
)

// syncTimeout bounds one full bootstrap run.
const syncTimeout = 5 * time.Minute

// SyncAPI is the slice of the Square client the syncer pulls from.
type SyncAPI interface {
	ListCustomers(ctx context.Context, token string, env square.Environment) ([]square.Customer, error)
	SearchTeamMembers(ctx context.Context, token string, env square.Environment, locationID string) ([]square.TeamMember, error)
}

// ClientStore mirrors remote customers into local client rows.
type ClientStore interface {
	UpsertRemote(ctx context.Context, tenantID string, c clients.Client) (*clients.Client, error)
}

// StylistStore mirrors remote team members into local stylist rows.
type StylistStore interface {
	UpsertRemote(ctx context.Context, tenantID string, s stylists.Stylist) (*stylists.Stylist, error)
}

// CatalogWarmer pre-populates the service cache after a connection.
type CatalogWarmer interface {
	Refresh(ctx context.Context, tenantID, token string, env square.Environment) ([]catalog.Service, error)
}

// Syncer mirrors a connected merchant's customers and team members into
// local storage. Each resource type runs independently so one failing pull
// never blocks the others.
type Syncer struct {
	api      SyncAPI
	clients  ClientStore
	stylists StylistStore
	warmer   CatalogWarmer
	logger   *logging.Logger
	metrics  *metrics.SyncMetrics
	onFinish func(tenantID string, errs []error)
}

// SyncerOption configures a Syncer.
type SyncerOption func(*Syncer)

// WithSyncMetrics wires sync run counters.
func WithSyncMetrics(m *metrics.SyncMetrics) SyncerOption {
	return func(s *Syncer) { s.metrics = m }
}

// WithCatalogWarmer pre-warms the service cache at the end of a run.
func WithCatalogWarmer(w CatalogWarmer) SyncerOption {
	return func(s *Syncer) { s.warmer = w }
}

// WithFinishCallback is invoked when a background run completes; tests use
// it to observe detached goroutines.
func WithFinishCallback(fn func(tenantID string, errs []error)) SyncerOption {
	return func(s *Syncer) { s.onFinish = fn }
}

// NewSyncer creates a syncer.
func NewSyncer(api SyncAPI, clientStore ClientStore, stylistStore StylistStore, logger *logging.Logger, opts ...SyncerOption) *Syncer {
	if logger == nil {
		logger = logging.Default()
	}
	s := &Syncer{
		api:      api,
		clients:  clientStore,
		stylists: stylistStore,
		logger:   logger.Component("sync"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run mirrors every resource type and returns the per-resource failures.
// A partial result is normal: whatever synced stays synced.
func (s *Syncer) Run(ctx context.Context, conn *Connection) []error {
	var errs []error
	if err := s.syncCustomers(ctx, conn); err != nil {
		errs = append(errs, err)
	}
	if err := s.syncTeamMembers(ctx, conn); err != nil {
		errs = append(errs, err)
	}
	if s.warmer != nil {
		if _, err := s.warmer.Refresh(ctx, conn.TenantID, conn.AccessToken, conn.Environment); err != nil {
			s.metrics.ObserveRun("catalog", "error")
			errs = append(errs, &SyncError{Resource: "catalog", Err: err})
		} else {
			s.metrics.ObserveRun("catalog", "ok")
		}
	}
	for _, err := range errs {
		var syncErr *SyncError
		if errors.As(err, &syncErr) {
			s.logger.Error("resource sync failed", "tenant_id", conn.TenantID, "resource", syncErr.Resource, "error", syncErr.Err)
		}
	}
	return errs
}

// RunDetached launches Run on a background context so the OAuth callback
// can respond immediately. The HTTP request context is deliberately not
// reused: the sync must outlive the callback response.
func (s *Syncer) RunDetached(tenantID string, conn *Connection) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()

		s.logger.Info("background sync started", "tenant_id", tenantID, "merchant_id", conn.MerchantID)
		errs := s.Run(ctx, conn)
		s.logger.Info("background sync finished", "tenant_id", tenantID, "failures", len(errs))
		if s.onFinish != nil {
			s.onFinish(tenantID, errs)
		}
	}()
}

func (s *Syncer) syncCustomers(ctx context.Context, conn *Connection) error {
	customers, err := s.api.ListCustomers(ctx, conn.AccessToken, conn.Environment)
	if err != nil {
		s.metrics.ObserveRun("customers", "error")
		return &SyncError{Resource: "customers", Err: err}
	}
	stored := 0
	for _, c := range customers {
		if _, err := s.clients.UpsertRemote(ctx, conn.TenantID, translate.ClientFromCustomer(c)); err != nil {
			s.metrics.ObserveRun("customers", "error")
			return &SyncError{Resource: "customers", Err: err}
		}
		stored++
	}
	s.metrics.ObserveRun("customers", "ok")
	s.metrics.AddRecords("customers", stored)
	s.logger.Info("customers mirrored", "tenant_id", conn.TenantID, "count", stored)
	return nil
}

func (s *Syncer) syncTeamMembers(ctx context.Context, conn *Connection) error {
	members, err := s.api.SearchTeamMembers(ctx, conn.AccessToken, conn.Environment, conn.LocationID)
	if err != nil {
		s.metrics.ObserveRun("team_members", "error")
		return &SyncError{Resource: "team_members", Err: err}
	}
	stored := 0
	for _, m := range members {
		if _, err := s.stylists.UpsertRemote(ctx, conn.TenantID, translate.StylistFromTeamMember(m)); err != nil {
			s.metrics.ObserveRun("team_members", "error")
			return &SyncError{Resource: "team_members", Err: err}
		}
		stored++
	}
	s.metrics.ObserveRun("team_members", "ok")
	s.metrics.AddRecords("team_members", stored)
	s.logger.Info("team members mirrored", "tenant_id", conn.TenantID, "count", stored)
	return nil
}
