package catalog

import (
	"context"

	"github.com/velvetrow/salon-platform/internal/square"
	"github.com/velvetrow/salon-platform/pkg/logging"
)

// CatalogAPI is the slice of the Square client this package needs.
type CatalogAPI interface {
	ListCatalog(ctx context.Context, token string, env square.Environment) ([]square.CatalogObject, error)
}

// Fetcher lists a tenant's bookable services, reading through the Redis
// cache when one is configured.
type Fetcher struct {
	api    CatalogAPI
	cache  *Cache
	logger *logging.Logger
}

// NewFetcher creates a catalog fetcher. cache may be nil.
func NewFetcher(api CatalogAPI, cache *Cache, logger *logging.Logger) *Fetcher {
	if logger == nil {
		logger = logging.Default()
	}
	return &Fetcher{
		api:    api,
		cache:  cache,
		logger: logger.Component("catalog"),
	}
}

// Services returns the tenant's service list. A cache hit skips Square
// entirely; cache failures are logged and treated as misses so a Redis
// outage never blocks the catalog.
func (f *Fetcher) Services(ctx context.Context, tenantID, token string, env square.Environment) ([]Service, error) {
	if cached, ok, err := f.cache.Get(ctx, tenantID); err != nil {
		f.logger.Warn("cache read failed, falling through", "error", err, "tenant_id", tenantID)
	} else if ok {
		return cached, nil
	}

	objects, err := f.api.ListCatalog(ctx, token, env)
	if err != nil {
		return nil, err
	}
	services := Assemble(objects)

	if err := f.cache.Set(ctx, tenantID, services); err != nil {
		f.logger.Warn("cache write failed", "error", err, "tenant_id", tenantID)
	}
	return services, nil
}

// Refresh drops the cached list and reloads it from Square.
func (f *Fetcher) Refresh(ctx context.Context, tenantID, token string, env square.Environment) ([]Service, error) {
	if err := f.cache.Invalidate(ctx, tenantID); err != nil {
		f.logger.Warn("cache invalidate failed", "error", err, "tenant_id", tenantID)
	}
	return f.Services(ctx, tenantID, token, env)
}
