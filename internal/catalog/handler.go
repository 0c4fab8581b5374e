package catalog

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/velvetrow/salon-platform/internal/square"
	"github.com/velvetrow/salon-platform/internal/tenancy"
	"github.com/velvetrow/salon-platform/pkg/logging"
)

// CredentialSource resolves a tenant's Square access token and environment.
// The connect package's connection repository implements it.
type CredentialSource interface {
	Credentials(ctx context.Context, tenantID string) (token string, env square.Environment, err error)
}

// Handler handles HTTP requests for the service catalog
type Handler struct {
	fetcher *Fetcher
	creds   CredentialSource
	logger  *logging.Logger
}

// NewHandler creates a new catalog handler
func NewHandler(fetcher *Fetcher, creds CredentialSource, logger *logging.Logger) *Handler {
	return &Handler{
		fetcher: fetcher,
		creds:   creds,
		logger:  logger,
	}
}

// ListServicesResponse is the response for listing services
type ListServicesResponse struct {
	Services []Service `json:"services"`
	Count    int       `json:"count"`
}

// ListServices handles GET /services requests
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenancy.TenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing tenant context", http.StatusBadRequest)
		return
	}

	token, env, err := h.creds.Credentials(r.Context(), tenantID)
	if err != nil {
		h.logger.Error("failed to resolve credentials", "error", err, "tenant_id", tenantID)
		http.Error(w, "no connected booking account", http.StatusConflict)
		return
	}

	services, err := h.fetcher.Services(r.Context(), tenantID, token, env)
	if err != nil {
		h.logger.Error("failed to list services", "error", err, "tenant_id", tenantID)
		http.Error(w, "failed to list services", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ListServicesResponse{Services: services, Count: len(services)})
}
