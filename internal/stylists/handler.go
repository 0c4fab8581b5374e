package stylists

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/velvetrow/salon-platform/internal/tenancy"
	"github.com/velvetrow/salon-platform/pkg/logging"
)

// Repository is the persistence contract the handler depends on.
type Repository interface {
	List(ctx context.Context, tenantID string) ([]*Stylist, error)
	UpdatePermissions(ctx context.Context, tenantID, id string, p Permissions) error
}

// Handler handles HTTP requests for stylists
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new stylists handler
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

// ListStylistsResponse is the response for listing stylists
type ListStylistsResponse struct {
	Stylists []*Stylist `json:"stylists"`
	Count    int        `json:"count"`
}

// ListStylists handles GET /stylists requests
func (h *Handler) ListStylists(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenancy.TenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing tenant context", http.StatusBadRequest)
		return
	}

	list, err := h.repo.List(r.Context(), tenantID)
	if err != nil {
		h.logger.Error("failed to list stylists", "error", err, "tenant_id", tenantID)
		http.Error(w, "failed to list stylists", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ListStylistsResponse{Stylists: list, Count: len(list)})
}

// UpdatePermissions handles PUT /stylists/{stylistID}/permissions requests
func (h *Handler) UpdatePermissions(w http.ResponseWriter, r *http.Request) {
	stylistID := chi.URLParam(r, "stylistID")
	if stylistID == "" {
		http.Error(w, "missing stylist id", http.StatusBadRequest)
		return
	}

	tenantID, ok := tenancy.TenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing tenant context", http.StatusBadRequest)
		return
	}

	var perms Permissions
	if err := json.NewDecoder(r.Body).Decode(&perms); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.repo.UpdatePermissions(r.Context(), tenantID, stylistID, perms); err != nil {
		if errors.Is(err, ErrStylistNotFound) {
			http.Error(w, "stylist not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to update permissions", "error", err, "stylist_id", stylistID)
		http.Error(w, "failed to update permissions", http.StatusInternalServerError)
		return
	}

	h.logger.Info("permissions updated", "stylist_id", stylistID)
	w.WriteHeader(http.StatusNoContent)
}
