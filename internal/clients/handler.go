package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/velvetrow/salon-platform/internal/tenancy"
	"github.com/velvetrow/salon-platform/pkg/logging"
)

// Repository is the persistence contract the handler depends on.
type Repository interface {
	Create(ctx context.Context, tenantID string, c Client) (*Client, error)
	List(ctx context.Context, tenantID string) ([]*Client, error)
}

// Handler handles HTTP requests for clients
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new clients handler
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

// CreateClientRequest is the body for POST /clients.
type CreateClientRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// CreateClient handles POST /clients requests
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req CreateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	tenantID, ok := tenancy.TenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing tenant context", http.StatusBadRequest)
		return
	}

	client, err := h.repo.Create(r.Context(), tenantID, Client{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		AvatarURL: AvatarURL(req.Name),
		Source:    SourceManual,
	})
	if err != nil {
		h.logger.Error("failed to create client", "error", err)
		http.Error(w, "failed to create client", http.StatusInternalServerError)
		return
	}

	h.logger.Info("client created", "id", client.ID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(client)
}

// ListClientsResponse is the response for listing clients
type ListClientsResponse struct {
	Clients []*Client `json:"clients"`
	Count   int       `json:"count"`
}

// ListClients handles GET /clients requests
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenancy.TenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing tenant context", http.StatusBadRequest)
		return
	}

	list, err := h.repo.List(r.Context(), tenantID)
	if err != nil {
		h.logger.Error("failed to list clients", "error", err, "tenant_id", tenantID)
		http.Error(w, "failed to list clients", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ListClientsResponse{Clients: list, Count: len(list)})
}
