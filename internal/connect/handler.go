package connect

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/velvetrow/salon-platform/internal/tenancy"
	"github.com/velvetrow/salon-platform/pkg/logging"
)

const stateTTL = 10 * time.Minute

// Handler exposes the Square connection HTTP endpoints.
type Handler struct {
	service    *Service
	oauth      *OAuthService
	store      ConnectionStore
	logger     *logging.Logger
	successURL string // post-OAuth redirect; {tenant_id} is substituted

	mu         sync.Mutex
	stateStore map[string]stateEntry // in-memory; single-instance deploys only
}

type stateEntry struct {
	tenantID  string
	expiresAt time.Time
}

// NewHandler creates a connect HTTP handler.
func NewHandler(service *Service, oauth *OAuthService, store ConnectionStore, successURL string, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		service:    service,
		oauth:      oauth,
		store:      store,
		logger:     logger,
		successURL: successURL,
		stateStore: make(map[string]stateEntry),
	}
}

// Routes returns the public callback route.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/square/callback", h.HandleCallback)
	return r
}

// AuthedRoutes returns routes that require an authenticated tenant.
func (h *Handler) AuthedRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/square/connect", h.HandleConnect)
	r.Get("/square/status", h.HandleStatus)
	r.Delete("/square/disconnect", h.HandleDisconnect)
	r.Post("/square/resync", h.HandleResync)
	return r
}

// HandleConnect initiates the Square OAuth flow.
// GET /connections/square/connect
func (h *Handler) HandleConnect(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenancy.TenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error": "tenant required"}`, http.StatusBadRequest)
		return
	}

	stateBytes := make([]byte, 16)
	if _, err := rand.Read(stateBytes); err != nil {
		h.logger.Error("failed to generate state", "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	randomState := hex.EncodeToString(stateBytes)

	h.mu.Lock()
	h.stateStore[randomState] = stateEntry{
		tenantID:  tenantID,
		expiresAt: time.Now().Add(stateTTL),
	}
	h.cleanExpiredStatesLocked()
	h.mu.Unlock()

	// tenant id rides inside state so the callback can recover it.
	authURL := h.oauth.AuthorizationURL(fmt.Sprintf("%s:%s", tenantID, randomState))

	h.logger.Info("initiating square oauth", "tenant_id", tenantID)
	http.Redirect(w, r, authURL, http.StatusFound)
}

// ParseState splits the combined state parameter into its tenant id and
// random component.
func ParseState(state string) (tenantID, randomState string, err error) {
	parts := strings.SplitN(state, ":", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid state format")
	}
	return parts[0], parts[1], nil
}

// HandleCallback handles the OAuth callback from Square.
// GET /oauth/square/callback?code=...&state=...
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	errorParam := r.URL.Query().Get("error")
	errorDesc := r.URL.Query().Get("error_description")

	if errorParam != "" {
		h.logger.Error("square oauth error", "error", errorParam, "description", errorDesc)
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": errorParam, "description": errorDesc})
		return
	}
	if code == "" || state == "" {
		http.Error(w, `{"error": "missing code or state"}`, http.StatusBadRequest)
		return
	}

	tenantID, randomState, err := ParseState(state)
	if err != nil {
		h.logger.Error("invalid state format", "error", err)
		http.Error(w, `{"error": "invalid state"}`, http.StatusBadRequest)
		return
	}

	if !h.consumeState(randomState, tenantID) {
		http.Error(w, `{"error": "invalid or expired state"}`, http.StatusBadRequest)
		return
	}

	result, err := h.service.Complete(r.Context(), tenantID, code)
	if err != nil {
		var exchangeErr *OAuthExchangeError
		if errors.As(err, &exchangeErr) {
			h.logger.Error("token exchange failed", "tenant_id", tenantID, "error", err)
			http.Error(w, `{"error": "token exchange failed"}`, http.StatusBadGateway)
			return
		}
		h.logger.Error("connection failed", "tenant_id", tenantID, "error", err)
		http.Error(w, `{"error": "connection failed"}`, http.StatusInternalServerError)
		return
	}

	if h.successURL != "" {
		http.Redirect(w, r, strings.Replace(h.successURL, "{tenant_id}", tenantID, 1), http.StatusFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"tenant_id":     result.TenantID,
		"merchant_id":   result.MerchantID,
		"merchant_name": result.MerchantName,
		"location_id":   result.LocationID,
	})
}

// HandleStatus returns the connection status for the tenant.
// GET /connections/square/status
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenancy.TenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error": "tenant required"}`, http.StatusBadRequest)
		return
	}

	conn, err := h.store.Get(r.Context(), tenantID)
	if err != nil {
		if errors.Is(err, ErrNotConnected) {
			writeJSON(w, http.StatusOK, map[string]any{"connected": false, "tenant_id": tenantID})
			return
		}
		h.logger.Error("get connection failed", "tenant_id", tenantID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	// Tokens stay out of the response on purpose.
	writeJSON(w, http.StatusOK, map[string]any{
		"connected":        true,
		"tenant_id":        tenantID,
		"merchant_id":      conn.MerchantID,
		"merchant_name":    conn.MerchantName,
		"location_id":      conn.LocationID,
		"environment":      string(conn.Environment),
		"token_expires_at": conn.ExpiresAt,
		"connected_at":     conn.CreatedAt,
	})
}

// HandleDisconnect removes the tenant's connection.
// DELETE /connections/square/disconnect
func (h *Handler) HandleDisconnect(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenancy.TenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error": "tenant required"}`, http.StatusBadRequest)
		return
	}

	if err := h.store.Delete(r.Context(), tenantID); err != nil {
		h.logger.Error("delete connection failed", "tenant_id", tenantID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	h.logger.Info("square disconnected", "tenant_id", tenantID)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "tenant_id": tenantID})
}

// HandleResync re-runs the bootstrap sync.
// POST /connections/square/resync
func (h *Handler) HandleResync(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenancy.TenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error": "tenant required"}`, http.StatusBadRequest)
		return
	}

	if err := h.service.Resync(r.Context(), tenantID); err != nil {
		if errors.Is(err, ErrNotConnected) {
			http.Error(w, `{"error": "not connected"}`, http.StatusConflict)
			return
		}
		h.logger.Error("resync failed", "tenant_id", tenantID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"started": true, "tenant_id": tenantID})
}

// consumeState validates and burns a CSRF state entry.
func (h *Handler) consumeState(randomState, tenantID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	entry, ok := h.stateStore[randomState]
	if !ok {
		h.logger.Error("state not found")
		return false
	}
	delete(h.stateStore, randomState)

	if time.Now().After(entry.expiresAt) {
		h.logger.Error("state expired")
		return false
	}
	if entry.tenantID != tenantID {
		h.logger.Error("tenant mismatch in state", "expected", entry.tenantID, "got", tenantID)
		return false
	}
	return true
}

func (h *Handler) cleanExpiredStatesLocked() {
	now := time.Now()
	for state, entry := range h.stateStore {
		if now.After(entry.expiresAt) {
			delete(h.stateStore, state)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
