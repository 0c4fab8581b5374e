package identity

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/velvetrow/salon-platform/internal/http/middleware"
	"github.com/velvetrow/salon-platform/pkg/logging"
)

const sessionTTL = 24 * time.Hour

// Handler handles HTTP requests for authentication
type Handler struct {
	provider  Provider
	jwtSecret string
	logger    *logging.Logger
}

// NewHandler creates a new auth handler
func NewHandler(provider Provider, jwtSecret string, logger *logging.Logger) *Handler {
	return &Handler{
		provider:  provider,
		jwtSecret: jwtSecret,
		logger:    logger,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// SessionResponse carries the signed session token and the account it
// belongs to. The password hash never appears here.
type SessionResponse struct {
	Token   string          `json:"token"`
	Account AccountResponse `json:"account"`
}

// AccountResponse is the public view of an account.
type AccountResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// SignUp handles POST /auth/signup requests
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		http.Error(w, "email and password are required", http.StatusBadRequest)
		return
	}

	acct, err := h.provider.SignUp(r.Context(), SignUpParams{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     "owner",
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			http.Error(w, "email already registered", http.StatusConflict)
			return
		}
		h.logger.Error("sign-up failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.writeSession(w, acct, http.StatusCreated)
}

// SignIn handles POST /auth/signin requests
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	acct, err := h.provider.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrNoAccount) || errors.Is(err, ErrInvalidCredentials) {
			// Same response either way; don't reveal which emails exist.
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		h.logger.Error("sign-in failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.writeSession(w, acct, http.StatusOK)
}

// Me handles GET /auth/me requests
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.SessionClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "missing session", http.StatusUnauthorized)
		return
	}

	acct, err := h.provider.GetCurrentUser(r.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNoAccount) {
			http.Error(w, "account not found", http.StatusNotFound)
			return
		}
		h.logger.Error("load account failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(accountView(acct))
}

func (h *Handler) writeSession(w http.ResponseWriter, acct *Account, status int) {
	claims := middleware.SessionClaims{
		TenantID: acct.ID, // each account is its own salon
		Role:     acct.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   acct.ID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(sessionTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.jwtSecret))
	if err != nil {
		h.logger.Error("sign session token failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(SessionResponse{Token: signed, Account: accountView(acct)})
}

func accountView(acct *Account) AccountResponse {
	return AccountResponse{
		ID:    acct.ID,
		Email: acct.Email,
		Name:  acct.Name,
		Role:  acct.Role,
	}
}
