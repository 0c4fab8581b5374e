package booking

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/velvetrow/salon-platform/internal/square"
	"github.com/velvetrow/salon-platform/internal/tenancy"
	"github.com/velvetrow/salon-platform/pkg/logging"
)

// CredentialSource resolves a tenant's Square access token and environment.
type CredentialSource interface {
	Credentials(ctx context.Context, tenantID string) (token string, env square.Environment, err error)
}

// BookingLister pulls existing bookings for the calendar view.
type BookingLister interface {
	ListBookings(ctx context.Context, token string, env square.Environment, locationID string) ([]square.Booking, error)
}

// Handler handles HTTP requests for availability and bookings
type Handler struct {
	orchestrator *Orchestrator
	lister       BookingLister
	creds        CredentialSource
	logger       *logging.Logger
}

// NewHandler creates a new booking handler
func NewHandler(orchestrator *Orchestrator, lister BookingLister, creds CredentialSource, logger *logging.Logger) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		lister:       lister,
		creds:        creds,
		logger:       logger,
	}
}

// SearchSlotsRequest is the body for POST /bookings/availability.
type SearchSlotsRequest struct {
	LocationID         string `json:"location_id"`
	StartAt            string `json:"start_at"`
	TeamMemberID       string `json:"team_member_id"`
	ServiceVariationID string `json:"service_variation_id"`
}

// SearchSlotsResponse lists open slot start timestamps in server order.
type SearchSlotsResponse struct {
	Slots []string `json:"slots"`
	Count int      `json:"count"`
}

// SearchSlots handles POST /bookings/availability requests
func (h *Handler) SearchSlots(w http.ResponseWriter, r *http.Request) {
	var req SearchSlotsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	tenantID, ok := tenancy.TenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing tenant context", http.StatusBadRequest)
		return
	}
	token, env, err := h.creds.Credentials(r.Context(), tenantID)
	if err != nil {
		http.Error(w, "no connected booking account", http.StatusConflict)
		return
	}

	slots, err := h.orchestrator.FindAvailableSlots(r.Context(), token, env, SlotSearch{
		LocationID:         req.LocationID,
		StartAt:            req.StartAt,
		TeamMemberID:       req.TeamMemberID,
		ServiceVariationID: req.ServiceVariationID,
	})
	if err != nil {
		h.writeBookingError(w, tenantID, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SearchSlotsResponse{Slots: slots, Count: len(slots)})
}

// CreateRequest is the body for POST /bookings.
type CreateRequest struct {
	LocationID   string       `json:"location_id"`
	StartAt      string       `json:"start_at"`
	CustomerID   string       `json:"customer_id"`
	TeamMemberID string       `json:"team_member_id"`
	Services     []ServiceRef `json:"services"`
}

// Create handles POST /bookings requests
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	tenantID, ok := tenancy.TenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing tenant context", http.StatusBadRequest)
		return
	}
	token, env, err := h.creds.Credentials(r.Context(), tenantID)
	if err != nil {
		http.Error(w, "no connected booking account", http.StatusConflict)
		return
	}

	created, err := h.orchestrator.CreateAppointment(r.Context(), token, env, AppointmentRequest{
		LocationID:   req.LocationID,
		StartAt:      req.StartAt,
		CustomerID:   req.CustomerID,
		TeamMemberID: req.TeamMemberID,
		Services:     req.Services,
	})
	if err != nil {
		h.writeBookingError(w, tenantID, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

// ListResponse is the response for listing bookings
type ListResponse struct {
	Bookings []square.Booking `json:"bookings"`
	Count    int              `json:"count"`
}

// List handles GET /bookings requests
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenancy.TenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing tenant context", http.StatusBadRequest)
		return
	}
	token, env, err := h.creds.Credentials(r.Context(), tenantID)
	if err != nil {
		http.Error(w, "no connected booking account", http.StatusConflict)
		return
	}

	bookings, err := h.lister.ListBookings(r.Context(), token, env, r.URL.Query().Get("location_id"))
	if err != nil {
		h.writeBookingError(w, tenantID, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ListResponse{Bookings: bookings, Count: len(bookings)})
}

func (h *Handler) writeBookingError(w http.ResponseWriter, tenantID string, err error) {
	var (
		invalid *InvalidInputError
		missing *MissingFieldError
		apiErr  *square.APIError
	)
	switch {
	case errors.As(err, &invalid), errors.As(err, &missing):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNoBookableStaff):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.As(err, &apiErr):
		h.logger.Error("upstream booking call failed", "error", err, "tenant_id", tenantID)
		http.Error(w, "booking provider error", http.StatusBadGateway)
	default:
		h.logger.Error("booking request failed", "error", err, "tenant_id", tenantID)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
