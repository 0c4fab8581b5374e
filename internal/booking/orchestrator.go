// Package booking orchestrates availability searches and appointment
// creation against Square on behalf of a connected salon.
package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/velvetrow/salon-platform/internal/observability/metrics"
	"github.com/velvetrow/salon-platform/internal/square"
	"github.com/velvetrow/salon-platform/internal/translate"
	"github.com/velvetrow/salon-platform/pkg/logging"
)

const (
	defaultSearchWindowDays = 7

	// teamMemberPlaceholderPrefix marks ids minted locally before the real
	// Square roster was known; they never match a remote team member.
	teamMemberPlaceholderPrefix = "TM-"

	// adminSentinelID is the fixed id the booking UI uses for "no
	// preference" searches run from the admin calendar.
	adminSentinelID = "admin"
)

// SquareAPI is the slice of the Square client the orchestrator needs.
type SquareAPI interface {
	SearchAvailability(ctx context.Context, token string, env square.Environment, q square.AvailabilityQuery) ([]square.Availability, error)
	SearchTeamMembers(ctx context.Context, token string, env square.Environment, locationID string) ([]square.TeamMember, error)
	CreateBooking(ctx context.Context, token string, env square.Environment, req square.CreateBookingRequest) (*square.Booking, error)
}

// Orchestrator runs the transient search → book flow. It holds no
// per-request state; token and environment come from the caller's tenant
// connection.
type Orchestrator struct {
	api        SquareAPI
	windowDays int
	logger     *logging.Logger
	metrics    *metrics.BookingMetrics
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSearchWindowDays sets the forward availability window.
func WithSearchWindowDays(days int) Option {
	return func(o *Orchestrator) {
		if days > 0 {
			o.windowDays = days
		}
	}
}

// WithMetrics wires booking outcome counters.
func WithMetrics(m *metrics.BookingMetrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// NewOrchestrator creates a booking orchestrator.
func NewOrchestrator(api SquareAPI, logger *logging.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = logging.Default()
	}
	o := &Orchestrator{
		api:        api,
		windowDays: defaultSearchWindowDays,
		logger:     logger.Component("booking"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// FilterableTeamMemberID reports whether id can be used to restrict an
// availability search. Empty ids, locally minted placeholder ids, and the
// admin sentinel all mean "search every bookable team member".
func FilterableTeamMemberID(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" || id == adminSentinelID {
		return false
	}
	return !strings.HasPrefix(id, teamMemberPlaceholderPrefix)
}

// SlotSearch describes one availability lookup.
type SlotSearch struct {
	LocationID         string
	StartAt            string // wire timestamp
	TeamMemberID       string
	ServiceVariationID string
}

// FindAvailableSlots returns open slot start timestamps between StartAt and
// StartAt plus the configured window, in the order the server produced them.
func (o *Orchestrator) FindAvailableSlots(ctx context.Context, token string, env square.Environment, p SlotSearch) ([]string, error) {
	start, err := time.Parse(time.RFC3339, p.StartAt)
	if err != nil {
		return nil, &InvalidInputError{Reason: fmt.Sprintf("start time %q is not a valid timestamp", p.StartAt)}
	}
	end := start.Add(time.Duration(o.windowDays) * 24 * time.Hour)

	q := square.AvailabilityQuery{
		LocationID:         p.LocationID,
		StartAt:            p.StartAt,
		EndAt:              end.Format(translate.WireTimestampLayout),
		ServiceVariationID: p.ServiceVariationID,
	}
	if FilterableTeamMemberID(p.TeamMemberID) {
		q.TeamMemberID = strings.TrimSpace(p.TeamMemberID)
	}

	availabilities, err := o.api.SearchAvailability(ctx, token, env, q)
	if err != nil {
		return nil, err
	}

	slots := make([]string, 0, len(availabilities))
	for _, a := range availabilities {
		slots = append(slots, a.StartAt)
	}
	o.logger.Debug("availability search complete", "location_id", p.LocationID, "slots", len(slots))
	return slots, nil
}

// ServiceRef names one service in an appointment, carrying Square's
// concurrency version when known.
type ServiceRef struct {
	ID      string `json:"id"`
	Version int64  `json:"version,omitempty"`
}

// AppointmentRequest describes one booking creation.
type AppointmentRequest struct {
	LocationID   string
	StartAt      string // wire timestamp
	CustomerID   string // Square customer id
	TeamMemberID string
	Services     []ServiceRef
}

// CreateAppointment books the appointment. When the supplied team member id
// cannot be used for filtering, the first member of the active roster takes
// the appointment. A fresh idempotency key is attached per attempt so a
// retried submission cannot double-book.
func (o *Orchestrator) CreateAppointment(ctx context.Context, token string, env square.Environment, req AppointmentRequest) (*square.Booking, error) {
	if strings.TrimSpace(req.LocationID) == "" {
		return nil, &MissingFieldError{Field: "location_id"}
	}
	if strings.TrimSpace(req.CustomerID) == "" {
		return nil, &MissingFieldError{Field: "customer_id"}
	}

	teamMemberID := strings.TrimSpace(req.TeamMemberID)
	if !FilterableTeamMemberID(teamMemberID) {
		roster, err := o.api.SearchTeamMembers(ctx, token, env, req.LocationID)
		if err != nil {
			return nil, fmt.Errorf("booking: resolve team member: %w", err)
		}
		if len(roster) == 0 {
			return nil, ErrNoBookableStaff
		}
		teamMemberID = roster[0].ID
		o.logger.Info("substituted bookable team member", "team_member_id", teamMemberID)
	}

	segments := make([]square.AppointmentSegment, 0, len(req.Services))
	for _, svc := range req.Services {
		segments = append(segments, square.AppointmentSegment{
			TeamMemberID:            teamMemberID,
			ServiceVariationID:      svc.ID,
			ServiceVariationVersion: svc.Version,
		})
	}

	created, err := o.api.CreateBooking(ctx, token, env, square.CreateBookingRequest{
		IdempotencyKey: uuid.NewString(),
		LocationID:     req.LocationID,
		StartAt:        req.StartAt,
		CustomerID:     req.CustomerID,
		Segments:       segments,
	})
	if err != nil {
		o.metrics.ObserveCreate("error")
		return nil, err
	}
	o.metrics.ObserveCreate("ok")
	o.logger.Info("appointment created", "booking_id", created.ID, "location_id", req.LocationID)
	return created, nil
}
