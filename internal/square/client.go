package square

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/velvetrow/salon-platform/internal/observability/metrics"
	"github.com/velvetrow/salon-platform/pkg/logging"
)

const (
	// squareVersion pins the API protocol version on every request.
	squareVersion = "2024-01-18"

	defaultTimeout  = 20 * time.Second
	defaultMaxPages = 100

	maxErrorBody = 300
)

// Client is a low-level Square REST client. It owns request construction,
// defensive response parsing, and error normalization; retry policy belongs
// to callers.
type Client struct {
	httpClient *http.Client
	logger     *logging.Logger
	metrics    *metrics.SquareMetrics
	maxPages   int

	// baseURLOverride replaces the environment host in tests.
	baseURLOverride string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithMaxPages caps cursor pagination loops.
func WithMaxPages(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxPages = n
		}
	}
}

// WithMetrics wires request counters and latency histograms.
func WithMetrics(m *metrics.SquareMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithBaseURL overrides host selection; tests point this at httptest servers.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURLOverride = strings.TrimRight(base, "/") }
}

// NewClient constructs a Square client.
func NewClient(logger *logging.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger.Component("square"),
		maxPages:   defaultMaxPages,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) baseURL(env Environment) string {
	if c.baseURLOverride != "" {
		return c.baseURLOverride
	}
	return env.BaseURL()
}

// errorEnvelope matches Square's structured error list.
type errorEnvelope struct {
	Errors []struct {
		Category string `json:"category"`
		Code     string `json:"code"`
		Detail   string `json:"detail"`
		Field    string `json:"field"`
	} `json:"errors"`
}

// Call performs one authenticated request and returns the raw JSON body.
// Non-2xx statuses and undecodable bodies are normalized into *APIError;
// the caller never sees a raw decode failure.
func (c *Client) Call(ctx context.Context, method, path, token string, env Environment, body any) (json.RawMessage, error) {
	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("square: marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	endpoint := c.baseURL(env) + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("square: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Square-Version", squareVersion)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(path, "transport_error", time.Since(start).Seconds())
		return nil, &APIError{Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.ObserveRequest(path, "read_error", time.Since(start).Seconds())
		return nil, &APIError{Status: resp.StatusCode, Message: fmt.Sprintf("read response: %v", err)}
	}
	c.metrics.ObserveRequest(path, fmt.Sprintf("%d", resp.StatusCode), time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.normalizeError(resp.StatusCode, respBody, path)
	}

	if len(respBody) == 0 {
		return json.RawMessage("{}"), nil
	}
	if !json.Valid(respBody) {
		return nil, &APIError{
			Status:  resp.StatusCode,
			Message: "undecodable response body",
			Raw:     truncate(string(respBody), maxErrorBody),
		}
	}
	return json.RawMessage(respBody), nil
}

// normalizeError extracts the first structured error element when present,
// otherwise carries the bare HTTP status and raw text.
func (c *Client) normalizeError(status int, body []byte, path string) *APIError {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && len(env.Errors) > 0 {
		first := env.Errors[0]
		msg := first.Detail
		if msg == "" {
			msg = first.Code
		}
		c.logger.Warn("square API error", "path", path, "status", status, "code", first.Code, "field", first.Field)
		return &APIError{Status: status, Message: msg, Field: first.Field}
	}
	c.logger.Warn("square API non-2xx response", "path", path, "status", status)
	return &APIError{
		Status:  status,
		Message: fmt.Sprintf("status %d", status),
		Raw:     truncate(string(body), maxErrorBody),
	}
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// ListLocations returns the merchant's locations.
func (c *Client) ListLocations(ctx context.Context, token string, env Environment) ([]Location, error) {
	raw, err := c.Call(ctx, http.MethodGet, "/v2/locations", token, env, nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Locations []Location `json:"locations"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("square: decode locations: %w", err)
	}
	return out.Locations, nil
}

// GetMerchant looks up a merchant by id.
func (c *Client) GetMerchant(ctx context.Context, token string, env Environment, merchantID string) (*Merchant, error) {
	raw, err := c.Call(ctx, http.MethodGet, "/v2/merchants/"+url.PathEscape(merchantID), token, env, nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Merchant Merchant `json:"merchant"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("square: decode merchant: %w", err)
	}
	return &out.Merchant, nil
}

// ListCatalog returns all catalog items and categories.
func (c *Client) ListCatalog(ctx context.Context, token string, env Environment) ([]CatalogObject, error) {
	return fetchAll[CatalogObject](ctx, c, token, env, "/v2/catalog/list?types="+url.QueryEscape("ITEM,CATEGORY"), "objects")
}

// SearchTeamMembers returns the active team roster, optionally scoped to a
// location.
func (c *Client) SearchTeamMembers(ctx context.Context, token string, env Environment, locationID string) ([]TeamMember, error) {
	filter := map[string]any{"status": "ACTIVE"}
	if locationID != "" {
		filter["location_ids"] = []string{locationID}
	}
	body := map[string]any{
		"query": map[string]any{"filter": filter},
	}
	raw, err := c.Call(ctx, http.MethodPost, "/v2/team-members/search", token, env, body)
	if err != nil {
		return nil, err
	}
	var out struct {
		TeamMembers []TeamMember `json:"team_members"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("square: decode team members: %w", err)
	}
	return out.TeamMembers, nil
}

// ListCustomers pulls every customer page by page.
func (c *Client) ListCustomers(ctx context.Context, token string, env Environment) ([]Customer, error) {
	return fetchAll[Customer](ctx, c, token, env, "/v2/customers", "customers")
}

// ListBookings pulls every booking for a location page by page.
func (c *Client) ListBookings(ctx context.Context, token string, env Environment, locationID string) ([]Booking, error) {
	path := "/v2/bookings"
	if locationID != "" {
		path += "?location_id=" + url.QueryEscape(locationID)
	}
	return fetchAll[Booking](ctx, c, token, env, path, "bookings")
}

// SearchAvailability returns open slots matching the query, in server order.
func (c *Client) SearchAvailability(ctx context.Context, token string, env Environment, q AvailabilityQuery) ([]Availability, error) {
	segment := map[string]any{
		"service_variation_id": q.ServiceVariationID,
	}
	if q.TeamMemberID != "" {
		segment["team_member_id_filter"] = map[string]any{"any": []string{q.TeamMemberID}}
	}
	body := map[string]any{
		"query": map[string]any{
			"filter": map[string]any{
				"location_id": q.LocationID,
				"start_at_range": map[string]any{
					"start_at": q.StartAt,
					"end_at":   q.EndAt,
				},
				"segment_filters": []any{segment},
			},
		},
	}
	raw, err := c.Call(ctx, http.MethodPost, "/v2/bookings/availability/search", token, env, body)
	if err != nil {
		return nil, err
	}
	var out struct {
		Availabilities []Availability `json:"availabilities"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("square: decode availabilities: %w", err)
	}
	return out.Availabilities, nil
}

// CreateBooking submits a booking creation request.
func (c *Client) CreateBooking(ctx context.Context, token string, env Environment, req CreateBookingRequest) (*Booking, error) {
	body := map[string]any{
		"idempotency_key": req.IdempotencyKey,
		"booking": map[string]any{
			"location_id":          req.LocationID,
			"start_at":             req.StartAt,
			"customer_id":          req.CustomerID,
			"appointment_segments": req.Segments,
		},
	}
	raw, err := c.Call(ctx, http.MethodPost, "/v2/bookings", token, env, body)
	if err != nil {
		return nil, err
	}
	var out struct {
		Booking Booking `json:"booking"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("square: decode booking: %w", err)
	}
	return &out.Booking, nil
}
