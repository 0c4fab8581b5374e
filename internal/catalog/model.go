package catalog

// Service is the canonical bookable service. ID is the Square catalog
// variation id and Version is Square's optimistic-concurrency token, which
// must be forwarded unchanged on any booking referencing this service.
type Service struct {
	ID              string  `json:"id"`
	Version         int64   `json:"version"`
	Name            string  `json:"name"`
	Category        string  `json:"category,omitempty"`
	Cost            float64 `json:"cost"`
	DurationMinutes int     `json:"duration_minutes"`
}
