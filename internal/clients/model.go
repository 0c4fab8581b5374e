package clients

import "time"

// Source records how a client entered the system.
const (
	SourceManual = "manual"
	SourceRemote = "remote"
)

// Client is the canonical client record. ExternalID is the Square customer
// id when the record was mirrored from Square; empty for walk-ins entered by
// hand. At most one row exists per (tenant, external id) pair.
type Client struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	ExternalID string    `json:"external_id,omitempty"`
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	AvatarURL  string    `json:"avatar_url"`
	Source     string    `json:"source"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
