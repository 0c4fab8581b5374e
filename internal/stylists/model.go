package stylists

import "time"

// Permissions is the local capability overlay for a stylist. Square has no
// equivalent concept, so every mirrored stylist starts from the same default
// set and owners adjust it locally.
type Permissions struct {
	CanBook           bool `json:"can_book"`
	CanViewCalendar   bool `json:"can_view_calendar"`
	CanEditClients    bool `json:"can_edit_clients"`
	CanManageServices bool `json:"can_manage_services"`
}

// DefaultPermissions is applied to every stylist on first sync.
func DefaultPermissions() Permissions {
	return Permissions{
		CanBook:         true,
		CanViewCalendar: true,
	}
}

// Stylist is the canonical team member record, keyed by the Square
// team-member id.
type Stylist struct {
	ID          string      `json:"id"`
	TenantID    string      `json:"tenant_id"`
	Name        string      `json:"name"`
	Role        string      `json:"role"`
	Email       string      `json:"email,omitempty"`
	Permissions Permissions `json:"permissions"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Roles assigned during translation.
const (
	RoleOwner   = "Owner"
	RoleStylist = "Stylist"
)
