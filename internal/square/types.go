package square

// Environment selects the Square API host. The selection is always explicit;
// it is never inferred from the shape of a token.
type Environment string

const (
	EnvSandbox    Environment = "sandbox"
	EnvProduction Environment = "production"
)

// BaseURL returns the API host for the environment. Unknown values fall back
// to sandbox so a misconfigured deploy can never write to production.
func (e Environment) BaseURL() string {
	if e == EnvProduction {
		return "https://connect.squareup.com"
	}
	return "https://connect.squareupsandbox.com"
}

// Customer is Square's customer record.
type Customer struct {
	ID           string `json:"id"`
	GivenName    string `json:"given_name"`
	FamilyName   string `json:"family_name"`
	EmailAddress string `json:"email_address"`
	PhoneNumber  string `json:"phone_number"`
}

// TeamMember is Square's team member record.
type TeamMember struct {
	ID           string `json:"id"`
	GivenName    string `json:"given_name"`
	FamilyName   string `json:"family_name"`
	EmailAddress string `json:"email_address"`
	IsOwner      bool   `json:"is_owner"`
	Status       string `json:"status"`
}

// Money is Square's minor-unit money shape.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// CatalogObject is a slim view of Square's catalog union type covering the
// variants this service consumes: items, their variations, and categories.
type CatalogObject struct {
	Type          string            `json:"type"`
	ID            string            `json:"id"`
	Version       int64             `json:"version"`
	ItemData      *CatalogItem      `json:"item_data,omitempty"`
	VariationData *CatalogVariation `json:"item_variation_data,omitempty"`
	CategoryData  *CatalogCategory  `json:"category_data,omitempty"`
	IsDeleted     bool              `json:"is_deleted,omitempty"`
}

type CatalogItem struct {
	Name       string          `json:"name"`
	CategoryID string          `json:"category_id"`
	Variations []CatalogObject `json:"variations"`
}

type CatalogVariation struct {
	Name            string `json:"name"`
	PriceMoney      *Money `json:"price_money"`
	ServiceDuration int64  `json:"service_duration"` // milliseconds
}

type CatalogCategory struct {
	Name string `json:"name"`
}

// Merchant is Square's merchant record.
type Merchant struct {
	ID           string `json:"id"`
	BusinessName string `json:"business_name"`
	Country      string `json:"country"`
	Status       string `json:"status"`
}

// Location is a Square business location.
type Location struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	Timezone string `json:"timezone"`
}

// Availability is a single open slot returned by an availability search.
type Availability struct {
	StartAt    string `json:"start_at"`
	LocationID string `json:"location_id"`
}

// AvailabilityQuery describes one availability search.
type AvailabilityQuery struct {
	LocationID         string
	StartAt            string // wire timestamp, inclusive
	EndAt              string // wire timestamp, exclusive
	ServiceVariationID string
	TeamMemberID       string // empty means any bookable team member
}

// AppointmentSegment is one service within a booking.
type AppointmentSegment struct {
	TeamMemberID            string `json:"team_member_id"`
	ServiceVariationID      string `json:"service_variation_id"`
	ServiceVariationVersion int64  `json:"service_variation_version,omitempty"`
}

// Booking is Square's booking record.
type Booking struct {
	ID                  string               `json:"id"`
	Status              string               `json:"status"`
	LocationID          string               `json:"location_id"`
	CustomerID          string               `json:"customer_id"`
	StartAt             string               `json:"start_at"`
	AppointmentSegments []AppointmentSegment `json:"appointment_segments"`
}

// CreateBookingRequest is the payload for booking creation. IdempotencyKey
// must be fresh per logical attempt so retries cannot double-book.
type CreateBookingRequest struct {
	IdempotencyKey string
	LocationID     string
	StartAt        string
	CustomerID     string
	Segments       []AppointmentSegment
}
