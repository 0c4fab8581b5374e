// Package translate holds the pure mapping functions between Square's wire
// shapes and the canonical domain model. Nothing here performs I/O; unit and
// naming conventions are centralized so call sites never do inline
// arithmetic on money or durations.
package translate

import (
	"strings"
	"time"

	"github.com/velvetrow/salon-platform/internal/clients"
	"github.com/velvetrow/salon-platform/internal/square"
	"github.com/velvetrow/salon-platform/internal/stylists"
)

const (
	// placeholderClientName stands in when a customer has neither a name
	// nor an email.
	placeholderClientName = "Square Customer"

	millisPerMinute = 60_000
)

// WireTimestampLayout is the booking wire format: RFC 3339 seconds
// precision with a colon-separated numeric offset, YYYY-MM-DDTHH:mm:ss±HH:MM.
const WireTimestampLayout = "2006-01-02T15:04:05-07:00"

// MinorToDecimal converts minor currency units (cents) to decimal units.
func MinorToDecimal(amount int64) float64 {
	return float64(amount) / 100
}

// DecimalToMinor converts decimal currency units back to minor units,
// rounding to the nearest cent.
func DecimalToMinor(v float64) int64 {
	if v >= 0 {
		return int64(v*100 + 0.5)
	}
	return int64(v*100 - 0.5)
}

// MillisToMinutes converts Square's millisecond service durations to whole
// minutes.
func MillisToMinutes(ms int64) int {
	return int(ms / millisPerMinute)
}

// FormatTimestamp renders t in tz using the booking wire format
// YYYY-MM-DDTHH:mm:ss±HH:MM. A zero time falls back to the current instant
// in UTC and an unknown zone falls back to the instant's UTC rendering;
// both fallbacks are deliberate, this function never fails.
func FormatTimestamp(t time.Time, tz string) string {
	if t.IsZero() {
		return time.Now().UTC().Format(WireTimestampLayout)
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return t.UTC().Format(WireTimestampLayout)
	}
	return t.In(loc).Format(WireTimestampLayout)
}

// ClientFromCustomer maps a Square customer to a canonical client. The
// display name falls back from given+family name to email to a fixed
// placeholder, and the avatar URL is derived deterministically from the
// resolved name.
func ClientFromCustomer(c square.Customer) clients.Client {
	name := strings.TrimSpace(strings.TrimSpace(c.GivenName) + " " + strings.TrimSpace(c.FamilyName))
	if name == "" {
		name = strings.TrimSpace(c.EmailAddress)
	}
	if name == "" {
		name = placeholderClientName
	}
	return clients.Client{
		ExternalID: c.ID,
		Name:       name,
		Email:      c.EmailAddress,
		Phone:      c.PhoneNumber,
		AvatarURL:  clients.AvatarURL(name),
		Source:     clients.SourceRemote,
	}
}

// StylistFromTeamMember maps a Square team member to a canonical stylist.
// Permissions are a local overlay, never sourced from Square.
func StylistFromTeamMember(m square.TeamMember) stylists.Stylist {
	role := stylists.RoleStylist
	if m.IsOwner {
		role = stylists.RoleOwner
	}
	name := strings.TrimSpace(strings.TrimSpace(m.GivenName) + " " + strings.TrimSpace(m.FamilyName))
	return stylists.Stylist{
		ID:          m.ID,
		Name:        name,
		Role:        role,
		Email:       m.EmailAddress,
		Permissions: stylists.DefaultPermissions(),
	}
}
