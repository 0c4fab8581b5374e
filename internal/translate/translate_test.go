package translate

import (
	"strings"
	"testing"
	"time"

	"github.com/velvetrow/salon-platform/internal/square"
	"github.com/velvetrow/salon-platform/internal/stylists"
)

func TestMinorToDecimalRoundTrip(t *testing.T) {
	for _, amount := range []int64{0, 1, 99, 100, 3000, 5050, 123456789} {
		decimal := MinorToDecimal(amount)
		if got := DecimalToMinor(decimal); got != amount {
			t.Errorf("round trip of %d minor units: got %d", amount, got)
		}
	}
	if MinorToDecimal(3000) != 30.0 {
		t.Errorf("MinorToDecimal(3000) = %v, want 30", MinorToDecimal(3000))
	}
}

func TestMillisToMinutes(t *testing.T) {
	tests := []struct {
		ms   int64
		want int
	}{
		{0, 0},
		{60_000, 1},
		{1_800_000, 30},
		{2_400_000, 40},
	}
	for _, tt := range tests {
		if got := MillisToMinutes(tt.ms); got != tt.want {
			t.Errorf("MillisToMinutes(%d) = %d, want %d", tt.ms, got, tt.want)
		}
	}
}

func TestFormatTimestampShape(t *testing.T) {
	ts := time.Date(2026, 1, 14, 15, 9, 26, 0, time.UTC)

	got := FormatTimestamp(ts, "America/New_York")
	if got != "2026-01-14T10:09:26-05:00" {
		t.Fatalf("FormatTimestamp = %q", got)
	}

	if got := FormatTimestamp(ts, "UTC"); !strings.HasSuffix(got, "+00:00") {
		t.Fatalf("UTC offset should render as +00:00, got %q", got)
	}
}

func TestFormatTimestampIdempotentUnderReparse(t *testing.T) {
	zones := []string{"UTC", "America/New_York", "Europe/Berlin", "Asia/Tokyo"}
	ts := time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC)

	for _, tz := range zones {
		first := FormatTimestamp(ts, tz)
		parsed, err := time.Parse(time.RFC3339, first)
		if err != nil {
			t.Fatalf("output %q does not re-parse: %v", first, err)
		}
		if second := FormatTimestamp(parsed, tz); second != first {
			t.Errorf("tz %s: re-format %q != %q", tz, second, first)
		}
	}
}

func TestFormatTimestampNeverFails(t *testing.T) {
	if out := FormatTimestamp(time.Time{}, "America/Chicago"); out == "" {
		t.Fatal("zero time should fall back, not return empty")
	} else if _, err := time.Parse(time.RFC3339, out); err != nil {
		t.Fatalf("fallback output %q is not valid RFC 3339: %v", out, err)
	}

	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	out := FormatTimestamp(ts, "Not/AZone")
	if out != "2026-01-02T03:04:05+00:00" {
		t.Fatalf("unknown zone should fall back to UTC rendering, got %q", out)
	}
}

func TestClientFromCustomerNameFallbacks(t *testing.T) {
	full := ClientFromCustomer(square.Customer{ID: "c1", GivenName: "Ada", FamilyName: "Lovelace"})
	if full.Name != "Ada Lovelace" {
		t.Errorf("name = %q", full.Name)
	}
	if full.ExternalID != "c1" || full.Source != "remote" {
		t.Errorf("identity fields: %+v", full)
	}
	if !strings.Contains(full.AvatarURL, "Ada+Lovelace") && !strings.Contains(full.AvatarURL, "Ada%20Lovelace") {
		t.Errorf("avatar URL should derive from name: %q", full.AvatarURL)
	}

	emailOnly := ClientFromCustomer(square.Customer{ID: "c2", EmailAddress: "jo@example.com"})
	if emailOnly.Name != "jo@example.com" {
		t.Errorf("email fallback = %q", emailOnly.Name)
	}

	empty := ClientFromCustomer(square.Customer{ID: "c3"})
	if empty.Name != "Square Customer" {
		t.Errorf("placeholder fallback = %q", empty.Name)
	}
}

func TestStylistFromTeamMember(t *testing.T) {
	owner := StylistFromTeamMember(square.TeamMember{ID: "tm1", GivenName: "Sam", FamilyName: "Ng", IsOwner: true})
	if owner.Role != stylists.RoleOwner {
		t.Errorf("owner role = %q", owner.Role)
	}

	member := StylistFromTeamMember(square.TeamMember{ID: "tm2", GivenName: "Kim"})
	if member.Role != stylists.RoleStylist {
		t.Errorf("member role = %q", member.Role)
	}
	if !member.Permissions.CanBook || !member.Permissions.CanViewCalendar {
		t.Errorf("default permissions not applied: %+v", member.Permissions)
	}
	if member.Permissions.CanManageServices {
		t.Errorf("default permissions should not grant service management")
	}
}
