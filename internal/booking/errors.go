package booking

import (
	"errors"
	"fmt"
)

// ErrNoBookableStaff is returned when the team-member fallback found an
// empty roster.
var ErrNoBookableStaff = errors.New("booking: no bookable staff available")

// InvalidInputError reports malformed caller-supplied data, e.g. an
// unparseable start time.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "booking: invalid input: " + e.Reason
}

// MissingFieldError reports a required booking field that was absent.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("booking: missing required field %q", e.Field)
}
