package square

import "fmt"

// APIError is the normalized failure shape for all Square calls. Message is
// the first structured error detail when the response carried one, otherwise
// the bare HTTP status. Raw holds the (truncated) response text when the body
// could not be decoded.
type APIError struct {
	Status  int
	Message string
	Field   string
	Raw     string
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("square: %s (field: %s)", e.Message, e.Field)
	}
	return "square: " + e.Message
}

// PaginationLimitError reports a cursor loop that exceeded the configured
// page cap without the server returning an empty cursor.
type PaginationLimitError struct {
	Path  string
	Pages int
}

func (e *PaginationLimitError) Error() string {
	return fmt.Sprintf("square: pagination limit of %d pages exceeded for %s", e.Pages, e.Path)
}
