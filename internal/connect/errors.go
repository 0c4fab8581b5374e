package connect

import (
	"errors"
	"fmt"
)

// ErrNotConnected means the tenant has no stored Square connection.
var ErrNotConnected = errors.New("connect: no square connection")

// OAuthExchangeError reports a failed authorization-code exchange. Remote
// and Description carry Square's error fields when the response had them.
type OAuthExchangeError struct {
	Status      int
	Remote      string
	Description string
}

func (e *OAuthExchangeError) Error() string {
	if e.Remote != "" {
		return fmt.Sprintf("connect: token exchange failed: %s (%s)", e.Remote, e.Description)
	}
	return fmt.Sprintf("connect: token exchange failed: status %d", e.Status)
}

// SyncError wraps a failure mirroring one resource type, so one resource
// failing never masks which one it was.
type SyncError struct {
	Resource string
	Err      error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("connect: sync %s: %v", e.Resource, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }
