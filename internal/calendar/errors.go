package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
)

// Upstream errors surfaced after the network call returns. They are
// classified from the failure detail; none of them triggers a retry.
var (
	// ErrLinkGeneration indicates the event was created but came back
	// without a conference link. The outer call succeeded, the meeting is
	// still useless, so it counts as a failure.
	ErrLinkGeneration = errors.New("failed to generate meeting link")

	// ErrPermissionDenied indicates the credential lacks permission to
	// create calendar events.
	ErrPermissionDenied = errors.New("insufficient permissions to create calendar events")

	// ErrAuthExpired indicates the upstream access credential is expired
	// or revoked and the user must sign in again.
	ErrAuthExpired = errors.New("authentication token expired")

	// ErrUpstreamTimeout indicates the bounded outbound call hit its
	// deadline.
	ErrUpstreamTimeout = errors.New("calendar request timed out")
)

// ClassifyError maps a raw Google API failure to one of the gateway error
// kinds. Anything it does not recognize is wrapped as a generic upstream
// failure with the original detail preserved.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrUpstreamTimeout, err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusForbidden:
			return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %v", ErrAuthExpired, err)
		}
	}

	// Token refresh failures surface as oauth2 errors, not googleapi
	// errors, so the well-known substrings still need checking.
	msg := err.Error()
	switch {
	case strings.Contains(msg, "insufficient permissions"),
		strings.Contains(msg, "insufficientPermissions"):
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	case strings.Contains(msg, "invalid_grant"),
		strings.Contains(msg, "Invalid Credentials"):
		return fmt.Errorf("%w: %v", ErrAuthExpired, err)
	}

	return fmt.Errorf("failed to create event: %w", err)
}
