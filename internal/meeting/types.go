package meeting

import "time"

// Kind distinguishes instant meetings (start now) from meetings scheduled
// for a future time.
type Kind string

const (
	KindInstant   Kind = "instant"
	KindScheduled Kind = "scheduled"
)

// Durations applied when the caller does not supply an explicit end time.
const (
	// InstantDuration is the fixed length of an instant meeting.
	InstantDuration = 30 * time.Minute

	// DefaultScheduledDuration is the length of a scheduled meeting when
	// no explicit end time is given.
	DefaultScheduledDuration = 60 * time.Minute
)

// Default titles and descriptions used when the user leaves them blank.
const (
	DefaultInstantTitle       = "Quick Meet"
	DefaultInstantDescription = "Generated via meetlink"
	DefaultScheduledTitle     = "Team Sync-up"
)

// Request is a validated, fully populated meeting-creation request.
// It is transient: built, handed to the calendar gateway, and discarded.
type Request struct {
	Kind        Kind
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}

// Duration returns the length of the requested meeting.
func (r Request) Duration() time.Duration {
	return r.End.Sub(r.Start)
}
