package calendar

import (
	"context"
	"time"

	"github.com/fusionflow/meetlink/internal/meeting"
)

// PrimaryCalendarID is the calendar all meetings are created on.
const PrimaryCalendarID = "primary"

// DefaultRequestTimeout bounds a single event-creation call.
const DefaultRequestTimeout = 30 * time.Second

// Conference is the result of a successful event creation: the calendar
// event ID and the video-conferencing link attached to it.
type Conference struct {
	EventID string
	Link    string
	Start   time.Time
	End     time.Time
}

// Gateway creates a calendar event with an attached conference link.
// The HTTP handlers depend on this interface so the validation and build
// logic can be exercised against a fake without any network.
type Gateway interface {
	CreateConference(ctx context.Context, req meeting.Request) (*Conference, error)
}
