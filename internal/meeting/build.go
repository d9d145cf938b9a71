package meeting

import (
	"fmt"
	"strings"
	"time"
)

// BuildInstant builds a request for a meeting starting right now. The
// meeting runs for InstantDuration and gets fixed defaults for any blank
// title.
func BuildInstant(now time.Time, title string) Request {
	if strings.TrimSpace(title) == "" {
		title = DefaultInstantTitle
	}
	return Request{
		Kind:        KindInstant,
		Summary:     title,
		Description: DefaultInstantDescription,
		Start:       now,
		End:         now.Add(InstantDuration),
	}
}

// BuildScheduled builds a request for a meeting starting at the validated
// start instant. A nil end defaults to start plus DefaultScheduledDuration;
// an explicit end must be strictly after start.
func BuildScheduled(start time.Time, end *time.Time, title, description string) (Request, error) {
	if strings.TrimSpace(title) == "" {
		title = DefaultScheduledTitle
	}
	if strings.TrimSpace(description) == "" {
		description = ScheduledDescription(start)
	}

	endTime := start.Add(DefaultScheduledDuration)
	if end != nil {
		if !end.After(start) {
			return Request{}, ErrInvalidInterval
		}
		endTime = *end
	}

	return Request{
		Kind:        KindScheduled,
		Summary:     title,
		Description: description,
		Start:       start,
		End:         endTime,
	}, nil
}

// ScheduledDescription returns the default description for a scheduled
// meeting, incorporating the human-readable local start time.
func ScheduledDescription(start time.Time) string {
	return fmt.Sprintf("This is a scheduled meeting for %s.", start.Format("Jan 2, 2006 at 3:04 PM"))
}
