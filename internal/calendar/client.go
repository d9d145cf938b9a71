package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/fusionflow/meetlink/internal/google"
	"github.com/fusionflow/meetlink/internal/logging"
	"github.com/fusionflow/meetlink/internal/meeting"
)

// Client wraps the Google Calendar service and implements Gateway.
type Client struct {
	svc            *calendar.Service
	requestTimeout time.Duration
	logger         *slog.Logger
}

// NewClient creates a Calendar client whose outbound calls are
// authenticated by the provided token provider.
func NewClient(ctx context.Context, provider google.TokenProvider) (*Client, error) {
	if provider == nil {
		return nil, fmt.Errorf("token provider cannot be nil")
	}

	httpClient, err := google.NewHTTPClient(ctx, provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create authenticated HTTP client: %w", err)
	}

	svc, err := calendar.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	return &Client{
		svc:            svc,
		requestTimeout: DefaultRequestTimeout,
		logger:         logging.WithService(slog.Default(), "calendar"),
	}, nil
}

// SetRequestTimeout overrides the per-call deadline. Zero disables the
// bound.
func (c *Client) SetRequestTimeout(d time.Duration) {
	c.requestTimeout = d
}

// CreateConference creates an event on the primary calendar with an
// auto-generated Google Meet link. A response without a link is treated
// as a failure even though the insert call succeeded.
func (c *Client) CreateConference(ctx context.Context, req meeting.Request) (*Conference, error) {
	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	tz := req.Start.Location().String()
	event := &calendar.Event{
		Summary:     req.Summary,
		Description: req.Description,
		Status:      "confirmed",
		Start: &calendar.EventDateTime{
			DateTime: req.Start.Format(time.RFC3339),
			TimeZone: tz,
		},
		End: &calendar.EventDateTime{
			DateTime: req.End.Format(time.RFC3339),
			TimeZone: tz,
		},
		ConferenceData: &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId: fmt.Sprintf("meetlink-%d", time.Now().UnixNano()),
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{
					Type: "hangoutsMeet",
				},
			},
		},
	}

	started := time.Now()
	created, err := c.svc.Events.Insert(PrimaryCalendarID, event).
		ConferenceDataVersion(1).
		Context(ctx).
		Do()
	if err != nil {
		classified := ClassifyError(err)
		c.logger.Error("event creation failed",
			logging.Operation("create"),
			logging.Kind(string(req.Kind)),
			logging.Err(classified))
		return nil, classified
	}

	link := MeetLink(created)
	if link == "" {
		c.logger.Error("event created without a conference link",
			logging.Operation("create"),
			logging.Kind(string(req.Kind)),
			slog.String("event_id", created.Id))
		return nil, ErrLinkGeneration
	}

	c.logger.Info("event created",
		logging.Operation("create"),
		logging.Kind(string(req.Kind)),
		slog.String("event_id", created.Id),
		slog.Duration("duration", time.Since(started)))

	return &Conference{
		EventID: created.Id,
		Link:    link,
		Start:   req.Start,
		End:     req.End,
	}, nil
}

// MeetLink extracts the video-conferencing link from a created event,
// preferring HangoutLink and falling back to the video entry point in the
// conference data.
func MeetLink(event *calendar.Event) string {
	if event == nil {
		return ""
	}
	if event.HangoutLink != "" {
		return event.HangoutLink
	}
	if event.ConferenceData != nil {
		for _, ep := range event.ConferenceData.EntryPoints {
			if ep.EntryPointType == "video" && ep.Uri != "" {
				return ep.Uri
			}
		}
	}
	return ""
}
