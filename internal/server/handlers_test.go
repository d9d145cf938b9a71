package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fusionflow/meetlink/internal/calendar"
	"github.com/fusionflow/meetlink/internal/meeting"
)

// fakeGateway records requests and returns a canned conference or error.
type fakeGateway struct {
	conf  *calendar.Conference
	err   error
	calls []meeting.Request
}

func (f *fakeGateway) CreateConference(_ context.Context, req meeting.Request) (*calendar.Conference, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.conf, nil
}

type fixture struct {
	handlers *Handlers
	sessions *SessionManager
	gateway  *fakeGateway
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	gw := &fakeGateway{
		conf: &calendar.Conference{
			EventID: "evt-123",
			Link:    "https://meet.google.com/abc-defg-hij",
		},
	}

	sessions := NewSessionManager()
	t.Cleanup(sessions.Stop)

	sc := NewServerContextWithFactory(context.Background(), func(context.Context, string) (calendar.Gateway, error) {
		return gw, nil
	})

	f := &fixture{
		handlers: NewHandlers(sc, sessions, nil),
		sessions: sessions,
		gateway:  gw,
		now:      time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	f.handlers.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) request(method, path string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	r := httptest.NewRequest(method, path, &buf)
	r.Header.Set("Authorization", "Bearer test-token")
	return r
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func TestCreateInstant_Success(t *testing.T) {
	f := newFixture(t)

	rec := httptest.NewRecorder()
	f.handlers.CreateInstant(rec, f.request(http.MethodPost, "/api/meetings/instant", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "https://meet.google.com/abc-defg-hij", body["link"])

	require.Len(t, f.gateway.calls, 1)
	req := f.gateway.calls[0]
	assert.Equal(t, meeting.KindInstant, req.Kind)
	assert.Equal(t, meeting.DefaultInstantTitle, req.Summary)
	assert.Equal(t, 30*time.Minute, req.Duration())

	session, err := f.sessions.Resolve(f.request(http.MethodGet, "/api/meetings", nil))
	require.NoError(t, err)
	assert.Equal(t, 1, session.History.Len())
}

func TestCreateInstant_Unauthenticated(t *testing.T) {
	f := newFixture(t)

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/meetings/instant", nil)
	f.handlers.CreateInstant(rec, r)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Not authenticated", decodeBody(t, rec)["error"])
	assert.Empty(t, f.gateway.calls)
}

func TestCreateInstant_AlreadyInFlight(t *testing.T) {
	f := newFixture(t)

	session, err := f.sessions.Resolve(f.request(http.MethodPost, "/api/meetings/instant", nil))
	require.NoError(t, err)
	require.True(t, session.BeginCreation())
	defer session.EndCreation()

	rec := httptest.NewRecorder()
	f.handlers.CreateInstant(rec, f.request(http.MethodPost, "/api/meetings/instant", nil))

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, f.gateway.calls)
}

func TestCreateScheduled_Success(t *testing.T) {
	f := newFixture(t)

	rec := httptest.NewRecorder()
	f.handlers.CreateScheduled(rec, f.request(http.MethodPost, "/api/meetings/scheduled", map[string]string{
		"startTime": "2026-03-11T10:00:00Z",
		"summary":   "Sprint Review",
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "https://meet.google.com/abc-defg-hij", body["link"])
	assert.Equal(t, "evt-123", body["eventId"])
	assert.Equal(t, "2026-03-11T10:00:00Z", body["scheduledFor"])

	require.Len(t, f.gateway.calls, 1)
	req := f.gateway.calls[0]
	assert.Equal(t, meeting.KindScheduled, req.Kind)
	assert.Equal(t, "Sprint Review", req.Summary)
	assert.Equal(t, 60*time.Minute, req.Duration())
}

func TestCreateScheduled_DateTimeFields(t *testing.T) {
	f := newFixture(t)

	rec := httptest.NewRecorder()
	f.handlers.CreateScheduled(rec, f.request(http.MethodPost, "/api/meetings/scheduled", map[string]string{
		"date": "2099-01-01",
		"time": "10:00",
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, f.gateway.calls, 1)
	req := f.gateway.calls[0]

	want := time.Date(2099, 1, 1, 10, 0, 0, 0, time.Local)
	assert.True(t, req.Start.Equal(want), "start = %v, want %v", req.Start, want)
	assert.Equal(t, meeting.DefaultScheduledTitle, req.Summary)
}

func TestCreateScheduled_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    map[string]string
		wantErr string
	}{
		{
			name:    "missing startTime",
			body:    map[string]string{},
			wantErr: "Missing startTime",
		},
		{
			name:    "invalid startTime",
			body:    map[string]string{"startTime": "next tuesday"},
			wantErr: "Invalid startTime format",
		},
		{
			name:    "past startTime",
			body:    map[string]string{"startTime": "2000-01-01T10:00:00Z"},
			wantErr: "Meeting must be scheduled for a future time",
		},
		{
			name:    "startTime exactly now",
			body:    map[string]string{"startTime": "2026-03-10T09:00:00Z"},
			wantErr: "Meeting must be scheduled for a future time",
		},
		{
			name:    "empty date field",
			body:    map[string]string{"date": "", "time": "10:00"},
			wantErr: "Missing startTime",
		},
		{
			name:    "malformed date field",
			body:    map[string]string{"date": "2099-13-01", "time": "10:00"},
			wantErr: "Invalid startTime format",
		},
		{
			name:    "past date field",
			body:    map[string]string{"date": "2000-01-01", "time": "10:00"},
			wantErr: "Meeting must be scheduled for a future time",
		},
		{
			name:    "invalid endTime",
			body:    map[string]string{"startTime": "2099-01-01T10:00:00Z", "endTime": "garbage"},
			wantErr: "Invalid endTime format",
		},
		{
			name:    "end before start",
			body:    map[string]string{"startTime": "2099-01-01T10:00:00Z", "endTime": "2099-01-01T09:00:00Z"},
			wantErr: "End time must be after start time",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			rec := httptest.NewRecorder()
			f.handlers.CreateScheduled(rec, f.request(http.MethodPost, "/api/meetings/scheduled", tt.body))

			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.wantErr, decodeBody(t, rec)["error"])
			assert.Empty(t, f.gateway.calls, "no upstream call on validation failure")
		})
	}
}

func TestCreateScheduled_GatewayErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantErr    string
	}{
		{
			name:       "permission denied",
			err:        calendar.ErrPermissionDenied,
			wantStatus: http.StatusForbidden,
			wantErr:    "Insufficient permissions to create calendar events",
		},
		{
			name:       "auth expired",
			err:        calendar.ErrAuthExpired,
			wantStatus: http.StatusUnauthorized,
			wantErr:    "Authentication token expired. Please sign in again.",
		},
		{
			name:       "timeout",
			err:        calendar.ErrUpstreamTimeout,
			wantStatus: http.StatusGatewayTimeout,
			wantErr:    "Calendar request timed out",
		},
		{
			name:       "no link",
			err:        calendar.ErrLinkGeneration,
			wantStatus: http.StatusInternalServerError,
			wantErr:    "Failed to generate meeting link",
		},
		{
			name:       "wrapped sentinel",
			err:        fmt.Errorf("create event: %w", calendar.ErrAuthExpired),
			wantStatus: http.StatusUnauthorized,
			wantErr:    "Authentication token expired. Please sign in again.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.gateway.err = tt.err

			rec := httptest.NewRecorder()
			f.handlers.CreateScheduled(rec, f.request(http.MethodPost, "/api/meetings/scheduled", map[string]string{
				"startTime": "2099-01-01T10:00:00Z",
			}))

			require.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantErr, decodeBody(t, rec)["error"])

			session, err := f.sessions.Resolve(f.request(http.MethodGet, "/api/meetings", nil))
			require.NoError(t, err)
			assert.Equal(t, 0, session.History.Len(), "no history record on failure")
		})
	}
}

func TestCreateScheduled_GenericUpstreamError(t *testing.T) {
	f := newFixture(t)
	f.gateway.err = errors.New("backend exploded")

	rec := httptest.NewRecorder()
	f.handlers.CreateScheduled(rec, f.request(http.MethodPost, "/api/meetings/scheduled", map[string]string{
		"startTime": "2099-01-01T10:00:00Z",
	}))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Failed to create scheduled event", body["error"])
	assert.Equal(t, "backend exploded", body["details"])
}

func TestListMeetings(t *testing.T) {
	f := newFixture(t)

	rec := httptest.NewRecorder()
	f.handlers.CreateInstant(rec, f.request(http.MethodPost, "/api/meetings/instant", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	f.now = f.now.Add(time.Minute)
	rec = httptest.NewRecorder()
	f.handlers.CreateScheduled(rec, f.request(http.MethodPost, "/api/meetings/scheduled", map[string]string{
		"startTime": "2099-01-01T10:00:00Z",
	}))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	f.handlers.ListMeetings(rec, f.request(http.MethodGet, "/api/meetings", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Meetings []struct {
			Kind  string `json:"kind"`
			Title string `json:"title"`
			Link  string `json:"link"`
		} `json:"meetings"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Meetings, 2)
	assert.Equal(t, "scheduled", body.Meetings[0].Kind, "newest first")
	assert.Equal(t, "instant", body.Meetings[1].Kind)
}

func TestClearMeetings(t *testing.T) {
	f := newFixture(t)

	rec := httptest.NewRecorder()
	f.handlers.CreateInstant(rec, f.request(http.MethodPost, "/api/meetings/instant", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	f.handlers.ClearMeetings(rec, f.request(http.MethodDelete, "/api/meetings", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	session, err := f.sessions.Resolve(f.request(http.MethodGet, "/api/meetings", nil))
	require.NoError(t, err)
	assert.Equal(t, 0, session.History.Len())
}

func TestHistoryIsolationBetweenSessions(t *testing.T) {
	f := newFixture(t)

	rec := httptest.NewRecorder()
	f.handlers.CreateInstant(rec, f.request(http.MethodPost, "/api/meetings/instant", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	other := httptest.NewRequest(http.MethodGet, "/api/meetings", nil)
	other.Header.Set("Authorization", "Bearer other-token")
	f.handlers.ListMeetings(rec, other)

	var body struct {
		Meetings []json.RawMessage `json:"meetings"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Empty(t, body.Meetings)
}

func TestGatewayFactoryFailure(t *testing.T) {
	sessions := NewSessionManager()
	t.Cleanup(sessions.Stop)

	sc := NewServerContextWithFactory(context.Background(), func(context.Context, string) (calendar.Gateway, error) {
		return nil, errors.New("bad credentials")
	})
	h := NewHandlers(sc, sessions, nil)

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/meetings/instant", nil)
	r.Header.Set("Authorization", "Bearer test-token")
	h.CreateInstant(rec, r)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
