package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/fusionflow/meetlink/internal/calendar"
	"github.com/fusionflow/meetlink/internal/history"
	"github.com/fusionflow/meetlink/internal/logging"
	"github.com/fusionflow/meetlink/internal/meeting"
)

// scheduledRequest is the body of a scheduled meeting creation. StartTime
// is ISO-8601; Date and Time are the raw form fields accepted as a
// fallback when the client has not composed them itself.
type scheduledRequest struct {
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime,omitempty"`
	Summary     string `json:"summary,omitempty"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date,omitempty"`
	Time        string `json:"time,omitempty"`
}

type instantResponse struct {
	Link string `json:"link"`
}

type scheduledResponse struct {
	Link         string `json:"link"`
	EventID      string `json:"eventId"`
	ScheduledFor string `json:"scheduledFor"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Handlers serves the meeting API. The clock is injectable so tests can
// pin "now".
type Handlers struct {
	serverCtx *ServerContext
	sessions  *SessionManager
	logger    *slog.Logger
	now       func() time.Time
}

// NewHandlers creates the API handlers.
func NewHandlers(serverCtx *ServerContext, sessions *SessionManager, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		serverCtx: serverCtx,
		sessions:  sessions,
		logger:    logging.WithService(logger, "server"),
		now:       time.Now,
	}
}

// CreateInstant creates a meeting starting now and returns its link.
func (h *Handlers) CreateInstant(w http.ResponseWriter, r *http.Request) {
	session, ok := h.resolveSession(w, r)
	if !ok {
		return
	}

	if !session.BeginCreation() {
		writeJSON(w, http.StatusConflict, errorResponse{Error: "meeting creation already in progress"})
		return
	}
	defer session.EndCreation()

	req := meeting.BuildInstant(h.now(), "")
	conf, err := h.createConference(w, r, session, req)
	if err != nil {
		return
	}

	session.History.Append(history.NewRecord(req, conf.Link, conf.EventID, h.now()))
	h.recordCreation(r, req.Kind, logging.StatusSuccess)
	writeJSON(w, http.StatusOK, instantResponse{Link: conf.Link})
}

// CreateScheduled creates a meeting at a future start time and returns
// its link, event ID, and confirmed start.
func (h *Handlers) CreateScheduled(w http.ResponseWriter, r *http.Request) {
	session, ok := h.resolveSession(w, r)
	if !ok {
		return
	}

	var body scheduledRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}

	start, errMsg := h.parseStart(body)
	if errMsg != "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: errMsg})
		return
	}

	var end *time.Time
	if body.EndTime != "" {
		parsed, err := time.Parse(time.RFC3339, body.EndTime)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid endTime format"})
			return
		}
		end = &parsed
	}

	req, err := meeting.BuildScheduled(start, end, body.Summary, body.Description)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "End time must be after start time"})
		return
	}

	if !session.BeginCreation() {
		writeJSON(w, http.StatusConflict, errorResponse{Error: "meeting creation already in progress"})
		return
	}
	defer session.EndCreation()

	conf, err := h.createConference(w, r, session, req)
	if err != nil {
		return
	}

	session.History.Append(history.NewRecord(req, conf.Link, conf.EventID, h.now()))
	h.recordCreation(r, req.Kind, logging.StatusSuccess)
	writeJSON(w, http.StatusOK, scheduledResponse{
		Link:         conf.Link,
		EventID:      conf.EventID,
		ScheduledFor: req.Start.Format(time.RFC3339),
	})
}

// parseStart resolves the start instant of a scheduled request. It
// prefers the composed startTime, falling back to the raw date and time
// form fields. The returned message is empty on success.
func (h *Handlers) parseStart(body scheduledRequest) (time.Time, string) {
	if body.StartTime != "" {
		start, err := time.Parse(time.RFC3339, body.StartTime)
		if err != nil {
			return time.Time{}, "Invalid startTime format"
		}
		if !start.After(h.now()) {
			return time.Time{}, "Meeting must be scheduled for a future time"
		}
		return start, ""
	}

	if body.Date == "" && body.Time == "" {
		return time.Time{}, "Missing startTime"
	}

	start, err := meeting.ValidateSchedule(body.Date, body.Time, time.Local, h.now())
	switch {
	case err == nil:
		return start, ""
	case errors.Is(err, meeting.ErrMissingField):
		return time.Time{}, "Missing startTime"
	case errors.Is(err, meeting.ErrNotInFuture):
		return time.Time{}, "Meeting must be scheduled for a future time"
	default:
		return time.Time{}, "Invalid startTime format"
	}
}

// ListMeetings returns the session's meeting history, newest first.
func (h *Handlers) ListMeetings(w http.ResponseWriter, r *http.Request) {
	session, ok := h.resolveSession(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string][]history.Record{
		"meetings": session.History.List(),
	})
}

// ClearMeetings drops the session's meeting history.
func (h *Handlers) ClearMeetings(w http.ResponseWriter, r *http.Request) {
	session, ok := h.resolveSession(w, r)
	if !ok {
		return
	}

	session.History.Clear()
	w.WriteHeader(http.StatusNoContent)
}

// createConference runs the upstream call and writes the error response
// itself on failure, so callers only handle the success path.
func (h *Handlers) createConference(w http.ResponseWriter, r *http.Request, session *Session, req meeting.Request) (*calendar.Conference, error) {
	logger := logging.WithSession(h.logger, session.ID)

	gw, err := h.serverCtx.GatewayForSession(session)
	if err != nil {
		logger.Error("failed to build calendar client", logging.Err(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to initialize calendar client"})
		return nil, err
	}

	start := h.now()
	conf, err := gw.CreateConference(r.Context(), req)
	h.serverCtx.Metrics().RecordCalendarAPIOperation(r.Context(), "events.insert", statusLabel(err), time.Since(start))
	if err != nil {
		logger.Error("meeting creation failed",
			logging.Kind(string(req.Kind)),
			logging.Err(err))
		h.recordCreation(r, req.Kind, logging.StatusError)
		h.writeGatewayError(w, err)
		return nil, err
	}

	logger.Info("meeting created", logging.Kind(string(req.Kind)))
	return conf, nil
}

// writeGatewayError maps upstream failures to the wire contract.
func (h *Handlers) writeGatewayError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, calendar.ErrPermissionDenied):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "Insufficient permissions to create calendar events"})
	case errors.Is(err, calendar.ErrAuthExpired):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Authentication token expired. Please sign in again."})
	case errors.Is(err, calendar.ErrUpstreamTimeout):
		writeJSON(w, http.StatusGatewayTimeout, errorResponse{Error: "Calendar request timed out"})
	case errors.Is(err, calendar.ErrLinkGeneration):
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to generate meeting link"})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "Failed to create scheduled event",
			Details: err.Error(),
		})
	}
}

func (h *Handlers) resolveSession(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	session, err := h.sessions.Resolve(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Not authenticated"})
		return nil, false
	}
	return session, true
}

func (h *Handlers) recordCreation(r *http.Request, kind meeting.Kind, status string) {
	h.serverCtx.Metrics().RecordMeetingCreation(r.Context(), string(kind), status)
}

func statusLabel(err error) string {
	if err != nil {
		return logging.StatusError
	}
	return logging.StatusSuccess
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
