package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fusionflow/meetlink/internal/history"
	"github.com/fusionflow/meetlink/internal/instrumentation"
)

// SessionCookieName is the cookie carrying the session credential for
// browser clients. API clients send the same credential as a Bearer
// token instead.
const SessionCookieName = "meetlink_session"

// DefaultSessionTimeout is how long an idle session survives before the
// cleanup loop drops it, history and all.
const DefaultSessionTimeout = 24 * time.Hour

// ErrUnauthenticated is returned when a request carries no usable
// credential.
var ErrUnauthenticated = errors.New("not authenticated")

// Session is the per-user state for one credential: the upstream access
// token, the meeting history created during the session, and the
// in-flight guard that serializes creations.
type Session struct {
	ID          string
	AccessToken string
	History     *history.Store

	lastAccess atomic.Int64
	inFlight   atomic.Bool
}

// BeginCreation marks a meeting creation as in flight. It returns false
// when another creation for this session is already outstanding; the
// caller must reject the request rather than fire a second upstream
// call (the double-click case).
func (s *Session) BeginCreation() bool {
	return s.inFlight.CompareAndSwap(false, true)
}

// EndCreation releases the in-flight guard.
func (s *Session) EndCreation() {
	s.inFlight.Store(false)
}

func (s *Session) touch(now time.Time) {
	s.lastAccess.Store(now.UnixNano())
}

// SessionManager resolves HTTP requests to sessions. Each distinct
// credential gets its own session, so each user sees their own meeting
// history. Idle sessions are dropped by a background cleanup loop.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	sessionTimeout time.Duration
	cleanupTicker  *time.Ticker
	cleanupDone    chan struct{}
	stopOnce       sync.Once

	metrics *instrumentation.Metrics
	logger  *slog.Logger
}

// NewSessionManager creates a session manager with the default timeout.
func NewSessionManager() *SessionManager {
	return NewSessionManagerWithTimeout(DefaultSessionTimeout)
}

// NewSessionManagerWithTimeout creates a session manager with a custom
// idle timeout.
func NewSessionManagerWithTimeout(timeout time.Duration) *SessionManager {
	m := &SessionManager{
		sessions:       make(map[string]*Session),
		sessionTimeout: timeout,
		cleanupTicker:  time.NewTicker(10 * time.Minute),
		cleanupDone:    make(chan struct{}),
		logger:         slog.Default(),
	}

	go m.cleanupExpiredSessions()

	return m
}

// SetMetrics attaches a metrics recorder for the active-session gauge.
func (m *SessionManager) SetMetrics(metrics *instrumentation.Metrics) {
	m.metrics = metrics
}

// Resolve returns the session for an HTTP request, creating it on first
// sight of a credential. Requests without a Bearer token or session
// cookie fail with ErrUnauthenticated.
func (m *SessionManager) Resolve(r *http.Request) (*Session, error) {
	credential := credentialFromRequest(r)
	if credential == "" {
		return nil, ErrUnauthenticated
	}

	id := sessionID(credential)
	now := time.Now()

	m.mu.RLock()
	session, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		session.touch(now)
		return session, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if session, ok := m.sessions[id]; ok {
		session.touch(now)
		return session, nil
	}

	session = &Session{
		ID:          id,
		AccessToken: credential,
		History:     history.NewStore(),
	}
	session.touch(now)
	m.sessions[id] = session

	m.metrics.SessionOpened(r.Context())
	m.logger.Debug("session created", "session", id[:12])

	return session, nil
}

// Len returns the number of live sessions.
func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// cleanupExpiredSessions periodically removes idle sessions.
func (m *SessionManager) cleanupExpiredSessions() {
	for {
		select {
		case <-m.cleanupTicker.C:
			m.removeExpired(time.Now())
		case <-m.cleanupDone:
			return
		}
	}
}

func (m *SessionManager) removeExpired(now time.Time) {
	m.mu.Lock()
	expired := 0
	for id, session := range m.sessions {
		last := time.Unix(0, session.lastAccess.Load())
		if now.Sub(last) > m.sessionTimeout {
			delete(m.sessions, id)
			expired++
		}
	}
	m.mu.Unlock()

	if expired > 0 {
		m.metrics.SessionClosed(context.Background(), int64(expired))
		m.logger.Info("cleaned up expired sessions", "count", expired)
	}
}

// Stop stops the cleanup goroutine.
func (m *SessionManager) Stop() {
	m.stopOnce.Do(func() {
		m.cleanupTicker.Stop()
		close(m.cleanupDone)
	})
}

// credentialFromRequest extracts the upstream access credential from the
// Authorization header or the session cookie.
func credentialFromRequest(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok && token != "" {
			return token
		}
		return ""
	}

	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	return ""
}

// sessionID derives a stable session ID from the credential without
// storing the credential as a map key.
func sessionID(credential string) string {
	hash := sha256.Sum256([]byte(credential))
	return hex.EncodeToString(hash[:])
}
