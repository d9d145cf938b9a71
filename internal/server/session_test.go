package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *SessionManager {
	t.Helper()
	m := NewSessionManager()
	t.Cleanup(m.Stop)
	return m
}

func bearerRequest(token string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/meetings", nil)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

func cookieRequest(value string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/meetings", nil)
	r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: value})
	return r
}

func TestResolve_BearerToken(t *testing.T) {
	m := newTestManager(t)

	session, err := m.Resolve(bearerRequest("token-a"))
	require.NoError(t, err)
	assert.Equal(t, "token-a", session.AccessToken)
	assert.NotNil(t, session.History)
	assert.Len(t, session.ID, 64) // sha256 hex
}

func TestResolve_Cookie(t *testing.T) {
	m := newTestManager(t)

	session, err := m.Resolve(cookieRequest("cookie-token"))
	require.NoError(t, err)
	assert.Equal(t, "cookie-token", session.AccessToken)
}

func TestResolve_SameCredentialSameSession(t *testing.T) {
	m := newTestManager(t)

	a, err := m.Resolve(bearerRequest("token-a"))
	require.NoError(t, err)
	b, err := m.Resolve(bearerRequest("token-a"))
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Equal(t, 1, m.Len())
}

func TestResolve_BearerAndCookieShareSession(t *testing.T) {
	m := newTestManager(t)

	a, err := m.Resolve(bearerRequest("shared"))
	require.NoError(t, err)
	b, err := m.Resolve(cookieRequest("shared"))
	require.NoError(t, err)

	assert.Same(t, a, b)
}

func TestResolve_DistinctCredentialsIsolated(t *testing.T) {
	m := newTestManager(t)

	a, err := m.Resolve(bearerRequest("token-a"))
	require.NoError(t, err)
	b, err := m.Resolve(bearerRequest("token-b"))
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, m.Len())
}

func TestResolve_Unauthenticated(t *testing.T) {
	m := newTestManager(t)

	tests := []struct {
		name string
		req  *http.Request
	}{
		{"no credential", httptest.NewRequest(http.MethodGet, "/", nil)},
		{"empty bearer", bearerRequest("")},
		{"wrong scheme", func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
			return r
		}()},
		{"empty cookie", cookieRequest("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Resolve(tt.req)
			assert.ErrorIs(t, err, ErrUnauthenticated)
		})
	}
}

func TestInFlightGuard(t *testing.T) {
	m := newTestManager(t)

	session, err := m.Resolve(bearerRequest("token-a"))
	require.NoError(t, err)

	require.True(t, session.BeginCreation())
	assert.False(t, session.BeginCreation(), "second creation must be rejected while one is in flight")

	session.EndCreation()
	assert.True(t, session.BeginCreation(), "guard releases after EndCreation")
	session.EndCreation()
}

func TestRemoveExpired(t *testing.T) {
	m := NewSessionManagerWithTimeout(time.Hour)
	t.Cleanup(m.Stop)

	stale, err := m.Resolve(bearerRequest("stale"))
	require.NoError(t, err)
	_, err = m.Resolve(bearerRequest("fresh"))
	require.NoError(t, err)

	stale.touch(time.Now().Add(-2 * time.Hour))
	m.removeExpired(time.Now())

	assert.Equal(t, 1, m.Len())
	_, err = m.Resolve(bearerRequest("fresh"))
	require.NoError(t, err)

	// The stale credential gets a fresh session with empty history.
	recreated, err := m.Resolve(bearerRequest("stale"))
	require.NoError(t, err)
	assert.NotSame(t, stale, recreated)
}
