package identity_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/identity"
)

type stubSessions struct {
	sessions map[string]domain.Session
	err      error
}

func (s stubSessions) Lookup(_ context.Context, token string) (domain.Session, bool, error) {
	if s.err != nil {
		return domain.Session{}, false, s.err
	}
	session, ok := s.sessions[token]
	return session, ok, nil
}

func newResolver(sessions identity.SessionLookup, trustProxy bool) *identity.Resolver {
	return identity.NewResolver(identity.Config{
		TrustProxy:     trustProxy,
		SkipGuestPaths: []string{"/healthz"},
	}, sessions, zap.NewNop())
}

func serve(r *identity.Resolver, req *http.Request) (identity.Caller, *httptest.ResponseRecorder) {
	var caller identity.Caller
	h := r.Middleware(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		caller = identity.FromContext(req.Context())
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return caller, rec
}

func TestGuestCookieIssuedOnFirstVisit(t *testing.T) {
	r := newResolver(nil, false)

	caller, rec := serve(r, httptest.NewRequest(http.MethodGet, "/leaderboard", nil))
	assert.True(t, caller.Identity.IsZero(), "fresh cookie must not authenticate the current request")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, "guestId", c.Name)
	assert.Len(t, c.Value, 36)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, 365*24*60*60, c.MaxAge)
}

func TestGuestCookieNotReissued(t *testing.T) {
	r := newResolver(nil, false)
	req := httptest.NewRequest(http.MethodGet, "/leaderboard", nil)
	req.AddCookie(&http.Cookie{Name: "guestId", Value: "g-1"})

	caller, rec := serve(r, req)
	assert.Equal(t, "g-1", caller.Identity.GuestID)
	assert.Empty(t, rec.Result().Cookies())
}

func TestGuestCookieSkippedPaths(t *testing.T) {
	r := newResolver(nil, false)
	_, rec := serve(r, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Empty(t, rec.Result().Cookies())
}

func TestSessionFromCookieAndBearer(t *testing.T) {
	sessions := stubSessions{sessions: map[string]domain.Session{
		"tok": {Token: "tok", User: domain.User{ID: "u-1", Name: "Alice"}, ExpiresAt: time.Now().Add(time.Hour)},
	}}
	r := newResolver(sessions, false)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "tok"})
	req.AddCookie(&http.Cookie{Name: "guestId", Value: "g-1"})
	caller, _ := serve(r, req)
	assert.Equal(t, domain.Identity{GuestID: "g-1", UserID: "u-1"}, caller.Identity)
	require.NotNil(t, caller.Session)
	assert.Equal(t, "Alice", caller.Session.User.Name)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok")
	caller, _ = serve(r, req)
	assert.Equal(t, "u-1", caller.Identity.UserID)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer nope")
	caller, _ = serve(r, req)
	assert.Empty(t, caller.Identity.UserID)
}

func TestSessionLookupFailureIsAnonymous(t *testing.T) {
	r := newResolver(stubSessions{err: errors.New("redis down")}, false)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok")

	caller, _ := serve(r, req)
	assert.Empty(t, caller.Identity.UserID)
	assert.Nil(t, caller.Session)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.5:4321"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

	assert.Equal(t, "10.0.0.5", identity.ClientIP(req, false))
	assert.Equal(t, "203.0.113.7", identity.ClientIP(req, true))

	req.Header.Del("X-Forwarded-For")
	req.Header.Set("X-Real-IP", "198.51.100.2")
	assert.Equal(t, "198.51.100.2", identity.ClientIP(req, true))
}
