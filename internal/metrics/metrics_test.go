package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestCounters(t *testing.T) {
	m := New("trivia")

	m.IncSubmission(OutcomeAccepted)
	m.IncSubmission(OutcomeAccepted)
	m.IncSubmission(OutcomeIgnored)
	m.IncSubmission(OutcomeRejected)
	m.ObserveRequest(http.MethodGet, "/leaderboard", 200, 5*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "/leaderboard", 404, time.Millisecond)
	m.IncLive()
	m.IncLive()
	m.DecLive()

	out := scrape(t, m)
	assert.Contains(t, out, `trivia_score_submissions_total{outcome="accepted"} 2`)
	assert.Contains(t, out, `trivia_score_submissions_total{outcome="ignored"} 1`)
	assert.Contains(t, out, `trivia_score_submissions_total{outcome="rejected"} 1`)
	assert.Contains(t, out, `trivia_http_requests_total{method="GET",route="/leaderboard",status="4xx"} 1`)
	assert.Contains(t, out, `trivia_http_request_duration_seconds_count{route="/leaderboard"} 2`)
	assert.Contains(t, out, `trivia_live_connections 1`)
}

func TestRegistriesAreIndependent(t *testing.T) {
	a := New("trivia")
	b := New("trivia")
	a.IncSubmission(OutcomeAccepted)
	assert.NotContains(t, scrape(t, b), `outcome="accepted"`)
}
