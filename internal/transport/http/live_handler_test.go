package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type liveMessage struct {
	Type    string          `json:"type"`
	Payload leaderboardBody `json:"payload"`
}

func readLive(t *testing.T, conn *websocket.Conn) liveMessage {
	t.Helper()
	var msg liveMessage
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestLiveLeaderboardPushesMatchingScores(t *testing.T) {
	ts := newTestServer(t)
	server := httptest.NewServer(ts.handler)
	defer server.Close()

	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/leaderboard/live?category=9"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	defer conn.Close()

	first := readLive(t, conn)
	assert.Equal(t, "leaderboard", first.Type)
	assert.Empty(t, first.Payload.Leaderboard)

	submit := func(body string) {
		req, err := http.NewRequest(http.MethodPost, server.URL+"/leaderboard", strings.NewReader(body))
		require.NoError(t, err)
		req.AddCookie(guest("live-guest"))
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	// A score outside the filter must not produce a push.
	submit(`{"points":99,"category":"10"}`)
	submit(`{"points":42,"category":"9"}`)

	next := readLive(t, conn)
	assert.Equal(t, "leaderboard", next.Type)
	require.Len(t, next.Payload.Leaderboard, 1)
	assert.Equal(t, 42, next.Payload.Leaderboard[0].Points)
}

func TestLiveRejectsBadFilters(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.request(http.MethodGet, "/leaderboard/live?difficulty=nope", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
