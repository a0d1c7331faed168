package http

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/metrics"
)

// Subscriber hands out score event streams.
type Subscriber interface {
	Subscribe() (<-chan domain.ScoreEvent, func())
}

type LiveHandler struct {
	service  *app.LeaderboardService
	feed     Subscriber
	metrics  *metrics.Metrics
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewLiveHandler(service *app.LeaderboardService, feed Subscriber, m *metrics.Metrics, logger *zap.Logger, checkOrigin func(r *http.Request) bool) *LiveHandler {
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &LiveHandler{
		service: service,
		feed:    feed,
		metrics: m,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS streams the leaderboard for the requested filters, resending it
// whenever a matching score is accepted. Client messages are ignored.
func (h *LiveHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	q, err := app.ParseLeaderboardQuery(r.URL.Query())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.metrics.IncLive()
	defer h.metrics.DecLive()

	events, cancel := h.feed.Subscribe()
	defer cancel()

	ctx := r.Context()
	send := make(chan outboundMessage, 4)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Only this goroutine writes to conn.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write error", zap.Error(err))
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				if !q.Matches(ev.Category, ev.Difficulty) {
					continue
				}
				select {
				case send <- h.snapshot(ctx, q):
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- h.snapshot(ctx, q)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *LiveHandler) snapshot(ctx context.Context, q domain.LeaderboardQuery) outboundMessage {
	entries, err := h.service.Leaderboard(ctx, q)
	if err != nil {
		h.logger.Error("live leaderboard query failed", zap.Error(err))
		return outboundMessage{Type: "error", Payload: errorPayload{Message: "leaderboard unavailable"}}
	}
	return outboundMessage{Type: "leaderboard", Payload: leaderboardResponse{Leaderboard: entries}}
}
