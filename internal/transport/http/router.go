package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/auth"
	"trivia-quiz-service/internal/identity"
	"trivia-quiz-service/internal/metrics"
)

// RouterConfig holds what the HTTP surface needs.
type RouterConfig struct {
	Logger        *zap.Logger
	Metrics       *metrics.Metrics
	Leaderboard   *app.LeaderboardService
	Feed          Subscriber
	Auth          *auth.Service
	Identity      *identity.Resolver
	AfterLoginURL string
	// CheckOrigin guards live leaderboard upgrades; nil accepts any origin.
	CheckOrigin func(r *http.Request) bool
}

// NewRouter creates the router with all routes configured.
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	leaderboard := NewLeaderboardHandler(cfg.Leaderboard, cfg.Metrics, cfg.Logger)
	live := NewLiveHandler(cfg.Leaderboard, cfg.Feed, cfg.Metrics, cfg.Logger, cfg.CheckOrigin)
	authHandler := NewAuthHandler(cfg.Auth, cfg.Identity, cfg.AfterLoginURL, cfg.Logger)

	r.Use(Recovery(cfg.Logger))
	r.Use(Logging(cfg.Logger))
	r.Use(Instrument(cfg.Metrics))
	r.Use(cfg.Identity.Middleware)

	r.HandleFunc("/healthz", healthHandler).Methods(http.MethodGet)
	r.Handle("/metrics", cfg.Metrics.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/leaderboard", leaderboard.List).Methods(http.MethodGet)
	r.HandleFunc("/leaderboard", leaderboard.Submit).Methods(http.MethodPost)
	r.HandleFunc("/leaderboard/name", leaderboard.Rename).Methods(http.MethodPost)
	r.HandleFunc("/leaderboard/live", live.ServeWS).Methods(http.MethodGet)

	r.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodGet)
	r.HandleFunc("/auth/callback", authHandler.Callback).Methods(http.MethodGet)
	r.HandleFunc("/auth/session", authHandler.Session).Methods(http.MethodGet)
	r.HandleFunc("/auth/logout", authHandler.Logout).Methods(http.MethodPost)

	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("ok"))
}

// OriginChecker accepts upgrades whose Origin header is in allowed. Requests
// without an Origin header are not browser initiated and pass. An empty list
// yields nil, which accepts any origin.
func OriginChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
