package http

import (
	"io"
	"net/http"

	"go.uber.org/zap"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/identity"
	"trivia-quiz-service/internal/metrics"
)

const maxBodyBytes = 64 << 10

type LeaderboardHandler struct {
	service *app.LeaderboardService
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewLeaderboardHandler(service *app.LeaderboardService, m *metrics.Metrics, logger *zap.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{service: service, metrics: m, logger: logger}
}

type leaderboardResponse struct {
	Leaderboard []domain.LeaderboardEntry `json:"leaderboard"`
}

// List handles GET /leaderboard.
func (h *LeaderboardHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := app.ParseLeaderboardQuery(r.URL.Query())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	entries, err := h.service.Leaderboard(r.Context(), q)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, leaderboardResponse{Leaderboard: entries})
}

// Submit handles POST /leaderboard. Only browsers holding a guest cookie may
// submit; a signed-in user's id is stored alongside it.
func (h *LeaderboardHandler) Submit(w http.ResponseWriter, r *http.Request) {
	caller := identity.FromContext(r.Context())
	if caller.Identity.GuestID == "" {
		h.metrics.IncSubmission(metrics.OutcomeRejected)
		writeError(w, h.logger, domain.ErrUnauthorized)
		return
	}

	body, err := readBody(w, r)
	if err != nil {
		h.metrics.IncSubmission(metrics.OutcomeRejected)
		writeError(w, h.logger, err)
		return
	}
	sub, err := app.ParseSubmission(body)
	if err != nil {
		h.metrics.IncSubmission(metrics.OutcomeRejected)
		writeError(w, h.logger, err)
		return
	}

	meta := domain.RequestMeta{IP: caller.IP, UserAgent: r.UserAgent()}
	if caller.Session != nil {
		meta.ProfileName = caller.Session.User.Name
	}
	res, err := h.service.Submit(r.Context(), caller.Identity, sub, meta)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if res.Recorded {
		h.metrics.IncSubmission(metrics.OutcomeAccepted)
	} else {
		h.metrics.IncSubmission(metrics.OutcomeIgnored)
	}
	writeOK(w)
}

// Rename handles POST /leaderboard/name.
func (h *LeaderboardHandler) Rename(w http.ResponseWriter, r *http.Request) {
	caller := identity.FromContext(r.Context())
	if caller.Identity.IsZero() {
		writeError(w, h.logger, domain.ErrUnauthorized)
		return
	}

	body, err := readBody(w, r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	name, err := app.ParseDisplayName(body)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	updated, err := h.service.Rename(r.Context(), caller.Identity, name)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.logger.Debug("display name updated", zap.Int64("rows", updated))
	writeOK(w)
}

// readBody reads a bounded request body. Oversized bodies are a validation
// problem, not a server failure.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		verr := &domain.ValidationError{}
		verr.Add("body", "must be at most 65536 bytes")
		return nil, verr
	}
	return body, nil
}
