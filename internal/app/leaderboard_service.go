package app

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"trivia-quiz-service/internal/domain"
)

// ScoreRepository abstracts where score rows live (in-memory, Postgres).
// Identity arguments match rows on any present identifier.
type ScoreRepository interface {
	// BestScore returns the highest-points row for the exact category and
	// difficulty (empty meaning absent), earliest first on ties.
	BestScore(ctx context.Context, id domain.Identity, category string, difficulty domain.Difficulty) (domain.Score, bool, error)
	Insert(ctx context.Context, score domain.Score) error
	Top(ctx context.Context, q domain.LeaderboardQuery) ([]domain.Score, error)
	// LatestDisplayName returns the most recently stored non-empty name, or "".
	LatestDisplayName(ctx context.Context, id domain.Identity) (string, error)
	SetDisplayName(ctx context.Context, id domain.Identity, name string) (int64, error)
	ClaimGuest(ctx context.Context, guestID, userID string) (int64, error)
}

// Publisher receives accepted submissions.
type Publisher interface {
	Publish(ev domain.ScoreEvent)
}

// SubmitResult reports what a submission did.
type SubmitResult struct {
	// Recorded is true when a new row was inserted.
	Recorded bool
	// Best is the caller's best row for the tuple after the submission.
	Best domain.Score
}

// LeaderboardService contains the leaderboard use cases.
type LeaderboardService struct {
	scores ScoreRepository
	hasher *IPHasher
	feed   Publisher
	now    func() time.Time
	newID  func() string
}

func NewLeaderboardService(scores ScoreRepository, hasher *IPHasher, feed Publisher) *LeaderboardService {
	return NewLeaderboardServiceWithClock(scores, hasher, feed, time.Now)
}

// NewLeaderboardServiceWithClock is used by tests for deterministic timestamps.
func NewLeaderboardServiceWithClock(scores ScoreRepository, hasher *IPHasher, feed Publisher, now func() time.Time) *LeaderboardService {
	return &LeaderboardService{
		scores: scores,
		hasher: hasher,
		feed:   feed,
		now:    now,
		newID:  uuid.NewString,
	}
}

// Submit stores sub when it beats the caller's best for the same category and
// difficulty. Older rows are never touched; the read path picks the winner.
func (s *LeaderboardService) Submit(ctx context.Context, id domain.Identity, sub domain.ScoreSubmission, meta domain.RequestMeta) (SubmitResult, error) {
	if id.IsZero() {
		return SubmitResult{}, domain.ErrUnauthorized
	}

	best, found, err := s.scores.BestScore(ctx, id, sub.Category, sub.Difficulty)
	if err != nil {
		return SubmitResult{}, internal("look up best score", err)
	}
	if found && sub.Points <= best.Points {
		return SubmitResult{Best: best}, nil
	}

	name, err := s.scores.LatestDisplayName(ctx, id)
	if err != nil {
		return SubmitResult{}, internal("look up display name", err)
	}
	if name == "" {
		name = profileName(meta.ProfileName)
	}

	score := domain.Score{
		ID:          s.newID(),
		GuestID:     id.GuestID,
		UserID:      id.UserID,
		Points:      sub.Points,
		Category:    sub.Category,
		Difficulty:  sub.Difficulty,
		DisplayName: name,
		IPHash:      s.hasher.Hash(meta.IP),
		UserAgent:   meta.UserAgent,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.scores.Insert(ctx, score); err != nil {
		return SubmitResult{}, internal("insert score", err)
	}

	if s.feed != nil {
		s.feed.Publish(domain.ScoreEvent{
			Category:   score.Category,
			Difficulty: score.Difficulty,
			Points:     score.Points,
			CreatedAt:  score.CreatedAt,
		})
	}
	return SubmitResult{Recorded: true, Best: score}, nil
}

// Leaderboard returns the public view of the top rows for q.
func (s *LeaderboardService) Leaderboard(ctx context.Context, q domain.LeaderboardQuery) ([]domain.LeaderboardEntry, error) {
	q.Limit = normalizeLimit(q.Limit)
	rows, err := s.scores.Top(ctx, q)
	if err != nil {
		return nil, internal("query leaderboard", err)
	}
	if len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}
	entries := make([]domain.LeaderboardEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, domain.EntryFromScore(row))
	}
	return entries, nil
}

// Rename sets the display name on every row owned by id. The name is trimmed;
// a whitespace-only name clears it.
func (s *LeaderboardService) Rename(ctx context.Context, id domain.Identity, name string) (int64, error) {
	if id.IsZero() {
		return 0, domain.ErrUnauthorized
	}
	normalized, err := NormalizeDisplayName(name)
	if err != nil {
		return 0, err
	}
	n, err := s.scores.SetDisplayName(ctx, id, normalized)
	if err != nil {
		return 0, internal("update display name", err)
	}
	return n, nil
}

// ClaimGuestScores attaches userID to the guest's rows that have no user yet.
func (s *LeaderboardService) ClaimGuestScores(ctx context.Context, guestID, userID string) (int64, error) {
	if guestID == "" || userID == "" {
		return 0, nil
	}
	n, err := s.scores.ClaimGuest(ctx, guestID, userID)
	if err != nil {
		return 0, internal("claim guest scores", err)
	}
	return n, nil
}

func profileName(name string) string {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) <= MaxDisplayNameLength {
		return name
	}
	runes := []rune(name)
	return strings.TrimSpace(string(runes[:MaxDisplayNameLength]))
}

func internal(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrInternal, err)
}
