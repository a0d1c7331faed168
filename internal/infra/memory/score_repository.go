package memory

import (
	"context"
	"sort"
	"sync"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
)

var _ app.ScoreRepository = (*ScoreRepository)(nil)

// ScoreRepository is an in-memory implementation of app.ScoreRepository.
// Rows are kept in insertion order, which also breaks ordering ties.
type ScoreRepository struct {
	mu   sync.RWMutex
	rows []domain.Score
}

func NewScoreRepository() *ScoreRepository {
	return &ScoreRepository{}
}

func (r *ScoreRepository) BestScore(_ context.Context, id domain.Identity, category string, difficulty domain.Difficulty) (domain.Score, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best domain.Score
	found := false
	for _, row := range r.rows {
		if !id.Owns(row.GuestID, row.UserID) || row.Category != category || row.Difficulty != difficulty {
			continue
		}
		if !found || ranksBefore(row, best) {
			best = row
			found = true
		}
	}
	return best, found, nil
}

func (r *ScoreRepository) Insert(_ context.Context, score domain.Score) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, score)
	return nil
}

func (r *ScoreRepository) Top(_ context.Context, q domain.LeaderboardQuery) ([]domain.Score, error) {
	r.mu.RLock()
	matched := make([]domain.Score, 0, len(r.rows))
	for _, row := range r.rows {
		if q.Matches(row.Category, row.Difficulty) {
			matched = append(matched, row)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return ranksBefore(matched[i], matched[j])
	})
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

func (r *ScoreRepository) LatestDisplayName(_ context.Context, id domain.Identity) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		name   string
		latest domain.Score
	)
	for _, row := range r.rows {
		if row.DisplayName == "" || !id.Owns(row.GuestID, row.UserID) {
			continue
		}
		if name == "" || !row.CreatedAt.Before(latest.CreatedAt) {
			name = row.DisplayName
			latest = row
		}
	}
	return name, nil
}

func (r *ScoreRepository) SetDisplayName(_ context.Context, id domain.Identity, name string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for i := range r.rows {
		if id.Owns(r.rows[i].GuestID, r.rows[i].UserID) {
			r.rows[i].DisplayName = name
			n++
		}
	}
	return n, nil
}

func (r *ScoreRepository) ClaimGuest(_ context.Context, guestID, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for i := range r.rows {
		if r.rows[i].GuestID == guestID && r.rows[i].UserID == "" {
			r.rows[i].UserID = userID
			n++
		}
	}
	return n, nil
}

// All returns a copy of every stored row in insertion order.
func (r *ScoreRepository) All() []domain.Score {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Score, len(r.rows))
	copy(out, r.rows)
	return out
}

// ranksBefore orders by points descending, then earliest submission.
func ranksBefore(a, b domain.Score) bool {
	if a.Points != b.Points {
		return a.Points > b.Points
	}
	return a.CreatedAt.Before(b.CreatedAt)
}
