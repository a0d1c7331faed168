package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
)

var _ app.ScoreRepository = (*ScoreRepository)(nil)

type scoreModel struct {
	bun.BaseModel `bun:"table:scores,alias:s"`

	ID          string    `bun:"id,pk,type:uuid"`
	GuestID     string    `bun:"guest_id,nullzero"`
	UserID      string    `bun:"user_id,type:uuid,nullzero"`
	Points      int       `bun:"points,notnull"`
	Category    string    `bun:"category,nullzero"`
	Difficulty  string    `bun:"difficulty,nullzero"`
	DisplayName string    `bun:"display_name,nullzero"`
	IPHash      string    `bun:"ip_hash,nullzero"`
	UserAgent   string    `bun:"user_agent,nullzero"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
}

func (m scoreModel) toDomain() domain.Score {
	return domain.Score{
		ID:          m.ID,
		GuestID:     m.GuestID,
		UserID:      m.UserID,
		Points:      m.Points,
		Category:    m.Category,
		Difficulty:  domain.Difficulty(m.Difficulty),
		DisplayName: m.DisplayName,
		IPHash:      m.IPHash,
		UserAgent:   m.UserAgent,
		CreatedAt:   m.CreatedAt,
	}
}

func fromDomain(s domain.Score) scoreModel {
	return scoreModel{
		ID:          s.ID,
		GuestID:     s.GuestID,
		UserID:      s.UserID,
		Points:      s.Points,
		Category:    s.Category,
		Difficulty:  string(s.Difficulty),
		DisplayName: s.DisplayName,
		IPHash:      s.IPHash,
		UserAgent:   s.UserAgent,
		CreatedAt:   s.CreatedAt,
	}
}

// ScoreRepository stores score rows in Postgres through bun.
type ScoreRepository struct {
	db *bun.DB
}

func NewScoreRepository(db *bun.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

const rankOrder = "s.points DESC, s.created_at ASC, s.id ASC"

func (r *ScoreRepository) BestScore(ctx context.Context, id domain.Identity, category string, difficulty domain.Difficulty) (domain.Score, bool, error) {
	cond, args := ownedBy(id)
	var m scoreModel
	q := r.db.NewSelect().Model(&m).Where(cond, args...)
	q = optionalEquals(q, "s.category", category)
	q = optionalEquals(q, "s.difficulty", string(difficulty))
	err := q.OrderExpr(rankOrder).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Score{}, false, nil
	}
	if err != nil {
		return domain.Score{}, false, err
	}
	return m.toDomain(), true, nil
}

func (r *ScoreRepository) Insert(ctx context.Context, score domain.Score) error {
	m := fromDomain(score)
	_, err := r.db.NewInsert().Model(&m).Exec(ctx)
	return err
}

func (r *ScoreRepository) Top(ctx context.Context, q domain.LeaderboardQuery) ([]domain.Score, error) {
	var rows []scoreModel
	sel := r.db.NewSelect().Model(&rows)
	if q.Category != "" {
		sel = sel.Where("s.category = ?", q.Category)
	}
	if q.Difficulty != "" {
		sel = sel.Where("s.difficulty = ?", string(q.Difficulty))
	}
	sel = sel.OrderExpr(rankOrder)
	if q.Limit > 0 {
		sel = sel.Limit(q.Limit)
	}
	if err := sel.Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]domain.Score, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toDomain())
	}
	return out, nil
}

func (r *ScoreRepository) LatestDisplayName(ctx context.Context, id domain.Identity) (string, error) {
	cond, args := ownedBy(id)
	var name string
	err := r.db.NewSelect().
		Model((*scoreModel)(nil)).
		Column("display_name").
		Where(cond, args...).
		Where("s.display_name IS NOT NULL").
		OrderExpr("s.created_at DESC").
		Limit(1).
		Scan(ctx, &name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return name, err
}

func (r *ScoreRepository) SetDisplayName(ctx context.Context, id domain.Identity, name string) (int64, error) {
	var value any
	if name != "" {
		value = name
	}
	cond, args := ownedBy(id)
	res, err := r.db.NewUpdate().
		Model((*scoreModel)(nil)).
		Set("display_name = ?", value).
		Where(cond, args...).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *ScoreRepository) ClaimGuest(ctx context.Context, guestID, userID string) (int64, error) {
	res, err := r.db.NewUpdate().
		Model((*scoreModel)(nil)).
		Set("user_id = ?", userID).
		Where("s.guest_id = ?", guestID).
		Where("s.user_id IS NULL").
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ownedBy matches rows on any identifier present in id. A zero identity
// matches nothing.
func ownedBy(id domain.Identity) (string, []any) {
	var (
		parts []string
		args  []any
	)
	if id.GuestID != "" {
		parts = append(parts, "s.guest_id = ?")
		args = append(args, id.GuestID)
	}
	if id.UserID != "" {
		parts = append(parts, "s.user_id = ?")
		args = append(args, id.UserID)
	}
	if len(parts) == 0 {
		return "FALSE", nil
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}

// optionalEquals treats "" as SQL NULL so absent tuples only match absent rows.
func optionalEquals(q *bun.SelectQuery, column, value string) *bun.SelectQuery {
	if value == "" {
		return q.Where("? IS NULL", bun.Ident(column))
	}
	return q.Where("? = ?", bun.Ident(column), value)
}
