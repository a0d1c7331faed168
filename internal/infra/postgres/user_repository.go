package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"

	"trivia-quiz-service/internal/auth"
	"trivia-quiz-service/internal/domain"
)

var _ auth.UserRepository = (*UserRepository)(nil)

// UserRepository stores OAuth accounts, one per provider and subject.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const upsertUserSQL = `
INSERT INTO users (id, provider, subject, name, email, image, created_at, updated_at)
VALUES ($1::uuid, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), now(), now())
ON CONFLICT (provider, subject) DO UPDATE
SET name = EXCLUDED.name, email = EXCLUDED.email, image = EXCLUDED.image, updated_at = now()
RETURNING id::text, COALESCE(name, ''), COALESCE(email, ''), COALESCE(image, ''), created_at`

func (r *UserRepository) Upsert(ctx context.Context, p domain.Profile) (domain.User, error) {
	var u domain.User
	err := r.pool.QueryRow(ctx, upsertUserSQL, uuid.NewString(), p.Provider, p.Subject, p.Name, p.Email, p.Image).
		Scan(&u.ID, &u.Name, &u.Email, &u.Image, &u.CreatedAt)
	if err != nil {
		return domain.User{}, fmt.Errorf("upsert user: %w", err)
	}
	return u, nil
}
