package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"trivia-quiz-service/internal/auth"
	"trivia-quiz-service/internal/domain"
)

var _ auth.UserRepository = (*UserRepository)(nil)

// UserRepository keeps accounts keyed by provider and subject.
type UserRepository struct {
	mu    sync.Mutex
	users map[string]domain.User
	clock func() time.Time
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		users: make(map[string]domain.User),
		clock: time.Now,
	}
}

func (r *UserRepository) Upsert(_ context.Context, p domain.Profile) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := p.Provider + "|" + p.Subject
	user, ok := r.users[key]
	if !ok {
		user = domain.User{ID: uuid.NewString(), CreatedAt: r.clock()}
	}
	user.Name = p.Name
	user.Email = p.Email
	user.Image = p.Image
	r.users[key] = user
	return user, nil
}
