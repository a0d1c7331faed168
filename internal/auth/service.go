package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"trivia-quiz-service/internal/domain"
)

// ErrNotConfigured is returned by sign-in operations when no OAuth provider is set up.
var ErrNotConfigured = errors.New("oauth provider not configured")

// Provider is the OAuth identity provider the service signs people in with.
type Provider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (domain.Profile, error)
}

// UserRepository persists accounts created at first sign-in.
type UserRepository interface {
	Upsert(ctx context.Context, p domain.Profile) (domain.User, error)
}

// SessionStore persists sessions by token.
type SessionStore interface {
	Save(ctx context.Context, session domain.Session) error
	Get(ctx context.Context, token string) (domain.Session, bool, error)
	Delete(ctx context.Context, token string) error
}

// GuestClaimer attaches a guest's anonymous scores to a user after sign-in.
type GuestClaimer interface {
	ClaimGuestScores(ctx context.Context, guestID, userID string) (int64, error)
}

// Config holds configuration for the auth service
type Config struct {
	SessionTTL time.Duration
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		SessionTTL: 30 * 24 * time.Hour,
	}
}

// Service handles OAuth sign-in and session management.
type Service struct {
	provider Provider
	users    UserRepository
	sessions SessionStore
	claimer  GuestClaimer
	logger   *zap.Logger
	ttl      time.Duration
	now      func() time.Time
}

// New creates the auth service. provider may be nil, in which case sign-in is
// disabled but existing sessions still resolve.
func New(provider Provider, users UserRepository, sessions SessionStore, claimer GuestClaimer, cfg Config, logger *zap.Logger) *Service {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultConfig().SessionTTL
	}
	return &Service{
		provider: provider,
		users:    users,
		sessions: sessions,
		claimer:  claimer,
		logger:   logger,
		ttl:      cfg.SessionTTL,
		now:      time.Now,
	}
}

// WithClock swaps the time source; tests only.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Enabled reports whether sign-in is available.
func (s *Service) Enabled() bool {
	return s.provider != nil
}

// Begin starts a sign-in, returning the state to remember and the provider URL
// to redirect to.
func (s *Service) Begin() (state, redirectURL string, err error) {
	if s.provider == nil {
		return "", "", ErrNotConfigured
	}
	state = generateToken()
	return state, s.provider.AuthCodeURL(state), nil
}

// Complete exchanges the authorization code, creates the account if needed
// and opens a session. When guestID is set the guest's scores are claimed;
// a failed claim is logged and does not fail the sign-in.
func (s *Service) Complete(ctx context.Context, code, guestID string) (domain.Session, error) {
	if s.provider == nil {
		return domain.Session{}, ErrNotConfigured
	}

	profile, err := s.provider.Exchange(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrUpstream) {
			return domain.Session{}, err
		}
		return domain.Session{}, fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}

	user, err := s.users.Upsert(ctx, profile)
	if err != nil {
		return domain.Session{}, fmt.Errorf("upsert user: %w: %w", domain.ErrInternal, err)
	}

	now := s.now().UTC()
	session := domain.Session{
		Token:     generateToken(),
		User:      user,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return domain.Session{}, fmt.Errorf("save session: %w: %w", domain.ErrInternal, err)
	}

	if guestID != "" && s.claimer != nil {
		claimed, err := s.claimer.ClaimGuestScores(ctx, guestID, user.ID)
		if err != nil {
			s.logger.Warn("claim guest scores failed", zap.String("user_id", user.ID), zap.Error(err))
		} else if claimed > 0 {
			s.logger.Info("claimed guest scores", zap.String("user_id", user.ID), zap.Int64("rows", claimed))
		}
	}
	return session, nil
}

// Lookup resolves a session token. Unknown and expired tokens report false;
// expired sessions are removed.
func (s *Service) Lookup(ctx context.Context, token string) (domain.Session, bool, error) {
	if token == "" {
		return domain.Session{}, false, nil
	}
	session, ok, err := s.sessions.Get(ctx, token)
	if err != nil {
		return domain.Session{}, false, fmt.Errorf("get session: %w: %w", domain.ErrInternal, err)
	}
	if !ok {
		return domain.Session{}, false, nil
	}
	if session.Expired(s.now()) {
		if err := s.sessions.Delete(ctx, token); err != nil {
			s.logger.Warn("delete expired session failed", zap.Error(err))
		}
		return domain.Session{}, false, nil
	}
	return session, true, nil
}

// Logout removes the session.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w: %w", domain.ErrInternal, err)
	}
	return nil
}

// CheckState compares the state remembered at Begin with the one the provider
// sent back.
func CheckState(expected, got string) error {
	if expected == "" || got == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(got)) != 1 {
		return domain.ErrInvalidState
	}
	return nil
}

func generateToken() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
