package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"trivia-quiz-service/internal/auth"
	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/infra/memory"
)

type fakeProvider struct {
	profile domain.Profile
	err     error
}

func (p *fakeProvider) AuthCodeURL(state string) string {
	return "https://idp.test/authorize?state=" + state
}

func (p *fakeProvider) Exchange(_ context.Context, code string) (domain.Profile, error) {
	if p.err != nil {
		return domain.Profile{}, p.err
	}
	return p.profile, nil
}

type recordingClaimer struct {
	guestID, userID string
	err             error
}

func (c *recordingClaimer) ClaimGuestScores(_ context.Context, guestID, userID string) (int64, error) {
	c.guestID, c.userID = guestID, userID
	return 1, c.err
}

func newService(p auth.Provider, claimer auth.GuestClaimer) (*auth.Service, *memory.SessionStore) {
	sessions := memory.NewSessionStore()
	svc := auth.New(p, memory.NewUserRepository(), sessions, claimer, auth.DefaultConfig(), zap.NewNop())
	return svc, sessions
}

func TestCompleteCreatesSessionAndClaimsGuest(t *testing.T) {
	ctx := context.Background()
	claimer := &recordingClaimer{}
	svc, _ := newService(&fakeProvider{profile: domain.Profile{Provider: "google", Subject: "s1", Name: "Alice"}}, claimer)

	state, url, err := svc.Begin()
	require.NoError(t, err)
	assert.NotEmpty(t, state)
	assert.Contains(t, url, state)

	session, err := svc.Complete(ctx, "code", "guest-1")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "Alice", session.User.Name)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), session.ExpiresAt, time.Minute)

	assert.Equal(t, "guest-1", claimer.guestID)
	assert.Equal(t, session.User.ID, claimer.userID)

	found, ok, err := svc.Lookup(ctx, session.Token)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, session.User.ID, found.User.ID)
}

func TestCompleteSurvivesClaimFailure(t *testing.T) {
	claimer := &recordingClaimer{err: errors.New("db down")}
	svc, _ := newService(&fakeProvider{profile: domain.Profile{Provider: "google", Subject: "s1"}}, claimer)

	_, err := svc.Complete(context.Background(), "code", "guest-1")
	assert.NoError(t, err)
}

func TestCompleteWrapsProviderErrors(t *testing.T) {
	svc, _ := newService(&fakeProvider{err: errors.New("bad code")}, nil)

	_, err := svc.Complete(context.Background(), "code", "")
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestDisabledProvider(t *testing.T) {
	svc, _ := newService(nil, nil)
	assert.False(t, svc.Enabled())

	_, _, err := svc.Begin()
	assert.ErrorIs(t, err, auth.ErrNotConfigured)
}

func TestLookupDropsExpiredSessions(t *testing.T) {
	ctx := context.Background()
	svc, sessions := newService(nil, nil)

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	svc.WithClock(func() time.Time { return now })

	require.NoError(t, sessions.Save(ctx, domain.Session{Token: "old", ExpiresAt: now}))
	_, ok, err := svc.Lookup(ctx, "old")
	require.NoError(t, err)
	assert.False(t, ok)

	_, stillThere, _ := sessions.Get(ctx, "old")
	assert.False(t, stillThere)

	_, ok, err = svc.Lookup(ctx, "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	svc, sessions := newService(nil, nil)
	require.NoError(t, sessions.Save(ctx, domain.Session{Token: "t", ExpiresAt: time.Now().Add(time.Hour)}))

	require.NoError(t, svc.Logout(ctx, "t"))
	_, ok, _ := sessions.Get(ctx, "t")
	assert.False(t, ok)
}

func TestCheckState(t *testing.T) {
	assert.NoError(t, auth.CheckState("abc", "abc"))
	assert.ErrorIs(t, auth.CheckState("abc", "abd"), domain.ErrInvalidState)
	assert.ErrorIs(t, auth.CheckState("", ""), domain.ErrInvalidState)
}
