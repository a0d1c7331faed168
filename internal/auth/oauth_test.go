package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trivia-quiz-service/internal/auth"
	"trivia-quiz-service/internal/domain"
)

func newIDP(t *testing.T, userinfoStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("code") != "good" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-1","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if userinfoStatus != http.StatusOK {
			w.WriteHeader(userinfoStatus)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"sub":     "subject-1",
			"name":    "Alice",
			"email":   "alice@example.com",
			"picture": "https://img.test/a.png",
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newProvider(srv *httptest.Server) *auth.OAuthProvider {
	return auth.NewOAuthProvider(auth.OAuthConfig{
		Name:        "test",
		ClientID:    "client",
		RedirectURL: "http://app.test/auth/callback",
		AuthURL:     srv.URL + "/authorize",
		TokenURL:    srv.URL + "/token",
		UserInfoURL: srv.URL + "/userinfo",
	}, srv.Client())
}

func TestOAuthProviderExchange(t *testing.T) {
	p := newProvider(newIDP(t, http.StatusOK))

	profile, err := p.Exchange(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, domain.Profile{
		Provider: "test",
		Subject:  "subject-1",
		Name:     "Alice",
		Email:    "alice@example.com",
		Image:    "https://img.test/a.png",
	}, profile)
}

func TestOAuthProviderFailures(t *testing.T) {
	p := newProvider(newIDP(t, http.StatusOK))
	_, err := p.Exchange(context.Background(), "bad")
	assert.ErrorIs(t, err, domain.ErrUpstream)

	p = newProvider(newIDP(t, http.StatusInternalServerError))
	_, err = p.Exchange(context.Background(), "good")
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestOAuthProviderAuthCodeURL(t *testing.T) {
	p := newProvider(newIDP(t, http.StatusOK))
	u := p.AuthCodeURL("st8")
	assert.Contains(t, u, "state=st8")
	assert.Contains(t, u, "client_id=client")
}
