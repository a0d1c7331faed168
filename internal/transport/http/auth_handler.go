package http

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"trivia-quiz-service/internal/auth"
	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/identity"
)

const (
	stateCookie    = "oauth_state"
	stateCookieTTL = 10 * time.Minute
)

type AuthHandler struct {
	auth          *auth.Service
	resolver      *identity.Resolver
	afterLoginURL string
	logger        *zap.Logger
}

func NewAuthHandler(svc *auth.Service, resolver *identity.Resolver, afterLoginURL string, logger *zap.Logger) *AuthHandler {
	if afterLoginURL == "" {
		afterLoginURL = "/"
	}
	return &AuthHandler{auth: svc, resolver: resolver, afterLoginURL: afterLoginURL, logger: logger}
}

// Login handles GET /auth/login by redirecting to the provider.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state, redirectURL, err := h.auth.Begin()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/auth",
		MaxAge:   int(stateCookieTTL / time.Second),
		HttpOnly: true,
		Secure:   h.resolver.Config().SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, redirectURL, http.StatusFound)
}

// Callback handles GET /auth/callback from the provider.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if providerErr := query.Get("error"); providerErr != "" {
		h.logger.Info("sign-in declined", zap.String("error", providerErr))
		writeError(w, h.logger, domain.ErrUnauthorized)
		return
	}

	var expected string
	if c, err := r.Cookie(stateCookie); err == nil {
		expected = c.Value
	}
	if err := auth.CheckState(expected, query.Get("state")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/auth", MaxAge: -1, HttpOnly: true})

	caller := identity.FromContext(r.Context())
	session, err := h.auth.Complete(r.Context(), query.Get("code"), caller.Identity.GuestID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	http.SetCookie(w, h.resolver.SessionCookie(session.Token, session.ExpiresAt))
	http.Redirect(w, r, h.afterLoginURL, http.StatusFound)
}

type sessionResponse struct {
	User *domain.User `json:"user"`
}

// Session handles GET /auth/session.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	caller := identity.FromContext(r.Context())
	if caller.Session == nil {
		writeJSON(w, http.StatusOK, sessionResponse{})
		return
	}
	user := caller.Session.User
	writeJSON(w, http.StatusOK, sessionResponse{User: &user})
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), h.resolver.SessionToken(r)); err != nil {
		writeError(w, h.logger, err)
		return
	}
	http.SetCookie(w, h.resolver.ClearSessionCookie())
	writeOK(w)
}
