package identity

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"trivia-quiz-service/internal/domain"
)

const (
	DefaultGuestCookie   = "guestId"
	DefaultSessionCookie = "session"
	guestCookieMaxAge    = 365 * 24 * time.Hour
)

// SessionLookup resolves a session token. The auth service implements it.
type SessionLookup interface {
	Lookup(ctx context.Context, token string) (domain.Session, bool, error)
}

// Config controls cookie names and attributes.
type Config struct {
	GuestCookie   string
	SessionCookie string
	SecureCookies bool
	// TrustProxy makes ClientIP honor X-Forwarded-For and X-Real-IP.
	TrustProxy bool
	// SkipGuestPaths never receive a guest cookie.
	SkipGuestPaths []string
}

func (c Config) withDefaults() Config {
	if c.GuestCookie == "" {
		c.GuestCookie = DefaultGuestCookie
	}
	if c.SessionCookie == "" {
		c.SessionCookie = DefaultSessionCookie
	}
	return c
}

// Caller is what the resolver learned about the request.
type Caller struct {
	Identity domain.Identity
	// Session is set when a valid session token was presented.
	Session *domain.Session
	IP      string
}

type contextKey struct{}

// FromContext returns the caller stored by Middleware. Requests that bypassed
// it resolve to an anonymous caller.
func FromContext(ctx context.Context) Caller {
	c, _ := ctx.Value(contextKey{}).(Caller)
	return c
}

// WithCaller stores c on ctx.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// Resolver derives the caller identity from cookies and session tokens.
type Resolver struct {
	cfg      Config
	sessions SessionLookup
	logger   *zap.Logger
}

func NewResolver(cfg Config, sessions SessionLookup, logger *zap.Logger) *Resolver {
	return &Resolver{cfg: cfg.withDefaults(), sessions: sessions, logger: logger}
}

// Config returns the effective configuration.
func (r *Resolver) Config() Config {
	return r.cfg
}

// Resolve reads the guest cookie and session token. A session lookup failure
// is logged and the request continues without a user.
func (r *Resolver) Resolve(req *http.Request) Caller {
	caller := Caller{IP: ClientIP(req, r.cfg.TrustProxy)}

	if c, err := req.Cookie(r.cfg.GuestCookie); err == nil {
		caller.Identity.GuestID = strings.TrimSpace(c.Value)
	}

	token := r.SessionToken(req)
	if token == "" || r.sessions == nil {
		return caller
	}
	session, ok, err := r.sessions.Lookup(req.Context(), token)
	if err != nil {
		r.logger.Warn("session lookup failed", zap.Error(err))
		return caller
	}
	if ok {
		caller.Identity.UserID = session.User.ID
		caller.Session = &session
	}
	return caller
}

// SessionToken extracts the session token from the Authorization header or
// the session cookie.
func (r *Resolver) SessionToken(req *http.Request) string {
	if h := req.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if c, err := req.Cookie(r.cfg.SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// Middleware resolves the caller onto the request context and issues a guest
// cookie to browsers that lack one. The new cookie only rides on the response.
func (r *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		caller := r.Resolve(req)
		if caller.Identity.GuestID == "" && !r.skipGuest(req.URL.Path) {
			http.SetCookie(w, r.NewGuestCookie(uuid.NewString()))
		}
		next.ServeHTTP(w, req.WithContext(WithCaller(req.Context(), caller)))
	})
}

// NewGuestCookie builds the long-lived guest identity cookie.
func (r *Resolver) NewGuestCookie(guestID string) *http.Cookie {
	return &http.Cookie{
		Name:     r.cfg.GuestCookie,
		Value:    guestID,
		Path:     "/",
		MaxAge:   int(guestCookieMaxAge / time.Second),
		Expires:  time.Now().Add(guestCookieMaxAge),
		HttpOnly: true,
		Secure:   r.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

// SessionCookie builds the cookie carrying a session token until expiresAt.
func (r *Resolver) SessionCookie(token string, expiresAt time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     r.cfg.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt) / time.Second),
		HttpOnly: true,
		Secure:   r.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearSessionCookie expires the session cookie.
func (r *Resolver) ClearSessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     r.cfg.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

func (r *Resolver) skipGuest(path string) bool {
	for _, p := range r.cfg.SkipGuestPaths {
		if path == p {
			return true
		}
	}
	return false
}

// ClientIP returns the caller address. Forwarding headers are honored only
// when trustProxy is set; the first X-Forwarded-For hop wins.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
