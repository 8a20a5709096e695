package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/devaloi/guestbook/internal/domain"
)

// Cookie names.
const (
	SessionCookie = "guestbook.session-token"
	signInCookie  = "guestbook.signin"
)

type contextKey string

const sessionKey contextKey = "session"

// WithSession returns a context carrying s.
func WithSession(ctx context.Context, s *domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionFrom returns the session carried by ctx, or nil.
func SessionFrom(ctx context.Context) *domain.Session {
	s, _ := ctx.Value(sessionKey).(*domain.Session)
	return s
}

// Manager resolves sessions from requests and writes session cookies.
type Manager struct {
	tokens *Tokens
	secure bool
	log    *slog.Logger
}

// NewManager creates a session manager. Cookies are marked Secure when secure is set.
func NewManager(tokens *Tokens, secure bool, log *slog.Logger) *Manager {
	return &Manager{tokens: tokens, secure: secure, log: log}
}

// FromRequest resolves the session from the session cookie or a bearer token.
// A missing or invalid token yields a nil session.
func (m *Manager) FromRequest(r *http.Request) *domain.Session {
	token := bearerToken(r)
	if token == "" {
		if c, err := r.Cookie(SessionCookie); err == nil {
			token = c.Value
		}
	}
	if token == "" {
		return nil
	}
	s, err := m.tokens.ParseSession(token)
	if err != nil {
		m.log.Debug("ignoring session token", "error", err)
		return nil
	}
	return s
}

// Middleware puts the request's session, if any, into the request context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s := m.FromRequest(r); s != nil {
			r = r.WithContext(WithSession(r.Context(), s))
		}
		next.ServeHTTP(w, r)
	})
}

// SetSessionCookie writes the session token cookie.
func (m *Manager) SetSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session token cookie.
func (m *Manager) ClearSessionCookie(w http.ResponseWriter) {
	m.clear(w, SessionCookie)
}

func (m *Manager) clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
