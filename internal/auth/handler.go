package auth

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// Handler serves the /api/auth endpoints.
type Handler struct {
	providers Providers
	sessions  *Manager
	tokens    *Tokens
	baseURL   *url.URL
	log       *slog.Logger
}

// NewHandler creates the sign-in handler. baseURL is the public origin of the app.
func NewHandler(providers Providers, sessions *Manager, tokens *Tokens, baseURL *url.URL, log *slog.Logger) *Handler {
	return &Handler{providers: providers, sessions: sessions, tokens: tokens, baseURL: baseURL, log: log}
}

// CallbackURL is the redirect URL registered with a provider.
func CallbackURL(baseURL *url.URL, providerID string) string {
	return baseURL.JoinPath("/api/auth/callback", providerID).String()
}

// Routes mounts the auth endpoints on a chi router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/signin/{provider}", h.SignIn)
	r.Post("/signin/{provider}", h.SignIn)
	r.Get("/callback/{provider}", h.Callback)
	r.Post("/signout", h.SignOut)
	r.Get("/session", h.Session)
	return r
}

// SignIn redirects the browser to the provider's consent screen.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	p, err := h.providers.Get(chi.URLParam(r, "provider"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	callback := r.URL.Query().Get("callbackUrl")
	if callback == "" {
		callback = "/"
	}
	if !h.allowedCallback(callback) {
		writeError(w, http.StatusBadRequest, "callbackUrl not allowed")
		return
	}

	flow := signInFlow{
		State:       uuid.NewString(),
		Verifier:    oauth2.GenerateVerifier(),
		CallbackURL: callback,
	}
	signed, err := h.tokens.issueFlow(flow)
	if err != nil {
		h.log.Error("issue sign-in state", "error", err)
		writeError(w, http.StatusInternalServerError, "sign-in failed")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     signInCookie,
		Value:    signed,
		Path:     "/api/auth",
		MaxAge:   int(signInTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.sessions.secure,
		SameSite: http.SameSiteLaxMode,
	})

	target := p.OAuth.AuthCodeURL(flow.State, oauth2.S256ChallengeOption(flow.Verifier))
	http.Redirect(w, r, target, http.StatusFound)
}

// Callback completes the authorization code exchange and starts a session.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	p, err := h.providers.Get(chi.URLParam(r, "provider"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	c, err := r.Cookie(signInCookie)
	if err != nil {
		writeError(w, http.StatusBadRequest, "sign-in state missing")
		return
	}
	h.sessions.clear(w, signInCookie)
	flow, err := h.tokens.parseFlow(c.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, "sign-in state invalid")
		return
	}

	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		h.log.Info("provider declined sign-in", "provider", p.ID, "error", e)
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	if q.Get("state") != flow.State {
		writeError(w, http.StatusBadRequest, "state mismatch")
		return
	}

	tok, err := p.OAuth.Exchange(r.Context(), q.Get("code"), oauth2.VerifierOption(flow.Verifier))
	if err != nil {
		h.log.Error("code exchange failed", "provider", p.ID, "error", err)
		writeError(w, http.StatusBadGateway, "code exchange failed")
		return
	}
	user, err := p.FetchUser(r.Context(), tok)
	if err != nil {
		h.log.Error("fetch user failed", "provider", p.ID, "error", err)
		writeError(w, http.StatusBadGateway, "profile lookup failed")
		return
	}

	signed, session, err := h.tokens.IssueSession(user)
	if err != nil {
		h.log.Error("issue session", "error", err)
		writeError(w, http.StatusInternalServerError, "sign-in failed")
		return
	}
	h.sessions.SetSessionCookie(w, signed, session.Expires)
	h.log.Info("signed in", "provider", p.ID, "user_id", user.ID)

	target := flow.CallbackURL
	if !h.sameOrigin(target) && isLoopback(target) {
		u, _ := url.Parse(target)
		v := u.Query()
		v.Set("token", signed)
		u.RawQuery = v.Encode()
		target = u.String()
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// SignOut ends the session.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.sessions.ClearSessionCookie(w)
	if r.Header.Get("Accept") == "application/json" {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Session returns the current session as JSON, or null.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.sessions.FromRequest(r))
}

// allowedCallback accepts same-origin paths, the app origin and loopback URLs.
func (h *Handler) allowedCallback(raw string) bool {
	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") && !strings.HasPrefix(raw, "/\\") {
		return true
	}
	return h.sameOrigin(raw) || isLoopback(raw)
}

func (h *Handler) sameOrigin(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme == h.baseURL.Scheme && u.Host == h.baseURL.Host
}

func isLoopback(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "http" || u.Port() == "" {
		return false
	}
	if u.Hostname() == "localhost" {
		return true
	}
	ip := net.ParseIP(u.Hostname())
	return ip != nil && ip.IsLoopback()
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
