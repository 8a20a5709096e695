package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/devaloi/guestbook/internal/domain"
)

// SessionProvider is the sign-in capability the view depends on.
type SessionProvider interface {
	// Session returns the current session, or nil when signed out.
	Session(ctx context.Context) (*domain.Session, error)
	// SignIn delegates authentication to the identity provider with the given id.
	SignIn(ctx context.Context, providerID string) (*domain.Session, error)
	// SignOut ends the current session.
	SignOut(ctx context.Context) error
}

// TokenStore persists the session token between CLI invocations.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// FileTokenStore keeps the token in a file readable only by its owner.
type FileTokenStore string

// Load returns the stored token, or "" when none is stored.
func (f FileTokenStore) Load() (string, error) {
	data, err := os.ReadFile(string(f))
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// Save writes the token.
func (f FileTokenStore) Save(token string) error {
	return os.WriteFile(string(f), []byte(token), 0o600)
}

// Clear removes the token file.
func (f FileTokenStore) Clear() error {
	err := os.Remove(string(f))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// RemoteSession implements SessionProvider against a guestbook server.
// SignIn uses a loopback redirect: the server sends the browser back to a
// listener on 127.0.0.1 carrying the session token.
type RemoteSession struct {
	baseURL string
	client  *http.Client
	tokens  TokenStore
	// Open is called with the sign-in URL the user has to visit.
	Open func(signInURL string) error
}

// NewRemoteSession creates a client-side session provider.
func NewRemoteSession(baseURL string, client *http.Client, tokens TokenStore) *RemoteSession {
	return &RemoteSession{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		tokens:  tokens,
		Open: func(u string) error {
			fmt.Println("Open this URL in your browser to sign in:")
			fmt.Println(u)
			return nil
		},
	}
}

// Token returns the stored session token.
func (s *RemoteSession) Token() (string, error) {
	return s.tokens.Load()
}

// Session asks the server which session the stored token belongs to.
func (s *RemoteSession) Session(ctx context.Context) (*domain.Session, error) {
	token, err := s.tokens.Load()
	if err != nil || token == "" {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/auth/session", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("session: status %d", resp.StatusCode)
	}
	var session *domain.Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, err
	}
	return session, nil
}

// SignIn runs the loopback sign-in flow and stores the resulting token.
func (s *RemoteSession) SignIn(ctx context.Context, providerID string) (*domain.Session, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	defer ln.Close()

	tokens := make(chan string, 1)
	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing token", http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "Signed in. You can close this window.")
		select {
		case tokens <- token:
		default:
		}
	})}
	go srv.Serve(ln)
	defer srv.Close()

	callback := fmt.Sprintf("http://%s/callback", ln.Addr().String())
	signInURL := fmt.Sprintf("%s/api/auth/signin/%s?callbackUrl=%s",
		s.baseURL, url.PathEscape(providerID), url.QueryEscape(callback))
	if err := s.Open(signInURL); err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case token := <-tokens:
		if err := s.tokens.Save(token); err != nil {
			return nil, err
		}
	}
	return s.Session(ctx)
}

// SignOut forgets the stored token. Session tokens are stateless, so the
// server has nothing to revoke.
func (s *RemoteSession) SignOut(_ context.Context) error {
	return s.tokens.Clear()
}
