package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/devaloi/guestbook/internal/domain"
)

// Provider is an OAuth 2.0 identity provider that sign-in is delegated to.
type Provider struct {
	ID          string
	Name        string
	OAuth       *oauth2.Config
	UserInfoURL string
	// ParseUser maps the provider's profile document to a user.
	ParseUser func(body []byte) (domain.User, error)
}

// Enabled reports whether the provider has client credentials.
func (p *Provider) Enabled() bool {
	return p != nil && p.OAuth.ClientID != "" && p.OAuth.ClientSecret != ""
}

// FetchUser loads the signed-in user's profile using the exchanged token.
func (p *Provider) FetchUser(ctx context.Context, tok *oauth2.Token) (domain.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.UserInfoURL, nil)
	if err != nil {
		return domain.User{}, err
	}
	resp, err := p.OAuth.Client(ctx, tok).Do(req)
	if err != nil {
		return domain.User{}, fmt.Errorf("%s userinfo: %w", p.ID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.User{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return domain.User{}, fmt.Errorf("%s userinfo: status %d", p.ID, resp.StatusCode)
	}
	user, err := p.ParseUser(body)
	if err != nil {
		return domain.User{}, fmt.Errorf("%s userinfo: %w", p.ID, err)
	}
	user.Provider = p.ID
	return user, nil
}

// Google returns the Google provider.
func Google(clientID, clientSecret, redirectURL string) *Provider {
	return &Provider{
		ID:   domain.ProviderGoogle,
		Name: "Google",
		OAuth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://accounts.google.com/o/oauth2/v2/auth",
				TokenURL: "https://oauth2.googleapis.com/token",
			},
		},
		UserInfoURL: "https://openidconnect.googleapis.com/v1/userinfo",
		ParseUser:   parseGoogleUser,
	}
}

// Discord returns the Discord provider.
func Discord(clientID, clientSecret, redirectURL string) *Provider {
	return &Provider{
		ID:   domain.ProviderDiscord,
		Name: "Discord",
		OAuth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"identify", "email"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   "https://discord.com/oauth2/authorize",
				TokenURL:  "https://discord.com/api/oauth2/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		UserInfoURL: "https://discord.com/api/users/@me",
		ParseUser:   parseDiscordUser,
	}
}

func parseGoogleUser(body []byte) (domain.User, error) {
	var p struct {
		Sub     string `json:"sub"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		Picture string `json:"picture"`
	}
	if err := json.Unmarshal(body, &p); err != nil {
		return domain.User{}, err
	}
	if p.Sub == "" {
		return domain.User{}, fmt.Errorf("profile has no subject")
	}
	return domain.User{ID: p.Sub, Name: p.Name, Email: p.Email, Image: p.Picture}, nil
}

func parseDiscordUser(body []byte) (domain.User, error) {
	var p struct {
		ID         string `json:"id"`
		Username   string `json:"username"`
		GlobalName string `json:"global_name"`
		Email      string `json:"email"`
		Avatar     string `json:"avatar"`
	}
	if err := json.Unmarshal(body, &p); err != nil {
		return domain.User{}, err
	}
	if p.ID == "" {
		return domain.User{}, fmt.Errorf("profile has no id")
	}
	u := domain.User{ID: p.ID, Name: p.GlobalName, Email: p.Email}
	if u.Name == "" {
		u.Name = p.Username
	}
	if p.Avatar != "" {
		u.Image = fmt.Sprintf("https://cdn.discordapp.com/avatars/%s/%s.png", p.ID, p.Avatar)
	}
	return u, nil
}

// Providers indexes providers by id.
type Providers map[string]*Provider

// NewProviders builds the provider set.
func NewProviders(ps ...*Provider) Providers {
	out := make(Providers, len(ps))
	for _, p := range ps {
		out[p.ID] = p
	}
	return out
}

// Get returns an enabled provider.
func (ps Providers) Get(id string) (*Provider, error) {
	p, ok := ps[id]
	if !ok || !p.Enabled() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownProvider, id)
	}
	return p, nil
}
