package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/devaloi/guestbook/internal/domain"
)

const (
	issuer = "guestbook"

	audienceSession = "session"
	audienceSignIn  = "signin"
)

// signInTTL bounds how long a user may take at the provider's consent screen.
const signInTTL = 10 * time.Minute

// Tokens signs and verifies the HS256 tokens carried in cookies.
type Tokens struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewTokens creates a token signer. ttl is the session lifetime.
func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{key: []byte(secret), ttl: ttl, now: time.Now}
}

type sessionClaims struct {
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Image    string `json:"image,omitempty"`
	Provider string `json:"provider,omitempty"`
	jwt.RegisteredClaims
}

// signInFlow is the state kept between the redirect to the provider and its callback.
type signInFlow struct {
	State       string `json:"state"`
	Verifier    string `json:"verifier"`
	CallbackURL string `json:"callback_url"`
	jwt.RegisteredClaims
}

// IssueSession creates a signed session token for user.
func (t *Tokens) IssueSession(user domain.User) (string, *domain.Session, error) {
	now := t.now()
	expires := now.Add(t.ttl)
	claims := sessionClaims{
		Name:     user.Name,
		Email:    user.Email,
		Image:    user.Image,
		Provider: user.Provider,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audienceSession},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
	if err != nil {
		return "", nil, fmt.Errorf("sign session: %w", err)
	}
	return signed, &domain.Session{User: user, Expires: claims.ExpiresAt.Time}, nil
}

// ParseSession validates a session token and returns the session it carries.
func (t *Tokens) ParseSession(token string) (*domain.Session, error) {
	var claims sessionClaims
	if err := t.parse(token, &claims, audienceSession); err != nil {
		return nil, err
	}
	return &domain.Session{
		User: domain.User{
			ID:       claims.Subject,
			Name:     claims.Name,
			Email:    claims.Email,
			Image:    claims.Image,
			Provider: claims.Provider,
		},
		Expires: claims.ExpiresAt.Time,
	}, nil
}

func (t *Tokens) issueFlow(flow signInFlow) (string, error) {
	now := t.now()
	flow.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    issuer,
		Audience:  jwt.ClaimStrings{audienceSignIn},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(signInTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, flow).SignedString(t.key)
}

func (t *Tokens) parseFlow(token string) (signInFlow, error) {
	var flow signInFlow
	err := t.parse(token, &flow, audienceSignIn)
	return flow, err
}

func (t *Tokens) parse(token string, claims jwt.Claims, audience string) error {
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return t.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	if !parsed.Valid {
		return fmt.Errorf("%w: token is not valid", domain.ErrUnauthorized)
	}
	return nil
}
