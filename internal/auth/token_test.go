package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/devaloi/guestbook/internal/domain"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestSessionTokenRoundTrip(t *testing.T) {
	req := require.New(t)
	tokens := NewTokens(testSecret, time.Hour)
	user := domain.User{ID: "42", Name: "Ada", Email: "ada@example.com", Provider: domain.ProviderGoogle}

	signed, session, err := tokens.IssueSession(user)
	req.NoError(err)
	req.Equal(user, session.User)

	parsed, err := tokens.ParseSession(signed)
	req.NoError(err)
	req.Equal(user, parsed.User)
	req.WithinDuration(session.Expires, parsed.Expires, time.Second)
}

func TestExpiredSessionRejected(t *testing.T) {
	req := require.New(t)
	tokens := NewTokens(testSecret, time.Minute)
	signed, _, err := tokens.IssueSession(domain.User{ID: "42", Name: "Ada"})
	req.NoError(err)

	tokens.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err = tokens.ParseSession(signed)
	req.ErrorIs(err, domain.ErrUnauthorized)
}

func TestTokenFromOtherSecretRejected(t *testing.T) {
	req := require.New(t)
	signed, _, err := NewTokens("another-secret-another-secret-xx", time.Hour).IssueSession(domain.User{ID: "1", Name: "Eve"})
	req.NoError(err)

	_, err = NewTokens(testSecret, time.Hour).ParseSession(signed)
	req.ErrorIs(err, domain.ErrUnauthorized)
}

func TestSignInStateIsNotASession(t *testing.T) {
	req := require.New(t)
	tokens := NewTokens(testSecret, time.Hour)
	flow, err := tokens.issueFlow(signInFlow{State: "s", Verifier: "v", CallbackURL: "/"})
	req.NoError(err)

	_, err = tokens.ParseSession(flow)
	req.ErrorIs(err, domain.ErrUnauthorized)

	parsed, err := tokens.parseFlow(flow)
	req.NoError(err)
	req.Equal("s", parsed.State)
	req.Equal("v", parsed.Verifier)
}

func TestGarbageTokenRejected(t *testing.T) {
	_, err := NewTokens(testSecret, time.Hour).ParseSession("not-a-jwt")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}
