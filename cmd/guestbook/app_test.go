package main

import (
	"bytes"
	"context"
	"log/slog"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/devaloi/guestbook/internal/auth"
	"github.com/devaloi/guestbook/internal/domain"
	"github.com/devaloi/guestbook/internal/hub"
	"github.com/devaloi/guestbook/internal/server"
	"github.com/devaloi/guestbook/internal/testutil"
)

const secret = "cli-test-secret-cli-test-secret-cli"

type fixture struct {
	srv    *httptest.Server
	store  *testutil.MemoryStore
	tokens *auth.Tokens
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	st := testutil.NewMemoryStore()
	h := hub.New(10, log)
	go h.Run()
	t.Cleanup(h.Stop)

	tokens := auth.NewTokens(secret, time.Hour)
	base, _ := url.Parse("http://guestbook.test")
	srv := httptest.NewServer(server.New(server.Options{
		Store: st, Hub: h, Tokens: tokens, Providers: auth.NewProviders(), BaseURL: base, Log: log,
	}))
	t.Cleanup(srv.Close)
	return fixture{srv: srv, store: st, tokens: tokens}
}

// app returns a CLI app for the fixture, signed in as name unless name is "".
func (f fixture) app(t *testing.T, name string) (*app, *bytes.Buffer) {
	t.Helper()
	tokenFile := filepath.Join(t.TempDir(), "token")
	if name != "" {
		token, _, err := f.tokens.IssueSession(domain.User{ID: "1", Name: name})
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(tokenFile, []byte(token), 0o600))
	}
	var out bytes.Buffer
	return newApp(config{URL: f.srv.URL, TokenFile: tokenFile}, &out), &out
}

func TestPostAndList(t *testing.T) {
	f := newFixture(t)
	a, out := f.app(t, "Ada")
	ctx := context.Background()

	require.NoError(t, a.post(ctx, "Hello world"))
	require.Contains(t, out.String(), "Posted.")

	out.Reset()
	require.NoError(t, a.list(ctx))
	require.Contains(t, out.String(), "Ada")
	require.Contains(t, out.String(), "Hello world")
}

func TestPostSignedOut(t *testing.T) {
	f := newFixture(t)
	a, _ := f.app(t, "")

	require.ErrorIs(t, a.post(context.Background(), "Hello world"), errSignedOut)
	msgs, err := f.store.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, msgs)
}

func TestPostTooShort(t *testing.T) {
	f := newFixture(t)
	a, _ := f.app(t, "Ada")
	require.ErrorIs(t, a.post(context.Background(), "x"), domain.ErrInvalidMessage)
}

func TestWhoami(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, out := f.app(t, "Ada")
	require.NoError(t, a.whoami(ctx))
	require.Equal(t, "Logged in as Ada - you can now see this secret message!\n", out.String())

	a, out = f.app(t, "")
	require.NoError(t, a.whoami(ctx))
	require.Equal(t, "Not signed in.\n", out.String())
}

func TestLogoutForgetsToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, out := f.app(t, "Ada")

	require.NoError(t, a.logout(ctx))
	out.Reset()
	require.NoError(t, a.whoami(ctx))
	require.Equal(t, "Not signed in.\n", out.String())
}

func TestShowRendersGate(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Save(context.Background(), domain.Message{Name: "Bob", Message: "first!"}))

	a, out := f.app(t, "")
	require.NoError(t, a.show(context.Background()))
	require.Contains(t, out.String(), "Loading...\n")
	require.Contains(t, out.String(), "[Login with Google]\n[Login with Discord]\n")
	require.Contains(t, out.String(), "first!\n- Bob\n")

	a, out = f.app(t, "Ada")
	require.NoError(t, a.show(context.Background()))
	require.Contains(t, out.String(), "Hi Ada\n[Logout]\n")
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("GUESTBOOK_URL", "")
	t.Setenv("GUESTBOOK_TOKEN_FILE", "/tmp/gb-token")
	os.Unsetenv("GUESTBOOK_URL")

	cfg, err := loadConfig()
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080", cfg.URL)
	require.Equal(t, "/tmp/gb-token", cfg.TokenFile)
	require.True(t, cfg.Colours)
}
