package view

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/devaloi/guestbook/internal/domain"
	"github.com/devaloi/guestbook/internal/guestbook"
	"github.com/devaloi/guestbook/internal/query"
)

var ada = &domain.Session{User: domain.User{ID: "1", Name: "Ada"}}

type memRemote struct {
	mu     sync.Mutex
	msgs   []domain.Message
	posts  []domain.Message
	getErr error
}

func (m *memRemote) GetAll(context.Context) ([]domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	return append([]domain.Message{}, m.msgs...), nil
}

func (m *memRemote) PostMessage(_ context.Context, msg domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts = append(m.posts, msg)
	m.msgs = append(m.msgs, msg)
	return nil
}

func newPage(session SessionState, remote guestbook.Remote) *Page {
	return NewPage(session, guestbook.NewUtils(query.NewCache(), remote))
}

func renderHTML(t *testing.T, p *Page) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, p))
	return buf.String()
}

func renderText(t *testing.T, p *Page) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, RenderText(&buf, p))
	return buf.String()
}

func TestLoadingSessionShowsOnlyPlaceholder(t *testing.T) {
	p := newPage(SessionLoading(), &memRemote{})

	require.Nil(t, p.List())
	require.Nil(t, p.Form())
	require.Empty(t, p.Buttons())
	require.Equal(t, "Loading...\n", renderText(t, p))

	html := renderHTML(t, p)
	require.Contains(t, html, "Loading...")
	require.NotContains(t, html, "<h1>")
	require.NotContains(t, html, "Login with")
}

func TestSignedOutShowsTwoButtonsAndNoForm(t *testing.T) {
	req := require.New(t)
	p := newPage(SessionOf(nil), &memRemote{})

	req.Equal(domain.StatusUnauthenticated, p.Status())
	req.Nil(p.Form())
	req.Equal([]SignInButton{
		{Provider: "google", Label: "Login with Google"},
		{Provider: "discord", Label: "Login with Discord"},
	}, p.Buttons())
	req.NotNil(p.List())

	html := renderHTML(t, p)
	req.Equal(2, strings.Count(html, "<button"))
	req.Contains(html, `action="/api/auth/signin/google"`)
	req.Contains(html, `action="/api/auth/signin/discord"`)
	req.NotContains(html, "guestbook-form")
	req.NotContains(html, "Logout")
}

func TestSignedInShowsGreetingLogoutAndForm(t *testing.T) {
	req := require.New(t)
	p := newPage(SessionOf(ada), &memRemote{})

	req.Equal(domain.StatusAuthenticated, p.Status())
	req.Equal("Hi Ada", p.Greeting())
	req.NotNil(p.Form())
	req.Empty(p.Buttons())

	html := renderHTML(t, p)
	req.Contains(html, "Hi Ada")
	req.Contains(html, "Logout")
	req.Contains(html, `id="guestbook-form"`)
	req.Contains(html, `minlength="2"`)
	req.Contains(html, `maxlength="100"`)
	req.Contains(html, ` required `)
	req.Contains(html, "text.length <")
	req.NotContains(html, "Login with")
}

func TestListFetchingThenMessages(t *testing.T) {
	req := require.New(t)
	remote := &memRemote{msgs: []domain.Message{{Name: "Bob", Message: "first!"}}}
	p := newPage(SessionOf(nil), remote)

	req.True(p.List().State().Loading)
	req.Contains(renderText(t, p), "Fetching messages...")

	req.NoError(p.List().Mount(context.Background()))
	s := p.List().State()
	req.False(s.Loading)
	req.Equal([]domain.Message{{Name: "Bob", Message: "first!"}}, slices.Collect(s.Messages))
	req.Contains(renderText(t, p), "first!\n- Bob\n")
	req.Contains(renderHTML(t, p), "<p>first!</p>")
}

func TestListErrorIsShown(t *testing.T) {
	req := require.New(t)
	p := newPage(SessionOf(nil), &memRemote{getErr: errors.New("offline")})

	req.Error(p.List().Mount(context.Background()))
	s := p.List().State()
	req.False(s.Loading)
	req.EqualError(s.Err, "offline")
	req.Contains(renderText(t, p), "Could not load messages: offline")
}

func TestListSequenceRestartsOverNewData(t *testing.T) {
	req := require.New(t)
	remote := &memRemote{msgs: []domain.Message{{Name: "Bob", Message: "first!"}}}
	u := guestbook.NewUtils(query.NewCache(), remote)
	l := NewMessageList(u.GetAll)
	req.NoError(l.Mount(context.Background()))

	seq := l.All()
	req.Len(slices.Collect(seq), 1)
	req.Len(slices.Collect(seq), 1)

	remote.msgs = append(remote.msgs, domain.Message{Name: "Ada", Message: "Hello world"})
	req.NoError(u.GetAll.Invalidate(context.Background()))
	req.Len(slices.Collect(seq), 2)
}

func TestHTMLEscapesMessages(t *testing.T) {
	remote := &memRemote{msgs: []domain.Message{{Name: "Eve", Message: "<script>alert(1)</script>"}}}
	p := newPage(SessionOf(nil), remote)
	require.NoError(t, p.List().Mount(context.Background()))

	html := renderHTML(t, p)
	require.NotContains(t, html, "<script>alert(1)</script>")
	require.Contains(t, html, "&lt;script&gt;alert(1)&lt;/script&gt;")
}

func TestAdaPostsHelloWorld(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	remote := &memRemote{}
	p := newPage(SessionOf(ada), remote)
	req.NoError(p.List().Mount(ctx))

	p.Form().SetDraft("Hello world")
	req.NoError(p.Form().Submit(ctx))

	req.Empty(p.Form().Draft())
	req.Equal([]domain.Message{{Name: "Ada", Message: "Hello world"}}, remote.posts)
	req.Equal([]domain.Message{{Name: "Ada", Message: "Hello world"}}, slices.Collect(p.List().All()))
	req.Contains(renderText(t, p), "Hello world\n- Ada\n")
}
