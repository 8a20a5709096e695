// Package view composes the guestbook page: the authentication gate, the
// message list and the submission form, rendered as HTML or plain text.
package view

import (
	"github.com/devaloi/guestbook/internal/domain"
	"github.com/devaloi/guestbook/internal/guestbook"
)

// SignInButton is one provider button of the signed-out page.
type SignInButton struct {
	Provider string
	Label    string
}

// SignInButtons in display order.
var SignInButtons = []SignInButton{
	{Provider: domain.ProviderGoogle, Label: "Login with Google"},
	{Provider: domain.ProviderDiscord, Label: "Login with Discord"},
}

// SessionState is what the gate reads.
type SessionState struct {
	Status  domain.SessionStatus
	Session *domain.Session
}

// SessionLoading is the state while the session is being resolved.
func SessionLoading() SessionState {
	return SessionState{Status: domain.StatusLoading}
}

// SessionOf derives the state from a resolved session, nil meaning signed out.
func SessionOf(s *domain.Session) SessionState {
	return SessionState{Status: s.Status(), Session: s}
}

// Page is the whole guestbook view.
type Page struct {
	session SessionState
	list    *MessageList
	form    *Form
}

// NewPage builds the page for session. The form is only created when the
// session is authenticated.
func NewPage(session SessionState, u *guestbook.Utils) *Page {
	p := &Page{session: session, list: NewMessageList(u.GetAll)}
	if session.Status == domain.StatusAuthenticated {
		p.form = NewForm(session.Session, u.PostMessage)
	}
	return p
}

// Status is the gate state.
func (p *Page) Status() domain.SessionStatus { return p.session.Status }

// Greeting is "Hi <name>" for a signed-in user and empty otherwise.
func (p *Page) Greeting() string {
	if p.form == nil {
		return ""
	}
	return "Hi " + p.session.Session.User.Name
}

// Buttons are the sign-in buttons, shown only when signed out.
func (p *Page) Buttons() []SignInButton {
	if p.session.Status != domain.StatusUnauthenticated {
		return nil
	}
	return SignInButtons
}

// List is nil while the session is loading.
func (p *Page) List() *MessageList {
	if p.session.Status == domain.StatusLoading {
		return nil
	}
	return p.list
}

// Form is nil unless signed in.
func (p *Page) Form() *Form { return p.form }
