package view

import (
	"context"
	"fmt"
	"sync"

	"github.com/devaloi/guestbook/internal/domain"
	"github.com/devaloi/guestbook/internal/query"
)

// Poster submits a message.
type Poster interface {
	Mutate(ctx context.Context, msg domain.Message) (struct{}, error)
}

// Form is the submission form. It only exists for a signed-in user.
type Form struct {
	mu      sync.Mutex
	draft   string
	session *domain.Session
	post    Poster
}

var _ Poster = (*query.Mutation[domain.Message, struct{}])(nil)

// NewForm returns nil when there is no session.
func NewForm(s *domain.Session, post Poster) *Form {
	if s == nil {
		return nil
	}
	return &Form{session: s, post: post}
}

// SetDraft replaces the draft text.
func (f *Form) SetDraft(text string) {
	f.mu.Lock()
	f.draft = text
	f.mu.Unlock()
}

// Draft returns the draft text.
func (f *Form) Draft() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

// Submit posts the draft under the session user's name. A draft outside the
// length bounds is not submitted and is kept. Otherwise the draft is cleared
// before the post is sent, whatever its outcome.
func (f *Form) Submit(ctx context.Context) error {
	f.mu.Lock()
	draft := f.draft
	if !domain.ValidDraft(draft) {
		f.mu.Unlock()
		return fmt.Errorf("%w: message must be %d to %d characters", domain.ErrInvalidMessage,
			domain.MinMessageLength, domain.MaxMessageLength)
	}
	f.draft = ""
	f.mu.Unlock()

	_, err := f.post.Mutate(ctx, domain.Message{Name: f.session.User.Name, Message: draft})
	return err
}
