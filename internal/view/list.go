package view

import (
	"context"
	"iter"

	"github.com/devaloi/guestbook/internal/domain"
	"github.com/devaloi/guestbook/internal/query"
)

// ListState is what the message list renders.
type ListState struct {
	Loading  bool
	Err      error
	Messages iter.Seq[domain.Message]
}

// MessageList shows every message of the getAll query.
type MessageList struct {
	q *query.Query[[]domain.Message]
}

// NewMessageList binds a list to the getAll query.
func NewMessageList(q *query.Query[[]domain.Message]) *MessageList {
	return &MessageList{q: q}
}

// Mount issues the initial fetch.
func (l *MessageList) Mount(ctx context.Context) error {
	_, err := l.q.Fetch(ctx)
	return err
}

// State reports loading, a fetch error, or the messages. An error is only
// reported when there is no data to show.
func (l *MessageList) State() ListState {
	s := l.q.State()
	switch {
	case s.HasData:
		return ListState{Messages: l.All()}
	case s.Status == query.StatusError:
		return ListState{Err: s.Err}
	default:
		return ListState{Loading: true}
	}
}

// All yields the cached messages in list order. Each iteration reads the
// cache afresh, so ranging again after an invalidation sees the new data.
func (l *MessageList) All() iter.Seq[domain.Message] {
	return func(yield func(domain.Message) bool) {
		msgs, _ := l.q.GetData()
		for _, m := range msgs {
			if !yield(m) {
				return
			}
		}
	}
}
