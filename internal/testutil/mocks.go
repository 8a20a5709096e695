package testutil

import (
	"context"
	"sync"

	"github.com/devaloi/guestbook/internal/domain"
)

// MockSubscriber implements hub.Subscriber for testing.
type MockSubscriber struct {
	Name   string
	events []domain.Event
	mu     sync.Mutex
}

// NewMockSubscriber creates a new MockSubscriber with the given id.
func NewMockSubscriber(name string) *MockSubscriber {
	return &MockSubscriber{Name: name}
}

// ID returns the subscriber's name.
func (m *MockSubscriber) ID() string { return m.Name }

// Send records an event sent to the subscriber. Undecodable frames are
// recorded as error events.
func (m *MockSubscriber) Send(data []byte) {
	e, err := domain.DecodeEvent(data)
	if err != nil {
		e = domain.Event{Type: domain.EventError, Message: err.Error()}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
}

// Events returns a copy of all events received.
func (m *MockSubscriber) Events() []domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]domain.Event, len(m.events))
	copy(cp, m.events)
	return cp
}

// Count returns how many events of type typ were received.
func (m *MockSubscriber) Count(typ string) int {
	n := 0
	for _, e := range m.Events() {
		if e.Type == typ {
			n++
		}
	}
	return n
}

// MemoryStore implements store.Store in memory.
type MemoryStore struct {
	mu       sync.Mutex
	messages []domain.Message
	// Err, when set, is returned by every call.
	Err error
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(msgs ...domain.Message) *MemoryStore {
	return &MemoryStore{messages: append([]domain.Message(nil), msgs...)}
}

// Save appends a message.
func (s *MemoryStore) Save(_ context.Context, msg domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.messages = append(s.messages, msg)
	return nil
}

// List returns a copy of all messages in insertion order.
func (s *MemoryStore) List(_ context.Context) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return append([]domain.Message{}, s.messages...), nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

// Publisher records published topics.
type Publisher struct {
	mu     sync.Mutex
	topics []string
}

// Publish records topic.
func (p *Publisher) Publish(topic string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
}

// Topics returns the published topics in order.
func (p *Publisher) Topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.topics...)
}
