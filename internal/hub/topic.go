package hub

import "sync"

// Subscriber is what the hub expects from a live connection.
type Subscriber interface {
	ID() string
	Send(data []byte)
}

// Topic holds the subscribers of one query key and broadcasts to them.
type Topic struct {
	name        string
	subscribers map[Subscriber]struct{}
	mu          sync.RWMutex
	broadcast   chan []byte
	quit        chan struct{}
}

// NewTopic creates an empty topic.
func NewTopic(name string) *Topic {
	return &Topic{
		name:        name,
		subscribers: make(map[Subscriber]struct{}),
		broadcast:   make(chan []byte, 256),
		quit:        make(chan struct{}),
	}
}

// Run starts the broadcast loop. Should be called as a goroutine.
func (t *Topic) Run() {
	for {
		select {
		case data := <-t.broadcast:
			t.mu.RLock()
			for s := range t.subscribers {
				s.Send(data)
			}
			t.mu.RUnlock()
		case <-t.quit:
			return
		}
	}
}

// Stop ends the broadcast loop.
func (t *Topic) Stop() {
	close(t.quit)
}

// Add subscribes s.
func (t *Topic) Add(s Subscriber) {
	t.mu.Lock()
	t.subscribers[s] = struct{}{}
	t.mu.Unlock()
}

// Remove unsubscribes s.
func (t *Topic) Remove(s Subscriber) {
	t.mu.Lock()
	delete(t.subscribers, s)
	t.mu.Unlock()
}

// Broadcast queues data for every subscriber.
func (t *Topic) Broadcast(data []byte) {
	select {
	case t.broadcast <- data:
	case <-t.quit:
	}
}

// SubscriberCount returns the number of subscribers.
func (t *Topic) SubscriberCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.subscribers)
}

// Name returns the topic name.
func (t *Topic) Name() string {
	return t.name
}
