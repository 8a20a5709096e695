package hub

import (
	"log/slog"
	"sync"

	"github.com/devaloi/guestbook/internal/domain"
)

// SubscribeRequest asks the hub to add a subscriber to a topic.
type SubscribeRequest struct {
	Subscriber Subscriber
	Topic      string
}

// UnsubscribeRequest asks the hub to remove a subscriber from a topic.
type UnsubscribeRequest struct {
	Subscriber Subscriber
	Topic      string
}

// TopicInfo describes an active topic.
type TopicInfo struct {
	Name        string `json:"name"`
	Subscribers int    `json:"subscribers"`
}

// Hub manages topics and fans invalidation events out to subscribers.
type Hub struct {
	topics      map[string]*Topic
	mu          sync.RWMutex
	subscribe   chan SubscribeRequest
	unsubscribe chan UnsubscribeRequest
	publish     chan string
	maxTopics   int
	log         *slog.Logger
	quit        chan struct{}
	stopOnce    sync.Once
}

// New creates a new Hub.
func New(maxTopics int, log *slog.Logger) *Hub {
	return &Hub{
		topics:      make(map[string]*Topic),
		subscribe:   make(chan SubscribeRequest, 256),
		unsubscribe: make(chan UnsubscribeRequest, 256),
		publish:     make(chan string, 256),
		maxTopics:   maxTopics,
		log:         log,
		quit:        make(chan struct{}),
	}
}

// Run starts the hub's main event loop. Should be called as a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case req := <-h.subscribe:
			h.handleSubscribe(req)
		case req := <-h.unsubscribe:
			h.handleUnsubscribe(req)
		case topic := <-h.publish:
			h.handlePublish(topic)
		case <-h.quit:
			return
		}
	}
}

// Stop signals the event loop to exit and stops all topics.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.quit)
		h.mu.Lock()
		defer h.mu.Unlock()
		for name, t := range h.topics {
			t.Stop()
			delete(h.topics, name)
		}
	})
}

// Subscribe queues a subscription request.
func (h *Hub) Subscribe(s Subscriber, topic string) {
	select {
	case h.subscribe <- SubscribeRequest{Subscriber: s, Topic: topic}:
	case <-h.quit:
	}
}

// Unsubscribe queues an unsubscription request.
func (h *Hub) Unsubscribe(s Subscriber, topic string) {
	select {
	case h.unsubscribe <- UnsubscribeRequest{Subscriber: s, Topic: topic}:
	case <-h.quit:
	}
}

// Publish tells every subscriber of topic that its data changed.
func (h *Hub) Publish(topic string) {
	select {
	case h.publish <- topic:
	case <-h.quit:
	}
}

// Topics returns info about all active topics.
func (h *Hub) Topics() []TopicInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]TopicInfo, 0, len(h.topics))
	for _, t := range h.topics {
		out = append(out, TopicInfo{Name: t.Name(), Subscribers: t.SubscriberCount()})
	}
	return out
}

func (h *Hub) handleSubscribe(req SubscribeRequest) {
	h.mu.Lock()
	t, ok := h.topics[req.Topic]
	if !ok {
		if len(h.topics) >= h.maxTopics {
			h.mu.Unlock()
			sendError(req.Subscriber, "max topics reached")
			return
		}
		t = NewTopic(req.Topic)
		h.topics[req.Topic] = t
		go t.Run()
		h.log.Debug("topic created", "topic", req.Topic)
	}
	h.mu.Unlock()
	t.Add(req.Subscriber)
}

func (h *Hub) handleUnsubscribe(req UnsubscribeRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()
	t, ok := h.topics[req.Topic]
	if !ok {
		return
	}
	t.Remove(req.Subscriber)
	if t.SubscriberCount() == 0 {
		t.Stop()
		delete(h.topics, req.Topic)
		h.log.Debug("topic deleted", "topic", req.Topic)
	}
}

func (h *Hub) handlePublish(topic string) {
	h.mu.RLock()
	t, ok := h.topics[topic]
	h.mu.RUnlock()
	if !ok {
		return
	}
	data, err := domain.Encode(domain.Event{Type: domain.EventInvalidate, Topic: topic})
	if err != nil {
		h.log.Error("encode invalidate event", "error", err)
		return
	}
	t.Broadcast(data)
}

func sendError(s Subscriber, message string) {
	if data, err := domain.Encode(domain.Event{Type: domain.EventError, Message: message}); err == nil {
		s.Send(data)
	}
}
