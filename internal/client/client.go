package client

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/devaloi/guestbook/internal/domain"
	"github.com/devaloi/guestbook/internal/hub"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// Conn is a live WebSocket connection subscribed to hub topics.
type Conn struct {
	hub    *hub.Hub
	conn   *websocket.Conn
	send   chan []byte
	id     string
	topics map[string]bool
	log    *slog.Logger
}

// New creates a new Conn.
func New(h *hub.Hub, conn *websocket.Conn, id string, log *slog.Logger) *Conn {
	return &Conn{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, 256),
		id:     id,
		topics: make(map[string]bool),
		log:    log.With("conn", id),
	}
}

// ID returns the connection id.
func (c *Conn) ID() string {
	return c.id
}

// Send queues a frame for the peer, dropping it if the buffer is full.
func (c *Conn) Send(data []byte) {
	select {
	case c.send <- data:
	default:
		c.log.Warn("send buffer full, dropping event")
	}
}

// Subscribe adds the connection to topic.
func (c *Conn) Subscribe(topic string) {
	if c.topics[topic] {
		return
	}
	c.topics[topic] = true
	c.hub.Subscribe(c, topic)
}

// ReadPump reads subscription requests until the peer goes away, then
// removes the connection from every topic. Subscribe must not be called
// concurrently with ReadPump.
func (c *Conn) ReadPump() {
	defer func() {
		for topic := range c.topics {
			c.hub.Unsubscribe(c, topic)
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("read error", "error", err)
			}
			return
		}
		c.handleEvent(data)
	}
}

// WritePump writes queued frames and keepalive pings to the peer.
func (c *Conn) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Conn) handleEvent(data []byte) {
	e, err := domain.DecodeEvent(data)
	if err != nil {
		c.sendError("invalid JSON")
		return
	}

	switch e.Type {
	case domain.EventSubscribe:
		if e.Topic == "" {
			c.sendError("topic required")
			return
		}
		c.Subscribe(e.Topic)

	case domain.EventUnsubscribe:
		if e.Topic == "" {
			c.sendError("topic required")
			return
		}
		if !c.topics[e.Topic] {
			c.sendError("not subscribed")
			return
		}
		delete(c.topics, e.Topic)
		c.hub.Unsubscribe(c, e.Topic)

	default:
		c.sendError("unknown event type: " + e.Type)
	}
}

func (c *Conn) sendError(message string) {
	if data, err := domain.Encode(domain.Event{Type: domain.EventError, Message: message}); err == nil {
		c.Send(data)
	}
}
