package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/devaloi/guestbook/internal/domain"
)

// WebSocketURL turns a server base URL into its live endpoint for topic.
func WebSocketURL(baseURL, topic string) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/ws")
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	q := u.Query()
	q.Set("topic", topic)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Subscribe connects to the live endpoint at wsURL and calls onInvalidate
// for every invalidate event until ctx is done or the connection fails.
// A nil error is returned only when ctx ends the subscription.
func Subscribe(ctx context.Context, wsURL string, header http.Header, onInvalidate func(topic string)) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}

	stop := context.AfterFunc(ctx, func() {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		conn.Close()
	})
	defer func() {
		stop()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		e, err := domain.DecodeEvent(data)
		if err != nil {
			continue
		}
		switch e.Type {
		case domain.EventInvalidate:
			onInvalidate(e.Topic)
		case domain.EventError:
			return errors.New("server: " + e.Message)
		}
	}
}
