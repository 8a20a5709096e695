package handler

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/devaloi/guestbook/internal/client"
	"github.com/devaloi/guestbook/internal/hub"
	"github.com/devaloi/guestbook/internal/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS upgrades to a live connection, subscribed to the topic query
// parameters if any are given. metrics may be nil.
func ServeWS(h *hub.Hub, metrics *middleware.Metrics, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("ws upgrade failed", "error", err)
			return
		}

		c := client.New(h, conn, uuid.NewString(), log)
		for _, topic := range r.URL.Query()["topic"] {
			if topic != "" {
				c.Subscribe(topic)
			}
		}

		closed := metrics.ConnOpened()
		go func() {
			defer closed()
			c.ReadPump()
		}()
		go c.WritePump()
	}
}
