package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/devaloi/guestbook/internal/auth"
	"github.com/devaloi/guestbook/internal/guestbook"
	"github.com/devaloi/guestbook/internal/hub"
	"github.com/devaloi/guestbook/internal/query"
	"github.com/devaloi/guestbook/internal/view"
)

// Health reports liveness and the active live topics.
func Health(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status": "ok",
			"topics": h.Topics(),
		})
	}
}

// Page renders the guestbook for the request's session with the current
// messages.
func Page(svc *guestbook.Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		u := guestbook.NewUtils(query.NewCache(), svc.Local())
		p := view.NewPage(view.SessionOf(auth.SessionFrom(ctx)), u)
		if err := p.List().Mount(ctx); err != nil {
			log.Error("load messages for page", "error", err)
		}

		var buf bytes.Buffer
		if err := view.RenderHTML(&buf, p); err != nil {
			log.Error("render page", "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(buf.Bytes())
	}
}
