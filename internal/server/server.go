// Package server assembles the HTTP surface of the guestbook.
package server

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/devaloi/guestbook/internal/auth"
	"github.com/devaloi/guestbook/internal/guestbook"
	"github.com/devaloi/guestbook/internal/handler"
	"github.com/devaloi/guestbook/internal/hub"
	"github.com/devaloi/guestbook/internal/middleware"
	"github.com/devaloi/guestbook/internal/rpc"
	"github.com/devaloi/guestbook/internal/store"
)

// Options are the dependencies of the router.
type Options struct {
	Store     store.Store
	Hub       *hub.Hub
	Tokens    *auth.Tokens
	Providers auth.Providers
	BaseURL   *url.URL
	Registry  *prometheus.Registry
	Log       *slog.Logger
}

// New returns the application router. A nil Registry gets a fresh one.
func New(o Options) http.Handler {
	reg := o.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	sessions := auth.NewManager(o.Tokens, o.BaseURL.Scheme == "https", o.Log)
	httpMetrics := middleware.NewMetrics(reg)

	svc := guestbook.NewService(o.Store, o.Hub, o.Log)
	procedures := rpc.NewRouter(o.Log, rpc.NewMetrics(reg))
	procedures.Register(svc.Procedures()...)

	signIn := auth.NewHandler(o.Providers, sessions, o.Tokens, o.BaseURL, o.Log)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logging(o.Log))
	r.Use(httpMetrics.Handler)
	r.Use(sessions.Middleware)

	r.Get("/", handler.Page(svc, o.Log))
	r.Get("/health", handler.Health(o.Hub))
	r.Get("/ws", handler.ServeWS(o.Hub, httpMetrics, o.Log))
	r.Mount("/api/trpc", procedures.Handler())
	r.Mount("/api/auth", signIn.Routes())
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	o.Log.Debug("procedures registered", "paths", procedures.Paths())
	return r
}
