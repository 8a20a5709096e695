package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/devaloi/guestbook/internal/auth"
	"github.com/devaloi/guestbook/internal/config"
	"github.com/devaloi/guestbook/internal/domain"
	"github.com/devaloi/guestbook/internal/hub"
	"github.com/devaloi/guestbook/internal/server"
	"github.com/devaloi/guestbook/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "guestbook:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log := logs.GetLoggerFromString(cfg.LogLevel)
	slog.SetDefault(log)

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("base url: %w", err)
	}

	s, err := store.Open(cfg.StoreDriver, cfg.DBPath, cfg.BadgerPath, log)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer s.Close()

	h := hub.New(cfg.MaxTopics, log)
	go h.Run()
	defer h.Stop()

	providers := auth.NewProviders(
		auth.Google(cfg.GoogleClientID, cfg.GoogleClientSecret, auth.CallbackURL(base, domain.ProviderGoogle)),
		auth.Discord(cfg.DiscordClientID, cfg.DiscordClientSecret, auth.CallbackURL(base, domain.ProviderDiscord)),
	)
	for _, id := range domain.Providers {
		if _, err := providers.Get(id); err != nil {
			log.Warn("sign-in provider disabled, client id/secret not set", "provider", id)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: server.New(server.Options{
			Store:     s,
			Hub:       h,
			Tokens:    auth.NewTokens(cfg.SessionSecret, cfg.SessionTTL),
			Providers: providers,
			BaseURL:   base,
			Registry:  reg,
			Log:       log,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.Info("guestbook listening", "addr", srv.Addr, "store", cfg.StoreDriver, "base_url", cfg.BaseURL)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
