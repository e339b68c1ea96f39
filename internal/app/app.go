package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirelobby-server/internal/config"
	"github.com/vovakirdan/wirelobby-server/internal/core"
	"github.com/vovakirdan/wirelobby-server/internal/gateway"
	"github.com/vovakirdan/wirelobby-server/internal/metrics"
	"github.com/vovakirdan/wirelobby-server/internal/store"
	"github.com/vovakirdan/wirelobby-server/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/wirelobby-server/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *transporthttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	journal         store.Journal
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	var journal store.Journal
	if cfg.JournalPath != "" {
		st, err := sqlite.New(cfg.JournalPath)
		if err != nil {
			return nil, fmt.Errorf("init journal: %w", err)
		}
		journal = st
		logger.Info().Str("journal_path", cfg.JournalPath).Msg("activity journal initialized")
	}

	m := metrics.New()
	gw := gateway.New(cfg.MailboxSize, m, logger)
	hub := core.NewHub(gw, core.Options{
		Logger:          logger,
		Metrics:         m,
		Journal:         journal,
		DefaultRoomName: cfg.DefaultRoomName,
	})

	server := transporthttp.NewServer(transporthttp.Deps{
		Hub:     hub,
		Gateway: gw,
		Journal: journal,
		Metrics: m,
	}, *cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		journal:         journal,
		log:             logger,
	}, nil
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *App) Handler() stdhttp.Handler {
	return a.server.Handler
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		if err := a.shutdown(); err != nil {
			return err
		}
		return <-serverErr
	}
}

// shutdown stops accepting requests, drains WebSocket connections so their
// lobby cleanup reaches the journal, then releases resources.
func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()
	defer a.cleanup()

	a.log.Info().Msg("shutting down http server")
	err := a.server.Shutdown(shutdownCtx)
	if drainErr := a.server.Drain(shutdownCtx); drainErr != nil {
		a.log.Warn().Err(drainErr).Msg("websocket connections still open at shutdown")
	}
	return err
}

// cleanup closes the journal if one is configured.
func (a *App) cleanup() {
	users, rooms := a.hub.Stats()
	a.log.Info().Int("user_count", users).Int("room_count", rooms).Msg("lobby stopped")

	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close journal")
		} else {
			a.log.Info().Msg("journal closed")
		}
	}
}
