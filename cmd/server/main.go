// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/mix/internal/api"
	"github.com/tomtom215/mix/internal/audit"
	"github.com/tomtom215/mix/internal/config"
	"github.com/tomtom215/mix/internal/events"
	"github.com/tomtom215/mix/internal/logging"
	"github.com/tomtom215/mix/internal/supervisor"
	"github.com/tomtom215/mix/internal/supervisor/services"
	"github.com/tomtom215/mix/internal/wal"
	ws "github.com/tomtom215/mix/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("addr", cfg.Addr()).
		Bool("postgres", cfg.UsesPostgres()).
		Str("session_store", cfg.Session.Store).
		Str("events_backend", cfg.Events.Backend).
		Msg("Starting Mix")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStore(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing store")
		}
	}()

	sessions, err := newSessionManager(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize sessions")
	}
	defer func() {
		if err := sessions.Store().Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing session store")
		}
	}()

	identity, err := newIdentity(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authentication")
	}

	bus, err := events.NewBus(cfg.Events)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to start event bus")
	}
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	var publisher events.Publisher = bus
	var replayer *wal.Replayer
	if cfg.Events.WALPath != "" {
		eventLog, err := wal.Open(wal.Config{Path: cfg.Events.WALPath, SyncWrites: cfg.IsProduction()})
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to open event WAL")
		}
		defer func() {
			if err := eventLog.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing event WAL")
			}
		}()
		publisher = wal.NewDurablePublisher(bus, eventLog)
		replayer = wal.NewReplayer(eventLog, bus, wal.ReplayConfig{})
	}

	wsHub := ws.NewHub()
	trail := audit.NewLogger(audit.NewMemoryStore(cfg.Audit.Capacity), audit.Config{
		BufferSize: cfg.Audit.BufferSize,
		Retention:  cfg.Audit.Retention,
	})

	handler := api.NewHandler(api.Dependencies{
		Config:    cfg,
		Store:     st,
		Sessions:  sessions,
		Google:    identity.google,
		Admin:     identity.admin,
		JWT:       identity.jwt,
		Publisher: publisher,
		Hub:       wsHub,
		Audit:     trail,
	})
	router := api.NewRouter(handler, identity.enforcer)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddDataService(services.NewSessionCleanupService(sessions.Store(), cfg.Session.CleanupInterval))
	tree.AddDataService(trail)
	tree.AddMessagingService(wsHub)
	tree.AddMessagingService(services.NewEventForwarderService(events.NewForwarder(wsHub), bus.Subscriber(), bus.Logger()))
	if replayer != nil {
		tree.AddMessagingService(replayer)
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Supervisor tree starting")
	if err := <-tree.ServeBackground(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
	}

	logging.Info().Msg("Mix stopped")
}
