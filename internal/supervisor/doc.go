// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

/*
Package supervisor runs the Mix server's long-lived components under a
suture v4 supervision tree.

Each layer is its own supervisor so restarts stay local:

	data-layer       SessionCleanupService, audit.Logger
	messaging-layer  websocket.Hub, EventForwarderService, wal.Replayer
	api-layer        HTTPServerService

Adapters for components without a Serve method live in the services
subpackage. Lifecycle events are logged
through sutureslog with the process slog logger.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
	    ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
	    return err
	}
	tree.AddMessagingService(hub)
	tree.AddAPIService(services.NewHTTPServerService(srv, cfg.Server.ShutdownTimeout))

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    return err
	}

Serve returns once ctx is cancelled and every layer has stopped, or after
ShutdownTimeout per layer; UnstoppedServiceReport names the stragglers.
*/
package supervisor
