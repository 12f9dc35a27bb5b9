// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

// Command mixws is a terminal client for the Mix realtime channel. It holds
// a reconnecting connection open, sends pings and prints every envelope it
// receives as one JSON line.
//
//	mixws connect --url http://localhost:5000
//	mixws connect --url https://mix.example.com --cookie "$MIX_SESSION" --ping-interval 30s
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
