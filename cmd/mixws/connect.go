// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/mix/internal/auth"
	"github.com/tomtom215/mix/internal/logging"
	"github.com/tomtom215/mix/internal/realtime"
)

// Log messages the binder emits on every failed attempt. --quiet hides them.
var reconnectNoise = []string{
	"realtime connection lost",
	"dropping malformed frame",
}

type connectOptions struct {
	url            string
	cookie         string
	pingInterval   time.Duration
	reconnectDelay time.Duration
	maxAttempts    int
	count          int
	quiet          bool
}

func newConnectCmd() *cobra.Command {
	opts := connectOptions{}

	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Connect to /ws and print every envelope",
		Long: `Connect derives the /ws endpoint from the page URL, keeps the connection
open across server restarts and prints each received envelope as JSON.
A ping is sent on every (re)connect. Stop with Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConnect(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.url, "url", "", "page URL of the Mix app, e.g. http://localhost:5000")
	f.StringVar(&opts.cookie, "cookie", "", "signed "+auth.DefaultCookieName+" cookie value to connect as a user")
	f.DurationVar(&opts.pingInterval, "ping-interval", 0, "send a ping this often while connected (0: only on connect)")
	f.DurationVar(&opts.reconnectDelay, "reconnect-delay", realtime.DefaultReconnectDelay, "wait between reconnect attempts")
	f.IntVar(&opts.maxAttempts, "max-attempts", 0, "give up after this many consecutive failed attempts (0: never)")
	f.IntVar(&opts.count, "count", 0, "exit after printing this many envelopes (0: run until interrupted)")
	f.BoolVar(&opts.quiet, "quiet", false, "hide reconnect warnings")
	_ = cmd.MarkFlagRequired("url")

	return cmd
}

// envelopeLine is how an envelope is printed.
type envelopeLine struct {
	ReceivedAt time.Time       `json:"receivedAt"`
	Envelope   json.RawMessage `json:"envelope"`
}

func runConnect(ctx context.Context, out io.Writer, opts connectOptions) error {
	if _, err := realtime.EndpointURL(opts.url); err != nil {
		return err
	}
	if opts.quiet {
		// Must precede NewBinder, which captures the logger.
		logging.EnableSuppression(reconnectNoise...)
		defer logging.DisableSuppression()
	}

	header := http.Header{}
	if opts.cookie != "" {
		header.Set("Cookie", (&http.Cookie{Name: auth.DefaultCookieName, Value: opts.cookie}).String())
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu      sync.Mutex
		printed int
		werr    error
	)
	binder := realtime.NewBinder(realtime.Config{
		PageURL:          opts.url,
		Header:           header,
		HandshakeTimeout: 10 * time.Second,
		Policy: realtime.ReconnectPolicy{
			Delay:       opts.reconnectDelay,
			MaxAttempts: opts.maxAttempts,
		},
	})
	binder.OnMessage(func(env realtime.Envelope) {
		frame, err := realtime.Encode(env)
		if err != nil {
			return
		}
		line, err := json.Marshal(envelopeLine{ReceivedAt: time.Now().UTC(), Envelope: frame})
		if err != nil {
			return
		}

		mu.Lock()
		defer mu.Unlock()
		if opts.count > 0 && printed >= opts.count {
			return
		}
		if _, err := fmt.Fprintln(out, string(line)); err != nil && werr == nil {
			werr = err
			cancel()
			return
		}
		printed++
		if opts.count > 0 && printed >= opts.count {
			cancel()
		}
	})

	binder.Mount()
	defer binder.Unmount()
	logging.Info().Str("endpoint", binder.Endpoint()).Msg("connecting")

	watchErr := watchConnection(ctx, binder, opts.pingInterval)

	mu.Lock()
	defer mu.Unlock()
	if werr != nil {
		return fmt.Errorf("write output: %w", werr)
	}
	if watchErr != nil {
		return watchErr
	}
	if err := context.Cause(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// errGaveUp is returned once --max-attempts reconnects have failed.
var errGaveUp = errors.New("giving up: reconnect attempts exhausted")

// watchConnection pings on every transition to connected and, when
// interval is set, periodically while connected. It returns nil when ctx
// ends and errGaveUp when the binder stops retrying.
func watchConnection(ctx context.Context, b *realtime.Binder, interval time.Duration) error {
	poll := time.NewTicker(50 * time.Millisecond)
	defer poll.Stop()

	var (
		wasConnected bool
		lastPing     time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-poll.C:
			if b.GaveUp() {
				return errGaveUp
			}
			connected := b.IsConnected()
			switch {
			case connected && !wasConnected:
				b.Send(realtime.Envelope{Type: "ping"})
				lastPing = now
			case connected && interval > 0 && now.Sub(lastPing) >= interval:
				b.Send(realtime.Envelope{Type: "ping"})
				lastPing = now
			}
			wasConnected = connected
		}
	}
}
