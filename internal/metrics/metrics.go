// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP API
var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mix_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mix_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mix_api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mix_api_rate_limit_hits_total",
			Help: "Total number of requests rejected by a rate limiter",
		},
		[]string{"group"},
	)
)

// Server-side WebSocket hub
var (
	WSConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mix_ws_connections_active",
			Help: "Current number of open /ws connections",
		},
	)

	WSMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mix_ws_messages_total",
			Help: "WebSocket messages by direction (in/out) and envelope type",
		},
		[]string{"direction", "type"},
	)

	WSDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mix_ws_dropped_total",
			Help: "Inbound or outbound WebSocket messages dropped, by reason",
		},
		[]string{"reason"},
	)
)

// Realtime client (reconnecting binder)
var (
	RealtimeReconnectsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mix_realtime_reconnects_total",
			Help: "Reconnect attempts scheduled by realtime binders",
		},
	)

	RealtimeDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mix_realtime_dropped_total",
			Help: "Frames dropped by realtime binders (malformed, disconnected)",
		},
		[]string{"reason"},
	)
)

// Back-office audit trail
var (
	AuditEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mix_audit_events_total",
			Help: "Audit events stored, by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	AuditDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mix_audit_dropped_total",
			Help: "Audit events dropped because the buffer was full",
		},
	)
)

// Dating domain
var (
	SwipesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mix_swipes_total",
			Help: "Swipes recorded, by action",
		},
		[]string{"action"},
	)

	MatchesCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mix_matches_created_total",
			Help: "Mutual likes that produced a match",
		},
	)

	MessagesSentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mix_messages_sent_total",
			Help: "Chat messages stored",
		},
	)

	ReportsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mix_reports_total",
			Help: "User reports filed",
		},
	)
)

// Auth and sessions
var (
	SessionsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mix_sessions_created_total",
			Help: "Sessions created, by sign-in provider",
		},
		[]string{"provider"},
	)

	SessionsExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mix_sessions_expired_total",
			Help: "Expired sessions removed by the cleanup loop",
		},
	)

	AuthFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mix_auth_failures_total",
			Help: "Rejected authentication attempts, by reason",
		},
		[]string{"reason"},
	)
)

// Event bus and storage
var (
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mix_events_published_total",
			Help: "Domain events published, by topic and outcome",
		},
		[]string{"topic", "outcome"},
	)

	EventsHandledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mix_events_handled_total",
			Help: "Domain events consumed by the realtime forwarder, by topic",
		},
		[]string{"topic"},
	)

	EventsDuplicatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mix_events_duplicates_total",
			Help: "Redelivered domain events skipped by the realtime forwarder, by topic",
		},
		[]string{"topic"},
	)

	EventsDeferredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mix_events_deferred_total",
			Help: "Domain events kept in the write-ahead log after a failed publish, by topic",
		},
		[]string{"topic"},
	)

	EventsReplayedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mix_events_replayed_total",
			Help: "Write-ahead log replay outcomes (published, failed, dropped)",
		},
		[]string{"result"},
	)

	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mix_store_query_duration_seconds",
			Help:    "Duration of store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)

	StoreQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mix_store_query_errors_total",
			Help: "Failed store operations",
		},
		[]string{"backend", "operation"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mix_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

// RecordAPIRequest records one completed HTTP request. route should be the
// chi route pattern, not the raw path, to keep label cardinality bounded.
func RecordAPIRequest(method, route, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordWSMessage counts a hub message. direction is "in" or "out".
func RecordWSMessage(direction, msgType string) {
	WSMessagesTotal.WithLabelValues(direction, msgType).Inc()
}

// RecordStoreQuery records the outcome of a store call.
func RecordStoreQuery(backend, operation string, duration time.Duration, err error) {
	StoreQueryDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
	if err != nil {
		StoreQueryErrors.WithLabelValues(backend, operation).Inc()
	}
}

// RecordEventPublish counts a publish attempt.
func RecordEventPublish(topic string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	EventsPublishedTotal.WithLabelValues(topic, outcome).Inc()
}
