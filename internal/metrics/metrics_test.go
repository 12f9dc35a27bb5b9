// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/matches", "200"))

	RecordAPIRequest("GET", "/api/matches", "200", 15*time.Millisecond)
	RecordAPIRequest("GET", "/api/matches", "200", 25*time.Millisecond)

	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/matches", "200"))
	if after-before != 2 {
		t.Errorf("request counter delta = %v, want 2", after-before)
	}
}

func TestAPIRequestDurationObserved(t *testing.T) {
	RecordAPIRequest("POST", "/api/discover/swipe", "201", 40*time.Millisecond)

	var m dto.Metric
	observer := APIRequestDuration.WithLabelValues("POST", "/api/discover/swipe")
	if err := observer.(interface{ Write(*dto.Metric) error }).Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	if m.GetHistogram().GetSampleCount() == 0 {
		t.Error("expected at least one duration sample")
	}
}

func TestTrackActiveRequest(t *testing.T) {
	start := testutil.ToFloat64(APIActiveRequests)

	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != start+1 {
		t.Errorf("after inc = %v, want %v", got, start+1)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != start {
		t.Errorf("after dec = %v, want %v", got, start)
	}
}

func TestRecordStoreQuery(t *testing.T) {
	errsBefore := testutil.ToFloat64(StoreQueryErrors.WithLabelValues("memory", "get_user"))

	RecordStoreQuery("memory", "get_user", time.Millisecond, nil)
	RecordStoreQuery("memory", "get_user", time.Millisecond, errors.New("boom"))

	if got := testutil.ToFloat64(StoreQueryErrors.WithLabelValues("memory", "get_user")) - errsBefore; got != 1 {
		t.Errorf("error delta = %v, want 1", got)
	}
}

func TestRecordEventPublish(t *testing.T) {
	okBefore := testutil.ToFloat64(EventsPublishedTotal.WithLabelValues("match.created", "ok"))
	errBefore := testutil.ToFloat64(EventsPublishedTotal.WithLabelValues("match.created", "error"))

	RecordEventPublish("match.created", nil)
	RecordEventPublish("match.created", errors.New("nats down"))

	if d := testutil.ToFloat64(EventsPublishedTotal.WithLabelValues("match.created", "ok")) - okBefore; d != 1 {
		t.Errorf("ok delta = %v, want 1", d)
	}
	if d := testutil.ToFloat64(EventsPublishedTotal.WithLabelValues("match.created", "error")) - errBefore; d != 1 {
		t.Errorf("error delta = %v, want 1", d)
	}
}

func TestRecordWSMessage(t *testing.T) {
	before := testutil.ToFloat64(WSMessagesTotal.WithLabelValues("out", "pong"))
	RecordWSMessage("out", "pong")
	if d := testutil.ToFloat64(WSMessagesTotal.WithLabelValues("out", "pong")) - before; d != 1 {
		t.Errorf("delta = %v, want 1", d)
	}
}
