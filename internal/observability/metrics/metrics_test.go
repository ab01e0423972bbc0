package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestLeadMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLeadMetrics(reg)

	m.ObserveOutcome("succeeded", "")
	m.ObserveOutcome("rejected", "phone")
	m.ObserveOutcome("rejected", "phone")
	m.ObserveHandler("owner-email", nil)
	m.ObserveHandler("owner-email", errors.New("boom"))
	m.ObserveEmail("customer", nil)
	m.ObserveSink(0.2, nil)
	m.ObserveHTTP("POST", "/leads", "200", 0.05)

	if got := testutil.ToFloat64(m.outcomesTotal.WithLabelValues("rejected", "phone")); got != 2 {
		t.Fatalf("expected 2 rejected phone submissions, got %v", got)
	}
	if got := testutil.ToFloat64(m.handlersTotal.WithLabelValues("owner-email", "error")); got != 1 {
		t.Fatalf("expected 1 failed handler run, got %v", got)
	}
	if got := testutil.ToFloat64(m.emailsTotal.WithLabelValues("customer", "ok")); got != 1 {
		t.Fatalf("expected 1 customer email, got %v", got)
	}
	if got := testutil.CollectAndCount(m.sinkLatency); got != 1 {
		t.Fatalf("expected 1 sink latency series, got %d", got)
	}
}

func TestLeadMetricsDefaultRegistry(t *testing.T) {
	m := NewLeadMetrics(nil)
	m.ObserveOutcome("discarded", "")
	prometheus.DefaultRegisterer.Unregister(m.outcomesTotal)
	prometheus.DefaultRegisterer.Unregister(m.sinkLatency)
	prometheus.DefaultRegisterer.Unregister(m.handlersTotal)
	prometheus.DefaultRegisterer.Unregister(m.emailsTotal)
	prometheus.DefaultRegisterer.Unregister(m.httpLatency)
}

func TestLeadMetricsNilSafe(t *testing.T) {
	var m *LeadMetrics
	m.ObserveOutcome("succeeded", "")
	m.ObserveSink(0.1, nil)
	m.ObserveHandler("sqs", nil)
	m.ObserveEmail("owner", nil)
	m.ObserveHTTP("GET", "/health", "200", 0.01)
}
