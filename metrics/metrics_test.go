package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersByLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveLogin(nil)
	m.ObserveLogin(errors.New("denied"))
	m.ObserveLogin(errors.New("denied"))
	m.ObserveSend(nil)
	m.ReadFailed("conversation_list")
	m.Pushed("message")
	m.Pushed("message")

	if got := testutil.ToFloat64(m.Logins.WithLabelValues(ResultOK)); got != 1 {
		t.Fatalf("expected 1 successful login, got %v", got)
	}
	if got := testutil.ToFloat64(m.Logins.WithLabelValues(ResultError)); got != 2 {
		t.Fatalf("expected 2 failed logins, got %v", got)
	}
	if got := testutil.ToFloat64(m.Sends.WithLabelValues(ResultOK)); got != 1 {
		t.Fatalf("expected 1 successful send, got %v", got)
	}
	if got := testutil.ToFloat64(m.ReadFailures.WithLabelValues("conversation_list")); got != 1 {
		t.Fatalf("expected 1 read failure, got %v", got)
	}
	if got := testutil.ToFloat64(m.PushEvents.WithLabelValues("message")); got != 2 {
		t.Fatalf("expected 2 message pushes, got %v", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	if len(families) != 4 {
		t.Fatalf("expected 4 metric families, got %d", len(families))
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveLogin(nil)
	m.ObserveSend(errors.New("x"))
	m.ReadFailed("message_list")
	m.Pushed("status")
}

func TestNewWithoutRegistry(t *testing.T) {
	m := New(nil)
	m.ObserveSend(nil)
	if got := testutil.ToFloat64(m.Sends.WithLabelValues(ResultOK)); got != 1 {
		t.Fatalf("expected unregistered counter to still count, got %v", got)
	}
}
