// Package metrics holds the Prometheus collectors for session activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "imchat"

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics groups the counters updated by the gateway. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Logins       *prometheus.CounterVec
	Sends        *prometheus.CounterVec
	ReadFailures *prometheus.CounterVec
	PushEvents   *prometheus.CounterVec
}

// New creates the collectors and registers them with reg when reg is non-nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		Sends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sends_total",
			Help:      "Text message sends by result.",
		}, []string{"result"}),
		ReadFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "read_failures_total",
			Help:      "Provider read operations that failed and returned an empty result.",
		}, []string{"op"}),
		PushEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "push_events_total",
			Help:      "Provider push notifications by kind.",
		}, []string{"kind"}),
	}

	if reg != nil {
		reg.MustRegister(m.Logins, m.Sends, m.ReadFailures, m.PushEvents)
	}
	return m
}

// ObserveLogin counts one login attempt.
func (m *Metrics) ObserveLogin(err error) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(result(err)).Inc()
}

// ObserveSend counts one send attempt.
func (m *Metrics) ObserveSend(err error) {
	if m == nil {
		return
	}
	m.Sends.WithLabelValues(result(err)).Inc()
}

// ReadFailed counts one swallowed read failure for op.
func (m *Metrics) ReadFailed(op string) {
	if m == nil {
		return
	}
	m.ReadFailures.WithLabelValues(op).Inc()
}

// Pushed counts one provider push of kind.
func (m *Metrics) Pushed(kind string) {
	if m == nil {
		return
	}
	m.PushEvents.WithLabelValues(kind).Inc()
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
