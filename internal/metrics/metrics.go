// Package metrics exposes prometheus counters for remote calls made on
// behalf of managed bots.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "telebot"

// Metrics holds the application collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	polls                *prometheus.CounterVec
	discoveries          prometheus.Counter
	confirmationFailures prometheus.Counter
	sends                *prometheus.CounterVec
	lookups              *prometheus.CounterVec
	activePollers        prometheus.Gauge
}

// New creates a Metrics instance on its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "polls_total",
			Help:      "getUpdates calls made by chat discovery, by outcome.",
		}, []string{"outcome"}),
		discoveries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "chats_found_total",
			Help:      "Chats discovered.",
		}),
		confirmationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "confirmation_failures_total",
			Help:      "Confirmation messages that could not be delivered after a discovery.",
		}),
		sends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "telegram",
			Name:      "messages_sent_total",
			Help:      "Messages sent through the dashboard, by outcome.",
		}, []string{"outcome"}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "telegram",
			Name:      "identity_lookups_total",
			Help:      "getMe lookups, by outcome.",
		}, []string{"outcome"}),
		activePollers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "active_pollers",
			Help:      "Discovery activations currently polling.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.polls, m.discoveries, m.confirmationFailures, m.sends, m.lookups, m.activePollers,
	)
	return m
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Poll records one discovery fetch.
func (m *Metrics) Poll(err error) {
	if m == nil {
		return
	}
	m.polls.WithLabelValues(outcome(err)).Inc()
}

// Discovered records a found chat.
func (m *Metrics) Discovered() {
	if m == nil {
		return
	}
	m.discoveries.Inc()
}

// ConfirmationFailed records a swallowed confirmation send failure.
func (m *Metrics) ConfirmationFailed() {
	if m == nil {
		return
	}
	m.confirmationFailures.Inc()
}

// Sent records a user-triggered message send.
func (m *Metrics) Sent(err error) {
	if m == nil {
		return
	}
	m.sends.WithLabelValues(outcome(err)).Inc()
}

// Lookup records a getMe call.
func (m *Metrics) Lookup(err error) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(outcome(err)).Inc()
}

// PollerStarted and PollerStopped track running activations.
func (m *Metrics) PollerStarted() {
	if m == nil {
		return
	}
	m.activePollers.Inc()
}

func (m *Metrics) PollerStopped() {
	if m == nil {
		return
	}
	m.activePollers.Dec()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
