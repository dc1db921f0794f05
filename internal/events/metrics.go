package events

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the event pipeline.
type Metrics struct {
	Emitted        *prometheus.CounterVec
	AppendFailures prometheus.Counter
	Relayed        prometheus.Counter
	RelayFailures  prometheus.Counter
}

// NewMetrics creates and registers all event pipeline metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		Emitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "h2ledger_events_emitted_total",
			Help: "Total events emitted by the ledger core, by type",
		}, []string{"type"}),
		AppendFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "h2ledger_events_append_failures_total",
			Help: "Total failures appending events to the outbox",
		}),
		Relayed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "h2ledger_events_relayed_total",
			Help: "Total outbox events published to the broker",
		}),
		RelayFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "h2ledger_events_relay_failures_total",
			Help: "Total failures publishing outbox events to the broker",
		}),
	}
}

func (m *Metrics) IncEmitted(eventType string) {
	if m != nil {
		m.Emitted.WithLabelValues(eventType).Inc()
	}
}

func (m *Metrics) IncAppendFailures() {
	if m != nil {
		m.AppendFailures.Inc()
	}
}

func (m *Metrics) IncRelayed() {
	if m != nil {
		m.Relayed.Inc()
	}
}

func (m *Metrics) IncRelayFailures() {
	if m != nil {
		m.RelayFailures.Inc()
	}
}
