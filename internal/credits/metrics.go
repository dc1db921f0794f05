package credits

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the credit ledger.
type Metrics struct {
	Minted      prometheus.Counter
	Transferred prometheus.Counter
	Retired     prometheus.Counter
	MintBatch   prometheus.Histogram
	PausedState prometheus.Gauge
}

// NewMetrics creates and registers all credit ledger metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		Minted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "h2ledger_credits_minted_total",
			Help: "Total credits minted",
		}),
		Transferred: promauto.NewCounter(prometheus.CounterOpts{
			Name: "h2ledger_credits_transferred_total",
			Help: "Total credit transfers",
		}),
		Retired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "h2ledger_credits_retired_total",
			Help: "Total credits retired",
		}),
		MintBatch: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "h2ledger_credits_mint_batch_size",
			Help:    "Distribution of mint batch sizes",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),
		PausedState: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "h2ledger_paused",
			Help: "1 while the circuit breaker is engaged, 0 otherwise",
		}),
	}
}

func (m *Metrics) ObserveMint(batchSize int) {
	if m != nil {
		m.Minted.Add(float64(batchSize))
		m.MintBatch.Observe(float64(batchSize))
	}
}

func (m *Metrics) IncTransferred() {
	if m != nil {
		m.Transferred.Inc()
	}
}

func (m *Metrics) IncRetired() {
	if m != nil {
		m.Retired.Inc()
	}
}

func (m *Metrics) SetPaused(paused bool) {
	if m == nil {
		return
	}
	if paused {
		m.PausedState.Set(1)
	} else {
		m.PausedState.Set(0)
	}
}
