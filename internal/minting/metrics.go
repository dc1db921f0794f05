package minting

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts certified-mint outcomes. A nil *Metrics disables recording.
type Metrics struct {
	Minted   prometheus.Counter
	Rejected *prometheus.CounterVec
}

// NewMetrics creates and registers all issuance metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		Minted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "h2ledger_certified_mints_total",
			Help: "Certified mint requests that resulted in issuance",
		}),
		Rejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "h2ledger_certified_mint_rejections_total",
			Help: "Certified mint requests rejected before issuance, by reason",
		}, []string{"reason"}),
	}
}

func (m *Metrics) IncMinted() {
	if m == nil {
		return
	}
	m.Minted.Inc()
}

func (m *Metrics) IncRejected(reason string) {
	if m == nil {
		return
	}
	m.Rejected.WithLabelValues(reason).Inc()
}
