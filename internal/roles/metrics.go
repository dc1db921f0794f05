package roles

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the role registry.
type Metrics struct {
	Granted  *prometheus.CounterVec
	Rejected *prometheus.CounterVec
}

// NewMetrics creates and registers all role registry metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		Granted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "h2ledger_roles_granted_total",
			Help: "Total successful role grants, by role",
		}, []string{"role"}),
		Rejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "h2ledger_roles_rejected_total",
			Help: "Total rejected role grants, by role and reason",
		}, []string{"role", "reason"}),
	}
}

func (m *Metrics) IncGranted(role string) {
	if m != nil {
		m.Granted.WithLabelValues(role).Inc()
	}
}

func (m *Metrics) IncRejected(role, reason string) {
	if m != nil {
		m.Rejected.WithLabelValues(role, reason).Inc()
	}
}
