package registry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts registry operations by outcome.
type Metrics struct {
	ops *prometheus.CounterVec
}

// NewMetrics registers the registry collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	ops := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_registry_operations_total",
			Help: "Asset registry operations by operation and outcome",
		},
		[]string{"op", "outcome"},
	)
	reg.MustRegister(ops)
	return &Metrics{ops: ops}
}

func (m *Metrics) observe(op string, err error) {
	if m == nil {
		return
	}
	m.ops.WithLabelValues(op, outcome(err)).Inc()
}
