package server

import "github.com/prometheus/client_golang/prometheus"

// lifecycleOps counts controller operations by type and outcome.
var lifecycleOps = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gvmd_lifecycle_operations_total",
		Help: "Lifecycle operations by operation and outcome.",
	},
	[]string{"operation", "outcome"},
)

func init() {
	prometheus.MustRegister(lifecycleOps)
}

// observeOp records the outcome of one lifecycle operation.
func observeOp(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	lifecycleOps.WithLabelValues(operation, outcome).Inc()
}
