package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var taskStoreOpDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "mmsearch_taskstore_op_duration_seconds",
		Help:    "Duration of task store (Redis) operations by operation and outcome.",
		Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
	},
	[]string{"op", "outcome"},
)

// ObserveTaskStoreOp records the duration and outcome of a task store
// operation (put, get, delete, set_add, set_remove, set_members).
func ObserveTaskStoreOp(op string, err error, d time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	taskStoreOpDuration.WithLabelValues(op, outcome).Observe(d.Seconds())
}
