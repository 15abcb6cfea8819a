package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	workerDispatchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mmsearch_worker_dispatched_total",
			Help: "Total tasks dispatched by the worker loop by kind.",
		},
		[]string{"kind"},
	)

	workerQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mmsearch_worker_queue_depth",
			Help: "Number of pending tasks observed at the start of the most recent sweep.",
		},
	)

	workerCycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mmsearch_worker_cycle_duration_seconds",
			Help:    "Duration of one worker sweep (list-pending + dispatch + await).",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
	)
)

// RecordDispatch records one task dispatched for processing.
func RecordDispatch(kind string) {
	workerDispatchedTotal.WithLabelValues(kind).Inc()
}

// SetQueueDepth records the number of pending tasks seen at sweep start.
func SetQueueDepth(n int) {
	workerQueueDepth.Set(float64(n))
}

// ObserveCycle records the total duration of one worker sweep.
func ObserveCycle(d time.Duration) {
	workerCycleDuration.Observe(d.Seconds())
}
