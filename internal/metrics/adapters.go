// Package metrics provides Prometheus instrumentation shared across model
// adapters, the enrichment pipeline, the index engine, the task store, the
// task manager, and the worker loop.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	adapterCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mmsearch_adapter_call_duration_seconds",
			Help:    "Duration of model adapter calls by adapter and outcome.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"adapter", "outcome"},
	)

	adapterErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mmsearch_adapter_errors_total",
			Help: "Total model adapter failures by adapter and error kind.",
		},
		[]string{"adapter", "kind"},
	)
)

// ObserveAdapterCall records the duration and outcome of a single adapter
// invocation. outcome is "success" or "error"; on error, kind additionally
// records the apierr taxonomy kind.
func ObserveAdapterCall(adapter string, err error, kind string, d time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "error"
		adapterErrorsTotal.WithLabelValues(adapter, kind).Inc()
	}
	adapterCallDuration.WithLabelValues(adapter, outcome).Observe(d.Seconds())
}
