package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	enrichmentSubgraphDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mmsearch_enrichment_subgraph_duration_seconds",
			Help:    "Duration of one enrichment subgraph run by modality and outcome.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"modality", "outcome"},
	)

	enrichmentRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mmsearch_enrichment_runs_total",
			Help: "Total enrichment pipeline runs by outcome.",
		},
		[]string{"outcome"},
	)
)

// ObserveSubgraph records a single per-modality subgraph run.
func ObserveSubgraph(modality string, err error, d time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	enrichmentSubgraphDuration.WithLabelValues(modality, outcome).Observe(d.Seconds())
}

// ObserveEnrichmentRun records one whole-item enrichment pipeline run.
func ObserveEnrichmentRun(err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	enrichmentRunsTotal.WithLabelValues(outcome).Inc()
}
