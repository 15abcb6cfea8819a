package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	indexOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mmsearch_index_op_duration_seconds",
			Help:    "Duration of index engine operations by operation and outcome.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"op", "outcome"},
	)

	indexBulkChunkSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mmsearch_index_bulk_chunk_size",
			Help:    "Number of documents per bulk-insert chunk.",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 200, 500},
		},
	)
)

// ObserveIndexOp records the duration and outcome of an index engine
// operation (search, insert, bulk_insert, list, delete_all).
func ObserveIndexOp(op string, err error, d time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	indexOpDuration.WithLabelValues(op, outcome).Observe(d.Seconds())
}

// ObserveBulkChunkSize records the size of a bulk-insert chunk.
func ObserveBulkChunkSize(n int) {
	indexBulkChunkSize.Observe(float64(n))
}
