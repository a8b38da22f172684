package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "gymdex"

// Search and index synchronization metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Total number of search and autocomplete requests",
		},
		[]string{"kind", "status"}, // kind: "search" / "autocomplete"
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Index query duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 1.5, 2.5},
		},
		[]string{"kind"},
	)

	SyncOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_operations_total",
			Help:      "Index synchronizer decisions applied",
		},
		[]string{"source", "action", "status"}, // source: "reindex" / "upsert" / "event"
	)

	ReindexDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reindex_documents_total",
			Help:      "Documents submitted by bulk reindex runs",
		},
		[]string{"status"},
	)
)

// Status label values.
const (
	StatusOK          = "ok"
	StatusError       = "error"
	StatusUnavailable = "unavailable"
)

var registerOnce sync.Once

// RegisterGymdexMetrics registers search and sync metrics with the default registry.
// Safe to call more than once.
func RegisterGymdexMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			SearchRequestsTotal,
			SearchDuration,
			SyncOperationsTotal,
			ReindexDocumentsTotal,
		)
	})
}
