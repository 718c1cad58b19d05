// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring booksearch.
package observability

import "github.com/prometheus/client_golang/prometheus"

// SearchBuckets covers query latencies from 1ms to 10s; the upper end is
// dominated by remote embedding calls.
var SearchBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

var (
	// RequestsTotal counts HTTP requests by method and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booksearch_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by method.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "booksearch_request_duration_seconds",
			Help:    "Request duration",
			Buckets: SearchBuckets,
		},
		[]string{"method"},
	)

	// SearchesTotal counts searches by outcome: ok, empty, invalid,
	// unavailable or error.
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booksearch_searches_total",
			Help: "Searches",
		},
		[]string{"status"},
	)

	// SearchDuration records end-to-end search latency in seconds.
	SearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "booksearch_search_duration_seconds",
			Help:    "Search duration",
			Buckets: SearchBuckets,
		},
	)

	// EmbedBatchesTotal counts embedding batches sent during index builds.
	EmbedBatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booksearch_embed_batches_total",
			Help: "Embedding batches",
		},
		[]string{"model", "status"},
	)

	// BuildsTotal counts index builds by mode (reuse or rebuild).
	BuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booksearch_builds_total",
			Help: "Index builds",
		},
		[]string{"mode"},
	)

	// IndexedChunks reports the number of chunks in the open store.
	IndexedChunks = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "booksearch_indexed_chunks",
			Help: "Indexed chunks",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		SearchesTotal,
		SearchDuration,
		EmbedBatchesTotal,
		BuildsTotal,
		IndexedChunks,
	)
}
