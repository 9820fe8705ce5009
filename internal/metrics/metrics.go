package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	BlocksCommitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "indexer_blocks_committed_total", Help: "Blocks committed together with their checkpoint"},
		[]string{"indexer"},
	)
	TransfersIndexed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "indexer_transfers_indexed_total", Help: "Transfer events appended to the log"},
		[]string{"indexer"},
	)
	Invalidations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "indexer_invalidations_total", Help: "Invalidation notices received from the stream"},
		[]string{"indexer"},
	)
	ConsumerRestarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "indexer_consumer_restarts_total", Help: "Stream consumer restarts after transient termination"},
		[]string{"indexer"},
	)
	LastCommittedBlock = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "indexer_last_committed_block", Help: "Height of the last committed block"},
		[]string{"indexer"},
	)
	CommitDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "indexer_block_commit_duration_seconds", Help: "Block unit commit latency", Buckets: prometheus.DefBuckets},
		[]string{"indexer"},
	)
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "HTTP requests"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "Request latency", Buckets: prometheus.DefBuckets},
		[]string{"method", "path"},
	)
)

func init() {
	prometheus.MustRegister(
		BlocksCommitted,
		TransfersIndexed,
		Invalidations,
		ConsumerRestarts,
		LastCommittedBlock,
		CommitDuration,
		HTTPRequestsTotal,
		HTTPRequestDuration,
	)
}

// StatusLabel buckets an HTTP status code into its class.
func StatusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	default:
		return "unknown"
	}
}
