// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	InsightsRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insights_requests_total",
			Help: "Total number of insight requests by transport and outcome",
		},
		[]string{"transport", "status"},
	)

	InsightsFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insights_failures_total",
			Help: "Total number of failed insight requests by error code",
		},
		[]string{"error_code"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "insights_stage_duration_seconds",
			Help: "Duration of each pipeline stage in seconds",
		},
		[]string{"stage"},
	)

	RowsScanned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "insights_rows_scanned",
			Help:    "Source rows examined per request",
			Buckets: []float64{10, 100, 1000, 5000, 10000, 15001},
		},
	)

	SampleSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "insights_sample_size",
			Help:    "Matched records collected per request",
			Buckets: prometheus.LinearBuckets(0, 1, 11),
		},
	)

	GenerationCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insights_generation_calls_total",
			Help: "Narrative requests by whether the model was invoked or skipped",
		},
		[]string{"outcome"},
	)
)
