// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labscore_submissions_total",
			Help: "Total number of accepted submission writes",
		},
		[]string{"kind", "action"},
	)

	FlagRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labscore_flag_rejections_total",
			Help: "Flag submissions that were rejected",
		},
		[]string{"reason"},
	)

	BoardCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labscore_board_cache_total",
			Help: "Ranked board cache lookups by result",
		},
		[]string{"result"},
	)

	BoardBuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "labscore_board_build_duration_seconds",
			Help:    "Time spent loading and building a view",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"view"},
	)

	BoardEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "labscore_board_entries",
			Help: "Number of ranked groups in the last built board",
		},
		[]string{"lab"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)
