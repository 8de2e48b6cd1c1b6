// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SearchRenders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roster_search_renders_total",
			Help: "Total number of search pages rendered per surface",
		},
		[]string{"surface"},
	)

	SearchRenderFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roster_search_render_failures_total",
			Help: "Total number of search renders that failed",
		},
		[]string{"surface", "error_code"},
	)

	FilterDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "roster_search_filter_duration_seconds",
			Help:    "Duration of filtering a roster in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		},
		[]string{"surface"},
	)

	MatchedItems = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "roster_search_matched_items",
			Help: "Number of records matching the current query",
		},
		[]string{"surface"},
	)

	StateWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roster_search_state_writes_total",
			Help: "Total number of query state writes by outcome",
		},
		[]string{"namespace", "outcome"},
	)

	StateRestoreFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roster_search_state_restore_fallbacks_total",
			Help: "Persisted query state fields replaced by their default during restore",
		},
		[]string{"namespace", "field"},
	)

	LocationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roster_search_location_failures_total",
			Help: "Total number of failed current-location requests",
		},
		[]string{"error_code"},
	)
)
