package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RenderStates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hydrate_render_state_total",
			Help: "Number of renders that reached each state",
		},
		[]string{"state"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hydrate_cache_lookups_total",
			Help: "Bundle cache lookups by result",
		},
		[]string{"result"},
	)

	BuildCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hydrate_build_count",
			Help: "Total number of hydration bundle builds started",
		},
	)

	BuildFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hydrate_build_failed",
			Help: "Number of times a hydration bundle has failed to build",
		},
		[]string{"error_type"},
	)

	BuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hydrate_build_duration_seconds",
			Help:    "Hydration bundle build duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.2, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	BuildsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hydrate_builds_in_flight",
			Help: "Number of hydration bundle builds currently running",
		},
	)

	DocumentAdapters = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hydrate_document_adapter_total",
			Help: "Documents assembled per detected style adapter",
		},
		[]string{"adapter"},
	)
)
