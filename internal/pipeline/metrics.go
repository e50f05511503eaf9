package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// EventsProcessedTotal tracks events that completed full analysis.
	EventsProcessedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dexwatch_pipeline_events_processed_total",
		Help: "Total number of events fully analyzed",
	})

	// EventsMemoizedTotal tracks events answered from cache.
	EventsMemoizedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dexwatch_pipeline_events_memoized_total",
		Help: "Total number of events answered from cached analysis",
	})

	// EventsDroppedTotal tracks dropped events by reason.
	EventsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dexwatch_pipeline_events_dropped_total",
			Help: "Total number of events dropped",
		},
		[]string{"reason"},
	)

	// SignalsPublishedTotal tracks signal-worthy records published.
	SignalsPublishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dexwatch_pipeline_signals_published_total",
		Help: "Total number of trading signals published",
	})

	// PublishFailuresTotal tracks records cached but not emitted.
	PublishFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dexwatch_pipeline_publish_failures_total",
		Help: "Total number of signal publish failures",
	})

	// ProcessDurationSeconds tracks per-event pipeline latency.
	ProcessDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dexwatch_pipeline_process_duration_seconds",
		Help:    "Duration of per-event pipeline processing",
		Buckets: prometheus.DefBuckets,
	})
)
