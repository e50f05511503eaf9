package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// HitsTotal tracks durable cache hits.
	HitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dexwatch_cache_hits_total",
		Help: "Total number of durable cache hits",
	})

	// MissesTotal tracks durable cache misses, including expired entries.
	MissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dexwatch_cache_misses_total",
		Help: "Total number of durable cache misses",
	})

	// SetsTotal tracks durable cache upserts.
	SetsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dexwatch_cache_sets_total",
		Help: "Total number of durable cache sets",
	})

	// SweptRowsTotal tracks expired rows reclaimed by the background sweep.
	SweptRowsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dexwatch_cache_swept_rows_total",
		Help: "Total number of expired cache rows reclaimed",
	})
)
