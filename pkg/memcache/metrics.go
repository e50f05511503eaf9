package memcache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	HitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dexwatch_memcache_hits_total",
		Help: "Total number of in-process cache hits",
	})

	MissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dexwatch_memcache_misses_total",
		Help: "Total number of in-process cache misses",
	})

	SetsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dexwatch_memcache_sets_total",
		Help: "Total number of in-process cache sets",
	})
)
