package ratelimit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// AllowedTotal tracks admissions per identifier.
	AllowedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dexwatch_ratelimit_allowed_total",
			Help: "Total number of admitted rate limit checks",
		},
		[]string{"identifier"},
	)

	// DeniedTotal tracks denials per identifier.
	DeniedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dexwatch_ratelimit_denied_total",
			Help: "Total number of denied rate limit checks",
		},
		[]string{"identifier"},
	)
)
