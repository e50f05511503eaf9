package signalbus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// PublishedTotal tracks messages appended per channel.
	PublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dexwatch_bus_published_total",
			Help: "Total number of signal messages published",
		},
		[]string{"channel"},
	)

	// ConsumedTotal tracks messages dequeued per channel.
	ConsumedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dexwatch_bus_consumed_total",
			Help: "Total number of signal messages consumed",
		},
		[]string{"channel"},
	)

	// WakeupsTotal tracks subscriber wake-ups by source (notify or poll).
	WakeupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dexwatch_bus_wakeups_total",
			Help: "Total number of subscriber wake-ups",
		},
		[]string{"channel", "source"},
	)

	// HandlerErrorsTotal tracks handler failures on consumed messages.
	HandlerErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dexwatch_bus_handler_errors_total",
			Help: "Total number of message handler failures",
		},
		[]string{"channel"},
	)
)
