package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// EventsReceivedTotal tracks frames decoded into pair events.
	EventsReceivedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dexwatch_ingest_events_received_total",
		Help: "Total number of pair events received from the feed",
	})

	// MalformedFramesTotal tracks frames dropped at decode.
	MalformedFramesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dexwatch_ingest_malformed_frames_total",
		Help: "Total number of malformed feed frames dropped",
	})

	// ConnectFailuresTotal tracks failed feed connection attempts.
	ConnectFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dexwatch_ingest_connect_failures_total",
		Help: "Total number of failed feed connection attempts",
	})
)
