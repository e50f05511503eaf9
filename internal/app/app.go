package app

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/dexwatch/dexwatch/internal/cache"
	"github.com/dexwatch/dexwatch/internal/ingest"
	"github.com/dexwatch/dexwatch/internal/pipeline"
	"github.com/dexwatch/dexwatch/internal/ratelimit"
	"github.com/dexwatch/dexwatch/internal/signalbus"
	"github.com/dexwatch/dexwatch/internal/store"
	"github.com/dexwatch/dexwatch/pkg/config"
	"github.com/dexwatch/dexwatch/pkg/healthprobe"
	"github.com/dexwatch/dexwatch/pkg/httpserver"
	"github.com/dexwatch/dexwatch/pkg/memcache"
)

// App is the main application orchestrator.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server
	store         *store.Store
	cache         *cache.Cache
	hotCache      *memcache.Cache
	limiter       *ratelimit.Limiter
	bus           *signalbus.Bus
	orchestrator  *pipeline.Orchestrator
	runner        *ingest.Runner
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}

// Options holds application options.
type Options struct {
	FeedURL string // overrides the configured feed, for debugging
}
