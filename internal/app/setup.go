package app

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/dexwatch/dexwatch/internal/analysis"
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

// New creates a new application instance.
func New(cfg *config.Config, logger *zap.Logger, opts *Options) (*App, error) {
	if opts == nil {
		opts = &Options{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	st, err := setupStore(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup store: %w", err)
	}

	err = st.EnsureSchema(ctx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	hotCache, err := setupHotCache(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup hot cache: %w", err)
	}

	durableCache := cache.New(st, logger)
	limiter := ratelimit.New(st, logger)
	bus := signalbus.New(st, logger)

	scorer := setupScorer(cfg, logger)
	orchestrator := setupOrchestrator(cfg, logger, limiter, durableCache, hotCache, bus, scorer)
	runner := setupRunner(cfg, logger, orchestrator, opts)

	healthChecker := setupHealthChecker(st)
	httpServer := setupHTTPServer(cfg, logger, healthChecker, bus)

	return &App{
		cfg:           cfg,
		logger:        logger,
		healthChecker: healthChecker,
		httpServer:    httpServer,
		store:         st,
		cache:         durableCache,
		hotCache:      hotCache,
		limiter:       limiter,
		bus:           bus,
		orchestrator:  orchestrator,
		runner:        runner,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

func setupStore(cfg *config.Config, logger *zap.Logger) (*store.Store, error) {
	return store.New(&store.Config{
		Host:         cfg.PostgresHost,
		Port:         cfg.PostgresPort,
		User:         cfg.PostgresUser,
		Password:     cfg.PostgresPass,
		Database:     cfg.PostgresDB,
		SSLMode:      cfg.PostgresSSL,
		QueryTimeout: cfg.QueryTimeout,
		Logger:       logger,
	})
}

func setupHotCache(cfg *config.Config, logger *zap.Logger) (*memcache.Cache, error) {
	return memcache.New(&memcache.Config{
		NumCounters: cfg.HotCacheCounters,
		MaxCost:     cfg.HotCacheMaxItems,
		BufferItems: 64,
		Logger:      logger,
	})
}

func setupScorer(cfg *config.Config, logger *zap.Logger) analysis.Scorer {
	if cfg.ScorerMode == "http" {
		return analysis.NewHTTPScorer(cfg.ScorerURL, cfg.ScorerTimeout, logger)
	}

	logger.Info("using-local-scorer",
		zap.String("mode", cfg.ScorerMode),
		zap.String("note", "heuristic detectors, no model service"))
	return analysis.NewLocalScorer()
}

func setupOrchestrator(
	cfg *config.Config,
	logger *zap.Logger,
	limiter *ratelimit.Limiter,
	durableCache *cache.Cache,
	hotCache *memcache.Cache,
	bus *signalbus.Bus,
	scorer analysis.Scorer,
) *pipeline.Orchestrator {
	return pipeline.New(
		pipeline.Config{
			RateIdentifier:  cfg.RateIdentifier,
			RateLimit:       cfg.RateLimit,
			RateWindow:      cfg.RateWindow,
			CacheTTL:        cfg.CacheTTL,
			SignalChannel:   cfg.SignalChannel,
			SignalThreshold: cfg.SignalThreshold,
			Logger:          logger,
		},
		limiter,
		durableCache,
		hotCache,
		bus,
		scorer,
	)
}

func setupRunner(cfg *config.Config, logger *zap.Logger, orchestrator *pipeline.Orchestrator, opts *Options) *ingest.Runner {
	feedURL := cfg.FeedURL
	if opts.FeedURL != "" {
		feedURL = opts.FeedURL
	}

	source := ingest.NewWSSource(&ingest.WSConfig{
		URL:         feedURL,
		DialTimeout: cfg.FeedDialTimeout,
		Logger:      logger,
	})

	return ingest.NewRunner(&ingest.RunnerConfig{
		Source:    source,
		Processor: orchestrator,
		RetryWait: cfg.FeedRetryWait,
		Logger:    logger,
	})
}

func setupHealthChecker(st *store.Store) *healthprobe.HealthChecker {
	return healthprobe.New(func(r *http.Request) error {
		return st.Ping(r.Context())
	})
}

func setupHTTPServer(
	cfg *config.Config,
	logger *zap.Logger,
	healthChecker *healthprobe.HealthChecker,
	bus *signalbus.Bus,
) *httpserver.Server {
	return httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: healthChecker,
		DepthReader:   bus,
	})
}
