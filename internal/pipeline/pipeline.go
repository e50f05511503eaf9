package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dexwatch/dexwatch/internal/analysis"
	"github.com/dexwatch/dexwatch/pkg/memcache"
	"github.com/dexwatch/dexwatch/pkg/types"
)

// Cache is the durable memoization store for analysis records.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Limiter throttles the ingestion path.
type Limiter interface {
	Allow(ctx context.Context, identifier string, limit int, window time.Duration) (bool, error)
}

// Publisher appends actionable signals to the bus.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Config holds orchestrator policy.
type Config struct {
	RateIdentifier  string
	RateLimit       int
	RateWindow      time.Duration
	CacheTTL        time.Duration
	SignalChannel   string
	SignalThreshold float64 // a detector score at or below this warrants a signal
	Logger          *zap.Logger
}

// Orchestrator sequences rate-limit check, cache lookup, scoring, cache
// store and signal publish for each incoming pair event. It holds no
// durable state of its own; any number of instances may run against the
// same store.
type Orchestrator struct {
	cfg     Config
	limiter Limiter
	cache   Cache
	hot     *memcache.Cache // optional in-process layer, nil disables
	bus     Publisher
	scorer  analysis.Scorer
	logger  *zap.Logger
}

// New creates an orchestrator. hot may be nil.
func New(cfg Config, limiter Limiter, cache Cache, hot *memcache.Cache, bus Publisher, scorer analysis.Scorer) *Orchestrator {
	return &Orchestrator{
		cfg:     cfg,
		limiter: limiter,
		cache:   cache,
		hot:     hot,
		bus:     bus,
		scorer:  scorer,
		logger:  cfg.Logger,
	}
}

// Process runs one event through the state machine. Per-event failures
// (analysis, publish) are contained here: logged, counted, and the event
// dropped. Store unavailability is the one error that escapes, so the
// ingestion loop can notice a total outage and back off.
func (o *Orchestrator) Process(ctx context.Context, event types.PairEvent) (*types.AnalysisRecord, error) {
	start := time.Now()
	defer func() {
		ProcessDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	allowed, err := o.limiter.Allow(ctx, o.cfg.RateIdentifier, o.cfg.RateLimit, o.cfg.RateWindow)
	if err != nil {
		return nil, fmt.Errorf("rate check: %w", err)
	}
	if !allowed {
		// Dropped silently: denial is normal control flow, not an error.
		EventsDroppedTotal.WithLabelValues("rate_limited").Inc()
		o.logger.Debug("event-rate-limited",
			zap.String("address", event.Address),
			zap.String("identifier", o.cfg.RateIdentifier))
		return nil, nil
	}

	key := event.Fingerprint()

	if o.hot != nil {
		if rec, ok := o.hot.GetRecord(key); ok {
			EventsMemoizedTotal.Inc()
			return rec, nil
		}
	}

	raw, found, err := o.cache.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("cache lookup: %w", err)
	}
	if found {
		var rec types.AnalysisRecord
		err = json.Unmarshal(raw, &rec)
		if err != nil {
			// A corrupt entry is treated as a miss; the fresh record
			// overwrites it below.
			o.logger.Warn("cached-record-corrupt",
				zap.String("key", key),
				zap.Error(err))
		} else {
			EventsMemoizedTotal.Inc()
			if o.hot != nil {
				// The hot copy must not outlive the durable row: arm it
				// with the entry's remaining life, not a fresh TTL.
				remaining := time.Until(rec.Timestamp.Add(o.cfg.CacheTTL))
				if remaining > 0 {
					o.hot.SetRecord(key, &rec, remaining)
				}
			}
			return &rec, nil
		}
	}

	rec, err := o.analyze(ctx, event)
	if err != nil {
		EventsDroppedTotal.WithLabelValues("analysis_failure").Inc()
		o.logger.Error("analysis-failed",
			zap.String("address", event.Address),
			zap.String("key", key),
			zap.Error(err))
		return nil, nil
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		EventsDroppedTotal.WithLabelValues("analysis_failure").Inc()
		o.logger.Error("record-marshal-failed",
			zap.String("address", event.Address),
			zap.Error(err))
		return nil, nil
	}

	err = o.cache.Set(ctx, key, payload, o.cfg.CacheTTL)
	if err != nil {
		o.logger.Error("cache-store-failed",
			zap.String("key", key),
			zap.Error(err))
		if errors.Is(err, types.ErrStoreUnavailable) {
			return nil, err
		}
		EventsDroppedTotal.WithLabelValues("cache_store_failure").Inc()
		return nil, nil
	}
	if o.hot != nil {
		o.hot.SetRecord(key, rec, o.cfg.CacheTTL)
	}

	if rec.Signal {
		err = o.bus.Publish(ctx, o.cfg.SignalChannel, payload)
		if err != nil {
			// The record stays cached even though the signal was not
			// emitted; operators accept that inconsistency over losing
			// the analysis.
			pubErr := &types.PublishError{Channel: o.cfg.SignalChannel, Err: err}
			PublishFailuresTotal.Inc()
			o.logger.Error("publish-failed",
				zap.String("channel", o.cfg.SignalChannel),
				zap.String("key", key),
				zap.String("record-id", rec.ID),
				zap.Error(pubErr))
			if errors.Is(err, types.ErrStoreUnavailable) {
				return nil, pubErr
			}
			return rec, nil
		}
		SignalsPublishedTotal.Inc()
		o.logger.Info("signal-published",
			zap.String("channel", o.cfg.SignalChannel),
			zap.String("address", event.Address),
			zap.String("record-id", rec.ID))
	}

	EventsProcessedTotal.Inc()
	return rec, nil
}

// analyze runs feature extraction and scoring, merging the outputs with
// the event into an immutable analysis record.
func (o *Orchestrator) analyze(ctx context.Context, event types.PairEvent) (*types.AnalysisRecord, error) {
	features, err := analysis.ExtractFeatures(&event)
	if err != nil {
		return nil, &types.AnalysisError{Address: event.Address, Stage: "extract", Err: err}
	}

	scores, err := o.scorer.Score(ctx, features)
	if err != nil {
		return nil, &types.AnalysisError{Address: event.Address, Stage: "score", Err: err}
	}

	return &types.AnalysisRecord{
		ID:        uuid.NewString(),
		Event:     event,
		Scores:    scores,
		Signal:    o.warrantsSignal(scores),
		Timestamp: time.Now().UTC(),
	}, nil
}

// warrantsSignal applies the policy flag: any detector at or below the
// anomaly threshold marks the record as signal-worthy.
func (o *Orchestrator) warrantsSignal(scores map[string]float64) bool {
	for _, score := range scores {
		if score <= o.cfg.SignalThreshold {
			return true
		}
	}
	return false
}
