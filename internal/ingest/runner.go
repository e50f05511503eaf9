package ingest

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/dexwatch/dexwatch/pkg/types"
)

// Processor is the pipeline entry point the runner feeds.
type Processor interface {
	Process(ctx context.Context, event types.PairEvent) (*types.AnalysisRecord, error)
}

// Runner owns the continuous ingestion loop: read an event, hand it to the
// pipeline, and on connection failure or store outage wait a fixed delay
// and try again, indefinitely. Only context cancellation ends the loop.
type Runner struct {
	source    Source
	processor Processor
	retryWait time.Duration
	logger    *zap.Logger
}

// RunnerConfig holds ingestion loop configuration.
type RunnerConfig struct {
	Source    Source
	Processor Processor
	RetryWait time.Duration // fixed backoff between reconnect attempts
	Logger    *zap.Logger
}

// NewRunner creates the ingestion loop.
func NewRunner(cfg *RunnerConfig) *Runner {
	retryWait := cfg.RetryWait
	if retryWait <= 0 {
		retryWait = 5 * time.Second
	}
	return &Runner{
		source:    cfg.Source,
		processor: cfg.Processor,
		retryWait: retryWait,
		logger:    cfg.Logger,
	}
}

// Run blocks until the context is cancelled. Transient failures never
// terminate it.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("ingestion-starting", zap.Duration("retry-wait", r.retryWait))

	defer func() {
		err := r.source.Close()
		if err != nil {
			r.logger.Warn("source-close-failed", zap.Error(err))
		}
	}()

	for {
		err := r.source.Connect(ctx)
		if err != nil {
			ConnectFailuresTotal.Inc()
			r.logger.Error("feed-connect-failed", zap.Error(err))
			if !r.wait(ctx) {
				return ctx.Err()
			}
			continue
		}

		err = r.consume(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				r.logger.Info("ingestion-stopping")
				return ctx.Err()
			}
			r.logger.Error("feed-interrupted", zap.Error(err))
			if !r.wait(ctx) {
				return ctx.Err()
			}
		}
	}
}

// consume pumps events from the connected source into the pipeline until
// the connection breaks or the store becomes unavailable.
func (r *Runner) consume(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		event, err := r.source.Next(ctx)
		if err != nil {
			var frameErr *FrameError
			if errors.As(err, &frameErr) {
				// Malformed frame: drop with a reason, keep the stream.
				MalformedFramesTotal.Inc()
				r.logger.Warn("frame-dropped", zap.Error(frameErr))
				continue
			}
			return err
		}

		EventsReceivedTotal.Inc()

		_, err = r.processor.Process(ctx, event)
		if err != nil {
			if errors.Is(err, types.ErrStoreUnavailable) {
				// Pause processing until the store comes back; the
				// event is lost, the stream reconnects fresh.
				return err
			}
			r.logger.Error("event-processing-failed",
				zap.String("address", event.Address),
				zap.Error(err))
		}
	}
}

// wait sleeps the fixed retry delay, cancellable. Returns false when the
// context ended during the wait.
func (r *Runner) wait(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(r.retryWait):
		return true
	}
}
