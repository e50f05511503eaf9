package signalbus

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/dexwatch/dexwatch/pkg/types"
)

// Handler processes one consumed message. A handler error is logged and the
// loop moves on; the message was already dequeued (at-least-once contract).
type Handler func(ctx context.Context, msg types.SignalMessage) error

// Subscriber drains one logical channel. It blocks on the LISTEN/NOTIFY
// wake-up when available and falls back to a bounded poll interval as a
// safety net against missed notifications. The wake-up only shortens
// latency; the ordered read from the store stays authoritative.
type Subscriber struct {
	bus          *Bus
	channel      string
	maxBatch     int
	pollInterval time.Duration
	listener     *pq.Listener
	logger       *zap.Logger
}

// SubscriberConfig holds subscriber configuration.
type SubscriberConfig struct {
	Bus          *Bus
	Channel      string
	MaxBatch     int
	PollInterval time.Duration
	// ConnStr, when set, opens a dedicated LISTEN connection. Empty means
	// poll-only, which tests and degraded deployments rely on.
	ConnStr string
	Logger  *zap.Logger
}

// NewSubscriber creates a subscriber for one logical channel.
func NewSubscriber(cfg *SubscriberConfig) (*Subscriber, error) {
	s := &Subscriber{
		bus:          cfg.Bus,
		channel:      cfg.Channel,
		maxBatch:     cfg.MaxBatch,
		pollInterval: cfg.PollInterval,
		logger:       cfg.Logger,
	}
	if s.maxBatch <= 0 {
		s.maxBatch = 100
	}
	if s.pollInterval <= 0 {
		s.pollInterval = time.Second
	}

	if cfg.ConnStr != "" {
		logger := cfg.Logger
		s.listener = pq.NewListener(cfg.ConnStr, time.Second, 30*time.Second,
			func(ev pq.ListenerEventType, err error) {
				if err != nil {
					logger.Warn("listener-event", zap.Int("event", int(ev)), zap.Error(err))
				}
			})
		err := s.listener.Listen(NotifyChannel)
		if err != nil {
			s.listener.Close() //nolint:errcheck
			return nil, err
		}
		logger.Info("listening-for-signals",
			zap.String("notify-channel", NotifyChannel),
			zap.String("channel", cfg.Channel))
	}

	return s, nil
}

// Run consumes until the context is cancelled. In-flight batches finish
// before Run returns.
func (s *Subscriber) Run(ctx context.Context, handler Handler) error {
	s.logger.Info("subscriber-starting",
		zap.String("channel", s.channel),
		zap.Int("max-batch", s.maxBatch),
		zap.Duration("poll-interval", s.pollInterval),
		zap.Bool("notify-wakeup", s.listener != nil))

	defer func() {
		if s.listener != nil {
			_ = s.listener.Close()
		}
	}()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	var notifyCh <-chan *pq.Notification
	if s.listener != nil {
		notifyCh = s.listener.Notify
	}

	// Drain anything already queued before the first wake-up.
	s.drain(ctx, handler)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("subscriber-stopping", zap.String("channel", s.channel))
			return ctx.Err()
		case n := <-notifyCh:
			// A nil notification means the listener reconnected; messages
			// may have been missed, so drain unconditionally. A
			// notification for another logical channel is a spurious
			// wake-up and the drain is a cheap no-op.
			if n != nil && n.Extra != s.channel {
				continue
			}
			WakeupsTotal.WithLabelValues(s.channel, "notify").Inc()
			s.drain(ctx, handler)
		case <-ticker.C:
			WakeupsTotal.WithLabelValues(s.channel, "poll").Inc()
			s.drain(ctx, handler)
		}
	}
}

// drain consumes batches until the channel is empty or the store fails.
func (s *Subscriber) drain(ctx context.Context, handler Handler) {
	for {
		msgs, err := s.bus.Consume(ctx, s.channel, s.maxBatch)
		if err != nil {
			if errors.Is(err, types.ErrStoreUnavailable) {
				s.logger.Warn("consume-store-unavailable",
					zap.String("channel", s.channel),
					zap.Error(err))
			} else {
				s.logger.Error("consume-failed",
					zap.String("channel", s.channel),
					zap.Error(err))
			}
			return
		}
		if len(msgs) == 0 {
			return
		}

		for _, msg := range msgs {
			err = handler(ctx, msg)
			if err != nil {
				HandlerErrorsTotal.WithLabelValues(s.channel).Inc()
				s.logger.Error("handler-failed",
					zap.String("channel", s.channel),
					zap.Int64("message-id", msg.ID),
					zap.Error(err))
			}
		}

		if len(msgs) < s.maxBatch {
			return
		}
	}
}
