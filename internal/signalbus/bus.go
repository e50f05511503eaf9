package signalbus

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/dexwatch/dexwatch/internal/store"
	"github.com/dexwatch/dexwatch/pkg/types"
)

// NotifyChannel is the single Postgres NOTIFY channel shared by all logical
// bus channels. The logical channel rides in the notification payload since
// the primitive itself is not topic-aware.
const NotifyChannel = "trading_signals"

// Bus is a durable, ordered, channel-addressed message queue over the
// trading_signals relation. Messages are strictly FIFO per channel by
// (created_at, id); across channels there is no ordering guarantee.
type Bus struct {
	store  *store.Store
	logger *zap.Logger
}

// New creates a bus over the given store.
func New(st *store.Store, logger *zap.Logger) *Bus {
	return &Bus{
		store:  st,
		logger: logger,
	}
}

// Publish durably appends a message and wakes active consumers of the
// channel. The NOTIFY is issued inside the same transaction as the append;
// Postgres delivers it at commit, so a wake-up never precedes visibility.
// Publish does not wait for any consumer to drain.
func (b *Bus) Publish(ctx context.Context, channel string, payload []byte) error {
	ctx, cancel := b.store.WithTimeout(ctx)
	defer cancel()

	tx, err := b.store.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("publish begin: %w", store.Classify(err))
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx,
		`INSERT INTO trading_signals (channel, payload, created_at) VALUES ($1, $2, $3)`,
		channel, payload, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("publish insert: %w", store.Classify(err))
	}

	_, err = tx.ExecContext(ctx, `SELECT pg_notify($1, $2)`, NotifyChannel, channel)
	if err != nil {
		return fmt.Errorf("publish notify: %w", store.Classify(err))
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("publish commit: %w", store.Classify(err))
	}

	PublishedTotal.WithLabelValues(channel).Inc()
	b.logger.Debug("signal-published",
		zap.String("channel", channel),
		zap.Int("payload-bytes", len(payload)))
	return nil
}

// Consume returns up to maxBatch messages for channel in (created_at, id)
// order and removes them from the store as part of returning them.
// Delivery is at-least-once from the caller's perspective: a handler that
// fails after Consume returns has already lost its claim on the rows.
// SKIP LOCKED keeps concurrent consumers from double-delivering a message
// or blocking on each other.
func (b *Bus) Consume(ctx context.Context, channel string, maxBatch int) ([]types.SignalMessage, error) {
	ctx, cancel := b.store.WithTimeout(ctx)
	defer cancel()

	rows, err := b.store.DB().QueryContext(ctx,
		`DELETE FROM trading_signals
		 WHERE id IN (
			SELECT id FROM trading_signals
			WHERE channel = $1
			ORDER BY created_at, id
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		 )
		 RETURNING id, channel, payload, created_at`,
		channel, maxBatch,
	)
	if err != nil {
		return nil, fmt.Errorf("consume %q: %w", channel, store.Classify(err))
	}
	defer rows.Close()

	var msgs []types.SignalMessage
	for rows.Next() {
		var msg types.SignalMessage
		err = rows.Scan(&msg.ID, &msg.Channel, &msg.Payload, &msg.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("consume scan: %w", err)
		}
		msgs = append(msgs, msg)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("consume rows: %w", store.Classify(err))
	}

	// DELETE ... RETURNING does not promise row order; re-establish the
	// channel order before handing the batch to the caller.
	sort.Slice(msgs, func(i, j int) bool {
		if msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].ID < msgs[j].ID
		}
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})

	if len(msgs) > 0 {
		ConsumedTotal.WithLabelValues(channel).Add(float64(len(msgs)))
		b.logger.Debug("signals-consumed",
			zap.String("channel", channel),
			zap.Int("count", len(msgs)))
	}
	return msgs, nil
}

// Depth returns the number of pending messages for a channel.
func (b *Bus) Depth(ctx context.Context, channel string) (int64, error) {
	ctx, cancel := b.store.WithTimeout(ctx)
	defer cancel()

	var depth int64
	err := b.store.DB().QueryRowContext(ctx,
		`SELECT count(*) FROM trading_signals WHERE channel = $1`,
		channel,
	).Scan(&depth)
	if err != nil {
		return 0, fmt.Errorf("depth %q: %w", channel, store.Classify(err))
	}
	return depth, nil
}
