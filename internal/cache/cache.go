package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dexwatch/dexwatch/internal/store"
)

// Cache is a durable TTL key/value cache over the cache_store relation.
// Entries past expiry are logically absent the moment their deadline passes,
// regardless of when the row is physically reclaimed.
type Cache struct {
	store  *store.Store
	logger *zap.Logger
}

// New creates a cache over the given store.
func New(st *store.Store, logger *zap.Logger) *Cache {
	return &Cache{
		store:  st,
		logger: logger,
	}
}

// Get returns the value for key if a live entry exists.
// Expired-but-undeleted rows are hidden, never surfaced.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, cancel := c.store.WithTimeout(ctx)
	defer cancel()

	var value []byte
	err := c.store.DB().QueryRowContext(ctx,
		`SELECT value FROM cache_store WHERE key = $1 AND expires_at > $2`,
		key, time.Now().UTC(),
	).Scan(&value)

	if errors.Is(err, sql.ErrNoRows) {
		MissesTotal.Inc()
		c.logger.Debug("cache-miss", zap.String("key", key))
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %q: %w", key, store.Classify(err))
	}

	HitsTotal.Inc()
	c.logger.Debug("cache-hit", zap.String("key", key))
	return value, true, nil
}

// Set upserts {key, value, now+ttl}. Concurrent sets on the same key race
// to last-write-wins; the primary key on key is what makes this an upsert
// rather than a duplicate-insert failure.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, cancel := c.store.WithTimeout(ctx)
	defer cancel()

	expiresAt := time.Now().UTC().Add(ttl)

	_, err := c.store.DB().ExecContext(ctx,
		`INSERT INTO cache_store (key, value, expires_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO UPDATE
		 SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at`,
		key, value, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("cache set %q: %w", key, store.Classify(err))
	}

	SetsTotal.Inc()
	c.logger.Debug("cache-set",
		zap.String("key", key),
		zap.Duration("ttl", ttl))
	return nil
}

// Sweep deletes expired rows and returns how many were reclaimed.
// Reads already filter on expires_at, so the sweep is purely about keeping
// the unlogged table bounded.
func (c *Cache) Sweep(ctx context.Context) (int64, error) {
	ctx, cancel := c.store.WithTimeout(ctx)
	defer cancel()

	res, err := c.store.DB().ExecContext(ctx,
		`DELETE FROM cache_store WHERE expires_at <= $1`,
		time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("cache sweep: %w", store.Classify(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cache sweep rows: %w", err)
	}

	SweptRowsTotal.Add(float64(n))
	return n, nil
}

// RunSweeper runs Sweep on a fixed interval until the context is cancelled.
func (c *Cache) RunSweeper(ctx context.Context, interval time.Duration) {
	c.logger.Info("cache-sweeper-starting", zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("cache-sweeper-stopping")
			return
		case <-ticker.C:
			n, err := c.Sweep(ctx)
			if err != nil {
				c.logger.Error("cache-sweep-failed", zap.Error(err))
				continue
			}
			if n > 0 {
				c.logger.Debug("cache-swept", zap.Int64("rows", n))
			}
		}
	}
}
