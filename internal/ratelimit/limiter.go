package ratelimit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dexwatch/dexwatch/internal/store"
)

// Limiter enforces a per-identifier counting window over the rate_limits
// relation. The whole read-decide-write sequence is one upsert statement,
// so concurrent callers for the same identifier never over-admit and never
// lose an increment.
type Limiter struct {
	store  *store.Store
	logger *zap.Logger
}

// New creates a limiter over the given store.
func New(st *store.Store, logger *zap.Logger) *Limiter {
	return &Limiter{
		store:  st,
		logger: logger,
	}
}

// Allow reports whether one more admission fits the identifier's current
// window. An expired window is replaced with {count: 1, fresh deadline},
// never incremented. A false return is normal control flow, not an error.
func (l *Limiter) Allow(ctx context.Context, identifier string, limit int, window time.Duration) (bool, error) {
	ctx, cancel := l.store.WithTimeout(ctx)
	defer cancel()

	now := time.Now().UTC()

	// The conditional upsert admits in exactly two cases: the window is
	// expired (reset to 1) or the count is still below the limit
	// (increment). When neither holds the WHERE clause suppresses the
	// update and nothing is returned, which reads back as ErrNoRows.
	var count int
	err := l.store.DB().QueryRowContext(ctx,
		`INSERT INTO rate_limits AS rl (identifier, count, window_expires_at)
		 VALUES ($1, 1, $4)
		 ON CONFLICT (identifier) DO UPDATE SET
			count = CASE
				WHEN rl.window_expires_at <= $3 THEN 1
				ELSE rl.count + 1
			END,
			window_expires_at = CASE
				WHEN rl.window_expires_at <= $3 THEN $4
				ELSE rl.window_expires_at
			END
		 WHERE rl.window_expires_at <= $3 OR rl.count < $2
		 RETURNING count`,
		identifier, limit, now, now.Add(window),
	).Scan(&count)

	if errors.Is(err, sql.ErrNoRows) {
		DeniedTotal.WithLabelValues(identifier).Inc()
		l.logger.Debug("rate-limited",
			zap.String("identifier", identifier),
			zap.Int("limit", limit))
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("rate limit %q: %w", identifier, store.Classify(err))
	}

	AllowedTotal.WithLabelValues(identifier).Inc()
	return true, nil
}
