package memcache

import (
	"time"

	"github.com/dgraph-io/ristretto"
	"go.uber.org/zap"

	"github.com/dexwatch/dexwatch/pkg/types"
)

// Cache is an in-process hot layer in front of the durable cache, backed
// by Ristretto. It only ever holds analysis records, which are immutable
// for their TTL, so serving them memory-first is safe for any caller that
// shares the durable store.
type Cache struct {
	cache  *ristretto.Cache
	logger *zap.Logger
}

// Config holds Ristretto sizing.
type Config struct {
	NumCounters int64 // keys tracked for frequency, ~10x max items
	MaxCost     int64 // maximum items held
	BufferItems int64 // keys per Get buffer
	Logger      *zap.Logger
}

// New creates the hot layer.
func New(cfg *Config) (*Cache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     true,
	})
	if err != nil {
		return nil, err
	}

	return &Cache{
		cache:  cache,
		logger: cfg.Logger,
	}, nil
}

// GetRecord returns the cached analysis record for key, if present.
func (c *Cache) GetRecord(key string) (*types.AnalysisRecord, bool) {
	value, found := c.cache.Get(key)
	if !found {
		MissesTotal.Inc()
		return nil, false
	}

	rec, ok := value.(*types.AnalysisRecord)
	if !ok {
		MissesTotal.Inc()
		return nil, false
	}

	HitsTotal.Inc()
	c.logger.Debug("hot-cache-hit", zap.String("key", key))
	return rec, true
}

// SetRecord stores a record with a TTL. The TTL must not exceed the
// durable entry's: the hot layer may forget early, never remember late.
func (c *Cache) SetRecord(key string, rec *types.AnalysisRecord, ttl time.Duration) {
	if c.cache.SetWithTTL(key, rec, 1, ttl) {
		SetsTotal.Inc()
	}
}

// Wait blocks until pending writes are applied. Test helper.
func (c *Cache) Wait() {
	c.cache.Wait()
}

// Close releases cache resources.
func (c *Cache) Close() {
	c.cache.Close()
	c.logger.Info("hot-cache-closed")
}
