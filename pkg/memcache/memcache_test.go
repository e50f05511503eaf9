package memcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dexwatch/dexwatch/pkg/types"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()

	logger, _ := zap.NewDevelopment()
	cache, err := New(&Config{
		NumCounters: 1000,
		MaxCost:     100,
		BufferItems: 64,
		Logger:      logger,
	})
	require.NoError(t, err)
	t.Cleanup(cache.Close)

	return cache
}

func TestCache_SetThenGet(t *testing.T) {
	cache := newTestCache(t)

	rec := &types.AnalysisRecord{
		ID:     "rec-1",
		Scores: map[string]float64{"pump_prob": -0.7},
		Signal: true,
	}

	cache.SetRecord("pair:0xabc", rec, time.Minute)
	cache.Wait()

	got, found := cache.GetRecord("pair:0xabc")
	require.True(t, found)
	assert.Same(t, rec, got)
}

func TestCache_Miss(t *testing.T) {
	cache := newTestCache(t)

	_, found := cache.GetRecord("pair:0xmissing")
	assert.False(t, found)
}

func TestCache_TTLExpiry(t *testing.T) {
	cache := newTestCache(t)

	cache.SetRecord("pair:0xshort", &types.AnalysisRecord{ID: "rec-2"}, 20*time.Millisecond)
	cache.Wait()

	_, found := cache.GetRecord("pair:0xshort")
	require.True(t, found)

	time.Sleep(50 * time.Millisecond)

	_, found = cache.GetRecord("pair:0xshort")
	assert.False(t, found)
}

func TestCache_Overwrite(t *testing.T) {
	cache := newTestCache(t)

	cache.SetRecord("pair:0xabc", &types.AnalysisRecord{ID: "old"}, time.Minute)
	cache.Wait()
	cache.SetRecord("pair:0xabc", &types.AnalysisRecord{ID: "new"}, time.Minute)
	cache.Wait()

	got, found := cache.GetRecord("pair:0xabc")
	require.True(t, found)
	assert.Equal(t, "new", got.ID)
}
