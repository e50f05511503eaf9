package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/dexwatch/dexwatch/internal/analysis"
)

// MockScorer is a configurable Scorer for pipeline tests. It counts calls
// so memoization tests can assert the scorer ran at most once.
type MockScorer struct {
	mu      sync.Mutex
	calls   int
	Scores  map[string]float64
	Err     error
}

// Score returns the configured scores or error.
func (m *MockScorer) Score(_ context.Context, _ analysis.FeatureVector) (map[string]float64, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if m.Scores != nil {
		return m.Scores, nil
	}
	return map[string]float64{
		analysis.DetectorPump: -0.1,
		analysis.DetectorRug:  -0.1,
	}, nil
}

// Calls returns how many times Score ran.
func (m *MockScorer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockLimiter is a Limiter that admits or denies unconditionally.
type MockLimiter struct {
	Allowed bool
	Err     error
}

// Allow returns the configured decision.
func (m *MockLimiter) Allow(_ context.Context, _ string, _ int, _ time.Duration) (bool, error) {
	return m.Allowed, m.Err
}

// MockCache is an in-memory Cache with injectable failures. Entries
// honor their TTL the way the durable cache does: expired means absent.
type MockCache struct {
	mu      sync.Mutex
	entries map[string]mockEntry
	GetErr  error
	SetErr  error
}

type mockEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMockCache creates an empty mock cache.
func NewMockCache() *MockCache {
	return &MockCache{entries: make(map[string]mockEntry)}
}

// Get returns the stored value if a live entry exists.
func (m *MockCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if m.GetErr != nil {
		return nil, false, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false, nil
	}
	return entry.value, true, nil
}

// Set stores the value with its expiry deadline.
func (m *MockCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.SetErr != nil {
		return m.SetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = mockEntry{value: value, expiresAt: time.Now().Add(ttl)}
	return nil
}

// MockPublisher records published payloads per channel.
type MockPublisher struct {
	mu        sync.Mutex
	Published map[string][][]byte
	Err       error
}

// NewMockPublisher creates an empty mock publisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{Published: make(map[string][][]byte)}
}

// Publish records the payload or returns the configured error.
func (m *MockPublisher) Publish(_ context.Context, channel string, payload []byte) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Published[channel] = append(m.Published[channel], payload)
	return nil
}

// Count returns how many messages went to a channel.
func (m *MockPublisher) Count(channel string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Published[channel])
}
