package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "8080", cfg.HTTPPort)

	assert.Equal(t, "api_requests", cfg.RateIdentifier)
	assert.Equal(t, 10, cfg.RateLimit)
	assert.Equal(t, time.Second, cfg.RateWindow)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.Equal(t, "trading", cfg.SignalChannel)
	assert.Equal(t, -0.5, cfg.SignalThreshold)

	assert.Equal(t, "local", cfg.ScorerMode)
	assert.Equal(t, 100, cfg.ConsumeBatch)
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Equal(t, time.Minute, cfg.SweepInterval)

	assert.Equal(t, "localhost", cfg.PostgresHost)
	assert.Equal(t, "5432", cfg.PostgresPort)
	assert.Equal(t, 5*time.Second, cfg.QueryTimeout)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("RATE_LIMIT", "25")
	t.Setenv("RATE_WINDOW", "500ms")
	t.Setenv("CACHE_TTL", "30m")
	t.Setenv("SIGNAL_THRESHOLD", "-0.8")
	t.Setenv("SIGNAL_CHANNEL", "alerts")
	t.Setenv("SCORER_MODE", "http")
	t.Setenv("SCORER_URL", "http://scorer:9000")
	t.Setenv("POSTGRES_HOST", "db.internal")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.RateLimit)
	assert.Equal(t, 500*time.Millisecond, cfg.RateWindow)
	assert.Equal(t, 30*time.Minute, cfg.CacheTTL)
	assert.Equal(t, -0.8, cfg.SignalThreshold)
	assert.Equal(t, "alerts", cfg.SignalChannel)
	assert.Equal(t, "http", cfg.ScorerMode)
	assert.Equal(t, "http://scorer:9000", cfg.ScorerURL)
	assert.Equal(t, "db.internal", cfg.PostgresHost)
}

func TestLoadFromEnv_UnparseableValuesFallBack(t *testing.T) {
	t.Setenv("RATE_LIMIT", "lots")
	t.Setenv("CACHE_TTL", "soon")
	t.Setenv("SIGNAL_THRESHOLD", "low")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.RateLimit)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.Equal(t, -0.5, cfg.SignalThreshold)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			HTTPPort:      "8080",
			FeedURL:       "wss://feed.example.com/pairs",
			RateLimit:     10,
			RateWindow:    time.Second,
			CacheTTL:      time.Hour,
			SignalChannel: "trading",
			ScorerMode:    "local",
			ConsumeBatch:  100,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "valid-http-scorer",
			mutate:  func(c *Config) { c.ScorerMode = "http"; c.ScorerURL = "http://scorer:9000" },
			wantErr: false,
		},
		{
			name:    "empty-http-port",
			mutate:  func(c *Config) { c.HTTPPort = "" },
			wantErr: true,
		},
		{
			name:    "empty-feed-url",
			mutate:  func(c *Config) { c.FeedURL = "" },
			wantErr: true,
		},
		{
			name:    "zero-rate-limit",
			mutate:  func(c *Config) { c.RateLimit = 0 },
			wantErr: true,
		},
		{
			name:    "negative-rate-window",
			mutate:  func(c *Config) { c.RateWindow = -time.Second },
			wantErr: true,
		},
		{
			name:    "zero-cache-ttl",
			mutate:  func(c *Config) { c.CacheTTL = 0 },
			wantErr: true,
		},
		{
			name:    "empty-signal-channel",
			mutate:  func(c *Config) { c.SignalChannel = "" },
			wantErr: true,
		},
		{
			name:    "unknown-scorer-mode",
			mutate:  func(c *Config) { c.ScorerMode = "grpc" },
			wantErr: true,
		},
		{
			name:    "http-scorer-without-url",
			mutate:  func(c *Config) { c.ScorerMode = "http"; c.ScorerURL = "" },
			wantErr: true,
		},
		{
			name:    "zero-consume-batch",
			mutate:  func(c *Config) { c.ConsumeBatch = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewLogger_DefaultLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")

	logger, err := NewLogger()
	require.NoError(t, err)
	defer func() { _ = logger.Sync() }()

	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNewLogger_LevelFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")

	logger, err := NewLogger()
	require.NoError(t, err)
	defer func() { _ = logger.Sync() }()

	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose")

	_, err := NewLogger()
	assert.Error(t, err)
}
