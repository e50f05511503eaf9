package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// Market data feed
	FeedURL         string
	FeedDialTimeout time.Duration
	FeedRetryWait   time.Duration

	// Pipeline policy
	RateIdentifier  string
	RateLimit       int
	RateWindow      time.Duration
	CacheTTL        time.Duration
	SignalChannel   string
	SignalThreshold float64

	// Scoring
	ScorerMode    string // "http" or "local"
	ScorerURL     string
	ScorerTimeout time.Duration

	// Signal bus
	ConsumeBatch  int
	PollInterval  time.Duration
	SweepInterval time.Duration

	// Hot cache sizing
	HotCacheCounters int64
	HotCacheMaxItems int64

	// Store
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string
	QueryTimeout time.Duration
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		// Application defaults
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		// Feed defaults
		FeedURL:         getEnvOrDefault("FEED_WS_URL", "wss://io.dexscreener.com/dex/screener/pairs"),
		FeedDialTimeout: getDurationOrDefault("FEED_DIAL_TIMEOUT", 10*time.Second),
		FeedRetryWait:   getDurationOrDefault("FEED_RETRY_WAIT", 5*time.Second),

		// Pipeline defaults, matching the production policy: 10 events
		// per second on the ingestion path, hour-long memoization.
		RateIdentifier:  getEnvOrDefault("RATE_IDENTIFIER", "api_requests"),
		RateLimit:       getIntOrDefault("RATE_LIMIT", 10),
		RateWindow:      getDurationOrDefault("RATE_WINDOW", time.Second),
		CacheTTL:        getDurationOrDefault("CACHE_TTL", time.Hour),
		SignalChannel:   getEnvOrDefault("SIGNAL_CHANNEL", "trading"),
		SignalThreshold: getFloat64OrDefault("SIGNAL_THRESHOLD", -0.5),

		// Scoring defaults
		ScorerMode:    getEnvOrDefault("SCORER_MODE", "local"),
		ScorerURL:     getEnvOrDefault("SCORER_URL", "http://localhost:9000"),
		ScorerTimeout: getDurationOrDefault("SCORER_TIMEOUT", 2*time.Second),

		// Bus defaults
		ConsumeBatch:  getIntOrDefault("CONSUME_BATCH", 100),
		PollInterval:  getDurationOrDefault("POLL_INTERVAL", time.Second),
		SweepInterval: getDurationOrDefault("SWEEP_INTERVAL", time.Minute),

		// Hot cache defaults
		HotCacheCounters: int64(getIntOrDefault("HOT_CACHE_COUNTERS", 10000)),
		HotCacheMaxItems: int64(getIntOrDefault("HOT_CACHE_MAX_ITEMS", 1000)),

		// Store defaults
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "dexwatch"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "dexwatch123"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "dexwatch"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
		QueryTimeout: getDurationOrDefault("QUERY_TIMEOUT", 5*time.Second),
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}

	if c.FeedURL == "" {
		return fmt.Errorf("FEED_WS_URL cannot be empty")
	}

	if c.RateLimit <= 0 {
		return fmt.Errorf("RATE_LIMIT must be positive, got %d", c.RateLimit)
	}

	if c.RateWindow <= 0 {
		return fmt.Errorf("RATE_WINDOW must be positive, got %s", c.RateWindow)
	}

	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive, got %s", c.CacheTTL)
	}

	if c.SignalChannel == "" {
		return fmt.Errorf("SIGNAL_CHANNEL cannot be empty")
	}

	if c.ScorerMode != "http" && c.ScorerMode != "local" {
		return fmt.Errorf("SCORER_MODE must be 'http' or 'local', got %q", c.ScorerMode)
	}

	if c.ScorerMode == "http" && c.ScorerURL == "" {
		return fmt.Errorf("SCORER_URL cannot be empty in http mode")
	}

	if c.ConsumeBatch <= 0 {
		return fmt.Errorf("CONSUME_BATCH must be positive, got %d", c.ConsumeBatch)
	}

	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}
