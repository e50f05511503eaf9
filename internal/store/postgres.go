package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/dexwatch/dexwatch/pkg/types"
)

// Store wraps the shared PostgreSQL handle. It is the single durable
// substrate behind the cache, the rate limiter and the signal bus; all
// cross-process coordination happens through it.
type Store struct {
	db      *sql.DB
	connStr string
	timeout time.Duration
	logger  *zap.Logger
}

// Config holds PostgreSQL configuration.
type Config struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	QueryTimeout time.Duration
	Logger       *zap.Logger
}

// New opens and verifies a PostgreSQL connection.
func New(cfg *Config) (*Store, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("ping database: %w", Classify(err))
	}

	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	cfg.Logger.Info("postgres-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return &Store{
		db:      db,
		connStr: connStr,
		timeout: timeout,
		logger:  cfg.Logger,
	}, nil
}

// NewWithDB wraps an existing handle. Used by tests with sqlmock.
func NewWithDB(db *sql.DB, logger *zap.Logger) *Store {
	return &Store{
		db:      db,
		timeout: 5 * time.Second,
		logger:  logger,
	}
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ConnString returns the connection string, used to open the dedicated
// LISTEN connection for the signal bus.
func (s *Store) ConnString() string {
	return s.connStr
}

// WithTimeout derives a context bounded by the configured query timeout,
// so no store call can hang a processing loop.
func (s *Store) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// Ping verifies the store is reachable. Used by the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := s.WithTimeout(ctx)
	defer cancel()

	err := s.db.PingContext(ctx)
	if err != nil {
		return Classify(err)
	}
	return nil
}

// EnsureSchema creates the three relations if they do not exist.
// cache_store is UNLOGGED: cache entries are reconstructible, so the
// write-ahead log cost is not worth paying for them.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE UNLOGGED TABLE IF NOT EXISTS cache_store (
			key        VARCHAR(255) PRIMARY KEY,
			value      JSONB NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS trading_signals (
			id         BIGSERIAL PRIMARY KEY,
			channel    VARCHAR(50) NOT NULL,
			payload    JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS trading_signals_channel_order_idx
			ON trading_signals (channel, created_at, id)`,
		`CREATE TABLE IF NOT EXISTS rate_limits (
			identifier        VARCHAR(255) PRIMARY KEY,
			count             INTEGER NOT NULL DEFAULT 0,
			window_expires_at TIMESTAMPTZ NOT NULL
		)`,
	}

	for _, stmt := range stmts {
		_, err := s.db.ExecContext(ctx, stmt)
		if err != nil {
			return fmt.Errorf("ensure schema: %w", Classify(err))
		}
	}

	s.logger.Info("schema-ready")
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.logger.Info("closing-postgres-store")
	return s.db.Close()
}

// Classify maps connection-level failures onto ErrStoreUnavailable so
// callers can branch with errors.Is. Query-shape errors pass through.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %v", types.ErrStoreUnavailable, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", types.ErrStoreUnavailable, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// Class 08 is connection exceptions, class 57 is operator
		// intervention (shutdown, crash recovery).
		class := pqErr.Code.Class()
		if class == "08" || class == "57" {
			return fmt.Errorf("%w: %v", types.ErrStoreUnavailable, err)
		}
	}

	return err
}
