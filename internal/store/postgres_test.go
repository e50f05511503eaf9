package store

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dexwatch/dexwatch/pkg/types"
)

func newTestStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger, _ := zap.NewDevelopment()
	return NewWithDB(db, logger), mock
}

func TestEnsureSchema(t *testing.T) {
	st, mock := newTestStore(t)

	mock.ExpectExec("CREATE UNLOGGED TABLE IF NOT EXISTS cache_store").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS trading_signals").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS trading_signals_channel_order_idx").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS rate_limits").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := st.EnsureSchema(context.Background())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchema_ConnectionFailure(t *testing.T) {
	st, mock := newTestStore(t)

	mock.ExpectExec("CREATE UNLOGGED TABLE IF NOT EXISTS cache_store").
		WillReturnError(&net.OpError{Op: "dial", Err: fmt.Errorf("connection refused")})

	err := st.EnsureSchema(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrStoreUnavailable)
}

func TestPing(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	logger, _ := zap.NewDevelopment()
	st := NewWithDB(db, logger)

	mock.ExpectPing()
	require.NoError(t, st.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(sql.ErrConnDone)
	err = st.Ping(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrStoreUnavailable)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantOut bool // true when the error maps to ErrStoreUnavailable
	}{
		{
			name:    "nil",
			err:     nil,
			wantOut: false,
		},
		{
			name:    "deadline-exceeded",
			err:     context.DeadlineExceeded,
			wantOut: true,
		},
		{
			name:    "conn-done",
			err:     sql.ErrConnDone,
			wantOut: true,
		},
		{
			name:    "net-error",
			err:     &net.OpError{Op: "read", Err: fmt.Errorf("connection reset")},
			wantOut: true,
		},
		{
			name:    "pq-connection-exception",
			err:     &pq.Error{Code: "08006"},
			wantOut: true,
		},
		{
			name:    "pq-shutdown",
			err:     &pq.Error{Code: "57P01"},
			wantOut: true,
		},
		{
			name:    "pq-syntax-error-passes-through",
			err:     &pq.Error{Code: "42601"},
			wantOut: false,
		},
		{
			name:    "plain-error-passes-through",
			err:     fmt.Errorf("duplicate key"),
			wantOut: false,
		},
		{
			name:    "wrapped-deadline",
			err:     fmt.Errorf("query: %w", context.DeadlineExceeded),
			wantOut: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if tt.err == nil {
				assert.NoError(t, got)
				return
			}
			if tt.wantOut {
				assert.ErrorIs(t, got, types.ErrStoreUnavailable)
			} else {
				assert.Equal(t, tt.err, got)
			}
		})
	}
}

func TestWithTimeout(t *testing.T) {
	st, _ := newTestStore(t)

	ctx, cancel := st.WithTimeout(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(5*time.Second), deadline, time.Second)
}
