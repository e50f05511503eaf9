package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"go.uber.org/zap"

	"github.com/dexwatch/dexwatch/internal/store"
	"github.com/dexwatch/dexwatch/pkg/types"
)

func newTestCache(t *testing.T) (*Cache, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger, _ := zap.NewDevelopment()
	return New(store.NewWithDB(db, logger), logger), mock
}

func TestCache_Get_Hit(t *testing.T) {
	c, mock := newTestCache(t)

	payload := []byte(`{"price":1.0}`)
	mock.ExpectQuery("SELECT value FROM cache_store").
		WithArgs("pair:0xabc", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(payload))

	value, found, err := c.Get(context.Background(), "pair:0xabc")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !found {
		t.Fatal("expected hit")
	}
	if string(value) != string(payload) {
		t.Errorf("value = %s, want %s", value, payload)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestCache_Get_MissAndExpiredHidden(t *testing.T) {
	// Expired rows and absent rows are indistinguishable to callers:
	// the query filters on expires_at, so both come back as no rows.
	c, mock := newTestCache(t)

	mock.ExpectQuery("SELECT value FROM cache_store").
		WithArgs("pair:0xgone", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	value, found, err := c.Get(context.Background(), "pair:0xgone")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if found {
		t.Error("expected miss")
	}
	if value != nil {
		t.Errorf("expected nil value, got %s", value)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestCache_Get_StoreUnavailable(t *testing.T) {
	c, mock := newTestCache(t)

	mock.ExpectQuery("SELECT value FROM cache_store").
		WithArgs("pair:0xabc", sqlmock.AnyArg()).
		WillReturnError(context.DeadlineExceeded)

	_, _, err := c.Get(context.Background(), "pair:0xabc")
	if !errors.Is(err, types.ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestCache_Set_Upsert(t *testing.T) {
	c, mock := newTestCache(t)

	payload := []byte(`{"price":1.0}`)
	mock.ExpectExec("INSERT INTO cache_store").
		WithArgs("pair:0xabc", payload, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := c.Set(context.Background(), "pair:0xabc", payload, 5*time.Second)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestCache_Set_LastWriteWins(t *testing.T) {
	// Two sets on the same key are two upserts against one primary key;
	// the store keeps exactly one logical entry with the later value.
	c, mock := newTestCache(t)

	first := []byte(`{"v":1}`)
	second := []byte(`{"v":2}`)

	mock.ExpectExec("INSERT INTO cache_store").
		WithArgs("pair:0xabc", first, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO cache_store").
		WithArgs("pair:0xabc", second, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT value FROM cache_store").
		WithArgs("pair:0xabc", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(second))

	ctx := context.Background()
	if err := c.Set(ctx, "pair:0xabc", first, time.Minute); err != nil {
		t.Fatalf("first set: %v", err)
	}
	if err := c.Set(ctx, "pair:0xabc", second, time.Minute); err != nil {
		t.Fatalf("second set: %v", err)
	}

	value, found, err := c.Get(ctx, "pair:0xabc")
	if err != nil || !found {
		t.Fatalf("get: found=%v err=%v", found, err)
	}
	if string(value) != string(second) {
		t.Errorf("value = %s, want %s", value, second)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestCache_Sweep(t *testing.T) {
	c, mock := newTestCache(t)

	mock.ExpectExec("DELETE FROM cache_store").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 7))

	n, err := c.Sweep(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if n != 7 {
		t.Errorf("swept = %d, want 7", n)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
