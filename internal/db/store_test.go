package db

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"valentine/internal/config"
	"valentine/models"
)

var fixedNow = time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func openTestDB(t *testing.T, path string) *gorm.DB {
	t.Helper()
	gdb, err := ConnectDB(config.DatabaseConfig{Driver: config.DriverSQLite, Path: path, LogLevel: "silent"})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "valentine.sqlite3")
	return NewStore(openTestDB(t, path), WithClock(func() time.Time { return fixedNow }))
}

func TestConnectDB_Pragmas(t *testing.T) {
	gdb := openTestDB(t, filepath.Join(t.TempDir(), "pragma.sqlite3"))

	var mode string
	require.NoError(t, gdb.Raw("PRAGMA journal_mode").Scan(&mode).Error)
	assert.Equal(t, "wal", mode)

	var timeout int
	require.NoError(t, gdb.Raw("PRAGMA busy_timeout").Scan(&timeout).Error)
	assert.Equal(t, 5000, timeout)

	for _, table := range Tables() {
		assert.True(t, gdb.Migrator().HasTable(table), table)
	}
}

func TestConnectDB_UnknownDriver(t *testing.T) {
	_, err := ConnectDB(config.DatabaseConfig{Driver: "oracle"})
	require.Error(t, err)
}

func TestInitialize_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "valentine.sqlite3")
	gdb := openTestDB(t, path)
	store := NewStore(gdb)

	id, err := store.InsertSignature(context.Background(), 6, nil)
	require.NoError(t, err)

	require.NoError(t, Initialize(gdb))
	require.NoError(t, Initialize(gdb))

	// A second process opening the same file must see the row too.
	again := NewStore(openTestDB(t, path))
	last, err := again.LastSignature(context.Background())
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, id, last.ID)
}

func TestLastSignature_Empty(t *testing.T) {
	store := newTestStore(t)

	last, err := store.LastSignature(context.Background())
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestInsertSignature(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.InsertSignature(ctx, 7.5, strPtr("forever"))
	require.NoError(t, err)
	assert.Equal(t, uint(1), id)

	last, err := store.LastSignature(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, models.Signature{
		ID:          1,
		SignedAt:    "2026-02-14 09:30:00",
		HoldSeconds: 7.5,
		Note:        strPtr("forever"),
	}, *last)

	id, err = store.InsertSignature(ctx, 12, nil)
	require.NoError(t, err)
	assert.Equal(t, uint(2), id)

	last, err = store.LastSignature(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint(2), last.ID)
	assert.Equal(t, 12.0, last.HoldSeconds)
	assert.Nil(t, last.Note)
}

func TestInsertSignature_UTCSeconds(t *testing.T) {
	local := time.FixedZone("CET", 3600)
	path := filepath.Join(t.TempDir(), "valentine.sqlite3")
	store := NewStore(openTestDB(t, path), WithClock(func() time.Time {
		return time.Date(2026, 2, 14, 10, 30, 0, 999_000_000, local)
	}))

	_, err := store.InsertSignature(context.Background(), 5, nil)
	require.NoError(t, err)
	last, err := store.LastSignature(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2026-02-14 09:30:00", last.SignedAt)
}

func TestInsertClick(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.InsertClick(ctx, "yes", strPtr("bear"), nil)
	require.NoError(t, err)
	second, err := store.InsertClick(ctx, "no", nil, strPtr("/image/us.jpg"))
	require.NoError(t, err)
	assert.Greater(t, second, first)

	var clicks []models.Click
	require.NoError(t, store.db.Order("id").Find(&clicks).Error)
	require.Len(t, clicks, 2)
	assert.Equal(t, "yes", clicks[0].ActionLabel)
	assert.Equal(t, "bear", *clicks[0].Sticker)
	assert.Nil(t, clicks[0].PhotoSrc)
	assert.Equal(t, "2026-02-14 09:30:00", clicks[0].ClickedAt)
	assert.Equal(t, "/image/us.jpg", *clicks[1].PhotoSrc)
}

func TestInsertClick_Concurrent(t *testing.T) {
	store := newTestStore(t)

	const n = 20
	ids := make(chan uint, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := store.InsertClick(context.Background(), "hug", nil, nil)
			assert.NoError(t, err)
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[uint]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestReset(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.InsertSignature(ctx, 5, nil)
		require.NoError(t, err)
		_, err = store.InsertClick(ctx, "yes", nil, nil)
		require.NoError(t, err)
	}

	require.NoError(t, store.Reset(ctx))

	last, err := store.LastSignature(ctx)
	require.NoError(t, err)
	assert.Nil(t, last)

	var clicks int64
	require.NoError(t, store.db.Model(&models.Click{}).Count(&clicks).Error)
	assert.Zero(t, clicks)

	id, err := store.InsertSignature(ctx, 5, nil)
	require.NoError(t, err)
	assert.Equal(t, uint(1), id)
	id, err = store.InsertClick(ctx, "yes", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, uint(1), id)
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return NewStore(gdb), mock
}

func TestInsertSignature_StorageFailure(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "love_documents"`)).
		WillReturnError(errors.New("disk unavailable"))
	mock.ExpectRollback()

	_, err := store.InsertSignature(context.Background(), 9, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert signature")
	assert.Contains(t, err.Error(), "disk unavailable")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLastSignature_StorageFailure(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "love_documents"`)).
		WillReturnError(errors.New("disk unavailable"))

	last, err := store.LastSignature(context.Background())
	require.Error(t, err)
	assert.Nil(t, last)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReset_Postgres(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`TRUNCATE TABLE love_documents, button_clicks RESTART IDENTITY`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, store.Reset(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
