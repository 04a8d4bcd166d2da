package db

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openTestDB(t *testing.T) (*sql.DB, *Report) {
	t.Helper()
	d, report, err := Open(context.Background(), filepath.Join(t.TempDir(), "findit.db"), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, d.Close()) })
	return d, report
}

// schemaSnapshot lists every table and index with its DDL.
func schemaSnapshot(t *testing.T, d *sql.DB) []string {
	t.Helper()
	rows, err := d.Query(`SELECT type || ':' || name || ':' || COALESCE(sql, '') FROM sqlite_master ORDER BY type, name`)
	require.NoError(t, err)
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		require.NoError(t, rows.Scan(&s))
		out = append(out, s)
	}
	require.NoError(t, rows.Err())
	return out
}

func columns(t *testing.T, d *sql.DB, table string) []string {
	t.Helper()
	rows, err := d.Query(`SELECT name FROM pragma_table_info(?)`, table)
	require.NoError(t, err)
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var c string
		require.NoError(t, rows.Scan(&c))
		cols = append(cols, c)
	}
	require.NoError(t, rows.Err())
	return cols
}

func indexExists(t *testing.T, d *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := d.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = ?`, name).Scan(&n)
	require.NoError(t, err)
	return n == 1
}

func TestOpenCreatesSchema(t *testing.T) {
	d, report := openTestDB(t)

	for _, table := range []string{"app_meta", "rooms", "items"} {
		var name string
		err := d.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err)
		assert.Equal(t, table, name)
	}

	assert.Equal(t,
		[]string{"id", "label", "note", "photo_uri", "created_at", "lat", "lon", "accuracy", "room_id"},
		columns(t, d, "items"))
	assert.True(t, indexExists(t, d, "idx_items_created_at"))
	assert.True(t, indexExists(t, d, "idx_items_label_note"))
	assert.True(t, indexExists(t, d, "idx_items_room"))

	// On a fresh file the column add is redundant and is the only skipped step.
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "items_room_id_column", report.Skipped[0].Step)
}

func TestMigrateIsIdempotent(t *testing.T) {
	d, _ := openTestDB(t)
	before := schemaSnapshot(t, d)

	_, err := Migrate(context.Background(), d, testLogger())
	require.NoError(t, err)
	_, err = Migrate(context.Background(), d, testLogger())
	require.NoError(t, err)

	assert.Equal(t, before, schemaSnapshot(t, d))
}

func TestOpenUpgradesLegacyItemsTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")

	legacy, err := sql.Open("sqlite", "file:"+path)
	require.NoError(t, err)
	_, err = legacy.Exec(`
		CREATE TABLE items (
			id TEXT PRIMARY KEY NOT NULL,
			label TEXT NOT NULL,
			note TEXT,
			photo_uri TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			lat REAL,
			lon REAL,
			accuracy REAL
		);
		INSERT INTO items (id, label, photo_uri, created_at) VALUES ('old', 'Keys', '/photos/old.jpg', 100);
	`)
	require.NoError(t, err)
	require.NoError(t, legacy.Close())

	d, report, err := Open(context.Background(), path, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, d.Close()) })

	assert.Contains(t, columns(t, d, "items"), "room_id")
	assert.True(t, indexExists(t, d, "idx_items_room"))
	for _, skipped := range report.Skipped {
		assert.NotEqual(t, "items_room_id_column", skipped.Step)
	}

	// Existing rows survive and the room-scoped query works.
	_, err = d.Exec(`UPDATE items SET room_id = 'kitchen' WHERE id = 'old'`)
	require.NoError(t, err)
	var label string
	err = d.QueryRow(`SELECT label FROM items WHERE room_id = ?`, "kitchen").Scan(&label)
	require.NoError(t, err)
	assert.Equal(t, "Keys", label)
}

func TestRunStepsAdvisoryFailureContinues(t *testing.T) {
	d, _ := openTestDB(t)

	steps := []Step{
		{Name: "broken_index", SQL: `CREATE INDEX idx_missing ON items(no_such_column)`},
		{Name: "scratch", SQL: `CREATE TABLE IF NOT EXISTS scratch (id TEXT)`, Critical: true},
	}
	report, err := runSteps(context.Background(), d, steps, testLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"scratch"}, report.Applied)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "broken_index", report.Skipped[0].Step)
	assert.Error(t, report.Skipped[0].Unwrap())
}

func TestRunStepsCriticalFailureAborts(t *testing.T) {
	d, _ := openTestDB(t)

	steps := []Step{
		{Name: "broken_table", SQL: `CREATE TABLE (`, Critical: true},
		{Name: "never_run", SQL: `CREATE TABLE never_run (id TEXT)`, Critical: true},
	}
	_, err := runSteps(context.Background(), d, steps, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken_table")

	var n int
	require.NoError(t, d.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE name = 'never_run'`).Scan(&n))
	assert.Zero(t, n)
}

func TestManagerAcquireOpensOnce(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "findit.db"), testLogger())
	t.Cleanup(func() { assert.NoError(t, mgr.Close()) })

	var opens atomic.Int32
	mgr.open = func(ctx context.Context, path string, logger *slog.Logger) (*sql.DB, *Report, error) {
		opens.Add(1)
		return Open(ctx, path, logger)
	}

	const callers = 16
	handles := make([]*sql.DB, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d, err := mgr.Acquire(context.Background())
			assert.NoError(t, err)
			handles[i] = d
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), opens.Load())
	for _, h := range handles {
		assert.Same(t, handles[0], h)
	}

	again, err := mgr.Acquire(context.Background())
	require.NoError(t, err)
	assert.Same(t, handles[0], again)
	assert.Equal(t, int32(1), opens.Load())
	assert.NotNil(t, mgr.Report())
}

func TestManagerAcquireRetriesAfterFailure(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "findit.db"), testLogger())
	t.Cleanup(func() { assert.NoError(t, mgr.Close()) })

	failures := 1
	mgr.open = func(ctx context.Context, path string, logger *slog.Logger) (*sql.DB, *Report, error) {
		if failures > 0 {
			failures--
			return nil, nil, errors.New("disk unavailable")
		}
		return Open(ctx, path, logger)
	}

	_, err := mgr.Acquire(context.Background())
	require.Error(t, err)
	assert.Nil(t, mgr.Report())

	d, err := mgr.Acquire(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, d)
}

func TestManagerAcquireHonoursContext(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "findit.db"), testLogger())
	t.Cleanup(func() { assert.NoError(t, mgr.Close()) })

	release := make(chan struct{})
	mgr.open = func(ctx context.Context, path string, logger *slog.Logger) (*sql.DB, *Report, error) {
		<-release
		return Open(ctx, path, logger)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := mgr.Acquire(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	d, err := mgr.Acquire(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, d)
}

func TestManagerCloseWaitsForPendingOpen(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "findit.db"), testLogger())

	started := make(chan struct{})
	release := make(chan struct{})
	mgr.open = func(ctx context.Context, path string, logger *slog.Logger) (*sql.DB, *Report, error) {
		close(started)
		<-release
		return Open(ctx, path, logger)
	}

	acquired := make(chan *sql.DB, 1)
	go func() {
		d, err := mgr.Acquire(context.Background())
		assert.NoError(t, err)
		acquired <- d
	}()
	<-started

	closed := make(chan error, 1)
	go func() { closed <- mgr.Close() }()

	select {
	case <-closed:
		t.Fatal("Close returned while the database was still opening")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-closed)

	d := <-acquired
	require.NotNil(t, d)
	assert.Error(t, d.PingContext(context.Background()), "handle should be closed")
	assert.Nil(t, mgr.Report())
}
