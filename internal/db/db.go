package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// Open opens the SQLite file at dbPath, creating its directory if needed, and
// brings the schema up to date. Advisory migration failures are returned in
// the report; anything else closes the handle and returns an error.
func Open(ctx context.Context, dbPath string, logger *slog.Logger) (*sql.DB, *Report, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_txlock=immediate", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	report, err := Migrate(ctx, db, logger)
	if err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, nil, fmt.Errorf("failed to run migrations: %w (also failed to close db: %v)", err, cerr)
		}
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, report, nil
}

type openFunc func(ctx context.Context, dbPath string, logger *slog.Logger) (*sql.DB, *Report, error)

// Manager owns the process-wide database handle. The first Acquire opens the
// file and migrates it; every later or concurrent caller shares that result.
type Manager struct {
	path   string
	logger *slog.Logger
	open   openFunc

	mu      sync.Mutex
	db      *sql.DB
	report  *Report
	pending *initCall
}

// initCall is a single in-flight initialization that callers wait on.
type initCall struct {
	done chan struct{}
	db   *sql.DB
	err  error
}

func NewManager(dbPath string, logger *slog.Logger) *Manager {
	return &Manager{
		path:   dbPath,
		logger: logger,
		open:   Open,
	}
}

// Acquire returns the ready handle, opening it on first use. A failed
// initialization is reported to everyone waiting on it and is not cached, so
// a later call tries again.
func (m *Manager) Acquire(ctx context.Context) (*sql.DB, error) {
	m.mu.Lock()
	if m.db != nil {
		db := m.db
		m.mu.Unlock()
		return db, nil
	}
	call := m.pending
	if call == nil {
		call = &initCall{done: make(chan struct{})}
		m.pending = call
		// Detached from ctx so one caller giving up does not fail the others.
		go m.initialize(call)
	}
	m.mu.Unlock()

	select {
	case <-call.done:
		return call.db, call.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *Manager) initialize(call *initCall) {
	m.logger.Debug("opening database", "path", m.path)
	db, report, err := m.open(context.Background(), m.path, m.logger)

	m.mu.Lock()
	if err == nil {
		m.db = db
		m.report = report
	}
	m.pending = nil
	m.mu.Unlock()

	if err != nil {
		m.logger.Error("failed to open database", "path", m.path, "error", err)
	} else {
		m.logger.Info("database ready", "path", m.path, "advisory_failures", len(report.Skipped))
	}

	call.db, call.err = db, err
	close(call.done)
}

// Report returns the migration report of the successful open, or nil before
// the handle has been acquired.
func (m *Manager) Report() *Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.report
}

// Close releases the handle, first waiting for an initialization in flight
// so its handle is not leaked. A later Acquire opens the file again.
func (m *Manager) Close() error {
	m.mu.Lock()
	call := m.pending
	m.mu.Unlock()
	if call != nil {
		<-call.done
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db == nil {
		return nil
	}
	err := m.db.Close()
	m.db = nil
	m.report = nil
	return err
}
