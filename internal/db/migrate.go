package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// Step is one schema statement. Critical steps abort migration on failure;
// advisory steps are recorded in the Report and skipped.
type Step struct {
	Name     string
	SQL      string
	Critical bool
}

// StepError records an advisory step that failed.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("migration step %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

type Report struct {
	Applied []string
	Skipped []*StepError
}

const (
	createAppMeta = `CREATE TABLE IF NOT EXISTS app_meta (
	key   TEXT PRIMARY KEY NOT NULL,
	value TEXT
)`

	// rooms is created before items so room_id has something to point at,
	// though nothing enforces the reference.
	createRooms = `CREATE TABLE IF NOT EXISTS rooms (
	id   TEXT PRIMARY KEY NOT NULL,
	name TEXT NOT NULL,
	sort INTEGER NOT NULL
)`

	createItems = `CREATE TABLE IF NOT EXISTS items (
	id         TEXT PRIMARY KEY NOT NULL,
	label      TEXT NOT NULL,
	note       TEXT,
	photo_uri  TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	lat        REAL,
	lon        REAL,
	accuracy   REAL,
	room_id    TEXT
)`

	// Installs from before rooms existed have an items table without room_id.
	addItemsRoomID = `ALTER TABLE items ADD COLUMN room_id TEXT`

	idxItemsCreatedAt = `CREATE INDEX IF NOT EXISTS idx_items_created_at ON items(created_at DESC)`
	idxItemsLabelNote = `CREATE INDEX IF NOT EXISTS idx_items_label_note ON items(label, note)`
	idxItemsRoom      = `CREATE INDEX IF NOT EXISTS idx_items_room ON items(room_id)`
)

// Steps is the ordered schema setup applied on every open. Every statement is
// safe to run against a database that already has the current shape.
var Steps = []Step{
	{Name: "journal_mode", SQL: `PRAGMA journal_mode = WAL`},
	{Name: "app_meta", SQL: createAppMeta, Critical: true},
	{Name: "rooms", SQL: createRooms, Critical: true},
	{Name: "items", SQL: createItems, Critical: true},
	{Name: "items_room_id_column", SQL: addItemsRoomID},
	{Name: "idx_items_created_at", SQL: idxItemsCreatedAt, Critical: true},
	{Name: "idx_items_label_note", SQL: idxItemsLabelNote, Critical: true},
	{Name: "idx_items_room", SQL: idxItemsRoom},
}

// Migrate applies Steps to db.
func Migrate(ctx context.Context, db *sql.DB, logger *slog.Logger) (*Report, error) {
	return runSteps(ctx, db, Steps, logger)
}

func runSteps(ctx context.Context, db *sql.DB, steps []Step, logger *slog.Logger) (*Report, error) {
	report := &Report{}
	for _, step := range steps {
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			if step.Critical {
				return nil, fmt.Errorf("failed to apply %s: %w", step.Name, err)
			}
			logger.Debug("advisory migration step skipped", "step", step.Name, "error", err)
			report.Skipped = append(report.Skipped, &StepError{Step: step.Name, Err: err})
			continue
		}
		report.Applied = append(report.Applied, step.Name)
	}
	return report, nil
}
