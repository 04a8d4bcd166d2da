package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"github.com/vbonduro/findit/internal/domain"
)

// DefaultRooms is the starter set created the first time rooms are listed.
var DefaultRooms = []string{"Kitchen", "Bedroom", "Office"}

const roomsSeededKey = "rooms_seeded"

type RoomStore struct {
	conn   connector
	logger *slog.Logger
	seedMu sync.Mutex
}

func NewRoomStore(conn connector, logger *slog.Logger) *RoomStore {
	return &RoomStore{conn: conn, logger: logger}
}

// List returns all rooms ordered by sort then name, seeding the default rooms
// on the first call against an empty store.
func (s *RoomStore) List(ctx context.Context) ([]*domain.Room, error) {
	db, err := s.conn.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.ensureDefaultRooms(ctx, db); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, name, sort FROM rooms ORDER BY sort ASC, name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Error("failed to close rows", "error", err)
		}
	}()

	var rooms []*domain.Room
	for rows.Next() {
		room := &domain.Room{}
		if err := rows.Scan(&room.ID, &room.Name, &room.Sort); err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, room)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rooms: %w", err)
	}

	return rooms, nil
}

// ensureDefaultRooms seeds DefaultRooms once per store file. A store that
// already has rooms is marked seeded without adding any, and once marked the
// defaults never come back even if every room is deleted.
func (s *RoomStore) ensureDefaultRooms(ctx context.Context, db *sql.DB) error {
	s.seedMu.Lock()
	defer s.seedMu.Unlock()

	var seeded sql.NullString
	err := db.QueryRowContext(ctx, `SELECT value FROM app_meta WHERE key = ?`, roomsSeededKey).Scan(&seeded)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to read seed flag: %w", err)
	}
	if seeded.Valid && seeded.String == "1" {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM rooms`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count rooms: %w", err)
	}

	if count == 0 {
		for i, name := range DefaultRooms {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO rooms (id, name, sort) VALUES (?, ?, ?)
			`, uuid.NewString(), name, i+1); err != nil {
				return fmt.Errorf("failed to seed room %q: %w", name, err)
			}
		}
		s.logger.Info("seeded default rooms", "count", len(DefaultRooms))
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO app_meta (key, value) VALUES (?, '1')
	`, roomsSeededKey); err != nil {
		return fmt.Errorf("failed to set seed flag: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed transaction: %w", err)
	}
	return nil
}

func (s *RoomStore) GetByID(ctx context.Context, id string) (*domain.Room, error) {
	db, err := s.conn.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	room := &domain.Room{}
	err = db.QueryRowContext(ctx, `
		SELECT id, name, sort FROM rooms WHERE id = ?
	`, id).Scan(&room.ID, &room.Name, &room.Sort)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	return room, nil
}

// Create adds a room after the current last one. The trimmed name must be
// non-empty and unique ignoring case.
func (s *RoomStore) Create(ctx context.Context, name string) (*domain.Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrEmptyRoomName
	}

	db, err := s.conn.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	taken, err := nameTaken(ctx, db, name, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrDuplicateRoomName
	}

	var maxSort int
	if err := db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(sort), 0) FROM rooms
	`).Scan(&maxSort); err != nil {
		return nil, fmt.Errorf("failed to read room order: %w", err)
	}

	room := &domain.Room{ID: uuid.NewString(), Name: name, Sort: maxSort + 1}
	if _, err := db.ExecContext(ctx, `
		INSERT INTO rooms (id, name, sort) VALUES (?, ?, ?)
	`, room.ID, room.Name, room.Sort); err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	return room, nil
}

// Rename changes a room's name in place, with the same rules as Create.
// Renaming a room that does not exist is a no-op.
func (s *RoomStore) Rename(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.ErrEmptyRoomName
	}

	db, err := s.conn.Acquire(ctx)
	if err != nil {
		return err
	}

	taken, err := nameTaken(ctx, db, name, id)
	if err != nil {
		return err
	}
	if taken {
		return domain.ErrDuplicateRoomName
	}

	if _, err := db.ExecContext(ctx, `
		UPDATE rooms SET name = ? WHERE id = ?
	`, name, id); err != nil {
		return fmt.Errorf("failed to rename room: %w", err)
	}

	return nil
}

// Delete removes a room. Items in it are first moved to reassignTo, or left
// unassigned when reassignTo is nil, blank, or the room being deleted.
func (s *RoomStore) Delete(ctx context.Context, id string, reassignTo *string) error {
	db, err := s.conn.Acquire(ctx)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	target := nullable(reassignTo)
	if reassignTo != nil && *reassignTo == id {
		target = nil
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE items SET room_id = ? WHERE room_id = ?
	`, target, id); err != nil {
		return fmt.Errorf("failed to reassign items: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM rooms WHERE id = ?
	`, id); err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit room delete: %w", err)
	}
	return nil
}

// nameTaken reports whether a room other than exceptID already uses name,
// ignoring case. Names are folded in Go since SQLite's lower() only folds
// ASCII.
func nameTaken(ctx context.Context, db *sql.DB, name, exceptID string) (bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT name FROM rooms WHERE id != ?`, exceptID)
	if err != nil {
		return false, fmt.Errorf("failed to check room name: %w", err)
	}
	defer func() { _ = rows.Close() }()

	fold := cases.Fold()
	want := fold.String(name)
	for rows.Next() {
		var existing string
		if err := rows.Scan(&existing); err != nil {
			return false, fmt.Errorf("failed to scan room name: %w", err)
		}
		if fold.String(existing) == want {
			return true, nil
		}
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("error iterating room names: %w", err)
	}
	return false, nil
}
