package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/vbonduro/findit/internal/domain"
)

// DefaultListLimit caps List and Search when callers have no preference.
const DefaultListLimit = 100

// photoRemover is the subset of photostore.PhotoStore that ItemStore requires.
type photoRemover interface {
	Delete(ctx context.Context, ref string) error
}

type ItemStore struct {
	conn   connector
	photos photoRemover
	logger *slog.Logger
}

func NewItemStore(conn connector, photos photoRemover, logger *slog.Logger) *ItemStore {
	return &ItemStore{conn: conn, photos: photos, logger: logger}
}

const selectItems = `
	SELECT items.id, items.label, items.note, items.photo_uri, items.created_at,
	       items.lat, items.lon, items.accuracy, items.room_id, rooms.name
	FROM items
	LEFT JOIN rooms ON items.room_id = rooms.id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*domain.Item, error) {
	var (
		item               domain.Item
		note, roomID, room sql.NullString
		lat, lon, accuracy sql.NullFloat64
	)
	if err := row.Scan(&item.ID, &item.Label, &note, &item.PhotoURI, &item.CreatedAt,
		&lat, &lon, &accuracy, &roomID, &room); err != nil {
		return nil, err
	}

	item.Note = stringPtr(note)
	item.RoomID = stringPtr(roomID)
	item.RoomName = stringPtr(room)
	if lat.Valid && lon.Valid {
		item.Location = &domain.Location{Lat: lat.Float64, Lon: lon.Float64}
		if accuracy.Valid {
			acc := accuracy.Float64
			item.Location.Accuracy = &acc
		}
	}
	return &item, nil
}

func (s *ItemStore) Insert(ctx context.Context, item domain.NewItem) error {
	db, err := s.conn.Acquire(ctx)
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, `
		INSERT INTO items (id, label, note, photo_uri, created_at, room_id) VALUES (?, ?, ?, ?, ?, ?)
	`, item.ID, item.Label, nullable(item.Note), item.PhotoURI, item.CreatedAt, nullable(item.RoomID)); err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}

	return nil
}

// GetByID returns the item with its room name, or nil if there is no such item.
func (s *ItemStore) GetByID(ctx context.Context, id string) (*domain.Item, error) {
	db, err := s.conn.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	item, err := scanItem(db.QueryRowContext(ctx, selectItems+` WHERE items.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	return item, nil
}

// Update replaces label, note and room together. A nil note or roomID clears
// the stored value.
func (s *ItemStore) Update(ctx context.Context, id, label string, note, roomID *string) error {
	db, err := s.conn.Acquire(ctx)
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, `
		UPDATE items SET label = ?, note = ?, room_id = ? WHERE id = ?
	`, label, nullable(note), nullable(roomID), id); err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}

	return nil
}

// UpdateLocation replaces all three location columns.
func (s *ItemStore) UpdateLocation(ctx context.Context, id string, loc domain.Location) error {
	db, err := s.conn.Acquire(ctx)
	if err != nil {
		return err
	}

	var accuracy any
	if loc.Accuracy != nil {
		accuracy = *loc.Accuracy
	}
	if _, err := db.ExecContext(ctx, `
		UPDATE items SET lat = ?, lon = ?, accuracy = ? WHERE id = ?
	`, loc.Lat, loc.Lon, accuracy, id); err != nil {
		return fmt.Errorf("failed to update item location: %w", err)
	}

	return nil
}

// List returns up to limit items, newest first. A nil roomID lists every room.
func (s *ItemStore) List(ctx context.Context, limit int, roomID *string) ([]*domain.Item, error) {
	room := nullable(roomID)
	return s.query(ctx, "list", selectItems+`
		WHERE (? IS NULL OR items.room_id = ?)
		ORDER BY items.created_at DESC
		LIMIT ?
	`, room, room, limit)
}

// likeEscaper makes LIKE wildcards in a search term match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search matches term as a case-insensitive substring of label or note.
// Ordering and room filtering follow List. A blank term matches everything.
func (s *ItemStore) Search(ctx context.Context, term string, limit int, roomID *string) ([]*domain.Item, error) {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
	room := nullable(roomID)
	return s.query(ctx, "search", selectItems+`
		WHERE (lower(items.label) LIKE ? ESCAPE '\'
		       OR lower(COALESCE(items.note, '')) LIKE ? ESCAPE '\')
		  AND (? IS NULL OR items.room_id = ?)
		ORDER BY items.created_at DESC
		LIMIT ?
	`, pattern, pattern, room, room, limit)
}

func (s *ItemStore) query(ctx context.Context, op, query string, args ...any) ([]*domain.Item, error) {
	db, err := s.conn.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to %s items: %w", op, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Error("failed to close rows", "error", err)
		}
	}()

	var items []*domain.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	return items, nil
}

// Delete removes the item, then asks the photo store to drop its photo.
// Photo cleanup failures are logged and never change the result.
func (s *ItemStore) Delete(ctx context.Context, id string) error {
	db, err := s.conn.Acquire(ctx)
	if err != nil {
		return err
	}

	var photoURI sql.NullString
	err = db.QueryRowContext(ctx, `SELECT photo_uri FROM items WHERE id = ?`, id).Scan(&photoURI)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get item photo: %w", err)
	}

	if _, err := db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	if photoURI.Valid && photoURI.String != "" {
		s.removePhoto(ctx, photoURI.String)
	}
	return nil
}

// Clear removes every item in one transaction, then drops all their photos
// concurrently. It returns once every cleanup attempt has finished.
func (s *ItemStore) Clear(ctx context.Context) error {
	db, err := s.conn.Acquire(ctx)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	refs, err := s.photoRefs(ctx, tx)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM items`); err != nil {
		return fmt.Errorf("failed to clear items: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit clear: %w", err)
	}

	var g errgroup.Group
	for _, ref := range refs {
		g.Go(func() error {
			s.removePhoto(ctx, ref)
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info("cleared items", "photos", len(refs))
	return nil
}

func (s *ItemStore) photoRefs(ctx context.Context, tx *sql.Tx) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `SELECT photo_uri FROM items`)
	if err != nil {
		return nil, fmt.Errorf("failed to list item photos: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Error("failed to close rows", "error", err)
		}
	}()

	var refs []string
	for rows.Next() {
		var ref sql.NullString
		if err := rows.Scan(&ref); err != nil {
			return nil, fmt.Errorf("failed to scan item photo: %w", err)
		}
		if ref.Valid && ref.String != "" {
			refs = append(refs, ref.String)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item photos: %w", err)
	}
	return refs, nil
}

// removePhoto is advisory: the row is already gone, so a failure here only
// leaves an orphaned file behind.
func (s *ItemStore) removePhoto(ctx context.Context, ref string) {
	if err := s.photos.Delete(ctx, ref); err != nil {
		s.logger.Warn("failed to delete item photo", "photo_uri", ref, "error", err)
	}
}
