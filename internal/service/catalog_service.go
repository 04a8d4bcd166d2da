package service

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vbonduro/findit/internal/domain"
	"github.com/vbonduro/findit/internal/photostore"
	"github.com/vbonduro/findit/internal/vision"
)

// itemRepository is the subset of store.ItemStore that CatalogService requires.
type itemRepository interface {
	Insert(ctx context.Context, item domain.NewItem) error
	GetByID(ctx context.Context, id string) (*domain.Item, error)
	Update(ctx context.Context, id, label string, note, roomID *string) error
	UpdateLocation(ctx context.Context, id string, loc domain.Location) error
	List(ctx context.Context, limit int, roomID *string) ([]*domain.Item, error)
	Search(ctx context.Context, term string, limit int, roomID *string) ([]*domain.Item, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

// roomRepository is the subset of store.RoomStore that CatalogService requires.
type roomRepository interface {
	List(ctx context.Context) ([]*domain.Room, error)
	GetByID(ctx context.Context, id string) (*domain.Room, error)
	Create(ctx context.Context, name string) (*domain.Room, error)
	Rename(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string, reassignTo *string) error
}

type CatalogService struct {
	items     itemRepository
	rooms     roomRepository
	photos    photostore.PhotoStore
	labeler   vision.Labeler
	logger    *slog.Logger
	listLimit int

	now   func() time.Time
	newID func() string
}

// NewCatalogService wires the service. labeler may be nil, in which case
// captures without a label stay unlabelled.
func NewCatalogService(
	items itemRepository,
	rooms roomRepository,
	photos photostore.PhotoStore,
	labeler vision.Labeler,
	listLimit int,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		items:     items,
		rooms:     rooms,
		photos:    photos,
		labeler:   labeler,
		logger:    logger,
		listLimit: listLimit,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// CaptureRequest describes a newly photographed item. Only SourcePath is
// required.
type CaptureRequest struct {
	SourcePath string
	Label      string
	Note       string
	RoomID     string
	Location   *domain.Location
}

// CaptureItem moves the photo into the photo store, records the item and, if
// given, attaches its location. The photo is moved back to SourcePath when
// the item cannot be recorded. A location that fails to save is logged and the
// item is returned without it.
func (s *CatalogService) CaptureItem(ctx context.Context, req CaptureRequest) (*domain.Item, error) {
	id := s.newID()
	s.logger.Info("capture started", "item_id", id, "source", req.SourcePath)

	ext := strings.ToLower(filepath.Ext(req.SourcePath))
	if ext == "" {
		ext = ".jpg"
	}
	photoURI, err := s.photos.Persist(ctx, req.SourcePath, id+ext)
	if err != nil {
		return nil, fmt.Errorf("failed to save photo: %w", err)
	}
	s.logger.Debug("photo saved", "item_id", id, "photo_uri", photoURI)

	label := strings.TrimSpace(req.Label)
	if label == "" {
		label = s.suggestLabel(ctx, id, photoURI)
	}

	item := domain.NewItem{
		ID:        id,
		Label:     label,
		Note:      trimmed(req.Note),
		PhotoURI:  photoURI,
		CreatedAt: s.now().UnixMilli(),
		RoomID:    trimmed(req.RoomID),
	}
	if err := s.items.Insert(ctx, item); err != nil {
		if rerr := s.photos.Restore(ctx, photoURI, req.SourcePath); rerr != nil {
			s.logger.Error("failed to return photo after insert error", "item_id", id, "photo_uri", photoURI, "error", rerr)
		}
		return nil, fmt.Errorf("failed to save item: %w", err)
	}

	if req.Location != nil {
		if err := s.items.UpdateLocation(ctx, id, *req.Location); err != nil {
			s.logger.Warn("failed to attach location", "item_id", id, "error", err)
		}
	}

	s.logger.Info("capture complete", "item_id", id, "label", label)
	return s.items.GetByID(ctx, id)
}

// suggestLabel asks the labeler for a label. Any failure yields "".
func (s *CatalogService) suggestLabel(ctx context.Context, id, photoURI string) string {
	if s.labeler == nil {
		return ""
	}

	r, mimeType, err := s.photos.Get(ctx, photoURI)
	if err != nil {
		s.logger.Warn("failed to open photo for labelling", "item_id", id, "error", err)
		return ""
	}
	defer func() { _ = r.Close() }()

	label, err := s.labeler.SuggestLabel(ctx, r, mimeType)
	if err != nil {
		s.logger.Warn("label suggestion failed", "item_id", id, "error", err)
		return ""
	}
	s.logger.Debug("label suggested", "item_id", id, "label", label)
	return label
}

func (s *CatalogService) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	return s.items.GetByID(ctx, id)
}

// FindItems lists the newest items, or searches them when term is not blank.
// An empty roomID means every room.
func (s *CatalogService) FindItems(ctx context.Context, term, roomID string) ([]*domain.Item, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.items.List(ctx, s.listLimit, trimmed(roomID))
	}
	return s.items.Search(ctx, term, s.listLimit, trimmed(roomID))
}

// UpdateItem replaces the label, note and room of an item and returns the
// result, or nil if the item does not exist.
func (s *CatalogService) UpdateItem(ctx context.Context, id, label, note, roomID string) (*domain.Item, error) {
	if err := s.items.Update(ctx, id, strings.TrimSpace(label), trimmed(note), trimmed(roomID)); err != nil {
		return nil, err
	}
	return s.items.GetByID(ctx, id)
}

func (s *CatalogService) SetLocation(ctx context.Context, id string, loc domain.Location) (*domain.Item, error) {
	if err := s.items.UpdateLocation(ctx, id, loc); err != nil {
		return nil, err
	}
	return s.items.GetByID(ctx, id)
}

func (s *CatalogService) DeleteItem(ctx context.Context, id string) error {
	return s.items.Delete(ctx, id)
}

func (s *CatalogService) ClearItems(ctx context.Context) error {
	return s.items.Clear(ctx)
}

func (s *CatalogService) ListRooms(ctx context.Context) ([]*domain.Room, error) {
	return s.rooms.List(ctx)
}

func (s *CatalogService) CreateRoom(ctx context.Context, name string) (*domain.Room, error) {
	return s.rooms.Create(ctx, name)
}

func (s *CatalogService) RenameRoom(ctx context.Context, id, name string) (*domain.Room, error) {
	if err := s.rooms.Rename(ctx, id, name); err != nil {
		return nil, err
	}
	return s.rooms.GetByID(ctx, id)
}

// DeleteRoom removes a room, moving its items to reassignTo or leaving them
// unassigned when reassignTo is empty.
func (s *CatalogService) DeleteRoom(ctx context.Context, id, reassignTo string) error {
	if err := s.rooms.Delete(ctx, id, trimmed(reassignTo)); err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}
	s.logger.Info("room deleted", "room_id", id, "reassigned_to", reassignTo)
	return nil
}

// trimmed returns nil for a blank string.
func trimmed(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
