package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vbonduro/findit/internal/domain"
	"github.com/vbonduro/findit/internal/photostore/mocks"
)

func roomNames(rooms []*domain.Room) []string {
	out := make([]string, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.Name)
	}
	return out
}

func TestRoomStoreListSeedsDefaults(t *testing.T) {
	store := NewRoomStore(newTestManager(t), testLogger())
	ctx := context.Background()

	rooms, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Kitchen", "Bedroom", "Office"}, roomNames(rooms))
	for i, r := range rooms {
		assert.Equal(t, i+1, r.Sort)
		assert.NotEmpty(t, r.ID)
	}

	again, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, again, 3)
}

func TestRoomStoreSeedingRunsOnce(t *testing.T) {
	store := NewRoomStore(newTestManager(t), testLogger())
	ctx := context.Background()

	rooms, err := store.List(ctx)
	require.NoError(t, err)
	for _, r := range rooms {
		require.NoError(t, store.Delete(ctx, r.ID, nil))
	}

	rooms, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, rooms)
}

func TestRoomStoreSkipsSeedingWhenRoomsExist(t *testing.T) {
	store := NewRoomStore(newTestManager(t), testLogger())
	ctx := context.Background()

	garage, err := store.Create(ctx, "Garage")
	require.NoError(t, err)

	rooms, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Garage"}, roomNames(rooms))

	require.NoError(t, store.Delete(ctx, garage.ID, nil))
	rooms, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, rooms)
}

func TestRoomStoreCreate(t *testing.T) {
	store := NewRoomStore(newTestManager(t), testLogger())
	ctx := context.Background()

	_, err := store.List(ctx)
	require.NoError(t, err)

	room, err := store.Create(ctx, "  Garage  ")
	require.NoError(t, err)
	assert.NotEmpty(t, room.ID)
	assert.Equal(t, "Garage", room.Name)
	assert.Equal(t, 4, room.Sort)

	retrieved, err := store.GetByID(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, room, retrieved)
}

func TestRoomStoreCreateFirstRoomStartsAtOne(t *testing.T) {
	store := NewRoomStore(newTestManager(t), testLogger())

	room, err := store.Create(context.Background(), "Attic")
	require.NoError(t, err)
	assert.Equal(t, 1, room.Sort)
}

func TestRoomStoreNamesAreUniqueIgnoringCase(t *testing.T) {
	store := NewRoomStore(newTestManager(t), testLogger())
	ctx := context.Background()

	_, err := store.Create(ctx, "Kitchen")
	require.NoError(t, err)

	_, err = store.Create(ctx, "kitchen")
	assert.ErrorIs(t, err, domain.ErrDuplicateRoomName)

	hall, err := store.Create(ctx, "Hall")
	require.NoError(t, err)

	err = store.Rename(ctx, hall.ID, " KITCHEN ")
	assert.ErrorIs(t, err, domain.ErrDuplicateRoomName)

	retrieved, err := store.GetByID(ctx, hall.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hall", retrieved.Name)

	_, err = store.Create(ctx, "Küche")
	require.NoError(t, err)
	_, err = store.Create(ctx, "KÜCHE")
	assert.ErrorIs(t, err, domain.ErrDuplicateRoomName)

	err = store.Rename(ctx, hall.ID, "küche")
	assert.ErrorIs(t, err, domain.ErrDuplicateRoomName)

	_, err = store.Create(ctx, "Straße")
	require.NoError(t, err)
	_, err = store.Create(ctx, "STRASSE")
	assert.ErrorIs(t, err, domain.ErrDuplicateRoomName)
}

func TestRoomStoreRename(t *testing.T) {
	store := NewRoomStore(newTestManager(t), testLogger())
	ctx := context.Background()

	room, err := store.Create(ctx, "Hall")
	require.NoError(t, err)

	// Changing only the case of its own name is allowed.
	require.NoError(t, store.Rename(ctx, room.ID, "HALL"))
	require.NoError(t, store.Rename(ctx, room.ID, "  Hallway "))

	retrieved, err := store.GetByID(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hallway", retrieved.Name)
	assert.Equal(t, room.Sort, retrieved.Sort)
}

func TestRoomStoreRejectsBlankNames(t *testing.T) {
	store := NewRoomStore(newTestManager(t), testLogger())
	ctx := context.Background()

	_, err := store.Create(ctx, "   ")
	assert.ErrorIs(t, err, domain.ErrEmptyRoomName)

	room, err := store.Create(ctx, "Hall")
	require.NoError(t, err)
	assert.ErrorIs(t, store.Rename(ctx, room.ID, ""), domain.ErrEmptyRoomName)
}

func TestRoomStoreListOrdersBySortThenName(t *testing.T) {
	mgr := newTestManager(t)
	store := NewRoomStore(mgr, testLogger())
	ctx := context.Background()

	d, err := mgr.Acquire(ctx)
	require.NoError(t, err)
	_, err = d.Exec(`
		INSERT INTO rooms (id, name, sort) VALUES
			('a', 'Zoo', 1), ('b', 'Attic', 2), ('c', 'Basement', 1)
	`)
	require.NoError(t, err)

	rooms, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Basement", "Zoo", "Attic"}, roomNames(rooms))
}

func TestRoomStoreGetByIDNotFound(t *testing.T) {
	store := NewRoomStore(newTestManager(t), testLogger())

	room, err := store.GetByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, room)
}

func TestRoomStoreDeleteReassignsItems(t *testing.T) {
	mgr := newTestManager(t)
	rooms := NewRoomStore(mgr, testLogger())
	items := NewItemStore(mgr, mocks.NewMockPhotoStore(gomock.NewController(t)), testLogger())
	ctx := context.Background()

	r1, err := rooms.Create(ctx, "Garage")
	require.NoError(t, err)
	r2, err := rooms.Create(ctx, "Shed")
	require.NoError(t, err)

	item := newItem("drill", "Drill", 100)
	item.RoomID = &r1.ID
	require.NoError(t, items.Insert(ctx, item))

	require.NoError(t, rooms.Delete(ctx, r1.ID, &r2.ID))

	got, err := items.GetByID(ctx, "drill")
	require.NoError(t, err)
	require.NotNil(t, got.RoomID)
	assert.Equal(t, r2.ID, *got.RoomID)
	require.NotNil(t, got.RoomName)
	assert.Equal(t, "Shed", *got.RoomName)

	gone, err := rooms.GetByID(ctx, r1.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestRoomStoreDeleteUnassignsItems(t *testing.T) {
	mgr := newTestManager(t)
	rooms := NewRoomStore(mgr, testLogger())
	items := NewItemStore(mgr, mocks.NewMockPhotoStore(gomock.NewController(t)), testLogger())
	ctx := context.Background()

	room, err := rooms.Create(ctx, "Garage")
	require.NoError(t, err)

	item := newItem("drill", "Drill", 100)
	item.RoomID = &room.ID
	require.NoError(t, items.Insert(ctx, item))

	require.NoError(t, rooms.Delete(ctx, room.ID, nil))

	got, err := items.GetByID(ctx, "drill")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.RoomID)
	assert.Nil(t, got.RoomName)

	all, err := items.List(ctx, DefaultListLimit, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Drill"}, labels(all))
}

func TestRoomStoreDeleteReassignToSelfUnassigns(t *testing.T) {
	mgr := newTestManager(t)
	rooms := NewRoomStore(mgr, testLogger())
	items := NewItemStore(mgr, mocks.NewMockPhotoStore(gomock.NewController(t)), testLogger())
	ctx := context.Background()

	room, err := rooms.Create(ctx, "Garage")
	require.NoError(t, err)

	item := newItem("drill", "Drill", 100)
	item.RoomID = &room.ID
	require.NoError(t, items.Insert(ctx, item))

	require.NoError(t, rooms.Delete(ctx, room.ID, ptr(room.ID)))

	got, err := items.GetByID(ctx, "drill")
	require.NoError(t, err)
	assert.Nil(t, got.RoomID)
}
