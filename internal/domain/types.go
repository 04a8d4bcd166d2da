package domain

import "errors"

var (
	// ErrDuplicateRoomName is returned when another room already uses the
	// requested name, compared case-insensitively.
	ErrDuplicateRoomName = errors.New("room name already exists")
	// ErrEmptyRoomName is returned when a room name is blank after trimming.
	ErrEmptyRoomName = errors.New("room name required")
)

type Room struct {
	ID   string
	Name string
	Sort int
}

// Location is replaced as a whole; Accuracy is optional.
type Location struct {
	Lat      float64
	Lon      float64
	Accuracy *float64
}

type Item struct {
	ID        string
	Label     string
	Note      *string
	PhotoURI  string
	CreatedAt int64 // epoch milliseconds
	Location  *Location
	RoomID    *string
	// RoomName is filled from a join at read time and is nil when the item
	// is unassigned or its room no longer exists.
	RoomName *string
}

// NewItem is the insert shape of an Item. Location is attached separately.
type NewItem struct {
	ID        string
	Label     string
	Note      *string
	PhotoURI  string
	CreatedAt int64
	RoomID    *string
}
