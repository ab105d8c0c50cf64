package store

import (
	"errors"

	"github.com/substringlabs/roomchat/internal/domain"
)

// ErrRoomExists is returned by CreateRoom when the room id is already taken.
var ErrRoomExists = errors.New("room already exists")

// ErrRoomNotFound is returned when an operation references an unknown room.
var ErrRoomNotFound = errors.New("room not found")

// Store defines the room and message persistence interface.
type Store interface {
	// CreateRoom persists a new room. Returns ErrRoomExists on conflict.
	CreateRoom(roomID string) error
	// RoomExists reports whether a room has been created.
	RoomExists(roomID string) (bool, error)
	// RoomCount returns the number of created rooms.
	RoomCount() (int, error)
	// SaveMessage persists an accepted message.
	SaveMessage(msg domain.Message) error
	// History returns the last `limit` messages for a room, oldest first.
	History(roomID string, limit int) ([]domain.Message, error)
	// Close releases any resources held by the store.
	Close() error
}
