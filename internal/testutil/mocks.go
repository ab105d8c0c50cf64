// Package testutil provides shared fakes and helpers for tests.
package testutil

import (
	"sync"

	"github.com/substringlabs/roomchat/internal/domain"
	"github.com/substringlabs/roomchat/internal/store"
)

// MemStore implements store.Store in memory.
type MemStore struct {
	mu       sync.Mutex
	rooms    map[string]bool
	messages map[string][]domain.Message
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		rooms:    make(map[string]bool),
		messages: make(map[string][]domain.Message),
	}
}

// CreateRoom records a room, failing if it already exists.
func (s *MemStore) CreateRoom(roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rooms[roomID] {
		return store.ErrRoomExists
	}
	s.rooms[roomID] = true
	return nil
}

// RoomExists reports whether the room was created.
func (s *MemStore) RoomExists(roomID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms[roomID], nil
}

// RoomCount returns the number of created rooms.
func (s *MemStore) RoomCount() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms), nil
}

// SaveMessage appends a message to the room's log.
func (s *MemStore) SaveMessage(msg domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[msg.RoomID] = append(s.messages[msg.RoomID], msg)
	return nil
}

// History returns stored messages for a room, oldest first.
func (s *MemStore) History(roomID string, limit int) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.messages[roomID]
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	cp := make([]domain.Message, len(msgs))
	copy(cp, msgs)
	return cp, nil
}

// Close is a no-op for the in-memory store.
func (s *MemStore) Close() error { return nil }
