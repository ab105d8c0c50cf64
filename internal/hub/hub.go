// Package hub coordinates the server side of the messaging endpoint: it
// validates rooms, assigns authoritative timestamps, persists accepted
// messages, and fans them out through the broker.
package hub

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/substringlabs/roomchat/internal/broker"
	"github.com/substringlabs/roomchat/internal/domain"
	"github.com/substringlabs/roomchat/internal/store"
)

// ErrMaxRooms is returned by CreateRoom once the room cap is reached.
var ErrMaxRooms = errors.New("max rooms reached")

// Hub routes messages between the store, the broker, and websocket clients.
type Hub struct {
	store      store.Store
	broker     *broker.Client
	maxRooms   int
	maxHistory int

	mu     sync.Mutex
	counts map[string]int // live subscriber count per room
}

// New creates a Hub on top of a store and a connected broker.
func New(s store.Store, b *broker.Client, maxRooms, maxHistory int) *Hub {
	return &Hub{
		store:      s,
		broker:     b,
		maxRooms:   maxRooms,
		maxHistory: maxHistory,
		counts:     make(map[string]int),
	}
}

// CreateRoom persists a new room, enforcing the room cap.
// Returns store.ErrRoomExists on conflict.
func (h *Hub) CreateRoom(roomID string) error {
	n, err := h.store.RoomCount()
	if err != nil {
		return fmt.Errorf("room count: %w", err)
	}
	if n >= h.maxRooms {
		return ErrMaxRooms
	}
	if err := h.store.CreateRoom(roomID); err != nil {
		return err
	}
	log.Printf("hub: room created: %s", roomID)
	return nil
}

// RoomExists reports whether a room has been created.
func (h *Hub) RoomExists(roomID string) (bool, error) {
	return h.store.RoomExists(roomID)
}

// History returns the room's stored backlog, oldest first.
func (h *Hub) History(roomID string) ([]domain.Message, error) {
	exists, err := h.store.RoomExists(roomID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, store.ErrRoomNotFound
	}
	return h.store.History(roomID, h.maxHistory)
}

// Publish accepts a message for a room: stamps the authoritative timestamp,
// persists it, and broadcasts it to every subscriber of the room.
func (h *Hub) Publish(msg domain.Message) error {
	exists, err := h.store.RoomExists(msg.RoomID)
	if err != nil {
		return err
	}
	if !exists {
		return store.ErrRoomNotFound
	}

	// The server is the sole assigner of timestamps.
	msg.Timestamp = time.Now().UTC()

	if err := h.store.SaveMessage(msg); err != nil {
		log.Printf("hub: store save error: %v", err)
	}
	return h.broker.Publish(msg)
}

// Subscription is one client's live registration on a room.
type Subscription struct {
	hub    *Hub
	roomID string
	sub    *broker.Subscription
	once   sync.Once
}

// RoomID returns the room this subscription delivers for.
func (s *Subscription) RoomID() string { return s.roomID }

// Subscribe registers deliver to receive every accepted message for the room,
// in publish order, wrapped in a broadcast frame.
func (h *Hub) Subscribe(roomID string, deliver func(domain.Frame)) (*Subscription, error) {
	exists, err := h.store.RoomExists(roomID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, store.ErrRoomNotFound
	}

	sub, err := h.broker.Subscribe(roomID, func(m domain.Message) {
		deliver(domain.MessageFrame(m))
	})
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	h.counts[roomID]++
	h.mu.Unlock()
	return &Subscription{hub: h, roomID: roomID, sub: sub}, nil
}

// Unsubscribe stops delivery and releases the broker subscription. Idempotent.
func (h *Hub) Unsubscribe(s *Subscription) {
	if s == nil {
		return
	}
	s.once.Do(func() {
		if err := s.sub.Unsubscribe(); err != nil {
			log.Printf("hub: unsubscribe error: %v", err)
		}
		h.mu.Lock()
		if h.counts[s.roomID]--; h.counts[s.roomID] <= 0 {
			delete(h.counts, s.roomID)
		}
		h.mu.Unlock()
	})
}

// SubscriberCount returns the number of live subscriptions for a room.
func (h *Hub) SubscriberCount(roomID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.counts[roomID]
}

// ListRooms returns the rooms that currently have live subscribers.
func (h *Hub) ListRooms() []domain.Room {
	h.mu.Lock()
	defer h.mu.Unlock()
	return lo.MapToSlice(h.counts, func(roomID string, n int) domain.Room {
		return domain.Room{RoomID: roomID, Subscribers: n}
	})
}
