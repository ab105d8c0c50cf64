package session

import (
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/substringlabs/roomchat/internal/domain"
)

// Subscription is a live registration for one room's messages.
type Subscription struct {
	// ID uniquely identifies this subscription handle.
	ID     string
	RoomID string

	onMessage func(domain.Message)
}

// SubscriptionManager binds rooms to live message streams on top of a Conn.
// It permits at most one live subscription per room per connection.
type SubscriptionManager struct {
	conn *Conn

	mu   sync.Mutex
	subs map[string]*Subscription // keyed by room id

	onDecodeError func(err error)
	onErrorFrame  func(msg string)
}

// NewSubscriptionManager creates a manager and installs itself as the
// connection's inbound frame handler.
func NewSubscriptionManager(conn *Conn) *SubscriptionManager {
	m := &SubscriptionManager{
		conn: conn,
		subs: make(map[string]*Subscription),
	}
	conn.OnData(m.handleData)
	return m
}

// OnDecodeError registers a side channel for malformed inbound payloads.
// Such payloads are dropped without disturbing the subscription.
func (m *SubscriptionManager) OnDecodeError(fn func(err error)) {
	m.mu.Lock()
	m.onDecodeError = fn
	m.mu.Unlock()
}

// OnErrorFrame registers a handler for error reports from the endpoint.
func (m *SubscriptionManager) OnErrorFrame(fn func(msg string)) {
	m.mu.Lock()
	m.onErrorFrame = fn
	m.mu.Unlock()
}

// Subscribe registers onMessage to be invoked, in arrival order, once per
// message the endpoint delivers for the room. The connection must be
// connected, and the room must not already have a live subscription.
func (m *SubscriptionManager) Subscribe(roomID string, onMessage func(domain.Message)) (*Subscription, error) {
	if m.conn.State() != StateConnected {
		return nil, fmt.Errorf("subscribe %s: %w", roomID, ErrNotConnected)
	}

	m.mu.Lock()
	if _, exists := m.subs[roomID]; exists {
		m.mu.Unlock()
		return nil, fmt.Errorf("subscribe %s: %w", roomID, ErrAlreadySubscribed)
	}
	sub := &Subscription{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		onMessage: onMessage,
	}
	m.subs[roomID] = sub
	m.mu.Unlock()

	if err := m.conn.Send(domain.Frame{Type: domain.FrameSubscribe, RoomID: roomID}); err != nil {
		m.mu.Lock()
		delete(m.subs, roomID)
		m.mu.Unlock()
		return nil, fmt.Errorf("subscribe %s: %w", roomID, err)
	}
	return sub, nil
}

// Unsubscribe stops delivery for the subscription. Idempotent, and safe to
// call after the underlying connection has already dropped.
func (m *SubscriptionManager) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	m.mu.Lock()
	current, ok := m.subs[sub.RoomID]
	if !ok || current.ID != sub.ID {
		m.mu.Unlock()
		return
	}
	delete(m.subs, sub.RoomID)
	m.mu.Unlock()

	// Best effort: the endpoint drops the registration with the connection
	// anyway if this fails.
	if err := m.conn.Send(domain.Frame{Type: domain.FrameUnsubscribe, RoomID: sub.RoomID}); err != nil {
		log.Printf("session: unsubscribe %s: %v", sub.RoomID, err)
	}
}

// Count returns the number of live subscriptions on this connection.
func (m *SubscriptionManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

func (m *SubscriptionManager) handleData(data []byte) {
	f, err := domain.DecodeFrame(data)
	if err != nil {
		m.mu.Lock()
		report := m.onDecodeError
		m.mu.Unlock()
		if report != nil {
			report(fmt.Errorf("decode frame: %w", err))
		} else {
			log.Printf("session: dropping malformed frame: %v", err)
		}
		return
	}

	switch f.Type {
	case domain.FrameMessage:
		m.mu.Lock()
		sub := m.subs[f.RoomID]
		m.mu.Unlock()
		if sub != nil {
			sub.onMessage(f.Message())
		}
	case domain.FrameError:
		m.mu.Lock()
		report := m.onErrorFrame
		m.mu.Unlock()
		if report != nil {
			report(f.Error)
		} else {
			log.Printf("session: endpoint error: %s", f.Error)
		}
	}
}
