// Package session is the client-side core of the chat system: the transport
// connection, the per-room topic subscription, the merged history+live
// message view, and the state machine that drives join, chat, and leave.
package session

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/substringlabs/roomchat/internal/domain"
)

// Status is the session lifecycle state.
type Status int

const (
	StatusIdle Status = iota
	StatusEntering
	StatusActive
	StatusLeaving
)

func (s Status) String() string {
	switch s {
	case StatusEntering:
		return "entering"
	case StatusActive:
		return "active"
	case StatusLeaving:
		return "leaving"
	default:
		return "idle"
	}
}

// HistoryLoader fetches the ordered message backlog for a room.
type HistoryLoader interface {
	Messages(ctx context.Context, roomID string) ([]domain.Message, error)
}

// Session owns one participant's presence in at most one room: the transport
// connection, the room subscription, and the message view. Stale completions
// of a superseded Enter are discarded by an epoch counter that every async
// callback checks before touching session state.
type Session struct {
	endpoint string
	history  HistoryLoader
	notify   func()

	mu      sync.Mutex
	status  Status
	epoch   uint64
	roomID  string
	user    string
	conn    *Conn
	subs    *SubscriptionManager
	sub     *Subscription
	view    *View
	pending []domain.Message
	ready   bool
	lastErr error

	// Set by connLost so a superseded Enter can tell a transport drop
	// apart from a racing Leave.
	dropEpoch uint64
	dropErr   error
}

// Option configures a Session.
type Option func(*Session)

// WithNotify registers a callback invoked after every view or status change,
// so a presentation layer can re-read the session.
func WithNotify(fn func()) Option {
	return func(s *Session) { s.notify = fn }
}

// New creates an idle Session that will connect to the given websocket
// endpoint and load history through the given loader.
func New(endpoint string, history HistoryLoader, opts ...Option) *Session {
	s := &Session{
		endpoint: endpoint,
		history:  history,
		view:     NewView(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type histResult struct {
	msgs []domain.Message
	err  error
}

// Enter joins a room: it loads history and connects concurrently, subscribes
// to the room's topic once connected, then initializes the view with the
// history result before any live message is appended. Messages delivered
// while history is still in flight are buffered and flushed in order.
//
// Valid only from the idle state. On connection or subscription failure the
// session returns to idle with no live subscription left behind, and Enter
// reports an EntryError. A Leave racing an in-flight Enter makes Enter
// discard its own completion and return ErrEntryCanceled; a transport drop
// during entry reports an EntryError at the "transport" stage instead.
func (s *Session) Enter(ctx context.Context, roomID, displayName string) error {
	s.mu.Lock()
	if s.status != StatusIdle {
		s.mu.Unlock()
		return fmt.Errorf("enter %s: %w", roomID, ErrNotIdle)
	}
	s.epoch++
	epoch := s.epoch
	s.status = StatusEntering
	s.roomID = roomID
	s.user = displayName
	s.view = NewView()
	s.pending = nil
	s.ready = false
	s.lastErr = nil
	s.dropEpoch = 0
	s.dropErr = nil
	s.mu.Unlock()
	s.changed()

	histCh := make(chan histResult, 1)
	go func() {
		msgs, err := s.history.Messages(ctx, roomID)
		histCh <- histResult{msgs: msgs, err: err}
	}()

	conn := NewConn()
	subs := NewSubscriptionManager(conn)
	conn.OnClosed(func(err error) { s.connLost(epoch, err) })

	if err := conn.Connect(ctx, s.endpoint); err != nil {
		if !s.abandon(epoch) {
			return s.entryEnded(epoch)
		}
		return &EntryError{Stage: "connect", Err: err}
	}

	if !s.adoptConn(epoch, conn, subs) {
		conn.Disconnect()
		return s.entryEnded(epoch)
	}

	sub, err := subs.Subscribe(roomID, func(m domain.Message) {
		s.deliver(epoch, m)
	})
	if err != nil {
		conn.Disconnect()
		if !s.abandon(epoch) {
			return s.entryEnded(epoch)
		}
		return &EntryError{Stage: "subscribe", Err: err}
	}
	if !s.adoptSub(epoch, sub) {
		subs.Unsubscribe(sub)
		conn.Disconnect()
		return s.entryEnded(epoch)
	}

	// History failure degrades to an empty initial view rather than blocking
	// the chat; live delivery is already running.
	var hist []domain.Message
	select {
	case res := <-histCh:
		if res.err != nil {
			s.recordErr(epoch, fmt.Errorf("%w: %v", ErrHistoryLoad, res.err))
		} else {
			hist = res.msgs
		}
	case <-ctx.Done():
		s.recordErr(epoch, fmt.Errorf("%w: %v", ErrHistoryLoad, ctx.Err()))
	}

	if !s.activate(epoch, hist) {
		subs.Unsubscribe(sub)
		conn.Disconnect()
		return s.entryEnded(epoch)
	}
	s.changed()
	return nil
}

// SendMessage publishes content to the current room. Valid only while
// active; the sent message reappears through the subscription echo rather
// than being appended locally.
func (s *Session) SendMessage(content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyMessage
	}

	s.mu.Lock()
	if s.status != StatusActive {
		s.mu.Unlock()
		return ErrNotActive
	}
	conn := s.conn
	msg := domain.Message{
		Sender:    s.user,
		Content:   content,
		RoomID:    s.roomID,
		Timestamp: time.Now().UTC(),
	}
	s.mu.Unlock()

	return conn.Send(domain.SendFrame(msg))
}

// Leave unsubscribes, disconnects, clears the view, and returns the session
// to idle. Valid from any state and idempotent when already idle. Bumping
// the epoch here is what cancels a racing in-flight Enter.
func (s *Session) Leave() {
	s.mu.Lock()
	if s.status == StatusIdle {
		s.mu.Unlock()
		return
	}
	s.epoch++
	conn, subs, sub := s.conn, s.subs, s.sub
	s.conn, s.subs, s.sub = nil, nil, nil
	s.status = StatusLeaving
	s.mu.Unlock()
	s.changed()

	if subs != nil {
		subs.Unsubscribe(sub)
	}
	if conn != nil {
		conn.Disconnect()
	}

	s.mu.Lock()
	s.status = StatusIdle
	s.roomID = ""
	s.user = ""
	s.view = NewView()
	s.pending = nil
	s.ready = false
	s.mu.Unlock()
	s.changed()
}

// Messages returns the current ordered view snapshot.
func (s *Session) Messages() []domain.Message {
	s.mu.Lock()
	view := s.view
	s.mu.Unlock()
	return view.Messages()
}

// Status returns the current session state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// RoomID returns the current room, or "" when idle.
func (s *Session) RoomID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomID
}

// User returns the current display name, or "" when idle.
func (s *Session) User() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// LastError returns the most recent recoverable error (history load failure
// or unexpected transport drop), or nil.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// deliver appends a live message, buffering it if the history snapshot has
// not been applied yet. Stale epochs are discarded.
func (s *Session) deliver(epoch uint64, m domain.Message) {
	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return
	}
	if !s.ready {
		s.pending = append(s.pending, m)
		s.mu.Unlock()
		return
	}
	s.view.Append(m)
	s.mu.Unlock()
	s.changed()
}

// activate initializes the view with the history snapshot, flushes buffered
// live messages in arrival order, and moves the session to active.
func (s *Session) activate(epoch uint64, hist []domain.Message) bool {
	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return false
	}
	s.view.Init(hist)
	for _, m := range s.pending {
		s.view.Append(m)
	}
	s.pending = nil
	s.ready = true
	s.status = StatusActive
	s.mu.Unlock()
	return true
}

func (s *Session) adoptConn(epoch uint64, conn *Conn, subs *SubscriptionManager) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return false
	}
	s.conn = conn
	s.subs = subs
	return true
}

func (s *Session) adoptSub(epoch uint64, sub *Subscription) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return false
	}
	s.sub = sub
	return true
}

// abandon rolls a failed entry attempt back to idle. Reports false when the
// attempt was already superseded.
func (s *Session) abandon(epoch uint64) bool {
	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return false
	}
	s.status = StatusIdle
	s.roomID = ""
	s.user = ""
	s.conn, s.subs, s.sub = nil, nil, nil
	s.mu.Unlock()
	s.changed()
	return true
}

// connLost handles an unexpected transport drop while joined: the session is
// surfaced back to idle with the error recorded and the view discarded,
// without crashing anything.
func (s *Session) connLost(epoch uint64, err error) {
	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return
	}
	log.Printf("session: connection lost: %v", err)
	s.epoch++
	s.dropEpoch = epoch
	s.dropErr = err
	s.lastErr = fmt.Errorf("connection lost: %w", err)
	s.status = StatusIdle
	s.roomID = ""
	s.user = ""
	s.conn, s.subs, s.sub = nil, nil, nil
	s.view = NewView()
	s.ready = false
	s.pending = nil
	s.mu.Unlock()
	s.changed()
}

// entryEnded reports why a superseded entry attempt was cut short: a
// transport drop during entry surfaces as an EntryError, a racing Leave (or
// second Enter) as ErrEntryCanceled.
func (s *Session) entryEnded(epoch uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dropEpoch == epoch && s.dropErr != nil {
		return &EntryError{Stage: "transport", Err: s.dropErr}
	}
	return ErrEntryCanceled
}

func (s *Session) recordErr(epoch uint64, err error) {
	s.mu.Lock()
	if s.epoch == epoch {
		s.lastErr = err
	}
	s.mu.Unlock()
}

func (s *Session) changed() {
	if s.notify != nil {
		s.notify()
	}
}
