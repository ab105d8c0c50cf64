package session

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned by operations that require a live
	// connection while the transport is disconnected.
	ErrNotConnected = errors.New("not connected")

	// ErrAlreadyConnected is returned by Connect on a non-idle connection.
	ErrAlreadyConnected = errors.New("already connected")

	// ErrConnectAborted is returned when a disconnect races the dial.
	ErrConnectAborted = errors.New("connect aborted")

	// ErrAlreadySubscribed is returned when a second live subscription is
	// requested for the same room on the same connection.
	ErrAlreadySubscribed = errors.New("already subscribed to room")

	// ErrNotActive is returned by SendMessage outside the Active state.
	ErrNotActive = errors.New("session not active")

	// ErrNotIdle is returned by Enter when a session is already in a room.
	ErrNotIdle = errors.New("session not idle")

	// ErrEntryCanceled is returned by Enter when a racing Leave (or a second
	// Enter) superseded the attempt before it completed.
	ErrEntryCanceled = errors.New("room entry canceled")

	// ErrEmptyMessage is returned by SendMessage for blank content.
	ErrEmptyMessage = errors.New("message content is empty")

	// ErrHistoryLoad marks a failed history fetch. The session proceeds with
	// an empty initial view; the wrapped error is kept on the session.
	ErrHistoryLoad = errors.New("history load failed")
)

// EntryError reports which stage of a room entry failed. The session is back
// in the idle state and the caller may retry Enter.
type EntryError struct {
	Stage string // "connect", "subscribe", or "transport"
	Err   error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("enter failed during %s: %v", e.Stage, e.Err)
}

func (e *EntryError) Unwrap() error { return e.Err }
