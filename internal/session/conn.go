package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/substringlabs/roomchat/internal/domain"
)

const writeWait = 10 * time.Second

// ConnState is the transport connection state.
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Conn maintains one logical websocket connection to the messaging endpoint.
// A Conn can be connected again after a failure or a clean disconnect.
type Conn struct {
	mu      sync.Mutex
	writeMu sync.Mutex
	ws      *websocket.Conn
	state   ConnState
	closing bool

	onData   func(data []byte)
	onClosed func(err error)
}

// NewConn creates a disconnected Conn.
func NewConn() *Conn {
	return &Conn{}
}

// OnData registers the handler for raw inbound frames. The handler is invoked
// sequentially from the read loop, in arrival order. Must be set before
// Connect.
func (c *Conn) OnData(fn func(data []byte)) {
	c.mu.Lock()
	c.onData = fn
	c.mu.Unlock()
}

// OnClosed registers a handler invoked when the connection drops unexpectedly.
// It is not invoked for a deliberate Disconnect.
func (c *Conn) OnClosed(fn func(err error)) {
	c.mu.Lock()
	c.onClosed = fn
	c.mu.Unlock()
}

// Connect dials the messaging endpoint and starts the read loop. It blocks
// the calling goroutine until the handshake completes or fails; on failure
// the Conn is left disconnected and may be connected again.
func (c *Conn) Connect(ctx context.Context, endpoint string) error {
	c.mu.Lock()
	if c.state != StateDisconnected {
		c.mu.Unlock()
		return fmt.Errorf("connect: %w", ErrAlreadyConnected)
	}
	c.state = StateConnecting
	c.closing = false
	c.mu.Unlock()

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		c.mu.Lock()
		c.state = StateDisconnected
		c.mu.Unlock()
		return fmt.Errorf("connect %s: %w", endpoint, err)
	}

	c.mu.Lock()
	if c.state != StateConnecting {
		// Disconnect raced the dial; drop the fresh socket.
		c.mu.Unlock()
		ws.Close()
		return fmt.Errorf("connect: %w", ErrConnectAborted)
	}
	c.ws = ws
	c.state = StateConnected
	c.mu.Unlock()

	go c.readLoop(ws)
	return nil
}

// Send writes a frame to the endpoint. Valid only while connected.
func (c *Conn) Send(f domain.Frame) error {
	data, err := domain.Encode(f)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}

	c.mu.Lock()
	ws := c.ws
	connected := c.state == StateConnected
	c.mu.Unlock()
	if !connected || ws == nil {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	ws.SetWriteDeadline(time.Now().Add(writeWait))
	return ws.WriteMessage(websocket.TextMessage, data)
}

// Disconnect releases the underlying channel. Idempotent; always succeeds.
func (c *Conn) Disconnect() {
	c.mu.Lock()
	ws := c.ws
	c.ws = nil
	c.closing = true
	c.state = StateDisconnected
	c.mu.Unlock()

	if ws != nil {
		deadline := time.Now().Add(writeWait)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		ws.WriteControl(websocket.CloseMessage, msg, deadline)
		ws.Close()
	}
}

// State returns the current connection state.
func (c *Conn) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Conn) readLoop(ws *websocket.Conn) {
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			c.mu.Lock()
			deliberate := c.closing
			if c.ws == ws {
				c.ws = nil
				c.state = StateDisconnected
			}
			onClosed := c.onClosed
			c.mu.Unlock()
			if !deliberate && onClosed != nil {
				onClosed(err)
			}
			return
		}

		c.mu.Lock()
		onData := c.onData
		c.mu.Unlock()
		if onData != nil {
			onData(data)
		}
	}
}
