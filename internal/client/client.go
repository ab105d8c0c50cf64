// Package client holds the server side of one websocket connection: the
// read/write pumps and the dispatch of inbound frames to the hub.
package client

import (
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/substringlabs/roomchat/internal/domain"
	"github.com/substringlabs/roomchat/internal/hub"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// Client is a connected websocket peer.
type Client struct {
	hub      *hub.Hub
	conn     *websocket.Conn
	send     chan []byte
	username string
	subs     map[string]*hub.Subscription
}

// New creates a new Client for an upgraded connection.
func New(h *hub.Hub, conn *websocket.Conn, username string) *Client {
	return &Client{
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, 256),
		username: username,
		subs:     make(map[string]*hub.Subscription),
	}
}

// Username returns the client's display name.
func (c *Client) Username() string {
	return c.username
}

// Send queues a raw frame to be written to the peer.
func (c *Client) Send(data []byte) {
	select {
	case c.send <- data:
	default:
		// Client send buffer full, drop message.
		log.Printf("client %s: send buffer full, dropping message", c.username)
	}
}

// ReadPump reads frames from the websocket and dispatches them to the hub.
func (c *Client) ReadPump() {
	defer func() {
		// Release all room subscriptions on disconnect.
		for _, sub := range c.subs {
			c.hub.Unsubscribe(sub)
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("client %s: read error: %v", c.username, err)
			}
			return
		}
		c.handleFrame(data)
	}
}

// WritePump writes queued frames to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleFrame(data []byte) {
	f, err := domain.DecodeFrame(data)
	if err != nil {
		c.sendError("invalid JSON")
		return
	}

	switch f.Type {
	case domain.FrameSubscribe:
		if f.RoomID == "" {
			c.sendError("roomId required")
			return
		}
		if _, ok := c.subs[f.RoomID]; ok {
			c.sendError("already subscribed to room")
			return
		}
		sub, err := c.hub.Subscribe(f.RoomID, func(frame domain.Frame) {
			if data, err := domain.Encode(frame); err == nil {
				c.Send(data)
			}
		})
		if err != nil {
			c.sendError(err.Error())
			return
		}
		c.subs[f.RoomID] = sub

	case domain.FrameUnsubscribe:
		if f.RoomID == "" {
			c.sendError("roomId required")
			return
		}
		if sub, ok := c.subs[f.RoomID]; ok {
			delete(c.subs, f.RoomID)
			c.hub.Unsubscribe(sub)
		}

	case domain.FrameSend:
		if f.RoomID == "" || f.Content == "" {
			c.sendError("roomId and content required")
			return
		}
		msg := f.Message()
		if msg.Sender == "" {
			msg.Sender = c.username
		}
		if err := c.hub.Publish(msg); err != nil {
			c.sendError(err.Error())
		}

	default:
		c.sendError("unknown frame type: " + f.Type)
	}
}

func (c *Client) sendError(message string) {
	if data, err := domain.Encode(domain.ErrorFrame(message)); err == nil {
		c.Send(data)
	}
}
