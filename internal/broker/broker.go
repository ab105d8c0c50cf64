// Package broker fans accepted messages out to room subscribers over NATS.
// Each room maps to one subject; each websocket-client-room pair holds its
// own subscription, so NATS preserves per-room delivery order end to end.
package broker

import (
	"fmt"
	"log"

	"github.com/nats-io/nats.go"

	"github.com/substringlabs/roomchat/internal/domain"
)

// Client wraps a NATS connection scoped to chat-room subjects.
type Client struct {
	nc *nats.Conn
}

// Connect establishes a NATS connection to the given URL.
func Connect(url string) (*Client, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return &Client{nc: nc}, nil
}

func subject(roomID string) string {
	return "chat.room." + roomID
}

// Publish broadcasts an accepted message to the room's subject.
func (c *Client) Publish(msg domain.Message) error {
	data, err := domain.Encode(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	return c.nc.Publish(subject(msg.RoomID), data)
}

// Subscription is a live registration on one room's subject.
type Subscription struct {
	sub *nats.Subscription
}

// Subscribe registers handle to be invoked, in arrival order, for every
// message published to the room. Payloads that fail to decode are logged
// and skipped.
func (c *Client) Subscribe(roomID string, handle func(domain.Message)) (*Subscription, error) {
	sub, err := c.nc.Subscribe(subject(roomID), func(m *nats.Msg) {
		msg, err := domain.DecodeMessage(m.Data)
		if err != nil {
			log.Printf("broker: dropping malformed payload on %s: %v", m.Subject, err)
			return
		}
		handle(msg)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe to room %s: %w", roomID, err)
	}
	return &Subscription{sub: sub}, nil
}

// Unsubscribe stops delivery for this subscription. Safe to call more than
// once or after the connection has closed.
func (s *Subscription) Unsubscribe() error {
	if s == nil || s.sub == nil {
		return nil
	}
	if !s.sub.IsValid() {
		return nil
	}
	return s.sub.Unsubscribe()
}

// Flush waits for all published messages to be processed by the server.
func (c *Client) Flush() error {
	return c.nc.Flush()
}

// Close drains and releases the NATS connection.
func (c *Client) Close() {
	c.nc.Close()
}
