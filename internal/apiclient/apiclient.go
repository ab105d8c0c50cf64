// Package apiclient is the HTTP client for the room lifecycle and history
// API. It satisfies session.HistoryLoader.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/substringlabs/roomchat/internal/domain"
)

// ErrRoomExists is returned by CreateRoom on an id conflict.
var ErrRoomExists = errors.New("room already exists")

// ErrRoomNotFound is returned by JoinRoom and Messages for unknown rooms.
var ErrRoomNotFound = errors.New("room not found")

// Client talks to the room API at a base URL.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client for the API at baseURL (e.g. "http://localhost:8080").
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// CreateRoom creates a room, returning ErrRoomExists on conflict.
func (c *Client) CreateRoom(ctx context.Context, roomID string) (domain.Room, error) {
	body, err := json.Marshal(map[string]string{"roomId": roomID})
	if err != nil {
		return domain.Room{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/rooms", bytes.NewReader(body))
	if err != nil {
		return domain.Room{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Room{}, fmt.Errorf("create room: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated:
		var room domain.Room
		if err := json.NewDecoder(resp.Body).Decode(&room); err != nil {
			return domain.Room{}, fmt.Errorf("create room: decode response: %w", err)
		}
		return room, nil
	case http.StatusConflict:
		return domain.Room{}, ErrRoomExists
	default:
		return domain.Room{}, fmt.Errorf("create room: unexpected status %d", resp.StatusCode)
	}
}

// JoinRoom verifies a room exists, returning ErrRoomNotFound otherwise.
func (c *Client) JoinRoom(ctx context.Context, roomID string) (domain.Room, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.roomURL(roomID), nil)
	if err != nil {
		return domain.Room{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Room{}, fmt.Errorf("join room: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var room domain.Room
		if err := json.NewDecoder(resp.Body).Decode(&room); err != nil {
			return domain.Room{}, fmt.Errorf("join room: decode response: %w", err)
		}
		return room, nil
	case http.StatusNotFound:
		return domain.Room{}, ErrRoomNotFound
	default:
		return domain.Room{}, fmt.Errorf("join room: unexpected status %d", resp.StatusCode)
	}
}

// Messages fetches the room's stored backlog, oldest first.
func (c *Client) Messages(ctx context.Context, roomID string) ([]domain.Message, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.roomURL(roomID)+"/messages", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var msgs []domain.Message
		if err := json.NewDecoder(resp.Body).Decode(&msgs); err != nil {
			return nil, fmt.Errorf("load history: decode response: %w", err)
		}
		return msgs, nil
	case http.StatusNotFound:
		return nil, ErrRoomNotFound
	default:
		return nil, fmt.Errorf("load history: unexpected status %d", resp.StatusCode)
	}
}

func (c *Client) roomURL(roomID string) string {
	return c.baseURL + "/api/rooms/" + url.PathEscape(roomID)
}
