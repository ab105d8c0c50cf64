package domain

import (
	"encoding/json"
	"time"
)

// Frame types exchanged over the websocket.
const (
	// Client to server.
	FrameSubscribe   = "subscribe"
	FrameUnsubscribe = "unsubscribe"
	FrameSend        = "send"

	// Server to client.
	FrameMessage = "message"
	FrameError   = "error"
)

// Message is a chat message as stored and broadcast. The server is the sole
// assigner of Timestamp; any client-supplied value is overwritten on accept.
type Message struct {
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	RoomID    string    `json:"roomId"`
	Timestamp time.Time `json:"timestamp"`
}

// Frame is the flat wire envelope for all websocket traffic.
type Frame struct {
	Type      string    `json:"type"`
	RoomID    string    `json:"roomId,omitempty"`
	Sender    string    `json:"sender,omitempty"`
	Content   string    `json:"content,omitempty"`
	Timestamp time.Time `json:"timestamp,omitzero"`
	Error     string    `json:"error,omitempty"`
}

// Message extracts the chat message carried by a message frame.
func (f Frame) Message() Message {
	return Message{
		Sender:    f.Sender,
		Content:   f.Content,
		RoomID:    f.RoomID,
		Timestamp: f.Timestamp,
	}
}

// MessageFrame wraps an accepted message in a broadcast frame.
func MessageFrame(m Message) Frame {
	return Frame{
		Type:      FrameMessage,
		RoomID:    m.RoomID,
		Sender:    m.Sender,
		Content:   m.Content,
		Timestamp: m.Timestamp,
	}
}

// SendFrame builds the client-side publish command for a message.
func SendFrame(m Message) Frame {
	return Frame{
		Type:      FrameSend,
		RoomID:    m.RoomID,
		Sender:    m.Sender,
		Content:   m.Content,
		Timestamp: m.Timestamp,
	}
}

// ErrorFrame builds an error report frame.
func ErrorFrame(msg string) Frame {
	return Frame{Type: FrameError, Error: msg}
}

// Encode serializes a value to JSON bytes.
func Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

// DecodeFrame deserializes JSON bytes into a Frame.
func DecodeFrame(data []byte) (Frame, error) {
	var f Frame
	err := json.Unmarshal(data, &f)
	return f, err
}

// DecodeMessage deserializes JSON bytes into a Message.
func DecodeMessage(data []byte) (Message, error) {
	var m Message
	err := json.Unmarshal(data, &m)
	return m, err
}
