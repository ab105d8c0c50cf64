package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestFrameEncodeDecode(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC().Truncate(time.Second)
	original := Frame{
		Type:      FrameMessage,
		RoomID:    "general",
		Sender:    "alice",
		Content:   "hello world",
		Timestamp: now,
	}

	data, err := Encode(original)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	decoded, err := DecodeFrame(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if decoded.Type != original.Type {
		t.Errorf("type: got %q, want %q", decoded.Type, original.Type)
	}
	if decoded.RoomID != original.RoomID {
		t.Errorf("roomId: got %q, want %q", decoded.RoomID, original.RoomID)
	}
	if decoded.Sender != original.Sender {
		t.Errorf("sender: got %q, want %q", decoded.Sender, original.Sender)
	}
	if decoded.Content != original.Content {
		t.Errorf("content: got %q, want %q", decoded.Content, original.Content)
	}
	if !decoded.Timestamp.Equal(original.Timestamp) {
		t.Errorf("timestamp: got %v, want %v", decoded.Timestamp, original.Timestamp)
	}
}

func TestFrameFieldNames(t *testing.T) {
	t.Parallel()
	data, err := Encode(Frame{Type: FrameSend, RoomID: "r1", Sender: "alice", Content: "hi"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, field := range []string{"type", "roomId", "sender", "content"} {
		if _, ok := raw[field]; !ok {
			t.Errorf("expected %s field on the wire", field)
		}
	}
	if _, ok := raw["timestamp"]; ok {
		t.Error("expected zero timestamp to be omitted")
	}
}

func TestMessageFrameRoundTrip(t *testing.T) {
	t.Parallel()
	msg := Message{
		Sender:    "bob",
		Content:   "hey",
		RoomID:    "r2",
		Timestamp: time.Now().UTC().Truncate(time.Second),
	}

	f := MessageFrame(msg)
	if f.Type != FrameMessage {
		t.Errorf("type: got %q, want %q", f.Type, FrameMessage)
	}
	if got := f.Message(); got != msg {
		t.Errorf("round trip: got %+v, want %+v", got, msg)
	}
}

func TestErrorFrame(t *testing.T) {
	t.Parallel()
	data, err := Encode(ErrorFrame("bad request"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeFrame(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Type != FrameError {
		t.Errorf("type: got %q, want %q", decoded.Type, FrameError)
	}
	if decoded.Error != "bad request" {
		t.Errorf("error: got %q, want %q", decoded.Error, "bad request")
	}
}

func TestDecodeInvalidJSON(t *testing.T) {
	t.Parallel()
	if _, err := DecodeFrame([]byte("not json")); err == nil {
		t.Error("expected error for invalid JSON frame")
	}
	if _, err := DecodeMessage([]byte("{truncated")); err == nil {
		t.Error("expected error for invalid JSON message")
	}
}

func TestFrameTypes(t *testing.T) {
	t.Parallel()
	types := []string{FrameSubscribe, FrameUnsubscribe, FrameSend, FrameMessage, FrameError}
	expected := []string{"subscribe", "unsubscribe", "send", "message", "error"}
	for i, typ := range types {
		if typ != expected[i] {
			t.Errorf("type %d: got %q, want %q", i, typ, expected[i])
		}
	}
}
