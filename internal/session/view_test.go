package session

import (
	"testing"

	"github.com/substringlabs/roomchat/internal/domain"
)

func TestViewInitThenAppend(t *testing.T) {
	t.Parallel()
	v := NewView()

	hist := []domain.Message{
		{Sender: "a", Content: "m1", RoomID: "r1"},
		{Sender: "b", Content: "m2", RoomID: "r1"},
	}
	v.Init(hist)
	v.Append(domain.Message{Sender: "a", Content: "m3", RoomID: "r1"})

	msgs := v.Messages()
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	for i, want := range []string{"m1", "m2", "m3"} {
		if msgs[i].Content != want {
			t.Errorf("message %d: got %q, want %q", i, msgs[i].Content, want)
		}
	}
}

func TestViewInitReplaces(t *testing.T) {
	t.Parallel()
	v := NewView()
	v.Append(domain.Message{Content: "stale"})

	v.Init([]domain.Message{{Content: "fresh"}})
	msgs := v.Messages()
	if len(msgs) != 1 || msgs[0].Content != "fresh" {
		t.Errorf("expected init to replace the view, got %+v", msgs)
	}
}

func TestViewSnapshotIsolated(t *testing.T) {
	t.Parallel()
	v := NewView()
	v.Append(domain.Message{Content: "m1"})

	snap := v.Messages()
	v.Append(domain.Message{Content: "m2"})

	if len(snap) != 1 {
		t.Errorf("snapshot grew with the view: %+v", snap)
	}
	snap[0].Content = "mutated"
	if v.Messages()[0].Content != "m1" {
		t.Error("mutating a snapshot leaked into the view")
	}
}

// Duplicate delivery from the endpoint is displayed twice; the view does not
// deduplicate.
func TestViewNoDeduplication(t *testing.T) {
	t.Parallel()
	v := NewView()
	m := domain.Message{Sender: "a", Content: "same", RoomID: "r1"}

	v.Append(m)
	v.Append(m)

	if n := v.Len(); n != 2 {
		t.Errorf("expected duplicate to be kept, got %d messages", n)
	}
}

func TestViewInitCopiesHistory(t *testing.T) {
	t.Parallel()
	v := NewView()
	hist := []domain.Message{{Content: "m1"}}
	v.Init(hist)

	hist[0].Content = "mutated"
	if v.Messages()[0].Content != "m1" {
		t.Error("mutating the history slice leaked into the view")
	}
}
