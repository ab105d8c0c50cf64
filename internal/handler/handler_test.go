package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/substringlabs/roomchat/internal/broker"
	"github.com/substringlabs/roomchat/internal/domain"
	"github.com/substringlabs/roomchat/internal/hub"
	"github.com/substringlabs/roomchat/internal/testutil"
)

func newTestHub(t *testing.T) (*hub.Hub, *testutil.MemStore) {
	t.Helper()
	url := testutil.RunNATS(t)
	b, err := broker.Connect(url)
	if err != nil {
		t.Fatalf("broker: %v", err)
	}
	t.Cleanup(b.Close)
	s := testutil.NewMemStore()
	return hub.New(s, b, 100, 50), s
}

func TestHealth(t *testing.T) {
	t.Parallel()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	Health()(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
}

func TestCreateRoom(t *testing.T) {
	h, _ := newTestHub(t)

	req := httptest.NewRequest(http.MethodPost, "/api/rooms", strings.NewReader(`{"roomId":"r1"}`))
	w := httptest.NewRecorder()
	Rooms(h)(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["roomId"] != "r1" {
		t.Errorf("expected roomId r1, got %q", body["roomId"])
	}
}

func TestCreateRoomConflict(t *testing.T) {
	h, _ := newTestHub(t)

	for i, want := range []int{http.StatusCreated, http.StatusConflict} {
		req := httptest.NewRequest(http.MethodPost, "/api/rooms", strings.NewReader(`{"roomId":"r1"}`))
		w := httptest.NewRecorder()
		Rooms(h)(w, req)
		if w.Code != want {
			t.Errorf("request %d: expected %d, got %d", i, want, w.Code)
		}
	}
}

func TestCreateRoomBadBody(t *testing.T) {
	h, _ := newTestHub(t)

	for _, body := range []string{"", "{}", "not json"} {
		req := httptest.NewRequest(http.MethodPost, "/api/rooms", strings.NewReader(body))
		w := httptest.NewRecorder()
		Rooms(h)(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected 400, got %d", body, w.Code)
		}
	}
}

func TestJoinRoom(t *testing.T) {
	h, _ := newTestHub(t)
	if err := h.CreateRoom("r1"); err != nil {
		t.Fatalf("create: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/rooms/r1", nil)
	w := httptest.NewRecorder()
	Room(h)(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["roomId"] != "r1" {
		t.Errorf("expected roomId r1, got %q", body["roomId"])
	}
}

func TestJoinRoomNotFound(t *testing.T) {
	h, _ := newTestHub(t)

	req := httptest.NewRequest(http.MethodGet, "/api/rooms/nope", nil)
	w := httptest.NewRecorder()
	Room(h)(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestRoomHistory(t *testing.T) {
	h, s := newTestHub(t)
	if err := h.CreateRoom("r1"); err != nil {
		t.Fatalf("create: %v", err)
	}
	base := time.Now().UTC().Truncate(time.Second)
	for i, content := range []string{"m1", "m2"} {
		msg := domain.Message{Sender: "alice", Content: content, RoomID: "r1", Timestamp: base.Add(time.Duration(i) * time.Second)}
		if err := s.SaveMessage(msg); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/rooms/r1/messages", nil)
	w := httptest.NewRecorder()
	Room(h)(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var msgs []domain.Message
	if err := json.NewDecoder(w.Body).Decode(&msgs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Content != "m1" || msgs[1].Content != "m2" {
		t.Errorf("unexpected history: %+v", msgs)
	}
}

func TestRoomHistoryEmpty(t *testing.T) {
	h, _ := newTestHub(t)
	if err := h.CreateRoom("r1"); err != nil {
		t.Fatalf("create: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/rooms/r1/messages", nil)
	w := httptest.NewRecorder()
	Room(h)(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body := strings.TrimSpace(w.Body.String()); body != "[]" {
		t.Errorf("expected empty JSON array, got %q", body)
	}
}

func TestRoomHistoryNotFound(t *testing.T) {
	h, _ := newTestHub(t)

	req := httptest.NewRequest(http.MethodGet, "/api/rooms/nope/messages", nil)
	w := httptest.NewRecorder()
	Room(h)(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestListRooms(t *testing.T) {
	h, _ := newTestHub(t)
	if err := h.CreateRoom("r1"); err != nil {
		t.Fatalf("create: %v", err)
	}
	sub, err := h.Subscribe("r1", func(domain.Frame) {})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer h.Unsubscribe(sub)

	req := httptest.NewRequest(http.MethodGet, "/api/rooms", nil)
	w := httptest.NewRecorder()
	Rooms(h)(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var rooms []domain.Room
	if err := json.NewDecoder(w.Body).Decode(&rooms); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rooms) != 1 || rooms[0].RoomID != "r1" || rooms[0].Subscribers != 1 {
		t.Errorf("unexpected listing: %+v", rooms)
	}
}

func TestRoomsMethodNotAllowed(t *testing.T) {
	h, _ := newTestHub(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/rooms", nil)
	w := httptest.NewRecorder()
	Rooms(h)(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", w.Code)
	}
}

func TestServeWSRequiresUser(t *testing.T) {
	h, _ := newTestHub(t)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	w := httptest.NewRecorder()
	ServeWS(h)(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}
