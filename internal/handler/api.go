package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/substringlabs/roomchat/internal/domain"
	"github.com/substringlabs/roomchat/internal/hub"
	"github.com/substringlabs/roomchat/internal/store"
)

// Health returns a simple health check handler.
func Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

// Rooms handles the room collection: POST creates a room, GET lists rooms
// with live subscriber counts.
func Rooms(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			createRoom(h, w, r)
		case http.MethodGet:
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(h.ListRooms())
		default:
			http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
		}
	}
}

func createRoom(h *hub.Hub, w http.ResponseWriter, r *http.Request) {
	var body struct {
		RoomID string `json:"roomId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.RoomID == "" {
		http.Error(w, `{"error":"roomId required"}`, http.StatusBadRequest)
		return
	}

	switch err := h.CreateRoom(body.RoomID); {
	case errors.Is(err, store.ErrRoomExists):
		http.Error(w, `{"error":"room already exists"}`, http.StatusConflict)
		return
	case errors.Is(err, hub.ErrMaxRooms):
		http.Error(w, `{"error":"max rooms reached"}`, http.StatusForbidden)
		return
	case err != nil:
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"roomId": body.RoomID})
}

// Room handles a single room: GET /api/rooms/{id} answers the join check,
// GET /api/rooms/{id}/messages returns the stored backlog, oldest first.
func Room(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/rooms/")
		if rest == "" {
			http.Error(w, `{"error":"roomId required"}`, http.StatusBadRequest)
			return
		}

		if roomID, ok := strings.CutSuffix(rest, "/messages"); ok {
			roomHistory(h, w, roomID)
			return
		}
		joinRoom(h, w, rest)
	}
}

func joinRoom(h *hub.Hub, w http.ResponseWriter, roomID string) {
	exists, err := h.RoomExists(roomID)
	if err != nil {
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if !exists {
		http.Error(w, `{"error":"room not found"}`, http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"roomId": roomID})
}

func roomHistory(h *hub.Hub, w http.ResponseWriter, roomID string) {
	msgs, err := h.History(roomID)
	if errors.Is(err, store.ErrRoomNotFound) {
		http.Error(w, `{"error":"room not found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(msgs)
}
