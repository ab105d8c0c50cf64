package main

import (
	"log"
	"net/http"

	"github.com/substringlabs/roomchat/internal/broker"
	"github.com/substringlabs/roomchat/internal/config"
	"github.com/substringlabs/roomchat/internal/handler"
	"github.com/substringlabs/roomchat/internal/hub"
	"github.com/substringlabs/roomchat/internal/middleware"
	"github.com/substringlabs/roomchat/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	s, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer s.Close()

	b, err := broker.Connect(cfg.NATSURL)
	if err != nil {
		log.Fatalf("broker: %v", err)
	}
	defer b.Close()

	h := hub.New(s, b, cfg.MaxRooms, cfg.MaxHistory)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", handler.Health())
	mux.HandleFunc("/api/rooms", handler.Rooms(h))
	mux.HandleFunc("/api/rooms/", handler.Room(h))
	mux.HandleFunc("/ws", handler.ServeWS(h))

	wrapped := middleware.Logging(middleware.CORS(mux))

	addr := ":" + cfg.Port
	log.Printf("roomchat listening on %s", addr)
	if err := http.ListenAndServe(addr, wrapped); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
