package domain

// Room describes a chat room as reported by the lifecycle API.
type Room struct {
	RoomID      string `json:"roomId"`
	Subscribers int    `json:"subscribers,omitempty"`
}
