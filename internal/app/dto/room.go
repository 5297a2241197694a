package dto

import (
	"time"

	domainroom "hotelier/internal/domain/room"
)

type Room struct {
	ID        string    `json:"id"`
	Number    string    `json:"room_number"`
	Category  string    `json:"category"`
	Price     MoneyDTO  `json:"price"`
	Available bool      `json:"available"`
	ManagerID string    `json:"manager_id"`
	PhotoURL  string    `json:"photo_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type RoomCollection struct {
	Items []Room `json:"items"`
}

// RoomSnapshot is the part of a room shown next to a booking.
type RoomSnapshot struct {
	ID       string   `json:"id"`
	Number   string   `json:"room_number"`
	Category string   `json:"category"`
	Price    MoneyDTO `json:"price"`
}

func MapRoom(r *domainroom.Room) Room {
	return Room{
		ID:        string(r.ID),
		Number:    r.Number,
		Category:  string(r.Category),
		Price:     MapMoney(r.Price),
		Available: r.Available,
		ManagerID: r.ManagerID,
		PhotoURL:  r.PhotoURL,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func MapRooms(rooms []*domainroom.Room) RoomCollection {
	items := make([]Room, 0, len(rooms))
	for _, r := range rooms {
		items = append(items, MapRoom(r))
	}
	return RoomCollection{Items: items}
}

func MapRoomSnapshot(r *domainroom.Room) *RoomSnapshot {
	if r == nil {
		return nil
	}
	return &RoomSnapshot{ID: string(r.ID), Number: r.Number, Category: string(r.Category), Price: MapMoney(r.Price)}
}
