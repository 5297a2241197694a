package dto

import (
	"time"

	domainbooking "hotelier/internal/domain/booking"
	domainroom "hotelier/internal/domain/room"
	domainuser "hotelier/internal/domain/user"
)

type Booking struct {
	ID          string        `json:"id"`
	RequesterID string        `json:"requester_id"`
	RoomID      string        `json:"room_id"`
	CheckIn     time.Time     `json:"check_in"`
	CheckOut    time.Time     `json:"check_out"`
	Nights      int           `json:"nights"`
	Status      string        `json:"status"`
	Total       MoneyDTO      `json:"total"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	Room        *RoomSnapshot `json:"room,omitempty"`
	Requester   *UserSnapshot `json:"requester,omitempty"`
}

type BookingCollection struct {
	Items []Booking `json:"items"`
}

// MapBooking renders a booking; room and requester are optional snapshots.
func MapBooking(b *domainbooking.Booking, room *domainroom.Room, requester *domainuser.User) Booking {
	return Booking{
		ID:          string(b.ID),
		RequesterID: b.RequesterID,
		RoomID:      string(b.RoomID),
		CheckIn:     b.Stay.CheckIn,
		CheckOut:    b.Stay.CheckOut,
		Nights:      b.Nights(),
		Status:      b.Status.String(),
		Total:       MapMoney(b.Total),
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
		Room:        MapRoomSnapshot(room),
		Requester:   MapUserSnapshot(requester),
	}
}
