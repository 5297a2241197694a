package booking

import (
	"time"

	"hotelier/internal/domain/room"
	"hotelier/internal/domain/shared/money"
)

type Reserved struct {
	BookingID   ID          `json:"booking_id"`
	RoomID      room.ID     `json:"room_id"`
	RequesterID string      `json:"requester_id"`
	CheckIn     time.Time   `json:"check_in"`
	CheckOut    time.Time   `json:"check_out"`
	Nights      int         `json:"nights"`
	Total       money.Money `json:"total"`
	At          time.Time   `json:"at"`
}

func (e Reserved) EventName() string     { return "booking.reserved" }
func (e Reserved) AggregateID() string   { return string(e.BookingID) }
func (e Reserved) OccurredAt() time.Time { return e.At }

type Cancelled struct {
	BookingID   ID        `json:"booking_id"`
	RoomID      room.ID   `json:"room_id"`
	RequesterID string    `json:"requester_id"`
	From        Status    `json:"from"`
	At          time.Time `json:"at"`
}

func (e Cancelled) EventName() string     { return "booking.cancelled" }
func (e Cancelled) AggregateID() string   { return string(e.BookingID) }
func (e Cancelled) OccurredAt() time.Time { return e.At }

type Completed struct {
	BookingID ID          `json:"booking_id"`
	RoomID    room.ID     `json:"room_id"`
	ManagerID string      `json:"manager_id"`
	Total     money.Money `json:"total"`
	At        time.Time   `json:"at"`
}

func (e Completed) EventName() string     { return "booking.completed" }
func (e Completed) AggregateID() string   { return string(e.BookingID) }
func (e Completed) OccurredAt() time.Time { return e.At }
