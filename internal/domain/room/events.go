package room

import (
	"time"

	"hotelier/internal/domain/shared/money"
)

type Created struct {
	RoomID    ID          `json:"room_id"`
	Number    string      `json:"room_number"`
	Category  Category    `json:"category"`
	Price     money.Money `json:"price"`
	ManagerID string      `json:"manager_id"`
	At        time.Time   `json:"at"`
}

func (e Created) EventName() string     { return "room.created" }
func (e Created) AggregateID() string   { return string(e.RoomID) }
func (e Created) OccurredAt() time.Time { return e.At }

type Updated struct {
	RoomID   ID          `json:"room_id"`
	Number   string      `json:"room_number"`
	Category Category    `json:"category"`
	Price    money.Money `json:"price"`
	At       time.Time   `json:"at"`
}

func (e Updated) EventName() string     { return "room.updated" }
func (e Updated) AggregateID() string   { return string(e.RoomID) }
func (e Updated) OccurredAt() time.Time { return e.At }

// AvailabilityChanged is emitted by the booking coordinator, the only
// writer of the availability flag.
type AvailabilityChanged struct {
	RoomID    ID        `json:"room_id"`
	Available bool      `json:"available"`
	BookingID string    `json:"booking_id"`
	At        time.Time `json:"at"`
}

func (e AvailabilityChanged) EventName() string     { return "room.availability_changed" }
func (e AvailabilityChanged) AggregateID() string   { return string(e.RoomID) }
func (e AvailabilityChanged) OccurredAt() time.Time { return e.At }
