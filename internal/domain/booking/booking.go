package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hotelier/internal/domain/room"
	"hotelier/internal/domain/shared/daterange"
	"hotelier/internal/domain/shared/events"
	"hotelier/internal/domain/shared/fault"
	"hotelier/internal/domain/shared/money"
)

var (
	ErrRequesterRequired   = fault.Validation("booking: requester is required")
	ErrRoomRequired        = fault.Validation("booking: room is required")
	ErrNotFound            = fault.NotFound("booking: not found")
	ErrNotRequester        = fault.Authorization("booking: booking belongs to another requester")
	ErrNotRoomManager      = fault.Authorization("booking: room is managed by another manager")
	ErrRequesterOnlyCancel = fault.Authorization("booking: requesters may only cancel bookings")
	ErrManagerOnlyComplete = fault.Authorization("booking: managers may only complete bookings")
	ErrActorNotAllowed     = fault.Authorization("booking: actor role cannot change bookings")
	ErrIllegalTransition   = fault.State("booking: status transition not allowed")
	ErrConcurrentUpdate    = fault.Conflict("booking: concurrent update detected")
)

type ID string

// ActorRole names who is asking for a status change.
type ActorRole string

const (
	ActorRequester ActorRole = "user"
	ActorManager   ActorRole = "manager"
)

type Actor struct {
	ID   string
	Role ActorRole
}

type Booking struct {
	ID          ID
	RequesterID string
	RoomID      room.ID
	Stay        daterange.DateRange
	Status      Status
	Total       money.Money
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int64
	events.Recorder
}

// Repository is the booking ledger.
type Repository interface {
	ByID(ctx context.Context, id ID) (*Booking, error)
	Create(ctx context.Context, booking *Booking) error
	// Save persists a status change guarded by Version.
	Save(ctx context.Context, booking *Booking) error
	ListByRequester(ctx context.Context, requesterID string) ([]*Booking, error)
	ListByRooms(ctx context.Context, roomIDs []room.ID) ([]*Booking, error)
	ListByStatus(ctx context.Context, status Status) ([]*Booking, error)
	List(ctx context.Context) ([]*Booking, error)
}

type CreateParams struct {
	ID          ID
	RequesterID string
	Room        *room.Room
	Stay        daterange.DateRange
	Now         time.Time
}

// NewBooking prices the stay from the stored room, never from caller input.
func NewBooking(params CreateParams) (*Booking, error) {
	requester := strings.TrimSpace(params.RequesterID)
	if requester == "" {
		return nil, ErrRequesterRequired
	}
	if params.Room == nil {
		return nil, ErrRoomRequired
	}
	if err := params.Stay.Validate(); err != nil {
		return nil, err
	}
	total, err := params.Room.Price.Multiply(int64(params.Stay.Nights()))
	if err != nil {
		return nil, fmt.Errorf("booking total: %w", err)
	}
	if total.IsNegative() {
		return nil, room.ErrNegativePrice
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	b := &Booking{
		ID:          params.ID,
		RequesterID: requester,
		RoomID:      params.Room.ID,
		Stay:        params.Stay,
		Status:      StatusConfirmed,
		Total:       total,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	b.Record(Reserved{
		BookingID:   b.ID,
		RoomID:      b.RoomID,
		RequesterID: requester,
		CheckIn:     b.Stay.CheckIn,
		CheckOut:    b.Stay.CheckOut,
		Nights:      b.Stay.Nights(),
		Total:       total,
		At:          now,
	})
	return b, nil
}

// Nights is fixed at creation together with Total.
func (b *Booking) Nights() int {
	return b.Stay.Nights()
}

// Transition applies the authorization rules first, then the state machine.
// roomManagerID is the owner of the booked room and only matters for managers.
func (b *Booking) Transition(actor Actor, to Status, roomManagerID string, now time.Time) error {
	if !to.IsValid() {
		return ErrUnknownStatus
	}
	switch actor.Role {
	case ActorRequester:
		if actor.ID == "" || actor.ID != b.RequesterID {
			return ErrNotRequester
		}
		if to != StatusCancelled {
			return ErrRequesterOnlyCancel
		}
	case ActorManager:
		if actor.ID == "" || actor.ID != roomManagerID {
			return ErrNotRoomManager
		}
		if to != StatusCompleted {
			return ErrManagerOnlyComplete
		}
	default:
		return ErrActorNotAllowed
	}
	if !b.Status.CanTransitionTo(to) {
		return ErrIllegalTransition
	}

	from := b.Status
	b.Status = to
	if now.IsZero() {
		now = time.Now()
	}
	b.UpdatedAt = now.UTC()
	switch to {
	case StatusCancelled:
		b.Record(Cancelled{BookingID: b.ID, RoomID: b.RoomID, RequesterID: b.RequesterID, From: from, At: b.UpdatedAt})
	case StatusCompleted:
		b.Record(Completed{BookingID: b.ID, RoomID: b.RoomID, ManagerID: actor.ID, Total: b.Total, At: b.UpdatedAt})
	}
	return nil
}

func (b *Booking) Cancel(requesterID string, now time.Time) error {
	return b.Transition(Actor{ID: requesterID, Role: ActorRequester}, StatusCancelled, "", now)
}

func (b *Booking) Complete(managerID, roomManagerID string, now time.Time) error {
	return b.Transition(Actor{ID: managerID, Role: ActorManager}, StatusCompleted, roomManagerID, now)
}

// Clone returns a copy without pending events, used by in-memory stores.
func (b *Booking) Clone() *Booking {
	if b == nil {
		return nil
	}
	c := *b
	c.Recorder = events.Recorder{}
	return &c
}
