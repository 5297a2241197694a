package booking

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"hotelier/internal/app/commands"
	"hotelier/internal/app/dto"
	"hotelier/internal/app/handlers/support"
	"hotelier/internal/app/locks"
	"hotelier/internal/app/outbox"
	"hotelier/internal/app/uow"
	domainbooking "hotelier/internal/domain/booking"
	domainroom "hotelier/internal/domain/room"
	"hotelier/internal/domain/shared/daterange"
)

// Coordinator is the only writer of room availability. Every booking
// lifecycle change and the matching availability change commit together,
// under the room's lock, so that a room is unavailable exactly while it
// has a confirmed booking.
type Coordinator struct {
	UoWFactory uow.UoWFactory
	Locks      locks.Locker
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Clock      func() time.Time
	NewID      func() string
}

// Register wires the coordinator operations onto bus.
func (c *Coordinator) Register(bus *commands.InMemoryBus) {
	commands.RegisterHandler[ReserveRoomCommand, *dto.Booking](bus, ReserveKey, commands.HandlerFunc[ReserveRoomCommand, *dto.Booking](c.Reserve))
	commands.RegisterHandler[CancelBookingCommand, *dto.Booking](bus, CancelKey, commands.HandlerFunc[CancelBookingCommand, *dto.Booking](c.Cancel))
	commands.RegisterHandler[AdvanceBookingCommand, *dto.Booking](bus, AdvanceKey, commands.HandlerFunc[AdvanceBookingCommand, *dto.Booking](c.Advance))
	commands.RegisterHandler[UpdateStatusCommand, *dto.Booking](bus, UpdateStatusKey, commands.HandlerFunc[UpdateStatusCommand, *dto.Booking](c.UpdateStatus))
}

func (c *Coordinator) Reserve(ctx context.Context, cmd ReserveRoomCommand) (*dto.Booking, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	roomID := domainroom.ID(strings.TrimSpace(cmd.RoomID))

	release, err := c.lock(ctx, roomID)
	if err != nil {
		return nil, err
	}
	defer release()

	unit, err := support.BeginUnit(ctx, c.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer unit.Close()

	room, err := unit.Rooms().ByID(unit.Ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.Available {
		return nil, domainroom.ErrUnavailable
	}
	stay, err := daterange.Parse(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return nil, err
	}
	now := c.now()
	booking, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:          domainbooking.ID(c.newID()),
		RequesterID: cmd.RequesterID,
		Room:        room,
		Stay:        stay,
		Now:         now,
	})
	if err != nil {
		return nil, err
	}

	if err := unit.Bookings().Create(unit.Ctx, booking); err != nil {
		return nil, err
	}
	if err := unit.Rooms().ClaimAvailability(unit.Ctx, room.ID); err != nil {
		return nil, err
	}
	room.Available = false

	evs := append(booking.Drain(), domainroom.AvailabilityChanged{
		RoomID:    room.ID,
		Available: false,
		BookingID: string(booking.ID),
		At:        now,
	})
	if err := outbox.RecordDomainEvents(unit.Ctx, c.Outbox, c.Encoder, evs); err != nil {
		return nil, err
	}
	if err := unit.Commit(); err != nil {
		return nil, err
	}

	c.logger().InfoContext(ctx, "room reserved",
		"booking_id", booking.ID,
		"room_id", room.ID,
		"requester_id", booking.RequesterID,
		"nights", booking.Nights(),
		"total", booking.Total.Amount,
	)
	out := dto.MapBooking(booking, room, nil)
	return &out, nil
}

func (c *Coordinator) Cancel(ctx context.Context, cmd CancelBookingCommand) (*dto.Booking, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	actor := domainbooking.Actor{ID: strings.TrimSpace(cmd.RequesterID), Role: domainbooking.ActorRequester}
	return c.transition(ctx, cmd.BookingID, actor, domainbooking.StatusCancelled)
}

func (c *Coordinator) Advance(ctx context.Context, cmd AdvanceBookingCommand) (*dto.Booking, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	actor := domainbooking.Actor{ID: strings.TrimSpace(cmd.ManagerID), Role: domainbooking.ActorManager}
	return c.transition(ctx, cmd.BookingID, actor, domainbooking.StatusCompleted)
}

func (c *Coordinator) UpdateStatus(ctx context.Context, cmd UpdateStatusCommand) (*dto.Booking, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	status, err := domainbooking.ParseStatus(cmd.Status)
	if err != nil {
		return nil, err
	}
	actor := domainbooking.Actor{
		ID:   strings.TrimSpace(cmd.ActorID),
		Role: domainbooking.ActorRole(strings.ToLower(strings.TrimSpace(cmd.ActorRole))),
	}
	return c.transition(ctx, cmd.BookingID, actor, status)
}

func (c *Coordinator) transition(ctx context.Context, rawID string, actor domainbooking.Actor, to domainbooking.Status) (*dto.Booking, error) {
	id := domainbooking.ID(strings.TrimSpace(rawID))
	if id == "" {
		return nil, ErrBookingIDRequired
	}
	roomID, err := c.bookedRoom(ctx, id)
	if err != nil {
		return nil, err
	}

	release, err := c.lock(ctx, roomID)
	if err != nil {
		return nil, err
	}
	defer release()

	unit, err := support.BeginUnit(ctx, c.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer unit.Close()

	booking, err := unit.Bookings().ByID(unit.Ctx, id)
	if err != nil {
		return nil, err
	}
	room, err := unit.Rooms().ByID(unit.Ctx, booking.RoomID)
	if err != nil {
		return nil, err
	}
	now := c.now()
	if err := booking.Transition(actor, to, room.ManagerID, now); err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(unit.Ctx, booking); err != nil {
		return nil, err
	}

	evs := booking.Drain()
	if !booking.Status.IsActive() {
		if err := unit.Rooms().SetAvailability(unit.Ctx, room.ID, true); err != nil {
			return nil, err
		}
		room.Available = true
		evs = append(evs, domainroom.AvailabilityChanged{
			RoomID:    room.ID,
			Available: true,
			BookingID: string(booking.ID),
			At:        now,
		})
	}
	if err := outbox.RecordDomainEvents(unit.Ctx, c.Outbox, c.Encoder, evs); err != nil {
		return nil, err
	}
	if err := unit.Commit(); err != nil {
		return nil, err
	}

	c.logger().InfoContext(ctx, "booking status changed",
		"booking_id", booking.ID,
		"room_id", room.ID,
		"status", booking.Status,
		"actor_id", actor.ID,
		"actor_role", actor.Role,
	)
	out := dto.MapBooking(booking, room, nil)
	return &out, nil
}

// bookedRoom finds which room lock a transition needs. The booking is
// loaded again under the lock, so a stale read here only costs a retry.
func (c *Coordinator) bookedRoom(ctx context.Context, id domainbooking.ID) (domainroom.ID, error) {
	unit, err := support.BeginReadOnlyUnit(ctx, c.UoWFactory)
	if err != nil {
		return "", err
	}
	defer unit.Close()
	booking, err := unit.Bookings().ByID(unit.Ctx, id)
	if err != nil {
		return "", err
	}
	return booking.RoomID, nil
}

func (c *Coordinator) lock(ctx context.Context, roomID domainroom.ID) (locks.Release, error) {
	locker := c.Locks
	if locker == nil {
		locker = locks.Nop{}
	}
	release, err := locker.Acquire(ctx, locks.RoomKey(string(roomID)))
	if err != nil {
		if !errors.Is(err, locks.ErrBusy) && ctx.Err() == nil {
			c.logger().ErrorContext(ctx, "room lock unavailable", "room_id", roomID, "error", err)
		}
		return nil, err
	}
	return release, nil
}

func (c *Coordinator) now() time.Time {
	if c.Clock != nil {
		return c.Clock().UTC()
	}
	return time.Now().UTC()
}

func (c *Coordinator) newID() string {
	if c.NewID != nil {
		return c.NewID()
	}
	return uuid.NewString()
}

func (c *Coordinator) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
