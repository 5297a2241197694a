package booking

import (
	"context"
	"log/slog"
	"strings"

	"hotelier/internal/app/dto"
	"hotelier/internal/app/handlers/support"
	"hotelier/internal/app/queries"
	"hotelier/internal/app/uow"
	domainbooking "hotelier/internal/domain/booking"
	domainroom "hotelier/internal/domain/room"
	domainuser "hotelier/internal/domain/user"
)

const (
	ListRequesterBookingsKey = "booking.list_requester"
	ListManagerBookingsKey   = "booking.list_manager"
)

type ListRequesterBookingsQuery struct {
	RequesterID string
}

func (q ListRequesterBookingsQuery) Key() string { return ListRequesterBookingsKey }

type ListRequesterBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *ListRequesterBookingsHandler) Handle(ctx context.Context, q ListRequesterBookingsQuery) (dto.BookingCollection, error) {
	requesterID := strings.TrimSpace(q.RequesterID)
	if requesterID == "" {
		return dto.BookingCollection{}, ErrRequesterRequired
	}
	unit, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	defer unit.Close()

	bookings, err := unit.Bookings().ListByRequester(unit.Ctx, requesterID)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	cache := map[domainroom.ID]*domainroom.Room{}
	items := make([]dto.Booking, 0, len(bookings))
	for _, b := range bookings {
		room := h.room(unit, b, cache)
		items = append(items, dto.MapBooking(b, room, nil))
	}
	return dto.BookingCollection{Items: items}, nil
}

func (h *ListRequesterBookingsHandler) room(unit *support.Unit, b *domainbooking.Booking, cache map[domainroom.ID]*domainroom.Room) *domainroom.Room {
	if r, ok := cache[b.RoomID]; ok {
		return r
	}
	r, err := unit.Rooms().ByID(unit.Ctx, b.RoomID)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("room snapshot missing for booking", "booking_id", b.ID, "room_id", b.RoomID, "error", err)
		}
		r = nil
	}
	cache[b.RoomID] = r
	return r
}

// ListManagerBookingsQuery lists bookings on every room the manager owns.
type ListManagerBookingsQuery struct {
	ManagerID string
	Status    string
}

func (q ListManagerBookingsQuery) Key() string { return ListManagerBookingsKey }

type ListManagerBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *ListManagerBookingsHandler) Handle(ctx context.Context, q ListManagerBookingsQuery) (dto.BookingCollection, error) {
	managerID := strings.TrimSpace(q.ManagerID)
	if managerID == "" {
		return dto.BookingCollection{}, ErrManagerRequired
	}
	var status domainbooking.Status
	if strings.TrimSpace(q.Status) != "" {
		s, err := domainbooking.ParseStatus(q.Status)
		if err != nil {
			return dto.BookingCollection{}, err
		}
		status = s
	}
	unit, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	defer unit.Close()

	rooms, err := unit.Rooms().ListByManager(unit.Ctx, managerID)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if len(rooms) == 0 {
		return dto.BookingCollection{Items: []dto.Booking{}}, nil
	}
	byID := make(map[domainroom.ID]*domainroom.Room, len(rooms))
	ids := make([]domainroom.ID, 0, len(rooms))
	for _, r := range rooms {
		byID[r.ID] = r
		ids = append(ids, r.ID)
	}
	bookings, err := unit.Bookings().ListByRooms(unit.Ctx, ids)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	requesters, err := LoadRequesters(unit.Ctx, unit.Users(), bookings)
	if err != nil {
		return dto.BookingCollection{}, err
	}

	items := make([]dto.Booking, 0, len(bookings))
	for _, b := range bookings {
		if status != "" && b.Status != status {
			continue
		}
		items = append(items, dto.MapBooking(b, byID[b.RoomID], requesters[domainuser.ID(b.RequesterID)]))
	}
	if h.Logger != nil {
		h.Logger.Debug("manager bookings listed", "manager_id", managerID, "count", len(items))
	}
	return dto.BookingCollection{Items: items}, nil
}

// LoadRequesters fetches the requester of every booking in one round trip.
func LoadRequesters(ctx context.Context, users domainuser.Repository, bookings []*domainbooking.Booking) (map[domainuser.ID]*domainuser.User, error) {
	seen := map[domainuser.ID]struct{}{}
	ids := make([]domainuser.ID, 0, len(bookings))
	for _, b := range bookings {
		id := domainuser.ID(b.RequesterID)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return map[domainuser.ID]*domainuser.User{}, nil
	}
	return users.ByIDs(ctx, ids)
}

// RegisterQueries wires the booking listings onto bus.
func RegisterQueries(bus *queries.InMemoryBus, factory uow.UoWFactory, logger *slog.Logger) {
	queries.RegisterHandler[ListRequesterBookingsQuery, dto.BookingCollection](bus, ListRequesterBookingsKey, &ListRequesterBookingsHandler{UoWFactory: factory, Logger: logger})
	queries.RegisterHandler[ListManagerBookingsQuery, dto.BookingCollection](bus, ListManagerBookingsKey, &ListManagerBookingsHandler{UoWFactory: factory, Logger: logger})
}
