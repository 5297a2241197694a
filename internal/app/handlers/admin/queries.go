package admin

import (
	"context"
	"log/slog"

	"hotelier/internal/app/dto"
	"hotelier/internal/app/handlers/booking"
	"hotelier/internal/app/handlers/support"
	"hotelier/internal/app/queries"
	"hotelier/internal/app/uow"
	domainbooking "hotelier/internal/domain/booking"
	domainroom "hotelier/internal/domain/room"
	"hotelier/internal/domain/shared/money"
	domainuser "hotelier/internal/domain/user"
)

const (
	ListUsersKey    = "admin.users.list"
	ListRoomsKey    = "admin.rooms.list"
	ListBookingsKey = "admin.bookings.list"
	RevenueKey      = "admin.revenue"
)

var adminOnly = []string{string(domainuser.RoleAdmin)}

// ListUsersQuery lists accounts, optionally narrowed to one role.
type ListUsersQuery struct {
	Role       string
	FilterRole string
}

func (q ListUsersQuery) Key() string            { return ListUsersKey }
func (q ListUsersQuery) AllowedRoles() []string { return adminOnly }
func (q ListUsersQuery) CallerRole() string     { return q.Role }

type ListRoomsQuery struct {
	Role string
}

func (q ListRoomsQuery) Key() string            { return ListRoomsKey }
func (q ListRoomsQuery) AllowedRoles() []string { return adminOnly }
func (q ListRoomsQuery) CallerRole() string     { return q.Role }

type ListBookingsQuery struct {
	Role   string
	Status string
}

func (q ListBookingsQuery) Key() string            { return ListBookingsKey }
func (q ListBookingsQuery) AllowedRoles() []string { return adminOnly }
func (q ListBookingsQuery) CallerRole() string     { return q.Role }

type RevenueQuery struct {
	Role string
}

func (q RevenueQuery) Key() string            { return RevenueKey }
func (q RevenueQuery) AllowedRoles() []string { return adminOnly }
func (q RevenueQuery) CallerRole() string     { return q.Role }

type Queries struct {
	UoWFactory uow.UoWFactory
	Currency   string
	Logger     *slog.Logger
}

func (q *Queries) Register(bus *queries.InMemoryBus) {
	queries.RegisterHandler[ListUsersQuery, dto.UserCollection](bus, ListUsersKey, queries.HandlerFunc[ListUsersQuery, dto.UserCollection](q.ListUsers))
	queries.RegisterHandler[ListRoomsQuery, dto.RoomCollection](bus, ListRoomsKey, queries.HandlerFunc[ListRoomsQuery, dto.RoomCollection](q.ListRooms))
	queries.RegisterHandler[ListBookingsQuery, dto.BookingCollection](bus, ListBookingsKey, queries.HandlerFunc[ListBookingsQuery, dto.BookingCollection](q.ListBookings))
	queries.RegisterHandler[RevenueQuery, dto.Revenue](bus, RevenueKey, queries.HandlerFunc[RevenueQuery, dto.Revenue](q.Revenue))
}

func (q *Queries) ListUsers(ctx context.Context, query ListUsersQuery) (dto.UserCollection, error) {
	var role domainuser.Role
	if query.FilterRole != "" {
		r, err := domainuser.ParseRole(query.FilterRole)
		if err != nil {
			return dto.UserCollection{}, err
		}
		role = r
	}
	unit, err := support.BeginReadOnlyUnit(ctx, q.UoWFactory)
	if err != nil {
		return dto.UserCollection{}, err
	}
	defer unit.Close()
	users, err := unit.Users().List(unit.Ctx, role)
	if err != nil {
		return dto.UserCollection{}, err
	}
	return dto.MapUsers(users), nil
}

func (q *Queries) ListRooms(ctx context.Context, _ ListRoomsQuery) (dto.RoomCollection, error) {
	unit, err := support.BeginReadOnlyUnit(ctx, q.UoWFactory)
	if err != nil {
		return dto.RoomCollection{}, err
	}
	defer unit.Close()
	rooms, err := unit.Rooms().List(unit.Ctx)
	if err != nil {
		return dto.RoomCollection{}, err
	}
	return dto.MapRooms(rooms), nil
}

func (q *Queries) ListBookings(ctx context.Context, query ListBookingsQuery) (dto.BookingCollection, error) {
	unit, err := support.BeginReadOnlyUnit(ctx, q.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	defer unit.Close()

	var bookings []*domainbooking.Booking
	if query.Status != "" {
		status, err := domainbooking.ParseStatus(query.Status)
		if err != nil {
			return dto.BookingCollection{}, err
		}
		bookings, err = unit.Bookings().ListByStatus(unit.Ctx, status)
		if err != nil {
			return dto.BookingCollection{}, err
		}
	} else {
		bookings, err = unit.Bookings().List(unit.Ctx)
		if err != nil {
			return dto.BookingCollection{}, err
		}
	}

	rooms, err := unit.Rooms().List(unit.Ctx)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	byID := make(map[domainroom.ID]*domainroom.Room, len(rooms))
	for _, r := range rooms {
		byID[r.ID] = r
	}
	requesters, err := booking.LoadRequesters(unit.Ctx, unit.Users(), bookings)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	items := make([]dto.Booking, 0, len(bookings))
	for _, b := range bookings {
		items = append(items, dto.MapBooking(b, byID[b.RoomID], requesters[domainuser.ID(b.RequesterID)]))
	}
	return dto.BookingCollection{Items: items}, nil
}

// Revenue sums completed bookings only; cancelled and confirmed ones never count.
func (q *Queries) Revenue(ctx context.Context, _ RevenueQuery) (dto.Revenue, error) {
	unit, err := support.BeginReadOnlyUnit(ctx, q.UoWFactory)
	if err != nil {
		return dto.Revenue{}, err
	}
	defer unit.Close()
	completed, err := unit.Bookings().ListByStatus(unit.Ctx, domainbooking.StatusCompleted)
	if err != nil {
		return dto.Revenue{}, err
	}
	currency := q.Currency
	if currency == "" && len(completed) > 0 {
		currency = completed[0].Total.Currency
	}
	if currency == "" {
		currency = "USD"
	}
	total := money.Zero(currency)
	for _, b := range completed {
		total, err = total.Add(b.Total)
		if err != nil {
			if q.Logger != nil {
				q.Logger.Error("revenue currency mismatch", "booking_id", b.ID, "currency", b.Total.Currency, "error", err)
			}
			return dto.Revenue{}, err
		}
	}
	return dto.Revenue{Total: dto.MapMoney(total), CompletedBookings: len(completed)}, nil
}
