package rooms

import (
	"context"
	"strings"

	"hotelier/internal/app/dto"
	"hotelier/internal/app/handlers/support"
	"hotelier/internal/app/queries"
	"hotelier/internal/app/uow"
)

const (
	ListAvailableKey = "rooms.list_available"
	ListManagedKey   = "rooms.list_managed"
)

type ListAvailableRoomsQuery struct{}

func (ListAvailableRoomsQuery) Key() string { return ListAvailableKey }

type ListManagedRoomsQuery struct {
	ManagerID string
}

func (ListManagedRoomsQuery) Key() string { return ListManagedKey }

type Queries struct {
	UoWFactory uow.UoWFactory
}

func (q *Queries) Register(bus *queries.InMemoryBus) {
	queries.RegisterHandler[ListAvailableRoomsQuery, dto.RoomCollection](bus, ListAvailableKey, queries.HandlerFunc[ListAvailableRoomsQuery, dto.RoomCollection](q.ListAvailable))
	queries.RegisterHandler[ListManagedRoomsQuery, dto.RoomCollection](bus, ListManagedKey, queries.HandlerFunc[ListManagedRoomsQuery, dto.RoomCollection](q.ListManaged))
}

func (q *Queries) ListAvailable(ctx context.Context, _ ListAvailableRoomsQuery) (dto.RoomCollection, error) {
	unit, err := support.BeginReadOnlyUnit(ctx, q.UoWFactory)
	if err != nil {
		return dto.RoomCollection{}, err
	}
	defer unit.Close()
	rooms, err := unit.Rooms().ListAvailable(unit.Ctx)
	if err != nil {
		return dto.RoomCollection{}, err
	}
	return dto.MapRooms(rooms), nil
}

func (q *Queries) ListManaged(ctx context.Context, query ListManagedRoomsQuery) (dto.RoomCollection, error) {
	managerID := strings.TrimSpace(query.ManagerID)
	if managerID == "" {
		return dto.RoomCollection{}, ErrManagerRequired
	}
	unit, err := support.BeginReadOnlyUnit(ctx, q.UoWFactory)
	if err != nil {
		return dto.RoomCollection{}, err
	}
	defer unit.Close()
	rooms, err := unit.Rooms().ListByManager(unit.Ctx, managerID)
	if err != nil {
		return dto.RoomCollection{}, err
	}
	return dto.MapRooms(rooms), nil
}
