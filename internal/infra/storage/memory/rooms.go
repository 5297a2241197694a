package memory

import (
	"context"
	"sort"

	domainroom "hotelier/internal/domain/room"
)

type RoomRepository struct {
	store   *Store
	journal *journal
}

func (r *RoomRepository) ByID(_ context.Context, id domainroom.ID) (*domainroom.Room, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	room, ok := r.store.rooms[id]
	if !ok {
		return nil, domainroom.ErrNotFound
	}
	return room.Clone(), nil
}

func (r *RoomRepository) Create(_ context.Context, room *domainroom.Room) error {
	if err := r.journal.writable(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.rooms[room.ID]; exists {
		return domainroom.ErrDuplicateNumber
	}
	if r.numberTaken(room.Number, room.ID) {
		return domainroom.ErrDuplicateNumber
	}
	stored := room.Clone()
	stored.Version = 1
	r.store.rooms[room.ID] = stored
	room.Version = stored.Version
	id := room.ID
	r.journal.record(func() { delete(r.store.rooms, id) })
	return nil
}

// Save writes the manager-editable fields and keeps the stored availability.
func (r *RoomRepository) Save(_ context.Context, room *domainroom.Room) error {
	if err := r.journal.writable(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	current, ok := r.store.rooms[room.ID]
	if !ok {
		return domainroom.ErrNotFound
	}
	if current.Version != room.Version {
		return domainroom.ErrConcurrentUpdate
	}
	if r.numberTaken(room.Number, room.ID) {
		return domainroom.ErrDuplicateNumber
	}
	next := room.Clone()
	next.Available = current.Available
	next.Version = current.Version + 1
	r.store.rooms[room.ID] = next
	room.Version = next.Version
	room.Available = next.Available
	r.journal.record(func() {
		r.restore(current.ID, func(live *domainroom.Room) {
			live.Number = current.Number
			live.Category = current.Category
			live.Price = current.Price
			live.PhotoURL = current.PhotoURL
			live.UpdatedAt = current.UpdatedAt
		})
	})
	return nil
}

func (r *RoomRepository) SetAvailability(_ context.Context, id domainroom.ID, available bool) error {
	if err := r.journal.writable(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	current, ok := r.store.rooms[id]
	if !ok {
		return domainroom.ErrNotFound
	}
	if current.Available == available {
		return nil
	}
	r.flip(current, available)
	return nil
}

func (r *RoomRepository) ClaimAvailability(_ context.Context, id domainroom.ID) error {
	if err := r.journal.writable(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	current, ok := r.store.rooms[id]
	if !ok {
		return domainroom.ErrNotFound
	}
	if !current.Available {
		return domainroom.ErrUnavailable
	}
	r.flip(current, false)
	return nil
}

// flip must be called with the store lock held.
func (r *RoomRepository) flip(current *domainroom.Room, available bool) {
	next := current.Clone()
	next.Available = available
	next.Version = current.Version + 1
	r.store.rooms[current.ID] = next
	previous := current.Available
	r.journal.record(func() {
		r.restore(current.ID, func(live *domainroom.Room) { live.Available = previous })
	})
}

// restore undoes one write against the live record, so fields written by
// other units since then survive. Must be called with the store lock held.
func (r *RoomRepository) restore(id domainroom.ID, undo func(live *domainroom.Room)) {
	live, ok := r.store.rooms[id]
	if !ok {
		return
	}
	next := live.Clone()
	undo(next)
	next.Version = live.Version + 1
	r.store.rooms[id] = next
}

func (r *RoomRepository) ListAvailable(_ context.Context) ([]*domainroom.Room, error) {
	return r.filter(func(room *domainroom.Room) bool { return room.Available }), nil
}

func (r *RoomRepository) ListByManager(_ context.Context, managerID string) ([]*domainroom.Room, error) {
	return r.filter(func(room *domainroom.Room) bool { return room.ManagerID == managerID }), nil
}

func (r *RoomRepository) List(_ context.Context) ([]*domainroom.Room, error) {
	return r.filter(func(*domainroom.Room) bool { return true }), nil
}

func (r *RoomRepository) filter(keep func(*domainroom.Room) bool) []*domainroom.Room {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]*domainroom.Room, 0, len(r.store.rooms))
	for _, room := range r.store.rooms {
		if keep(room) {
			out = append(out, room.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

func (r *RoomRepository) numberTaken(number string, except domainroom.ID) bool {
	for id, room := range r.store.rooms {
		if id != except && room.Number == number {
			return true
		}
	}
	return false
}

var _ domainroom.Repository = (*RoomRepository)(nil)
