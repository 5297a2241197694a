package memory

import (
	"context"
	"sort"

	domainbooking "hotelier/internal/domain/booking"
	domainroom "hotelier/internal/domain/room"
)

type BookingRepository struct {
	store   *Store
	journal *journal
}

func (r *BookingRepository) ByID(_ context.Context, id domainbooking.ID) (*domainbooking.Booking, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	b, ok := r.store.bookings[id]
	if !ok {
		return nil, domainbooking.ErrNotFound
	}
	return b.Clone(), nil
}

func (r *BookingRepository) Create(_ context.Context, b *domainbooking.Booking) error {
	if err := r.journal.writable(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.bookings[b.ID]; exists {
		return domainbooking.ErrConcurrentUpdate
	}
	// Mirrors the unique partial index on confirmed bookings per room.
	if b.Status.IsActive() {
		for _, other := range r.store.bookings {
			if other.RoomID == b.RoomID && other.Status.IsActive() {
				return domainroom.ErrUnavailable
			}
		}
	}
	stored := b.Clone()
	stored.Version = 1
	r.store.bookings[b.ID] = stored
	b.Version = stored.Version
	id := b.ID
	r.journal.record(func() { delete(r.store.bookings, id) })
	return nil
}

func (r *BookingRepository) Save(_ context.Context, b *domainbooking.Booking) error {
	if err := r.journal.writable(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	current, ok := r.store.bookings[b.ID]
	if !ok {
		return domainbooking.ErrNotFound
	}
	if current.Version != b.Version {
		return domainbooking.ErrConcurrentUpdate
	}
	next := b.Clone()
	next.Version = current.Version + 1
	r.store.bookings[b.ID] = next
	b.Version = next.Version
	r.journal.record(func() { r.store.bookings[current.ID] = current })
	return nil
}

func (r *BookingRepository) ListByRequester(_ context.Context, requesterID string) ([]*domainbooking.Booking, error) {
	return r.filter(func(b *domainbooking.Booking) bool { return b.RequesterID == requesterID }), nil
}

func (r *BookingRepository) ListByRooms(_ context.Context, roomIDs []domainroom.ID) ([]*domainbooking.Booking, error) {
	set := make(map[domainroom.ID]struct{}, len(roomIDs))
	for _, id := range roomIDs {
		set[id] = struct{}{}
	}
	return r.filter(func(b *domainbooking.Booking) bool {
		_, ok := set[b.RoomID]
		return ok
	}), nil
}

func (r *BookingRepository) ListByStatus(_ context.Context, status domainbooking.Status) ([]*domainbooking.Booking, error) {
	return r.filter(func(b *domainbooking.Booking) bool { return b.Status == status }), nil
}

func (r *BookingRepository) List(_ context.Context) ([]*domainbooking.Booking, error) {
	return r.filter(func(*domainbooking.Booking) bool { return true }), nil
}

// filter returns matches newest first.
func (r *BookingRepository) filter(keep func(*domainbooking.Booking) bool) []*domainbooking.Booking {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]*domainbooking.Booking, 0)
	for _, b := range r.store.bookings {
		if keep(b) {
			out = append(out, b.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
