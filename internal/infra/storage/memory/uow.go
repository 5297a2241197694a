package memory

import (
	"context"
	"errors"

	"hotelier/internal/app/uow"
	domainbooking "hotelier/internal/domain/booking"
	domainroom "hotelier/internal/domain/room"
	domainuser "hotelier/internal/domain/user"
)

var ErrUnitClosed = errors.New("memory: unit of work already finished")

// Factory opens units over a shared Store. Writes are visible to other units
// immediately; Rollback undoes them in reverse order.
type Factory struct {
	Store *Store
}

func (f Factory) Begin(_ context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.Store == nil {
		return nil, errors.New("memory: unit of work factory misconfigured")
	}
	return &Unit{store: f.Store, journal: &journal{readOnly: opts.ReadOnly}}, nil
}

type Unit struct {
	store   *Store
	journal *journal
	closed  bool
}

func (u *Unit) Rooms() domainroom.Repository {
	return &RoomRepository{store: u.store, journal: u.journal}
}

func (u *Unit) Bookings() domainbooking.Repository {
	return &BookingRepository{store: u.store, journal: u.journal}
}

func (u *Unit) Users() domainuser.Repository {
	return &UserRepository{store: u.store, journal: u.journal}
}

// Track lets stores outside the ledgers (outbox, idempotency) join the unit.
func (u *Unit) Track(undo func()) {
	u.journal.mu.Lock()
	u.journal.undo = append(u.journal.undo, undo)
	u.journal.mu.Unlock()
}

func (u *Unit) Commit(context.Context) error {
	if u.closed {
		return ErrUnitClosed
	}
	u.closed = true
	u.journal.drain()
	return nil
}

func (u *Unit) Rollback(context.Context) error {
	if u.closed {
		return nil
	}
	u.closed = true
	steps := u.journal.drain()
	if len(steps) == 0 {
		return nil
	}
	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	for i := len(steps) - 1; i >= 0; i-- {
		steps[i]()
	}
	return nil
}

// tracker is satisfied by *Unit.
type tracker interface {
	Track(undo func())
}

func trackFromContext(ctx context.Context, undo func()) {
	if unit, ok := uow.FromContext(ctx); ok {
		if t, ok := unit.(tracker); ok {
			t.Track(undo)
		}
	}
}
