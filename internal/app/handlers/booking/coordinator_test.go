package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotelier/internal/app/uow"
	domainbooking "hotelier/internal/domain/booking"
	domainroom "hotelier/internal/domain/room"
	"hotelier/internal/domain/shared/fault"
	"hotelier/internal/infra/storage/memory"
)

type fixture struct {
	store       *memory.Store
	outbox      *memory.Outbox
	coordinator *Coordinator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	box := memory.NewOutbox()
	seq := 0
	f := &fixture{
		store:  store,
		outbox: box,
		coordinator: &Coordinator{
			UoWFactory: memory.Factory{Store: store},
			Locks:      memory.NewLocker(time.Second),
			Outbox:     box,
			Clock:      func() time.Time { return time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC) },
			NewID: func() string {
				seq++
				return fmt.Sprintf("booking-%d", seq)
			},
		},
	}
	f.addRoom(t, "room-101", "R101", "manager-1")
	return f
}

func (f *fixture) addRoom(t *testing.T, id, number, manager string) {
	t.Helper()
	r, err := domainroom.NewRoom(domainroom.CreateParams{ID: domainroom.ID(id), Number: number, Category: "single", Price: 1000, Currency: "USD", ManagerID: manager})
	require.NoError(t, err)
	require.NoError(t, f.store.Rooms().Create(context.Background(), r))
}

func (f *fixture) room(t *testing.T, id string) *domainroom.Room {
	t.Helper()
	r, err := f.store.Rooms().ByID(context.Background(), domainroom.ID(id))
	require.NoError(t, err)
	return r
}

func (f *fixture) bookings(t *testing.T) []*domainbooking.Booking {
	t.Helper()
	all, err := f.store.Bookings().List(context.Background())
	require.NoError(t, err)
	return all
}

// assertInvariant checks that every room is available exactly when it has
// no confirmed booking.
func (f *fixture) assertInvariant(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	rooms, err := f.store.Rooms().List(ctx)
	require.NoError(t, err)
	for _, r := range rooms {
		held, err := f.store.Bookings().ListByRooms(ctx, []domainroom.ID{r.ID})
		require.NoError(t, err)
		confirmed := 0
		for _, b := range held {
			if b.Status == domainbooking.StatusConfirmed {
				confirmed++
			}
		}
		assert.LessOrEqual(t, confirmed, 1, "room %s", r.ID)
		assert.Equal(t, confirmed == 0, r.Available, "room %s", r.ID)
	}
}

func reserve(room string) ReserveRoomCommand {
	return ReserveRoomCommand{RequesterID: "guest-1", RoomID: room, CheckIn: "2024-01-01", CheckOut: "2024-01-03"}
}

func TestReserveComputesTotalAndClaimsRoom(t *testing.T) {
	f := newFixture(t)

	out, err := f.coordinator.Reserve(context.Background(), reserve("room-101"))
	require.NoError(t, err)
	assert.Equal(t, 2, out.Nights)
	assert.Equal(t, int64(2000), out.Total.Amount)
	assert.Equal(t, "confirmed", out.Status)
	assert.False(t, f.room(t, "room-101").Available)
	f.assertInvariant(t)

	names := []string{}
	for _, rec := range f.outbox.Records() {
		names = append(names, rec.Name)
	}
	assert.ElementsMatch(t, []string{"booking.reserved", "room.availability_changed"}, names)
}

func TestCancelReleasesRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	out, err := f.coordinator.Reserve(ctx, reserve("room-101"))
	require.NoError(t, err)

	cancelled, err := f.coordinator.Cancel(ctx, CancelBookingCommand{BookingID: out.ID, RequesterID: "guest-1"})
	require.NoError(t, err)
	assert.Equal(t, "cancelled", cancelled.Status)
	assert.True(t, f.room(t, "room-101").Available)
	f.assertInvariant(t)

	_, err = f.coordinator.Cancel(ctx, CancelBookingCommand{BookingID: out.ID, RequesterID: "guest-1"})
	assert.ErrorIs(t, err, fault.ErrState)
	assert.True(t, f.room(t, "room-101").Available)
}

func TestForeignManagerCannotAdvance(t *testing.T) {
	f := newFixture(t)
	f.addRoom(t, "room-201", "R201", "manager-2")
	ctx := context.Background()
	out, err := f.coordinator.Reserve(ctx, reserve("room-201"))
	require.NoError(t, err)

	_, err = f.coordinator.Advance(ctx, AdvanceBookingCommand{BookingID: out.ID, ManagerID: "manager-1"})
	assert.ErrorIs(t, err, fault.ErrAuthorization)

	got, err := f.store.Bookings().ByID(ctx, domainbooking.ID(out.ID))
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusConfirmed, got.Status)
	assert.False(t, f.room(t, "room-201").Available)
}

func TestInvalidDatesLeaveNoTrace(t *testing.T) {
	f := newFixture(t)
	cmd := reserve("room-101")
	cmd.CheckIn, cmd.CheckOut = "2024-01-03", "2024-01-01"

	_, err := f.coordinator.Reserve(context.Background(), cmd)
	assert.ErrorIs(t, err, fault.ErrValidation)
	assert.Empty(t, f.bookings(t))
	assert.True(t, f.room(t, "room-101").Available)
	assert.Empty(t, f.outbox.Records())
}

func TestReserveUnavailableRoomConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.coordinator.Reserve(ctx, reserve("room-101"))
	require.NoError(t, err)

	second := reserve("room-101")
	second.RequesterID = "guest-2"
	_, err = f.coordinator.Reserve(ctx, second)
	assert.ErrorIs(t, err, fault.ErrConflict)
	assert.Len(t, f.bookings(t), 1)
}

func TestReserveUnknownRoom(t *testing.T) {
	f := newFixture(t)
	_, err := f.coordinator.Reserve(context.Background(), reserve("room-404"))
	assert.ErrorIs(t, err, fault.ErrNotFound)
}

func TestCancelErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.coordinator.Cancel(ctx, CancelBookingCommand{BookingID: "missing", RequesterID: "guest-1"})
	assert.ErrorIs(t, err, fault.ErrNotFound)

	out, err := f.coordinator.Reserve(ctx, reserve("room-101"))
	require.NoError(t, err)
	_, err = f.coordinator.Cancel(ctx, CancelBookingCommand{BookingID: out.ID, RequesterID: "guest-2"})
	assert.ErrorIs(t, err, fault.ErrAuthorization)
	assert.False(t, f.room(t, "room-101").Available)
}

func TestAdvanceCompletesAndReleasesRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	out, err := f.coordinator.Reserve(ctx, reserve("room-101"))
	require.NoError(t, err)

	done, err := f.coordinator.Advance(ctx, AdvanceBookingCommand{BookingID: out.ID, ManagerID: "manager-1"})
	require.NoError(t, err)
	assert.Equal(t, "completed", done.Status)
	assert.True(t, f.room(t, "room-101").Available)
	f.assertInvariant(t)

	_, err = f.coordinator.Cancel(ctx, CancelBookingCommand{BookingID: out.ID, RequesterID: "guest-1"})
	assert.ErrorIs(t, err, fault.ErrState)
	_, err = f.coordinator.Advance(ctx, AdvanceBookingCommand{BookingID: out.ID, ManagerID: "manager-1"})
	assert.ErrorIs(t, err, fault.ErrState)
}

func TestUpdateStatusRoutesByRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	out, err := f.coordinator.Reserve(ctx, reserve("room-101"))
	require.NoError(t, err)

	_, err = f.coordinator.UpdateStatus(ctx, UpdateStatusCommand{BookingID: out.ID, Status: "completed", ActorID: "guest-1", ActorRole: "user"})
	assert.ErrorIs(t, err, fault.ErrAuthorization)
	_, err = f.coordinator.UpdateStatus(ctx, UpdateStatusCommand{BookingID: out.ID, Status: "archived", ActorID: "manager-1", ActorRole: "manager"})
	assert.ErrorIs(t, err, fault.ErrValidation)
	_, err = f.coordinator.UpdateStatus(ctx, UpdateStatusCommand{BookingID: out.ID, Status: "completed", ActorID: "admin-1", ActorRole: "admin"})
	assert.ErrorIs(t, err, fault.ErrAuthorization)

	done, err := f.coordinator.UpdateStatus(ctx, UpdateStatusCommand{BookingID: out.ID, Status: "completed", ActorID: "manager-1", ActorRole: "manager"})
	require.NoError(t, err)
	assert.Equal(t, "completed", done.Status)
	f.assertInvariant(t)
}

func TestConcurrentReserveExactlyOneWins(t *testing.T) {
	for _, name := range []string{"with lock", "storage guard only"} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			if name == "storage guard only" {
				f.coordinator.Locks = nil
			}
			var idMu sync.Mutex
			seq := 0
			f.coordinator.NewID = func() string {
				idMu.Lock()
				defer idMu.Unlock()
				seq++
				return fmt.Sprintf("booking-%d", seq)
			}

			const callers = 8
			var wg sync.WaitGroup
			errs := make(chan error, callers)
			for i := 0; i < callers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					cmd := reserve("room-101")
					cmd.RequesterID = fmt.Sprintf("guest-%d", i)
					_, err := f.coordinator.Reserve(context.Background(), cmd)
					errs <- err
				}(i)
			}
			wg.Wait()
			close(errs)

			wins := 0
			for err := range errs {
				if err == nil {
					wins++
					continue
				}
				assert.ErrorIs(t, err, fault.ErrConflict)
			}
			assert.Equal(t, 1, wins)
			assert.Len(t, f.bookings(t), 1)
			f.assertInvariant(t)
		})
	}
}

func TestReserveCancelRoundTripRestoresState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		out, err := f.coordinator.Reserve(ctx, reserve("room-101"))
		require.NoError(t, err)
		_, err = f.coordinator.Cancel(ctx, CancelBookingCommand{BookingID: out.ID, RequesterID: "guest-1"})
		require.NoError(t, err)
		assert.True(t, f.room(t, "room-101").Available)
		f.assertInvariant(t)
	}
}

var errClaimFailed = errors.New("storage unavailable")

type failingClaimFactory struct {
	inner uow.UoWFactory
}

func (f failingClaimFactory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	unit, err := f.inner.Begin(ctx, opts)
	if err != nil {
		return nil, err
	}
	return failingClaimUnit{UnitOfWork: unit}, nil
}

type failingClaimUnit struct {
	uow.UnitOfWork
}

func (u failingClaimUnit) Rooms() domainroom.Repository {
	return failingClaimRooms{Repository: u.UnitOfWork.Rooms()}
}

type failingClaimRooms struct {
	domainroom.Repository
}

func (failingClaimRooms) ClaimAvailability(context.Context, domainroom.ID) error {
	return errClaimFailed
}

func TestReserveRollsBackBookingWhenClaimFails(t *testing.T) {
	f := newFixture(t)
	f.coordinator.UoWFactory = failingClaimFactory{inner: memory.Factory{Store: f.store}}

	_, err := f.coordinator.Reserve(context.Background(), reserve("room-101"))
	assert.ErrorIs(t, err, errClaimFailed)
	assert.Empty(t, f.bookings(t))
	assert.True(t, f.room(t, "room-101").Available)
	assert.Empty(t, f.outbox.Records())
}
