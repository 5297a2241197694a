package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotelier/internal/app/locks"
	appoutbox "hotelier/internal/app/outbox"
	"hotelier/internal/app/uow"
	domainroom "hotelier/internal/domain/room"
	"hotelier/internal/domain/shared/fault"
)

func seedRoom(t *testing.T, store *Store, id, number string) *domainroom.Room {
	t.Helper()
	r, err := domainroom.NewRoom(domainroom.CreateParams{ID: domainroom.ID(id), Number: number, Category: "single", Price: 1000, Currency: "USD", ManagerID: "manager-1"})
	require.NoError(t, err)
	require.NoError(t, store.Rooms().Create(context.Background(), r))
	return r
}

func TestSetAvailabilityIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	seedRoom(t, store, "room-1", "R101")
	rooms := store.Rooms()

	for _, v := range []bool{false, false, true, true} {
		require.NoError(t, rooms.SetAvailability(ctx, "room-1", v))
		got, err := rooms.ByID(ctx, "room-1")
		require.NoError(t, err)
		assert.Equal(t, v, got.Available)
	}
	assert.ErrorIs(t, rooms.SetAvailability(ctx, "missing", true), domainroom.ErrNotFound)
}

func TestClaimAvailabilityOnlyOnce(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	seedRoom(t, store, "room-1", "R101")

	require.NoError(t, store.Rooms().ClaimAvailability(ctx, "room-1"))
	err := store.Rooms().ClaimAvailability(ctx, "room-1")
	assert.ErrorIs(t, err, domainroom.ErrUnavailable)
	assert.ErrorIs(t, err, fault.ErrConflict)
}

func TestRoomSaveKeepsAvailabilityAndChecksNumbers(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	seedRoom(t, store, "room-1", "R101")
	seedRoom(t, store, "room-2", "R102")
	require.NoError(t, store.Rooms().SetAvailability(ctx, "room-1", false))

	r, err := store.Rooms().ByID(ctx, "room-1")
	require.NoError(t, err)
	r.Available = true
	r.Number = "R111"
	require.NoError(t, store.Rooms().Save(ctx, r))

	got, err := store.Rooms().ByID(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, "R111", got.Number)
	assert.False(t, got.Available)

	got.Number = "R102"
	assert.ErrorIs(t, store.Rooms().Save(ctx, got), domainroom.ErrDuplicateNumber)

	stale := r.Clone()
	stale.Version = 1
	assert.ErrorIs(t, store.Rooms().Save(ctx, stale), domainroom.ErrConcurrentUpdate)
}

func TestDuplicateRoomNumberRejected(t *testing.T) {
	store := NewStore()
	seedRoom(t, store, "room-1", "R101")
	dup, err := domainroom.NewRoom(domainroom.CreateParams{ID: "room-2", Number: "R101", Category: "suite", Price: 1, Currency: "USD", ManagerID: "m"})
	require.NoError(t, err)
	err = store.Rooms().Create(context.Background(), dup)
	assert.ErrorIs(t, err, domainroom.ErrDuplicateNumber)
	assert.ErrorIs(t, err, fault.ErrValidation)
}

func TestRollbackUndoesWritesAndOutbox(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	seedRoom(t, store, "room-1", "R101")
	box := NewOutbox()

	unit, err := Factory{Store: store}.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	execCtx := uow.Bind(ctx, unit)
	require.NoError(t, unit.Rooms().ClaimAvailability(execCtx, "room-1"))
	require.NoError(t, box.Add(execCtx, appoutbox.EventRecord{ID: "evt-1", Name: "room.availability_changed", Payload: []byte(`{}`)}))
	require.Len(t, box.Records(), 1)

	require.NoError(t, unit.Rollback(execCtx))

	got, err := store.Rooms().ByID(ctx, "room-1")
	require.NoError(t, err)
	assert.True(t, got.Available)
	assert.Empty(t, box.Records())
}

func TestRollbackKeepsConcurrentManagerEdit(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	seedRoom(t, store, "room-1", "R101")

	unit, err := Factory{Store: store}.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	execCtx := uow.Bind(ctx, unit)
	require.NoError(t, unit.Rooms().ClaimAvailability(execCtx, "room-1"))

	edited, err := store.Rooms().ByID(ctx, "room-1")
	require.NoError(t, err)
	price := int64(2500)
	require.NoError(t, edited.ApplyUpdate("manager-1", domainroom.FieldsUpdate{Price: &price}, time.Now()))
	require.NoError(t, store.Rooms().Save(ctx, edited))

	require.NoError(t, unit.Rollback(execCtx))

	got, err := store.Rooms().ByID(ctx, "room-1")
	require.NoError(t, err)
	assert.True(t, got.Available)
	assert.Equal(t, int64(2500), got.Price.Amount)
	assert.Greater(t, got.Version, edited.Version)
}

func TestRollbackOfEditKeepsAvailabilityFlip(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	seedRoom(t, store, "room-1", "R101")

	unit, err := Factory{Store: store}.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	execCtx := uow.Bind(ctx, unit)
	r, err := unit.Rooms().ByID(execCtx, "room-1")
	require.NoError(t, err)
	r.Number = "R111"
	require.NoError(t, unit.Rooms().Save(execCtx, r))

	require.NoError(t, store.Rooms().ClaimAvailability(ctx, "room-1"))
	require.NoError(t, unit.Rollback(execCtx))

	got, err := store.Rooms().ByID(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, "R101", got.Number)
	assert.False(t, got.Available)
}

func TestReadOnlyUnitRejectsWrites(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	seedRoom(t, store, "room-1", "R101")
	unit, err := Factory{Store: store}.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	assert.ErrorIs(t, unit.Rooms().SetAvailability(ctx, "room-1", false), ErrReadOnly)
}

func TestOutboxClaimLifecycle(t *testing.T) {
	ctx := context.Background()
	box := NewOutbox()
	require.NoError(t, box.Add(ctx, appoutbox.EventRecord{ID: "evt-1", Name: "booking.reserved", Payload: []byte(`{}`), OccurredAt: time.Now()}))

	rec, err := box.Claim(ctx, "w1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "evt-1", rec.ID)

	again, err := box.Claim(ctx, "w1")
	require.NoError(t, err)
	assert.Nil(t, again)

	require.NoError(t, box.MarkFailed(ctx, "evt-1", time.Now().Add(-time.Second), "broker down"))
	retry, err := box.Claim(ctx, "w1")
	require.NoError(t, err)
	require.NotNil(t, retry)
	assert.Equal(t, 1, retry.Attempts)

	require.NoError(t, box.MarkSent(ctx, "evt-1"))
	done, err := box.Claim(ctx, "w1")
	require.NoError(t, err)
	assert.Nil(t, done)
}

func TestLockerSerializesAndTimesOut(t *testing.T) {
	l := NewLocker(20 * time.Millisecond)
	release, err := l.Acquire(context.Background(), "room:1")
	require.NoError(t, err)

	_, err = l.Acquire(context.Background(), "room:1")
	assert.ErrorIs(t, err, locks.ErrBusy)

	other, err := l.Acquire(context.Background(), "room:2")
	require.NoError(t, err)
	other()

	release()
	release()
	again, err := l.Acquire(context.Background(), "room:1")
	require.NoError(t, err)
	again()
}

func TestLockerMutualExclusion(t *testing.T) {
	l := NewLocker(0)
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(context.Background(), "room:1")
			if err != nil {
				return
			}
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
}
