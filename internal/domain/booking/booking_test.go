package booking

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotelier/internal/domain/room"
	"hotelier/internal/domain/shared/daterange"
	"hotelier/internal/domain/shared/fault"
	"hotelier/internal/domain/shared/money"
)

func testRoom(t *testing.T) *room.Room {
	t.Helper()
	r, err := room.NewRoom(room.CreateParams{
		ID:        "room-1",
		Number:    "R101",
		Category:  "single",
		Price:     1000,
		Currency:  "USD",
		ManagerID: "manager-1",
	})
	require.NoError(t, err)
	return r
}

func testBooking(t *testing.T) *Booking {
	t.Helper()
	stay, err := daterange.Parse("2024-01-01", "2024-01-03")
	require.NoError(t, err)
	b, err := NewBooking(CreateParams{ID: "b-1", RequesterID: "guest-1", Room: testRoom(t), Stay: stay})
	require.NoError(t, err)
	return b
}

func TestNewBookingComputesTotalFromRoomPrice(t *testing.T) {
	b := testBooking(t)

	assert.Equal(t, StatusConfirmed, b.Status)
	assert.Equal(t, 2, b.Nights())
	assert.Equal(t, int64(2000), b.Total.Amount)
	assert.Equal(t, "USD", b.Total.Currency)

	evs := b.Drain()
	require.Len(t, evs, 1)
	assert.Equal(t, "booking.reserved", evs[0].EventName())
}

func TestNewBookingRoundsPartialNightsUp(t *testing.T) {
	in := time.Date(2024, 1, 1, 14, 0, 0, 0, time.UTC)
	stay, err := daterange.New(in, in.Add(25*time.Hour))
	require.NoError(t, err)

	b, err := NewBooking(CreateParams{ID: "b-2", RequesterID: "guest-1", Room: testRoom(t), Stay: stay})
	require.NoError(t, err)
	assert.Equal(t, 2, b.Nights())
	assert.Equal(t, int64(2000), b.Total.Amount)
}

func TestNewBookingValidation(t *testing.T) {
	stay, err := daterange.Parse("2024-01-01", "2024-01-02")
	require.NoError(t, err)

	_, err = NewBooking(CreateParams{RequesterID: "", Room: testRoom(t), Stay: stay})
	assert.ErrorIs(t, err, ErrRequesterRequired)

	_, err = NewBooking(CreateParams{RequesterID: "guest-1", Stay: stay})
	assert.ErrorIs(t, err, ErrRoomRequired)

	_, err = NewBooking(CreateParams{RequesterID: "guest-1", Room: testRoom(t), Stay: daterange.DateRange{}})
	assert.ErrorIs(t, err, fault.ErrValidation)
}

func TestNewBookingRejectsOverflowingTotal(t *testing.T) {
	expensive, err := room.NewRoom(room.CreateParams{ID: "room-9", Number: "P1", Category: "suite", Price: 1_000_000_000_000_000, Currency: "USD", ManagerID: "manager-1"})
	require.NoError(t, err)
	stay, err := daterange.Parse("2024-01-01", "2079-01-01")
	require.NoError(t, err)

	_, err = NewBooking(CreateParams{ID: "b-3", RequesterID: "guest-1", Room: expensive, Stay: stay})
	assert.ErrorIs(t, err, money.ErrOverflow)
	assert.ErrorIs(t, err, fault.ErrValidation)
}

func TestTransitionRules(t *testing.T) {
	tests := []struct {
		name    string
		actor   Actor
		to      Status
		manager string
		want    error
		kind    error
	}{
		{name: "requester cancels", actor: Actor{ID: "guest-1", Role: ActorRequester}, to: StatusCancelled},
		{name: "other requester cancels", actor: Actor{ID: "guest-2", Role: ActorRequester}, to: StatusCancelled, want: ErrNotRequester, kind: fault.ErrAuthorization},
		{name: "requester completes", actor: Actor{ID: "guest-1", Role: ActorRequester}, to: StatusCompleted, want: ErrRequesterOnlyCancel, kind: fault.ErrAuthorization},
		{name: "owning manager completes", actor: Actor{ID: "manager-1", Role: ActorManager}, to: StatusCompleted, manager: "manager-1"},
		{name: "foreign manager completes", actor: Actor{ID: "manager-2", Role: ActorManager}, to: StatusCompleted, manager: "manager-1", want: ErrNotRoomManager, kind: fault.ErrAuthorization},
		{name: "manager cancels", actor: Actor{ID: "manager-1", Role: ActorManager}, to: StatusCancelled, manager: "manager-1", want: ErrManagerOnlyComplete, kind: fault.ErrAuthorization},
		{name: "admin role", actor: Actor{ID: "admin-1", Role: "admin"}, to: StatusCompleted, want: ErrActorNotAllowed, kind: fault.ErrAuthorization},
		{name: "back to confirmed", actor: Actor{ID: "guest-1", Role: ActorRequester}, to: StatusConfirmed, want: ErrRequesterOnlyCancel},
		{name: "unknown status", actor: Actor{ID: "guest-1", Role: ActorRequester}, to: "checked_in", want: ErrUnknownStatus, kind: fault.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testBooking(t)
			err := b.Transition(tt.actor, tt.to, tt.manager, time.Now())
			if tt.want == nil {
				require.NoError(t, err)
				assert.Equal(t, tt.to, b.Status)
				return
			}
			assert.ErrorIs(t, err, tt.want)
			if tt.kind != nil {
				assert.ErrorIs(t, err, tt.kind)
			}
			assert.Equal(t, StatusConfirmed, b.Status)
		})
	}
}

func TestTerminalStatesRejectFurtherTransitions(t *testing.T) {
	b := testBooking(t)
	require.NoError(t, b.Cancel("guest-1", time.Now()))

	err := b.Cancel("guest-1", time.Now())
	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.True(t, errors.Is(err, fault.ErrState))

	c := testBooking(t)
	require.NoError(t, c.Complete("manager-1", "manager-1", time.Now()))
	assert.ErrorIs(t, c.Cancel("guest-1", time.Now()), ErrIllegalTransition)
	assert.ErrorIs(t, c.Complete("manager-1", "manager-1", time.Now()), ErrIllegalTransition)
}

func TestStatusTable(t *testing.T) {
	assert.True(t, StatusConfirmed.CanTransitionTo(StatusCompleted))
	assert.True(t, StatusConfirmed.CanTransitionTo(StatusCancelled))
	assert.False(t, StatusCompleted.CanTransitionTo(StatusCancelled))
	assert.False(t, StatusCancelled.CanTransitionTo(StatusConfirmed))
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusConfirmed.IsTerminal())

	s, err := ParseStatus(" Completed ")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, s)
	_, err = ParseStatus("pending")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}
