// Package locks declares the per-room mutual exclusion used by the booking
// coordinator. Implementations live in infra (in-process and Redis).
package locks

import (
	"context"

	"hotelier/internal/domain/shared/fault"
)

// ErrBusy means the lock could not be obtained before the wait budget ran out.
var ErrBusy = fault.Conflict("locks: resource is being modified by another request")

// Release gives the lock back. It is safe to call more than once.
type Release func()

type Locker interface {
	Acquire(ctx context.Context, key string) (Release, error)
}

func RoomKey(roomID string) string {
	return "room:" + roomID
}

// Nop never blocks; used when storage-level conditional updates are the only guard.
type Nop struct{}

func (Nop) Acquire(context.Context, string) (Release, error) {
	return func() {}, nil
}
