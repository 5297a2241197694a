package uow

import (
	"context"

	domainbooking "hotelier/internal/domain/booking"
	domainroom "hotelier/internal/domain/room"
	domainuser "hotelier/internal/domain/user"
)

// UnitOfWork coordinates the ledgers inside one transaction boundary.
type UnitOfWork interface {
	Rooms() domainroom.Repository
	Bookings() domainbooking.Repository
	Users() domainuser.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

type TxOptions struct {
	ReadOnly bool
}

// ContextInjector is implemented by units whose repositories discover the
// transaction through the context (Mongo sessions).
type ContextInjector interface {
	InjectContext(ctx context.Context) context.Context
}

// Bind returns the context repositories of unit must be called with.
func Bind(ctx context.Context, unit UnitOfWork) context.Context {
	if injector, ok := unit.(ContextInjector); ok {
		ctx = injector.InjectContext(ctx)
	}
	return ContextWithUnitOfWork(ctx, unit)
}
