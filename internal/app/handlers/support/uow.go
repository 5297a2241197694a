package support

import (
	"context"

	"hotelier/internal/app/uow"
)

// Unit is a unit of work that may be owned by the caller or borrowed from
// the context. Only owned units are committed or rolled back here.
type Unit struct {
	uow.UnitOfWork
	Ctx     context.Context
	managed bool
	done    bool
}

// BeginUnit reuses the unit already in ctx or starts a read-write one.
func BeginUnit(ctx context.Context, factory uow.UoWFactory) (*Unit, error) {
	return begin(ctx, factory, uow.TxOptions{})
}

func BeginReadOnlyUnit(ctx context.Context, factory uow.UoWFactory) (*Unit, error) {
	return begin(ctx, factory, uow.TxOptions{ReadOnly: true})
}

func begin(ctx context.Context, factory uow.UoWFactory, opts uow.TxOptions) (*Unit, error) {
	if unit, ok := uow.FromContext(ctx); ok {
		return &Unit{UnitOfWork: unit, Ctx: ctx}, nil
	}
	if factory == nil {
		return nil, uow.ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Unit{UnitOfWork: unit, Ctx: uow.Bind(ctx, unit), managed: true}, nil
}

// Commit commits owned units; borrowed ones are committed by their owner.
func (u *Unit) Commit() error {
	if !u.managed || u.done {
		return nil
	}
	if err := u.UnitOfWork.Commit(u.Ctx); err != nil {
		return err
	}
	u.done = true
	return nil
}

// Close rolls back an owned unit that was not committed. Safe to defer.
func (u *Unit) Close() {
	if !u.managed || u.done {
		return
	}
	u.done = true
	_ = u.UnitOfWork.Rollback(u.Ctx)
}
