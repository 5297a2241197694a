package middleware_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotelier/internal/app/commands"
	"hotelier/internal/app/middleware"
	"hotelier/internal/app/uow"
	"hotelier/internal/domain/shared/fault"
	domainuser "hotelier/internal/domain/user"
	"hotelier/internal/infra/storage/memory"
)

type result struct {
	N int `json:"n"`
}

type reserveCmd struct {
	key   string
	role  string
	blank bool
}

func (c reserveCmd) Key() string            { return "test.reserve" }
func (c reserveCmd) IdempotencyKey() string { return c.key }
func (c reserveCmd) ResultPrototype() any   { return &result{} }
func (c reserveCmd) AllowedRoles() []string { return []string{"user"} }
func (c reserveCmd) CallerRole() string     { return c.role }
func (c reserveCmd) Validate() error {
	if c.blank {
		return fault.Validation("test: blank")
	}
	return nil
}

type scopedCmd struct {
	caller string
	key    string
}

func (c scopedCmd) Key() string              { return "test.scoped" }
func (c scopedCmd) IdempotencyKey() string   { return c.key }
func (c scopedCmd) IdempotencyScope() string { return c.caller }
func (c scopedCmd) ResultPrototype() any     { return &result{} }

type otherCmd struct{ key string }

func (c otherCmd) Key() string            { return "test.other" }
func (c otherCmd) IdempotencyKey() string { return c.key }
func (c otherCmd) ResultPrototype() any   { return &result{} }

type selfTxCmd struct{}

func (selfTxCmd) Key() string              { return "test.self_tx" }
func (selfTxCmd) ManagesTransaction() bool { return true }

type countingBus struct {
	calls int
	out   func(ctx context.Context, cmd commands.Command) (any, error)
}

func (b *countingBus) Dispatch(ctx context.Context, cmd commands.Command) (any, error) {
	b.calls++
	return b.out(ctx, cmd)
}

func TestIdempotencyReplaysResult(t *testing.T) {
	bus := &countingBus{out: func(context.Context, commands.Command) (any, error) { return &result{N: 7}, nil }}
	wrapped := middleware.ChainCommands(bus, middleware.Idempotency(memory.NewIdempotencyStore(time.Hour), nil))
	ctx := context.Background()

	first, err := commands.Dispatch[reserveCmd, *result](ctx, wrapped, reserveCmd{key: "k1"})
	require.NoError(t, err)
	second, err := commands.Dispatch[reserveCmd, *result](ctx, wrapped, reserveCmd{key: "k1"})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, bus.calls)

	// Same key on another command is a different namespace.
	_, err = commands.Dispatch[otherCmd, *result](ctx, wrapped, otherCmd{key: "k1"})
	require.NoError(t, err)
	assert.Equal(t, 2, bus.calls)

	// No key means no protection.
	_, _ = commands.Dispatch[reserveCmd, *result](ctx, wrapped, reserveCmd{})
	_, _ = commands.Dispatch[reserveCmd, *result](ctx, wrapped, reserveCmd{})
	assert.Equal(t, 4, bus.calls)
}

func TestIdempotencyKeysAreScopedByCaller(t *testing.T) {
	bus := &countingBus{out: func(_ context.Context, cmd commands.Command) (any, error) {
		if cmd.(scopedCmd).caller == "alice" {
			return &result{N: 1}, nil
		}
		return &result{N: 2}, nil
	}}
	wrapped := middleware.ChainCommands(bus, middleware.Idempotency(memory.NewIdempotencyStore(time.Hour), nil))
	ctx := context.Background()

	alice, err := commands.Dispatch[scopedCmd, *result](ctx, wrapped, scopedCmd{caller: "alice", key: "k1"})
	require.NoError(t, err)
	bob, err := commands.Dispatch[scopedCmd, *result](ctx, wrapped, scopedCmd{caller: "bob", key: "k1"})
	require.NoError(t, err)
	assert.Equal(t, 1, alice.N)
	assert.Equal(t, 2, bob.N)
	assert.Equal(t, 2, bus.calls)

	again, err := commands.Dispatch[scopedCmd, *result](ctx, wrapped, scopedCmd{caller: "bob", key: "k1"})
	require.NoError(t, err)
	assert.Equal(t, 2, again.N)
	assert.Equal(t, 2, bus.calls)
}

func TestIdempotencyPinsOnlyClassifiedErrors(t *testing.T) {
	conflict := fault.Conflict("room taken")
	var next error = conflict
	bus := &countingBus{out: func(context.Context, commands.Command) (any, error) { return nil, next }}
	wrapped := middleware.ChainCommands(bus, middleware.Idempotency(memory.NewIdempotencyStore(time.Hour), nil))
	ctx := context.Background()

	_, err := wrapped.Dispatch(ctx, reserveCmd{key: "k"})
	require.ErrorIs(t, err, conflict)
	_, err = wrapped.Dispatch(ctx, reserveCmd{key: "k"})
	assert.ErrorIs(t, err, fault.ErrConflict)
	assert.Equal(t, "room taken", err.Error())
	assert.Equal(t, 1, bus.calls)

	next = errors.New("mongo unreachable")
	_, err = wrapped.Dispatch(ctx, reserveCmd{key: "retry"})
	require.Error(t, err)
	_, err = wrapped.Dispatch(ctx, reserveCmd{key: "retry"})
	require.Error(t, err)
	assert.Equal(t, 3, bus.calls)
}

func TestAuthorizationAndValidation(t *testing.T) {
	bus := &countingBus{out: func(context.Context, commands.Command) (any, error) { return nil, nil }}
	wrapped := middleware.ChainCommands(bus,
		middleware.Authorization(middleware.RoleAuthorizer{}),
		middleware.Validation(middleware.ShapeValidator{}),
	)
	ctx := context.Background()

	_, err := wrapped.Dispatch(ctx, reserveCmd{role: string(domainuser.RoleManager)})
	assert.ErrorIs(t, err, middleware.ErrRoleNotAllowed)
	assert.ErrorIs(t, err, fault.ErrAuthorization)

	_, err = wrapped.Dispatch(ctx, reserveCmd{role: "user", blank: true})
	assert.ErrorIs(t, err, fault.ErrValidation)
	assert.Zero(t, bus.calls)

	_, err = wrapped.Dispatch(ctx, reserveCmd{role: "user"})
	assert.NoError(t, err)
	// Commands without role restrictions pass through.
	_, err = wrapped.Dispatch(ctx, selfTxCmd{})
	assert.NoError(t, err)
	assert.Equal(t, 2, bus.calls)
}

func TestTransactionBindsUnitUnlessSelfTransacting(t *testing.T) {
	store := memory.NewStore()
	var sawUnit []bool
	bus := &countingBus{out: func(ctx context.Context, cmd commands.Command) (any, error) {
		_, ok := uow.FromContext(ctx)
		sawUnit = append(sawUnit, ok)
		return nil, nil
	}}
	wrapped := middleware.ChainCommands(bus, middleware.Transaction(memory.Factory{Store: store}, nil))

	_, err := wrapped.Dispatch(context.Background(), otherCmd{})
	require.NoError(t, err)
	_, err = wrapped.Dispatch(context.Background(), selfTxCmd{})
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false}, sawUnit)
}

func TestTransactionRollsBackOnError(t *testing.T) {
	store := memory.NewStore()
	boom := errors.New("boom")
	bus := &countingBus{out: func(ctx context.Context, cmd commands.Command) (any, error) {
		unit, ok := uow.FromContext(ctx)
		require.True(t, ok)
		user, err := domainuser.NewUser(domainuser.CreateParams{ID: "u-1", Email: "a@b.c", Name: "A", PasswordHash: "x", Role: domainuser.RoleUser})
		require.NoError(t, err)
		require.NoError(t, unit.Users().Create(ctx, user))
		return nil, boom
	}}
	wrapped := middleware.ChainCommands(bus, middleware.Transaction(memory.Factory{Store: store}, nil))

	_, err := wrapped.Dispatch(context.Background(), otherCmd{})
	assert.ErrorIs(t, err, boom)
	_, err = store.Users().ByID(context.Background(), "u-1")
	assert.ErrorIs(t, err, domainuser.ErrNotFound)
}

func TestOutboxFlushOnlyAfterSuccess(t *testing.T) {
	box := memory.NewOutbox()
	flushes := 0
	box.OnFlush = func() { flushes++ }
	fail := true
	bus := &countingBus{out: func(context.Context, commands.Command) (any, error) {
		if fail {
			return nil, errors.New("nope")
		}
		return nil, nil
	}}
	wrapped := middleware.ChainCommands(bus, middleware.OutboxFlush(box, nil))

	_, _ = wrapped.Dispatch(context.Background(), otherCmd{})
	assert.Zero(t, flushes)
	fail = false
	_, _ = wrapped.Dispatch(context.Background(), otherCmd{})
	assert.Equal(t, 1, flushes)
}
