package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingCommand struct{ n int }

func (pingCommand) Key() string { return "test.ping" }

type missingCommand struct{}

func (missingCommand) Key() string { return "test.missing" }

func TestDispatchRoutesByKey(t *testing.T) {
	bus := NewInMemoryBus()
	RegisterHandler[pingCommand, int](bus, pingCommand{}.Key(), HandlerFunc[pingCommand, int](func(_ context.Context, cmd pingCommand) (int, error) {
		return cmd.n + 1, nil
	}))
	ctx := context.Background()

	got, err := Dispatch[pingCommand, int](ctx, bus, pingCommand{n: 41})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, []string{"test.ping"}, bus.Keys())

	_, err = Dispatch[pingCommand, string](ctx, bus, pingCommand{})
	assert.ErrorIs(t, err, ErrResultType)
	assert.Contains(t, err.Error(), "test.ping returned int")

	_, err = Dispatch[missingCommand, int](ctx, bus, missingCommand{})
	assert.ErrorIs(t, err, ErrHandlerNotFound)

	_, err = Dispatch[pingCommand, int](ctx, nil, pingCommand{})
	assert.ErrorIs(t, err, ErrNilBus)

	assert.Panics(t, func() {
		RegisterHandler[pingCommand, int](bus, pingCommand{}.Key(), HandlerFunc[pingCommand, int](func(context.Context, pingCommand) (int, error) { return 0, nil }))
	})
}
