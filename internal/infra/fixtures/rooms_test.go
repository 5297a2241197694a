package fixtures

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotelier/internal/app/commands"
	"hotelier/internal/app/handlers/rooms"
	"hotelier/internal/app/services/auth"
	"hotelier/internal/infra/security"
	"hotelier/internal/infra/storage/memory"
)

const sample = `
managers:
  - email: Front.Desk@Example.com
    name: Front Desk
    password: manager-pass
rooms:
  - number: R101
    category: single
    price: 8000
    manager: front.desk@example.com
  - number: R201
    category: suite
    price: 25000
    manager: front.desk@example.com
`

func TestParseRejectsIncompleteRoom(t *testing.T) {
	_, err := Parse([]byte("rooms:\n  - number: R1\n"))
	assert.Error(t, err)

	f, err := Parse([]byte(sample))
	require.NoError(t, err)
	assert.Len(t, f.Managers, 1)
	assert.Len(t, f.Rooms, 2)
	assert.Equal(t, int64(25000), f.Rooms[1].Price)
}

func TestApplyIsRerunnable(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	tokens, err := security.NewJWTIssuer("fixture-secret", time.Hour, "")
	require.NoError(t, err)
	svc := &auth.Service{Users: store.Users(), Passwords: security.BcryptHasher{Cost: 4}, Tokens: tokens}

	bus := commands.NewInMemoryBus()
	(&rooms.Handlers{UoWFactory: memory.Factory{Store: store}, Currency: "EUR"}).Register(bus)
	seeder := Seeder{Users: store.Users(), Managers: svc, Bus: bus}

	f, err := Parse([]byte(sample))
	require.NoError(t, err)

	created, err := seeder.Apply(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	created, err = seeder.Apply(ctx, f)
	require.NoError(t, err)
	assert.Zero(t, created)

	all, err := store.Rooms().List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "EUR", all[0].Price.Currency)
	assert.True(t, all[0].Available)
}
