package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainuser "hotelier/internal/domain/user"
	"hotelier/internal/infra/storage/memory"
)

// plainHasher keeps tests fast; bcrypt is covered in infra/security.
type plainHasher struct{}

func (plainHasher) Hash(p string) (string, error) { return "plain:" + p, nil }

func (plainHasher) Compare(hash, p string) error {
	if hash != "plain:"+p {
		return errors.New("mismatch")
	}
	return nil
}

type stubTokens struct{}

func (stubTokens) Issue(id domainuser.ID, role domainuser.Role) (string, time.Time, error) {
	return string(id) + "|" + string(role), time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), nil
}

func (stubTokens) Verify(token string) (Claims, error) {
	id, role, ok := strings.Cut(token, "|")
	if !ok {
		return Claims{}, errors.New("malformed")
	}
	return Claims{UserID: domainuser.ID(id), Role: domainuser.Role(role)}, nil
}

func newService() (*Service, *memory.Store) {
	store := memory.NewStore()
	return &Service{Users: store.Users(), Passwords: plainHasher{}, Tokens: stubTokens{}}, store
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	reg, err := svc.Register(ctx, RegisterParams{Email: " Guest@Hotel.Test ", Name: "Guest", Password: "long-enough"})
	require.NoError(t, err)
	assert.Equal(t, "guest@hotel.test", reg.User.Email)
	assert.Equal(t, domainuser.RoleUser, reg.User.Role)
	assert.NotEmpty(t, reg.Token)

	login, err := svc.Login(ctx, LoginParams{Email: "GUEST@hotel.test", Password: "long-enough"})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, login.User.ID)

	_, err = svc.Login(ctx, LoginParams{Email: "guest@hotel.test", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, LoginParams{Email: "nobody@hotel.test", Password: "long-enough"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Register(ctx, RegisterParams{Email: "guest@hotel.test", Name: "Twin", Password: "long-enough"})
	assert.ErrorIs(t, err, domainuser.ErrEmailAlreadyUsed)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	tests := []struct {
		name   string
		params RegisterParams
		want   error
	}{
		{name: "short password", params: RegisterParams{Email: "a@b.c", Name: "A", Password: "short"}, want: ErrPasswordTooShort},
		{name: "no email", params: RegisterParams{Name: "A", Password: "long-enough"}, want: domainuser.ErrEmailRequired},
		{name: "no name", params: RegisterParams{Email: "a@b.c", Password: "long-enough"}, want: domainuser.ErrNameRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.params)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	params := RegisterParams{Email: "root@hotel.test", Name: "Root", Password: "admin-pass"}

	first, created, err := svc.EnsureAdmin(ctx, params)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, domainuser.RoleAdmin, first.Role)

	again, created, err := svc.EnsureAdmin(ctx, params)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)
}

func TestResolveChecksUserAndRole(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	manager, err := svc.CreateManager(ctx, RegisterParams{Email: "m@hotel.test", Name: "M", Password: "manager-pass"})
	require.NoError(t, err)
	assert.Equal(t, domainuser.RoleManager, manager.Role)

	got, err := svc.Resolve(ctx, string(manager.ID)+"|manager")
	require.NoError(t, err)
	assert.Equal(t, manager.ID, got.ID)

	_, err = svc.Resolve(ctx, string(manager.ID)+"|admin")
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = svc.Resolve(ctx, "ghost|user")
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = svc.Resolve(ctx, "  ")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestServiceRequiresDependencies(t *testing.T) {
	_, err := (&Service{}).Login(context.Background(), LoginParams{Email: "a@b.c", Password: "x"})
	assert.Error(t, err)
}
