package middleware

import (
	"context"
	"slices"

	"hotelier/internal/app/commands"
	"hotelier/internal/app/queries"
	"hotelier/internal/domain/shared/fault"
)

var ErrRoleNotAllowed = fault.Authorization("middleware: caller role is not allowed for this operation")

type Authorizer interface {
	Authorize(ctx context.Context, message any) error
}

// RoleRestricted is implemented by messages that only some roles may send.
type RoleRestricted interface {
	AllowedRoles() []string
	CallerRole() string
}

// RoleAuthorizer rejects RoleRestricted messages whose caller role is not listed.
type RoleAuthorizer struct{}

func (RoleAuthorizer) Authorize(_ context.Context, message any) error {
	restricted, ok := message.(RoleRestricted)
	if !ok {
		return nil
	}
	if !slices.Contains(restricted.AllowedRoles(), restricted.CallerRole()) {
		return ErrRoleNotAllowed
	}
	return nil
}

func Authorization(a Authorizer) CommandMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := a.Authorize(ctx, cmd); err != nil {
				return nil, err
			}
			return next.Dispatch(ctx, cmd)
		})
	}
}

func QueryAuthorization(a Authorizer) QueryMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next queries.Bus) queries.Bus {
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := a.Authorize(ctx, q); err != nil {
				return nil, err
			}
			return next.Ask(ctx, q)
		})
	}
}
