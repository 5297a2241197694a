package user

import (
	"context"
	"strings"
	"time"

	"hotelier/internal/domain/shared/fault"
)

var (
	ErrIDRequired          = fault.Validation("user: id is required")
	ErrEmailRequired       = fault.Validation("user: email is required")
	ErrPasswordHashMissing = fault.Validation("user: password hash is required")
	ErrNameRequired        = fault.Validation("user: name is required")
	ErrInvalidRole         = fault.Validation("user: role must be one of user, manager, admin")
	ErrEmailAlreadyUsed    = fault.Validation("user: email already used")
	ErrNotFound            = fault.NotFound("user: not found")
)

type ID string

type Role string

const (
	RoleUser    Role = "user"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleUser:
		return RoleUser, nil
	case RoleManager:
		return RoleManager, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", ErrInvalidRole
	}
}

// User carries exactly one role, as the hotel dashboards are role-scoped.
type User struct {
	ID           ID
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*User, error)
	ByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, user *User) error
	List(ctx context.Context, role Role) ([]*User, error)
	ByIDs(ctx context.Context, ids []ID) (map[ID]*User, error)
}

type CreateParams struct {
	ID           ID
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

func NewUser(params CreateParams) (*User, error) {
	id := strings.TrimSpace(string(params.ID))
	if id == "" {
		return nil, ErrIDRequired
	}
	email := NormalizeEmail(params.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	if strings.TrimSpace(params.PasswordHash) == "" {
		return nil, ErrPasswordHashMissing
	}
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	role := params.Role
	if role == "" {
		role = RoleUser
	}
	role, err := ParseRole(string(role))
	if err != nil {
		return nil, err
	}

	now := params.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	return &User{
		ID:           ID(id),
		Email:        email,
		Name:         name,
		PasswordHash: params.PasswordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (u *User) HasRole(role Role) bool {
	return u != nil && u.Role == role
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
