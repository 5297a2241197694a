package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"hotelier/internal/domain/shared/fault"
	domainuser "hotelier/internal/domain/user"
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrInvalidToken       = errors.New("auth: invalid or expired token")
	ErrPasswordTooShort   = fault.Validation("auth: password must be at least 8 characters")
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// Claims is what an access token vouches for.
type Claims struct {
	UserID    domainuser.ID
	Role      domainuser.Role
	ExpiresAt time.Time
}

type TokenIssuer interface {
	Issue(userID domainuser.ID, role domainuser.Role) (token string, expiresAt time.Time, err error)
	Verify(token string) (Claims, error)
}

type Service struct {
	Users     domainuser.Repository
	Passwords PasswordHasher
	Tokens    TokenIssuer
	Logger    *slog.Logger
	Clock     func() time.Time
}

type RegisterParams struct {
	Email    string
	Name     string
	Password string
}

type LoginParams struct {
	Email    string
	Password string
}

type AuthResult struct {
	User      *domainuser.User
	Token     string
	ExpiresAt time.Time
}

// Register creates a requester account and signs it in.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*AuthResult, error) {
	user, err := s.createUser(ctx, params, domainuser.RoleUser)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// CreateManager is the administrator path for manager accounts; managers
// cannot sign up themselves.
func (s *Service) CreateManager(ctx context.Context, params RegisterParams) (*domainuser.User, error) {
	return s.createUser(ctx, params, domainuser.RoleManager)
}

// EnsureAdmin creates the administrator account unless the email is taken.
// The bool reports whether a new account was created.
func (s *Service) EnsureAdmin(ctx context.Context, params RegisterParams) (*domainuser.User, bool, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, false, err
	}
	existing, err := s.Users.ByEmail(ctx, params.Email)
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, domainuser.ErrNotFound):
		return nil, false, err
	}
	user, err := s.createUser(ctx, params, domainuser.RoleAdmin)
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

func (s *Service) Login(ctx context.Context, params LoginParams) (*AuthResult, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	email := domainuser.NormalizeEmail(params.Email)
	if email == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.Users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domainuser.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := s.Passwords.Compare(user.PasswordHash, params.Password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if s.Logger != nil {
		s.Logger.Info("user authenticated", "user_id", user.ID, "role", user.Role)
	}
	return s.issue(user)
}

// Resolve verifies token and reloads its user, so deleted accounts and
// role changes take effect before the token expires.
func (s *Service) Resolve(ctx context.Context, token string) (*domainuser.User, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	claims, err := s.Tokens.Verify(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	user, err := s.Users.ByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domainuser.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if user.Role != claims.Role {
		return nil, ErrInvalidToken
	}
	return user, nil
}

func (s *Service) createUser(ctx context.Context, params RegisterParams, role domainuser.Role) (*domainuser.User, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	email := domainuser.NormalizeEmail(params.Email)
	if email == "" {
		return nil, domainuser.ErrEmailRequired
	}
	if strings.TrimSpace(params.Name) == "" {
		return nil, domainuser.ErrNameRequired
	}
	if utf8.RuneCountInString(params.Password) < 8 {
		return nil, ErrPasswordTooShort
	}
	hash, err := s.Passwords.Hash(params.Password)
	if err != nil {
		return nil, err
	}
	user, err := domainuser.NewUser(domainuser.CreateParams{
		ID:           domainuser.ID(uuid.NewString()),
		Email:        email,
		Name:         params.Name,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    s.now(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.Users.Create(ctx, user); err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("user created", "user_id", user.ID, "email", user.Email, "role", user.Role)
	}
	return user, nil
}

func (s *Service) issue(user *domainuser.User) (*AuthResult, error) {
	token, exp, err := s.Tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: exp}, nil
}

func (s *Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

func (s *Service) ensureDependencies() error {
	switch {
	case s.Users == nil:
		return errors.New("auth: user repository required")
	case s.Passwords == nil:
		return errors.New("auth: password hasher required")
	case s.Tokens == nil:
		return errors.New("auth: token issuer required")
	default:
		return nil
	}
}
