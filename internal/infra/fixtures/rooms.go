// Package fixtures seeds demo managers and rooms from a YAML file.
package fixtures

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"hotelier/internal/app/commands"
	"hotelier/internal/app/dto"
	"hotelier/internal/app/handlers/rooms"
	"hotelier/internal/app/services/auth"
	domainroom "hotelier/internal/domain/room"
	domainuser "hotelier/internal/domain/user"
)

type File struct {
	Managers []Manager `yaml:"managers"`
	Rooms    []Room    `yaml:"rooms"`
}

type Manager struct {
	Email    string `yaml:"email"`
	Name     string `yaml:"name"`
	Password string `yaml:"password"`
}

type Room struct {
	Number   string `yaml:"number"`
	Category string `yaml:"category"`
	Price    int64  `yaml:"price"`
	Manager  string `yaml:"manager"`
}

func Load(path string) (File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("fixtures: read %s: %w", path, err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (File, error) {
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return File{}, fmt.Errorf("fixtures: decode: %w", err)
	}
	for i, r := range f.Rooms {
		if r.Number == "" || r.Manager == "" {
			return File{}, fmt.Errorf("fixtures: room #%d needs number and manager", i+1)
		}
	}
	return f, nil
}

// Managers is the subset of the auth service the seeder needs.
type Managers interface {
	CreateManager(ctx context.Context, params auth.RegisterParams) (*domainuser.User, error)
}

type Seeder struct {
	Users    domainuser.Repository
	Managers Managers
	Bus      commands.Bus
	Logger   *slog.Logger
}

// Apply is re-runnable: existing managers are reused and rooms whose number is
// already taken are skipped. Rooms go through the command bus so their
// creation events reach the outbox.
func (s Seeder) Apply(ctx context.Context, f File) (int, error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	managerIDs := make(map[string]domainuser.ID, len(f.Managers))
	for _, m := range f.Managers {
		email := domainuser.NormalizeEmail(m.Email)
		existing, err := s.Users.ByEmail(ctx, email)
		switch {
		case err == nil:
			if existing.Role != domainuser.RoleManager {
				return 0, fmt.Errorf("fixtures: %s exists with role %s", email, existing.Role)
			}
			managerIDs[email] = existing.ID
			continue
		case !errors.Is(err, domainuser.ErrNotFound):
			return 0, err
		}
		created, err := s.Managers.CreateManager(ctx, auth.RegisterParams{Email: email, Name: m.Name, Password: m.Password})
		if err != nil {
			return 0, fmt.Errorf("fixtures: manager %s: %w", email, err)
		}
		managerIDs[email] = created.ID
	}

	created := 0
	for _, r := range f.Rooms {
		email := domainuser.NormalizeEmail(r.Manager)
		managerID, ok := managerIDs[email]
		if !ok {
			u, err := s.Users.ByEmail(ctx, email)
			if err != nil {
				return created, fmt.Errorf("fixtures: room %s manager %s: %w", r.Number, email, err)
			}
			managerID = u.ID
		}
		_, err := commands.Dispatch[rooms.CreateRoomCommand, *dto.Room](ctx, s.Bus, rooms.CreateRoomCommand{
			ManagerID: string(managerID),
			Role:      string(domainuser.RoleManager),
			Number:    r.Number,
			Category:  r.Category,
			Price:     r.Price,
		})
		if errors.Is(err, domainroom.ErrDuplicateNumber) {
			logger.Debug("fixture room already present", "room_number", r.Number)
			continue
		}
		if err != nil {
			return created, fmt.Errorf("fixtures: room %s: %w", r.Number, err)
		}
		created++
	}
	logger.Info("room fixtures applied", "created", created, "total", len(f.Rooms))
	return created, nil
}
