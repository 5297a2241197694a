package rooms

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"hotelier/internal/app/commands"
	"hotelier/internal/app/dto"
	"hotelier/internal/app/handlers/support"
	"hotelier/internal/app/outbox"
	"hotelier/internal/app/uow"
	domainroom "hotelier/internal/domain/room"
	"hotelier/internal/domain/shared/fault"
	domainuser "hotelier/internal/domain/user"
)

const (
	CreateRoomKey  = "rooms.create"
	UpdateRoomKey  = "rooms.update_fields"
	UploadPhotoKey = "rooms.upload_photo"
)

var (
	ErrManagerRequired     = fault.Validation("rooms: manager id is required")
	ErrRoomIDRequired      = fault.Validation("rooms: room id is required")
	ErrPhotoRequired       = fault.Validation("rooms: photo content is required")
	ErrUploaderUnavailable = errors.New("rooms: photo uploader unavailable")
)

// PhotoUploader stores binary content and returns its public URL.
type PhotoUploader interface {
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) (string, error)
}

type CreateRoomCommand struct {
	ManagerID string
	Role      string
	Number    string
	Category  string
	Price     int64
}

func (c CreateRoomCommand) Key() string            { return CreateRoomKey }
func (c CreateRoomCommand) AllowedRoles() []string { return []string{string(domainuser.RoleManager)} }
func (c CreateRoomCommand) CallerRole() string     { return c.Role }

type UpdateRoomFieldsCommand struct {
	ManagerID string
	Role      string
	RoomID    string
	Fields    domainroom.FieldsUpdate
}

func (c UpdateRoomFieldsCommand) Key() string            { return UpdateRoomKey }
func (c UpdateRoomFieldsCommand) AllowedRoles() []string { return []string{string(domainuser.RoleManager)} }
func (c UpdateRoomFieldsCommand) CallerRole() string     { return c.Role }

type UploadRoomPhotoCommand struct {
	ManagerID   string
	Role        string
	RoomID      string
	FileName    string
	ContentType string
	Reader      io.Reader
}

func (c UploadRoomPhotoCommand) Key() string            { return UploadPhotoKey }
func (c UploadRoomPhotoCommand) AllowedRoles() []string { return []string{string(domainuser.RoleManager)} }
func (c UploadRoomPhotoCommand) CallerRole() string     { return c.Role }

// Handlers groups the manager-side room operations.
type Handlers struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Uploader   PhotoUploader
	Currency   string
	Logger     *slog.Logger
	Clock      func() time.Time
	NewID      func() string
}

func (h *Handlers) Register(bus *commands.InMemoryBus) {
	commands.RegisterHandler[CreateRoomCommand, *dto.Room](bus, CreateRoomKey, commands.HandlerFunc[CreateRoomCommand, *dto.Room](h.CreateRoom))
	commands.RegisterHandler[UpdateRoomFieldsCommand, *dto.Room](bus, UpdateRoomKey, commands.HandlerFunc[UpdateRoomFieldsCommand, *dto.Room](h.UpdateRoomFields))
	commands.RegisterHandler[UploadRoomPhotoCommand, *dto.Room](bus, UploadPhotoKey, commands.HandlerFunc[UploadRoomPhotoCommand, *dto.Room](h.UploadRoomPhoto))
}

func (h *Handlers) CreateRoom(ctx context.Context, cmd CreateRoomCommand) (*dto.Room, error) {
	if strings.TrimSpace(cmd.ManagerID) == "" {
		return nil, ErrManagerRequired
	}
	room, err := domainroom.NewRoom(domainroom.CreateParams{
		ID:        domainroom.ID(h.newID()),
		Number:    cmd.Number,
		Category:  cmd.Category,
		Price:     cmd.Price,
		Currency:  h.Currency,
		ManagerID: cmd.ManagerID,
		Now:       h.now(),
	})
	if err != nil {
		return nil, err
	}

	unit, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer unit.Close()

	if err := unit.Rooms().Create(unit.Ctx, room); err != nil {
		return nil, err
	}
	if err := outbox.RecordDomainEvents(unit.Ctx, h.Outbox, h.Encoder, room.Drain()); err != nil {
		return nil, err
	}
	if err := unit.Commit(); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("room created", "room_id", room.ID, "room_number", room.Number, "manager_id", room.ManagerID)
	}
	out := dto.MapRoom(room)
	return &out, nil
}

func (h *Handlers) UpdateRoomFields(ctx context.Context, cmd UpdateRoomFieldsCommand) (*dto.Room, error) {
	if strings.TrimSpace(cmd.RoomID) == "" {
		return nil, ErrRoomIDRequired
	}
	unit, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer unit.Close()

	room, err := unit.Rooms().ByID(unit.Ctx, domainroom.ID(cmd.RoomID))
	if err != nil {
		return nil, err
	}
	if err := room.ApplyUpdate(cmd.ManagerID, cmd.Fields, h.now()); err != nil {
		return nil, err
	}
	if err := unit.Rooms().Save(unit.Ctx, room); err != nil {
		return nil, err
	}
	if err := outbox.RecordDomainEvents(unit.Ctx, h.Outbox, h.Encoder, room.Drain()); err != nil {
		return nil, err
	}
	if err := unit.Commit(); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("room updated", "room_id", room.ID, "manager_id", cmd.ManagerID)
	}
	out := dto.MapRoom(room)
	return &out, nil
}

// UploadRoomPhoto checks ownership before sending bytes anywhere.
func (h *Handlers) UploadRoomPhoto(ctx context.Context, cmd UploadRoomPhotoCommand) (*dto.Room, error) {
	if h.Uploader == nil {
		return nil, ErrUploaderUnavailable
	}
	if strings.TrimSpace(cmd.RoomID) == "" {
		return nil, ErrRoomIDRequired
	}
	if cmd.Reader == nil {
		return nil, ErrPhotoRequired
	}
	unit, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer unit.Close()

	room, err := unit.Rooms().ByID(unit.Ctx, domainroom.ID(cmd.RoomID))
	if err != nil {
		return nil, err
	}
	if err := room.EnsureManagedBy(cmd.ManagerID); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("rooms/%s/%s%s", room.ID, h.newID(), strings.ToLower(path.Ext(cmd.FileName)))
	url, err := h.Uploader.Upload(unit.Ctx, key, cmd.Reader, cmd.ContentType)
	if err != nil {
		return nil, fmt.Errorf("upload photo: %w", err)
	}
	if err := room.SetPhoto(cmd.ManagerID, url, h.now()); err != nil {
		return nil, err
	}
	if err := unit.Rooms().Save(unit.Ctx, room); err != nil {
		return nil, err
	}
	if err := unit.Commit(); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("room photo uploaded", "room_id", room.ID, "object_key", key)
	}
	out := dto.MapRoom(room)
	return &out, nil
}

func (h *Handlers) now() time.Time {
	if h.Clock != nil {
		return h.Clock().UTC()
	}
	return time.Now().UTC()
}

func (h *Handlers) newID() string {
	if h.NewID != nil {
		return h.NewID()
	}
	return uuid.NewString()
}
