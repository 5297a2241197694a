package booking

import (
	"strings"

	"hotelier/internal/app/dto"
	"hotelier/internal/app/middleware"
	"hotelier/internal/domain/shared/fault"
	domainuser "hotelier/internal/domain/user"
)

const (
	ReserveKey      = "booking.reserve"
	CancelKey       = "booking.cancel"
	AdvanceKey      = "booking.advance"
	UpdateStatusKey = "booking.update_status"
)

var (
	ErrRequesterRequired = fault.Validation("booking: requester id is required")
	ErrManagerRequired   = fault.Validation("booking: manager id is required")
	ErrRoomIDRequired    = fault.Validation("booking: room id is required")
	ErrBookingIDRequired = fault.Validation("booking: booking id is required")
)

// ReserveRoomCommand books a room for a requester. Dates are kept as the
// caller sent them; parsing happens after the room is known to be free.
type ReserveRoomCommand struct {
	RequesterID     string
	RoomID          string
	CheckIn         string
	CheckOut        string
	IdempotencyKeyV string
	Role            string
}

func (c ReserveRoomCommand) Key() string              { return ReserveKey }
func (c ReserveRoomCommand) IdempotencyKey() string   { return c.IdempotencyKeyV }
func (c ReserveRoomCommand) IdempotencyScope() string { return c.RequesterID }
func (c ReserveRoomCommand) ResultPrototype() any     { return &dto.Booking{} }
func (c ReserveRoomCommand) ManagesTransaction() bool { return true }
func (c ReserveRoomCommand) AllowedRoles() []string   { return []string{string(domainuser.RoleUser)} }
func (c ReserveRoomCommand) CallerRole() string       { return c.Role }

func (c ReserveRoomCommand) Validate() error {
	if strings.TrimSpace(c.RequesterID) == "" {
		return ErrRequesterRequired
	}
	if strings.TrimSpace(c.RoomID) == "" {
		return ErrRoomIDRequired
	}
	return nil
}

type CancelBookingCommand struct {
	BookingID   string
	RequesterID string
	Role        string
}

func (c CancelBookingCommand) Key() string              { return CancelKey }
func (c CancelBookingCommand) ManagesTransaction() bool { return true }
func (c CancelBookingCommand) AllowedRoles() []string   { return []string{string(domainuser.RoleUser)} }
func (c CancelBookingCommand) CallerRole() string       { return c.Role }

func (c CancelBookingCommand) Validate() error {
	if strings.TrimSpace(c.BookingID) == "" {
		return ErrBookingIDRequired
	}
	if strings.TrimSpace(c.RequesterID) == "" {
		return ErrRequesterRequired
	}
	return nil
}

type AdvanceBookingCommand struct {
	BookingID string
	ManagerID string
	Role      string
}

func (c AdvanceBookingCommand) Key() string              { return AdvanceKey }
func (c AdvanceBookingCommand) ManagesTransaction() bool { return true }
func (c AdvanceBookingCommand) AllowedRoles() []string   { return []string{string(domainuser.RoleManager)} }
func (c AdvanceBookingCommand) CallerRole() string       { return c.Role }

func (c AdvanceBookingCommand) Validate() error {
	if strings.TrimSpace(c.BookingID) == "" {
		return ErrBookingIDRequired
	}
	if strings.TrimSpace(c.ManagerID) == "" {
		return ErrManagerRequired
	}
	return nil
}

// UpdateStatusCommand is the generic form behind cancel and advance; the
// ledger decides what the actor may do.
type UpdateStatusCommand struct {
	BookingID string
	Status    string
	ActorID   string
	ActorRole string
}

func (c UpdateStatusCommand) Key() string              { return UpdateStatusKey }
func (c UpdateStatusCommand) ManagesTransaction() bool { return true }

func (c UpdateStatusCommand) Validate() error {
	if strings.TrimSpace(c.BookingID) == "" {
		return ErrBookingIDRequired
	}
	return nil
}

var (
	_ middleware.IdempotentCommand = ReserveRoomCommand{}
	_ middleware.SelfTransacting   = ReserveRoomCommand{}
	_ middleware.RoleRestricted    = CancelBookingCommand{}
	_ middleware.SelfValidator     = UpdateStatusCommand{}
)
