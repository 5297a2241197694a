package room

import (
	"context"
	"strings"
	"time"

	"hotelier/internal/domain/shared/events"
	"hotelier/internal/domain/shared/fault"
	"hotelier/internal/domain/shared/money"
)

var (
	ErrNumberRequired          = fault.Validation("room: room number is required")
	ErrManagerRequired         = fault.Validation("room: managing user is required")
	ErrInvalidCategory         = fault.Validation("room: category must be one of single, double, suite, deluxe")
	ErrNegativePrice           = fault.Validation("room: price must not be negative")
	ErrDuplicateNumber         = fault.Validation("room: room number already exists")
	ErrAvailabilityNotEditable = fault.Validation("room: availability is managed by bookings")
	ErrNothingToUpdate         = fault.Validation("room: no fields to update")
	ErrNotFound                = fault.NotFound("room: not found")
	ErrNotRoomManager          = fault.Authorization("room: room is managed by another manager")
	ErrUnavailable             = fault.Conflict("room: room is not available")
	ErrConcurrentUpdate        = fault.Conflict("room: concurrent update detected")
)

type ID string

type Category string

const (
	CategorySingle Category = "single"
	CategoryDouble Category = "double"
	CategorySuite  Category = "suite"
	CategoryDeluxe Category = "deluxe"
)

// Categories lists every accepted category in display order.
var Categories = []Category{CategorySingle, CategoryDouble, CategorySuite, CategoryDeluxe}

func ParseCategory(raw string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", ErrInvalidCategory
}

type Room struct {
	ID        ID
	Number    string
	Category  Category
	Price     money.Money
	Available bool
	ManagerID string
	PhotoURL  string
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64
	events.Recorder
}

// Repository is the room inventory ledger. Availability is written only
// through SetAvailability and ClaimAvailability; Save never touches it.
type Repository interface {
	ByID(ctx context.Context, id ID) (*Room, error)
	Create(ctx context.Context, room *Room) error
	Save(ctx context.Context, room *Room) error
	// SetAvailability is idempotent: writing the current value is not an error.
	SetAvailability(ctx context.Context, id ID, available bool) error
	// ClaimAvailability flips an available room to unavailable, failing with
	// ErrUnavailable if another writer got there first.
	ClaimAvailability(ctx context.Context, id ID) error
	ListAvailable(ctx context.Context) ([]*Room, error)
	ListByManager(ctx context.Context, managerID string) ([]*Room, error)
	List(ctx context.Context) ([]*Room, error)
}

type CreateParams struct {
	ID        ID
	Number    string
	Category  string
	Price     int64
	Currency  string
	ManagerID string
	Now       time.Time
}

func NewRoom(params CreateParams) (*Room, error) {
	number := strings.TrimSpace(params.Number)
	if number == "" {
		return nil, ErrNumberRequired
	}
	managerID := strings.TrimSpace(params.ManagerID)
	if managerID == "" {
		return nil, ErrManagerRequired
	}
	category, err := ParseCategory(params.Category)
	if err != nil {
		return nil, err
	}
	if params.Price < 0 {
		return nil, ErrNegativePrice
	}
	price, err := money.NewNonNegative(params.Price, params.Currency)
	if err != nil {
		return nil, err
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	r := &Room{
		ID:        params.ID,
		Number:    number,
		Category:  category,
		Price:     price,
		Available: true,
		ManagerID: managerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.Record(Created{RoomID: r.ID, Number: r.Number, Category: r.Category, Price: r.Price, ManagerID: managerID, At: now})
	return r, nil
}

// EnsureManagedBy rejects any mutation by someone other than the owning manager.
func (r *Room) EnsureManagedBy(managerID string) error {
	if strings.TrimSpace(managerID) == "" || r.ManagerID != managerID {
		return ErrNotRoomManager
	}
	return nil
}

// FieldsUpdate carries the optional manager-editable fields. Available exists
// only so that an attempt to set it can be detected and refused.
type FieldsUpdate struct {
	Number    *string
	Category  *string
	Price     *int64
	Available *bool
}

func (u FieldsUpdate) Empty() bool {
	return u.Number == nil && u.Category == nil && u.Price == nil && u.Available == nil
}

// ApplyUpdate validates the whole update before mutating anything.
func (r *Room) ApplyUpdate(managerID string, u FieldsUpdate, now time.Time) error {
	if err := r.EnsureManagedBy(managerID); err != nil {
		return err
	}
	if u.Available != nil {
		return ErrAvailabilityNotEditable
	}
	if u.Empty() {
		return ErrNothingToUpdate
	}
	number := r.Number
	if u.Number != nil {
		number = strings.TrimSpace(*u.Number)
		if number == "" {
			return ErrNumberRequired
		}
	}
	category := r.Category
	if u.Category != nil {
		c, err := ParseCategory(*u.Category)
		if err != nil {
			return err
		}
		category = c
	}
	price := r.Price
	if u.Price != nil {
		if *u.Price < 0 {
			return ErrNegativePrice
		}
		price.Amount = *u.Price
	}

	r.Number = number
	r.Category = category
	r.Price = price
	r.touch(now)
	r.Record(Updated{RoomID: r.ID, Number: r.Number, Category: r.Category, Price: r.Price, At: r.UpdatedAt})
	return nil
}

func (r *Room) SetPhoto(managerID, url string, now time.Time) error {
	if err := r.EnsureManagedBy(managerID); err != nil {
		return err
	}
	r.PhotoURL = strings.TrimSpace(url)
	r.touch(now)
	return nil
}

func (r *Room) touch(now time.Time) {
	if now.IsZero() {
		now = time.Now()
	}
	r.UpdatedAt = now.UTC()
}

// Clone returns a copy without pending events, used by in-memory stores.
func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}
	c := *r
	c.Recorder = events.Recorder{}
	return &c
}
