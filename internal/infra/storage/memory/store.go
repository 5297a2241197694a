package memory

import (
	"errors"
	"sync"

	domainbooking "hotelier/internal/domain/booking"
	domainroom "hotelier/internal/domain/room"
	domainuser "hotelier/internal/domain/user"
)

var ErrReadOnly = errors.New("memory: write attempted in read-only unit of work")

// Store holds every ledger behind one lock, so a conditional update and
// the read that precedes it can never interleave with another writer.
type Store struct {
	mu       sync.RWMutex
	rooms    map[domainroom.ID]*domainroom.Room
	bookings map[domainbooking.ID]*domainbooking.Booking
	users    map[domainuser.ID]*domainuser.User
}

func NewStore() *Store {
	return &Store{
		rooms:    make(map[domainroom.ID]*domainroom.Room),
		bookings: make(map[domainbooking.ID]*domainbooking.Booking),
		users:    make(map[domainuser.ID]*domainuser.User),
	}
}

// Rooms returns a repository outside of any unit of work.
func (s *Store) Rooms() *RoomRepository {
	return &RoomRepository{store: s}
}

func (s *Store) Bookings() *BookingRepository {
	return &BookingRepository{store: s}
}

func (s *Store) Users() *UserRepository {
	return &UserRepository{store: s}
}

// journal collects undo steps for writes made inside a unit of work.
// A nil journal means writes are final immediately.
type journal struct {
	mu       sync.Mutex
	readOnly bool
	undo     []func()
}

func (j *journal) writable() error {
	if j != nil && j.readOnly {
		return ErrReadOnly
	}
	return nil
}

// record must be called with the store lock held.
func (j *journal) record(step func()) {
	if j == nil {
		return
	}
	j.mu.Lock()
	j.undo = append(j.undo, step)
	j.mu.Unlock()
}

func (j *journal) drain() []func() {
	j.mu.Lock()
	defer j.mu.Unlock()
	steps := j.undo
	j.undo = nil
	return steps
}
