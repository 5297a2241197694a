package booking

import (
	"strings"

	"hotelier/internal/domain/shared/fault"
)

// Status is the closed set of booking states.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var ErrUnknownStatus = fault.Validation("booking: status must be one of confirmed, completed, cancelled")

// transitions is the whole state machine; terminal states map to nothing.
var transitions = map[Status][]Status{
	StatusConfirmed: {StatusCompleted, StatusCancelled},
	StatusCompleted: {},
	StatusCancelled: {},
}

func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", ErrUnknownStatus
	}
	return s, nil
}

func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// IsActive reports whether the booking still holds its room.
func (s Status) IsActive() bool {
	return s == StatusConfirmed
}

func (s Status) String() string { return string(s) }
