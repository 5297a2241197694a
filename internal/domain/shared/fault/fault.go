// Package fault classifies domain failures so transport layers can map them
// without knowing every sentinel a domain package declares.
package fault

import (
	"errors"
	"fmt"
)

var (
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("not found")
	ErrAuthorization = errors.New("not authorized")
	ErrConflict      = errors.New("conflict")
	ErrState         = errors.New("illegal state transition")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

// New declares a sentinel error of the provided kind.
func New(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

func Validation(msg string) error    { return New(ErrValidation, msg) }
func NotFound(msg string) error      { return New(ErrNotFound, msg) }
func Authorization(msg string) error { return New(ErrAuthorization, msg) }
func Conflict(msg string) error      { return New(ErrConflict, msg) }
func State(msg string) error         { return New(ErrState, msg) }

// Validationf builds a one-off validation error with formatted detail.
func Validationf(format string, args ...any) error {
	return New(ErrValidation, fmt.Sprintf(format, args...))
}

// Kind returns the classification sentinel of err, or nil when err is unclassified.
func Kind(err error) error {
	for _, kind := range []error{ErrValidation, ErrNotFound, ErrAuthorization, ErrConflict, ErrState} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
