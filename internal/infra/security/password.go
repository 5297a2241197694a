package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"hotelier/internal/domain/shared/fault"
)

// ErrPasswordTooLong mirrors bcrypt's 72 byte input limit as a client error.
var ErrPasswordTooLong = fault.Validation("security: password must be at most 72 bytes")

// BcryptHasher stores user passwords; Cost outside bcrypt's range falls back
// to the library default.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(password), h.cost())
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong
	}
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (h BcryptHasher) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func (h BcryptHasher) cost() int {
	if h.Cost >= bcrypt.MinCost && h.Cost <= bcrypt.MaxCost {
		return h.Cost
	}
	return bcrypt.DefaultCost
}
