package money

import (
	"math"
	"strings"

	"hotelier/internal/domain/shared/fault"
)

var (
	ErrInvalidCurrency  = fault.Validation("money: invalid currency code")
	ErrCurrencyMismatch = fault.Validation("money: currency mismatch")
	ErrNegativeAmount   = fault.Validation("money: amount must not be negative")
	ErrOverflow         = fault.Validation("money: amount out of range")
)

// Money keeps amounts as integer units of the currency so totals never drift.
type Money struct {
	Amount   int64  `json:"amount" bson:"amount"`
	Currency string `json:"currency" bson:"currency"`
}

// New constructs a Money value validating minimal invariants.
func New(amount int64, currency string) (Money, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if len(currency) != 3 {
		return Money{}, ErrInvalidCurrency
	}
	return Money{Amount: amount, Currency: currency}, nil
}

// NewNonNegative is New plus a lower bound of zero, used for prices and totals.
func NewNonNegative(amount int64, currency string) (Money, error) {
	if amount < 0 {
		return Money{}, ErrNegativeAmount
	}
	return New(amount, currency)
}

// Must creates Money and panics if validation fails; useful in tests and fixtures.
func Must(amount int64, currency string) Money {
	m, err := New(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns a zero amount in the given currency.
func Zero(currency string) Money {
	return Money{Currency: strings.ToUpper(strings.TrimSpace(currency))}
}

// Add adds two money values ensuring currencies match.
func (m Money) Add(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	sum := m.Amount + other.Amount
	if (other.Amount > 0 && sum < m.Amount) || (other.Amount < 0 && sum > m.Amount) {
		return Money{}, ErrOverflow
	}
	return Money{Amount: sum, Currency: m.Currency}, nil
}

// Multiply scales the amount, failing instead of wrapping around int64.
func (m Money) Multiply(times int64) (Money, error) {
	if m.Amount == 0 || times == 0 {
		return Money{Currency: m.Currency}, nil
	}
	if (m.Amount == -1 && times == math.MinInt64) || (times == -1 && m.Amount == math.MinInt64) {
		return Money{}, ErrOverflow
	}
	product := m.Amount * times
	if product/times != m.Amount {
		return Money{}, ErrOverflow
	}
	return Money{Amount: product, Currency: m.Currency}, nil
}

func (m Money) IsNegative() bool {
	return m.Amount < 0
}

func (m Money) ensureSameCurrency(other Money) error {
	if m.Currency == "" || other.Currency == "" {
		return ErrInvalidCurrency
	}
	if m.Currency != other.Currency {
		return ErrCurrencyMismatch
	}
	return nil
}
