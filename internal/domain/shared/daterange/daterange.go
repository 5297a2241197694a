package daterange

import (
	"math"
	"strings"
	"time"

	"hotelier/internal/domain/shared/fault"
)

var (
	ErrInvalidRange = fault.Validation("daterange: check-out must be after check-in")
	ErrInvalidDate  = fault.Validation("daterange: date cannot be parsed")
)

const day = 24 * time.Hour

// layouts accepted for check-in/check-out input, most specific first.
var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.DateOnly,
}

// DateRange represents a half-open interval [checkIn, checkOut)
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// New builds a range with at least one (possibly partial) night.
func New(checkIn, checkOut time.Time) (DateRange, error) {
	dr := DateRange{CheckIn: checkIn.UTC(), CheckOut: checkOut.UTC()}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

// Parse accepts ISO dates ("2024-01-01") and RFC3339 timestamps.
func Parse(checkIn, checkOut string) (DateRange, error) {
	in, err := ParseDate(checkIn)
	if err != nil {
		return DateRange{}, err
	}
	out, err := ParseDate(checkOut)
	if err != nil {
		return DateRange{}, err
	}
	return New(in, out)
}

func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrInvalidDate
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, ErrInvalidDate
}

func (dr DateRange) Validate() error {
	if dr.CheckOut.IsZero() || dr.CheckIn.IsZero() {
		return ErrInvalidDate
	}
	if dr.Nights() <= 0 {
		return ErrInvalidRange
	}
	return nil
}

// Nights rounds partial days up: a stay of 25 hours is billed as two nights.
func (dr DateRange) Nights() int {
	span := dr.CheckOut.Sub(dr.CheckIn)
	if span <= 0 {
		return 0
	}
	return int(math.Ceil(float64(span) / float64(day)))
}

func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(dr.CheckOut)
}

func (dr DateRange) ContainsDate(t time.Time) bool {
	t = t.UTC()
	return (t.Equal(dr.CheckIn) || t.After(dr.CheckIn)) && t.Before(dr.CheckOut)
}
