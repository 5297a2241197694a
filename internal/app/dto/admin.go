package dto

// Revenue sums the totals of completed bookings.
type Revenue struct {
	Total             MoneyDTO `json:"total"`
	CompletedBookings int      `json:"completed_bookings"`
}
