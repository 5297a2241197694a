package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"hotelier/internal/app/commands"
	"hotelier/internal/app/dto"
	bookingapp "hotelier/internal/app/handlers/booking"
	"hotelier/internal/app/queries"
)

const idempotencyHeader = "Idempotency-Key"

// BookingHandler is the requester side of the booking lifecycle.
type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type reserveRequest struct {
	RoomID   string `json:"room_id"`
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
}

func (h BookingHandler) Reserve(c *gin.Context) {
	p := mustPrincipal(c)
	var req reserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	result, err := commands.Dispatch[bookingapp.ReserveRoomCommand, *dto.Booking](c.Request.Context(), h.Commands, bookingapp.ReserveRoomCommand{
		RequesterID:     p.ID,
		Role:            p.Role,
		RoomID:          req.RoomID,
		CheckIn:         req.CheckIn,
		CheckOut:        req.CheckOut,
		IdempotencyKeyV: c.GetHeader(idempotencyHeader),
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h BookingHandler) ListMine(c *gin.Context) {
	p := mustPrincipal(c)
	result, err := queries.Ask[bookingapp.ListRequesterBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, bookingapp.ListRequesterBookingsQuery{RequesterID: p.ID})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Cancel(c *gin.Context) {
	p := mustPrincipal(c)
	result, err := commands.Dispatch[bookingapp.CancelBookingCommand, *dto.Booking](c.Request.Context(), h.Commands, bookingapp.CancelBookingCommand{
		BookingID:   c.Param("id"),
		RequesterID: p.ID,
		Role:        p.Role,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
