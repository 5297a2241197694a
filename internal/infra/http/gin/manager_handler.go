package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"hotelier/internal/app/commands"
	"hotelier/internal/app/dto"
	bookingapp "hotelier/internal/app/handlers/booking"
	"hotelier/internal/app/handlers/rooms"
	"hotelier/internal/app/queries"
	domainroom "hotelier/internal/domain/room"
)

const maxPhotoBytes = 10 << 20

// ManagerHandler covers room inventory and the bookings on it.
type ManagerHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type createRoomRequest struct {
	Number   string `json:"room_number"`
	Category string `json:"category"`
	Price    int64  `json:"price"`
}

// updateRoomRequest keeps pointers so absent fields stay untouched.
// Available is accepted only so it can be rejected with a clear error.
type updateRoomRequest struct {
	Number    *string `json:"room_number"`
	Category  *string `json:"category"`
	Price     *int64  `json:"price"`
	Available *bool   `json:"available"`
}

type updateBookingRequest struct {
	Status string `json:"status"`
}

func (h ManagerHandler) CreateRoom(c *gin.Context) {
	p := mustPrincipal(c)
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	result, err := commands.Dispatch[rooms.CreateRoomCommand, *dto.Room](c.Request.Context(), h.Commands, rooms.CreateRoomCommand{
		ManagerID: p.ID,
		Role:      p.Role,
		Number:    req.Number,
		Category:  req.Category,
		Price:     req.Price,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h ManagerHandler) UpdateRoom(c *gin.Context) {
	p := mustPrincipal(c)
	var req updateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	result, err := commands.Dispatch[rooms.UpdateRoomFieldsCommand, *dto.Room](c.Request.Context(), h.Commands, rooms.UpdateRoomFieldsCommand{
		ManagerID: p.ID,
		Role:      p.Role,
		RoomID:    c.Param("id"),
		Fields: domainroom.FieldsUpdate{
			Number:    req.Number,
			Category:  req.Category,
			Price:     req.Price,
			Available: req.Available,
		},
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ManagerHandler) UploadPhoto(c *gin.Context) {
	p := mustPrincipal(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPhotoBytes)
	header, err := c.FormFile("photo")
	if err != nil {
		badRequest(c, "multipart field \"photo\" is required")
		return
	}
	file, err := header.Open()
	if err != nil {
		badRequest(c, "photo could not be read")
		return
	}
	defer file.Close()

	result, err := commands.Dispatch[rooms.UploadRoomPhotoCommand, *dto.Room](c.Request.Context(), h.Commands, rooms.UploadRoomPhotoCommand{
		ManagerID:   p.ID,
		Role:        p.Role,
		RoomID:      c.Param("id"),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Reader:      file,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ManagerHandler) ListRooms(c *gin.Context) {
	p := mustPrincipal(c)
	result, err := queries.Ask[rooms.ListManagedRoomsQuery, dto.RoomCollection](c.Request.Context(), h.Queries, rooms.ListManagedRoomsQuery{ManagerID: p.ID})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ManagerHandler) ListBookings(c *gin.Context) {
	p := mustPrincipal(c)
	result, err := queries.Ask[bookingapp.ListManagerBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, bookingapp.ListManagerBookingsQuery{
		ManagerID: p.ID,
		Status:    c.Query("status"),
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ManagerHandler) UpdateBooking(c *gin.Context) {
	p := mustPrincipal(c)
	var req updateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	result, err := commands.Dispatch[bookingapp.UpdateStatusCommand, *dto.Booking](c.Request.Context(), h.Commands, bookingapp.UpdateStatusCommand{
		BookingID: c.Param("id"),
		Status:    req.Status,
		ActorID:   p.ID,
		ActorRole: p.Role,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
