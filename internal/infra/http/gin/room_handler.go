package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"hotelier/internal/app/dto"
	"hotelier/internal/app/handlers/rooms"
	"hotelier/internal/app/queries"
)

// RoomHandler serves the room catalog shown to guests and requesters.
type RoomHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h RoomHandler) ListAvailable(c *gin.Context) {
	result, err := queries.Ask[rooms.ListAvailableRoomsQuery, dto.RoomCollection](c.Request.Context(), h.Queries, rooms.ListAvailableRoomsQuery{})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
