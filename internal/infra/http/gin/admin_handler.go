package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"hotelier/internal/app/dto"
	"hotelier/internal/app/handlers/admin"
	"hotelier/internal/app/queries"
	domainuser "hotelier/internal/domain/user"
)

type AdminHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h AdminHandler) ListManagers(c *gin.Context) {
	h.listUsers(c, string(domainuser.RoleManager))
}

func (h AdminHandler) ListUsers(c *gin.Context) {
	h.listUsers(c, c.Query("role"))
}

func (h AdminHandler) listUsers(c *gin.Context, role string) {
	p := mustPrincipal(c)
	result, err := queries.Ask[admin.ListUsersQuery, dto.UserCollection](c.Request.Context(), h.Queries, admin.ListUsersQuery{Role: p.Role, FilterRole: role})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) ListRooms(c *gin.Context) {
	p := mustPrincipal(c)
	result, err := queries.Ask[admin.ListRoomsQuery, dto.RoomCollection](c.Request.Context(), h.Queries, admin.ListRoomsQuery{Role: p.Role})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) ListBookings(c *gin.Context) {
	p := mustPrincipal(c)
	result, err := queries.Ask[admin.ListBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, admin.ListBookingsQuery{Role: p.Role, Status: c.Query("status")})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) Revenue(c *gin.Context) {
	p := mustPrincipal(c)
	result, err := queries.Ask[admin.RevenueQuery, dto.Revenue](c.Request.Context(), h.Queries, admin.RevenueQuery{Role: p.Role})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
