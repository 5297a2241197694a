package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	domainuser "hotelier/internal/domain/user"
	"hotelier/internal/infra/obs"
)

type Handlers struct {
	Auth    AuthHandler
	Rooms   RoomHandler
	Booking BookingHandler
	Manager ManagerHandler
	Admin   AdminHandler

	AuthMiddleware gin.HandlerFunc
}

func NewServer(addr, env string, obsMW obs.Middleware, health obs.Health, h Handlers) *http.Server {
	mode := configureGinMode(env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              addr,
		Handler:           NewRouter(obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func NewRouter(obsMW obs.Middleware, health obs.Health, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.AccessLog())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", idempotencyHeader, obs.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", "Content-Type", obs.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)
	api.GET("/auth/me", RequireRole(), h.Auth.Me)
	api.GET("/rooms", h.Rooms.ListAvailable)

	userGroup := api.Group("/user", RequireRole(domainuser.RoleUser))
	userGroup.GET("/rooms", h.Rooms.ListAvailable)
	userGroup.POST("/bookings", h.Booking.Reserve)
	userGroup.GET("/bookings", h.Booking.ListMine)
	userGroup.PUT("/bookings/:id/cancel", h.Booking.Cancel)

	managerGroup := api.Group("/manager", RequireRole(domainuser.RoleManager))
	managerGroup.GET("/rooms", h.Manager.ListRooms)
	managerGroup.POST("/rooms", h.Manager.CreateRoom)
	managerGroup.PUT("/rooms/:id", h.Manager.UpdateRoom)
	managerGroup.PUT("/rooms/:id/photo", h.Manager.UploadPhoto)
	managerGroup.GET("/bookings", h.Manager.ListBookings)
	managerGroup.PUT("/bookings/:id", h.Manager.UpdateBooking)

	adminGroup := api.Group("/admin", RequireRole(domainuser.RoleAdmin))
	adminGroup.POST("/managers", h.Auth.CreateManager)
	adminGroup.GET("/managers", h.Admin.ListManagers)
	adminGroup.GET("/users", h.Admin.ListUsers)
	adminGroup.GET("/rooms", h.Admin.ListRooms)
	adminGroup.GET("/bookings", h.Admin.ListBookings)
	adminGroup.GET("/revenue", h.Admin.Revenue)

	return router
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug", "dev", "local":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
