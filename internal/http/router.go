package api

import (
	"log"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"

	intconfig "bustix/internal/config"
	h "bustix/internal/http/handlers"
	"bustix/internal/http/middleware"
	"bustix/internal/services"
)

// Deps carries the wired services the router mounts.
type Deps struct {
	System   h.SystemHandlers
	Bookings h.BookingHandlers
	Trips    h.TripHandlers
	Tickets  h.TicketHandlers
	Realtime h.RealtimeHandlers
}

func NewRouter(env intconfig.Env, deps Deps) *gin.Engine {
	gin.SetMode(env.GinMode)

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS())

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"success":   false,
			"errorKind": "NotFound",
			"message":   "route not found",
			"path":      c.Request.URL.Path,
			"method":    c.Request.Method,
		})
	})

	auth := middleware.Actor(env.JWTSecret)
	staffOnly := middleware.RequireRole(services.RoleStaff, services.RoleManager)

	api := r.Group("/api")
	{
		api.GET("/health", deps.System.Health)
		api.GET("/db-check", deps.System.DBCheck)

		bookings := api.Group("/bookings", auth)
		bookings.POST("", deps.Bookings.Create)
		bookings.POST("/counter", staffOnly, deps.Bookings.CreateCounter)
		bookings.PUT("/:id/cancel", deps.Bookings.Cancel)
		bookings.PUT("/:id/refund/confirm", staffOnly, deps.Bookings.ConfirmRefund)
		bookings.GET("/:id/ticket", deps.Tickets.ETicket)

		trips := api.Group("/trips", auth)
		trips.GET("/:id/seats", deps.Trips.AvailableSeats)
		trips.PUT("/:id/cancel", staffOnly, deps.Trips.Cancel)

		realtime := api.Group("/realtime", auth)
		realtime.GET("/stream", deps.Realtime.Stream)
		realtime.POST("/join", deps.Realtime.Join)
		realtime.POST("/leave", deps.Realtime.Leave)
		realtime.POST("/ping", deps.Realtime.Ping)
	}

	return r
}
