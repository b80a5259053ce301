// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/mayflower/covid19-teststation-termine/internal/handler"
	"github.com/mayflower/covid19-teststation-termine/internal/middleware"
	"github.com/mayflower/covid19-teststation-termine/internal/model"
)

// Register wires every route onto the Echo instance. Public routes
// carry no auth; /v1 requires a valid token with the user or admin
// role; /v1/admin requires admin. The rate limiter, when enabled,
// guards the endpoints an anonymous or hostile client can hammer:
// login and the claim/booking flow.
func Register(e *echo.Echo, h *handler.Handler, jwtSecret string, limiter echo.MiddlewareFunc) {
	e.GET("/healthz", h.Health)
	e.POST("/v1/login", h.Login, limiter)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(model.RoleUser, model.RoleAdmin))

	auth.GET("/me", h.Me)
	auth.GET("/slots", h.FreeSlots)
	auth.POST("/appointments/claim", h.Claim, limiter)
	auth.DELETE("/appointments/claim", h.ReleaseClaim)
	auth.POST("/bookings", h.Finalize, limiter)

	admin := auth.Group("/admin")
	admin.Use(middleware.RequireRole(model.RoleAdmin))

	admin.GET("/users", h.ListUsers)
	admin.PATCH("/users", h.PatchUser)
	admin.PUT("/users", h.CreateUser)
	admin.PATCH("/coupons", h.AdjustCoupons)
	admin.GET("/coupons", h.CouponState)
	admin.GET("/slots/free", h.AdminFreeSlots)
	admin.PUT("/slots", h.CreateSlots)
	admin.DELETE("/slots", h.DeleteSlots)
	admin.DELETE("/bookings", h.CancelBooking)
	admin.GET("/bookings", h.BookingsCreated)
	admin.POST("/followups", h.BookFollowup)
	admin.POST("/followups/batch", h.BookFollowups)
}
