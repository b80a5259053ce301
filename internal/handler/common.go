// Package handler contains the HTTP handlers: thin translations
// between the JSON surface and the reservation engine.
package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mayflower/covid19-teststation-termine/internal/booking"
	"github.com/mayflower/covid19-teststation-termine/internal/config"
	"github.com/mayflower/covid19-teststation-termine/internal/repository"
)

// Handler bundles the dependencies of every endpoint.
type Handler struct {
	Cfg    config.Config
	DB     *sql.DB
	Engine *booking.Service
	Users  *repository.UserRepo
}

func New(cfg config.Config, db *sql.DB, engine *booking.Service, users *repository.UserRepo) *Handler {
	if engine == nil || users == nil {
		panic("nil dependency passed to handler.New")
	}
	return &Handler{Cfg: cfg, DB: db, Engine: engine, Users: users}
}

// fail translates engine sentinels into HTTP responses. Unknown
// errors become opaque 500s; the engine already logged them.
func fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, booking.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, booking.ErrOutOfCoupons):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, booking.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, booking.ErrSlotUnavailable),
		errors.Is(err, booking.ErrInvalidToken),
		errors.Is(err, booking.ErrClaimExpired):
		// The thing the client held (or wanted) no longer exists.
		return c.JSON(http.StatusGone, echo.Map{"error": err.Error()})
	case errors.Is(err, booking.ErrHasBookedAppointments),
		errors.Is(err, booking.ErrAlreadyBooked),
		errors.Is(err, booking.ErrUserExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
