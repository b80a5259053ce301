package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mayflower/covid19-teststation-termine/internal/booking"
)

type createSlotsReq struct {
	StartDateTime       string `json:"start_date_time"`
	DurationMin         int    `json:"duration_min"`
	NumSlots            int    `json:"num_slots"`
	AppointmentsPerSlot int    `json:"appointments_per_slot"`
}

// CreateSlots opens a contiguous batch of slots, each with the same
// number of bookable units.
func (h *Handler) CreateSlots(c echo.Context) error {
	var req createSlotsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	start, _, err := booking.ParseWhen(req.StartDateTime, h.Cfg.Location)
	if err != nil {
		return fail(c, err)
	}

	slots, err := h.Engine.CreateSlots(c.Request().Context(), start,
		req.DurationMin, req.NumSlots, req.AppointmentsPerSlot)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"slots": slots})
}

type deleteSlotsReq struct {
	StartDateTime string `json:"start_date_time"`
	NumSlots      int    `json:"num_slots"`
	ForReal       bool   `json:"for_real"`
}

// DeleteSlots removes up to num_slots slots on the given day. The
// default is a dry run that only reports what would go; a batch
// containing any booked unit is refused entirely, with the report
// attached so the operator can see which booking blocks it.
func (h *Handler) DeleteSlots(c echo.Context) error {
	var req deleteSlotsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	from, _, err := booking.ParseWhen(req.StartDateTime, h.Cfg.Location)
	if err != nil {
		return fail(c, err)
	}

	report, err := h.Engine.DeleteSlots(c.Request().Context(), from, req.NumSlots, req.ForReal)
	if err != nil {
		if errors.Is(err, booking.ErrHasBookedAppointments) && report != nil {
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error(), "would": report})
		}
		return fail(c, err)
	}
	if !report.Performed {
		return c.JSON(http.StatusOK, echo.Map{"would": report})
	}
	return c.JSON(http.StatusOK, report)
}

type cancelBookingReq struct {
	Secret        string `json:"secret"`
	StartDateTime string `json:"start_date_time"`
	ForReal       bool   `json:"for_real"`
}

// CancelBooking cancels a booking identified by its secret and slot
// start time, restoring the unit and one coupon. Dry run by default.
func (h *Handler) CancelBooking(c echo.Context) error {
	var req cancelBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Secret) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "secret required"})
	}
	start, _, err := booking.ParseWhen(req.StartDateTime, h.Cfg.Location)
	if err != nil {
		return fail(c, err)
	}

	outcome, err := h.Engine.Cancel(c.Request().Context(), strings.TrimSpace(req.Secret), start, req.ForReal)
	if err != nil {
		return fail(c, err)
	}
	if !outcome.Performed {
		return c.JSON(http.StatusOK, echo.Map{"would": outcome.Booking})
	}
	return c.JSON(http.StatusOK, outcome)
}

// BookingsCreated lists the bookings created on a day or at one
// exact instant, for the daily reporting exports.
func (h *Handler) BookingsCreated(c echo.Context) error {
	at := c.QueryParam("booked_at")
	if at == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booked_at required"})
	}
	bookings, err := h.Engine.BookingsCreatedAt(c.Request().Context(), at)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}
