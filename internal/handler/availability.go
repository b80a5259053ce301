package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mayflower/covid19-teststation-termine/internal/booking"
)

const defaultLookaheadDays = 14

// FreeSlots lists the slots with at least one bookable unit in a
// window. `from` defaults to now, `until` to two weeks later; both
// accept a bare date or an ISO timestamp.
func (h *Handler) FreeSlots(c echo.Context) error {
	from := time.Now().In(h.Cfg.Location)
	if v := c.QueryParam("from"); v != "" {
		t, _, err := booking.ParseWhen(v, h.Cfg.Location)
		if err != nil {
			return fail(c, err)
		}
		from = t
	}
	until := from.AddDate(0, 0, defaultLookaheadDays)
	if v := c.QueryParam("until"); v != "" {
		t, dateOnly, err := booking.ParseWhen(v, h.Cfg.Location)
		if err != nil {
			return fail(c, err)
		}
		// A bare end date means "through that whole day".
		if dateOnly {
			t = t.AddDate(0, 0, 1)
		}
		until = t
	}

	slots, err := h.Engine.FreeSlotsBetween(c.Request().Context(), from, until)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"slots": slots})
}

type adminFreeSlotsReq struct {
	At   string `query:"at"`
	Days int    `query:"days"`
}

// AdminFreeSlots lists the free slots before and after a reference
// time, the two candidate lists the follow-up scheduler works from.
func (h *Handler) AdminFreeSlots(c echo.Context) error {
	var req adminFreeSlotsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid query"})
	}
	if req.At == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "at required"})
	}
	at, _, err := booking.ParseWhen(req.At, h.Cfg.Location)
	if err != nil {
		return fail(c, err)
	}
	days := req.Days
	if days <= 0 {
		days = 2
	}

	ctx := c.Request().Context()
	after, err := h.Engine.FreeSlotsAfter(ctx, at, days)
	if err != nil {
		return fail(c, err)
	}
	before, err := h.Engine.FreeSlotsBefore(ctx, at, days)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"after": after, "before": before})
}
