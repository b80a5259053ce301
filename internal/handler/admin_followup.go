package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mayflower/covid19-teststation-termine/internal/model"
)

type followupReq struct {
	Anchor    model.Booking `json:"anchor"`
	DeltaDays *int          `json:"delta_days"`
	DayRange  *int          `json:"day_range"`
}

// Defaults for the follow-up search when the request omits the
// fields: three weeks out, two days of leeway. Explicit values win,
// including day_range 0 for a same-day-only search.
const (
	defaultFollowupDeltaDays = 21
	defaultFollowupDayRange  = 2
)

func followupDefaults(deltaDays, dayRange *int) (int, int) {
	dd, dr := defaultFollowupDeltaDays, defaultFollowupDayRange
	if deltaDays != nil {
		dd = *deltaDays
	}
	if dayRange != nil {
		dr = *dayRange
	}
	return dd, dr
}

// BookFollowup books a second appointment near the anchor booking's
// start plus delta_days, searching day_range days around the target.
func (h *Handler) BookFollowup(c echo.Context) error {
	var req followupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	deltaDays, dayRange := followupDefaults(req.DeltaDays, req.DayRange)
	b, err := h.Engine.BookFollowup(c.Request().Context(), req.Anchor, deltaDays, dayRange)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

type followupBatchReq struct {
	Anchors   []model.Booking `json:"anchors"`
	DeltaDays *int            `json:"delta_days"`
	DayRange  *int            `json:"day_range"`
}

// BookFollowups runs the follow-up search for every anchor
// independently and reports each outcome, booked or not.
func (h *Handler) BookFollowups(c echo.Context) error {
	var req followupBatchReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if len(req.Anchors) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "anchors required"})
	}
	deltaDays, dayRange := followupDefaults(req.DeltaDays, req.DayRange)
	results := h.Engine.BookFollowups(c.Request().Context(), req.Anchors, deltaDays, dayRange)
	return c.JSON(http.StatusOK, echo.Map{"results": results})
}
