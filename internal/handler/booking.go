package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mayflower/covid19-teststation-termine/internal/booking"
	"github.com/mayflower/covid19-teststation-termine/internal/middleware"
	"github.com/mayflower/covid19-teststation-termine/internal/model"
)

type claimReq struct {
	StartDateTime string `json:"start_date_time"`
}

// Claim soft-reserves one unit of the slot starting at the given
// time. The returned token is the only handle on the claim and must
// be presented to finalize before it expires.
func (h *Handler) Claim(c echo.Context) error {
	var req claimReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	start, _, err := booking.ParseWhen(req.StartDateTime, h.Cfg.Location)
	if err != nil {
		return fail(c, err)
	}

	token, until, err := h.Engine.Claim(c.Request().Context(), start, middleware.UserName(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"claim_token":   token,
		"claimed_until": until,
	})
}

type releaseReq struct {
	ClaimToken string `json:"claim_token"`
}

// ReleaseClaim frees a claimed unit early instead of letting the
// claim age out. Releasing an unknown or already-expired token is
// not an error.
func (h *Handler) ReleaseClaim(c echo.Context) error {
	var req releaseReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.ClaimToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "claim_token required"})
	}
	if err := h.Engine.ReleaseClaim(c.Request().Context(), strings.TrimSpace(req.ClaimToken)); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type finalizeReq struct {
	ClaimToken string `json:"claim_token"`
	model.BookingDetails
}

// Finalize converts a live claim into a durable booking, spending
// one coupon of the authenticated user.
func (h *Handler) Finalize(c echo.Context) error {
	var req finalizeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.ClaimToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "claim_token required"})
	}

	b, err := h.Engine.Finalize(c.Request().Context(), strings.TrimSpace(req.ClaimToken),
		req.BookingDetails, middleware.UserName(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}
