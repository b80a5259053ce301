package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mayflower/covid19-teststation-termine/internal/middleware"
	"github.com/mayflower/covid19-teststation-termine/internal/utils"
)

// ListUsers reports every account with its booking total and coupon
// balance, admins first.
func (h *Handler) ListUsers(c echo.Context) error {
	users, err := h.Engine.CouponState(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users})
}

type patchUserReq struct {
	UserName string `json:"user_name"`
	Coupons  int    `json:"coupons"`
	IsAdmin  bool   `json:"is_admin"`
}

// PatchUser sets a user's coupon balance and role. Admins editing
// their own account keep their role regardless of the request.
func (h *Handler) PatchUser(c echo.Context) error {
	var req patchUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.UserName = strings.ToLower(strings.TrimSpace(req.UserName))

	u, err := h.Engine.PatchUser(c.Request().Context(), middleware.UserName(c),
		req.UserName, req.Coupons, req.IsAdmin)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, userPart{UserName: u.UserName, Role: u.Role, Coupons: u.Coupons})
}

type createUserReq struct {
	UserName string `json:"user_name"`
	Password string `json:"password"`
	Coupons  *int   `json:"coupons"`
	IsAdmin  bool   `json:"is_admin"`
}

// CreateUser registers a new account. Coupons default to the
// standard allowance when omitted.
func (h *Handler) CreateUser(c echo.Context) error {
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.UserName = strings.ToLower(strings.TrimSpace(req.UserName))
	if req.UserName == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_name/password required"})
	}
	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash failed"})
	}
	coupons := -1
	if req.Coupons != nil {
		coupons = *req.Coupons
	}

	u, err := h.Engine.CreateUser(c.Request().Context(), req.UserName, hash, coupons, req.IsAdmin)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, userPart{UserName: u.UserName, Role: u.Role, Coupons: u.Coupons})
}

type adjustCouponsReq struct {
	UserName string `json:"user_name"`
	Delta    int    `json:"delta"`
}

// AdjustCoupons adds a signed delta to a user's coupon balance.
func (h *Handler) AdjustCoupons(c echo.Context) error {
	var req adjustCouponsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.UserName = strings.ToLower(strings.TrimSpace(req.UserName))

	if err := h.Engine.AdjustCoupons(c.Request().Context(), req.UserName, req.Delta); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// CouponState reports coupon balances and booking totals per user.
func (h *Handler) CouponState(c echo.Context) error {
	users, err := h.Engine.CouponState(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users})
}
