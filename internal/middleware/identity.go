package middleware

// identity.go provides accessors for the identity that JWTAuth stored in
// the Echo context, so handlers do not repeat type assertions on c.Get.

import (
	"github.com/labstack/echo/v4"
)

// UserName returns the authenticated user's name, or "" when the request
// carries no valid identity.
func UserName(c echo.Context) string {
	if s, ok := c.Get("user_name").(string); ok {
		return s
	}
	return ""
}

// Role returns the authenticated user's role, or "" when absent.
func Role(c echo.Context) string {
	if s, ok := c.Get("role").(string); ok {
		return s
	}
	return ""
}
