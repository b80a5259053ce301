package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mayflower/covid19-teststation-termine/internal/database"
)

// Health is the liveness endpoint used by load balancers and
// monitoring. It reports the applied schema version when the
// database answers; a slow or unreachable database degrades the
// response rather than failing it, liveness is about the process.
func (h *Handler) Health(c echo.Context) error {
	resp := echo.Map{"status": "ok"}
	if h.DB != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if v, err := database.MigrationVersion(ctx, h.DB); err == nil {
			resp["schema_version"] = v
		}
	}
	return c.JSON(http.StatusOK, resp)
}
