package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is the liveness probe.  It does not call the booking API, so a
// backend outage does not take console replicas out of rotation.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
