package middleware

// identity.go holds the helper that names the caller for rate limiting and
// logging: the session's user id, or "guest" before login.

import "github.com/labstack/echo/v4"

func userID(c echo.Context) string {
	if id := SessionFrom(c).ID; id != "" {
		return id
	}
	return "guest"
}
