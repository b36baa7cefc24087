package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/transit-admin-console/internal/model"
)

// RequireRole returns a middleware function that enforces that the
// logged-in operator has one of the specified roles.  It assumes
// SessionAuth has stored the role under "role".  Other roles get a 403
// which the error handler renders as the access-denied page.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(ctxRole).(string)
			if !ok || !allowed[role] || !SessionFrom(c).LoggedIn() {
				return echo.NewHTTPError(http.StatusForbidden, "Admin access required. Log in with an admin account.")
			}
			return next(c)
		}
	}
}

// RequireAdmin restricts a route group to admin sessions.
func RequireAdmin() echo.MiddlewareFunc {
	return RequireRole(model.RoleAdmin)
}
