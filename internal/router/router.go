package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/transit-admin-console/internal/handler"
	"github.com/iliyamo/transit-admin-console/internal/middleware"
)

// RegisterRoutes registers routes that do not require a session.  At the
// moment it only exposes the health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// CSRF protects every form post.  The token is read from the _csrf form
// field and handlers find it under the "csrf" context key.
func CSRF() echo.MiddlewareFunc {
	return echomw.CSRFWithConfig(echomw.CSRFConfig{
		TokenLookup:    "form:_csrf",
		CookieName:     "_csrf",
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSameSite: http.SameSiteStrictMode,
	})
}

// RegisterConsole registers the login flow and the /admin pages.  limit is
// applied to every state-changing route.
func RegisterConsole(e *echo.Echo, a *handler.AuthHandler, h *handler.ConsoleHandler, sessionSecret string, limit echo.MiddlewareFunc) {
	csrf := CSRF()

	// Login and logout carry a CSRF token but no session.
	e.GET("/login", a.LoginForm, csrf)
	e.POST("/login", a.Login, csrf, limit)
	e.POST("/logout", a.Logout, csrf)
	e.GET("/", h.Home)

	// Everything under /admin needs a signed admin session.  The role
	// check here is a convenience; the booking API authorizes each call
	// again from the identity headers.
	admin := e.Group("/admin", csrf, middleware.SessionAuth(sessionSecret, "/login"), middleware.RequireAdmin())
	admin.GET("/audit", h.Audit)
	admin.GET("/:kind", h.List)
	admin.GET("/:kind/new", h.NewForm)
	admin.POST("/:kind", h.Create, limit)
	admin.GET("/:kind/:id/edit", h.EditForm)
	admin.POST("/:kind/:id", h.Update, limit)
	admin.GET("/:kind/:id/delete", h.ConfirmDelete)
	admin.POST("/:kind/:id/delete", h.Delete, limit)
	admin.POST("/booking/:id/complete", h.Complete, limit)
}
