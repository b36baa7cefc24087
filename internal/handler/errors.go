package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/transit-admin-console/internal/apiclient"
	"github.com/iliyamo/transit-admin-console/internal/console"
	"github.com/iliyamo/transit-admin-console/internal/middleware"
	"github.com/iliyamo/transit-admin-console/internal/view"
)

// ErrorHandler renders echo errors (404, 403 from RequireAdmin, 429 from the
// rate limiter, CSRF rejections) as the console error page.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	msg := "Something went wrong. Try again."
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		msg = fmt.Sprint(he.Message)
	}
	if code >= http.StatusInternalServerError {
		c.Logger().Error(err)
	}
	page := view.ErrorPage{
		Page:    view.Page{Title: http.StatusText(code), Session: middleware.SessionFrom(c), CSRF: csrfToken(c)},
		Status:  code,
		Message: msg,
		Back:    "/",
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	if rerr := c.Render(code, "error", page); rerr != nil {
		_ = c.String(code, msg)
	}
}

// statusFor picks the HTTP status of the page shown after a console error.
func statusFor(err error) int {
	var rf *apiclient.RequestFailed
	switch console.Classify(err) {
	case console.FailureAccessDenied:
		return http.StatusForbidden
	case console.FailureValidation:
		if errors.Is(err, console.ErrUnsupportedKind) {
			return http.StatusNotFound
		}
		return http.StatusUnprocessableEntity
	case console.FailureRequest:
		if errors.As(err, &rf) && rf.Status == http.StatusNotFound {
			return http.StatusNotFound
		}
	}
	return http.StatusBadGateway
}

func titleFor(err error) string {
	switch console.Classify(err) {
	case console.FailureAccessDenied:
		return "Access denied"
	case console.FailureNetwork:
		return "Booking API unreachable"
	case console.FailureValidation:
		return "Invalid request"
	}
	return "Request failed"
}

func csrfToken(c echo.Context) string {
	s, _ := c.Get("csrf").(string)
	return s
}
