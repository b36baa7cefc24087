package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/transit-admin-console/internal/model"
	"github.com/iliyamo/transit-admin-console/internal/utils"
)

// SessionCookie is the cookie holding the signed session, named after the
// "user" key the booking site keeps its session under.
const SessionCookie = "user"

// Context keys set by SessionAuth.
const (
	ctxSession = "session"
	ctxRole    = "role"
)

// SessionAuth returns an Echo middleware that reads the session cookie,
// verifies its signature and stores the session in the request context.
// Requests without a valid session are redirected to loginPath and any
// stale cookie is cleared.
func SessionAuth(secret, loginPath string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ck, err := c.Cookie(SessionCookie)
			if err != nil || ck.Value == "" {
				return c.Redirect(http.StatusSeeOther, loginPath)
			}
			sess, err := utils.ParseSessionToken(secret, ck.Value)
			if err != nil {
				ClearSessionCookie(c)
				return c.Redirect(http.StatusSeeOther, loginPath)
			}
			c.Set(ctxSession, sess)
			c.Set(ctxRole, sess.Role)
			return next(c)
		}
	}
}

// SessionFrom returns the session stored by SessionAuth, or a logged-out
// session when there is none.
func SessionFrom(c echo.Context) model.Session {
	if s, ok := c.Get(ctxSession).(model.Session); ok {
		return s
	}
	return model.Session{}
}

// SetSessionCookie writes the signed session token.
func SetSessionCookie(c echo.Context, token string, expires time.Time, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
