package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/transit-admin-console/internal/apiclient"
	"github.com/iliyamo/transit-admin-console/internal/console"
	"github.com/iliyamo/transit-admin-console/internal/middleware"
	"github.com/iliyamo/transit-admin-console/internal/model"
	"github.com/iliyamo/transit-admin-console/internal/utils"
	"github.com/iliyamo/transit-admin-console/internal/view"
)

// Authenticator exchanges credentials for a session; *apiclient.Client
// implements it.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (model.Session, error)
}

// AuthHandler bundles dependencies for the login and logout endpoints.
type AuthHandler struct {
	API          Authenticator
	Secret       string
	TTL          time.Duration
	SecureCookie bool
}

func NewAuthHandler(api Authenticator, secret string, ttl time.Duration, secure bool) *AuthHandler {
	return &AuthHandler{API: api, Secret: secret, TTL: ttl, SecureCookie: secure}
}

// LoginForm shows the login page.  A valid admin cookie skips it.
func (h *AuthHandler) LoginForm(c echo.Context) error {
	if ck, err := c.Cookie(middleware.SessionCookie); err == nil {
		if sess, err := utils.ParseSessionToken(h.Secret, ck.Value); err == nil && sess.IsAdmin() {
			return c.Redirect(http.StatusSeeOther, homePath)
		}
	}
	return h.renderLogin(c, http.StatusOK, "", "")
}

// Login checks the credentials against the booking API and, for admin
// accounts, stores the returned user in the signed session cookie.
func (h *AuthHandler) Login(c echo.Context) error {
	email := strings.TrimSpace(c.FormValue("email"))
	password := c.FormValue("password")
	if email == "" || password == "" {
		return h.renderLogin(c, http.StatusUnprocessableEntity, email, "Email and password are required.")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	sess, err := h.API.Login(ctx, email, password)
	if err != nil {
		status := http.StatusBadGateway
		if _, ok := err.(*apiclient.RequestFailed); ok {
			status = http.StatusUnauthorized
		}
		return h.renderLogin(c, status, email, console.Notice(err))
	}
	if _, err := console.RequireAdminSession(sess); err != nil {
		return h.renderLogin(c, http.StatusForbidden, email, console.Notice(err))
	}

	token, exp, err := utils.NewSessionToken(h.Secret, sess, h.TTL)
	if err != nil {
		return err
	}
	middleware.SetSessionCookie(c, token, exp, h.SecureCookie)
	return c.Redirect(http.StatusSeeOther, homePath)
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
	middleware.ClearSessionCookie(c)
	return c.Redirect(http.StatusSeeOther, "/login")
}

func (h *AuthHandler) renderLogin(c echo.Context, status int, email, notice string) error {
	page := view.LoginPage{
		Page:  view.Page{Title: "Admin login", CSRF: csrfToken(c), Notice: notice, NoticeKind: view.NoticeError},
		Email: email,
	}
	return c.Render(status, "login", page)
}
