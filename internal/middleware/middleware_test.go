package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/transit-admin-console/internal/config"
	"github.com/iliyamo/transit-admin-console/internal/model"
	"github.com/iliyamo/transit-admin-console/internal/utils"
)

const secret = "test-secret"

func okHandler(c echo.Context) error { return c.String(http.StatusOK, SessionFrom(c).Name) }

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func withSession(t *testing.T, req *http.Request, sess model.Session) {
	t.Helper()
	tok, _, err := utils.NewSessionToken(secret, sess, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tok})
}

func TestSessionAuthRedirectsWithoutCookie(t *testing.T) {
	e := echo.New()
	e.GET("/admin", okHandler, SessionAuth(secret, "/login"))

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/admin", nil))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Fatalf("got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "tampered"})
	rec = serve(e, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("tampered cookie: got %d", rec.Code)
	}
	if c := rec.Result().Cookies(); len(c) != 1 || c[0].MaxAge >= 0 {
		t.Fatalf("tampered cookie should be cleared, got %+v", c)
	}
}

func TestRequireAdmin(t *testing.T) {
	e := echo.New()
	g := e.Group("/admin", SessionAuth(secret, "/login"), RequireAdmin())
	g.GET("", okHandler)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	withSession(t, req, model.Session{ID: "u1", Name: "Root", Role: model.RoleAdmin})
	if rec := serve(e, req); rec.Code != http.StatusOK || rec.Body.String() != "Root" {
		t.Fatalf("admin: got %d %q", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	withSession(t, req, model.Session{ID: "u2", Name: "Budi", Role: "customer"})
	if rec := serve(e, req); rec.Code != http.StatusForbidden {
		t.Fatalf("customer: got %d", rec.Code)
	}
}

func TestTokenBucketBlocksAfterCapacity(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	cfg := config.RateLimitConfig{
		Enabled: true, Capacity: 2, RefillTokens: 1, RefillInterval: time.Hour,
		TTL: time.Hour, KeyStrategy: "ip", Prefix: "rl",
	}
	e := echo.New()
	e.POST("/admin/company", okHandler, NewTokenBucket(cfg, rdb))

	for i := 0; i < 2; i++ {
		if rec := serve(e, httptest.NewRequest(http.MethodPost, "/admin/company", nil)); rec.Code != http.StatusOK {
			t.Fatalf("request %d: got %d", i, rec.Code)
		}
	}
	rec := serve(e, httptest.NewRequest(http.MethodPost, "/admin/company", nil))
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") == "" {
		t.Fatalf("third request: got %d retry=%q", rec.Code, rec.Header().Get("Retry-After"))
	}
}

func TestTokenBucketWithoutRedisPassesThrough(t *testing.T) {
	mw := NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil)
	called := 0
	h := mw(func(echo.Context) error { called++; return nil })
	e := echo.New()
	for i := 0; i < 3; i++ {
		c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), httptest.NewRecorder())
		if err := h(c); err != nil {
			t.Fatal(err)
		}
	}
	if called != 3 {
		t.Fatalf("called %d times", called)
	}
}

func TestRequireRoleReturnsHTTPError(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	err := RequireAdmin()(okHandler)(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusForbidden {
		t.Fatalf("want 403 HTTPError, got %v", err)
	}
}
