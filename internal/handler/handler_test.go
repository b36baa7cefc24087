package handler_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/transit-admin-console/internal/apiclient"
	"github.com/iliyamo/transit-admin-console/internal/apiclient/apitest"
	"github.com/iliyamo/transit-admin-console/internal/cache"
	"github.com/iliyamo/transit-admin-console/internal/config"
	"github.com/iliyamo/transit-admin-console/internal/console"
	"github.com/iliyamo/transit-admin-console/internal/handler"
	"github.com/iliyamo/transit-admin-console/internal/middleware"
	"github.com/iliyamo/transit-admin-console/internal/model"
	"github.com/iliyamo/transit-admin-console/internal/repository"
	"github.com/iliyamo/transit-admin-console/internal/router"
	"github.com/iliyamo/transit-admin-console/internal/utils"
	"github.com/iliyamo/transit-admin-console/internal/view"
)

const secret = "handler-test-secret"

// browser keeps cookies between requests and fills in the CSRF token.
type browser struct {
	t       *testing.T
	e       *echo.Echo
	api     *apitest.Server
	cookies map[string]string
}

func newBrowser(t *testing.T) *browser {
	t.Helper()
	srv := apitest.NewServer()
	t.Cleanup(srv.Close)
	srv.Seed("users", map[string]any{"name": "Root", "email": "root@acme.test", "password": "pw", "role": "admin"})
	srv.Seed("users", map[string]any{"name": "Budi", "email": "budi@acme.test", "password": "pw", "role": "customer"})

	client := apiclient.New(srv.URL, 2*time.Second)
	companies := cache.NewCompanyCache(config.CompanyCacheConfig{TTL: time.Hour, Prefix: "test"}, nil)
	cons := console.New(client, companies, nil, nil, time.UTC)

	e := echo.New()
	e.Renderer = view.MustRenderer()
	e.HTTPErrorHandler = handler.ErrorHandler
	passthrough := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	router.RegisterRoutes(e)
	router.RegisterConsole(e,
		handler.NewAuthHandler(client, secret, time.Hour, false),
		handler.NewConsoleHandler(cons, (*repository.AuditRepo)(nil), 5*time.Second),
		secret, passthrough)

	b := &browser{t: t, e: e, api: srv, cookies: map[string]string{}}
	b.get("/login")
	return b
}

func (b *browser) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	b.t.Helper()
	var req *http.Request
	if method == http.MethodPost {
		if form == nil {
			form = url.Values{}
		}
		if _, set := form["_csrf"]; !set {
			form.Set("_csrf", b.cookies["_csrf"])
		}
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for name, value := range b.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}
	rec := httptest.NewRecorder()
	b.e.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c.Value
	}
	return rec
}

func (b *browser) get(path string) *httptest.ResponseRecorder { return b.do(http.MethodGet, path, nil) }

func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	return b.do(http.MethodPost, path, form)
}

func (b *browser) login(email string) *httptest.ResponseRecorder {
	return b.post("/login", url.Values{"email": {email}, "password": {"pw"}})
}

func expect(t *testing.T, rec *httptest.ResponseRecorder, status int, contains ...string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d; body:\n%s", rec.Code, status, rec.Body.String())
	}
	for _, s := range contains {
		if !strings.Contains(rec.Body.String(), s) {
			t.Fatalf("body does not contain %q:\n%s", s, rec.Body.String())
		}
	}
}

func expectRedirect(t *testing.T, rec *httptest.ResponseRecorder, location string) {
	t.Helper()
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != location {
		t.Fatalf("got %d to %q, want 303 to %q; body:\n%s", rec.Code, rec.Header().Get("Location"), location, rec.Body.String())
	}
}

func TestLoginFlow(t *testing.T) {
	b := newBrowser(t)
	expectRedirect(t, b.get("/admin/company"), "/login")

	expectRedirect(t, b.login("root@acme.test"), "/admin/company")
	if b.cookies[middleware.SessionCookie] == "" {
		t.Fatal("session cookie not set")
	}
	expect(t, b.get("/admin/company"), http.StatusOK, "Companies", "Root")
	expectRedirect(t, b.get("/login"), "/admin/company")

	expectRedirect(t, b.post("/logout", nil), "/login")
	expectRedirect(t, b.get("/admin/company"), "/login")
}

func TestCustomerCannotLogIn(t *testing.T) {
	b := newBrowser(t)
	expect(t, b.login("budi@acme.test"), http.StatusForbidden, "Admin access required")
	if b.cookies[middleware.SessionCookie] != "" {
		t.Fatal("customer must not receive a session")
	}
	expect(t, b.post("/login", url.Values{"email": {"root@acme.test"}, "password": {"nope"}}),
		http.StatusUnauthorized, "Invalid email or password")
}

func TestCustomerSessionIsDenied(t *testing.T) {
	b := newBrowser(t)
	tok, _, err := utils.NewSessionToken(secret, model.Session{ID: "u2", Name: "Budi", Role: "customer"}, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	b.cookies[middleware.SessionCookie] = tok
	expect(t, b.get("/admin/company"), http.StatusForbidden, "Admin access required")
	if b.api.RequestCount() != 0 {
		t.Fatal("denied pages must not call the API")
	}
}

func TestCSRFTokenRequired(t *testing.T) {
	b := newBrowser(t)
	b.login("root@acme.test")
	rec := b.post("/admin/company", url.Values{"_csrf": {"forged"}, "name": {"Acme"}, "type": {"bus"}})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("forged token: status %d", rec.Code)
	}
	if len(b.api.Docs("companies")) != 0 {
		t.Fatal("forged post must not create anything")
	}
}

func TestCreateCompanyAppearsInList(t *testing.T) {
	b := newBrowser(t)
	b.login("root@acme.test")
	expect(t, b.get("/admin/company/new"), http.StatusOK, "New company", `name="name"`)

	rec := b.post("/admin/company", url.Values{"name": {"Acme Bus"}, "type": {"bus"}, "description": {""}, "contact_email": {""}, "phone": {""}})
	expectRedirect(t, rec, "/admin/company?done=created")
	expect(t, b.get("/admin/company?done=created"), http.StatusOK, "Created.", "Acme Bus", "BUS")
}

func TestListEscapesBackendText(t *testing.T) {
	b := newBrowser(t)
	b.login("root@acme.test")
	b.api.Seed("companies", map[string]any{"name": `<img src=x onerror=alert(1)>`, "type": "bus"})

	rec := b.get("/admin/company")
	expect(t, rec, http.StatusOK, "&lt;img src=x onerror=alert(1)&gt;")
	if strings.Contains(rec.Body.String(), "<img src=x") {
		t.Fatal("unescaped markup in list")
	}
}

func TestInvalidScheduleRerendersForm(t *testing.T) {
	b := newBrowser(t)
	b.login("root@acme.test")
	cid := b.api.Seed("companies", map[string]any{"name": "Acme Bus", "type": "bus"})

	before := b.api.RequestCount()
	rec := b.post("/admin/schedule", url.Values{
		"company_id": {cid}, "type": {"bus"}, "origin": {"Jakarta"}, "destination": {"Bandung"},
		"departure_date": {"2025-03-01T08:30"}, "arrival_date": {""}, "price": {"abc"}, "available_seats": {"40"},
	})
	expect(t, rec, http.StatusUnprocessableEntity, "price must be a whole number", `value="Jakarta"`)
	for _, r := range b.api.Requests()[before:] {
		if r.Method == http.MethodPost {
			t.Fatal("invalid form must not be submitted")
		}
	}
}

func TestBookingCannotBeCreated(t *testing.T) {
	b := newBrowser(t)
	b.login("root@acme.test")
	before := b.api.RequestCount()
	expect(t, b.get("/admin/booking/new"), http.StatusUnprocessableEntity, "cannot be created")
	expect(t, b.post("/admin/booking", url.Values{
		"user_id": {"u2"}, "schedule_id": {"s1"}, "passenger_name": {"Budi"}, "passenger_count": {"1"}, "status": {"pending"},
	}), http.StatusUnprocessableEntity, "cannot be created")
	if b.api.RequestCount() != before {
		t.Fatal("booking create reached the API")
	}
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	b := newBrowser(t)
	b.login("root@acme.test")
	id := b.api.Seed("companies", map[string]any{"name": "Acme Bus", "type": "bus"})

	expect(t, b.get("/admin/company/"+id+"/delete"), http.StatusOK, "Acme Bus", `name="confirm"`)
	expect(t, b.post("/admin/company/"+id+"/delete", nil), http.StatusUnprocessableEntity, "not confirmed")
	if len(b.api.Docs("companies")) != 1 {
		t.Fatal("unconfirmed delete removed the company")
	}

	expectRedirect(t, b.post("/admin/company/"+id+"/delete", url.Values{"confirm": {"yes"}}), "/admin/company?done=deleted")
	rec := b.get("/admin/company?done=deleted")
	expect(t, rec, http.StatusOK, "Deleted.")
	if strings.Contains(rec.Body.String(), "Acme Bus") {
		t.Fatal("deleted company still listed")
	}
}

func TestFailedDeleteRefetchesList(t *testing.T) {
	b := newBrowser(t)
	b.login("root@acme.test")
	b.api.Seed("companies", map[string]any{"name": "Acme Bus", "type": "bus"})

	rec := b.post("/admin/company/missing/delete", url.Values{"confirm": {"yes"}})
	expect(t, rec, http.StatusNotFound, "Not found", "Acme Bus")
}

func TestEditAndCompleteBooking(t *testing.T) {
	b := newBrowser(t)
	b.login("root@acme.test")
	id := b.api.Seed("bookings", map[string]any{
		"booking_code": "TRAV-1", "user_id": "u2", "schedule_id": "s1", "passenger_name": "Budi",
		"passenger_count": 2, "status": "confirmed",
	})

	expect(t, b.get("/admin/booking"), http.StatusOK, "TRAV-1", "/admin/booking/"+id+"/complete")
	expect(t, b.get("/admin/booking/"+id+"/edit"), http.StatusOK, "Edit booking", `value="Budi"`)

	rec := b.post("/admin/booking/"+id, url.Values{
		"user_id": {"u2"}, "schedule_id": {"s1"}, "passenger_name": {"Budi Santoso"}, "passenger_count": {"3"}, "status": {"confirmed"},
	})
	expectRedirect(t, rec, "/admin/booking?done=updated")
	if got := b.api.Docs("bookings")[0]["passenger_name"]; got != "Budi Santoso" {
		t.Fatalf("passenger_name = %v", got)
	}

	expectRedirect(t, b.post("/admin/booking/"+id+"/complete", nil), "/admin/booking?done=completed")
	if got := b.api.Docs("bookings")[0]["status"]; got != "completed" {
		t.Fatalf("status = %v", got)
	}
}

func TestUnknownKind(t *testing.T) {
	b := newBrowser(t)
	b.login("root@acme.test")
	expect(t, b.get("/admin/payment"), http.StatusNotFound, "Unknown entity kind")
	expect(t, b.get("/admin/payment/new"), http.StatusNotFound, "Unsupported entity")
}

func TestAuditPageWithoutDatabase(t *testing.T) {
	b := newBrowser(t)
	b.login("root@acme.test")
	expect(t, b.get("/admin/audit"), http.StatusOK, "No audit database")
}

func TestHealth(t *testing.T) {
	b := newBrowser(t)
	expect(t, b.get("/healthz"), http.StatusOK, "ok")
}
