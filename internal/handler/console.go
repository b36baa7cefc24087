package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/transit-admin-console/internal/console"
	"github.com/iliyamo/transit-admin-console/internal/middleware"
	"github.com/iliyamo/transit-admin-console/internal/model"
	"github.com/iliyamo/transit-admin-console/internal/repository"
	"github.com/iliyamo/transit-admin-console/internal/schema"
	"github.com/iliyamo/transit-admin-console/internal/view"
)

// homePath is where a fresh admin session lands.
const homePath = "/admin/company"

// auditPageSize is how many audit rows the audit page shows.
const auditPageSize = 100

// AuditLister reads the audit trail; *repository.AuditRepo implements it.
type AuditLister interface {
	ListRecent(ctx context.Context, limit int) ([]repository.AuditEntry, error)
}

// ConsoleHandler serves the entity tabs, forms and actions.
type ConsoleHandler struct {
	Console  *console.Console
	AuditLog AuditLister
	Timeout  time.Duration
}

func NewConsoleHandler(c *console.Console, audit AuditLister, timeout time.Duration) *ConsoleHandler {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ConsoleHandler{Console: c, AuditLog: audit, Timeout: timeout}
}

// messages shown after a successful redirect, keyed by the done parameter.
var doneNotices = map[string]string{
	"created":   "Created.",
	"updated":   "Saved.",
	"deleted":   "Deleted.",
	"completed": "Booking marked as completed.",
}

func (h *ConsoleHandler) ctx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), h.Timeout)
}

func (h *ConsoleHandler) page(c echo.Context, title string, kind model.Kind) view.Page {
	return view.Page{
		Title:   title,
		Session: middleware.SessionFrom(c),
		CSRF:    csrfToken(c),
		Active:  kind,
	}
}

func kindParam(c echo.Context) (model.Kind, error) {
	kind, ok := model.ParseKind(c.Param("kind"))
	if !ok {
		return kind, echo.NewHTTPError(http.StatusNotFound, "Unknown entity kind.")
	}
	return kind, nil
}

func listPath(kind model.Kind) string { return "/admin/" + string(kind) }

// fail renders the error page for a console error.
func (h *ConsoleHandler) fail(c echo.Context, err error, kind model.Kind) error {
	page := h.page(c, titleFor(err), kind)
	page.Notice = console.Notice(err)
	page.NoticeKind = view.NoticeError
	return c.Render(statusFor(err), "error", view.ErrorPage{
		Page:    page,
		Status:  statusFor(err),
		Message: "The console is still usable; go back and try again.",
		Back:    listPath(kind),
	})
}

// Home sends operators to the first tab.
func (h *ConsoleHandler) Home(c echo.Context) error {
	return c.Redirect(http.StatusSeeOther, homePath)
}

// List renders the full collection of one kind.
func (h *ConsoleHandler) List(c echo.Context) error {
	kind, err := kindParam(c)
	if err != nil {
		return err
	}
	notice, noticeKind := "", ""
	if msg, ok := doneNotices[c.QueryParam("done")]; ok {
		notice, noticeKind = msg, view.NoticeInfo
	}
	return h.renderList(c, kind, http.StatusOK, notice, noticeKind)
}

func (h *ConsoleHandler) renderList(c echo.Context, kind model.Kind, status int, notice, noticeKind string) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	entities, err := h.Console.List(ctx, middleware.SessionFrom(c), kind)
	if err != nil {
		return h.fail(c, err, kind)
	}
	table := schema.BuildTable(kind, entities)
	page := h.page(c, table.Title, kind)
	page.Notice, page.NoticeKind = notice, noticeKind
	return c.Render(status, "list", view.ListPage{Page: page, Table: table})
}

// NewForm renders an empty create form.
func (h *ConsoleHandler) NewForm(c echo.Context) error {
	return h.renderForm(c, c.Param("kind"), "", nil, nil)
}

// EditForm renders the edit form of one entity.
func (h *ConsoleHandler) EditForm(c echo.Context) error {
	return h.renderForm(c, c.Param("kind"), c.Param("id"), nil, nil)
}

// renderForm builds the form and, after a failed submit, refills it from
// values and shows cause as the notice.
func (h *ConsoleHandler) renderForm(c echo.Context, rawKind, id string, values url.Values, cause error) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	kind := model.Kind(rawKind)
	form, err := h.Console.RenderForm(ctx, middleware.SessionFrom(c), rawKind, id)
	if err != nil {
		return h.fail(c, err, kind)
	}
	if values != nil {
		form = form.WithValues(values)
	}
	action := listPath(form.Kind)
	if id != "" {
		action += "/" + url.PathEscape(id)
	}
	page := h.page(c, form.Title, form.Kind)
	status := http.StatusOK
	if form.Unsupported {
		status = http.StatusNotFound
	}
	if cause != nil {
		page.Notice, page.NoticeKind = console.Notice(cause), view.NoticeError
		status = statusFor(cause)
	}
	return c.Render(status, "form", view.FormPage{Page: page, Form: form, Action: action})
}

// Create handles a submitted create form.
func (h *ConsoleHandler) Create(c echo.Context) error {
	return h.submit(c, "")
}

// Update handles a submitted edit form.
func (h *ConsoleHandler) Update(c echo.Context) error {
	return h.submit(c, c.Param("id"))
}

func (h *ConsoleHandler) submit(c echo.Context, id string) error {
	kind, err := kindParam(c)
	if err != nil {
		return err
	}
	values, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Unreadable form.")
	}
	values.Del("_csrf")

	ctx, cancel := h.ctx(c)
	defer cancel()

	sess := middleware.SessionFrom(c)
	payload, err := h.Console.CollectPayload(kind, values, id != "")
	if err == nil {
		err = h.Console.Submit(ctx, sess, kind, payload, id)
	}
	if err == nil {
		done := "created"
		if id != "" {
			done = "updated"
		}
		return c.Redirect(http.StatusSeeOther, listPath(kind)+"?done="+done)
	}
	if console.Classify(err) == console.FailureAccessDenied || errors.Is(err, console.ErrCreateDisallowed) {
		return h.fail(c, err, kind)
	}
	return h.renderForm(c, string(kind), id, values, err)
}

// ConfirmDelete shows the confirmation step before a delete.
func (h *ConsoleHandler) ConfirmDelete(c echo.Context) error {
	kind, err := kindParam(c)
	if err != nil {
		return err
	}
	id := c.Param("id")

	ctx, cancel := h.ctx(c)
	defer cancel()

	summary := ""
	e, err := h.Console.Get(ctx, middleware.SessionFrom(c), kind, id)
	switch {
	case err == nil:
		if rows := schema.BuildTable(kind, []model.Entity{e}).Rows; len(rows) == 1 && len(rows[0].Cells) > 0 {
			summary = rows[0].Cells[0]
		}
	case console.Classify(err) == console.FailureAccessDenied:
		return h.fail(c, err, kind)
	}
	page := h.page(c, "Delete "+string(kind), kind)
	return c.Render(http.StatusOK, "confirm_delete", view.ConfirmPage{Page: page, Kind: kind, ID: id, Summary: summary})
}

// Delete performs a confirmed delete.
func (h *ConsoleHandler) Delete(c echo.Context) error {
	kind, err := kindParam(c)
	if err != nil {
		return err
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	confirmed := c.FormValue("confirm") == "yes"
	if err := h.Console.Delete(ctx, middleware.SessionFrom(c), kind, c.Param("id"), confirmed); err != nil {
		return h.afterActionFailure(c, kind, err)
	}
	return c.Redirect(http.StatusSeeOther, listPath(kind)+"?done=deleted")
}

// Complete marks a booking completed.
func (h *ConsoleHandler) Complete(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.Console.CompleteBooking(ctx, middleware.SessionFrom(c), c.Param("id")); err != nil {
		return h.afterActionFailure(c, model.KindBooking, err)
	}
	return c.Redirect(http.StatusSeeOther, listPath(model.KindBooking)+"?done=completed")
}

// afterActionFailure shows the list again with the notice when the server
// answered, and only the notice otherwise.
func (h *ConsoleHandler) afterActionFailure(c echo.Context, kind model.Kind, err error) error {
	if console.Classify(err).Refetch() {
		return h.renderList(c, kind, statusFor(err), console.Notice(err), view.NoticeError)
	}
	return h.fail(c, err, kind)
}

// Audit lists the most recent console mutations.
func (h *ConsoleHandler) Audit(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	page := h.page(c, "Audit trail", "")
	entries, err := h.AuditLog.ListRecent(ctx, auditPageSize)
	switch {
	case errors.Is(err, repository.ErrAuditDisabled):
		return c.Render(http.StatusOK, "audit", view.AuditPage{Page: page, Disabled: true})
	case err != nil:
		c.Logger().Errorf("audit list failed: %v", err)
		page.Notice, page.NoticeKind = "The audit trail could not be read.", view.NoticeError
		return c.Render(http.StatusServiceUnavailable, "audit", view.AuditPage{Page: page})
	}
	return c.Render(http.StatusOK, "audit", view.AuditPage{Page: page, Entries: entries})
}
