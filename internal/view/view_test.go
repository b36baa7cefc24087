package view

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/iliyamo/transit-admin-console/internal/model"
	"github.com/iliyamo/transit-admin-console/internal/repository"
	"github.com/iliyamo/transit-admin-console/internal/schema"
)

var admin = model.Session{ID: "u1", Name: "Root", Role: model.RoleAdmin}

func render(t *testing.T, name string, data any) string {
	t.Helper()
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	var buf bytes.Buffer
	if err := r.Render(&buf, name, data, nil); err != nil {
		t.Fatalf("render %s: %v", name, err)
	}
	return buf.String()
}

func TestEveryPageRenders(t *testing.T) {
	page := Page{Title: "T", Session: admin, CSRF: "tok", Active: model.KindCompany}
	pages := map[string]any{
		"login":          LoginPage{Page: Page{Title: "Login"}},
		"list":           ListPage{Page: page, Table: schema.BuildTable(model.KindCompany, nil)},
		"form":           FormPage{Page: page, Form: schema.FormFor("company", nil, nil, time.UTC), Action: "/admin/company"},
		"confirm_delete": ConfirmPage{Page: page, Kind: model.KindCompany, ID: "c1", Summary: "Acme"},
		"audit":          AuditPage{Page: page, Entries: []repository.AuditEntry{{ActorName: "Root", Action: "created", Kind: "company", CreatedAt: time.Now()}}},
		"error":          ErrorPage{Page: page, Status: 403, Message: "Admin access required."},
	}
	for name, data := range pages {
		out := render(t, name, data)
		if !strings.Contains(out, "<!doctype html>") {
			t.Fatalf("%s: layout missing", name)
		}
	}
}

func TestInterpolatedValuesAreEscaped(t *testing.T) {
	evil := `<script>alert("x")</script>`
	review := model.NewEntity(map[string]any{"id": "r1", "booking_id": "b1", "comment": evil, "rating": float64(4)}, "id")
	out := render(t, "list", ListPage{
		Page:  Page{Title: "Reviews", Session: admin, Notice: evil, NoticeKind: NoticeError},
		Table: schema.BuildTable(model.KindReview, []model.Entity{review}),
	})
	if strings.Contains(out, evil) {
		t.Fatal("raw script tag reached the markup")
	}
	if !strings.Contains(out, "&lt;script&gt;") {
		t.Fatal("escaped comment missing from the markup")
	}
}

func TestEmptyListSpansActionsColumn(t *testing.T) {
	table := schema.BuildTable(model.KindSchedule, nil)
	out := render(t, "list", ListPage{Page: Page{Title: "Schedules", Session: admin}, Table: table})
	want := fmt.Sprintf(`<td colspan="%d">Nothing here yet.</td>`, len(table.Headers)+1)
	if !strings.Contains(out, want) {
		t.Fatalf("empty row should span every column including actions, want %s", want)
	}
}

func TestNavigationOnlyForAdmins(t *testing.T) {
	out := render(t, "login", LoginPage{Page: Page{Title: "Login"}})
	if strings.Contains(out, "/admin/audit") {
		t.Fatal("logged-out page must not show navigation")
	}
	out = render(t, "error", ErrorPage{Page: Page{Title: "x", Session: admin}})
	if !strings.Contains(out, `href="/admin/schedule"`) {
		t.Fatal("admin page must show navigation tabs")
	}
}

func TestUnknownPage(t *testing.T) {
	r, _ := NewRenderer()
	if err := r.Render(&bytes.Buffer{}, "missing", nil, nil); err == nil {
		t.Fatal("unknown page must fail")
	}
}
