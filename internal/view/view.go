// Package view renders the console pages from embedded html/template files.
// Handlers pass one of the typed page models below; every value reaches the
// markup through the template engine, which escapes it for its context.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/transit-admin-console/internal/model"
	"github.com/iliyamo/transit-admin-console/internal/repository"
	"github.com/iliyamo/transit-admin-console/internal/schema"
)

//go:embed templates/*.html
var files embed.FS

// Notice levels.
const (
	NoticeInfo  = "info"
	NoticeError = "error"
)

// Page carries what the layout needs on every page.
type Page struct {
	Title      string
	Session    model.Session
	CSRF       string
	Active     model.Kind
	Notice     string
	NoticeKind string
}

// Tab is one entry of the navigation bar.
type Tab struct {
	Kind  model.Kind
	Title string
}

// Tabs lists the navigation entries in display order.
func (Page) Tabs() []Tab {
	var out []Tab
	for _, k := range model.Kinds() {
		if s, ok := schema.For(k); ok {
			out = append(out, Tab{Kind: k, Title: s.Title})
		}
	}
	return out
}

// LoginPage is the login form.
type LoginPage struct {
	Page
	Email string
}

// ListPage is one entity tab.
type ListPage struct {
	Page
	Table schema.Table
}

// FormPage is a create or edit form.
type FormPage struct {
	Page
	Form   schema.Form
	Action string
}

// ConfirmPage asks before deleting.
type ConfirmPage struct {
	Page
	Kind    model.Kind
	ID      string
	Summary string
}

// AuditPage lists recent console mutations.
type AuditPage struct {
	Page
	Entries  []repository.AuditEntry
	Disabled bool
}

// ErrorPage is shown for failures with nothing better to display.
type ErrorPage struct {
	Page
	Status  int
	Message string
	Back    string
}

var funcs = template.FuncMap{
	"when": func(t time.Time) string { return t.UTC().Format("02 Jan 2006 15:04 MST") },
}

// Renderer implements echo.Renderer.  Each page template is parsed together
// with the shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every embedded page.
func NewRenderer() (*Renderer, error) {
	layout, err := fs.ReadFile(files, "templates/layout.html")
	if err != nil {
		return nil, err
	}
	names, err := fs.Glob(files, "templates/*.html")
	if err != nil {
		return nil, err
	}
	r := &Renderer{pages: map[string]*template.Template{}}
	for _, name := range names {
		page := strings.TrimSuffix(path.Base(name), ".html")
		if page == "layout" {
			continue
		}
		body, err := fs.ReadFile(files, name)
		if err != nil {
			return nil, err
		}
		t, err := template.New(page).Funcs(funcs).Parse(string(layout))
		if err != nil {
			return nil, fmt.Errorf("parse layout for %s: %w", page, err)
		}
		if _, err := t.Parse(string(body)); err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		r.pages[page] = t
	}
	return r, nil
}

// MustRenderer is NewRenderer for program start-up.
func MustRenderer() *Renderer {
	r, err := NewRenderer()
	if err != nil {
		panic(err)
	}
	return r
}

// Render executes the page called name with data.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("view: unknown page %q", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}
