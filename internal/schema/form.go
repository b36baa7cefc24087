package schema

import (
	"net/url"
	"strings"
	"time"

	"github.com/iliyamo/transit-admin-console/internal/model"
)

// formInputLayout is what an HTML datetime-local input expects.
const formInputLayout = "2006-01-02T15:04"

// Form is the view model of a create or edit form.
type Form struct {
	Kind     model.Kind
	Title    string
	EntityID string
	Editing  bool
	// Unsupported is set for kinds the console has no schema for; such a
	// form has no fields and renders as a placeholder.
	Unsupported bool
	Fields      []FormField
}

// FormField is one rendered input.
type FormField struct {
	Name     string
	Label    string
	Input    Input
	Required bool
	Value    string
	Options  []FormOption
}

// FormOption is one choice of a rendered select.
type FormOption struct {
	Value    string
	Label    string
	Selected bool
}

// FormFor builds the form of kind.  When existing is non-nil the form edits
// that entity and is pre-filled from it.  companies feeds selects whose
// options come from SourceCompanies.
func FormFor(kind string, existing *model.Entity, companies []model.Company, loc *time.Location) Form {
	s, ok := Lookup(kind)
	if !ok {
		return Form{Kind: model.Kind(kind), Title: "Unsupported entity", Unsupported: true}
	}
	if loc == nil {
		loc = time.UTC
	}
	form := Form{Kind: s.Kind, Title: "New " + string(s.Kind), Editing: existing != nil}
	if existing != nil {
		form.Title = "Edit " + string(s.Kind)
		form.EntityID = existing.ID
	}
	for _, f := range s.Fields {
		ff := FormField{
			Name:     f.Name,
			Label:    f.Label,
			Input:    f.Input,
			Required: f.RequiredFor(form.Editing),
		}
		if existing != nil && f.Input != InputPassword {
			ff.Value = existing.String(f.Name)
			if f.Input == InputDateTime && ff.Value != "" {
				if t, err := ParseDateTime(ff.Value, time.UTC); err == nil {
					ff.Value = t.In(loc).Format(formInputLayout)
				}
			}
		}
		ff.Options = buildOptions(f, companies, ff.Value)
		form.Fields = append(form.Fields, ff)
	}
	return form
}

// WithValues re-fills the form from submitted values, used when a submit
// fails and the operator gets the form back.  Passwords are never echoed.
func (f Form) WithValues(values url.Values) Form {
	out := f
	out.Fields = make([]FormField, len(f.Fields))
	for i, ff := range f.Fields {
		if ff.Input != InputPassword && values.Has(ff.Name) {
			ff.Value = values.Get(ff.Name)
			opts := make([]FormOption, len(ff.Options))
			for j, o := range ff.Options {
				o.Selected = o.Value == ff.Value
				opts[j] = o
			}
			ff.Options = opts
		}
		out.Fields[i] = ff
	}
	return out
}

func buildOptions(f Field, companies []model.Company, current string) []FormOption {
	var opts []FormOption
	switch {
	case f.OptionsFrom == SourceCompanies:
		for _, c := range companies {
			label := c.Name
			if c.Type != "" {
				label += " (" + strings.ToUpper(c.Type) + ")"
			}
			opts = append(opts, FormOption{Value: c.ID, Label: label, Selected: c.ID == current})
		}
	case len(f.Options) > 0:
		for _, o := range f.Options {
			opts = append(opts, FormOption{Value: o.Value, Label: o.Label, Selected: o.Value == current})
		}
	default:
		return nil
	}
	if current != "" && !anySelected(opts) {
		opts = append(opts, FormOption{Value: current, Label: current + " (unknown)", Selected: true})
	}
	return opts
}

func anySelected(opts []FormOption) bool {
	for _, o := range opts {
		if o.Selected {
			return true
		}
	}
	return false
}
