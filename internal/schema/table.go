package schema

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/transit-admin-console/internal/model"
)

// Table is the view model of a list tab.  Cells are plain text; escaping is
// left to the template engine.
type Table struct {
	Kind        model.Kind
	Title       string
	AllowCreate bool
	Headers     []string
	Rows        []Row
}

// Row is one listed entity.
type Row struct {
	ID    string
	Cells []string
	// Completable marks bookings an admin may still mark as completed.
	Completable bool
}

// Width is the number of columns including the actions column.
func (t Table) Width() int { return len(t.Headers) + 1 }

// BuildTable renders entities of kind as rows, in the order given.
func BuildTable(kind model.Kind, entities []model.Entity) Table {
	s, ok := For(kind)
	if !ok {
		return Table{Kind: kind, Title: "Unsupported entity"}
	}
	t := Table{Kind: kind, Title: s.Title, AllowCreate: s.AllowCreate}
	for _, c := range s.Columns {
		t.Headers = append(t.Headers, c.Header)
	}
	for _, e := range entities {
		row := Row{ID: e.ID}
		for _, c := range s.Columns {
			row.Cells = append(row.Cells, c.Value(e))
		}
		if kind == model.KindBooking {
			status := e.String("status")
			row.Completable = status == "pending" || status == "confirmed"
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func field(key string) func(model.Entity) string {
	return func(e model.Entity) string { return e.String(key) }
}

func nested(key, sub string) func(model.Entity) string {
	return func(e model.Entity) string { return e.Nested(key, sub) }
}

func upper(key string) func(model.Entity) string {
	return func(e model.Entity) string { return strings.ToUpper(e.String(key)) }
}

func route(parent, from, to string) func(model.Entity) string {
	return func(e model.Entity) string {
		var a, b string
		if parent == "" {
			a, b = e.String(from), e.String(to)
		} else {
			a, b = e.Nested(parent, from), e.Nested(parent, to)
		}
		if a == "" && b == "" {
			return ""
		}
		return a + " → " + b
	}
}

func when(key string) func(model.Entity) string {
	return func(e model.Entity) string { return displayTime(e.String(key)) }
}

func nestedWhen(key, sub string) func(model.Entity) string {
	return func(e model.Entity) string { return displayTime(e.Nested(key, sub)) }
}

func rupiah(key string) func(model.Entity) string {
	return func(e model.Entity) string {
		if e.String(key) == "" {
			return ""
		}
		return FormatRupiah(e.Float(key))
	}
}

func stars(key string) func(model.Entity) string {
	return func(e model.Entity) string {
		if e.String(key) == "" {
			return ""
		}
		return Stars(e.Float(key))
	}
}

func rating(key string) func(model.Entity) string {
	return func(e model.Entity) string {
		r := e.Float(key)
		return Stars(r) + " " + strconv.FormatFloat(r, 'f', -1, 64)
	}
}

func passenger(e model.Entity) string {
	name := e.String("passenger_name")
	if n := e.String("passenger_count"); n != "" {
		return name + " (" + n + "x)"
	}
	return name
}

func scheduleCompany(e model.Entity) string {
	if name := e.Nested("company", "name"); name != "" {
		return name
	}
	return e.String("company_id")
}

// Stars renders a 0..5 rating as filled and empty stars.
func Stars(r float64) string {
	n := int(math.Round(r))
	if n < 0 {
		n = 0
	}
	if n > 5 {
		n = 5
	}
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}

// FormatRupiah formats an amount the way the booking site shows prices,
// with dots as thousands separators: 150000 -> "Rp 150.000".
func FormatRupiah(v float64) string {
	n := int64(math.Round(v))
	neg := n < 0
	if neg {
		n = -n
	}
	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	if neg {
		return "Rp -" + b.String()
	}
	return "Rp " + b.String()
}

func displayTime(raw string) string {
	if raw == "" {
		return ""
	}
	t, err := ParseDateTime(raw, time.UTC)
	if err != nil {
		return raw
	}
	return t.Format("02 Jan 2006 15:04")
}
