package schema

import (
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"
)

// Coercion turns a non-empty raw form value into its payload value.  The
// location is used to interpret wall-clock dates typed by the operator.
type Coercion func(raw string, loc *time.Location) (any, error)

// ISOLayout matches what browsers emit for Date.toISOString, which is the
// format the backend stores schedule dates in.
const ISOLayout = "2006-01-02T15:04:05.000Z"

// inputLayouts are accepted for date fields, most specific first.
var inputLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

var (
	errNotInteger = errors.New("must be a whole number")
	errNotEmail   = errors.New("must be a valid email address")
	errNotDate    = errors.New("must be a date like 2025-01-31T08:30")
)

// Text trims surrounding whitespace.
func Text(raw string, _ *time.Location) (any, error) {
	return strings.TrimSpace(raw), nil
}

// Raw keeps the value untouched (passwords).
func Raw(raw string, _ *time.Location) (any, error) {
	return raw, nil
}

// Email trims and checks the address parses.
func Email(raw string, _ *time.Location) (any, error) {
	v := strings.TrimSpace(raw)
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Address != v {
		return nil, errNotEmail
	}
	return v, nil
}

// IntRange parses a base-10 integer bounded below by min and, when max is
// not negative, above by max.
func IntRange(min, max int) Coercion {
	return func(raw string, _ *time.Location) (any, error) {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, errNotInteger
		}
		if n < min {
			return nil, fmt.Errorf("must be at least %d", min)
		}
		if max >= 0 && n > max {
			return nil, fmt.Errorf("must be at most %d", max)
		}
		return n, nil
	}
}

// DateTime parses the value in loc and normalises it to ISO-8601 UTC.
func DateTime(raw string, loc *time.Location) (any, error) {
	t, err := ParseDateTime(raw, loc)
	if err != nil {
		return nil, err
	}
	return t.UTC().Format(ISOLayout), nil
}

// ParseDateTime accepts every layout a form or the backend may produce.
// Values without a zone are read in loc.
func ParseDateTime(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	v := strings.TrimSpace(raw)
	for _, layout := range inputLayouts {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errNotDate
}
