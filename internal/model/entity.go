package model

import (
	"fmt"
	"strconv"
)

// Entity is one REST resource as returned by the backend.  ID holds the
// identity under a single name regardless of which JSON field the backend
// used for it (bookings arrive as "_id", everything else as "id").  Fields
// holds the raw decoded document.
type Entity struct {
	ID     string
	Fields map[string]any
}

// NewEntity builds an Entity from a decoded JSON object, reading the
// identity from idField.
func NewEntity(doc map[string]any, idField string) Entity {
	if doc == nil {
		doc = map[string]any{}
	}
	return Entity{ID: scalarString(doc[idField]), Fields: doc}
}

// String returns the field as display text; missing fields are empty.
func (e Entity) String(key string) string {
	return scalarString(e.Fields[key])
}

// Nested returns a field of a nested object such as schedule_info.origin.
func (e Entity) Nested(key, sub string) string {
	m, ok := e.Fields[key].(map[string]any)
	if !ok {
		return ""
	}
	return scalarString(m[sub])
}

// Float returns a numeric field, or 0 when absent or not a number.
func (e Entity) Float(key string) float64 {
	switch t := e.Fields[key].(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case string:
		f, _ := strconv.ParseFloat(t, 64)
		return f
	}
	return 0
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
