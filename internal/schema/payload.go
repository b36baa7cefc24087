package schema

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/iliyamo/transit-admin-console/internal/model"
)

// Payload is the JSON body sent on create and update.
type Payload map[string]any

// ValidationError reports a form value that could not be turned into
// payload.  Field is empty when the kind itself is unknown.
type ValidationError struct {
	Kind   model.Kind
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid %s form: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("invalid %s form: %s %s", e.Kind, e.Field, e.Reason)
}

// CollectPayload reads the submitted values for kind and applies each
// field's coercion.  Empty optional fields are left out of the payload, and
// so are empty OptionalOnEdit fields when editing.  A field whose key is
// absent from values altogether is treated like a missing form control: it
// fails only when the field is required.
func CollectPayload(kind model.Kind, values url.Values, editing bool, loc *time.Location) (Payload, error) {
	s, ok := For(kind)
	if !ok {
		return nil, &ValidationError{Kind: kind, Reason: "unsupported entity kind"}
	}
	out := Payload{}
	for _, f := range s.Fields {
		if !values.Has(f.Name) {
			if f.RequiredFor(editing) {
				return nil, &ValidationError{Kind: kind, Field: f.Name, Reason: "is missing from the form"}
			}
			continue
		}
		raw := values.Get(f.Name)
		if strings.TrimSpace(raw) == "" {
			if f.RequiredFor(editing) {
				return nil, &ValidationError{Kind: kind, Field: f.Name, Reason: "is required"}
			}
			continue
		}
		coerce := f.Coerce
		if coerce == nil {
			coerce = Text
		}
		v, err := coerce(raw, loc)
		if err != nil {
			return nil, &ValidationError{Kind: kind, Field: f.Name, Reason: err.Error()}
		}
		if len(f.Options) > 0 && !hasOption(f.Options, fmt.Sprint(v)) {
			return nil, &ValidationError{Kind: kind, Field: f.Name, Reason: "is not one of the allowed values"}
		}
		out[f.Name] = v
	}
	return out, nil
}

func hasOption(opts []Option, v string) bool {
	for _, o := range opts {
		if o.Value == v {
			return true
		}
	}
	return false
}
