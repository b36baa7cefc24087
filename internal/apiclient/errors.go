package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// maxRawMessage bounds how much of a non-JSON error body is shown.
const maxRawMessage = 300

// RequestFailed is returned for any non-2xx response.  Message is the
// best-effort human-readable reason extracted from the body.
type RequestFailed struct {
	Method  string
	URL     string
	Status  int
	Message string
}

func (e *RequestFailed) Error() string {
	return e.Message
}

// NetworkError is returned when the request never produced a response.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("cannot reach the booking API (%s %s): %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ExtractMessage decodes an error body.  It understands {"detail": "..."},
// {"detail": [{"msg": "..."}, ...]} (joined with "; ") and {"msg": "..."},
// then falls back to the raw text and finally to the status line.
func ExtractMessage(status int, body []byte) string {
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err == nil {
		if msg := detailMessage(doc["detail"]); msg != "" {
			return msg
		}
		for _, key := range []string{"msg", "message", "error"} {
			if s, ok := doc[key].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	if raw := strings.TrimSpace(string(body)); raw != "" {
		if len(raw) > maxRawMessage {
			raw = raw[:maxRawMessage] + "..."
		}
		return raw
	}
	return fmt.Sprintf("%d %s", status, http.StatusText(status))
}

func detailMessage(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		var msgs []string
		for _, item := range t {
			switch it := item.(type) {
			case map[string]any:
				if s, ok := it["msg"].(string); ok && s != "" {
					msgs = append(msgs, s)
				}
			case string:
				if it != "" {
					msgs = append(msgs, it)
				}
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
