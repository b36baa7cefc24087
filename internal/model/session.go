package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// RoleAdmin is the only role allowed into the admin console.
const RoleAdmin = "admin"

// Session is the identity object the backend returns on login.  The console
// keeps it in the "user" cookie between requests.  Only ID, Name and Role
// are needed; Email is kept for display.
//
// A session is considered logged in when its ID is truthy.  The backend
// hands out string identifiers, but older clients stored numbers, so the
// decoder accepts any JSON scalar and normalises it to a string.
type Session struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
}

// LoggedIn reports whether the session carries a truthy id.
func (s Session) LoggedIn() bool {
	return s.ID != ""
}

// IsAdmin reports whether the session is logged in with the admin role.
func (s Session) IsAdmin() bool {
	return s.LoggedIn() && s.Role == RoleAdmin
}

// UnmarshalJSON decodes a session object, turning falsy ids (null, false,
// 0, "") into the empty string.
func (s *Session) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID    json.RawMessage `json:"id"`
		Name  string          `json:"name"`
		Email string          `json:"email"`
		Role  string          `json:"role"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Session{
		ID:    truthyID(raw.ID),
		Name:  raw.Name,
		Email: raw.Email,
		Role:  raw.Role,
	}
	return nil
}

// ParseSession decodes a stored session.  Malformed input yields a
// logged-out session rather than an error.
func ParseSession(data []byte) Session {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Session{}
	}
	return s
}

func truthyID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == 0 {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "true"
		}
	}
	return ""
}
