// Package apitest runs an in-memory imitation of the booking REST API for
// tests.  It stores documents per resource, hands out string ids (bookings
// under "_id"), checks the admin identity headers on privileged calls and
// records every request it sees.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
)

// Request is one call seen by the fake.
type Request struct {
	Method string
	Path   string
	UserID string
	Role   string
	Body   map[string]any
}

type canned struct {
	status      int
	contentType string
	body        string
}

// Server is the fake backend.  Use URL as the API root.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	docs     map[string][]map[string]any
	nextID   int
	requests []Request
	failures []canned
}

// NewServer starts a fake with no data.
func NewServer() *Server {
	s := &Server{docs: map[string][]map[string]any{}}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// Seed stores doc under resource and returns its id.
func (s *Server) Seed(resource string, doc map[string]any) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(resource, doc)
}

// FailNext makes the next request answer with the given response.
func (s *Server) FailNext(status int, contentType, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, canned{status: status, contentType: contentType, body: body})
}

// Requests returns a copy of the recorded requests.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// RequestCount is the number of requests served so far.
func (s *Server) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// Docs returns the stored documents of resource.
func (s *Server) Docs(resource string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, 0, len(s.docs[resource]))
	for _, d := range s.docs[resource] {
		out = append(out, clone(d))
	}
	return out
}

func idField(resource string) string {
	if resource == "bookings" {
		return "_id"
	}
	return "id"
}

func (s *Server) insert(resource string, doc map[string]any) string {
	s.nextID++
	id := resource[:1] + strconv.Itoa(s.nextID)
	d := clone(doc)
	d[idField(resource)] = id
	if resource == "users" {
		if _, ok := d["role"]; !ok {
			d["role"] = "customer"
		}
	}
	s.docs[resource] = append(s.docs[resource], d)
	return id
}

func (s *Server) find(resource, id string) (int, bool) {
	key := idField(resource)
	for i, d := range s.docs[resource] {
		if d[key] == id {
			return i, true
		}
	}
	return -1, false
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var body map[string]any
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	s.requests = append(s.requests, Request{
		Method: r.Method,
		Path:   r.URL.Path,
		UserID: r.Header.Get("X-User-ID"),
		Role:   r.Header.Get("X-User-Role"),
		Body:   body,
	})

	if len(s.failures) > 0 {
		f := s.failures[0]
		s.failures = s.failures[1:]
		if f.contentType != "" {
			w.Header().Set("Content-Type", f.contentType)
		}
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(f.body))
		return
	}

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api"), "/")
	parts := strings.Split(path, "/")
	if path == "" || len(parts) > 3 {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Not Found"})
		return
	}
	resource := parts[0]
	isAdmin := r.Header.Get("X-User-Role") == "admin" && r.Header.Get("X-User-ID") != ""

	switch {
	case resource == "users" && len(parts) == 2 && parts[1] == "login" && r.Method == http.MethodPost:
		s.login(w, body)
	case resource == "users" && len(parts) == 2 && parts[1] == "register_admin" && r.Method == http.MethodPost:
		if !isAdmin {
			writeJSON(w, http.StatusForbidden, map[string]any{"detail": "Admin access required"})
			return
		}
		s.create(w, resource, body)
	case len(parts) == 1 && r.Method == http.MethodGet:
		if (resource == "users" || resource == "bookings") && !isAdmin {
			writeJSON(w, http.StatusForbidden, map[string]any{"detail": "Admin access required"})
			return
		}
		list := make([]map[string]any, 0, len(s.docs[resource]))
		for _, d := range s.docs[resource] {
			list = append(list, publicView(resource, d))
		}
		writeJSON(w, http.StatusOK, list)
	case len(parts) == 1 && r.Method == http.MethodPost:
		if !isAdmin {
			writeJSON(w, http.StatusForbidden, map[string]any{"detail": "Admin access required"})
			return
		}
		if resource == "companies" {
			if name, _ := body["name"].(string); name == "" {
				writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
					"detail": []map[string]any{{"loc": []string{"body", "name"}, "msg": "field required"}},
				})
				return
			}
		}
		s.create(w, resource, body)
	case len(parts) == 2 && r.Method == http.MethodGet:
		i, ok := s.find(resource, parts[1])
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Not found"})
			return
		}
		writeJSON(w, http.StatusOK, publicView(resource, s.docs[resource][i]))
	case len(parts) == 2 && (r.Method == http.MethodPut || r.Method == http.MethodDelete):
		if !isAdmin {
			writeJSON(w, http.StatusForbidden, map[string]any{"detail": "Admin access required"})
			return
		}
		i, ok := s.find(resource, parts[1])
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Not found"})
			return
		}
		if r.Method == http.MethodDelete {
			s.docs[resource] = append(s.docs[resource][:i], s.docs[resource][i+1:]...)
			writeJSON(w, http.StatusOK, map[string]any{"msg": "deleted"})
			return
		}
		for k, v := range body {
			s.docs[resource][i][k] = v
		}
		writeJSON(w, http.StatusOK, publicView(resource, s.docs[resource][i]))
	case resource == "bookings" && len(parts) == 3 && parts[2] == "complete" && r.Method == http.MethodPut:
		if !isAdmin {
			writeJSON(w, http.StatusForbidden, map[string]any{"detail": "Admin access required"})
			return
		}
		i, ok := s.find(resource, parts[1])
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Booking not found"})
			return
		}
		s.docs[resource][i]["status"] = "completed"
		writeJSON(w, http.StatusOK, map[string]any{"msg": "Booking marked as completed"})
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"detail": "Method Not Allowed"})
	}
}

func (s *Server) create(w http.ResponseWriter, resource string, body map[string]any) {
	id := s.insert(resource, body)
	i, _ := s.find(resource, id)
	writeJSON(w, http.StatusOK, publicView(resource, s.docs[resource][i]))
}

func (s *Server) login(w http.ResponseWriter, body map[string]any) {
	email, _ := body["email"].(string)
	password, _ := body["password"].(string)
	for _, u := range s.docs["users"] {
		if u["email"] == email && u["password"] == password {
			writeJSON(w, http.StatusOK, map[string]any{
				"msg":  "Login successful",
				"user": map[string]any{"id": u["id"], "name": u["name"], "email": u["email"], "role": u["role"]},
			})
			return
		}
	}
	writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "Invalid email or password"})
}

func publicView(resource string, d map[string]any) map[string]any {
	out := clone(d)
	if resource == "users" {
		delete(out, "password")
	}
	return out
}

func clone(d map[string]any) map[string]any {
	out := make(map[string]any, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
