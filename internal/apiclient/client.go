// Package apiclient talks to the transport booking REST API.  Every call
// goes through Do, which builds the URL, attaches the operator's identity
// headers and turns failures into RequestFailed or NetworkError.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/iliyamo/transit-admin-console/internal/model"
)

// Identity headers the backend reads to authorize privileged calls.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

// maxBody caps how much of a response is read.
const maxBody = 8 << 20

// Client is safe for concurrent use.
type Client struct {
	root string
	http *http.Client
}

// New returns a client for the API served under root, e.g.
// "http://localhost:8000".  A zero timeout means 10 seconds.
func New(root string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		root: strings.TrimRight(strings.TrimSpace(root), "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// URL builds {root}/api/{resource}/ after stripping slashes around
// resource, so "companies", "/companies/" and "companies/" are equivalent.
func (c *Client) URL(resource string) string {
	res := strings.Trim(strings.TrimSpace(resource), "/")
	if res == "" {
		return c.root + "/api/"
	}
	return c.root + "/api/" + res + "/"
}

// Do performs one call.  When sess is non-nil and logged in its id and role
// are sent as identity headers.  body, if non-nil, is sent as JSON; out, if
// non-nil, receives the decoded JSON response.
func (c *Client) Do(ctx context.Context, method, resource string, sess *model.Session, body, out any) error {
	url := c.URL(resource)

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", method, url, err)
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, url, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sess != nil && sess.LoggedIn() {
		req.Header.Set(HeaderUserID, sess.ID)
		req.Header.Set(HeaderUserRole, sess.Role)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Method: method, URL: url, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return &NetworkError{Method: method, URL: url, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RequestFailed{
			Method:  method,
			URL:     url,
			Status:  resp.StatusCode,
			Message: ExtractMessage(resp.StatusCode, data),
		}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, url, err)
	}
	return nil
}

// ErrNoUser is returned when a login succeeds but carries no usable user.
var ErrNoUser = errors.New("login response did not include a user")

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Msg  string        `json:"msg"`
	User model.Session `json:"user"`
}

// Login exchanges credentials for the user record stored in the session.
func (c *Client) Login(ctx context.Context, email, password string) (model.Session, error) {
	var resp loginResponse
	req := loginRequest{Email: strings.TrimSpace(email), Password: password}
	if err := c.Do(ctx, http.MethodPost, "users/login", nil, req, &resp); err != nil {
		return model.Session{}, err
	}
	if !resp.User.LoggedIn() {
		return model.Session{}, ErrNoUser
	}
	return resp.User, nil
}
