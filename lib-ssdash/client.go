package ssdash

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/macrat/ssdash/internal/dasherr"
)

// DefaultTimeout is the timeout for a REST request.
const DefaultTimeout = 10 * time.Second

// Client is the client of the checker server.
//
// It is the authoritative pull source of the endpoint data, and the entrance of the push stream.
type Client struct {
	base *url.URL
	http *http.Client

	// Timeout is the timeout for each REST request.
	// The push stream is not affected.
	Timeout time.Duration

	mu    sync.RWMutex
	token string
}

// NewClient creates a Client for the base URL like "http://localhost:3000/".
func NewClient(baseURL string) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, dasherr.New(ErrCommunicate, err, "invalid server URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, dasherr.New(ErrCommunicate, nil, "invalid server URL: unsupported scheme: %q", u.Scheme)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	return &Client{
		base:    u,
		http:    &http.Client{},
		Timeout: DefaultTimeout,
	}, nil
}

// URL returns the base URL of the server.
func (c *Client) URL() string {
	return c.base.String()
}

// SetToken sets the bearer token of the session.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token = token
}

// Token returns the current bearer token, or an empty string.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.token
}

type request struct {
	Method string
	Path   string
	Query  url.Values
	Body   interface{}

	// Auth means the request should carry the bearer token if the client has it.
	Auth bool
}

func (c *Client) newRequest(ctx context.Context, r request) (*http.Request, error) {
	u, err := c.base.Parse(strings.TrimPrefix(r.Path, "/"))
	if err != nil {
		return nil, dasherr.New(ErrCommunicate, err, "invalid path")
	}
	if r.Query != nil {
		u.RawQuery = r.Query.Encode()
	}

	var body io.Reader
	if r.Body != nil {
		raw, err := json.Marshal(r.Body)
		if err != nil {
			return nil, dasherr.New(ErrCommunicate, err, "failed to encode request")
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, u.String(), body)
	if err != nil {
		return nil, dasherr.New(ErrCommunicate, err, "failed to make request")
	}
	if r.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if r.Auth {
		if token := c.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	return req, nil
}

// errorMessage extracts message from the error response like `{"error": "..."}`.
func errorMessage(raw []byte) string {
	var x struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &x); err == nil && x.Error != "" {
		return x.Error
	}
	return strings.TrimSpace(string(raw))
}

func (c *Client) do(ctx context.Context, r request, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	req, err := c.newRequest(ctx, r)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return dasherr.New(ErrCommunicate, err, "failed to %s %s", r.Method, r.Path)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return dasherr.New(ErrCommunicate, err, "failed to read response of %s %s", r.Method, r.Path)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		kind := ErrCommunicate
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			kind = ErrUnauthorized
		case http.StatusNotFound:
			kind = ErrNotFound
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			kind = ErrInvalidEndpoint
		}

		if msg := errorMessage(raw); msg != "" {
			return dasherr.New(kind, nil, "%s %s: %s: %s", r.Method, r.Path, resp.Status, msg)
		}
		return dasherr.New(kind, nil, "%s %s: %s", r.Method, r.Path, resp.Status)
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return dasherr.New(ErrCommunicate, err, "failed to parse response of %s %s", r.Method, r.Path)
	}

	return nil
}

// ListStatuses fetches status of every endpoints.
//
// The request carries the session token only if level is AuthAuthenticated.
// The server replies only public fields for unauthenticated requests.
func (c *Client) ListStatuses(ctx context.Context, level AuthLevel) ([]EndpointStatus, error) {
	var xs []EndpointStatus
	err := c.do(ctx, request{
		Method: http.MethodGet,
		Path:   "/api/servers",
		Auth:   level == AuthAuthenticated,
	}, &xs)
	return xs, err
}

// GetEndpoint fetches an endpoint.
// The server has no API for a single endpoint, so it searches the list.
func (c *Client) GetEndpoint(ctx context.Context, id string) (Endpoint, error) {
	xs, err := c.ListStatuses(ctx, AuthAuthenticated)
	if err != nil {
		return Endpoint{}, err
	}

	for _, x := range xs {
		if x.Endpoint.ID == id {
			return x.Endpoint, nil
		}
	}

	return Endpoint{}, dasherr.New(ErrNotFound, nil, "endpoint not found: %s", id)
}

// CreateEndpoint creates a new endpoint.
func (c *Client) CreateEndpoint(ctx context.Context, in EndpointInput) (Endpoint, error) {
	var e Endpoint
	err := c.do(ctx, request{
		Method: http.MethodPost,
		Path:   "/api/servers",
		Body:   in,
		Auth:   true,
	}, &e)
	return e, err
}

// UpdateEndpoint replaces an endpoint.
func (c *Client) UpdateEndpoint(ctx context.Context, id string, in EndpointInput) (Endpoint, error) {
	var e Endpoint
	err := c.do(ctx, request{
		Method: http.MethodPut,
		Path:   "/api/servers/" + url.PathEscape(id),
		Body:   in,
		Auth:   true,
	}, &e)
	return e, err
}

// DeleteEndpoint deletes an endpoint.
func (c *Client) DeleteEndpoint(ctx context.Context, id string) error {
	return c.do(ctx, request{
		Method: http.MethodDelete,
		Path:   "/api/servers/" + url.PathEscape(id),
		Auth:   true,
	}, nil)
}

// TriggerCheck requests the checker server to check an endpoint right now.
func (c *Client) TriggerCheck(ctx context.Context, id string) (CheckResult, error) {
	var r CheckResult
	err := c.do(ctx, request{
		Method: http.MethodPost,
		Path:   "/api/servers/" + url.PathEscape(id) + "/check",
		Auth:   true,
	}, &r)
	return r, err
}

// History fetches recent check results of an endpoint, newest first.
// If limit is 0 or less, the server decides the length.
func (c *Client) History(ctx context.Context, id string, limit int) ([]CheckResult, error) {
	var q url.Values
	if limit > 0 {
		q = url.Values{"limit": {strconv.Itoa(limit)}}
	}

	var rs []CheckResult
	err := c.do(ctx, request{
		Method: http.MethodGet,
		Path:   "/api/results/" + url.PathEscape(id),
		Query:  q,
		Auth:   true,
	}, &rs)
	return rs, err
}

// Login creates a new session, and stores the token into the client.
func (c *Client) Login(ctx context.Context, username, password string) error {
	var resp struct {
		Token string `json:"token"`
	}
	err := c.do(ctx, request{
		Method: http.MethodPost,
		Path:   "/api/auth/login",
		Body: map[string]string{
			"username": username,
			"password": password,
		},
	}, &resp)
	if err != nil {
		return err
	}
	if resp.Token == "" {
		return dasherr.New(ErrCommunicate, nil, "server replied empty token")
	}

	c.SetToken(resp.Token)

	return nil
}

// Logout discards the session.
// The token in the client is cleared even if the request failed.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, request{
		Method: http.MethodPost,
		Path:   "/api/auth/logout",
		Auth:   true,
	}, nil)

	c.SetToken("")

	return err
}

// AuthStatus asks the server if the current token is valid or not.
func (c *Client) AuthStatus(ctx context.Context) (bool, error) {
	if c.Token() == "" {
		return false, nil
	}

	var resp struct {
		Authenticated bool `json:"authenticated"`
	}
	err := c.do(ctx, request{
		Method: http.MethodGet,
		Path:   "/api/auth/status",
		Auth:   true,
	}, &resp)
	return resp.Authenticated, err
}

// Settings fetches the checker server settings.
func (c *Client) Settings(ctx context.Context) (Settings, error) {
	var s Settings
	err := c.do(ctx, request{
		Method: http.MethodGet,
		Path:   "/api/settings",
		Auth:   true,
	}, &s)
	return s, err
}

// UpdateSettings updates the checker server settings.
func (c *Client) UpdateSettings(ctx context.Context, s Settings) (Settings, error) {
	var resp Settings
	err := c.do(ctx, request{
		Method: http.MethodPut,
		Path:   "/api/settings",
		Body:   s,
		Auth:   true,
	}, &resp)
	return resp, err
}

// OpenEvents connects to the push stream.
//
// lastID is the last event ID of the previous connection, or an empty string.
// It is sent as Last-Event-ID header, and the returned scanner keeps it until the server sends a new ID.
//
// The stream is public, so the request never carries the token.
// Caller must close the returned scanner.
func (c *Client) OpenEvents(ctx context.Context, lastID string) (*EventScanner, error) {
	req, err := c.newRequest(ctx, request{
		Method: http.MethodGet,
		Path:   "/api/events",
	})
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if lastID != "" {
		req.Header.Set("Last-Event-ID", lastID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, dasherr.New(ErrCommunicate, err, "failed to connect to event stream")
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, dasherr.New(ErrCommunicate, nil, "failed to connect to event stream: %s", resp.Status)
	}

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		resp.Body.Close()
		return nil, dasherr.New(ErrCommunicate, nil, "failed to connect to event stream: unexpected content type: %q", ct)
	}

	return ResumeEventScanner(resp.Body, lastID), nil
}

// String returns the base URL.
func (c *Client) String() string {
	return fmt.Sprintf("ssdash.Client(%s)", c.base.Redacted())
}
