// Package apiclient talks to a running salescast server over its JSON API.
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
)

const (
	requestTimeout = 10 * time.Second
	maxBodySize    = 1 << 20 // 1 MB
)

var (
	// ErrUnauthorized indicates bad credentials or a missing or expired token.
	ErrUnauthorized = errors.New("apiclient: unauthorized")
	// ErrNotLoggedIn is returned by authenticated calls made before Login.
	ErrNotLoggedIn = errors.New("apiclient: not logged in")
)

// APIError is a non-2xx response carrying the server's error message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("apiclient: unexpected status %d", e.Status)
	}
	return fmt.Sprintf("apiclient: %s (HTTP %d)", e.Message, e.Status)
}

// Client calls the salescast JSON API.
type Client struct {
	baseURL string
	token   string
	user    string
	http    *http.Client
}

// NewClient creates a client for the server at baseURL. A bare host:port
// is treated as http. Returns nil if baseURL is empty.
func NewClient(baseURL string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil
	}
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	return &Client{baseURL: baseURL, http: &http.Client{}}
}

// WithToken sets a previously issued bearer token.
func (c *Client) WithToken(token string) *Client {
	c.token = token
	return c
}

// Token returns the bearer token from the last successful Login.
func (c *Client) Token() string { return c.token }

// User returns the username the server confirmed at Login.
func (c *Client) User() string { return c.user }

// Health reports whether /healthz answers 200.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/healthz", nil, false)
	return err
}

// Login exchanges credentials for a bearer token used by later calls.
func (c *Client) Login(ctx context.Context, username, password string) error {
	body, err := c.do(ctx, http.MethodPost, "/v1/login", credentials{Username: username, Password: password}, false)
	if err != nil {
		return err
	}
	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return fmt.Errorf("apiclient: parsing login: %w", err)
	}
	if tr.Token == "" {
		return errors.New("apiclient: login returned no token")
	}
	c.token = tr.Token
	c.user = tr.User
	return nil
}

// Status fetches server counters.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var st Status
	if err := c.getJSON(ctx, "/v1/status", &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Records fetches the stored history, oldest first.
func (c *Client) Records(ctx context.Context) ([]Record, error) {
	var recs []Record
	if err := c.getJSON(ctx, "/v1/records", &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// Forecast fetches the forecast over the server's horizon.
func (c *Client) Forecast(ctx context.Context) (*Forecast, error) {
	var f Forecast
	if err := c.getJSON(ctx, "/v1/forecast", &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Submit stores one record and returns it as the server saved it.
func (c *Client) Submit(ctx context.Context, rec Record) (*Record, error) {
	body, err := c.do(ctx, http.MethodPost, "/v1/records", rec, true)
	if err != nil {
		return nil, err
	}
	var saved Record
	if err := json.Unmarshal(body, &saved); err != nil {
		return nil, fmt.Errorf("apiclient: parsing record: %w", err)
	}
	return &saved, nil
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	body, err := c.do(ctx, http.MethodGet, path, nil, true)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("apiclient: parsing %s: %w", path, err)
	}
	return nil
}

// do performs a request and returns the response body of a 2xx reply.
func (c *Client) do(ctx context.Context, method, path string, in any, authed bool) ([]byte, error) {
	if authed && c.token == "" {
		return nil, ErrNotLoggedIn
	}
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var rd io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("apiclient: encoding request: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, fmt.Errorf("apiclient: creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "salescast-cli/1.0")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	//nolint:gosec // URL is built from the configured server address
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("apiclient: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("apiclient: reading response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var er errorResponse
		_ = json.Unmarshal(body, &er)
		return nil, &APIError{Status: resp.StatusCode, Message: er.Error}
	}
	return body, nil
}
