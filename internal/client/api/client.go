// Package api is the HTTP client for the PlanHub server's JSON API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrUnavailable is returned when the server cannot be reached at all.
var ErrUnavailable = errors.New("server unavailable")

// Client talks to the PlanHub server over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// New constructs a Client for the given base URL, e.g. "http://localhost:8080".
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// LoginResult mirrors the server's login response. On lockout OK is false and
// RemainingSeconds carries the countdown.
type LoginResult struct {
	OK               bool   `json:"ok"`
	Username         string `json:"username"`
	Message          string `json:"message"`
	RemainingSeconds int    `json:"remaining_seconds"`
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
}

// Login authenticates against the server. Auth failures and lockouts are
// reported in the result, not as an error.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	body := map[string]string{"username": username, "password": password}

	resp, data, err := c.do(ctx, http.MethodPost, "/api/auth/login", "", body)
	if err != nil {
		return nil, err
	}
	switch resp.StatusCode {
	case http.StatusOK, http.StatusUnauthorized, http.StatusLocked:
		out := &LoginResult{}
		if err := json.Unmarshal(data, out); err != nil {
			return nil, fmt.Errorf("decoding login response: %w", err)
		}
		return out, nil
	}
	return nil, apiError(resp, data)
}

// Logout revokes the refresh token server-side.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	body := map[string]string{"refresh_token": refreshToken}
	resp, data, err := c.do(ctx, http.MethodPost, "/api/auth/logout", "", body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusNoContent {
		return apiError(resp, data)
	}
	return nil
}

// LockStatus is the server's countdown answer for a username.
type LockStatus struct {
	Locked           bool   `json:"locked"`
	RemainingSeconds int    `json:"remaining_seconds"`
	Countdown        string `json:"countdown"`
}

// GetLockStatus polls the lockout countdown for a username.
func (c *Client) GetLockStatus(ctx context.Context, username string) (*LockStatus, error) {
	resp, data, err := c.do(ctx, http.MethodGet, "/api/auth/lock/"+url.PathEscape(username), "", nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp, data)
	}
	out := &LockStatus{}
	if err := json.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("decoding lock status: %w", err)
	}
	return out, nil
}

// Plan is the listing DTO returned by the server.
type Plan struct {
	ID         string    `json:"id"`
	Code       string    `json:"code"`
	Title      string    `json:"title"`
	Zone       string    `json:"zone"`
	Discipline string    `json:"discipline"`
	Status     string    `json:"status"`
	Revision   int       `json:"revision"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type planList struct {
	Items []Plan `json:"items"`
	Total int    `json:"total"`
}

// ListPlans fetches the plan listing. The query string is passed through as-is
// (e.g. "status=in_review&q=tuber").
func (c *Client) ListPlans(ctx context.Context, accessToken, query string) ([]Plan, int, error) {
	path := "/api/plans/"
	if query != "" {
		path += "?" + query
	}
	resp, data, err := c.do(ctx, http.MethodGet, path, accessToken, nil)
	if err != nil {
		return nil, 0, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, 0, apiError(resp, data)
	}
	var out planList
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, 0, fmt.Errorf("decoding plan list: %w", err)
	}
	return out.Items, out.Total, nil
}

// Ping checks server reachability via the health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	resp, data, err := c.do(ctx, http.MethodGet, "/health", "", nil)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return apiError(resp, data)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body any) (*http.Response, []byte, error) {
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, nil, err
		}
		buf = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	return resp, data, nil
}

func apiError(resp *http.Response, data []byte) error {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		return fmt.Errorf("server error (%d): %s", resp.StatusCode, body.Error)
	}
	return fmt.Errorf("server error (%d)", resp.StatusCode)
}
