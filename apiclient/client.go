// Package apiclient is a Go client for the orderdesk HTTP API. It carries the
// consumer-side conventions the API was designed around: tolerant list
// unwrapping, debounced lookups that drop stale responses, and PDF downloads
// with guaranteed cleanup.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
)

// ErrSessionExpired is returned when the server answers 401. The client
// clears its auth cookie so the caller can re-authenticate cleanly.
var ErrSessionExpired = errors.New("session expired")

const tokenCookieName = "auth-token"

// Client talks to an orderdesk server. The zero value is not usable; call New.
type Client struct {
	baseURL    string
	httpClient *http.Client
	jar        *cookiejar.Jar
}

// New builds a client for the given base URL. The client keeps its session
// cookie in an in-memory jar.
func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Jar: jar},
		jar:        jar,
	}, nil
}

// Login authenticates and stores the session cookie for subsequent calls.
func (c *Client) Login(ctx context.Context, email, password string) error {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, http.MethodPost, "/auth/login", bytes.NewReader(body), "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login failed with status %d", resp.StatusCode)
	}
	return nil
}

// Logout ends the session server-side and drops the local cookie.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodPost, "/auth/logout", nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	c.clearToken()
	return nil
}

// GetJSON fetches path and decodes the response into dest. A 401 clears the
// session cookie and returns ErrSessionExpired.
func (c *Client) GetJSON(ctx context.Context, path string, dest interface{}) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return err
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

// GetList fetches path and unwraps whatever list shape the endpoint returns.
func GetList[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	resp, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return nil, err
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return UnwrapList[T](raw), nil
}

// PostJSON sends body as JSON and decodes the response into dest when dest is
// non-nil.
func (c *Client) PostJSON(ctx context.Context, path string, body, dest interface{}) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, http.MethodPost, path, bytes.NewReader(raw), "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return err
	}
	if dest == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return c.httpClient.Do(req)
}

func (c *Client) checkStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusUnauthorized {
		c.clearToken()
		return ErrSessionExpired
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}
	return nil
}

// clearToken expires the auth cookie in the jar.
func (c *Client) clearToken() {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return
	}
	c.jar.SetCookies(u, []*http.Cookie{{
		Name:   tokenCookieName,
		Value:  "",
		MaxAge: -1,
	}})
}
