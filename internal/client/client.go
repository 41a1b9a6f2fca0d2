// Package client is a typed HTTP client for the Sentinel API. It also
// implements session.Identity so a session.Holder can sign in remotely.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"sentinel/internal/models"
	"sentinel/internal/session"
	"sentinel/internal/status"
)

const DefaultBaseURL = "http://localhost:8000"

// APIError is a non-2xx answer. Message is the server's error text.
type APIError struct {
	StatusCode int
	Message    string
	Details    map[string]string
}

func (e *APIError) Error() string { return e.Message }

type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

var _ session.Identity = (*Client)(nil)

// New returns a client for baseURL (scheme and host, no /api suffix).
func New(baseURL string, httpClient *http.Client) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// SetToken sets the bearer token used for authenticated calls.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) Status(ctx context.Context) (models.SystemStatus, error) {
	var out models.SystemStatus
	err := c.do(ctx, http.MethodGet, "/api/status", "", nil, &out)
	return out, err
}

func (c *Client) SystemMetrics(ctx context.Context) (models.SystemMetricsResponse, error) {
	var out models.SystemMetricsResponse
	err := c.do(ctx, http.MethodGet, "/api/metrics", "", nil, &out)
	return out, err
}

func (c *Client) Register(ctx context.Context, in models.UserCreate) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", "", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges credentials for a token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, username, password string) (session.Credentials, error) {
	var out session.Credentials
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", body, &out); err != nil {
		return session.Credentials{}, err
	}
	if out.AccessToken == "" {
		return session.Credentials{}, errors.New("login response carried no token")
	}
	c.SetToken(out.AccessToken)
	return out, nil
}

func (c *Client) Logout(ctx context.Context, token string) error {
	err := c.do(ctx, http.MethodPost, "/api/auth/logout", token, nil, nil)
	if c.Token() == token {
		c.SetToken("")
	}
	return err
}

func (c *Client) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Services(ctx context.Context) ([]models.Service, error) {
	var out struct {
		Services []models.Service `json:"services"`
	}
	err := c.do(ctx, http.MethodGet, "/api/services", c.Token(), nil, &out)
	return out.Services, err
}

// AddService submits a draft. port is forwarded as typed, so validation
// happens server side.
func (c *Client) AddService(ctx context.Context, name, ip, port, description string) (models.Service, error) {
	var out models.Service
	body := map[string]string{"name": name, "ip": ip, "port": port, "description": description}
	err := c.do(ctx, http.MethodPost, "/api/services", c.Token(), body, &out)
	return out, err
}

func (c *Client) Service(ctx context.Context, id string) (models.Service, bool, error) {
	var out struct {
		Service models.Service `json:"service"`
		Known   bool           `json:"known"`
	}
	err := c.do(ctx, http.MethodGet, "/api/services/"+url.PathEscape(id), c.Token(), nil, &out)
	return out.Service, out.Known, err
}

func (c *Client) Snapshot(ctx context.Context, id string) (models.Snapshot, error) {
	var out models.Snapshot
	err := c.do(ctx, http.MethodGet, "/api/services/"+url.PathEscape(id)+"/snapshot", c.Token(), nil, &out)
	return out, err
}

func (c *Client) View(ctx context.Context, id string) (status.ServiceView, error) {
	var out status.ServiceView
	err := c.do(ctx, http.MethodGet, "/api/services/"+url.PathEscape(id)+"/view", c.Token(), nil, &out)
	return out, err
}

func (c *Client) Overview(ctx context.Context) (models.StatusCounts, error) {
	var out struct {
		Counts models.StatusCounts `json:"counts"`
	}
	err := c.do(ctx, http.MethodGet, "/api/overview", c.Token(), nil, &out)
	return out.Counts, err
}

func (c *Client) Events(ctx context.Context, limit int) ([]models.DirectoryEvent, error) {
	var out struct {
		Events []models.DirectoryEvent `json:"events"`
	}
	path := "/api/events"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	err := c.do(ctx, http.MethodGet, path, c.Token(), nil, &out)
	return out.Events, err
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, payload)
	}
	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeError(code int, payload []byte) error {
	var body struct {
		Error   string          `json:"error"`
		Details json.RawMessage `json:"details"`
	}
	apiErr := &APIError{StatusCode: code}
	if json.Unmarshal(payload, &body) == nil && body.Error != "" {
		apiErr.Message = body.Error
		var details map[string]string
		if json.Unmarshal(body.Details, &details) == nil {
			apiErr.Details = details
		}
	} else {
		apiErr.Message = fmt.Sprintf("%d %s", code, http.StatusText(code))
	}
	return apiErr
}
