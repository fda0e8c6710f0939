package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	apphttp "todo-server/internal/http"
)

var (
	// ErrUnauthenticated is returned when a protected call is attempted
	// without a session, or after the server rejected the token. The
	// session is cleared before this is returned; the caller must log in
	// again.
	ErrUnauthenticated = errors.New("not authenticated")
)

// APIError carries a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Client is a thin API client for the todo server. It owns a Session and
// attaches the bearer credential to every protected request.
type Client struct {
	baseURL string
	http    *http.Client
	session *Session
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: baseURL,
		http:    httpClient,
		session: &Session{},
	}
}

// Session exposes the client's auth session for state inspection.
func (c *Client) Session() *Session {
	return c.session
}

// Signup registers a new account and starts an authenticated session.
func (c *Client) Signup(ctx context.Context, email, password, name string) (*apphttp.UserResponse, error) {
	body := map[string]string{"email": email, "password": password, "name": name}
	return c.authenticate(ctx, "/api/v1/auth/signup", body)
}

// Login exchanges credentials for a token and starts an authenticated session.
func (c *Client) Login(ctx context.Context, email, password string) (*apphttp.UserResponse, error) {
	body := map[string]string{"email": email, "password": password}
	return c.authenticate(ctx, "/api/v1/auth/login", body)
}

// Logout drops the session locally. The token itself stays valid until its
// expiry; the server keeps no session state to invalidate.
func (c *Client) Logout() {
	c.session.Clear()
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (*apphttp.UserResponse, error) {
	var resp apphttp.TokenResponse
	if err := c.do(ctx, http.MethodPost, path, body, &resp, false); err != nil {
		return nil, err
	}
	if err := c.session.Start(resp.AccessToken); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}
	return &resp.User, nil
}

// ListTasks fetches the caller's tasks, optionally filtered by completion.
func (c *Client) ListTasks(ctx context.Context, completed *bool) ([]apphttp.TaskResponse, error) {
	path := "/api/v1/tasks"
	if completed != nil {
		path += "?completed=" + strconv.FormatBool(*completed)
	}
	var tasks []apphttp.TaskResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &tasks, true); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateTask creates a task owned by the authenticated user.
func (c *Client) CreateTask(ctx context.Context, title string, description *string) (*apphttp.TaskResponse, error) {
	body := map[string]any{"title": title}
	if description != nil {
		body["description"] = *description
	}
	var task apphttp.TaskResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/tasks", body, &task, true); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask sends a partial update; only keys present in fields are applied.
func (c *Client) UpdateTask(ctx context.Context, id int64, fields map[string]any) (*apphttp.TaskResponse, error) {
	var task apphttp.TaskResponse
	path := fmt.Sprintf("/api/v1/tasks/%d", id)
	if err := c.do(ctx, http.MethodPut, path, fields, &task, true); err != nil {
		return nil, err
	}
	return &task, nil
}

// ToggleTask flips a task's completed flag.
func (c *Client) ToggleTask(ctx context.Context, id int64) (*apphttp.TaskResponse, error) {
	var task apphttp.TaskResponse
	path := fmt.Sprintf("/api/v1/tasks/%d/toggle", id)
	if err := c.do(ctx, http.MethodPatch, path, nil, &task, true); err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/api/v1/tasks/%d", id)
	return c.do(ctx, http.MethodDelete, path, nil, nil, true)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, protected bool) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if protected {
		token := c.session.Token()
		if token == "" {
			return ErrUnauthenticated
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized && protected {
		// Token expired or was rejected; drop the local session so the
		// caller transitions back to the unauthenticated state.
		c.session.Clear()
		return ErrUnauthenticated
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func readErrorMessage(body io.Reader) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err != nil || payload.Error == "" {
		return "unknown error"
	}
	return payload.Error
}
