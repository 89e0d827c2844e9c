// Package api is the HTTP client for the task backend. It converts responses
// to domain types but never touches the task cache; callers decide how to
// apply results.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tgienger/taskdeck/internal/logging"
	"github.com/tgienger/taskdeck/internal/models"
	"github.com/tgienger/taskdeck/internal/wire"
)

// DefaultAuthHeader carries the opaque credential on every request
const DefaultAuthHeader = "x-auth-token"

// Credentials supplies the auth token and discards it when the server
// rejects it
type Credentials interface {
	Token(ctx context.Context) (string, error)
	Revoke(ctx context.Context) error
}

// Client talks to the task backend
type Client struct {
	baseURL    string
	authHeader string
	creds      Credentials
	http       *http.Client
	log        *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its transport is not
// instrumented.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithAuthHeader changes the header that carries the token
func WithAuthHeader(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.authHeader = name
		}
	}
}

// WithTimeout bounds every request
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// New creates a client for the backend at baseURL. creds may be nil for
// unauthenticated use.
func New(baseURL string, creds Credentials, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		authHeader: DefaultAuthHeader,
		creds:      creds,
		http:       &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		log:        logging.Logger("api"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend root the client sends requests to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// List returns the tasks visible to the caller
func (c *Client) List(ctx context.Context) ([]models.Task, error) {
	var ws []wire.Task
	if err := c.do(ctx, http.MethodGet, "/api/tasks", nil, &ws); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return wire.ToDomainList(ws), nil
}

// ListCreatedByMe returns the tasks the caller created, including those
// assigned to others
func (c *Client) ListCreatedByMe(ctx context.Context) ([]models.Task, error) {
	var ws []wire.Task
	if err := c.do(ctx, http.MethodGet, "/api/tasks/created-by-me", nil, &ws); err != nil {
		return nil, fmt.Errorf("list created tasks: %w", err)
	}
	return wire.ToDomainList(ws), nil
}

// Get fetches one task
func (c *Client) Get(ctx context.Context, id string) (models.Task, error) {
	var w wire.Task
	if err := c.do(ctx, http.MethodGet, taskPath(id), nil, &w); err != nil {
		return models.Task{}, fmt.Errorf("get task %s: %w", id, err)
	}
	return wire.ToDomain(w), nil
}

// Create stores a new task and returns it as the server saved it
func (c *Client) Create(ctx context.Context, body wire.TaskPatch) (models.Task, error) {
	var w wire.Task
	if err := c.do(ctx, http.MethodPost, "/api/tasks", body, &w); err != nil {
		return models.Task{}, fmt.Errorf("create task: %w", err)
	}
	return wire.ToDomain(w), nil
}

// Update sends a partial update and returns the full updated task
func (c *Client) Update(ctx context.Context, id string, body wire.TaskPatch) (models.Task, error) {
	var w wire.Task
	if err := c.do(ctx, http.MethodPut, taskPath(id), body, &w); err != nil {
		return models.Task{}, fmt.Errorf("update task %s: %w", id, err)
	}
	return wire.ToDomain(w), nil
}

// Delete removes a task
func (c *Client) Delete(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, taskPath(id), nil, nil); err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return nil
}

// AddComment appends a comment and returns the task with its updated comments
func (c *Client) AddComment(ctx context.Context, id, text string) (models.Task, error) {
	var w wire.Task
	body := map[string]string{"comment": text}
	if err := c.do(ctx, http.MethodPost, taskPath(id)+"/comments", body, &w); err != nil {
		return models.Task{}, fmt.Errorf("add comment to %s: %w", id, err)
	}
	return wire.ToDomain(w), nil
}

// DeleteComment removes a comment by its server id and returns the task
func (c *Client) DeleteComment(ctx context.Context, id, commentID string) (models.Task, error) {
	var w wire.Task
	path := taskPath(id) + "/comments/" + url.PathEscape(commentID)
	if err := c.do(ctx, http.MethodDelete, path, nil, &w); err != nil {
		return models.Task{}, fmt.Errorf("delete comment %s on %s: %w", commentID, id, err)
	}
	return wire.ToDomain(w), nil
}

// Categories fetches the server-computed category aggregates. Superseded by
// client-side derivation; kept for backends that still expose it.
func (c *Client) Categories(ctx context.Context) ([]wire.Category, error) {
	var cats []wire.Category
	if err := c.do(ctx, http.MethodGet, "/api/tasks/categories", nil, &cats); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

// Me returns the authenticated account
func (c *Client) Me(ctx context.Context) (models.User, error) {
	var u wire.User
	if err := c.do(ctx, http.MethodGet, "/api/users/me", nil, &u); err != nil {
		return models.User{}, fmt.Errorf("current user: %w", err)
	}
	return wire.UserToDomain(u), nil
}

// SignIn exchanges credentials for a token
func (c *Client) SignIn(ctx context.Context, email, password string) (string, error) {
	var token string
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth", body, &token); err != nil {
		return "", fmt.Errorf("sign in: %w", err)
	}
	return token, nil
}

// SignUp registers an account and returns its token
func (c *Client) SignUp(ctx context.Context, name, email, password string) (string, models.User, error) {
	var resp struct {
		Token string    `json:"token"`
		User  wire.User `json:"user"`
	}
	body := map[string]string{"name": name, "email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/users", body, &resp); err != nil {
		return "", models.User{}, fmt.Errorf("sign up: %w", err)
	}
	return resp.Token, wire.UserToDomain(resp.User), nil
}

func taskPath(id string) string {
	return "/api/tasks/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
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
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.creds != nil {
		token, err := c.creds.Token(ctx)
		if err != nil {
			return fmt.Errorf("read credential: %w", err)
		}
		if token != "" {
			req.Header.Set(c.authHeader, token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("request failed", "method", method, "path", path, "error", err)
		return &UnreachableError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &UnreachableError{Method: method, Path: path, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{Method: method, Path: path, Status: resp.StatusCode, Message: errorMessage(data)}
		c.log.Warn("request rejected", "method", method, "path", path, "status", resp.StatusCode)
		if resp.StatusCode == http.StatusUnauthorized && c.creds != nil {
			if err := c.creds.Revoke(ctx); err != nil {
				c.log.Error("discard credential", "error", err)
			}
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if s, ok := out.(*string); ok && !json.Valid(data) {
		*s = strings.TrimSpace(string(data))
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorMessage extracts a human-readable message from an error body, which
// may be JSON ({"error": ...} or {"message": ...}), a JSON string or plain text.
func errorMessage(data []byte) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ""
	}
	var obj struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		if obj.Error != "" {
			return obj.Error
		}
		return obj.Message
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s
	}
	return string(data)
}
