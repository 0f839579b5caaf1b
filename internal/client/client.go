// Package client is a Go client for the TaskFlow HTTP API. Calls that need
// authentication take the bearer token explicitly.
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
	"time"

	"taskflow/internal/domain"

	"github.com/google/uuid"
)

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string            `json:"error"`
	Fields  map[string]string `json:"fields"`
}

func (e *APIError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%d %s %v", e.Status, e.Message, e.Fields)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

// StatusCode returns the HTTP status of err if it is an *APIError, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Task is a task as returned by the API, with its status at response time.
type Task struct {
	domain.Task
	Status domain.Status `json:"status"`
}

type Login struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *domain.User `json:"user"`
}

type NewTask struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

// TaskUpdate carries the fields to change. Set ClearDueDate to remove the
// due date.
type TaskUpdate struct {
	Title        *string
	Description  *string
	DueDate      *time.Time
	ClearDueDate bool
	Completed    *bool
}

func (u TaskUpdate) MarshalJSON() ([]byte, error) {
	m := map[string]any{}
	if u.Title != nil {
		m["title"] = *u.Title
	}
	if u.Description != nil {
		m["description"] = *u.Description
	}
	switch {
	case u.ClearDueDate:
		m["dueDate"] = nil
	case u.DueDate != nil:
		m["dueDate"] = u.DueDate.Format(time.RFC3339Nano)
	}
	if u.Completed != nil {
		m["completed"] = *u.Completed
	}
	return json.Marshal(m)
}

type ProfileUpdate struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}

// Search mirrors the /api/tasks/search query parameters.
type Search struct {
	Keyword   string
	Completed *bool
	From      *time.Time
	To        *time.Time
}

func (s Search) values() url.Values {
	q := url.Values{}
	if s.Keyword != "" {
		q.Set("keyword", s.Keyword)
	}
	if s.Completed != nil {
		q.Set("completed", strconv.FormatBool(*s.Completed))
	}
	if s.From != nil {
		q.Set("fromDate", s.From.Format(time.RFC3339Nano))
	}
	if s.To != nil {
		q.Set("toDate", s.To.Format(time.RFC3339Nano))
	}
	return q
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the server at baseURL. A nil hc uses a client
// with a 10s timeout.
func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		apiErr := &APIError{Status: res.StatusCode}
		if err := json.NewDecoder(res.Body).Decode(apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(res.StatusCode)
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) Register(ctx context.Context, name, email, password string) error {
	body := map[string]string{"name": name, "email": email, "password": password}
	return c.do(ctx, http.MethodPost, "/api/auth/register", "", body, nil)
}

func (c *Client) Login(ctx context.Context, email, password string) (*Login, error) {
	var out Login
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Me(ctx context.Context, token string) (*domain.User, error) {
	var out struct {
		User *domain.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", token, nil, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (c *Client) UpdateMe(ctx context.Context, token string, p ProfileUpdate) (*domain.User, error) {
	var out struct {
		User *domain.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPut, "/api/auth/me", token, p, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (c *Client) Activity(ctx context.Context, token string, limit int) ([]domain.AuditLog, error) {
	path := "/api/auth/activity"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out struct {
		Activity []domain.AuditLog `json:"activity"`
	}
	if err := c.do(ctx, http.MethodGet, path, token, nil, &out); err != nil {
		return nil, err
	}
	return out.Activity, nil
}

func (c *Client) CreateTask(ctx context.Context, token string, t NewTask) (*Task, error) {
	var out struct {
		Task *Task `json:"task"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/tasks", token, t, &out); err != nil {
		return nil, err
	}
	return out.Task, nil
}

// ListTasks returns all tasks, or those in view when it is not empty.
func (c *Client) ListTasks(ctx context.Context, token string, view domain.View) ([]Task, error) {
	path := "/api/tasks"
	if view != "" {
		path += "?view=" + url.QueryEscape(string(view))
	}
	var out []Task
	if err := c.do(ctx, http.MethodGet, path, token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SearchTasks(ctx context.Context, token string, s Search) ([]Task, error) {
	var out []Task
	if err := c.do(ctx, http.MethodGet, "/api/tasks/search?"+s.values().Encode(), token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DueReminders(ctx context.Context, token string) ([]Task, error) {
	var out struct {
		Tasks []Task `json:"tasks"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/tasks/due-reminders", token, nil, &out); err != nil {
		return nil, err
	}
	return out.Tasks, nil
}

func (c *Client) UpdateTask(ctx context.Context, token string, id uuid.UUID, u TaskUpdate) (*Task, error) {
	var out struct {
		Task *Task `json:"task"`
	}
	if err := c.do(ctx, http.MethodPut, "/api/tasks/"+id.String(), token, u, &out); err != nil {
		return nil, err
	}
	return out.Task, nil
}

func (c *Client) DeleteTask(ctx context.Context, token string, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+id.String(), token, nil, nil)
}
