package board

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"taskhub/internal/models"
)

// Client is a thin HTTP client for the taskhub REST API. It handles
// Bearer token authentication, JSON marshaling, and translation of
// error envelopes into Go errors.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// APIError is a non-2xx response decoded from the server's error
// envelope.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

// NewClient creates a client for the API rooted at baseURL
// (e.g. http://localhost:8080). The token may be empty until Login.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetToken replaces the bearer token used on subsequent requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

// do builds the request, attaches auth, and handles JSON
// (de)serialization. Non-2xx responses are returned as *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var envelope struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(respBody))
		if json.Unmarshal(respBody, &envelope) == nil && envelope.Error != "" {
			msg = envelope.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("unmarshaling response from %s %s: %w", method, path, err)
	}
	return nil
}

// Login exchanges credentials for a bearer token and stores it on the
// client.
func (c *Client) Login(ctx context.Context, email, password string) (models.User, error) {
	var resp struct {
		Data struct {
			User  models.User `json:"user"`
			Token string      `json:"token"`
		} `json:"data"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &resp); err != nil {
		return models.User{}, err
	}
	c.token = resp.Data.Token
	return resp.Data.User, nil
}

// TaskQuery holds the filter parameters for ListTasks. Zero values are
// omitted from the request.
type TaskQuery struct {
	Status    []string
	Priority  []string
	Search    string
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

func (q TaskQuery) values() url.Values {
	v := url.Values{}
	if len(q.Status) > 0 {
		v.Set("status", strings.Join(q.Status, ","))
	}
	if len(q.Priority) > 0 {
		v.Set("priority", strings.Join(q.Priority, ","))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.SortBy != "" {
		v.Set("sort_by", q.SortBy)
	}
	if q.SortOrder != "" {
		v.Set("sort_order", q.SortOrder)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

// TaskPage is one page of the task list with its pagination counters.
type TaskPage struct {
	Tasks      []models.Task
	Total      int
	Page       int
	TotalPages int
}

// ListTasks fetches the caller's visible tasks with the given filters.
func (c *Client) ListTasks(ctx context.Context, q TaskQuery) (TaskPage, error) {
	path := "/api/tasks"
	if encoded := q.values().Encode(); encoded != "" {
		path += "?" + encoded
	}

	var resp struct {
		Total      int `json:"total"`
		Page       int `json:"page"`
		TotalPages int `json:"totalPages"`
		Data       struct {
			Tasks []models.Task `json:"tasks"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return TaskPage{}, err
	}
	return TaskPage{
		Tasks:      resp.Data.Tasks,
		Total:      resp.Total,
		Page:       resp.Page,
		TotalPages: resp.TotalPages,
	}, nil
}

// UpdateTaskStatus moves a task to a new status and returns the
// server's confirmed copy.
func (c *Client) UpdateTaskStatus(ctx context.Context, taskID int64, status string) (models.Task, error) {
	var resp struct {
		Data struct {
			Task models.Task `json:"task"`
		} `json:"data"`
	}
	path := fmt.Sprintf("/api/tasks/%d/status", taskID)
	body := map[string]string{"status": status}
	if err := c.do(ctx, http.MethodPatch, path, body, &resp); err != nil {
		return models.Task{}, err
	}
	return resp.Data.Task, nil
}

// NotificationPage is one page of the notification feed.
type NotificationPage struct {
	Notifications []models.Notification
	Total         int
	UnreadCount   int
}

// ListNotifications fetches the newest notifications for the caller.
func (c *Client) ListNotifications(ctx context.Context, limit int) (NotificationPage, error) {
	path := "/api/notifications"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var resp struct {
		Total       int `json:"total"`
		UnreadCount int `json:"unread_count"`
		Data        struct {
			Notifications []models.Notification `json:"notifications"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return NotificationPage{}, err
	}
	return NotificationPage{
		Notifications: resp.Data.Notifications,
		Total:         resp.Total,
		UnreadCount:   resp.UnreadCount,
	}, nil
}

// MarkNotificationRead marks one notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/api/notifications/%d/read", id)
	return c.do(ctx, http.MethodPut, path, nil, nil)
}
