package board

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientListTasks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tasks", r.URL.Path)
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
		assert.Equal(t, "new,in_progress", r.URL.Query().Get("status"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))

		json.NewEncoder(w).Encode(map[string]any{
			"success": true, "count": 1, "total": 51, "page": 2, "limit": 50, "totalPages": 2,
			"data": map[string]any{"tasks": []map[string]any{
				{"task_id": 7, "title": "from server", "status": "new"},
			}},
		})
	}))
	defer server.Close()

	c := NewClient(server.URL, "token-123")
	page, err := c.ListTasks(context.Background(), TaskQuery{
		Status: []string{"new", "in_progress"},
		Page:   2,
	})
	require.NoError(t, err)
	assert.Equal(t, 51, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Tasks, 1)
	assert.Equal(t, int64(7), page.Tasks[0].ID)
}

func TestClientUpdateTaskStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/tasks/7/status", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "completed", body["status"])

		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"task": map[string]any{"task_id": 7, "status": "completed"}},
		})
	}))
	defer server.Close()

	c := NewClient(server.URL, "token-123")
	task, err := c.UpdateTaskStatus(context.Background(), 7, "completed")
	require.NoError(t, err)
	assert.Equal(t, "completed", task.Status)
}

func TestClientAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{
			"success": false, "error": "not found or you do not have permission to access it",
		})
	}))
	defer server.Close()

	c := NewClient(server.URL, "token-123")
	_, err := c.UpdateTaskStatus(context.Background(), 99, "completed")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "permission")
}

func TestClientLoginStoresToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/auth/login" {
			json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"data": map[string]any{
					"user":  map[string]any{"user_id": 1, "email": "alice@example.com"},
					"token": "issued-token",
				},
			})
			return
		}
		assert.Equal(t, "Bearer issued-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{"success": true, "data": map[string]any{"notifications": []any{}}})
	}))
	defer server.Close()

	c := NewClient(server.URL, "")
	user, err := c.Login(context.Background(), "alice@example.com", "secret-password")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)

	_, err = c.ListNotifications(context.Background(), 10)
	require.NoError(t, err)
}
