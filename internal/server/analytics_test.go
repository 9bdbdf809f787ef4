package server

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyticsStatus(t *testing.T) {
	srv := newTestServer(t)
	token, _ := registerUser(t, srv, "alice@example.com")

	createTask(t, srv, token, map[string]any{"title": "a"})
	createTask(t, srv, token, map[string]any{"title": "b"})

	rec := doJSON(t, srv, http.MethodGet, "/api/analytics/status", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decodeBody(t, rec)["data"].(map[string]any)["summary"].([]any)
	require.Len(t, summary, 1)
	row := summary[0].(map[string]any)
	assert.Equal(t, "new", row["status"])
	assert.Equal(t, float64(2), row["count"])
}

func TestAnalyticsCompletion(t *testing.T) {
	srv := newTestServer(t)
	token, _ := registerUser(t, srv, "alice@example.com")

	taskID := createTask(t, srv, token, map[string]any{"title": "done"})
	rec := doJSON(t, srv, http.MethodPatch, fmt.Sprintf("/api/tasks/%d/status", taskID),
		token, map[string]any{"status": "completed"})
	require.Equal(t, http.StatusOK, rec.Code)
	createTask(t, srv, token, map[string]any{"title": "open"})

	rec = doJSON(t, srv, http.MethodGet, "/api/analytics/completion?period=month", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "month", body["period"])
	summary := body["data"].(map[string]any)["summary"].([]any)
	require.Len(t, summary, 1)
	bucket := summary[0].(map[string]any)
	assert.Equal(t, float64(2), bucket["total_tasks"])
	assert.Equal(t, float64(1), bucket["completed_tasks"])
	assert.Equal(t, float64(50), bucket["completion_rate"])

	rec = doJSON(t, srv, http.MethodGet, "/api/analytics/completion?period=decade", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "period must be one of")
}

func TestAnalyticsSummary(t *testing.T) {
	srv := newTestServer(t)
	token, _ := registerUser(t, srv, "alice@example.com")
	createTask(t, srv, token, map[string]any{"title": "a", "priority": "high"})

	rec := doJSON(t, srv, http.MethodGet, "/api/analytics/summary", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, float64(1), data["total_tasks"])
	assert.Equal(t, float64(0), data["completed_tasks"])
	assert.NotNil(t, data["status_breakdown"])
	assert.NotNil(t, data["priority_breakdown"])
}

func TestAnalyticsBadDateRange(t *testing.T) {
	srv := newTestServer(t)
	token, _ := registerUser(t, srv, "alice@example.com")

	rec := doJSON(t, srv, http.MethodGet, "/api/analytics/status?start_date=yesterdayish", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListUsers(t *testing.T) {
	srv := newTestServer(t)
	token, _ := registerUser(t, srv, "alice@example.com")
	registerUser(t, srv, "bob@example.com")

	rec := doJSON(t, srv, http.MethodGet, "/api/users?search=bob", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(1), body["total"])
	users := body["data"].(map[string]any)["users"].([]any)
	require.Len(t, users, 1)
	assert.Equal(t, "bob@example.com", users[0].(map[string]any)["email"])
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
