package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"taskhub/internal/config"
	"taskhub/internal/store/sqlite"
)

// newTestServer builds a server over an in-memory store.
func newTestServer(t *testing.T) *Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := sqlite.Open(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	cfg := &config.Config{
		Addr:      ":0",
		JWTSecret: "test-secret",
		TokenTTL:  time.Hour,
	}
	return New(store, logger, cfg)
}

// doJSON performs a request against the router and returns the recorder.
func doJSON(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	return rec
}

// decodeBody unmarshals a response body into a generic map.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

// registerUser creates an account through the API and returns its token
// and user id.
func registerUser(t *testing.T, srv *Server, email string) (string, int64) {
	t.Helper()

	rec := doJSON(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":      email,
		"password":   "secret-password",
		"first_name": "Test",
		"last_name":  "User",
	})
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())

	body := decodeBody(t, rec)
	data := body["data"].(map[string]any)
	token := data["token"].(string)
	user := data["user"].(map[string]any)
	return token, int64(user["user_id"].(float64))
}

// createTask creates a task through the API and returns its id.
func createTask(t *testing.T, srv *Server, token string, payload map[string]any) int64 {
	t.Helper()

	rec := doJSON(t, srv, http.MethodPost, "/api/tasks", token, payload)
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())
	body := decodeBody(t, rec)
	task := body["data"].(map[string]any)["task"].(map[string]any)
	return int64(task["task_id"].(float64))
}
