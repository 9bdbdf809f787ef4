package sqlite

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"taskhub/internal/models"
)

// newTestStore opens an in-memory store with all migrations applied and
// closes it when the test completes.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := Open(":memory:", logger)
	require.NoError(t, err)

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})
	return s
}

func seedUser(t *testing.T, s *Store, email string) models.User {
	t.Helper()

	u, err := s.CreateUser(context.Background(), models.User{
		Email:        email,
		PasswordHash: "x",
		FirstName:    "Test",
		LastName:     "User",
	})
	require.NoError(t, err)
	return u
}

func seedTask(t *testing.T, s *Store, task models.Task) models.Task {
	t.Helper()

	if task.Title == "" {
		task.Title = fmt.Sprintf("task for user %d", task.CreatedBy)
	}
	created, err := s.CreateTask(context.Background(), task)
	require.NoError(t, err)
	return created
}

func ptrInt64(v int64) *int64 { return &v }
