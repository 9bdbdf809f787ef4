package sqlite

import (
	"context"
	"fmt"

	"taskhub/internal/models"
)

// RecordActivity appends an entry to a task's timeline. Failures are
// returned for the caller to log; timeline writes never block the
// originating operation.
func (s *Store) RecordActivity(ctx context.Context, a models.Activity) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO activities(task_id, user_id, action, description) VALUES(?, ?, ?, ?)",
		a.TaskID, a.UserID, a.Action, a.Description)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// ListTaskActivities returns the timeline for one task, newest first,
// with actor details. Visibility of the task is the caller's concern.
func (s *Store) ListTaskActivities(ctx context.Context, taskID int64) ([]models.Activity, error) {
	var activities []models.Activity
	err := s.db.SelectContext(ctx, &activities,
		`SELECT a.activity_id, a.task_id, a.user_id, a.action, a.description, a.created_at,
                u.email, u.first_name, u.last_name
         FROM activities a JOIN users u ON a.user_id = u.user_id
         WHERE a.task_id = ? ORDER BY a.created_at DESC, a.activity_id DESC`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list task activities: %w", err)
	}
	return activities, nil
}

// ListUserActivities returns the timeline across all tasks visible to
// userID, optionally filtered by action, paginated, plus the total.
func (s *Store) ListUserActivities(ctx context.Context, userID int64, action string, page, limit int) ([]models.Activity, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	w := &whereClause{}
	w.add("(t.created_by = ? OR t.assigned_to = ?)", userID, userID)
	if action != "" {
		w.eq("a.action", action)
	}
	where, args := w.SQL()

	from := " FROM activities a JOIN users u ON a.user_id = u.user_id JOIN tasks t ON a.task_id = t.task_id"

	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*)"+from+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count activities: %w", err)
	}

	query := `SELECT a.activity_id, a.task_id, a.user_id, a.action, a.description, a.created_at,
                u.email, u.first_name, u.last_name, t.title AS task_title` +
		from + where + " ORDER BY a.created_at DESC, a.activity_id DESC LIMIT ? OFFSET ?"
	listArgs := append(append([]any{}, args...), limit, (page-1)*limit)

	var activities []models.Activity
	if err := s.db.SelectContext(ctx, &activities, query, listArgs...); err != nil {
		return nil, 0, fmt.Errorf("list user activities: %w", err)
	}
	return activities, total, nil
}
