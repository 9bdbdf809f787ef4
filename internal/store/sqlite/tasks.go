package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"taskhub/internal/models"
)

// ErrInvalidReference is returned when a write names a user that does
// not exist (for example an unknown assignee).
var ErrInvalidReference = errors.New("invalid user reference")

const taskColumns = `task_id, created_by, assigned_to, title, description, status, priority, due_date, created_at, updated_at`

// TaskUpdate describes a partial task update. Nil fields are left
// unchanged; the Clear flags set their column back to NULL, which is
// how a task returns to the unassigned or no-due-date state.
type TaskUpdate struct {
	Title         *string
	Description   *string
	Status        *string
	Priority      *int
	DueDate       *time.Time
	ClearDueDate  bool
	AssignedTo    *int64
	ClearAssignee bool
}

// Empty reports whether the update carries no fields.
func (u TaskUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Status == nil &&
		u.Priority == nil && u.DueDate == nil && !u.ClearDueDate &&
		u.AssignedTo == nil && !u.ClearAssignee
}

// ListTasks returns the tasks visible to userID that match the filter,
// ordered and paginated, plus the total match count before pagination.
func (s *Store) ListTasks(ctx context.Context, userID int64, f TaskFilter) ([]models.Task, int, error) {
	f.Normalize()
	where, args := taskWhere(userID, f).SQL()

	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM tasks"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	query := "SELECT " + taskColumns + " FROM tasks" + where + orderBy(f) + " LIMIT ? OFFSET ?"
	listArgs := append(append([]any{}, args...), f.Limit, (f.Page-1)*f.Limit)

	var tasks []models.Task
	if err := s.db.SelectContext(ctx, &tasks, query, listArgs...); err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, total, nil
}

// GetTask fetches a single task if userID is its creator or assignee.
// Missing and invisible tasks are indistinguishable: both ErrNotFound.
func (s *Store) GetTask(ctx context.Context, taskID, userID int64) (models.Task, error) {
	var t models.Task
	err := s.db.GetContext(ctx, &t,
		"SELECT "+taskColumns+" FROM tasks WHERE task_id = ? AND (created_by = ? OR assigned_to = ?)",
		taskID, userID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, ErrNotFound
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// CreateTask inserts a new task. Assignment defaults to the creator when
// unspecified. Status and priority must already be validated.
func (s *Store) CreateTask(ctx context.Context, t models.Task) (models.Task, error) {
	if strings.TrimSpace(t.Title) == "" {
		return models.Task{}, fmt.Errorf("task title must not be empty")
	}
	if t.Status == "" {
		t.Status = models.StatusNew
	}
	if t.Priority == 0 {
		t.Priority = models.PriorityMedium
	}
	if t.AssignedTo == nil {
		t.AssignedTo = &t.CreatedBy
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks(created_by, assigned_to, title, description, status, priority, due_date)
         VALUES(?, ?, ?, ?, ?, ?, ?)`,
		t.CreatedBy, t.AssignedTo, strings.TrimSpace(t.Title), strings.TrimSpace(t.Description),
		t.Status, t.Priority, t.DueDate)
	if err != nil {
		if isForeignKeyErr(err) {
			return models.Task{}, ErrInvalidReference
		}
		return models.Task{}, fmt.Errorf("insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Task{}, fmt.Errorf("task id: %w", err)
	}
	return s.GetTask(ctx, id, t.CreatedBy)
}

// UpdateTask applies a partial update. Only the creator may perform a
// full update; anyone else gets ErrNotFound.
func (s *Store) UpdateTask(ctx context.Context, taskID, userID int64, u TaskUpdate) (models.Task, error) {
	if u.Empty() {
		return models.Task{}, fmt.Errorf("no fields to update")
	}

	var sets []string
	var args []any
	if u.Title != nil {
		if strings.TrimSpace(*u.Title) == "" {
			return models.Task{}, fmt.Errorf("task title must not be empty")
		}
		sets = append(sets, "title = ?")
		args = append(args, strings.TrimSpace(*u.Title))
	}
	if u.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, strings.TrimSpace(*u.Description))
	}
	if u.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *u.Status)
	}
	if u.Priority != nil {
		sets = append(sets, "priority = ?")
		args = append(args, *u.Priority)
	}
	if u.DueDate != nil {
		sets = append(sets, "due_date = ?")
		args = append(args, *u.DueDate)
	} else if u.ClearDueDate {
		sets = append(sets, "due_date = NULL")
	}
	if u.AssignedTo != nil {
		sets = append(sets, "assigned_to = ?")
		args = append(args, *u.AssignedTo)
	} else if u.ClearAssignee {
		sets = append(sets, "assigned_to = NULL")
	}

	args = append(args, taskID, userID)
	res, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET "+strings.Join(sets, ", ")+" WHERE task_id = ? AND created_by = ?",
		args...)
	if err != nil {
		if isForeignKeyErr(err) {
			return models.Task{}, ErrInvalidReference
		}
		return models.Task{}, fmt.Errorf("update task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Task{}, err
	}
	if affected == 0 {
		return models.Task{}, ErrNotFound
	}
	return s.GetTask(ctx, taskID, userID)
}

// UpdateTaskStatus changes only the status. Both the creator and the
// assignee are allowed to move a task between columns.
func (s *Store) UpdateTaskStatus(ctx context.Context, taskID, userID int64, status string) (models.Task, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET status = ? WHERE task_id = ? AND (created_by = ? OR assigned_to = ?)",
		status, taskID, userID, userID)
	if err != nil {
		return models.Task{}, fmt.Errorf("update task status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Task{}, err
	}
	if affected == 0 {
		return models.Task{}, ErrNotFound
	}
	return s.GetTask(ctx, taskID, userID)
}

// DeleteTask removes a task. Only the creator may delete.
func (s *Store) DeleteTask(ctx context.Context, taskID, userID int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM tasks WHERE task_id = ? AND created_by = ?", taskID, userID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func isForeignKeyErr(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	return false
}
