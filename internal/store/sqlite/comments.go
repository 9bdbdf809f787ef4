package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"taskhub/internal/models"
)

const commentColumns = `c.comment_id, c.task_id, c.user_id, c.content, c.created_at, c.updated_at,
    u.email, u.first_name, u.last_name`

// ListComments returns the comments on a task with author details,
// oldest first. Visibility of the parent task is the caller's concern.
func (s *Store) ListComments(ctx context.Context, taskID int64) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.SelectContext(ctx, &comments,
		`SELECT `+commentColumns+`
         FROM comments c JOIN users u ON c.user_id = u.user_id
         WHERE c.task_id = ? ORDER BY c.created_at ASC`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// CreateComment inserts a comment and returns it with author details.
func (s *Store) CreateComment(ctx context.Context, taskID, userID int64, content string) (models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Comment{}, fmt.Errorf("comment content must not be empty")
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO comments(task_id, user_id, content) VALUES(?, ?, ?)",
		taskID, userID, content)
	if err != nil {
		return models.Comment{}, fmt.Errorf("insert comment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Comment{}, fmt.Errorf("comment id: %w", err)
	}
	return s.getComment(ctx, id)
}

// UpdateComment replaces a comment's content. Only the author may edit;
// anyone else gets ErrNotFound.
func (s *Store) UpdateComment(ctx context.Context, commentID, userID int64, content string) (models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Comment{}, fmt.Errorf("comment content must not be empty")
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE comments SET content = ? WHERE comment_id = ? AND user_id = ?",
		content, commentID, userID)
	if err != nil {
		return models.Comment{}, fmt.Errorf("update comment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Comment{}, err
	}
	if affected == 0 {
		return models.Comment{}, ErrNotFound
	}
	return s.getComment(ctx, commentID)
}

// DeleteComment removes a comment. Only the author may delete.
func (s *Store) DeleteComment(ctx context.Context, commentID, userID int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM comments WHERE comment_id = ? AND user_id = ?", commentID, userID)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
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

// GetCommentTask returns the task a comment belongs to, for activity
// recording after comment writes.
func (s *Store) GetCommentTask(ctx context.Context, commentID int64) (int64, error) {
	var taskID int64
	err := s.db.GetContext(ctx, &taskID,
		"SELECT task_id FROM comments WHERE comment_id = ?", commentID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get comment task: %w", err)
	}
	return taskID, nil
}

func (s *Store) getComment(ctx context.Context, id int64) (models.Comment, error) {
	var c models.Comment
	err := s.db.GetContext(ctx, &c,
		`SELECT `+commentColumns+`
         FROM comments c JOIN users u ON c.user_id = u.user_id
         WHERE c.comment_id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Comment{}, ErrNotFound
	}
	if err != nil {
		return models.Comment{}, fmt.Errorf("get comment: %w", err)
	}
	return c, nil
}
