package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"taskhub/internal/models"
)

// NotificationFilter controls filtering and pagination for a user's
// notification feed.
type NotificationFilter struct {
	ReadStatus *bool
	Type       string
	Page       int
	Limit      int
}

const notificationColumns = `n.id, n.user_id, n.task_id, n.message, n.type, n.read_status, n.created_at,
    COALESCE(t.title, '') AS task_title, COALESCE(t.status, '') AS task_status`

// CreateNotification inserts a notification for a user.
func (s *Store) CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error) {
	if n.Type == "" {
		n.Type = models.NotificationInfo
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO notifications(user_id, task_id, message, type) VALUES(?, ?, ?, ?)",
		n.UserID, n.TaskID, n.Message, n.Type)
	if err != nil {
		if isForeignKeyErr(err) {
			return models.Notification{}, ErrInvalidReference
		}
		return models.Notification{}, fmt.Errorf("insert notification: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Notification{}, fmt.Errorf("notification id: %w", err)
	}
	return s.getNotification(ctx, id, n.UserID)
}

// ListNotifications returns a page of the user's feed, newest first,
// plus the pre-pagination total and the user's unread count.
func (s *Store) ListNotifications(ctx context.Context, userID int64, f NotificationFilter) ([]models.Notification, int, int, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}

	w := &whereClause{}
	w.eq("n.user_id", userID)
	if f.ReadStatus != nil {
		w.add("n.read_status = ?", boolToInt(*f.ReadStatus))
	}
	if f.Type != "" {
		w.eq("n.type", f.Type)
	}
	where, args := w.SQL()

	from := " FROM notifications n LEFT JOIN tasks t ON n.task_id = t.task_id"

	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*)"+from+where, args...); err != nil {
		return nil, 0, 0, fmt.Errorf("count notifications: %w", err)
	}

	query := "SELECT " + notificationColumns + from + where +
		" ORDER BY n.created_at DESC, n.id DESC LIMIT ? OFFSET ?"
	listArgs := append(append([]any{}, args...), f.Limit, (f.Page-1)*f.Limit)

	var notifications []models.Notification
	if err := s.db.SelectContext(ctx, &notifications, query, listArgs...); err != nil {
		return nil, 0, 0, fmt.Errorf("list notifications: %w", err)
	}

	var unread int
	err := s.db.GetContext(ctx, &unread,
		"SELECT COUNT(*) FROM notifications WHERE user_id = ? AND read_status = 0", userID)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("count unread: %w", err)
	}

	return notifications, total, unread, nil
}

// MarkNotificationRead marks one of the user's notifications as read.
func (s *Store) MarkNotificationRead(ctx context.Context, id, userID int64) (models.Notification, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET read_status = 1 WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return models.Notification{}, fmt.Errorf("mark notification read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Notification{}, err
	}
	if affected == 0 {
		return models.Notification{}, ErrNotFound
	}
	return s.getNotification(ctx, id, userID)
}

// MarkAllNotificationsRead marks every unread notification for the user
// as read and returns how many were touched.
func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID int64) (int, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET read_status = 1 WHERE user_id = ? AND read_status = 0", userID)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// DeleteNotification removes one of the user's notifications.
func (s *Store) DeleteNotification(ctx context.Context, id, userID int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM notifications WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
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

func (s *Store) getNotification(ctx context.Context, id, userID int64) (models.Notification, error) {
	var n models.Notification
	err := s.db.GetContext(ctx, &n,
		"SELECT "+notificationColumns+
			" FROM notifications n LEFT JOIN tasks t ON n.task_id = t.task_id WHERE n.id = ? AND n.user_id = ?",
		id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Notification{}, ErrNotFound
	}
	if err != nil {
		return models.Notification{}, fmt.Errorf("get notification: %w", err)
	}
	return n, nil
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
