package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"taskhub/internal/models"
)

const userColumns = `user_id, email, password_hash, first_name, last_name, created_at`

// CreateUser inserts a new account. The email must be unique.
func (s *Store) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users(email, password_hash, first_name, last_name) VALUES(?, ?, ?, ?)",
		u.Email, u.PasswordHash, u.FirstName, u.LastName)
	if err != nil {
		if isUniqueErr(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, fmt.Errorf("user id: %w", err)
	}
	return s.GetUser(ctx, id)
}

// GetUser fetches a user by id.
func (s *Store) GetUser(ctx context.Context, id int64) (models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u,
		"SELECT "+userColumns+" FROM users WHERE user_id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetUserByEmail fetches a user by email, for login.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u,
		"SELECT "+userColumns+" FROM users WHERE email = ?",
		strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// ListUsers returns users matching the optional search term, paginated,
// plus the total match count. Search covers email and both name fields.
func (s *Store) ListUsers(ctx context.Context, search string, page, limit int) ([]models.User, int, error) {
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
	w.search(search, "email", "first_name", "last_name")
	where, args := w.SQL()

	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM users"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := "SELECT " + userColumns + " FROM users" + where +
		" ORDER BY created_at DESC LIMIT ? OFFSET ?"
	listArgs := append(append([]any{}, args...), limit, (page-1)*limit)

	var users []models.User
	if err := s.db.SelectContext(ctx, &users, query, listArgs...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

func isUniqueErr(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
