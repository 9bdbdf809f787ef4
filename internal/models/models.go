package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// User is a registered account that can create and be assigned tasks.
// PasswordHash never leaves the store layer; it is excluded from JSON.
type User struct {
	ID           int64     `json:"user_id" db:"user_id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Task is the central entity of the board. A task always has exactly one
// creator; assignment may be empty (unassigned) or any existing user.
type Task struct {
	ID          int64      `json:"task_id" db:"task_id"`
	CreatedBy   int64      `json:"created_by" db:"created_by"`
	AssignedTo  *int64     `json:"assigned_to" db:"assigned_to"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	Status      string     `json:"status" db:"status"`
	Priority    int        `json:"priority" db:"priority"`
	DueDate     *time.Time `json:"due_date" db:"due_date"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// Comment is a user remark attached to a task. Only the author may edit
// or delete it.
type Comment struct {
	ID        int64     `json:"comment_id" db:"comment_id"`
	TaskID    int64     `json:"task_id" db:"task_id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Author fields populated by queries that join with users.
	Email     string `json:"email,omitempty" db:"email"`
	FirstName string `json:"first_name,omitempty" db:"first_name"`
	LastName  string `json:"last_name,omitempty" db:"last_name"`
}

// Activity records a change made to a task, for the task timeline.
type Activity struct {
	ID          int64     `json:"activity_id" db:"activity_id"`
	TaskID      int64     `json:"task_id" db:"task_id"`
	UserID      int64     `json:"user_id" db:"user_id"`
	Action      string    `json:"action" db:"action"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	Email     string `json:"email,omitempty" db:"email"`
	FirstName string `json:"first_name,omitempty" db:"first_name"`
	LastName  string `json:"last_name,omitempty" db:"last_name"`
	TaskTitle string `json:"task_title,omitempty" db:"task_title"`
}

// Actions recorded on the task timeline.
const (
	ActionCreated       = "created"
	ActionUpdated       = "updated"
	ActionStatusChanged = "status_changed"
	ActionCommented     = "commented"
)

// Notification is delivered to a single user and optionally points at a
// task. Read state is tracked per notification.
type Notification struct {
	ID         int64     `json:"id" db:"id"`
	UserID     int64     `json:"user_id" db:"user_id"`
	TaskID     *int64    `json:"task_id" db:"task_id"`
	Message    string    `json:"message" db:"message"`
	Type       string    `json:"type" db:"type"`
	ReadStatus bool      `json:"read_status" db:"read_status"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`

	TaskTitle  string `json:"task_title,omitempty" db:"task_title"`
	TaskStatus string `json:"task_status,omitempty" db:"task_status"`
}

// Notification types.
const (
	NotificationAssignment = "assignment"
	NotificationUpdate     = "update"
	NotificationCompletion = "completion"
	NotificationInfo       = "info"
)

// ValidNotificationTypes enumerates the accepted notification types.
var ValidNotificationTypes = map[string]struct{}{
	NotificationAssignment: {},
	NotificationUpdate:     {},
	NotificationCompletion: {},
	NotificationInfo:       {},
}

// Task statuses, matching the board columns.
const (
	StatusNew        = "new"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// ValidTaskStatuses enumerates the statuses supported by the board columns.
var ValidTaskStatuses = map[string]struct{}{
	StatusNew:        {},
	StatusInProgress: {},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// TaskStatusOrder lists the statuses in board column order.
var TaskStatusOrder = []string{StatusNew, StatusInProgress, StatusCompleted, StatusCancelled}

// Task priorities as stored ordinals.
const (
	PriorityLow    = 1
	PriorityMedium = 2
	PriorityHigh   = 3
)

// priorityLabels maps transport labels to stored ordinals.
var priorityLabels = map[string]int{
	"low":    PriorityLow,
	"medium": PriorityMedium,
	"high":   PriorityHigh,
}

// ParsePriority normalizes a priority arriving as either a label string
// ("low"/"medium"/"high") or an integer string ("1".."3") to its stored
// ordinal. Unrecognized values return ok=false.
func ParsePriority(raw string) (int, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if p, ok := priorityLabels[raw]; ok {
		return p, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < PriorityLow || n > PriorityHigh {
		return 0, false
	}
	return n, true
}

// PriorityLabel returns the transport label for a stored ordinal.
func PriorityLabel(p int) string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// ValidateStatus rejects values outside the closed status enumeration.
func ValidateStatus(status string) error {
	if _, ok := ValidTaskStatuses[status]; !ok {
		return fmt.Errorf("invalid status %q: must be one of new, in_progress, completed, cancelled", status)
	}
	return nil
}
