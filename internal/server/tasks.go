package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"taskhub/internal/models"
	"taskhub/internal/store/sqlite"
)

// flexPriority accepts a priority as either a JSON number (1..3) or a
// label string ("low"/"medium"/"high"), normalized to the ordinal.
type flexPriority int

func (p *flexPriority) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err == nil {
		n, ok := models.ParsePriority(label)
		if !ok {
			return fmt.Errorf("invalid priority %q", label)
		}
		*p = flexPriority(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("priority must be a number or a label")
	}
	if n < models.PriorityLow || n > models.PriorityHigh {
		return fmt.Errorf("priority must be between 1 and 3")
	}
	*p = flexPriority(n)
	return nil
}

// nullable is a request field whose JSON value may be an explicit null.
// Absent means "leave unchanged"; null means "clear the column". A plain
// pointer cannot tell the two apart, so presence is tracked on decode.
type nullable[T any] struct {
	set   bool
	value *T
}

func (n *nullable[T]) UnmarshalJSON(data []byte) error {
	n.set = true
	if string(data) == "null" {
		return nil
	}
	return json.Unmarshal(data, &n.value)
}

type taskRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Status      *string          `json:"status"`
	Priority    *flexPriority    `json:"priority"`
	DueDate     nullable[string] `json:"due_date"`
	AssignedTo  nullable[int64]  `json:"assigned_to"`
}

// parseDate accepts either a bare date or a full RFC 3339 timestamp.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

// parseDateBound parses an optional date query param. Bounds named in
// "end" position are pushed to the end of the day when given date-only,
// so inclusive ranges behave as a user expects.
func parseDateBound(c *gin.Context, name string, endOfDay bool) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := parseDate(raw)
	if err != nil {
		respondFail(c, http.StatusBadRequest, name+" must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
		return nil, false
	}
	if endOfDay && len(raw) == len("2006-01-02") {
		t = t.Add(24*time.Hour - time.Second)
	}
	return &t, true
}

// parseTaskFilter validates the query string into a TaskFilter.
// Malformed numeric or date input is rejected with a 400; unrecognized
// enum values and sort keys are dropped, per the tolerant contract.
func (s *Server) parseTaskFilter(c *gin.Context) (sqlite.TaskFilter, bool) {
	var f sqlite.TaskFilter

	for _, raw := range strings.Split(c.Query("status"), ",") {
		raw = strings.TrimSpace(raw)
		if _, ok := models.ValidTaskStatuses[raw]; ok {
			f.Statuses = append(f.Statuses, raw)
		}
	}
	for _, raw := range strings.Split(c.Query("priority"), ",") {
		if raw = strings.TrimSpace(raw); raw == "" {
			continue
		}
		if p, ok := models.ParsePriority(raw); ok {
			f.Priorities = append(f.Priorities, p)
		}
	}

	var ok bool
	if f.CreatedFrom, ok = parseDateBound(c, "start_date", false); !ok {
		return f, false
	}
	if f.CreatedTo, ok = parseDateBound(c, "end_date", true); !ok {
		return f, false
	}
	if f.DueFrom, ok = parseDateBound(c, "due_date_start", false); !ok {
		return f, false
	}
	if f.DueTo, ok = parseDateBound(c, "due_date_end", true); !ok {
		return f, false
	}

	f.Search = strings.TrimSpace(c.Query("search"))

	if raw := c.Query("assigned_to"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondFail(c, http.StatusBadRequest, "assigned_to must be an integer")
			return f, false
		}
		f.AssignedTo = &id
	}

	for _, key := range strings.Split(c.Query("sort_by"), ",") {
		if key = strings.TrimSpace(key); key != "" {
			f.SortBy = append(f.SortBy, key)
		}
	}
	f.SortDesc = !strings.EqualFold(c.Query("sort_order"), "ASC")

	page, limit, ok := parsePageLimit(c)
	if !ok {
		return f, false
	}
	f.Page, f.Limit = page, limit

	return f, true
}

// handleListTasks runs the filtered, sorted, paginated task listing.
// Visibility is enforced in the store regardless of filter input.
func (s *Server) handleListTasks(c *gin.Context) {
	filter, ok := s.parseTaskFilter(c)
	if !ok {
		return
	}

	tasks, total, err := s.store.ListTasks(c.Request.Context(), currentUserID(c), filter)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"count":      len(tasks),
		"total":      total,
		"page":       filter.Page,
		"limit":      filter.Limit,
		"totalPages": totalPages(total, filter.Limit),
		"data":       gin.H{"tasks": tasks},
	})
}

// handleGetTask fetches a single visible task.
func (s *Server) handleGetTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	task, err := s.store.GetTask(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"task": task}})
}

// handleCreateTask inserts a new task, self-assigned unless stated.
func (s *Server) handleCreateTask(c *gin.Context) {
	userID := currentUserID(c)

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.Title == nil || strings.TrimSpace(*req.Title) == "" {
		respondFail(c, http.StatusBadRequest, "task title is required")
		return
	}

	t := models.Task{
		CreatedBy:  userID,
		Title:      *req.Title,
		AssignedTo: req.AssignedTo.value,
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Status != nil {
		if err := models.ValidateStatus(*req.Status); err != nil {
			respondFail(c, http.StatusBadRequest, err.Error())
			return
		}
		t.Status = *req.Status
	}
	if req.Priority != nil {
		t.Priority = int(*req.Priority)
	}
	if req.DueDate.value != nil && *req.DueDate.value != "" {
		due, err := parseDate(*req.DueDate.value)
		if err != nil {
			respondFail(c, http.StatusBadRequest, "due_date must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
			return
		}
		t.DueDate = &due
	}

	task, err := s.store.CreateTask(c.Request.Context(), t)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}

	s.recordActivity(c, task.ID, userID, models.ActionCreated, "Task created")
	if task.AssignedTo != nil && *task.AssignedTo != userID {
		s.notify(c, *task.AssignedTo, &task.ID, models.NotificationAssignment,
			fmt.Sprintf("You have been assigned to task: %s", task.Title))
	}

	s.logger.Info("task created", "task_id", task.ID, "user_id", userID)
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Task created successfully",
		"data":    gin.H{"task": task},
	})
}

// handleUpdateTask applies a partial update. Only the creator may do a
// full update; anyone else sees 404.
func (s *Server) handleUpdateTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID := currentUserID(c)

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}

	update := sqlite.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Status != nil {
		if err := models.ValidateStatus(*req.Status); err != nil {
			respondFail(c, http.StatusBadRequest, err.Error())
			return
		}
		update.Status = req.Status
	}
	if req.Priority != nil {
		p := int(*req.Priority)
		update.Priority = &p
	}
	if req.AssignedTo.set {
		if req.AssignedTo.value != nil {
			update.AssignedTo = req.AssignedTo.value
		} else {
			update.ClearAssignee = true
		}
	}
	if req.DueDate.set {
		if req.DueDate.value == nil || *req.DueDate.value == "" {
			update.ClearDueDate = true
		} else {
			due, err := parseDate(*req.DueDate.value)
			if err != nil {
				respondFail(c, http.StatusBadRequest, "due_date must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
				return
			}
			update.DueDate = &due
		}
	}
	if update.Empty() {
		respondFail(c, http.StatusBadRequest, "no fields to update")
		return
	}

	before, err := s.store.GetTask(c.Request.Context(), id, userID)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}

	task, err := s.store.UpdateTask(c.Request.Context(), id, userID, update)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}

	s.recordActivity(c, task.ID, userID, models.ActionUpdated, "Task updated")
	if reassigned(before.AssignedTo, task.AssignedTo) && *task.AssignedTo != userID {
		s.notify(c, *task.AssignedTo, &task.ID, models.NotificationAssignment,
			fmt.Sprintf("You have been assigned to task: %s", task.Title))
	}

	s.logger.Info("task updated", "task_id", task.ID, "user_id", userID)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Task updated successfully",
		"data":    gin.H{"task": task},
	})
}

type statusRequest struct {
	Status *string `json:"status"`
}

// handleUpdateTaskStatus changes only the status; allowed for the
// creator or the assignee. This is the endpoint the board synchronizer
// calls after an optimistic move.
func (s *Server) handleUpdateTaskStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID := currentUserID(c)

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == nil || *req.Status == "" {
		respondFail(c, http.StatusBadRequest, "status field is required")
		return
	}
	if err := models.ValidateStatus(*req.Status); err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}

	before, err := s.store.GetTask(c.Request.Context(), id, userID)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}

	task, err := s.store.UpdateTaskStatus(c.Request.Context(), id, userID, *req.Status)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}

	if before.Status != task.Status {
		s.recordActivity(c, task.ID, userID, models.ActionStatusChanged,
			fmt.Sprintf("Status changed from %s to %s", before.Status, task.Status))
		if task.Status == models.StatusCompleted && task.CreatedBy != userID {
			s.notify(c, task.CreatedBy, &task.ID, models.NotificationCompletion,
				fmt.Sprintf("Task completed: %s", task.Title))
		}
	}

	s.logger.Info("task status updated", "task_id", task.ID, "status", task.Status, "user_id", userID)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Task status updated successfully",
		"data":    gin.H{"task": task},
	})
}

// handleDeleteTask removes a task. Only the creator may delete.
func (s *Server) handleDeleteTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID := currentUserID(c)

	if err := s.store.DeleteTask(c.Request.Context(), id, userID); err != nil {
		s.respondStoreError(c, err)
		return
	}

	s.logger.Info("task deleted", "task_id", id, "user_id", userID)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Task deleted successfully"})
}

// recordActivity writes a timeline entry; failures are logged, never
// surfaced, so they cannot fail the originating request.
func (s *Server) recordActivity(c *gin.Context, taskID, userID int64, action, description string) {
	err := s.store.RecordActivity(c.Request.Context(), models.Activity{
		TaskID:      taskID,
		UserID:      userID,
		Action:      action,
		Description: description,
	})
	if err != nil {
		s.logger.Error("record activity", "task_id", taskID, "error", err.Error())
	}
}

// notify delivers a notification; failures are logged, never surfaced.
func (s *Server) notify(c *gin.Context, userID int64, taskID *int64, kind, message string) {
	_, err := s.store.CreateNotification(c.Request.Context(), models.Notification{
		UserID:  userID,
		TaskID:  taskID,
		Message: message,
		Type:    kind,
	})
	if err != nil {
		s.logger.Error("create notification", "user_id", userID, "error", err.Error())
	}
}

// reassigned reports whether the assignee changed to a non-nil user.
func reassigned(before, after *int64) bool {
	if after == nil {
		return false
	}
	return before == nil || *before != *after
}
