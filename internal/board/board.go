package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskhub/internal/models"
)

// moveTimeout bounds the background status update behind an optimistic
// move.
const moveTimeout = 10 * time.Second

var (
	// ErrMoveInFlight is returned when a task already has a pending
	// status update on the server.
	ErrMoveInFlight = errors.New("task move already in flight")
	// ErrUnknownTask is returned when the moved task is not in the
	// board's mirror.
	ErrUnknownTask = errors.New("task not on board")
	// ErrClosed is returned for moves attempted after Close.
	ErrClosed = errors.New("board closed")
)

// MoveState is the lifecycle of one task's status move.
type MoveState int

const (
	// MoveIdle means no update is outstanding for the task.
	MoveIdle MoveState = iota
	// MovePending means the mirror shows the new status but the server
	// has not confirmed it yet.
	MovePending
)

// StatusUpdater is the slice of the API client the synchronizer needs.
type StatusUpdater interface {
	UpdateTaskStatus(ctx context.Context, taskID int64, status string) (models.Task, error)
}

// Toast is a transient user-facing notice.
type Toast struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Toast types.
const (
	ToastError = "error"
	ToastInfo  = "info"
)

// Notifier receives toasts from background operations.
type Notifier interface {
	Notify(toast Toast)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(toast Toast)

// Notify calls f.
func (f NotifierFunc) Notify(toast Toast) { f(toast) }

// Synchronizer keeps a local mirror of one board view in sync with the
// server. Drag-and-drop moves mutate the mirror immediately, then a
// background request confirms the change; if the server rejects it the
// mirror is rolled back to the last confirmed snapshot and the failure
// is surfaced as a toast.
//
// Moves of different tasks run in parallel; a second move of a task
// whose previous move is still unconfirmed returns ErrMoveInFlight.
type Synchronizer struct {
	api      StatusUpdater
	notifier Notifier
	logger   *slog.Logger
	timeout  time.Duration

	mu       sync.Mutex
	mirror   []models.Task
	snapshot []models.Task
	pending  map[int64]struct{}
	closed   bool
	wg       sync.WaitGroup
}

// NewSynchronizer creates a synchronizer over the given API client.
// The notifier may be nil if no toast surface exists.
func NewSynchronizer(api StatusUpdater, notifier Notifier, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{
		api:      api,
		notifier: notifier,
		logger:   logger,
		timeout:  moveTimeout,
		pending:  make(map[int64]struct{}),
	}
}

// SetTasks replaces the mirror and the confirmed snapshot with a fresh
// server result. Pending moves are cleared: the server list is the new
// truth.
func (s *Synchronizer) SetTasks(tasks []models.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mirror = cloneTasks(tasks)
	s.snapshot = cloneTasks(tasks)
	s.pending = make(map[int64]struct{})
}

// Tasks returns a copy of the current mirror, optimistic moves
// included.
func (s *Synchronizer) Tasks() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneTasks(s.mirror)
}

// Columns groups the mirror by status in board column order.
func (s *Synchronizer) Columns() map[string][]models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	cols := make(map[string][]models.Task, len(models.TaskStatusOrder))
	for _, status := range models.TaskStatusOrder {
		cols[status] = []models.Task{}
	}
	for _, t := range s.mirror {
		cols[t.Status] = append(cols[t.Status], t)
	}
	return cols
}

// State reports the move state of one task.
func (s *Synchronizer) State(taskID int64) MoveState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[taskID]; ok {
		return MovePending
	}
	return MoveIdle
}

// ResolveDropTarget maps a drop target identifier to a status. Targets
// come in three shapes: a column id ("in_progress"), a column content
// area ("in_progress-content"), or another task's card (the numeric
// task id, which resolves to that task's column). Unresolvable targets
// return false.
func (s *Synchronizer) ResolveDropTarget(target string) (string, bool) {
	if _, ok := models.ValidTaskStatuses[target]; ok {
		return target, true
	}
	if trimmed, found := strings.CutSuffix(target, "-content"); found {
		if _, ok := models.ValidTaskStatuses[trimmed]; ok {
			return trimmed, true
		}
	}
	if id, err := strconv.ParseInt(target, 10, 64); err == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, t := range s.mirror {
			if t.ID == id {
				return t.Status, true
			}
		}
	}
	return "", false
}

// Drop handles a drag-and-drop event: it resolves the target and, when
// it names a column, moves the task there. Unresolvable targets are a
// no-op.
func (s *Synchronizer) Drop(taskID int64, target string) error {
	status, ok := s.ResolveDropTarget(target)
	if !ok {
		s.logger.Debug("drop target unresolved", "target", target)
		return nil
	}
	return s.Move(taskID, status)
}

// Move optimistically sets the task's status in the mirror and confirms
// it with the server in the background. Moving a task onto its current
// column is a no-op. On server failure the whole mirror is rolled back
// to the last confirmed snapshot and the notifier receives an error
// toast.
func (s *Synchronizer) Move(taskID int64, status string) error {
	if err := models.ValidateStatus(status); err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if _, inFlight := s.pending[taskID]; inFlight {
		s.mu.Unlock()
		return ErrMoveInFlight
	}

	idx := -1
	for i := range s.mirror {
		if s.mirror[i].ID == taskID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return ErrUnknownTask
	}
	if s.mirror[idx].Status == status {
		s.mu.Unlock()
		return nil
	}

	s.mirror[idx].Status = status
	s.pending[taskID] = struct{}{}
	s.wg.Add(1)
	s.mu.Unlock()

	go s.confirm(taskID, status)
	return nil
}

// confirm runs the background status update for one optimistic move and
// applies the outcome to the mirror.
func (s *Synchronizer) confirm(taskID int64, status string) {
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	confirmed, err := s.api.UpdateTaskStatus(ctx, taskID, status)

	s.mu.Lock()
	defer s.mu.Unlock()

	// The board may have been torn down while the request was out.
	if s.closed {
		return
	}
	delete(s.pending, taskID)

	if err != nil {
		s.mirror = cloneTasks(s.snapshot)
		s.logger.Warn("task move rejected, rolling back",
			"task_id", taskID, "status", status, "error", err)
		if s.notifier != nil {
			s.notifier.Notify(Toast{
				ID:      uuid.NewString(),
				Type:    ToastError,
				Message: fmt.Sprintf("Failed to move task: %s", err),
			})
		}
		return
	}

	// Fold the confirmed row into both mirror and snapshot so a later
	// rollback of another task keeps this move.
	for i := range s.mirror {
		if s.mirror[i].ID == taskID {
			s.mirror[i] = confirmed
			break
		}
	}
	for i := range s.snapshot {
		if s.snapshot[i].ID == taskID {
			s.snapshot[i] = confirmed
			break
		}
	}
}

// Close marks the board as torn down. In-flight confirmations are
// discarded instead of applied.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Wait blocks until all in-flight confirmations have finished. Intended
// for tests and orderly shutdown.
func (s *Synchronizer) Wait() {
	s.wg.Wait()
}

func cloneTasks(tasks []models.Task) []models.Task {
	out := make([]models.Task, len(tasks))
	copy(out, tasks)
	return out
}
