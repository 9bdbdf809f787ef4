package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskhub/internal/models"
)

func TestListTasksVisibility(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, s, "alice@example.com")
	bob := seedUser(t, s, "bob@example.com")
	carol := seedUser(t, s, "carol@example.com")

	mine := seedTask(t, s, models.Task{CreatedBy: alice.ID, Title: "created by alice"})
	assigned := seedTask(t, s, models.Task{
		CreatedBy: bob.ID, AssignedTo: ptrInt64(alice.ID), Title: "assigned to alice",
	})
	seedTask(t, s, models.Task{CreatedBy: bob.ID, AssignedTo: ptrInt64(carol.ID), Title: "not hers"})

	filters := []TaskFilter{
		{},
		{Statuses: []string{models.StatusNew}},
		{Priorities: []int{models.PriorityMedium}},
		{Search: "a"},
		{SortBy: []string{"priority"}, SortDesc: true},
	}
	for i, f := range filters {
		t.Run(fmt.Sprintf("filter_%d", i), func(t *testing.T) {
			tasks, total, err := s.ListTasks(ctx, alice.ID, f)
			require.NoError(t, err)
			assert.Equal(t, len(tasks), total)
			for _, task := range tasks {
				visible := task.CreatedBy == alice.ID ||
					(task.AssignedTo != nil && *task.AssignedTo == alice.ID)
				assert.True(t, visible, "task %d leaked to non-participant", task.ID)
			}
		})
	}

	tasks, total, err := s.ListTasks(ctx, alice.ID, TaskFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	ids := []int64{tasks[0].ID, tasks[1].ID}
	assert.ElementsMatch(t, []int64{mine.ID, assigned.ID}, ids)
}

func TestListTasksFilterConjunction(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := seedUser(t, s, "alice@example.com")

	seedTask(t, s, models.Task{CreatedBy: alice.ID, Title: "new high", Status: models.StatusNew, Priority: models.PriorityHigh})
	seedTask(t, s, models.Task{CreatedBy: alice.ID, Title: "new low", Status: models.StatusNew, Priority: models.PriorityLow})
	seedTask(t, s, models.Task{CreatedBy: alice.ID, Title: "done high", Status: models.StatusCompleted, Priority: models.PriorityHigh})

	tasks, total, err := s.ListTasks(ctx, alice.ID, TaskFilter{
		Statuses:   []string{models.StatusNew},
		Priorities: []int{models.PriorityHigh},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, tasks, 1)
	assert.Equal(t, "new high", tasks[0].Title)
}

func TestListTasksPagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := seedUser(t, s, "alice@example.com")

	for i := 0; i < 125; i++ {
		seedTask(t, s, models.Task{CreatedBy: alice.ID, Title: fmt.Sprintf("task %03d", i)})
	}

	cases := []struct {
		page      int
		wantCount int
	}{
		{1, 50},
		{2, 50},
		{3, 25},
		{4, 0},
	}
	for _, tc := range cases {
		tasks, total, err := s.ListTasks(ctx, alice.ID, TaskFilter{Page: tc.page, Limit: 50})
		require.NoError(t, err)
		assert.Equal(t, 125, total, "total is counted before pagination")
		assert.Len(t, tasks, tc.wantCount, "page %d", tc.page)
	}

	// Out-of-range values clamp rather than error.
	tasks, _, err := s.ListTasks(ctx, alice.ID, TaskFilter{Page: -3, Limit: 9999})
	require.NoError(t, err)
	assert.Len(t, tasks, MaxPageSize)
}

func TestListTasksSortFallback(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := seedUser(t, s, "alice@example.com")

	first := seedTask(t, s, models.Task{CreatedBy: alice.ID, Title: "first"})
	second := seedTask(t, s, models.Task{CreatedBy: alice.ID, Title: "second"})

	// Unknown sort keys are dropped, not errors; newest first wins.
	tasks, _, err := s.ListTasks(ctx, alice.ID, TaskFilter{SortBy: []string{"password_hash; DROP TABLE tasks"}})
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, second.ID, tasks[0].ID)
	assert.Equal(t, first.ID, tasks[1].ID)

	// Known keys still apply.
	tasks, _, err = s.ListTasks(ctx, alice.ID, TaskFilter{SortBy: []string{"title"}})
	require.NoError(t, err)
	assert.Equal(t, "first", tasks[0].Title)
}

func TestListTasksPriorityOrdinal(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := seedUser(t, s, "alice@example.com")

	seedTask(t, s, models.Task{CreatedBy: alice.ID, Title: "low", Priority: models.PriorityLow})
	seedTask(t, s, models.Task{CreatedBy: alice.ID, Title: "high", Priority: models.PriorityHigh})

	// The label and the ordinal are the same filter.
	p, ok := models.ParsePriority("low")
	require.True(t, ok)
	require.Equal(t, models.PriorityLow, p)

	byLabel, _, err := s.ListTasks(ctx, alice.ID, TaskFilter{Priorities: []int{p}})
	require.NoError(t, err)
	byOrdinal, _, err := s.ListTasks(ctx, alice.ID, TaskFilter{Priorities: []int{1}})
	require.NoError(t, err)
	assert.Equal(t, byOrdinal, byLabel)
	require.Len(t, byLabel, 1)
	assert.Equal(t, "low", byLabel[0].Title)
}

func TestListTasksSearch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := seedUser(t, s, "alice@example.com")

	seedTask(t, s, models.Task{CreatedBy: alice.ID, Title: "Deploy API gateway"})
	seedTask(t, s, models.Task{CreatedBy: alice.ID, Title: "Write docs", Description: "cover the GATEWAY section"})
	seedTask(t, s, models.Task{CreatedBy: alice.ID, Title: "Unrelated"})

	tasks, total, err := s.ListTasks(ctx, alice.ID, TaskFilter{Search: "gateway"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, tasks, 2)
}

func TestListTasksDueDateRange(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := seedUser(t, s, "alice@example.com")

	due := func(day int) *time.Time {
		ts := time.Date(2026, time.September, day, 9, 30, 0, 0, time.UTC)
		return &ts
	}
	seedTask(t, s, models.Task{CreatedBy: alice.ID, Title: "early", DueDate: due(8)})
	seedTask(t, s, models.Task{CreatedBy: alice.ID, Title: "middle", DueDate: due(10)})
	seedTask(t, s, models.Task{CreatedBy: alice.ID, Title: "late", DueDate: due(12)})

	tasks, total, err := s.ListTasks(ctx, alice.ID, TaskFilter{DueFrom: due(9), DueTo: due(11)})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, tasks, 1)
	assert.Equal(t, "middle", tasks[0].Title)

	// Both bounds are inclusive: tasks due exactly on a bound match.
	_, total, err = s.ListTasks(ctx, alice.ID, TaskFilter{DueFrom: due(8), DueTo: due(12)})
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	// Either side may be open.
	tasks, _, err = s.ListTasks(ctx, alice.ID, TaskFilter{DueFrom: due(11)})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "late", tasks[0].Title)
}

func TestListTasksCreatedRange(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := seedUser(t, s, "alice@example.com")

	seedTask(t, s, models.Task{CreatedBy: alice.ID, Title: "fresh"})

	yesterday := time.Now().UTC().Add(-24 * time.Hour)
	tomorrow := time.Now().UTC().Add(24 * time.Hour)

	_, total, err := s.ListTasks(ctx, alice.ID, TaskFilter{CreatedFrom: &yesterday, CreatedTo: &tomorrow})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	_, total, err = s.ListTasks(ctx, alice.ID, TaskFilter{CreatedTo: &yesterday})
	require.NoError(t, err)
	assert.Zero(t, total, "created after the upper bound")

	_, total, err = s.ListTasks(ctx, alice.ID, TaskFilter{CreatedFrom: &tomorrow})
	require.NoError(t, err)
	assert.Zero(t, total, "created before the lower bound")
}

func TestGetTaskVisibility(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := seedUser(t, s, "alice@example.com")
	bob := seedUser(t, s, "bob@example.com")

	task := seedTask(t, s, models.Task{CreatedBy: alice.ID, Title: "private"})

	got, err := s.GetTask(ctx, task.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)

	// Not a participant: indistinguishable from missing.
	_, err = s.GetTask(ctx, task.ID, bob.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetTask(ctx, 99999, alice.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateTaskDefaults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := seedUser(t, s, "alice@example.com")

	task, err := s.CreateTask(ctx, models.Task{CreatedBy: alice.ID, Title: "bare"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusNew, task.Status)
	assert.Equal(t, models.PriorityMedium, task.Priority)
	require.NotNil(t, task.AssignedTo)
	assert.Equal(t, alice.ID, *task.AssignedTo)
}

func TestCreateTaskUnknownAssignee(t *testing.T) {
	s := newTestStore(t)
	alice := seedUser(t, s, "alice@example.com")

	_, err := s.CreateTask(context.Background(), models.Task{
		CreatedBy:  alice.ID,
		Title:      "ghost assignee",
		AssignedTo: ptrInt64(424242),
	})
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestUpdateTaskCreatorOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := seedUser(t, s, "alice@example.com")
	bob := seedUser(t, s, "bob@example.com")

	task := seedTask(t, s, models.Task{
		CreatedBy: alice.ID, AssignedTo: ptrInt64(bob.ID), Title: "shared",
	})

	title := "renamed"
	_, err := s.UpdateTask(ctx, task.ID, bob.ID, TaskUpdate{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound, "assignee may not run a full update")

	updated, err := s.UpdateTask(ctx, task.ID, alice.ID, TaskUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
}

func TestUpdateTaskClearFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := seedUser(t, s, "alice@example.com")
	bob := seedUser(t, s, "bob@example.com")

	due := time.Date(2026, time.September, 10, 12, 0, 0, 0, time.UTC)
	task := seedTask(t, s, models.Task{
		CreatedBy: alice.ID, AssignedTo: ptrInt64(bob.ID), DueDate: &due, Title: "assigned with deadline",
	})
	require.NotNil(t, task.AssignedTo)
	require.NotNil(t, task.DueDate)

	// A clear-only update is a real update, not an empty one.
	assert.False(t, TaskUpdate{ClearAssignee: true}.Empty())

	updated, err := s.UpdateTask(ctx, task.ID, alice.ID, TaskUpdate{ClearAssignee: true, ClearDueDate: true})
	require.NoError(t, err)
	assert.Nil(t, updated.AssignedTo, "task is unassigned again")
	assert.Nil(t, updated.DueDate)

	// Untouched fields survive a clear.
	assert.Equal(t, "assigned with deadline", updated.Title)
}

func TestUpdateTaskStatusCreatorOrAssignee(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := seedUser(t, s, "alice@example.com")
	bob := seedUser(t, s, "bob@example.com")
	carol := seedUser(t, s, "carol@example.com")

	task := seedTask(t, s, models.Task{
		CreatedBy: alice.ID, AssignedTo: ptrInt64(bob.ID), Title: "shared",
	})

	updated, err := s.UpdateTaskStatus(ctx, task.ID, bob.ID, models.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, updated.Status)

	updated, err = s.UpdateTaskStatus(ctx, task.ID, alice.ID, models.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, updated.Status)

	_, err = s.UpdateTaskStatus(ctx, task.ID, carol.ID, models.StatusNew)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteTaskCreatorOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := seedUser(t, s, "alice@example.com")
	bob := seedUser(t, s, "bob@example.com")

	task := seedTask(t, s, models.Task{
		CreatedBy: alice.ID, AssignedTo: ptrInt64(bob.ID), Title: "doomed",
	})

	err := s.DeleteTask(ctx, task.ID, bob.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.DeleteTask(ctx, task.ID, alice.ID))
	_, err = s.GetTask(ctx, task.ID, alice.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
