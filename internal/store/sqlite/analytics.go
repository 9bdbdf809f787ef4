package sqlite

import (
	"context"
	"fmt"
	"time"

	"taskhub/internal/models"
)

// StatusCount is one slice of the status breakdown.
type StatusCount struct {
	Status string `json:"status" db:"status"`
	Count  int    `json:"count" db:"count"`
}

// PriorityCount is one bar of the priority breakdown.
type PriorityCount struct {
	Priority      int    `json:"priority" db:"priority"`
	PriorityLabel string `json:"priority_label" db:"-"`
	Count         int    `json:"count" db:"count"`
}

// CompletionBucket is one time bucket of the completion trend.
type CompletionBucket struct {
	Period         string  `json:"period" db:"period"`
	TotalTasks     int     `json:"total_tasks" db:"total_tasks"`
	CompletedTasks int     `json:"completed_tasks" db:"completed_tasks"`
	CompletionRate float64 `json:"completion_rate" db:"-"`
}

// DashboardSummary aggregates the headline numbers for the dashboard.
type DashboardSummary struct {
	TotalTasks        int               `json:"total_tasks"`
	CompletedTasks    int               `json:"completed_tasks"`
	OverdueTasks      int               `json:"overdue_tasks"`
	CompletionRate    float64           `json:"completion_rate"`
	StatusBreakdown   []StatusCount     `json:"status_breakdown"`
	PriorityBreakdown []PriorityCount   `json:"priority_breakdown"`
	RecentActivities  []models.Activity `json:"recent_activities"`
}

// completionFormats maps a reporting period to a strftime bucket format.
var completionFormats = map[string]string{
	"day":   "%Y-%m-%d",
	"week":  "%Y-W%W",
	"month": "%Y-%m",
	"year":  "%Y",
}

// ValidCompletionPeriod reports whether period is an accepted bucket size.
func ValidCompletionPeriod(period string) bool {
	_, ok := completionFormats[period]
	return ok
}

// analyticsWhere is the shared visibility + created-range clause for the
// aggregate queries. Analytics never see tasks outside the requesting
// user's visibility.
func analyticsWhere(userID int64, from, to *time.Time) *whereClause {
	w := &whereClause{}
	w.add("(created_by = ? OR assigned_to = ?)", userID, userID)
	w.between("created_at", from, to)
	return w
}

// StatusCounts returns task counts grouped by status, largest first.
func (s *Store) StatusCounts(ctx context.Context, userID int64, from, to *time.Time) ([]StatusCount, error) {
	where, args := analyticsWhere(userID, from, to).SQL()
	var counts []StatusCount
	err := s.db.SelectContext(ctx, &counts,
		"SELECT status, COUNT(*) AS count FROM tasks"+where+
			" GROUP BY status ORDER BY count DESC", args...)
	if err != nil {
		return nil, fmt.Errorf("status counts: %w", err)
	}
	return counts, nil
}

// PriorityCounts returns task counts grouped by priority, highest first.
func (s *Store) PriorityCounts(ctx context.Context, userID int64, from, to *time.Time) ([]PriorityCount, error) {
	where, args := analyticsWhere(userID, from, to).SQL()
	var counts []PriorityCount
	err := s.db.SelectContext(ctx, &counts,
		"SELECT priority, COUNT(*) AS count FROM tasks"+where+
			" GROUP BY priority ORDER BY priority DESC", args...)
	if err != nil {
		return nil, fmt.Errorf("priority counts: %w", err)
	}
	for i := range counts {
		counts[i].PriorityLabel = models.PriorityLabel(counts[i].Priority)
	}
	return counts, nil
}

// CompletionBuckets returns per-period totals and completion counts for
// the newest 12 buckets. The period must pass ValidCompletionPeriod.
func (s *Store) CompletionBuckets(ctx context.Context, userID int64, period string, from, to *time.Time) ([]CompletionBucket, error) {
	format, ok := completionFormats[period]
	if !ok {
		return nil, fmt.Errorf("invalid period %q", period)
	}

	w := analyticsWhere(userID, from, to)
	where, args := w.SQL()
	query := fmt.Sprintf(`SELECT strftime('%s', created_at) AS period,
            COUNT(*) AS total_tasks,
            SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END) AS completed_tasks
        FROM tasks%s GROUP BY period ORDER BY period DESC LIMIT 12`, format, where)

	var buckets []CompletionBucket
	if err := s.db.SelectContext(ctx, &buckets, query, args...); err != nil {
		return nil, fmt.Errorf("completion buckets: %w", err)
	}
	for i := range buckets {
		if buckets[i].TotalTasks > 0 {
			rate := float64(buckets[i].CompletedTasks) / float64(buckets[i].TotalTasks) * 100
			buckets[i].CompletionRate = float64(int(rate*100)) / 100
		}
	}
	return buckets, nil
}

// Summary computes the dashboard headline numbers for a user.
func (s *Store) Summary(ctx context.Context, userID int64) (DashboardSummary, error) {
	var out DashboardSummary

	err := s.db.GetContext(ctx, &out.TotalTasks,
		"SELECT COUNT(*) FROM tasks WHERE created_by = ? OR assigned_to = ?", userID, userID)
	if err != nil {
		return out, fmt.Errorf("total tasks: %w", err)
	}

	err = s.db.GetContext(ctx, &out.CompletedTasks,
		"SELECT COUNT(*) FROM tasks WHERE (created_by = ? OR assigned_to = ?) AND status = 'completed'",
		userID, userID)
	if err != nil {
		return out, fmt.Errorf("completed tasks: %w", err)
	}

	err = s.db.GetContext(ctx, &out.OverdueTasks,
		`SELECT COUNT(*) FROM tasks
         WHERE (created_by = ? OR assigned_to = ?)
           AND due_date IS NOT NULL AND due_date < CURRENT_TIMESTAMP
           AND status != 'completed'`, userID, userID)
	if err != nil {
		return out, fmt.Errorf("overdue tasks: %w", err)
	}

	if out.TotalTasks > 0 {
		rate := float64(out.CompletedTasks) / float64(out.TotalTasks) * 100
		out.CompletionRate = float64(int(rate*100)) / 100
	}

	if out.StatusBreakdown, err = s.StatusCounts(ctx, userID, nil, nil); err != nil {
		return out, err
	}
	if out.PriorityBreakdown, err = s.PriorityCounts(ctx, userID, nil, nil); err != nil {
		return out, err
	}

	activities, _, err := s.ListUserActivities(ctx, userID, "", 1, 5)
	if err != nil {
		return out, err
	}
	out.RecentActivities = activities

	return out, nil
}
