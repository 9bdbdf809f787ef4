package sqlite

import (
	"strings"
	"time"
)

// Pagination bounds for task listing.
const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// taskSortColumns is the allow-list of sortable columns. Keys requested
// outside this map are dropped rather than rejected, so the endpoint
// stays resilient to client drift.
var taskSortColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"due_date":   "due_date",
	"priority":   "priority",
	"status":     "status",
	"title":      "title",
}

// TaskFilter controls filtering, sorting, and pagination for task queries.
// Multi-value fields use OR semantics within the field and AND semantics
// across fields. The zero value lists everything visible to the user,
// newest first.
type TaskFilter struct {
	Statuses    []string
	Priorities  []int
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	DueFrom     *time.Time
	DueTo       *time.Time
	Search      string
	AssignedTo  *int64
	SortBy      []string
	SortDesc    bool
	Page        int
	Limit       int
}

// Normalize clamps pagination to the allowed bounds and drops sort keys
// outside the allow-list. An empty sort key list falls back to
// created_at descending.
func (f *TaskFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}

	var keys []string
	for _, k := range f.SortBy {
		if _, ok := taskSortColumns[k]; ok {
			keys = append(keys, k)
		}
	}
	f.SortBy = keys
	if len(f.SortBy) == 0 {
		f.SortBy = []string{"created_at"}
		f.SortDesc = true
	}
}

// predicate is a single typed constraint reduced into SQL. Placeholder
// bookkeeping stays inside the builder; callers never count ?s.
type predicate struct {
	expr string
	args []any
}

// whereClause accumulates predicates joined with AND.
type whereClause struct {
	preds []predicate
}

func (w *whereClause) add(expr string, args ...any) {
	w.preds = append(w.preds, predicate{expr: expr, args: args})
}

// eq adds an equality constraint.
func (w *whereClause) eq(column string, value any) {
	w.add(column+" = ?", value)
}

// in adds a set-membership constraint. An empty set adds nothing.
func (w *whereClause) in(column string, values []any) {
	if len(values) == 0 {
		return
	}
	placeholders := make([]string, len(values))
	for i := range values {
		placeholders[i] = "?"
	}
	w.add(column+" IN ("+strings.Join(placeholders, ", ")+")", values...)
}

// between adds an inclusive range constraint; either bound may be nil.
func (w *whereClause) between(column string, from, to *time.Time) {
	if from != nil {
		w.add(column+" >= ?", from.UTC())
	}
	if to != nil {
		w.add(column+" <= ?", to.UTC())
	}
}

// search adds a case-insensitive substring match over the given columns,
// OR-ed within the predicate.
func (w *whereClause) search(term string, columns ...string) {
	term = strings.TrimSpace(term)
	if term == "" {
		return
	}
	like := "%" + strings.ToLower(term) + "%"
	exprs := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, col := range columns {
		exprs[i] = "LOWER(" + col + ") LIKE ?"
		args[i] = like
	}
	w.add("("+strings.Join(exprs, " OR ")+")", args...)
}

// SQL reduces the accumulated predicates into a WHERE clause and its
// ordered argument list. With no predicates it returns an empty string.
func (w *whereClause) SQL() (string, []any) {
	if len(w.preds) == 0 {
		return "", nil
	}
	exprs := make([]string, len(w.preds))
	var args []any
	for i, p := range w.preds {
		exprs[i] = p.expr
		args = append(args, p.args...)
	}
	return " WHERE " + strings.Join(exprs, " AND "), args
}

// taskWhere builds the WHERE clause for a task listing. The visibility
// predicate is emitted first and unconditionally: no combination of
// filter parameters can widen the result beyond tasks the user created
// or is assigned to.
func taskWhere(userID int64, f TaskFilter) *whereClause {
	w := &whereClause{}
	w.add("(created_by = ? OR assigned_to = ?)", userID, userID)

	if len(f.Statuses) > 0 {
		vals := make([]any, len(f.Statuses))
		for i, s := range f.Statuses {
			vals[i] = s
		}
		w.in("status", vals)
	}
	if len(f.Priorities) > 0 {
		vals := make([]any, len(f.Priorities))
		for i, p := range f.Priorities {
			vals[i] = p
		}
		w.in("priority", vals)
	}
	w.between("created_at", f.CreatedFrom, f.CreatedTo)
	w.between("due_date", f.DueFrom, f.DueTo)
	w.search(f.Search, "title", "description")
	if f.AssignedTo != nil {
		w.eq("assigned_to", *f.AssignedTo)
	}

	return w
}

// orderBy renders the validated sort keys. Direction applies uniformly
// across all keys. task_id breaks ties so pagination stays stable when
// rows share a timestamp.
func orderBy(f TaskFilter) string {
	direction := "ASC"
	if f.SortDesc {
		direction = "DESC"
	}
	cols := make([]string, len(f.SortBy), len(f.SortBy)+1)
	for i, k := range f.SortBy {
		cols[i] = taskSortColumns[k] + " " + direction
	}
	cols = append(cols, "task_id "+direction)
	return " ORDER BY " + strings.Join(cols, ", ")
}
