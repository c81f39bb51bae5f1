package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/taskflow-api/internal/domain"
)

// SortField is a whitelisted task sort key.
type SortField string

const (
	SortByCreatedAt SortField = "createdAt"
	SortByUpdatedAt SortField = "updatedAt"
	SortByTitle     SortField = "title"
	SortByDueDate   SortField = "dueDate"
	SortByPriority  SortField = "priority"
)

// SortOrder is the sort direction.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// DueBucket selects a relative due-date window.
type DueBucket string

const (
	DueBucketNone     DueBucket = ""
	DueBucketOverdue  DueBucket = "overdue"
	DueBucketToday    DueBucket = "today"
	DueBucketThisWeek DueBucket = "thisWeek"
)

// Pagination limits.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// TaskFilter is the explicit, typed filter for task listings. Only the
// predicates a caller sets are composed into the query; all active
// predicates combine with AND, with Search expanding to one OR-ed
// clause over title, description, category and tags.
type TaskFilter struct {
	Status   *domain.Status
	Priority *domain.Priority
	// Category matches as a case-insensitive substring.
	Category string
	// Search matches case-insensitively against title, description,
	// category, and tag membership.
	Search string
	// DueBucket restricts by due date relative to Now.
	DueBucket DueBucket
	// Archived is always applied: listings address either the archive or
	// the active set, never both.
	Archived bool

	SortBy    SortField
	SortOrder SortOrder

	Page  int
	Limit int

	// Now anchors the due-date buckets; the zero value means time.Now.
	Now time.Time
}

// Normalize applies listing defaults and clamps pagination to the
// allowed ranges. It returns the normalized copy.
func (f TaskFilter) Normalize() TaskFilter {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	switch f.SortBy {
	case SortByCreatedAt, SortByUpdatedAt, SortByTitle, SortByDueDate, SortByPriority:
	default:
		f.SortBy = SortByCreatedAt
	}
	switch f.SortOrder {
	case SortAsc, SortDesc:
	default:
		f.SortOrder = SortDesc
	}
	if f.Now.IsZero() {
		f.Now = time.Now().UTC()
	}
	return f
}

// Offset returns the row offset implied by page and limit.
func (f TaskFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// TaskUpdate carries a partial task mutation. Nil fields are left
// unchanged. Pointer-to-pointer fields distinguish "leave alone" (nil)
// from "clear" (pointer to nil). CompletedAt is deliberately absent: it
// is derived from Status and never caller-settable.
type TaskUpdate struct {
	Title            *string
	Description      *string
	Status           *domain.Status
	Priority         *domain.Priority
	Category         *string
	Tags             *[]string
	DueDate          **time.Time
	EstimatedMinutes **int
	ActualMinutes    **int
	IsArchived       *bool
}

// IsZero reports whether the update carries no changes.
func (u TaskUpdate) IsZero() bool {
	return u.Title == nil && u.Description == nil && u.Status == nil &&
		u.Priority == nil && u.Category == nil && u.Tags == nil &&
		u.DueDate == nil && u.EstimatedMinutes == nil &&
		u.ActualMinutes == nil && u.IsArchived == nil
}

// TaskStore defines the interface for task data persistence. Every
// read and write is scoped by the owning user; an ownership mismatch is
// indistinguishable from non-existence (ErrTaskNotFound).
type TaskStore interface {
	// Create saves a new task.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by ID, scoped to the owner.
	// Returns ErrTaskNotFound if absent or not owned by userID.
	GetByID(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)

	// List returns the page of tasks matching the filter along with the
	// total match count. An offset past the end yields an empty slice,
	// not an error.
	List(ctx context.Context, userID uuid.UUID, filter TaskFilter) ([]*domain.Task, int, error)

	// Update applies a partial update in a single conditional statement
	// keyed on (id, user_id), re-deriving completed_at when the status
	// changes, and returns the updated task.
	// Returns ErrTaskNotFound if absent or not owned by userID.
	Update(ctx context.Context, userID, taskID uuid.UUID, update TaskUpdate) (*domain.Task, error)

	// Delete removes a task permanently, scoped to the owner.
	// Returns ErrTaskNotFound if absent or not owned by userID.
	Delete(ctx context.Context, userID, taskID uuid.UUID) error

	// AppendSubtask atomically appends a subtask to the task's embedded
	// collection and returns the updated task.
	// Returns ErrTaskNotFound if absent or not owned by userID.
	AppendSubtask(ctx context.Context, userID, taskID uuid.UUID, subtask domain.Subtask) (*domain.Task, error)

	// SetSubtaskCompleted sets the completion flag of one embedded
	// subtask in a single conditional statement, leaving sibling
	// subtasks untouched, and returns the updated task.
	// Returns ErrTaskNotFound if the task is absent or not owned by
	// userID, ErrSubtaskNotFound if the task exists but no subtask
	// matched subtaskID.
	SetSubtaskCompleted(ctx context.Context, userID, taskID, subtaskID uuid.UUID, completed bool) (*domain.Task, error)

	// WithTx returns a new TaskStore instance that uses the provided
	// transaction.
	WithTx(tx *sql.Tx) TaskStore
}
