package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Task validation errors
var (
	ErrEmptyTaskID        = errors.New("task ID cannot be empty")
	ErrEmptyTaskOwner     = errors.New("task owner cannot be empty")
	ErrEmptyTitle         = errors.New("title cannot be empty")
	ErrTitleTooLong       = errors.New("title cannot exceed 100 characters")
	ErrDescriptionTooLong = errors.New("description cannot exceed 1000 characters")
	ErrCategoryTooLong    = errors.New("category cannot exceed 50 characters")
	ErrTagTooLong         = errors.New("tag cannot exceed 30 characters")
	ErrNegativeTime       = errors.New("time estimates cannot be negative")
	ErrEmptySubtaskTitle  = errors.New("subtask title cannot be empty")
)

// Status is the task lifecycle state. The four-value set is canonical;
// the legacy two-value {pending, done} variant is mapped at migration
// time ("done" becomes StatusCompleted) and is not accepted by the API.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// ParseStatus validates a status string against the canonical enum.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return Status(s), nil
	}
	return "", ErrInvalidStatus
}

// Priority is the task urgency level.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ParsePriority validates a priority string.
func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return Priority(s), nil
	}
	return "", ErrInvalidPriority
}

// Subtask is a value object owned exclusively by its parent Task.
// Subtasks have no lifecycle of their own and persist atomically with
// the parent.
type Subtask struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
}

// NewSubtask creates a subtask with a server-generated ID.
func NewSubtask(title string) (Subtask, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Subtask{}, ErrEmptySubtaskTitle
	}
	if len(title) > 100 {
		return Subtask{}, ErrTitleTooLong
	}
	return Subtask{
		ID:        uuid.New(),
		Title:     title,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Task is the aggregate root for a user's task, including its embedded
// subtask collection.
type Task struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"` // Owner; immutable after creation

	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Status      Status   `json:"status"`
	Priority    Priority `json:"priority"`
	Category    string   `json:"category,omitempty"`
	Tags        []string `json:"tags"`

	DueDate          *time.Time `json:"due_date,omitempty"`
	EstimatedMinutes *int       `json:"estimated_minutes,omitempty"`
	ActualMinutes    *int       `json:"actual_minutes,omitempty"`
	IsArchived       bool       `json:"is_archived"`

	Subtasks []Subtask `json:"subtasks"`

	// CompletedAt is derived from status transitions and is never
	// settable by callers. See ApplyStatus.
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewTask creates a task owned by userID with defaults applied.
// Returns an error if validation fails.
func NewTask(userID uuid.UUID, title string) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     strings.TrimSpace(title),
		Status:    StatusPending,
		Priority:  PriorityMedium,
		Tags:      []string{},
		Subtasks:  []Subtask{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks the task's field constraints.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}
	if t.UserID == uuid.Nil {
		return ErrEmptyTaskOwner
	}

	if t.Title == "" {
		return ErrEmptyTitle
	}
	if len(t.Title) > 100 {
		return ErrTitleTooLong
	}
	if len(t.Description) > 1000 {
		return ErrDescriptionTooLong
	}
	if len(t.Category) > 50 {
		return ErrCategoryTooLong
	}
	for _, tag := range t.Tags {
		if len(tag) > 30 {
			return ErrTagTooLong
		}
	}

	if _, err := ParseStatus(string(t.Status)); err != nil {
		return err
	}
	if _, err := ParsePriority(string(t.Priority)); err != nil {
		return err
	}

	if t.EstimatedMinutes != nil && *t.EstimatedMinutes < 0 {
		return ErrNegativeTime
	}
	if t.ActualMinutes != nil && *t.ActualMinutes < 0 {
		return ErrNegativeTime
	}

	return nil
}

// ApplyStatus transitions the task to the given status and recomputes
// CompletedAt. The invariant: CompletedAt is present iff the status is
// StatusCompleted, and it is stamped exactly once on the transition in.
func (t *Task) ApplyStatus(status Status, now time.Time) {
	t.Status = status
	if status == StatusCompleted {
		if t.CompletedAt == nil {
			completed := now.UTC()
			t.CompletedAt = &completed
		}
	} else {
		t.CompletedAt = nil
	}
}

// Subtask returns the embedded subtask with the given ID, if present.
func (t *Task) Subtask(id uuid.UUID) (*Subtask, bool) {
	for i := range t.Subtasks {
		if t.Subtasks[i].ID == id {
			return &t.Subtasks[i], true
		}
	}
	return nil, false
}
