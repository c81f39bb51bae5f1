package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/taskflow/taskflow-api/internal/domain"
	"github.com/taskflow/taskflow-api/internal/events"
	"github.com/taskflow/taskflow-api/internal/store"
)

// eventPublishTimeout bounds the out-of-band event delivery so a slow
// broker cannot pin goroutines indefinitely.
const eventPublishTimeout = 5 * time.Second

// Pagination describes the page window of a task listing.
type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalTasks  int  `json:"totalTasks"`
	Limit       int  `json:"limit"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

// TaskPage is one page of a user's task listing.
type TaskPage struct {
	Tasks      []*domain.Task
	Pagination Pagination
}

// TaskService provides task CRUD scoped to the owning user. Every
// operation takes the caller's user ID; tasks belonging to other users
// behave exactly as if they did not exist.
type TaskService interface {
	// List returns a filtered, sorted page of the user's tasks.
	List(ctx context.Context, userID uuid.UUID, filter store.TaskFilter) (*TaskPage, error)

	// Get retrieves one task by ID.
	Get(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)

	// Create validates and persists a new task, then emits task_created.
	Create(ctx context.Context, userID uuid.UUID, task *domain.Task) (*domain.Task, error)

	// Update applies a partial update and emits task_updated.
	Update(ctx context.Context, userID, taskID uuid.UUID, update store.TaskUpdate) (*domain.Task, error)

	// Delete removes the task and emits task_deleted.
	Delete(ctx context.Context, userID, taskID uuid.UUID) error

	// AddSubtask appends a subtask to the task's checklist.
	AddSubtask(ctx context.Context, userID, taskID uuid.UUID, title string) (*domain.Task, error)

	// UpdateSubtask sets the completion flag of one subtask.
	UpdateSubtask(ctx context.Context, userID, taskID, subtaskID uuid.UUID, completed bool) (*domain.Task, error)
}

// TaskServiceImpl implements the TaskService interface.
type TaskServiceImpl struct {
	tasks     store.TaskStore
	publisher events.Publisher
	timeFunc  func() time.Time
	logger    *slog.Logger
}

var _ TaskService = (*TaskServiceImpl)(nil)

// NewTaskService creates a new TaskService.
func NewTaskService(tasks store.TaskStore, publisher events.Publisher, logger *slog.Logger) *TaskServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskServiceImpl{
		tasks:     tasks,
		publisher: publisher,
		timeFunc:  time.Now,
		logger:    logger.With(slog.String("component", "task_service")),
	}
}

// List returns a page of tasks plus the pagination window.
func (s *TaskServiceImpl) List(ctx context.Context, userID uuid.UUID, filter store.TaskFilter) (*TaskPage, error) {
	if filter.Now.IsZero() {
		filter.Now = s.timeFunc()
	}
	filter = filter.Normalize()

	tasks, total, err := s.tasks.List(ctx, userID, filter)
	if err != nil {
		s.logger.Error("failed to list tasks", "error", err, "user_id", userID)
		return nil, NewServiceError("list_tasks", "failed to list tasks", err)
	}

	totalPages := (total + filter.Limit - 1) / filter.Limit
	return &TaskPage{
		Tasks: tasks,
		Pagination: Pagination{
			CurrentPage: filter.Page,
			TotalPages:  totalPages,
			TotalTasks:  total,
			Limit:       filter.Limit,
			HasNextPage: filter.Page < totalPages,
			HasPrevPage: filter.Page > 1,
		},
	}, nil
}

// Get retrieves one task owned by the user.
func (s *TaskServiceImpl) Get(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, userID, taskID)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		s.logger.Error("failed to retrieve task", "error", err, "task_id", taskID)
		return nil, NewServiceError("get_task", "failed to retrieve task", err)
	}
	return task, nil
}

// Create persists the task and notifies listeners.
func (s *TaskServiceImpl) Create(ctx context.Context, userID uuid.UUID, task *domain.Task) (*domain.Task, error) {
	task.UserID = userID
	if err := task.Validate(); err != nil {
		return nil, err
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		s.logger.Error("failed to create task", "error", err, "user_id", userID)
		return nil, NewServiceError("create_task", "failed to save task", err)
	}

	s.logger.Info("task created", "task_id", task.ID, "user_id", userID)
	s.notify(events.TypeTaskCreated, userID, task)
	return task, nil
}

// Update applies the partial update atomically in the store.
func (s *TaskServiceImpl) Update(ctx context.Context, userID, taskID uuid.UUID, update store.TaskUpdate) (*domain.Task, error) {
	if update.IsZero() {
		return s.Get(ctx, userID, taskID)
	}

	task, err := s.tasks.Update(ctx, userID, taskID, update)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		s.logger.Error("failed to update task", "error", err, "task_id", taskID)
		return nil, NewServiceError("update_task", "failed to update task", err)
	}

	s.logger.Info("task updated", "task_id", taskID, "user_id", userID)
	s.notify(events.TypeTaskUpdated, userID, task)
	return task, nil
}

// Delete removes the task.
func (s *TaskServiceImpl) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	if err := s.tasks.Delete(ctx, userID, taskID); err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return ErrTaskNotFound
		}
		s.logger.Error("failed to delete task", "error", err, "task_id", taskID)
		return NewServiceError("delete_task", "failed to delete task", err)
	}

	s.logger.Info("task deleted", "task_id", taskID, "user_id", userID)
	s.notify(events.TypeTaskDeleted, userID, struct {
		ID uuid.UUID `json:"id"`
	}{ID: taskID})
	return nil
}

// AddSubtask appends a new subtask to the task's checklist.
func (s *TaskServiceImpl) AddSubtask(ctx context.Context, userID, taskID uuid.UUID, title string) (*domain.Task, error) {
	subtask, err := domain.NewSubtask(title)
	if err != nil {
		return nil, err
	}

	task, err := s.tasks.AppendSubtask(ctx, userID, taskID, subtask)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		s.logger.Error("failed to add subtask", "error", err, "task_id", taskID)
		return nil, NewServiceError("add_subtask", "failed to add subtask", err)
	}

	s.logger.Info("subtask added", "task_id", taskID, "subtask_id", subtask.ID)
	s.notify(events.TypeTaskUpdated, userID, task)
	return task, nil
}

// UpdateSubtask flips the completion flag of one subtask. The rewrite
// happens in a single conditional statement in the store, so sibling
// subtasks written concurrently are never clobbered. Ownership of the
// parent resolves before the subtask lookup: a missing subtask on
// someone else's task still reads as a missing task.
func (s *TaskServiceImpl) UpdateSubtask(ctx context.Context, userID, taskID, subtaskID uuid.UUID, completed bool) (*domain.Task, error) {
	task, err := s.tasks.SetSubtaskCompleted(ctx, userID, taskID, subtaskID, completed)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		if errors.Is(err, store.ErrSubtaskNotFound) {
			return nil, ErrSubtaskNotFound
		}
		s.logger.Error("failed to update subtask", "error", err, "task_id", taskID)
		return nil, NewServiceError("update_subtask", "failed to update subtask", err)
	}

	s.logger.Info("subtask updated", "task_id", taskID, "subtask_id", subtaskID)
	s.notify(events.TypeTaskUpdated, userID, task)
	return task, nil
}

// notify emits an event on the user's topic without blocking the
// request. Delivery failures are logged and otherwise ignored.
func (s *TaskServiceImpl) notify(eventType string, userID uuid.UUID, payload interface{}) {
	event, err := events.NewTaskEvent(eventType, userID, payload)
	if err != nil {
		s.logger.Error("failed to build event",
			"error", err,
			"event_type", eventType,
			"user_id", userID)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), eventPublishTimeout)
		defer cancel()
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Error("failed to publish event",
				"error", err,
				"event_id", event.ID,
				"event_type", eventType)
		}
	}()
}
