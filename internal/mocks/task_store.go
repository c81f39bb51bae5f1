package mocks

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskflow/taskflow-api/internal/domain"
	"github.com/taskflow/taskflow-api/internal/store"
)

// MemoryTaskStore is an in-memory store.TaskStore. Filtering, sorting,
// and pagination mirror the Postgres implementation closely enough for
// service-level tests.
type MemoryTaskStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*domain.Task

	CreateErr error
	UpdateErr error
}

var _ store.TaskStore = (*MemoryTaskStore)(nil)

// NewMemoryTaskStore creates an empty in-memory task store.
func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{tasks: make(map[uuid.UUID]*domain.Task)}
}

func (s *MemoryTaskStore) Create(_ context.Context, task *domain.Task) error {
	if s.CreateErr != nil {
		return s.CreateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = cloneTask(task)
	return nil
}

func (s *MemoryTaskStore) GetByID(_ context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOwned(userID, taskID)
}

func (s *MemoryTaskStore) List(_ context.Context, userID uuid.UUID, filter store.TaskFilter) ([]*domain.Task, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	filter = filter.Normalize()

	var matched []*domain.Task
	for _, task := range s.tasks {
		if task.UserID != userID || task.IsArchived != filter.Archived {
			continue
		}
		if filter.Status != nil && task.Status != *filter.Status {
			continue
		}
		if filter.Priority != nil && task.Priority != *filter.Priority {
			continue
		}
		if filter.Category != "" && !strings.Contains(strings.ToLower(task.Category), strings.ToLower(filter.Category)) {
			continue
		}
		if filter.Search != "" && !matchesSearch(task, filter.Search) {
			continue
		}
		if !matchesBucket(task, filter.DueBucket, filter.Now) {
			continue
		}
		matched = append(matched, task)
	}

	sortTasks(matched, filter.SortBy, filter.SortOrder)

	total := len(matched)
	start := filter.Offset()
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}

	page := make([]*domain.Task, 0, end-start)
	for _, task := range matched[start:end] {
		page = append(page, cloneTask(task))
	}
	return page, total, nil
}

func (s *MemoryTaskStore) Update(_ context.Context, userID, taskID uuid.UUID, update store.TaskUpdate) (*domain.Task, error) {
	if s.UpdateErr != nil {
		return nil, s.UpdateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.getStored(userID, taskID)
	if err != nil {
		return nil, err
	}

	if update.Title != nil {
		task.Title = *update.Title
	}
	if update.Description != nil {
		task.Description = *update.Description
	}
	if update.Status != nil {
		task.ApplyStatus(*update.Status, time.Now().UTC())
	}
	if update.Priority != nil {
		task.Priority = *update.Priority
	}
	if update.Category != nil {
		task.Category = *update.Category
	}
	if update.Tags != nil {
		task.Tags = append([]string(nil), (*update.Tags)...)
	}
	if update.DueDate != nil {
		task.DueDate = copyTime(*update.DueDate)
	}
	if update.EstimatedMinutes != nil {
		task.EstimatedMinutes = copyInt(*update.EstimatedMinutes)
	}
	if update.ActualMinutes != nil {
		task.ActualMinutes = copyInt(*update.ActualMinutes)
	}
	if update.IsArchived != nil {
		task.IsArchived = *update.IsArchived
	}
	task.UpdatedAt = time.Now().UTC()

	return cloneTask(task), nil
}

func (s *MemoryTaskStore) Delete(_ context.Context, userID, taskID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.getStored(userID, taskID); err != nil {
		return err
	}
	delete(s.tasks, taskID)
	return nil
}

func (s *MemoryTaskStore) AppendSubtask(_ context.Context, userID, taskID uuid.UUID, subtask domain.Subtask) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.getStored(userID, taskID)
	if err != nil {
		return nil, err
	}
	task.Subtasks = append(task.Subtasks, subtask)
	task.UpdatedAt = time.Now().UTC()
	return cloneTask(task), nil
}

func (s *MemoryTaskStore) SetSubtaskCompleted(_ context.Context, userID, taskID, subtaskID uuid.UUID, completed bool) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.getStored(userID, taskID)
	if err != nil {
		return nil, err
	}
	subtask, ok := task.Subtask(subtaskID)
	if !ok {
		return nil, store.ErrSubtaskNotFound
	}
	subtask.Completed = completed
	task.UpdatedAt = time.Now().UTC()
	return cloneTask(task), nil
}

func (s *MemoryTaskStore) WithTx(_ *sql.Tx) store.TaskStore {
	return s
}

func (s *MemoryTaskStore) getOwned(userID, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.getStored(userID, taskID)
	if err != nil {
		return nil, err
	}
	return cloneTask(task), nil
}

func (s *MemoryTaskStore) getStored(userID, taskID uuid.UUID) (*domain.Task, error) {
	task, ok := s.tasks[taskID]
	if !ok || task.UserID != userID {
		return nil, store.ErrTaskNotFound
	}
	return task, nil
}

func matchesSearch(task *domain.Task, search string) bool {
	needle := strings.ToLower(search)
	if strings.Contains(strings.ToLower(task.Title), needle) ||
		strings.Contains(strings.ToLower(task.Description), needle) ||
		strings.Contains(strings.ToLower(task.Category), needle) {
		return true
	}
	for _, tag := range task.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

func matchesBucket(task *domain.Task, bucket store.DueBucket, now time.Time) bool {
	switch bucket {
	case store.DueBucketNone:
		return true
	case store.DueBucketOverdue:
		return task.DueDate != nil && task.DueDate.Before(now) &&
			task.Status != domain.StatusCompleted
	case store.DueBucketToday:
		if task.DueDate == nil {
			return false
		}
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		return !task.DueDate.Before(midnight) && task.DueDate.Before(midnight.AddDate(0, 0, 1))
	case store.DueBucketThisWeek:
		if task.DueDate == nil {
			return false
		}
		return !task.DueDate.Before(now) && !task.DueDate.After(now.AddDate(0, 0, 7))
	}
	return false
}

func priorityRank(p domain.Priority) int {
	switch p {
	case domain.PriorityUrgent:
		return 3
	case domain.PriorityHigh:
		return 2
	case domain.PriorityMedium:
		return 1
	}
	return 0
}

func sortTasks(tasks []*domain.Task, sortBy store.SortField, order store.SortOrder) {
	less := func(a, b *domain.Task) bool {
		switch sortBy {
		case store.SortByTitle:
			return a.Title < b.Title
		case store.SortByUpdatedAt:
			return a.UpdatedAt.Before(b.UpdatedAt)
		case store.SortByDueDate:
			if a.DueDate == nil || b.DueDate == nil {
				return b.DueDate == nil && a.DueDate != nil
			}
			return a.DueDate.Before(*b.DueDate)
		case store.SortByPriority:
			return priorityRank(a.Priority) < priorityRank(b.Priority)
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		if order == store.SortDesc {
			return less(tasks[j], tasks[i])
		}
		return less(tasks[i], tasks[j])
	})
}

func cloneTask(t *domain.Task) *domain.Task {
	clone := *t
	clone.Tags = append([]string(nil), t.Tags...)
	clone.Subtasks = append([]domain.Subtask(nil), t.Subtasks...)
	clone.DueDate = copyTime(t.DueDate)
	clone.CompletedAt = copyTime(t.CompletedAt)
	clone.EstimatedMinutes = copyInt(t.EstimatedMinutes)
	clone.ActualMinutes = copyInt(t.ActualMinutes)
	return &clone
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	copied := *v
	return &copied
}
