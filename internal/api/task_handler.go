package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/taskflow/taskflow-api/internal/api/shared"
	"github.com/taskflow/taskflow-api/internal/domain"
	"github.com/taskflow/taskflow-api/internal/service"
	"github.com/taskflow/taskflow-api/internal/store"
)

// TaskHandler handles task API requests.
type TaskHandler struct {
	taskService service.TaskService
	validator   *validator.Validate
}

// NewTaskHandler creates a new TaskHandler with the given dependencies.
func NewTaskHandler(taskService service.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		validator:   validator.New(),
	}
}

// List handles GET /api/tasks.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	filter, err := taskFilterFromQuery(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	page, err := h.taskService.List(r.Context(), userID, filter)
	if err != nil {
		HandleAPIError(w, r, err, "Server error while fetching tasks")
		return
	}

	tasks := page.Tasks
	if tasks == nil {
		tasks = []*domain.Task{}
	}
	shared.RespondWithSuccess(w, r, http.StatusOK, "", TaskListResponse{
		Tasks:      tasks,
		Pagination: page.Pagination,
	})
}

// Get handles GET /api/tasks/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	task, err := h.taskService.Get(r.Context(), userID, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Server error while fetching task")
		return
	}

	shared.RespondWithSuccess(w, r, http.StatusOK, "", task)
}

// Create handles POST /api/tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CreateTaskRequest
	if err := DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithValidationErrors(w, r, validationMessages(err))
		return
	}

	task, err := taskFromCreateRequest(userID, req)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	created, err := h.taskService.Create(r.Context(), userID, task)
	if err != nil {
		HandleAPIError(w, r, err, "Server error while creating task")
		return
	}

	shared.RespondWithSuccess(w, r, http.StatusCreated, "Task created successfully", created)
}

// Update handles PUT /api/tasks/{id}.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithValidationErrors(w, r, validationMessages(err))
		return
	}

	update, err := taskUpdateFromRequest(req)
	if err != nil {
		HandleAPIError(w, r, err, "Server error while updating task")
		return
	}

	task, err := h.taskService.Update(r.Context(), userID, taskID, update)
	if err != nil {
		HandleAPIError(w, r, err, "Server error while updating task")
		return
	}

	shared.RespondWithSuccess(w, r, http.StatusOK, "Task updated successfully", task)
}

// Delete handles DELETE /api/tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.taskService.Delete(r.Context(), userID, taskID); err != nil {
		HandleAPIError(w, r, err, "Server error while deleting task")
		return
	}

	shared.RespondWithSuccess(w, r, http.StatusOK, "Task deleted successfully", nil)
}

// AddSubtask handles POST /api/tasks/{id}/subtasks.
func (h *TaskHandler) AddSubtask(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req AddSubtaskRequest
	if err := DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithValidationErrors(w, r, validationMessages(err))
		return
	}

	task, err := h.taskService.AddSubtask(r.Context(), userID, taskID, req.Title)
	if err != nil {
		HandleAPIError(w, r, err, "Server error while adding subtask")
		return
	}

	shared.RespondWithSuccess(w, r, http.StatusCreated, "Subtask added successfully", task)
}

// UpdateSubtask handles PUT /api/tasks/{id}/subtasks/{subtaskId}.
func (h *TaskHandler) UpdateSubtask(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	subtaskID, err := getPathUUID(r, "subtaskId")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req UpdateSubtaskRequest
	if err := DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithValidationErrors(w, r, validationMessages(err))
		return
	}

	task, err := h.taskService.UpdateSubtask(r.Context(), userID, taskID, subtaskID, *req.Completed)
	if err != nil {
		HandleAPIError(w, r, err, "Server error while updating subtask")
		return
	}

	shared.RespondWithSuccess(w, r, http.StatusOK, "Subtask updated successfully", task)
}

// taskFilterFromQuery builds a TaskFilter from the listing query
// parameters. Unknown enum values are rejected; missing values fall
// back to the listing defaults.
func taskFilterFromQuery(r *http.Request) (store.TaskFilter, error) {
	q := r.URL.Query()
	filter := store.TaskFilter{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Archived: q.Get("archived") == "true",
		SortBy:   store.SortField(q.Get("sortBy")),
	}

	if raw := q.Get("status"); raw != "" {
		status, err := domain.ParseStatus(raw)
		if err != nil {
			return store.TaskFilter{}, err
		}
		filter.Status = &status
	}
	if raw := q.Get("priority"); raw != "" {
		priority, err := domain.ParsePriority(raw)
		if err != nil {
			return store.TaskFilter{}, err
		}
		filter.Priority = &priority
	}

	switch bucket := store.DueBucket(q.Get("dueDate")); bucket {
	case store.DueBucketNone, store.DueBucketOverdue, store.DueBucketToday, store.DueBucketThisWeek:
		filter.DueBucket = bucket
	default:
		return store.TaskFilter{}, domain.NewValidationError("dueDate",
			"must be one of: overdue, today, thisWeek", domain.ErrValidation)
	}

	if q.Get("sortOrder") == "asc" {
		filter.SortOrder = store.SortAsc
	} else {
		filter.SortOrder = store.SortDesc
	}

	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return store.TaskFilter{}, domain.NewValidationError("page",
				"must be a positive integer", domain.ErrValidation)
		}
		filter.Page = page
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return store.TaskFilter{}, domain.NewValidationError("limit",
				"must be a positive integer", domain.ErrValidation)
		}
		filter.Limit = limit
	}

	return filter, nil
}

// taskFromCreateRequest builds the domain task from the request payload.
func taskFromCreateRequest(userID uuid.UUID, req CreateTaskRequest) (*domain.Task, error) {
	task, err := domain.NewTask(userID, req.Title)
	if err != nil {
		return nil, err
	}

	task.Description = req.Description
	task.Category = req.Category
	if req.Tags != nil {
		task.Tags = req.Tags
	}
	task.DueDate = req.DueDate
	task.EstimatedMinutes = req.EstimatedMinutes

	if req.Status != "" {
		status, err := domain.ParseStatus(req.Status)
		if err != nil {
			return nil, err
		}
		task.ApplyStatus(status, time.Now().UTC())
	}
	if req.Priority != "" {
		priority, err := domain.ParsePriority(req.Priority)
		if err != nil {
			return nil, err
		}
		task.Priority = priority
	}

	for _, sub := range req.Subtasks {
		subtask, err := domain.NewSubtask(sub.Title)
		if err != nil {
			return nil, err
		}
		subtask.Completed = sub.Completed
		task.Subtasks = append(task.Subtasks, subtask)
	}

	return task, nil
}

// taskUpdateFromRequest converts the payload into the store's partial
// update. Present fields map to set operations, an explicit null on a
// nullable field maps to a clear, and absent fields stay nil.
func taskUpdateFromRequest(req UpdateTaskRequest) (store.TaskUpdate, error) {
	update := store.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Tags:        req.Tags,
		IsArchived:  req.IsArchived,
	}

	if req.Status != nil {
		status := domain.Status(*req.Status)
		update.Status = &status
	}
	if req.Priority != nil {
		priority := domain.Priority(*req.Priority)
		update.Priority = &priority
	}
	if req.DueDate.Set {
		update.DueDate = &req.DueDate.Value
	}
	if req.EstimatedMinutes.Set {
		if req.EstimatedMinutes.Value != nil && *req.EstimatedMinutes.Value < 0 {
			return store.TaskUpdate{}, domain.ErrNegativeTime
		}
		update.EstimatedMinutes = &req.EstimatedMinutes.Value
	}
	if req.ActualMinutes.Set {
		if req.ActualMinutes.Value != nil && *req.ActualMinutes.Value < 0 {
			return store.TaskUpdate{}, domain.ErrNegativeTime
		}
		update.ActualMinutes = &req.ActualMinutes.Value
	}

	return update, nil
}
