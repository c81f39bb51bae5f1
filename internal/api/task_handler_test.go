package api

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskflow/taskflow-api/internal/domain"
	"github.com/taskflow/taskflow-api/internal/store"
)

func (f *apiFixture) createTaskViaAPI(t *testing.T, token string, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/tasks", token, body)
	require.Equal(t, http.StatusCreated, rec.Code, "create failed: %s", rec.Body.String())
	env := decodeEnvelope(t, rec)
	require.Equal(t, "Task created successfully", env.Message)
	return dataAsMap(t, env)
}

func TestCreateTaskEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	token := f.register(t, "jane@example.com")

	data := f.createTaskViaAPI(t, token, map[string]interface{}{
		"title":    "Write report",
		"priority": "high",
		"category": "work",
		"tags":     []string{"q3", "finance"},
		"subtasks": []map[string]interface{}{
			{"title": "Draft outline"},
			{"title": "Collect figures", "completed": true},
		},
	})

	assert.Equal(t, "Write report", data["title"])
	assert.Equal(t, "high", data["priority"])
	assert.Equal(t, "pending", data["status"])

	subtasks, ok := data["subtasks"].([]interface{})
	require.True(t, ok)
	require.Len(t, subtasks, 2)
	second := subtasks[1].(map[string]interface{})
	assert.Equal(t, true, second["completed"])
}

func TestCreateTaskEndpointValidation(t *testing.T) {
	f := newAPIFixture(t)
	token := f.register(t, "jane@example.com")

	// Missing title.
	rec := f.do(t, http.MethodPost, "/api/tasks", token, map[string]interface{}{
		"priority": "high",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	require.Len(t, env.Errors, 1)
	assert.Contains(t, env.Errors[0], "title is required")

	// Enum outside the whitelist.
	rec = f.do(t, http.MethodPost, "/api/tasks", token, map[string]interface{}{
		"title":  "bad status",
		"status": "done",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown fields are rejected rather than silently dropped.
	rec = f.do(t, http.MethodPost, "/api/tasks", token, map[string]interface{}{
		"title":       "smuggled field",
		"completedAt": "2026-01-01T00:00:00Z",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetTaskEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	token := f.register(t, "jane@example.com")
	created := f.createTaskViaAPI(t, token, map[string]interface{}{"title": "Write report"})

	rec := f.do(t, http.MethodGet, "/api/tasks/"+created["id"].(string), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, created["id"], dataAsMap(t, env)["id"])

	// Unknown task.
	rec = f.do(t, http.MethodGet, "/api/tasks/"+uuid.NewString(), token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Task not found", decodeEnvelope(t, rec).Message)

	// Malformed UUID.
	rec = f.do(t, http.MethodGet, "/api/tasks/not-a-uuid", token, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTaskEndpointOwnership(t *testing.T) {
	f := newAPIFixture(t)
	ownerToken := f.register(t, "owner@example.com")
	strangerToken := f.register(t, "stranger@example.com")
	created := f.createTaskViaAPI(t, ownerToken, map[string]interface{}{"title": "private"})

	// Another user's task is a 404, not a 403.
	rec := f.do(t, http.MethodGet, "/api/tasks/"+created["id"].(string), strangerToken, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/tasks/"+created["id"].(string), strangerToken, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateTaskEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	token := f.register(t, "jane@example.com")
	created := f.createTaskViaAPI(t, token, map[string]interface{}{"title": "Write report"})

	rec := f.do(t, http.MethodPut, "/api/tasks/"+created["id"].(string), token, map[string]interface{}{
		"status":   "completed",
		"priority": "urgent",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "Task updated successfully", env.Message)
	data := dataAsMap(t, env)
	assert.Equal(t, "completed", data["status"])
	assert.Equal(t, "urgent", data["priority"])
	assert.NotEmpty(t, data["completed_at"], "completing a task stamps completed_at")

	// completed_at clears when the task leaves completed.
	rec = f.do(t, http.MethodPut, "/api/tasks/"+created["id"].(string), token, map[string]interface{}{
		"status": "pending",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	data = dataAsMap(t, decodeEnvelope(t, rec))
	assert.Nil(t, data["completed_at"])
}

func TestUpdateTaskEndpointClearsNullableFields(t *testing.T) {
	f := newAPIFixture(t)
	token := f.register(t, "jane@example.com")
	created := f.createTaskViaAPI(t, token, map[string]interface{}{
		"title":            "Write report",
		"dueDate":          "2026-09-15T12:00:00Z",
		"estimatedMinutes": 90,
	})
	path := "/api/tasks/" + created["id"].(string)

	// An update that omits both fields leaves them alone.
	rec := f.do(t, http.MethodPut, path, token, map[string]interface{}{
		"priority": "high",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	data := dataAsMap(t, decodeEnvelope(t, rec))
	assert.NotEmpty(t, data["due_date"])
	assert.EqualValues(t, 90, data["estimated_minutes"])

	// An explicit null clears them.
	rec = f.do(t, http.MethodPut, path, token, map[string]interface{}{
		"dueDate":          nil,
		"estimatedMinutes": nil,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	data = dataAsMap(t, decodeEnvelope(t, rec))
	assert.Nil(t, data["due_date"])
	assert.Nil(t, data["estimated_minutes"])

	rec = f.do(t, http.MethodPut, path, token, map[string]interface{}{
		"actualMinutes": -5,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteTaskEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	token := f.register(t, "jane@example.com")
	created := f.createTaskViaAPI(t, token, map[string]interface{}{"title": "Write report"})

	rec := f.do(t, http.MethodDelete, "/api/tasks/"+created["id"].(string), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Task deleted successfully", decodeEnvelope(t, rec).Message)

	rec = f.do(t, http.MethodGet, "/api/tasks/"+created["id"].(string), token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListTasksEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	token := f.register(t, "jane@example.com")
	for i := 0; i < 12; i++ {
		f.createTaskViaAPI(t, token, map[string]interface{}{"title": "task"})
	}

	rec := f.do(t, http.MethodGet, "/api/tasks", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := dataAsMap(t, decodeEnvelope(t, rec))

	tasks, ok := data["tasks"].([]interface{})
	require.True(t, ok)
	assert.Len(t, tasks, 10)

	pagination, ok := data["pagination"].(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 1, pagination["currentPage"])
	assert.EqualValues(t, 2, pagination["totalPages"])
	assert.EqualValues(t, 12, pagination["totalTasks"])
	assert.Equal(t, true, pagination["hasNextPage"])
	assert.Equal(t, false, pagination["hasPrevPage"])

	rec = f.do(t, http.MethodGet, "/api/tasks?page=2&limit=5", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data = dataAsMap(t, decodeEnvelope(t, rec))
	pagination = data["pagination"].(map[string]interface{})
	assert.EqualValues(t, 2, pagination["currentPage"])
	assert.EqualValues(t, 3, pagination["totalPages"])
}

func TestListTasksEndpointBadQuery(t *testing.T) {
	f := newAPIFixture(t)
	token := f.register(t, "jane@example.com")

	for _, query := range []string{
		"status=done",
		"priority=critical",
		"dueDate=nextYear",
		"page=0",
		"limit=abc",
	} {
		rec := f.do(t, http.MethodGet, "/api/tasks?"+query, token, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "query %q", query)
	}
}

func TestListTasksEndpointFilters(t *testing.T) {
	f := newAPIFixture(t)
	token := f.register(t, "jane@example.com")

	f.createTaskViaAPI(t, token, map[string]interface{}{
		"title":    "Quarterly review",
		"status":   "in-progress",
		"category": "work",
	})
	f.createTaskViaAPI(t, token, map[string]interface{}{"title": "Buy groceries"})

	rec := f.do(t, http.MethodGet, "/api/tasks?status=in-progress", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tasks := dataAsMap(t, decodeEnvelope(t, rec))["tasks"].([]interface{})
	require.Len(t, tasks, 1)
	assert.Equal(t, "Quarterly review", tasks[0].(map[string]interface{})["title"])

	rec = f.do(t, http.MethodGet, "/api/tasks?search=groceries", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tasks = dataAsMap(t, decodeEnvelope(t, rec))["tasks"].([]interface{})
	require.Len(t, tasks, 1)
	assert.Equal(t, "Buy groceries", tasks[0].(map[string]interface{})["title"])
}

func TestSubtaskEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	token := f.register(t, "jane@example.com")
	created := f.createTaskViaAPI(t, token, map[string]interface{}{"title": "Write report"})
	taskID := created["id"].(string)

	rec := f.do(t, http.MethodPost, "/api/tasks/"+taskID+"/subtasks", token, map[string]interface{}{
		"title": "Draft outline",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "Subtask added successfully", env.Message)
	subtasks := dataAsMap(t, env)["subtasks"].([]interface{})
	require.Len(t, subtasks, 1)
	subtaskID := subtasks[0].(map[string]interface{})["id"].(string)

	rec = f.do(t, http.MethodPut, "/api/tasks/"+taskID+"/subtasks/"+subtaskID, token, map[string]interface{}{
		"completed": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	env = decodeEnvelope(t, rec)
	assert.Equal(t, "Subtask updated successfully", env.Message)
	subtasks = dataAsMap(t, env)["subtasks"].([]interface{})
	assert.Equal(t, true, subtasks[0].(map[string]interface{})["completed"])

	// The completed flag is required on toggle.
	rec = f.do(t, http.MethodPut, "/api/tasks/"+taskID+"/subtasks/"+subtaskID, token, map[string]interface{}{})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown subtask on an owned task is a 404.
	rec = f.do(t, http.MethodPut, "/api/tasks/"+taskID+"/subtasks/"+uuid.NewString(), token, map[string]interface{}{
		"completed": true,
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Subtask not found", decodeEnvelope(t, rec).Message)
}

func TestAnalyticsDashboardEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	token := f.register(t, "jane@example.com")

	f.stats.Counts = store.StatusCounts{
		Total:            4,
		Completed:        3,
		Pending:          1,
		MonthlyCreated:   4,
		MonthlyCompleted: 3,
	}
	f.stats.Histogram = map[domain.Priority]int{domain.PriorityMedium: 4}
	f.stats.Categories = []store.CategoryCount{{Category: "work", Count: 4}}
	f.stats.Daily = []store.DailyCount{{Date: "2026-04-01", Count: 3}}

	rec := f.do(t, http.MethodGet, "/api/analytics/dashboard", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := dataAsMap(t, decodeEnvelope(t, rec))

	overview, ok := data["overview"].(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 4, overview["totalTasks"])
	assert.EqualValues(t, 75, overview["completionRate"])

	priorities := data["priorityStats"].([]interface{})
	require.Len(t, priorities, 1)
	assert.Equal(t, "medium", priorities[0].(map[string]interface{})["priority"])

	assert.Len(t, data["categoryStats"].([]interface{}), 1)
	assert.Len(t, data["weeklyProductivity"].([]interface{}), 1)
}
