package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskflow/taskflow-api/internal/domain"
	"github.com/taskflow/taskflow-api/internal/store"
)

func TestBuildTaskPredicate(t *testing.T) {
	userID := uuid.New()

	t.Run("base predicate scopes ownership and archive state", func(t *testing.T) {
		where, args := buildTaskPredicate(userID, store.TaskFilter{}.Normalize())
		assert.Contains(t, where, "user_id = $1")
		assert.Contains(t, where, "is_archived = $2")
		require.Len(t, args, 2)
		assert.Equal(t, userID, args[0])
		assert.Equal(t, false, args[1])
	})

	t.Run("status and priority compose with AND", func(t *testing.T) {
		status := domain.StatusInProgress
		priority := domain.PriorityHigh
		where, args := buildTaskPredicate(userID, store.TaskFilter{
			Status:   &status,
			Priority: &priority,
		}.Normalize())
		assert.Contains(t, where, "status = $3")
		assert.Contains(t, where, "priority = $4")
		assert.Equal(t, 4, strings.Count(where, " AND ")+1, "all predicates join with AND")
		require.Len(t, args, 4)
		assert.Equal(t, status, args[2])
		assert.Equal(t, priority, args[3])
	})

	t.Run("search expands to one OR clause over four fields", func(t *testing.T) {
		where, args := buildTaskPredicate(userID, store.TaskFilter{Search: "report"}.Normalize())
		assert.Contains(t, where, "title ILIKE")
		assert.Contains(t, where, "description ILIKE")
		assert.Contains(t, where, "jsonb_array_elements_text(tags)")
		// One bound parameter reused for all four arms.
		require.Len(t, args, 3)
		assert.Equal(t, "report", args[2])
	})

	t.Run("like metacharacters in match terms bind escaped", func(t *testing.T) {
		_, args := buildTaskPredicate(userID, store.TaskFilter{Search: `50%_done\`}.Normalize())
		require.Len(t, args, 3)
		assert.Equal(t, `50\%\_done\\`, args[2])

		_, args = buildTaskPredicate(userID, store.TaskFilter{Category: "q_3"}.Normalize())
		require.Len(t, args, 3)
		assert.Equal(t, `q\_3`, args[2])
	})

	t.Run("overdue bucket excludes completed tasks", func(t *testing.T) {
		now := time.Date(2026, 4, 1, 15, 0, 0, 0, time.UTC)
		where, args := buildTaskPredicate(userID, store.TaskFilter{
			DueBucket: store.DueBucketOverdue,
			Now:       now,
		}.Normalize())
		assert.Contains(t, where, "due_date < $3")
		assert.Contains(t, where, "status <> 'completed'")
		require.Len(t, args, 3)
		assert.Equal(t, now, args[2])
	})

	t.Run("today bucket spans the calendar day", func(t *testing.T) {
		now := time.Date(2026, 4, 1, 15, 30, 0, 0, time.UTC)
		where, args := buildTaskPredicate(userID, store.TaskFilter{
			DueBucket: store.DueBucketToday,
			Now:       now,
		}.Normalize())
		assert.Contains(t, where, "due_date >= $3")
		assert.Contains(t, where, "due_date < $4")
		require.Len(t, args, 4)
		assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), args[2])
		assert.Equal(t, time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC), args[3])
	})

	t.Run("this week bucket spans seven days from now", func(t *testing.T) {
		now := time.Date(2026, 4, 1, 15, 0, 0, 0, time.UTC)
		where, args := buildTaskPredicate(userID, store.TaskFilter{
			DueBucket: store.DueBucketThisWeek,
			Now:       now,
		}.Normalize())
		assert.Contains(t, where, "due_date >= $3")
		assert.Contains(t, where, "due_date <= $4")
		require.Len(t, args, 4)
		assert.Equal(t, now.AddDate(0, 0, 7), args[3])
	})
}

func TestOrderClause(t *testing.T) {
	tests := []struct {
		name   string
		filter store.TaskFilter
		want   string
	}{
		{"default newest first", store.TaskFilter{}.Normalize(), "created_at DESC"},
		{"title ascending", store.TaskFilter{SortBy: store.SortByTitle, SortOrder: store.SortAsc}.Normalize(), "title ASC"},
		{"due date descending", store.TaskFilter{SortBy: store.SortByDueDate}.Normalize(), "due_date DESC"},
		{"updated at", store.TaskFilter{SortBy: store.SortByUpdatedAt}.Normalize(), "updated_at DESC"},
		{"unknown key falls back", store.TaskFilter{SortBy: "evil; DROP TABLE tasks"}.Normalize(), "created_at DESC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, orderClause(tt.filter))
		})
	}

	// Priority sorts by rank, not alphabetically.
	clause := orderClause(store.TaskFilter{SortBy: store.SortByPriority, SortOrder: store.SortAsc}.Normalize())
	assert.Contains(t, clause, "CASE priority")
	assert.True(t, strings.HasSuffix(clause, "ASC"))
}

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError(nil))

	err := mapError(sql.ErrNoRows)
	assert.ErrorIs(t, err, store.ErrNotFound)

	unique := &pgconn.PgError{Code: "23505", ConstraintName: "idx_users_email_lower"}
	err = mapError(fmt.Errorf("insert: %w", unique))
	assert.ErrorIs(t, err, store.ErrDuplicate)
	assert.True(t, isUniqueViolation(unique))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", unique)))

	fk := &pgconn.PgError{Code: "23503", ConstraintName: "tasks_user_id_fkey"}
	err = mapError(fk)
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
	assert.Contains(t, err.Error(), "tasks_user_id_fkey")

	check := &pgconn.PgError{Code: "23514", ConstraintName: "tasks_status_check"}
	assert.ErrorIs(t, mapError(check), store.ErrInvalidEntity)

	// Unrecognized errors pass through untouched.
	plain := errors.New("connection refused")
	assert.Equal(t, plain, mapError(plain))
	assert.False(t, isUniqueViolation(plain))
}
