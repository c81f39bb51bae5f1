package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/taskflow-api/internal/domain"
	"github.com/taskflow/taskflow-api/internal/platform/logger"
	"github.com/taskflow/taskflow-api/internal/store"
)

// taskColumns is the select list shared by all task reads.
const taskColumns = `id, user_id, title, description, status, priority, category, tags,
	due_date, estimated_minutes, actual_minutes, is_archived, subtasks,
	completed_at, created_at, updated_at`

// priorityRank orders priorities by urgency for sorting.
const priorityRank = `CASE priority
	WHEN 'urgent' THEN 3 WHEN 'high' THEN 2 WHEN 'medium' THEN 1 ELSE 0 END`

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the
// TaskStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// WithTx implements store.TaskStore.WithTx
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.TaskStore.Create
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	tags, subtasks, err := marshalEmbedded(task)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO tasks (id, user_id, title, description, status, priority,
			category, tags, due_date, estimated_minutes, actual_minutes,
			is_archived, subtasks, completed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.Category,
		tags,
		task.DueDate,
		task.EstimatedMinutes,
		task.ActualMinutes,
		task.IsArchived,
		subtasks,
		task.CompletedAt,
		task.CreatedAt,
		task.UpdatedAt,
	)

	if err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()),
			slog.String("user_id", task.UserID.String()))
		return mapError(err)
	}

	log.Info("task created successfully",
		slog.String("task_id", task.ID.String()),
		slog.String("user_id", task.UserID.String()))
	return nil
}

// GetByID implements store.TaskStore.GetByID
// Ownership mismatch and non-existence both yield store.ErrTaskNotFound.
func (s *PostgresTaskStore) GetByID(
	ctx context.Context,
	userID, taskID uuid.UUID,
) (*domain.Task, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM tasks WHERE id = $1 AND user_id = $2`,
		taskColumns,
	)

	task, err := scanTask(s.db.QueryRowContext(ctx, query, taskID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get task",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return nil, mapError(err)
	}
	return task, nil
}

// List implements store.TaskStore.List
func (s *PostgresTaskStore) List(
	ctx context.Context,
	userID uuid.UUID,
	filter store.TaskFilter,
) ([]*domain.Task, int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	filter = filter.Normalize()
	where, args := buildTaskPredicate(userID, filter)

	countQuery := fmt.Sprintf(`SELECT count(*) FROM tasks WHERE %s`, where)
	var total int
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		log.Error("failed to count tasks",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, 0, mapError(err)
	}

	listQuery := fmt.Sprintf(
		`SELECT %s FROM tasks WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		taskColumns,
		where,
		orderClause(filter),
		len(args)+1,
		len(args)+2,
	)
	listArgs := append(args, filter.Limit, filter.Offset())

	rows, err := s.db.QueryContext(ctx, listQuery, listArgs...)
	if err != nil {
		log.Error("failed to list tasks",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, 0, mapError(err)
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]*domain.Task, 0, filter.Limit)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, 0, mapError(err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError(err)
	}

	return tasks, total, nil
}

// Update implements store.TaskStore.Update
// The partial update is applied in one conditional statement keyed on
// (id, user_id); completed_at is re-derived inside the statement when
// the status changes, so the derivation and the write cannot interleave
// with a concurrent update.
func (s *PostgresTaskStore) Update(
	ctx context.Context,
	userID, taskID uuid.UUID,
	update store.TaskUpdate,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if update.IsZero() {
		return s.GetByID(ctx, userID, taskID)
	}

	now := time.Now().UTC()
	set := []string{"updated_at = $3"}
	args := []any{taskID, userID, now}

	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Title != nil {
		add("title", *update.Title)
	}
	if update.Description != nil {
		add("description", *update.Description)
	}
	if update.Status != nil {
		add("status", *update.Status)
		// Derived field: stamped once on the transition into completed,
		// cleared on any other status.
		statusArg := len(args)
		args = append(args, now)
		set = append(set, fmt.Sprintf(
			`completed_at = CASE WHEN $%d::text = 'completed'
				THEN coalesce(completed_at, $%d) ELSE NULL END`,
			statusArg,
			len(args),
		))
	}
	if update.Priority != nil {
		add("priority", *update.Priority)
	}
	if update.Category != nil {
		add("category", *update.Category)
	}
	if update.Tags != nil {
		tags, err := json.Marshal(*update.Tags)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal tags: %w", err)
		}
		add("tags", tags)
	}
	if update.DueDate != nil {
		add("due_date", *update.DueDate)
	}
	if update.EstimatedMinutes != nil {
		add("estimated_minutes", *update.EstimatedMinutes)
	}
	if update.ActualMinutes != nil {
		add("actual_minutes", *update.ActualMinutes)
	}
	if update.IsArchived != nil {
		add("is_archived", *update.IsArchived)
	}

	query := fmt.Sprintf(
		`UPDATE tasks SET %s WHERE id = $1 AND user_id = $2 RETURNING %s`,
		strings.Join(set, ", "),
		taskColumns,
	)

	task, err := scanTask(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()),
			slog.String("user_id", userID.String()))
		return nil, mapError(err)
	}

	log.Info("task updated successfully",
		slog.String("task_id", taskID.String()),
		slog.String("user_id", userID.String()))
	return task, nil
}

// Delete implements store.TaskStore.Delete
func (s *PostgresTaskStore) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(
		ctx,
		`DELETE FROM tasks WHERE id = $1 AND user_id = $2`,
		taskID,
		userID,
	)
	if err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return mapError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if rows == 0 {
		return store.ErrTaskNotFound
	}

	log.Info("task deleted successfully",
		slog.String("task_id", taskID.String()),
		slog.String("user_id", userID.String()))
	return nil
}

// AppendSubtask implements store.TaskStore.AppendSubtask
// The append happens inside the statement, so concurrent appends to the
// same task both land.
func (s *PostgresTaskStore) AppendSubtask(
	ctx context.Context,
	userID, taskID uuid.UUID,
	subtask domain.Subtask,
) (*domain.Task, error) {
	payload, err := json.Marshal(subtask)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal subtask: %w", err)
	}

	query := fmt.Sprintf(
		`UPDATE tasks SET subtasks = subtasks || $3::jsonb, updated_at = $4
		WHERE id = $1 AND user_id = $2 RETURNING %s`,
		taskColumns,
	)

	task, err := scanTask(s.db.QueryRowContext(
		ctx, query, taskID, userID, payload, time.Now().UTC(),
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to append subtask",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return nil, mapError(err)
	}
	return task, nil
}

// SetSubtaskCompleted implements store.TaskStore.SetSubtaskCompleted
// The matching element is rewritten inside the statement, so a subtask
// appended concurrently is never overwritten by a stale array.
func (s *PostgresTaskStore) SetSubtaskCompleted(
	ctx context.Context,
	userID, taskID, subtaskID uuid.UUID,
	completed bool,
) (*domain.Task, error) {
	query := fmt.Sprintf(
		`UPDATE tasks SET
			subtasks = (
				SELECT coalesce(jsonb_agg(
					CASE WHEN elem->>'id' = $3
						THEN jsonb_set(elem, '{completed}', to_jsonb($4::boolean))
						ELSE elem END), '[]'::jsonb)
				FROM jsonb_array_elements(subtasks) AS elem
			),
			updated_at = $5
		WHERE id = $1 AND user_id = $2
			AND EXISTS (
				SELECT 1 FROM jsonb_array_elements(subtasks) AS elem
				WHERE elem->>'id' = $3
			)
		RETURNING %s`,
		taskColumns,
	)

	task, err := scanTask(s.db.QueryRowContext(
		ctx, query, taskID, userID, subtaskID.String(), completed, time.Now().UTC(),
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.missingSubtaskError(ctx, userID, taskID)
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to update subtask",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()),
			slog.String("subtask_id", subtaskID.String()))
		return nil, mapError(err)
	}
	return task, nil
}

// missingSubtaskError disambiguates the no-row outcome of a subtask
// update: a missing parent reads as a missing task, a present parent
// with no matching element as a missing subtask.
func (s *PostgresTaskStore) missingSubtaskError(ctx context.Context, userID, taskID uuid.UUID) error {
	var exists bool
	err := s.db.QueryRowContext(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1 AND user_id = $2)`,
		taskID,
		userID,
	).Scan(&exists)
	if err == nil && exists {
		return store.ErrSubtaskNotFound
	}
	return store.ErrTaskNotFound
}

// likeEscaper neutralizes LIKE metacharacters in user-supplied match
// terms so substring matches are literal.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// buildTaskPredicate composes the WHERE clause for a listing from the
// typed filter. Predicates are AND-ed; the search clause is one AND-ed
// OR-group over title, description, category and tag membership.
func buildTaskPredicate(userID uuid.UUID, filter store.TaskFilter) (string, []any) {
	conds := []string{"user_id = $1", "is_archived = $2"}
	args := []any{userID, filter.Archived}

	add := func(cond string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Status != nil {
		add("status = $%d", *filter.Status)
	}
	if filter.Priority != nil {
		add("priority = $%d", *filter.Priority)
	}
	if filter.Category != "" {
		add("category ILIKE '%%' || $%d || '%%'", likeEscaper.Replace(filter.Category))
	}

	if filter.Search != "" {
		args = append(args, likeEscaper.Replace(filter.Search))
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			`(title ILIKE '%%' || $%d || '%%'
				OR description ILIKE '%%' || $%d || '%%'
				OR category ILIKE '%%' || $%d || '%%'
				OR EXISTS (
					SELECT 1 FROM jsonb_array_elements_text(tags) AS tag
					WHERE tag ILIKE '%%' || $%d || '%%'
				))`,
			n, n, n, n,
		))
	}

	now := filter.Now
	switch filter.DueBucket {
	case store.DueBucketOverdue:
		add("due_date < $%d", now)
		conds = append(conds, fmt.Sprintf("status <> '%s'", domain.StatusCompleted))
	case store.DueBucketToday:
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		add("due_date >= $%d", midnight)
		add("due_date < $%d", midnight.AddDate(0, 0, 1))
	case store.DueBucketThisWeek:
		add("due_date >= $%d", now)
		add("due_date <= $%d", now.AddDate(0, 0, 7))
	}

	return strings.Join(conds, " AND "), args
}

// orderClause maps the whitelisted sort key to its column expression.
// A single sort key only: ties keep insertion order, no secondary key.
func orderClause(filter store.TaskFilter) string {
	var column string
	switch filter.SortBy {
	case store.SortByUpdatedAt:
		column = "updated_at"
	case store.SortByTitle:
		column = "title"
	case store.SortByDueDate:
		column = "due_date"
	case store.SortByPriority:
		column = priorityRank
	default:
		column = "created_at"
	}

	direction := "DESC"
	if filter.SortOrder == store.SortAsc {
		direction = "ASC"
	}
	return column + " " + direction
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask scans one task row including its embedded JSONB collections.
func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task        domain.Task
		tags        []byte
		subtasks    []byte
		dueDate     sql.NullTime
		estimated   sql.NullInt64
		actual      sql.NullInt64
		completedAt sql.NullTime
	)

	err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.Priority,
		&task.Category,
		&tags,
		&dueDate,
		&estimated,
		&actual,
		&task.IsArchived,
		&subtasks,
		&completedAt,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if dueDate.Valid {
		t := dueDate.Time
		task.DueDate = &t
	}
	if estimated.Valid {
		v := int(estimated.Int64)
		task.EstimatedMinutes = &v
	}
	if actual.Valid {
		v := int(actual.Int64)
		task.ActualMinutes = &v
	}
	if completedAt.Valid {
		t := completedAt.Time
		task.CompletedAt = &t
	}

	if err := json.Unmarshal(tags, &task.Tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
	}
	if err := json.Unmarshal(subtasks, &task.Subtasks); err != nil {
		return nil, fmt.Errorf("failed to unmarshal subtasks: %w", err)
	}

	return &task, nil
}

// marshalEmbedded encodes the task's JSONB collections.
func marshalEmbedded(task *domain.Task) ([]byte, []byte, error) {
	taskTags := task.Tags
	if taskTags == nil {
		taskTags = []string{}
	}
	tags, err := json.Marshal(taskTags)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal tags: %w", err)
	}

	taskSubtasks := task.Subtasks
	if taskSubtasks == nil {
		taskSubtasks = []domain.Subtask{}
	}
	subtasks, err := json.Marshal(taskSubtasks)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal subtasks: %w", err)
	}

	return tags, subtasks, nil
}
