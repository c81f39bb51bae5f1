package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/taskflow-api/internal/domain"
	"github.com/taskflow/taskflow-api/internal/platform/logger"
	"github.com/taskflow/taskflow-api/internal/store"
)

// PostgresStatsStore implements the store.StatsStore interface
// using a PostgreSQL database as the storage backend.
type PostgresStatsStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresStatsStore creates a new PostgreSQL implementation of the
// StatsStore interface.
func NewPostgresStatsStore(db store.DBTX, logger *slog.Logger) *PostgresStatsStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresStatsStore{
		db:     db,
		logger: logger.With(slog.String("component", "stats_store")),
	}
}

// Ensure PostgresStatsStore implements store.StatsStore interface
var _ store.StatsStore = (*PostgresStatsStore)(nil)

// CountByStatus implements store.StatsStore.CountByStatus
// All counters come back in a single aggregate pass using FILTER
// clauses rather than one query per counter.
func (s *PostgresStatsStore) CountByStatus(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
) (store.StatusCounts, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	query := `
		SELECT
			count(*),
			count(*) FILTER (WHERE status = 'completed'),
			count(*) FILTER (WHERE status = 'pending'),
			count(*) FILTER (WHERE status = 'in-progress'),
			count(*) FILTER (WHERE due_date < $2 AND status <> 'completed'),
			count(*) FILTER (WHERE due_date >= $3 AND due_date < $4),
			count(*) FILTER (WHERE created_at >= $5),
			count(*) FILTER (WHERE status = 'completed' AND completed_at >= $5)
		FROM tasks
		WHERE user_id = $1
	`

	var counts store.StatusCounts
	err := s.db.QueryRowContext(
		ctx, query, userID, now, midnight, midnight.AddDate(0, 0, 1), monthStart,
	).Scan(
		&counts.Total,
		&counts.Completed,
		&counts.Pending,
		&counts.InProgress,
		&counts.Overdue,
		&counts.DueToday,
		&counts.MonthlyCreated,
		&counts.MonthlyCompleted,
	)
	if err != nil {
		log.Error("failed to count tasks by status",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return store.StatusCounts{}, mapError(err)
	}

	return counts, nil
}

// PriorityHistogram implements store.StatsStore.PriorityHistogram
func (s *PostgresStatsStore) PriorityHistogram(
	ctx context.Context,
	userID uuid.UUID,
) (map[domain.Priority]int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT priority, count(*) FROM tasks WHERE user_id = $1 GROUP BY priority`,
		userID,
	)
	if err != nil {
		log.Error("failed to compute priority histogram",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, mapError(err)
	}
	defer func() { _ = rows.Close() }()

	histogram := make(map[domain.Priority]int)
	for rows.Next() {
		var (
			priority domain.Priority
			count    int
		)
		if err := rows.Scan(&priority, &count); err != nil {
			return nil, mapError(err)
		}
		histogram[priority] = count
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return histogram, nil
}

// TopCategories implements store.StatsStore.TopCategories
// Uncategorized tasks are excluded.
func (s *PostgresStatsStore) TopCategories(
	ctx context.Context,
	userID uuid.UUID,
	limit int,
) ([]store.CategoryCount, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT category, count(*) AS n
		FROM tasks
		WHERE user_id = $1 AND category <> ''
		GROUP BY category
		ORDER BY n DESC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		log.Error("failed to compute category histogram",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, mapError(err)
	}
	defer func() { _ = rows.Close() }()

	categories := make([]store.CategoryCount, 0, limit)
	for rows.Next() {
		var cc store.CategoryCount
		if err := rows.Scan(&cc.Category, &cc.Count); err != nil {
			return nil, mapError(err)
		}
		categories = append(categories, cc)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return categories, nil
}

// DailyCompletions implements store.StatsStore.DailyCompletions
// Days without completions are simply absent from the series.
func (s *PostgresStatsStore) DailyCompletions(
	ctx context.Context,
	userID uuid.UUID,
	since time.Time,
) ([]store.DailyCount, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT to_char(completed_at, 'YYYY-MM-DD') AS day, count(*)
		FROM tasks
		WHERE user_id = $1 AND completed_at >= $2
		GROUP BY day
		ORDER BY day ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID, since)
	if err != nil {
		log.Error("failed to compute daily completions",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, mapError(err)
	}
	defer func() { _ = rows.Close() }()

	var series []store.DailyCount
	for rows.Next() {
		var dc store.DailyCount
		if err := rows.Scan(&dc.Date, &dc.Count); err != nil {
			return nil, mapError(err)
		}
		series = append(series, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return series, nil
}
