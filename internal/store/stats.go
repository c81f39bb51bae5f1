package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/taskflow-api/internal/domain"
)

// StatusCounts holds the per-user task counters the dashboard is built
// from. Monthly figures are windowed to the start of the calendar month.
type StatusCounts struct {
	Total            int
	Completed        int
	Pending          int
	InProgress       int
	Overdue          int
	DueToday         int
	MonthlyCreated   int
	MonthlyCompleted int
}

// CategoryCount is one bucket of the category histogram.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// DailyCount is one day's completion tally. Date is the calendar day of
// completed_at formatted as 2006-01-02.
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// StatsStore defines the aggregate queries backing the analytics engine.
// All queries are scoped to a single user.
type StatsStore interface {
	// CountByStatus computes the counter block in one pass. now anchors
	// the overdue, due-today and calendar-month windows.
	CountByStatus(ctx context.Context, userID uuid.UUID, now time.Time) (StatusCounts, error)

	// PriorityHistogram groups the user's tasks by priority.
	PriorityHistogram(ctx context.Context, userID uuid.UUID) (map[domain.Priority]int, error)

	// TopCategories returns up to limit categories ordered by count
	// descending. Tasks without a category are excluded.
	TopCategories(ctx context.Context, userID uuid.UUID, limit int) ([]CategoryCount, error)

	// DailyCompletions buckets completions by calendar day of
	// completed_at, from since onward, in ascending date order. Days with
	// no completions are absent rather than zero-filled.
	DailyCompletions(ctx context.Context, userID uuid.UUID, since time.Time) ([]DailyCount, error)
}
