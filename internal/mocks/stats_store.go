package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/taskflow/taskflow-api/internal/domain"
	"github.com/taskflow/taskflow-api/internal/store"
)

// MockStatsStore implements store.StatsStore with configurable results.
type MockStatsStore struct {
	Counts     store.StatusCounts
	Histogram  map[domain.Priority]int
	Categories []store.CategoryCount
	Daily      []store.DailyCount
	Err        error

	CountByStatusFn func(ctx context.Context, userID uuid.UUID, now time.Time) (store.StatusCounts, error)
}

var _ store.StatsStore = (*MockStatsStore)(nil)

func (m *MockStatsStore) CountByStatus(ctx context.Context, userID uuid.UUID, now time.Time) (store.StatusCounts, error) {
	if m.CountByStatusFn != nil {
		return m.CountByStatusFn(ctx, userID, now)
	}
	return m.Counts, m.Err
}

func (m *MockStatsStore) PriorityHistogram(_ context.Context, _ uuid.UUID) (map[domain.Priority]int, error) {
	return m.Histogram, m.Err
}

func (m *MockStatsStore) TopCategories(_ context.Context, _ uuid.UUID, limit int) ([]store.CategoryCount, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Categories) > limit {
		return m.Categories[:limit], nil
	}
	return m.Categories, nil
}

func (m *MockStatsStore) DailyCompletions(_ context.Context, _ uuid.UUID, _ time.Time) ([]store.DailyCount, error) {
	return m.Daily, m.Err
}
