package service

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/taskflow/taskflow-api/internal/domain"
	"github.com/taskflow/taskflow-api/internal/store"
)

// topCategoryLimit caps the category histogram on the dashboard.
const topCategoryLimit = 5

// productivityWindow is the lookback for the daily completion series.
const productivityWindow = 7 * 24 * time.Hour

// Overview holds the headline counters of the dashboard. Completion
// rates are percentages rounded to one decimal place, 0 when the
// denominator is empty.
type Overview struct {
	TotalTasks            int     `json:"totalTasks"`
	CompletedTasks        int     `json:"completedTasks"`
	PendingTasks          int     `json:"pendingTasks"`
	InProgressTasks       int     `json:"inProgressTasks"`
	OverdueTasks          int     `json:"overdueTasks"`
	TasksDueToday         int     `json:"tasksDueToday"`
	CompletionRate        float64 `json:"completionRate"`
	MonthlyCompletionRate float64 `json:"monthlyCompletionRate"`
}

// PriorityStat is one bucket of the priority histogram.
type PriorityStat struct {
	Priority domain.Priority `json:"priority"`
	Count    int             `json:"count"`
}

// Dashboard is the full analytics payload for one user.
type Dashboard struct {
	Overview           Overview              `json:"overview"`
	PriorityStats      []PriorityStat        `json:"priorityStats"`
	CategoryStats      []store.CategoryCount `json:"categoryStats"`
	WeeklyProductivity []store.DailyCount    `json:"weeklyProductivity"`
}

// AnalyticsService assembles per-user productivity summaries.
type AnalyticsService interface {
	// Dashboard computes the analytics snapshot as of now.
	Dashboard(ctx context.Context, userID uuid.UUID) (*Dashboard, error)
}

// AnalyticsServiceImpl implements the AnalyticsService interface.
type AnalyticsServiceImpl struct {
	stats    store.StatsStore
	timeFunc func() time.Time
	logger   *slog.Logger
}

var _ AnalyticsService = (*AnalyticsServiceImpl)(nil)

// NewAnalyticsService creates a new AnalyticsService.
func NewAnalyticsService(stats store.StatsStore, logger *slog.Logger) *AnalyticsServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyticsServiceImpl{
		stats:    stats,
		timeFunc: time.Now,
		logger:   logger.With(slog.String("component", "analytics_service")),
	}
}

// Dashboard assembles the counters and histograms.
func (s *AnalyticsServiceImpl) Dashboard(ctx context.Context, userID uuid.UUID) (*Dashboard, error) {
	now := s.timeFunc()

	counts, err := s.stats.CountByStatus(ctx, userID, now)
	if err != nil {
		s.logger.Error("failed to compute status counts", "error", err, "user_id", userID)
		return nil, NewServiceError("dashboard", "failed to compute status counts", err)
	}

	histogram, err := s.stats.PriorityHistogram(ctx, userID)
	if err != nil {
		s.logger.Error("failed to compute priority histogram", "error", err, "user_id", userID)
		return nil, NewServiceError("dashboard", "failed to compute priority histogram", err)
	}

	categories, err := s.stats.TopCategories(ctx, userID, topCategoryLimit)
	if err != nil {
		s.logger.Error("failed to compute top categories", "error", err, "user_id", userID)
		return nil, NewServiceError("dashboard", "failed to compute top categories", err)
	}

	productivity, err := s.stats.DailyCompletions(ctx, userID, now.Add(-productivityWindow))
	if err != nil {
		s.logger.Error("failed to compute daily completions", "error", err, "user_id", userID)
		return nil, NewServiceError("dashboard", "failed to compute daily completions", err)
	}

	priorityStats := make([]PriorityStat, 0, len(histogram))
	for _, priority := range []domain.Priority{
		domain.PriorityLow,
		domain.PriorityMedium,
		domain.PriorityHigh,
		domain.PriorityUrgent,
	} {
		if n, ok := histogram[priority]; ok {
			priorityStats = append(priorityStats, PriorityStat{Priority: priority, Count: n})
		}
	}

	if categories == nil {
		categories = []store.CategoryCount{}
	}
	if productivity == nil {
		productivity = []store.DailyCount{}
	}

	return &Dashboard{
		Overview: Overview{
			TotalTasks:            counts.Total,
			CompletedTasks:        counts.Completed,
			PendingTasks:          counts.Pending,
			InProgressTasks:       counts.InProgress,
			OverdueTasks:          counts.Overdue,
			TasksDueToday:         counts.DueToday,
			CompletionRate:        completionRate(counts.Completed, counts.Total),
			MonthlyCompletionRate: completionRate(counts.MonthlyCompleted, counts.MonthlyCreated),
		},
		PriorityStats:      priorityStats,
		CategoryStats:      categories,
		WeeklyProductivity: productivity,
	}, nil
}

// completionRate returns completed/total as a percentage rounded to one
// decimal place. A zero total yields 0 rather than NaN.
func completionRate(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(completed)/float64(total)*1000) / 10
}
