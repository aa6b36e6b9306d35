// Package report aggregates per-project task statistics.
package report

import (
	"context"
	"log/slog"

	"taskflow/internal/errs"
	"taskflow/internal/models"
	"taskflow/internal/permission"
	"taskflow/internal/storage/sqlite"
)

// ColumnStats is the task count of one board column.
type ColumnStats struct {
	ColumnID  int64  `json:"column_id"`
	Title     string `json:"title"`
	TaskCount int    `json:"task_count"`
}

// Stats summarizes a project's board.
type Stats struct {
	ProjectID      int64                 `json:"project_id"`
	TotalTasks     int                   `json:"total_tasks"`
	ByStatus       map[models.Status]int `json:"by_status"`
	EstimatedTime  int64                 `json:"estimated_time"`
	ActualTime     int64                 `json:"actual_time"`
	CompletionRate float64               `json:"completion_rate"`
	Columns        []ColumnStats         `json:"columns"`
}

// Service computes project statistics.
type Service struct {
	store  *sqlite.Store
	perm   *permission.Evaluator
	logger *slog.Logger
}

// NewService constructs the report service.
func NewService(store *sqlite.Store, perm *permission.Evaluator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, perm: perm, logger: logger}
}

// ProjectStats aggregates task counts and time totals for a project. Any
// project role may read stats; outsiders are denied.
func (s *Service) ProjectStats(ctx context.Context, projectID int64, actorID string) (Stats, error) {
	if actorID == "" {
		return Stats{}, errs.ErrUnauthenticated
	}
	allowed, err := s.perm.Evaluate(ctx, projectID, actorID, models.RoleObserver)
	if err != nil {
		return Stats{}, err
	}
	if !allowed {
		return Stats{}, errs.Deniedf("not a member of this project")
	}

	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return Stats{}, err
	}
	columns, err := s.store.ListColumns(ctx, projectID)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		ProjectID: projectID,
		ByStatus:  make(map[models.Status]int, len(models.ValidStatuses)),
	}
	for _, col := range columns {
		tasks, err := s.store.ListTasksByColumn(ctx, col.ID)
		if err != nil {
			return Stats{}, err
		}
		stats.Columns = append(stats.Columns, ColumnStats{
			ColumnID:  col.ID,
			Title:     col.Title,
			TaskCount: len(tasks),
		})
		for _, t := range tasks {
			stats.TotalTasks++
			stats.ByStatus[t.Status]++
			stats.EstimatedTime += t.EstimatedTime
			stats.ActualTime += t.ActualTime
		}
	}
	if stats.TotalTasks > 0 {
		stats.CompletionRate = float64(stats.ByStatus[models.StatusDone]) / float64(stats.TotalTasks)
	}
	return stats, nil
}
