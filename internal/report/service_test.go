package report

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/internal/errs"
	"taskflow/internal/models"
	"taskflow/internal/permission"
	"taskflow/internal/storage/sqlite"
)

func TestProjectStats(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := sqlite.Open(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()

	observer, err := store.CreateTeamMember(ctx, models.TeamMember{
		ClerkUserID: "clerk_observer",
		Name:        "Odile",
		Email:       "odile@example.com",
	})
	require.NoError(t, err)
	_, err = store.CreateTeamMember(ctx, models.TeamMember{
		ClerkUserID: "clerk_outsider",
		Name:        "Oscar",
		Email:       "oscar@example.com",
	})
	require.NoError(t, err)

	proj, err := store.CreateProject(ctx, models.Project{
		Name:        "Statistiques",
		StartDate:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
		ClerkUserID: "clerk_observer",
	})
	require.NoError(t, err)
	require.NoError(t, store.AttachMember(ctx, proj.ID, observer.ID, models.RoleObserver))

	todo, err := store.CreateColumn(ctx, models.Column{ProjectID: proj.ID, Title: "À faire", Order: 0})
	require.NoError(t, err)
	done, err := store.CreateColumn(ctx, models.Column{ProjectID: proj.ID, Title: "Terminé", Order: 1})
	require.NoError(t, err)

	for i, tc := range []struct {
		column models.Column
		status models.Status
		est    int64
		actual int64
	}{
		{todo, models.StatusTodo, 60, 10},
		{todo, models.StatusTodo, 30, 0},
		{done, models.StatusDone, 120, 90},
		{done, models.StatusDone, 45, 50},
	} {
		_, err := store.CreateTask(ctx, models.Task{
			ColumnID:      tc.column.ID,
			Title:         "Tâche",
			Status:        tc.status,
			Priority:      models.PriorityMedium,
			EstimatedTime: tc.est,
			ActualTime:    tc.actual,
			CreatorID:     "clerk_observer",
		})
		require.NoError(t, err, "task %d", i)
	}

	svc := NewService(store, permission.New(store), logger)

	stats, err := svc.ProjectStats(ctx, proj.ID, observer.ClerkUserID)
	require.NoError(t, err)

	assert.Equal(t, 4, stats.TotalTasks)
	assert.Equal(t, 2, stats.ByStatus[models.StatusTodo])
	assert.Equal(t, 2, stats.ByStatus[models.StatusDone])
	assert.EqualValues(t, 255, stats.EstimatedTime)
	assert.EqualValues(t, 150, stats.ActualTime)
	assert.InDelta(t, 0.5, stats.CompletionRate, 1e-9)
	require.Len(t, stats.Columns, 2)
	assert.Equal(t, 2, stats.Columns[0].TaskCount)

	// Outsiders may not read stats, anonymous callers may not either.
	_, err = svc.ProjectStats(ctx, proj.ID, "clerk_outsider")
	require.ErrorIs(t, err, errs.ErrPermissionDenied)
	_, err = svc.ProjectStats(ctx, proj.ID, "")
	require.ErrorIs(t, err, errs.ErrUnauthenticated)
}
