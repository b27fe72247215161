package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/madlab/internal/domain"
)

func newTask(id string, phase int, deps ...string) domain.Task {
	t := domain.NewTask(id, "Tarea "+id, "Task "+id)
	t.Phase = phase
	t.Hours = 8
	t.Dependencies = deps
	return *t
}

func TestRepository_TaskOperations(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	task := newTask("a", 1)
	err := repo.CreateTask(ctx, task)
	assert.NoError(t, err)

	// Duplicate creation fails.
	err = repo.CreateTask(ctx, task)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	retrieved, err := repo.GetTask(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Task a", retrieved.Name.EN)

	// Mutating the returned task must not leak into the store.
	retrieved.Dependencies = append(retrieved.Dependencies, "zzz")
	again, err := repo.GetTask(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, again.Dependencies)

	task.Name.EN = "Renamed"
	task.Status = domain.StatusReview
	err = repo.UpdateTask(ctx, task)
	assert.NoError(t, err)
	updated, err := repo.GetTask(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name.EN)
	assert.Equal(t, domain.StatusReview, updated.Status)

	err = repo.DeleteTask(ctx, "a")
	assert.NoError(t, err)
	_, err = repo.GetTask(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = repo.DeleteTask(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	err = repo.UpdateTask(ctx, task)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRepository_InvalidTaskRejected(t *testing.T) {
	repo := NewRepository()
	task := newTask("a", 1)
	task.Difficulty = 9

	err := repo.CreateTask(context.Background(), task)
	assert.ErrorIs(t, err, domain.ErrNotValid)
}

func TestRepository_ListTasks(t *testing.T) {
	tests := map[string]struct {
		filter domain.TaskFilter
		expIDs []string
	}{
		"No filter keeps insertion order": {
			expIDs: []string{"c", "a", "b"},
		},
		"Phase filter": {
			filter: domain.TaskFilter{Phases: []int{2}},
			expIDs: []string{"a"},
		},
		"Query filter matches the Spanish name": {
			filter: domain.TaskFilter{Query: "tarea b"},
			expIDs: []string{"b"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			ctx := context.Background()
			repo := NewRepository()
			require.NoError(repo.CreateTask(ctx, newTask("c", 1)))
			require.NoError(repo.CreateTask(ctx, newTask("a", 2)))
			require.NoError(repo.CreateTask(ctx, newTask("b", 3)))

			tasks, err := repo.ListTasks(ctx, test.filter)
			require.NoError(err)

			ids := make([]string, 0, len(tasks))
			for _, task := range tasks {
				ids = append(ids, task.ID)
			}
			assert.Equal(test.expIDs, ids)
		})
	}
}

func TestRepository_ReplaceTasks(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()
	require.NoError(t, repo.CreateTask(ctx, newTask("old", 1)))

	err := repo.ReplaceTasks(ctx, []domain.Task{newTask("x", 1), newTask("y", 2, "x")})
	require.NoError(t, err)

	tasks, err := repo.ListTasks(ctx, domain.TaskFilter{})
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "x", tasks[0].ID)
	assert.Equal(t, []string{"x"}, tasks[1].Dependencies)

	// Duplicate ids leave the stored set untouched.
	err = repo.ReplaceTasks(ctx, []domain.Task{newTask("x", 1), newTask("x", 1)})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	tasks, err = repo.ListTasks(ctx, domain.TaskFilter{})
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}

func TestRepository_GanttConfig(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	_, err := repo.GetGanttConfig(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// A saved default is still a saved configuration.
	require.NoError(t, repo.SaveGanttConfig(ctx, domain.DefaultGanttConfig()))
	cfg, err := repo.GetGanttConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultGanttConfig(), cfg)

	cfg.TimeScale = domain.ScaleDay
	cfg.ShowCriticalPath = true
	require.NoError(t, repo.SaveGanttConfig(ctx, cfg))

	got, err := repo.GetGanttConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)

	cfg.Zoom = 10
	assert.ErrorIs(t, repo.SaveGanttConfig(ctx, cfg), domain.ErrNotValid)
}

func TestRepository_Snapshots(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()
	base := time.Date(2025, 8, 11, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.SaveSnapshot(ctx, domain.ScheduleSnapshot{ID: "s1", CreatedAt: base}))
	require.NoError(t, repo.SaveSnapshot(ctx, domain.ScheduleSnapshot{ID: "s2", CreatedAt: base.Add(time.Hour)}))
	assert.ErrorIs(t, repo.SaveSnapshot(ctx, domain.ScheduleSnapshot{ID: "s1"}), domain.ErrAlreadyExists)

	all, err := repo.ListSnapshots(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "s2", all[0].ID)

	latest, err := repo.ListSnapshots(ctx, 1)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, "s2", latest[0].ID)
}
