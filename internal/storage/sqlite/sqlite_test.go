package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/madlab/internal/domain"
	"github.com/rcliao/madlab/internal/log"
	"github.com/rcliao/madlab/internal/storage/sqlite"
)

var created = time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)

func getTestRepo(t *testing.T, path string) *sqlite.Repository {
	t.Helper()

	repo, err := sqlite.NewRepository(context.Background(), sqlite.RepositoryConfig{DBPath: path, Logger: log.Noop})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newTask(id string, deps ...string) domain.Task {
	return domain.Task{
		ID:           id,
		Name:         domain.LocalizedText{ES: "Tarea " + id, EN: "Task " + id},
		Assignee:     "Equipo",
		Hours:        6.5,
		Difficulty:   3,
		Phase:        2,
		Section:      "Contenidos",
		Dependencies: deps,
		Status:       domain.StatusPlanning,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
}

func taskIDs(tasks []domain.Task) []string {
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	return ids
}

func TestNewRepository_RequiresPath(t *testing.T) {
	_, err := sqlite.NewRepository(context.Background(), sqlite.RepositoryConfig{})
	assert.Error(t, err)
}

func TestRepository_CreateAndGet(t *testing.T) {
	tests := map[string]struct {
		task   domain.Task
		expErr error
	}{
		"A task with ordered dependencies is stored as is": {
			task: newTask("c", "b", "a"),
		},
		"A task without dependencies is stored as is": {
			task: newTask("a"),
		},
		"An invalid task is rejected": {
			task: func() domain.Task {
				t := newTask("x")
				t.Difficulty = 0
				return t
			}(),
			expErr: domain.ErrNotValid,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			ctx := context.Background()
			repo := getTestRepo(t, filepath.Join(t.TempDir(), "madlab.db"))

			err := repo.CreateTask(ctx, test.task)
			if test.expErr != nil {
				assert.ErrorIs(err, test.expErr)
				return
			}
			require.NoError(err)

			got, err := repo.GetTask(ctx, test.task.ID)
			require.NoError(err)
			assert.Equal(test.task, *got)
		})
	}
}

func TestRepository_DuplicateAndMissing(t *testing.T) {
	ctx := context.Background()
	repo := getTestRepo(t, filepath.Join(t.TempDir(), "madlab.db"))

	require.NoError(t, repo.CreateTask(ctx, newTask("a")))
	assert.ErrorIs(t, repo.CreateTask(ctx, newTask("a")), domain.ErrAlreadyExists)

	_, err := repo.GetTask(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, repo.UpdateTask(ctx, newTask("nope")), domain.ErrNotFound)
	assert.ErrorIs(t, repo.DeleteTask(ctx, "nope"), domain.ErrNotFound)
}

func TestRepository_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := getTestRepo(t, filepath.Join(t.TempDir(), "madlab.db"))

	require.NoError(t, repo.CreateTask(ctx, newTask("a")))
	require.NoError(t, repo.CreateTask(ctx, newTask("b", "a")))
	require.NoError(t, repo.CreateTask(ctx, newTask("c")))

	updated := newTask("b", "c", "a")
	updated.Hours = 20
	updated.Status = domain.StatusCompleted
	require.NoError(t, repo.UpdateTask(ctx, updated))

	got, err := repo.GetTask(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, updated, *got)

	require.NoError(t, repo.DeleteTask(ctx, "a"))
	tasks, err := repo.ListTasks(ctx, domain.TaskFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, taskIDs(tasks))
	// Dangling references survive the deletion; the scheduler reports them.
	assert.Equal(t, []string{"c", "a"}, tasks[0].Dependencies)
}

func TestRepository_ListTasks(t *testing.T) {
	ctx := context.Background()
	repo := getTestRepo(t, filepath.Join(t.TempDir(), "madlab.db"))

	other := newTask("a")
	other.Phase = 4
	other.Status = ""
	require.NoError(t, repo.CreateTask(ctx, newTask("z")))
	require.NoError(t, repo.CreateTask(ctx, other))
	require.NoError(t, repo.CreateTask(ctx, newTask("m", "z")))

	all, err := repo.ListTasks(ctx, domain.TaskFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a", "m"}, taskIDs(all))

	phase4, err := repo.ListTasks(ctx, domain.TaskFilter{Phases: []int{4}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, taskIDs(phase4))

	planning, err := repo.ListTasks(ctx, domain.TaskFilter{Statuses: []domain.TaskStatus{domain.StatusPlanning}})
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "m"}, taskIDs(planning))
}

func TestRepository_ReplaceTasks(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "madlab.db")
	repo := getTestRepo(t, path)

	require.NoError(t, repo.CreateTask(ctx, newTask("old")))
	require.NoError(t, repo.ReplaceTasks(ctx, []domain.Task{newTask("q"), newTask("p", "q")}))

	err := repo.ReplaceTasks(ctx, []domain.Task{newTask("d"), newTask("d")})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	// Reopening runs the migrations again without changes.
	reopened := getTestRepo(t, path)
	tasks, err := reopened.ListTasks(ctx, domain.TaskFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"q", "p"}, taskIDs(tasks))
	assert.Equal(t, []string{"q"}, tasks[1].Dependencies)
}

func TestRepository_GanttConfig(t *testing.T) {
	ctx := context.Background()
	repo := getTestRepo(t, filepath.Join(t.TempDir(), "madlab.db"))

	_, err := repo.GetGanttConfig(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// A saved default is still a saved configuration.
	require.NoError(t, repo.SaveGanttConfig(ctx, domain.DefaultGanttConfig()))
	cfg, err := repo.GetGanttConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultGanttConfig(), cfg)

	start := time.Date(2025, 9, 6, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 10, 3, 0, 0, 0, 0, time.UTC)
	cfg = domain.GanttConfig{
		TimeScale:        domain.ScaleDay,
		VisibleStart:     &start,
		VisibleEnd:       &end,
		Zoom:             1.5,
		GroupBy:          domain.GroupSection,
		AutoSchedule:     false,
		ShowCriticalPath: true,
	}
	require.NoError(t, repo.SaveGanttConfig(ctx, cfg))
	got, err := repo.GetGanttConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)

	// Saving again overwrites the single row.
	cfg.VisibleStart = nil
	cfg.Zoom = 2
	require.NoError(t, repo.SaveGanttConfig(ctx, cfg))
	got, err = repo.GetGanttConfig(ctx)
	require.NoError(t, err)
	assert.Nil(t, got.VisibleStart)
	assert.Equal(t, 2.0, got.Zoom)
}

func TestRepository_Snapshots(t *testing.T) {
	ctx := context.Background()
	repo := getTestRepo(t, filepath.Join(t.TempDir(), "madlab.db"))

	first := domain.ScheduleSnapshot{
		ID:           "01J0000000000000000000000A",
		CreatedAt:    created,
		AutoSchedule: true,
		CriticalPath: []string{"a"},
		Tasks: []domain.ScheduledTask{
			{Task: newTask("a"), Start: created, End: created, Critical: true},
		},
	}
	second := domain.ScheduleSnapshot{
		ID:        "01J0000000000000000000000B",
		CreatedAt: created.Add(time.Hour),
	}
	require.NoError(t, repo.SaveSnapshot(ctx, first))
	require.NoError(t, repo.SaveSnapshot(ctx, second))
	assert.ErrorIs(t, repo.SaveSnapshot(ctx, first), domain.ErrAlreadyExists)
	assert.ErrorIs(t, repo.SaveSnapshot(ctx, domain.ScheduleSnapshot{}), domain.ErrNotValid)

	all, err := repo.ListSnapshots(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)
	assert.Equal(t, []string{"a"}, all[1].CriticalPath)
	require.Len(t, all[1].Tasks, 1)
	assert.True(t, all[1].Tasks[0].Critical)

	latest, err := repo.ListSnapshots(ctx, 1)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, second.ID, latest[0].ID)
}
