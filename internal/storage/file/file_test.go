package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/madlab/internal/domain"
	"github.com/rcliao/madlab/internal/log"
)

var created = time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)

func newTask(id string, deps ...string) domain.Task {
	return domain.Task{
		ID:           id,
		Name:         domain.LocalizedText{ES: "Tarea " + id, EN: "Task " + id},
		Assignee:     "Ana",
		Hours:        12,
		Difficulty:   2,
		Phase:        1,
		Section:      "Docs",
		Dependencies: deps,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
}

func newRepo(t *testing.T, dir string) *Repository {
	t.Helper()
	repo, err := NewRepository(RepositoryConfig{BasePath: dir, Logger: log.Noop})
	require.NoError(t, err)
	return repo
}

func TestNewRepository_RequiresBasePath(t *testing.T) {
	_, err := NewRepository(RepositoryConfig{})
	assert.Error(t, err)
}

func TestRepository_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	repo := newRepo(t, dir)
	require.NoError(t, repo.CreateTask(ctx, newTask("a")))
	require.NoError(t, repo.CreateTask(ctx, newTask("b", "a")))

	reopened := newRepo(t, dir)
	tasks, err := reopened.ListTasks(ctx, domain.TaskFilter{})
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, newTask("b", "a"), tasks[1])

	_, err = os.Stat(filepath.Join(dir, ".madlab", "tasks.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, ".madlab", "tasks.json.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestRepository_TaskOperations(t *testing.T) {
	tests := map[string]struct {
		run    func(ctx context.Context, r *Repository) error
		expErr error
		expIDs []string
	}{
		"Creating a duplicate fails": {
			run: func(ctx context.Context, r *Repository) error {
				return r.CreateTask(ctx, newTask("a"))
			},
			expErr: domain.ErrAlreadyExists,
			expIDs: []string{"a", "b"},
		},
		"Updating keeps the position": {
			run: func(ctx context.Context, r *Repository) error {
				t := newTask("a")
				t.Hours = 40
				return r.UpdateTask(ctx, t)
			},
			expIDs: []string{"a", "b"},
		},
		"Updating a missing task fails": {
			run: func(ctx context.Context, r *Repository) error {
				return r.UpdateTask(ctx, newTask("zzz"))
			},
			expErr: domain.ErrNotFound,
			expIDs: []string{"a", "b"},
		},
		"Deleting removes the task": {
			run: func(ctx context.Context, r *Repository) error {
				return r.DeleteTask(ctx, "a")
			},
			expIDs: []string{"b"},
		},
		"Deleting a missing task fails": {
			run: func(ctx context.Context, r *Repository) error {
				return r.DeleteTask(ctx, "zzz")
			},
			expErr: domain.ErrNotFound,
			expIDs: []string{"a", "b"},
		},
		"Replacing swaps the whole set": {
			run: func(ctx context.Context, r *Repository) error {
				return r.ReplaceTasks(ctx, []domain.Task{newTask("z"), newTask("y", "z")})
			},
			expIDs: []string{"z", "y"},
		},
		"Replacing with an invalid task fails": {
			run: func(ctx context.Context, r *Repository) error {
				bad := newTask("z")
				bad.Phase = 7
				return r.ReplaceTasks(ctx, []domain.Task{bad})
			},
			expErr: domain.ErrNotValid,
			expIDs: []string{"a", "b"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			ctx := context.Background()
			repo := newRepo(t, t.TempDir())
			require.NoError(repo.CreateTask(ctx, newTask("a")))
			require.NoError(repo.CreateTask(ctx, newTask("b", "a")))

			err := test.run(ctx, repo)
			if test.expErr != nil {
				assert.ErrorIs(err, test.expErr)
			} else {
				assert.NoError(err)
			}

			tasks, err := repo.ListTasks(ctx, domain.TaskFilter{})
			require.NoError(err)
			ids := make([]string, 0, len(tasks))
			for _, task := range tasks {
				ids = append(ids, task.ID)
			}
			assert.Equal(test.expIDs, ids)
		})
	}
}

func TestRepository_GetTask(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t, t.TempDir())
	require.NoError(t, repo.CreateTask(ctx, newTask("a")))

	got, err := repo.GetTask(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Tarea a", got.Name.ES)

	_, err = repo.GetTask(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRepository_ListTasksFilter(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t, t.TempDir())
	other := newTask("b")
	other.Assignee = "Luis"
	require.NoError(t, repo.ReplaceTasks(ctx, []domain.Task{newTask("a"), other}))

	tasks, err := repo.ListTasks(ctx, domain.TaskFilter{Assignees: []string{"luis"}})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "b", tasks[0].ID)
}

func TestRepository_GanttConfig(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	repo := newRepo(t, dir)

	_, err := repo.GetGanttConfig(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// A saved default is still a saved configuration.
	require.NoError(t, repo.SaveGanttConfig(ctx, domain.DefaultGanttConfig()))
	cfg, err := newRepo(t, dir).GetGanttConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultGanttConfig(), cfg)

	start := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	cfg.TimeScale = domain.ScaleMonth
	cfg.GroupBy = domain.GroupAssignee
	cfg.VisibleStart = &start
	require.NoError(t, repo.SaveGanttConfig(ctx, cfg))

	got, err := newRepo(t, dir).GetGanttConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.ScaleMonth, got.TimeScale)
	assert.Equal(t, domain.GroupAssignee, got.GroupBy)
	require.NotNil(t, got.VisibleStart)
	assert.True(t, start.Equal(*got.VisibleStart))

	cfg.GroupBy = "color"
	assert.ErrorIs(t, repo.SaveGanttConfig(ctx, cfg), domain.ErrNotValid)
}

func TestRepository_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	repo := newRepo(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".madlab", "tasks.json"), []byte("{not json"), 0644))

	_, err := repo.ListTasks(context.Background(), domain.TaskFilter{})
	assert.Error(t, err)
}
