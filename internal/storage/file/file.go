package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rcliao/madlab/internal/domain"
	"github.com/rcliao/madlab/internal/log"
	"github.com/rcliao/madlab/internal/storage"
)

const (
	dirName       = ".madlab"
	tasksFileName = "tasks.json"
	ganttFileName = "gantt.json"
)

// RepositoryConfig is the configuration for the JSON file repository.
type RepositoryConfig struct {
	// BasePath is the directory holding the .madlab cache directory.
	BasePath string
	Logger   log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.BasePath == "" {
		return fmt.Errorf("base path is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.File"})
	return nil
}

// Repository is the offline cache: the task set and the Gantt configuration
// as JSON files under <base>/.madlab. Every write replaces the whole file
// through a temp file and a rename.
type Repository struct {
	dir    string
	mu     sync.RWMutex
	logger log.Logger
}

var _ storage.Repository = (*Repository)(nil)

func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dir := filepath.Join(cfg.BasePath, dirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	cfg.Logger.Debugf("File repository initialized at %s", dir)
	return &Repository{dir: dir, logger: cfg.Logger}, nil
}

func (r *Repository) tasksPath() string { return filepath.Join(r.dir, tasksFileName) }
func (r *Repository) ganttPath() string { return filepath.Join(r.dir, ganttFileName) }

func (r *Repository) saveJSON(path string, data any) error {
	tempPath := path + ".tmp"

	f, err := os.Create(tempPath)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		f.Close()
		os.Remove(tempPath)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tempPath)
		return err
	}

	return os.Rename(tempPath, path)
}

func (r *Repository) loadJSON(path string, target any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return json.NewDecoder(f).Decode(target)
}

func (r *Repository) loadTasks() ([]domain.Task, error) {
	var tasks []domain.Task
	err := r.loadJSON(r.tasksPath(), &tasks)
	if errors.Is(err, os.ErrNotExist) {
		return make([]domain.Task, 0), nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read tasks: %w", err)
	}
	return tasks, nil
}

func (r *Repository) saveTasks(tasks []domain.Task) error {
	if err := r.saveJSON(r.tasksPath(), tasks); err != nil {
		return fmt.Errorf("could not write tasks: %w", err)
	}
	return nil
}

func indexOf(tasks []domain.Task, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *Repository) CreateTask(ctx context.Context, t domain.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tasks, err := r.loadTasks()
	if err != nil {
		return err
	}
	if indexOf(tasks, t.ID) >= 0 {
		return fmt.Errorf("task %s: %w", t.ID, domain.ErrAlreadyExists)
	}

	if err := r.saveTasks(append(tasks, t)); err != nil {
		return err
	}
	r.logger.Debugf("Created task: %s", t.ID)
	return nil
}

func (r *Repository) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tasks, err := r.loadTasks()
	if err != nil {
		return nil, err
	}
	i := indexOf(tasks, id)
	if i < 0 {
		return nil, fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
	}
	return &tasks[i], nil
}

func (r *Repository) ListTasks(ctx context.Context, filter domain.TaskFilter) ([]domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tasks, err := r.loadTasks()
	if err != nil {
		return nil, err
	}
	if filter.IsZero() {
		return tasks, nil
	}

	filtered := make([]domain.Task, 0, len(tasks))
	for i := range tasks {
		if filter.Matches(&tasks[i], tasks[i].Status) {
			filtered = append(filtered, tasks[i])
		}
	}
	return filtered, nil
}

func (r *Repository) UpdateTask(ctx context.Context, t domain.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tasks, err := r.loadTasks()
	if err != nil {
		return err
	}
	i := indexOf(tasks, t.ID)
	if i < 0 {
		return fmt.Errorf("task %s: %w", t.ID, domain.ErrNotFound)
	}
	tasks[i] = t

	if err := r.saveTasks(tasks); err != nil {
		return err
	}
	r.logger.Debugf("Updated task: %s", t.ID)
	return nil
}

func (r *Repository) DeleteTask(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tasks, err := r.loadTasks()
	if err != nil {
		return err
	}
	i := indexOf(tasks, id)
	if i < 0 {
		return fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
	}

	if err := r.saveTasks(append(tasks[:i], tasks[i+1:]...)); err != nil {
		return err
	}
	r.logger.Debugf("Deleted task: %s", id)
	return nil
}

func (r *Repository) ReplaceTasks(ctx context.Context, tasks []domain.Task) error {
	if err := storage.ValidateTaskSet(tasks); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if tasks == nil {
		tasks = make([]domain.Task, 0)
	}
	if err := r.saveTasks(tasks); err != nil {
		return err
	}
	r.logger.Debugf("Replaced task set with %d tasks", len(tasks))
	return nil
}

func (r *Repository) GetGanttConfig(ctx context.Context) (domain.GanttConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg := domain.DefaultGanttConfig()
	err := r.loadJSON(r.ganttPath(), &cfg)
	if errors.Is(err, os.ErrNotExist) {
		return domain.GanttConfig{}, fmt.Errorf("gantt config: %w", domain.ErrNotFound)
	}
	if err != nil {
		return domain.GanttConfig{}, fmt.Errorf("could not read gantt config: %w", err)
	}
	return cfg, nil
}

func (r *Repository) SaveGanttConfig(ctx context.Context, cfg domain.GanttConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.saveJSON(r.ganttPath(), cfg); err != nil {
		return fmt.Errorf("could not write gantt config: %w", err)
	}
	return nil
}
