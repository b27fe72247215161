package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rcliao/madlab/internal/domain"
	"github.com/rcliao/madlab/internal/storage"
)

// Repository keeps tasks, the Gantt configuration and schedule snapshots in
// memory. It is safe for concurrent use.
type Repository struct {
	mu        sync.RWMutex
	tasks     map[string]domain.Task
	order     []string
	gantt     *domain.GanttConfig
	snapshots []domain.ScheduleSnapshot
}

var (
	_ storage.Repository         = (*Repository)(nil)
	_ storage.SnapshotRepository = (*Repository)(nil)
)

func NewRepository() *Repository {
	return &Repository{
		tasks: make(map[string]domain.Task),
	}
}

func (r *Repository) CreateTask(_ context.Context, t domain.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tasks[t.ID]; exists {
		return fmt.Errorf("task %s: %w", t.ID, domain.ErrAlreadyExists)
	}

	r.tasks[t.ID] = t.Clone()
	r.order = append(r.order, t.ID)
	return nil
}

func (r *Repository) GetTask(_ context.Context, id string) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, exists := r.tasks[id]
	if !exists {
		return nil, fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
	}

	c := t.Clone()
	return &c, nil
}

func (r *Repository) ListTasks(_ context.Context, filter domain.TaskFilter) ([]domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Task, 0, len(r.order))
	for _, id := range r.order {
		t := r.tasks[id]
		if !filter.Matches(&t, t.Status) {
			continue
		}
		result = append(result, t.Clone())
	}
	return result, nil
}

func (r *Repository) UpdateTask(_ context.Context, t domain.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tasks[t.ID]; !exists {
		return fmt.Errorf("task %s: %w", t.ID, domain.ErrNotFound)
	}

	r.tasks[t.ID] = t.Clone()
	return nil
}

func (r *Repository) DeleteTask(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tasks[id]; !exists {
		return fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
	}

	delete(r.tasks, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *Repository) ReplaceTasks(_ context.Context, tasks []domain.Task) error {
	if err := storage.ValidateTaskSet(tasks); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.tasks = make(map[string]domain.Task, len(tasks))
	r.order = make([]string, 0, len(tasks))
	for _, t := range tasks {
		r.tasks[t.ID] = t.Clone()
		r.order = append(r.order, t.ID)
	}
	return nil
}

func (r *Repository) GetGanttConfig(_ context.Context) (domain.GanttConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.gantt == nil {
		return domain.GanttConfig{}, fmt.Errorf("gantt config: %w", domain.ErrNotFound)
	}
	return *r.gantt, nil
}

func (r *Repository) SaveGanttConfig(_ context.Context, cfg domain.GanttConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.gantt = &cfg
	return nil
}

func (r *Repository) SaveSnapshot(_ context.Context, s domain.ScheduleSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.snapshots {
		if existing.ID == s.ID {
			return fmt.Errorf("snapshot %s: %w", s.ID, domain.ErrAlreadyExists)
		}
	}
	r.snapshots = append(r.snapshots, s)
	return nil
}

func (r *Repository) ListSnapshots(_ context.Context, limit int) ([]domain.ScheduleSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.ScheduleSnapshot, len(r.snapshots))
	copy(result, r.snapshots)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
