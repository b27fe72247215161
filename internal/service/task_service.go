package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/rcliao/madlab/internal/domain"
	"github.com/rcliao/madlab/internal/log"
	"github.com/rcliao/madlab/internal/storage"
)

type TaskService struct {
	repo   storage.Repository
	logger log.Logger
	now    func() time.Time
}

func NewTaskService(repo storage.Repository, logger log.Logger) *TaskService {
	if logger == nil {
		logger = log.Noop
	}
	return &TaskService{
		repo:   repo,
		logger: logger.WithValues(log.Kv{"svc": "service.Task"}),
		now:    time.Now,
	}
}

// TaskPatch is a partial task update. Nil fields are left untouched.
type TaskPatch struct {
	NameES       *string            `json:"nameEs,omitempty"`
	NameEN       *string            `json:"nameEn,omitempty"`
	Assignee     *string            `json:"assignee,omitempty"`
	Hours        *float64           `json:"hours,omitempty"`
	Difficulty   *int               `json:"difficulty,omitempty"`
	Phase        *int               `json:"phase,omitempty"`
	Section      *string            `json:"section,omitempty"`
	Dependencies *[]string          `json:"dependencies,omitempty"`
	Status       *domain.TaskStatus `json:"status,omitempty"`
}

func (p TaskPatch) IsZero() bool {
	return p == TaskPatch{}
}

func (p TaskPatch) Apply(t *domain.Task) {
	if p.NameES != nil {
		t.Name.ES = *p.NameES
	}
	if p.NameEN != nil {
		t.Name.EN = *p.NameEN
	}
	if p.Assignee != nil {
		t.Assignee = *p.Assignee
	}
	if p.Hours != nil {
		t.Hours = *p.Hours
	}
	if p.Difficulty != nil {
		t.Difficulty = *p.Difficulty
	}
	if p.Phase != nil {
		t.Phase = *p.Phase
	}
	if p.Section != nil {
		t.Section = *p.Section
	}
	if p.Dependencies != nil {
		t.Dependencies = append([]string(nil), (*p.Dependencies)...)
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
}

func (s *TaskService) Create(ctx context.Context, t domain.Task) (*domain.Task, error) {
	now := s.now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now

	if err := s.repo.CreateTask(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Debugf("Created task %s", t.ID)
	return &t, nil
}

func (s *TaskService) Get(ctx context.Context, id string) (*domain.Task, error) {
	return s.repo.GetTask(ctx, id)
}

func (s *TaskService) Update(ctx context.Context, id string, patch TaskPatch) (*domain.Task, error) {
	t, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.IsZero() {
		return t, nil
	}

	patch.Apply(t)
	t.UpdatedAt = s.now()

	if err := s.repo.UpdateTask(ctx, *t); err != nil {
		return nil, err
	}
	s.logger.Debugf("Updated task %s", id)
	return t, nil
}

// Delete removes a task and drops it from the dependency lists of the tasks
// that referenced it.
func (s *TaskService) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteTask(ctx, id); err != nil {
		return err
	}

	tasks, err := s.repo.ListTasks(ctx, domain.TaskFilter{})
	if err != nil {
		return fmt.Errorf("could not list dependents of %s: %w", id, err)
	}
	for _, t := range tasks {
		if !slices.Contains(t.Dependencies, id) {
			continue
		}
		t.Dependencies = slices.DeleteFunc(t.Dependencies, func(d string) bool { return d == id })
		t.UpdatedAt = s.now()
		if err := s.repo.UpdateTask(ctx, t); err != nil {
			return fmt.Errorf("could not detach %s from %s: %w", id, t.ID, err)
		}
		s.logger.Debugf("Detached deleted task %s from %s", id, t.ID)
	}

	s.logger.Debugf("Deleted task %s", id)
	return nil
}

// List returns the tasks matching filter ordered by id, with numeric runs
// compared by value so t2 sorts before t10.
func (s *TaskService) List(ctx context.Context, filter domain.TaskFilter) ([]domain.Task, error) {
	tasks, err := s.repo.ListTasks(ctx, filter)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(tasks, func(a, b domain.Task) int { return CompareIDs(a.ID, b.ID) })
	return tasks, nil
}

// Import replaces the stored task set, keeping the given order.
func (s *TaskService) Import(ctx context.Context, tasks []domain.Task) (int, error) {
	now := s.now()
	stamped := make([]domain.Task, 0, len(tasks))
	hours := 0.0
	for _, t := range tasks {
		t = t.Clone()
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		if t.UpdatedAt.IsZero() {
			t.UpdatedAt = now
		}
		hours += t.Hours
		stamped = append(stamped, t)
	}

	if err := s.repo.ReplaceTasks(ctx, stamped); err != nil {
		return 0, fmt.Errorf("could not import tasks: %w", err)
	}

	s.logger.WithValues(log.Kv{"tasks": len(stamped)}).Infof("Imported %d tasks totalling %s hours", len(stamped), humanize.Ftoa(hours))
	return len(stamped), nil
}
