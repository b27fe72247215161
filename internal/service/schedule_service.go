package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/rcliao/madlab/internal/cpm"
	"github.com/rcliao/madlab/internal/domain"
	"github.com/rcliao/madlab/internal/log"
	"github.com/rcliao/madlab/internal/schedule"
	"github.com/rcliao/madlab/internal/storage"
)

// ScheduleServiceConfig is the configuration for the schedule service.
type ScheduleServiceConfig struct {
	Repository storage.Repository
	// Snapshots, when set, receives a copy of every computed schedule.
	Snapshots storage.SnapshotRepository
	Options   schedule.Options
	// GanttDefaults is used while the repository holds no saved Gantt
	// configuration. Defaults to domain.DefaultGanttConfig.
	GanttDefaults domain.GanttConfig
	Logger        log.Logger
}

func (c *ScheduleServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.GanttDefaults == (domain.GanttConfig{}) {
		c.GanttDefaults = domain.DefaultGanttConfig()
	}
	if err := c.GanttDefaults.Validate(); err != nil {
		return fmt.Errorf("invalid gantt defaults: %w", err)
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "service.Schedule"})
	return nil
}

// ScheduleService runs the scheduler over the stored task set.
type ScheduleService struct {
	repo          storage.Repository
	snapshots     storage.SnapshotRepository
	scheduler     *schedule.Scheduler
	ganttDefaults domain.GanttConfig
	logger        log.Logger
	clock         func() time.Time
}

func NewScheduleService(cfg ScheduleServiceConfig) (*ScheduleService, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &ScheduleService{
		repo:          cfg.Repository,
		snapshots:     cfg.Snapshots,
		scheduler:     schedule.New(cfg.Options),
		ganttDefaults: cfg.GanttDefaults,
		logger:        cfg.Logger,
		clock:         time.Now,
	}, nil
}

// Plan is a computed schedule together with the tasks that pass the
// state's filter. Scheduling always runs over the whole task set so
// filtered-out prerequisites still push their dependents.
type Plan struct {
	*schedule.Result
	Visible    []domain.ScheduledTask `json:"visible"`
	SnapshotID string                 `json:"snapshotId,omitempty"`
}

// Load refreshes the state's tasks and Gantt configuration from the
// repository.
func (s *ScheduleService) Load(ctx context.Context, state *domain.AppState) error {
	tasks, err := s.repo.ListTasks(ctx, domain.TaskFilter{})
	if err != nil {
		return fmt.Errorf("could not load tasks: %w", err)
	}
	cfg, err := s.GanttConfig(ctx)
	if err != nil {
		return err
	}

	state.Tasks = tasks
	state.Gantt = cfg
	return nil
}

// GanttConfig returns the saved Gantt configuration, or the service's
// defaults when none has been saved. A saved configuration always wins, even
// one equal to the defaults of another source.
func (s *ScheduleService) GanttConfig(ctx context.Context) (domain.GanttConfig, error) {
	cfg, err := s.repo.GetGanttConfig(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return s.ganttDefaults, nil
	}
	if err != nil {
		return domain.GanttConfig{}, fmt.Errorf("could not load gantt config: %w", err)
	}
	return cfg, nil
}

// Compute reloads the task set into state and schedules it with the state's
// phases and Gantt configuration.
func (s *ScheduleService) Compute(ctx context.Context, state *domain.AppState, now time.Time) (*Plan, error) {
	tasks, err := s.repo.ListTasks(ctx, domain.TaskFilter{})
	if err != nil {
		return nil, fmt.Errorf("could not load tasks: %w", err)
	}
	state.Tasks = tasks

	return s.schedule(ctx, state, state.Gantt, now)
}

// Critical schedules the task set with critical path analysis on and
// returns the critical tasks in schedule order.
func (s *ScheduleService) Critical(ctx context.Context, state *domain.AppState, now time.Time) ([]domain.ScheduledTask, error) {
	plan, err := s.criticalPlan(ctx, state, now)
	if err != nil {
		return nil, err
	}

	critical := make([]domain.ScheduledTask, 0, len(plan.CriticalPath))
	for _, t := range plan.Tasks {
		if t.Critical {
			critical = append(critical, t)
		}
	}
	return critical, nil
}

// Stage is a set of tasks that can begin together, Start workdays after the
// project starts.
type Stage struct {
	Start    int                    `json:"start"`
	Critical bool                   `json:"critical"`
	Tasks    []domain.ScheduledTask `json:"tasks"`
}

// Stages schedules the task set and groups it by earliest start, the way the
// critical path analysis sees it. Critical tasks lead their stage.
func (s *ScheduleService) Stages(ctx context.Context, state *domain.AppState, now time.Time) ([]Stage, error) {
	plan, err := s.criticalPlan(ctx, state, now)
	if err != nil {
		return nil, err
	}

	analysis := cpm.Analyze(cpm.FromScheduled(plan.Tasks))
	stages := make([]Stage, 0, len(analysis.Stages))
	for _, st := range analysis.Stages {
		stage := Stage{Start: st.Start, Critical: st.Critical, Tasks: make([]domain.ScheduledTask, 0, len(st.TaskIDs))}
		for _, id := range st.TaskIDs {
			if t, ok := plan.Task(id); ok {
				stage.Tasks = append(stage.Tasks, t)
			}
		}
		stages = append(stages, stage)
	}
	return stages, nil
}

func (s *ScheduleService) criticalPlan(ctx context.Context, state *domain.AppState, now time.Time) (*Plan, error) {
	tasks, err := s.repo.ListTasks(ctx, domain.TaskFilter{})
	if err != nil {
		return nil, fmt.Errorf("could not load tasks: %w", err)
	}
	state.Tasks = tasks

	cfg := state.Gantt
	cfg.ShowCriticalPath = true
	return s.schedule(ctx, state, cfg, now)
}

func (s *ScheduleService) schedule(ctx context.Context, state *domain.AppState, cfg domain.GanttConfig, now time.Time) (*Plan, error) {
	result, err := s.scheduler.Schedule(state.Tasks, state.Phases, cfg, now)
	if err != nil {
		return nil, fmt.Errorf("could not schedule tasks: %w", err)
	}

	plan := &Plan{Result: result, Visible: make([]domain.ScheduledTask, 0, len(result.Tasks))}
	for _, t := range result.Tasks {
		if state.Filter.Matches(&t.Task, t.EffectiveStatus) {
			plan.Visible = append(plan.Visible, t)
		}
	}

	for _, w := range result.Warnings {
		s.logger.WithValues(log.Kv{"kind": w.Kind}).Warningf("%s", w.Message)
	}
	s.logger.Debugf("Scheduled %d tasks (%d visible) from %s to %s", len(result.Tasks), len(plan.Visible),
		result.ProjectStart.Format(time.DateOnly), result.ProjectEnd.Format(time.DateOnly))

	if s.snapshots != nil {
		snap := domain.ScheduleSnapshot{
			ID:           ulid.Make().String(),
			CreatedAt:    s.clock().UTC(),
			Now:          now,
			AutoSchedule: cfg.AutoSchedule,
			Tasks:        result.Tasks,
			CriticalPath: result.CriticalPath,
		}
		if err := s.snapshots.SaveSnapshot(ctx, snap); err != nil {
			return nil, fmt.Errorf("could not save schedule snapshot: %w", err)
		}
		plan.SnapshotID = snap.ID
		s.logger.Debugf("Saved schedule snapshot %s", snap.ID)
	}

	return plan, nil
}

// Snapshots lists stored schedules, newest first.
func (s *ScheduleService) Snapshots(ctx context.Context, limit int) ([]domain.ScheduleSnapshot, error) {
	if s.snapshots == nil {
		return []domain.ScheduleSnapshot{}, nil
	}
	return s.snapshots.ListSnapshots(ctx, limit)
}
