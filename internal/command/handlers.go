package command

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rcliao/madlab/internal/domain"
	"github.com/rcliao/madlab/internal/i18n"
	"github.com/rcliao/madlab/internal/search"
	"github.com/rcliao/madlab/internal/service"
)

// FilterParams select the tasks a command works on.
type FilterParams struct {
	Phases        []int               `json:"phases,omitempty"`
	Assignees     []string            `json:"assignees,omitempty"`
	Sections      []string            `json:"sections,omitempty"`
	Statuses      []domain.TaskStatus `json:"statuses,omitempty"`
	MinDifficulty int                 `json:"minDifficulty,omitempty"`
	MaxDifficulty int                 `json:"maxDifficulty,omitempty"`
	Query         string              `json:"query,omitempty"`
}

func (p FilterParams) toDomain() domain.TaskFilter {
	return domain.TaskFilter{
		Phases:        p.Phases,
		Assignees:     p.Assignees,
		Sections:      p.Sections,
		Statuses:      p.Statuses,
		MinDifficulty: p.MinDifficulty,
		MaxDifficulty: p.MaxDifficulty,
		Query:         p.Query,
	}
}

// Task handlers
func (d *Dispatcher) handleTaskList(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p FilterParams
	if err := decode(params, &p); err != nil {
		return nil, err
	}

	return d.tasks.List(ctx, p.toDomain())
}

type GetTaskParams struct {
	ID string `json:"id"`
}

func (d *Dispatcher) handleTaskGet(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p GetTaskParams
	if err := decode(params, &p); err != nil {
		return nil, err
	}

	return d.tasks.Get(ctx, p.ID)
}

type CreateTaskParams struct {
	ID           string            `json:"id,omitempty"`
	NameES       string            `json:"nameEs"`
	NameEN       string            `json:"nameEn"`
	Assignee     string            `json:"assignee,omitempty"`
	Hours        float64           `json:"hours"`
	Difficulty   int               `json:"difficulty,omitempty"`
	Phase        int               `json:"phase,omitempty"`
	Section      string            `json:"section,omitempty"`
	Dependencies []string          `json:"dependencies,omitempty"`
	Status       domain.TaskStatus `json:"status,omitempty"`
}

func (d *Dispatcher) handleTaskCreate(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p CreateTaskParams
	if err := decode(params, &p); err != nil {
		return nil, err
	}

	task := domain.NewTask(p.ID, p.NameES, p.NameEN)

	// Apply optional fields
	task.Assignee = p.Assignee
	task.Hours = p.Hours
	task.Section = p.Section
	task.Status = p.Status
	if p.Difficulty != 0 {
		task.Difficulty = p.Difficulty
	}
	if p.Phase != 0 {
		task.Phase = p.Phase
	}
	if len(p.Dependencies) > 0 {
		task.Dependencies = p.Dependencies
	}

	return d.tasks.Create(ctx, *task)
}

type UpdateTaskParams struct {
	ID      string            `json:"id"`
	Updates service.TaskPatch `json:"updates"`
}

func (d *Dispatcher) handleTaskUpdate(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p UpdateTaskParams
	if err := decode(params, &p); err != nil {
		return nil, err
	}

	return d.tasks.Update(ctx, p.ID, p.Updates)
}

type DeleteTaskParams struct {
	ID string `json:"id"`
}

func (d *Dispatcher) handleTaskDelete(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p DeleteTaskParams
	if err := decode(params, &p); err != nil {
		return nil, err
	}

	if err := d.tasks.Delete(ctx, p.ID); err != nil {
		return nil, err
	}

	return map[string]string{"status": "success"}, nil
}

type SearchTaskParams struct {
	Query  string       `json:"query"`
	Lang   string       `json:"lang,omitempty"`
	Filter FilterParams `json:"filter,omitempty"`
	Limit  int          `json:"limit,omitempty"`
	Offset int          `json:"offset,omitempty"`
}

func (d *Dispatcher) handleTaskSearch(ctx context.Context, params json.RawMessage) (interface{}, error) {
	if d.searcher == nil {
		return nil, fmt.Errorf("search is not configured: %w", ErrUnknownMethod)
	}

	var p SearchTaskParams
	if err := decode(params, &p); err != nil {
		return nil, err
	}

	lang := d.state.Lang
	if p.Lang != "" {
		lang = i18n.ParseLang(p.Lang)
	}
	opts := search.Options{
		Filter: p.Filter.toDomain(),
		Lang:   lang,
		Limit:  p.Limit,
		Offset: p.Offset,
	}
	if opts.Limit == 0 {
		opts.Limit = 10
	}

	return d.searcher.Search(ctx, p.Query, opts)
}

// Schedule handlers
type ScheduleParams struct {
	Filter FilterParams `json:"filter,omitempty"`
}

func (d *Dispatcher) handleScheduleCompute(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p ScheduleParams
	if err := decode(params, &p); err != nil {
		return nil, err
	}

	st, err := d.loadState(ctx, p.Filter)
	if err != nil {
		return nil, err
	}
	return d.schedules.Compute(ctx, st, d.now())
}

func (d *Dispatcher) handleScheduleCritical(ctx context.Context, params json.RawMessage) (interface{}, error) {
	st, err := d.loadState(ctx, FilterParams{})
	if err != nil {
		return nil, err
	}
	return d.schedules.Critical(ctx, st, d.now())
}

func (d *Dispatcher) handleScheduleStages(ctx context.Context, params json.RawMessage) (interface{}, error) {
	st, err := d.loadState(ctx, FilterParams{})
	if err != nil {
		return nil, err
	}
	return d.schedules.Stages(ctx, st, d.now())
}

type SnapshotsParams struct {
	Limit int `json:"limit,omitempty"`
}

func (d *Dispatcher) handleScheduleSnapshots(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p SnapshotsParams
	if err := decode(params, &p); err != nil {
		return nil, err
	}

	return d.schedules.Snapshots(ctx, p.Limit)
}

func (d *Dispatcher) handleSummary(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p ScheduleParams
	if err := decode(params, &p); err != nil {
		return nil, err
	}

	st, err := d.loadState(ctx, p.Filter)
	if err != nil {
		return nil, err
	}
	return d.summaries.Generate(ctx, st, d.now())
}

// GanttPatch is a partial Gantt configuration update. Visible window dates
// use the 2006-01-02 layout; an empty string clears the bound.
type GanttPatch struct {
	TimeScale        *domain.TimeScale `json:"timeScale,omitempty"`
	Zoom             *float64          `json:"zoom,omitempty"`
	GroupBy          *domain.GroupBy   `json:"groupBy,omitempty"`
	AutoSchedule     *bool             `json:"autoSchedule,omitempty"`
	ShowCriticalPath *bool             `json:"showCriticalPath,omitempty"`
	VisibleStart     *string           `json:"visibleStart,omitempty"`
	VisibleEnd       *string           `json:"visibleEnd,omitempty"`
}

// Apply sets the patched fields on cfg.
func (p GanttPatch) Apply(cfg *domain.GanttConfig) error {
	if p.TimeScale != nil {
		cfg.TimeScale = *p.TimeScale
	}
	if p.Zoom != nil {
		cfg.Zoom = *p.Zoom
	}
	if p.GroupBy != nil {
		cfg.GroupBy = *p.GroupBy
	}
	if p.AutoSchedule != nil {
		cfg.AutoSchedule = *p.AutoSchedule
	}
	if p.ShowCriticalPath != nil {
		cfg.ShowCriticalPath = *p.ShowCriticalPath
	}

	var err error
	if p.VisibleStart != nil {
		if cfg.VisibleStart, err = parseDay(*p.VisibleStart); err != nil {
			return err
		}
	}
	if p.VisibleEnd != nil {
		if cfg.VisibleEnd, err = parseDay(*p.VisibleEnd); err != nil {
			return err
		}
	}
	return cfg.Validate()
}

func parseDay(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", s, domain.ErrNotValid)
	}
	return &d, nil
}

func (d *Dispatcher) handleGanttSet(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p GanttPatch
	if err := decode(params, &p); err != nil {
		return nil, err
	}

	cfg, err := d.schedules.GanttConfig(ctx)
	if err != nil {
		return nil, err
	}
	if err := p.Apply(&cfg); err != nil {
		return nil, err
	}
	if err := d.gantt.SaveGanttConfig(ctx, cfg); err != nil {
		return nil, err
	}

	d.logger.Infof("Gantt configuration updated")
	return cfg, nil
}
