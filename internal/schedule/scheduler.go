package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/rcliao/madlab/internal/cpm"
	"github.com/rcliao/madlab/internal/domain"
	"github.com/rcliao/madlab/internal/graph"
)

// Options tunes a Scheduler.
type Options struct {
	// Strict rejects task sets with dependency cycles or dangling
	// dependencies. When false they are reported as warnings and the
	// schedule is best effort.
	Strict      bool
	HoursPerDay int
	Overflow    float64
}

func (o *Options) defaults() {
	if o.HoursPerDay <= 0 {
		o.HoursPerDay = DefaultHoursPerDay
	}
	if o.Overflow < 0 {
		o.Overflow = 0
	}
}

// Scheduler turns tasks and a phase calendar into dated tasks. It holds no
// state between runs: the same input always yields the same result.
type Scheduler struct {
	opts Options
}

func New(opts Options) *Scheduler {
	opts.defaults()
	return &Scheduler{opts: opts}
}

// DefaultOptions are strict with the default workday and overflow.
func DefaultOptions() Options {
	return Options{Strict: true, HoursPerDay: DefaultHoursPerDay, Overflow: DefaultOverflow}
}

// Schedule computes dates for tasks. cfg.AutoSchedule selects the strict
// phase-bounded assigner, otherwise the workload balancer runs.
// cfg.ShowCriticalPath adds critical path flags. now drives derived progress
// and which weeks the balancer may still use.
func (s *Scheduler) Schedule(tasks []domain.Task, phases domain.PhaseCalendar, cfg domain.GanttConfig, now time.Time) (*Result, error) {
	if err := phases.Validate(); err != nil {
		return nil, fmt.Errorf("invalid phase calendar: %w", err)
	}

	g := graph.Build(tasks)

	var warnings []Warning
	if err := g.Validate(); err != nil {
		if s.opts.Strict {
			return nil, err
		}
		warnings = append(warnings, validationWarnings(err)...)
	}

	order := g.Sequence()

	var placed map[string]Placement
	var placeWarnings []Warning
	if cfg.AutoSchedule {
		placed, placeWarnings = AssignDates(g, order, phases, s.opts.HoursPerDay)
	} else {
		placed, placeWarnings = BalanceWorkload(g, order, phases, now, s.opts.HoursPerDay, s.opts.Overflow)
	}
	warnings = append(warnings, placeWarnings...)

	result := &Result{Warnings: warnings}
	for _, id := range order {
		pl, ok := placed[id]
		if !ok {
			continue
		}
		t := g.Tasks[id].Clone()

		var succ []string
		for _, sid := range g.Successors(id) {
			if _, ok := placed[sid]; ok {
				succ = append(succ, sid)
			}
		}

		progress, status := Progress(t.Status, pl.Start, pl.End, now)
		result.Tasks = append(result.Tasks, domain.ScheduledTask{
			Task:            t,
			Start:           pl.Start,
			End:             pl.End,
			Progress:        progress,
			Successors:      succ,
			Compressed:      pl.Compressed,
			Week:            pl.Week,
			EffectiveStatus: status,
		})
		result.Order = append(result.Order, id)

		if result.ProjectStart.IsZero() || pl.Start.Before(result.ProjectStart) {
			result.ProjectStart = pl.Start
		}
		if pl.End.After(result.ProjectEnd) {
			result.ProjectEnd = pl.End
		}
	}

	if cfg.ShowCriticalPath {
		result.CriticalPath = MarkCritical(result.Tasks)
	}

	return result, nil
}

// MarkCritical runs the critical path method over scheduled tasks, sets
// their Critical flag and returns the critical ids in task order. It can be
// called again on the same tasks with the same outcome.
func MarkCritical(tasks []domain.ScheduledTask) []string {
	analysis := cpm.Analyze(cpm.FromScheduled(tasks))
	for i := range tasks {
		tasks[i].Critical = analysis.IsCritical(tasks[i].ID)
	}
	return analysis.CriticalPath
}

func validationWarnings(err error) []Warning {
	var verr *graph.ValidationError
	if !errors.As(err, &verr) {
		return []Warning{{Kind: WarningCycle, Message: err.Error()}}
	}

	var warnings []Warning
	for _, c := range verr.Cycles {
		warnings = append(warnings, Warning{Kind: WarningCycle, TaskIDs: c.Involved(), Message: c.Error()})
	}
	for _, u := range verr.Unknown {
		warnings = append(warnings, Warning{Kind: WarningUnknownDependency, TaskIDs: []string{u.TaskID}, Message: u.Error()})
	}
	return warnings
}
