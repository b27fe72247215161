package schedule

import (
	"time"

	"github.com/rcliao/madlab/internal/domain"
)

const (
	// DefaultHoursPerDay is the length of a workday in effort hours.
	DefaultHoursPerDay = 8
	// DefaultOverflow is the share above the weekly target the balancer
	// tolerates before penalizing a week.
	DefaultOverflow = 0.3
)

type WarningKind string

const (
	WarningCycle             WarningKind = "cycle"
	WarningUnknownDependency WarningKind = "unknown-dependency"
	WarningCompressed        WarningKind = "compressed"
	WarningUnknownPhase      WarningKind = "unknown-phase"
)

// Warning is a problem the scheduler worked around instead of failing.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	TaskIDs []string    `json:"taskIds"`
	Message string      `json:"message"`
}

// Placement is the calendar slot given to one task.
type Placement struct {
	TaskID     string
	Phase      int
	Start      time.Time
	End        time.Time
	Compressed bool
	Week       int // -1 when placed by the auto scheduler
}

// Result is the outcome of one scheduling run.
type Result struct {
	Tasks        []domain.ScheduledTask `json:"tasks"`
	Order        []string               `json:"order"`
	CriticalPath []string               `json:"criticalPath,omitempty"`
	Warnings     []Warning              `json:"warnings,omitempty"`
	ProjectStart time.Time              `json:"projectStart"`
	ProjectEnd   time.Time              `json:"projectEnd"`
}

// Task returns the scheduled task with the given id.
func (r *Result) Task(id string) (domain.ScheduledTask, bool) {
	for _, t := range r.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return domain.ScheduledTask{}, false
}
