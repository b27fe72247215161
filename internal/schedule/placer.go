package schedule

import (
	"time"

	"github.com/rcliao/madlab/internal/domain"
	"github.com/rcliao/madlab/internal/graph"
)

// placer turns a lower bound and an effort estimate into dates inside a
// phase window. It remembers every placement so later tasks can read their
// prerequisites' end dates.
type placer struct {
	g           *graph.TaskGraph
	hoursPerDay int
	placed      map[string]Placement
}

func newPlacer(g *graph.TaskGraph, hoursPerDay int) *placer {
	return &placer{
		g:           g,
		hoursPerDay: hoursPerDay,
		placed:      make(map[string]Placement, g.TaskCount()),
	}
}

// place schedules a task no earlier than lower, one day after the end of any
// placed prerequisite, and never outside the phase. It reports whether the
// start itself had to be clamped to the phase end.
func (p *placer) place(t *domain.Task, phase domain.Phase, lower time.Time, week int) (Placement, bool) {
	start := maxDate(phase.Start, lower)
	for _, dep := range p.g.Dependencies(t.ID) {
		if prev, ok := p.placed[dep]; ok {
			start = maxDate(start, prev.End.AddDate(0, 0, 1))
		}
	}
	start = NextWorkday(start)

	clamped := false
	if start.After(phase.End) {
		start = phase.End
		clamped = true
	}

	end := start
	if days := DurationWorkdays(t.Hours, t.Difficulty, p.hoursPerDay); days > 1 {
		end = AddWorkdays(start, days-1)
	}

	compressed := clamped
	if end.After(phase.End) {
		end = phase.End
		compressed = true
	}

	pl := Placement{
		TaskID:     t.ID,
		Phase:      phase.Number,
		Start:      start,
		End:        end,
		Compressed: compressed,
		Week:       week,
	}
	p.placed[t.ID] = pl
	return pl, clamped
}

// advance moves a cursor one workday past start, bounded by the phase end.
func advance(cursor, start time.Time, phase domain.Phase) time.Time {
	next := AddWorkdays(start, 1)
	if next.After(phase.End) {
		next = phase.End
	}
	return maxDate(cursor, next)
}
