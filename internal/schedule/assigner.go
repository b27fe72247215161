package schedule

import (
	"fmt"

	"github.com/rcliao/madlab/internal/domain"
	"github.com/rcliao/madlab/internal/graph"
)

// AssignDates places every task inside its phase window, walking phases in
// calendar order and each phase's tasks in the given sequence. A per-phase
// cursor moves forward one workday past each placed task so independent
// tasks in a phase are staggered instead of all starting on day one.
func AssignDates(g *graph.TaskGraph, order []string, phases domain.PhaseCalendar, hoursPerDay int) (map[string]Placement, []Warning) {
	p := newPlacer(g, hoursPerDay)
	warnings := unknownPhaseWarnings(g, order, phases)

	for _, phase := range phases {
		cursor := phase.Start
		for _, id := range order {
			t := g.Tasks[id]
			if t.Phase != phase.Number {
				continue
			}
			pl, clamped := p.place(t, phase, cursor, -1)
			if !clamped {
				cursor = advance(cursor, pl.Start, phase)
			}
		}
	}

	return p.placed, append(warnings, compressedWarnings(order, p.placed)...)
}

func unknownPhaseWarnings(g *graph.TaskGraph, order []string, phases domain.PhaseCalendar) []Warning {
	var warnings []Warning
	for _, id := range order {
		t := g.Tasks[id]
		if _, ok := phases.Get(t.Phase); !ok {
			warnings = append(warnings, Warning{
				Kind:    WarningUnknownPhase,
				TaskIDs: []string{id},
				Message: fmt.Sprintf("task %s belongs to phase %d which has no calendar window", id, t.Phase),
			})
		}
	}
	return warnings
}

func compressedWarnings(order []string, placed map[string]Placement) []Warning {
	var warnings []Warning
	for _, id := range order {
		pl, ok := placed[id]
		if !ok || !pl.Compressed {
			continue
		}
		warnings = append(warnings, Warning{
			Kind:    WarningCompressed,
			TaskIDs: []string{id},
			Message: fmt.Sprintf("task %s compressed to fit phase %d ending %s", id, pl.Phase, pl.End.Format("2006-01-02")),
		})
	}
	return warnings
}
