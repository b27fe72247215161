package schedule

import (
	"math"
	"time"

	"github.com/rcliao/madlab/internal/domain"
	"github.com/rcliao/madlab/internal/graph"
)

// earlyWeekBias is the per-week score added so that, load being equal,
// earlier weeks win.
const earlyWeekBias = 0.1

// BalanceWorkload spreads each phase's tasks over the phase's weeks. Each
// task goes to the feasible week with the lowest score, where the score is
// the week's current load plus twice the hours it would run over capacity
// plus a small bias towards earlier weeks. Capacity is the average hours per
// week times (1 + overflow). Weeks that ended before now's week are skipped
// while now falls inside the phase. Greedy and single pass: deterministic for
// a given ordering, not globally optimal.
func BalanceWorkload(g *graph.TaskGraph, order []string, phases domain.PhaseCalendar, now time.Time, hoursPerDay int, overflow float64) (map[string]Placement, []Warning) {
	p := newPlacer(g, hoursPerDay)
	warnings := unknownPhaseWarnings(g, order, phases)
	ordered := groupBySection(g, order)

	for _, phase := range phases {
		var ids []string
		total := 0.0
		for _, id := range ordered {
			if t := g.Tasks[id]; t.Phase == phase.Number {
				ids = append(ids, id)
				total += t.Hours
			}
		}
		if len(ids) == 0 {
			continue
		}

		nweeks := (phase.Days() + 6) / 7
		first := 0
		if phase.Contains(now) {
			first = int(domain.Date(now).Sub(phase.Start).Hours()/24) / 7
		}
		capacity := total / float64(nweeks-first) * (1 + overflow)

		load := make([]float64, nweeks)
		weekOf := make(map[string]int, len(ids))
		cursors := make([]time.Time, nweeks)
		for w := range cursors {
			cursors[w] = weekStart(phase, w)
		}

		for _, id := range ids {
			t := g.Tasks[id]

			earliest := first
			for _, dep := range g.Dependencies(id) {
				if w, ok := weekOf[dep]; ok && w > earliest {
					earliest = w
				}
			}

			best, bestScore := earliest, math.Inf(1)
			for w := earliest; w < nweeks; w++ {
				over := math.Max(0, load[w]+t.Hours-capacity)
				score := load[w] + 2*over + earlyWeekBias*float64(w)
				if score < bestScore {
					best, bestScore = w, score
				}
			}

			load[best] += t.Hours
			weekOf[id] = best

			pl, clamped := p.place(t, phase, cursors[best], best)
			if !clamped {
				cursors[best] = advance(cursors[best], pl.Start, phase)
			}
		}
	}

	return p.placed, append(warnings, compressedWarnings(order, p.placed)...)
}

func weekStart(phase domain.Phase, w int) time.Time {
	return phase.Start.AddDate(0, 0, 7*w)
}

// groupBySection gathers tasks of the same section together, sections
// ordered by first appearance, without moving a task ahead of a prerequisite.
// Each pass walks the sections in order and emits every task whose earlier
// prerequisites are out; a blocked task waits for a later pass while the rest
// of its section goes on. Dependencies that point forward in the sequence are
// cycle edges the sequencer already dropped, so they are not waited on.
func groupBySection(g *graph.TaskGraph, order []string) []string {
	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}

	var sections []string
	bySection := make(map[string][]string)
	for _, id := range order {
		s := g.Tasks[id].Section
		if _, ok := bySection[s]; !ok {
			sections = append(sections, s)
		}
		bySection[s] = append(bySection[s], id)
	}

	emitted := make(map[string]bool, len(order))
	ready := func(id string) bool {
		for _, dep := range g.Dependencies(id) {
			if p, ok := pos[dep]; ok && p < pos[id] && !emitted[dep] {
				return false
			}
		}
		return true
	}

	out := make([]string, 0, len(order))
	for len(out) < len(order) {
		for _, s := range sections {
			waiting := bySection[s][:0]
			for _, id := range bySection[s] {
				if ready(id) {
					emitted[id] = true
					out = append(out, id)
					continue
				}
				waiting = append(waiting, id)
			}
			bySection[s] = waiting
		}
	}
	return out
}
