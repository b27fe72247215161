package cpm

import (
	"sort"
	"time"

	"github.com/rcliao/madlab/internal/domain"
)

// Analyze performs the two-pass critical path method over nodes. Edges to
// ids outside nodes are ignored. A cycle does not fail the analysis: an edge
// that leads back into a node still being evaluated contributes nothing, so
// the result is best effort for cyclic input.
func Analyze(nodes []Node) *Result {
	index := make(map[string]*Node, len(nodes))
	ids := make([]string, 0, len(nodes))
	for i := range nodes {
		n := &nodes[i]
		if _, ok := index[n.ID]; ok {
			continue
		}
		index[n.ID] = n
		ids = append(ids, n.ID)
	}

	result := &Result{Tasks: make(map[string]*TaskSchedule, len(ids))}
	for _, id := range ids {
		d := index[id].Duration
		if d < 0 {
			d = 0
		}
		result.Tasks[id] = &TaskSchedule{TaskID: id, Duration: d}
	}

	// Forward pass: ES = max(EF of prerequisites), EF = ES + duration.
	forwardDone := make(map[string]bool, len(ids))
	forwardVisiting := make(map[string]bool)
	var forward func(id string) int
	forward = func(id string) int {
		ts := result.Tasks[id]
		if forwardDone[id] {
			return ts.EF
		}
		if forwardVisiting[id] {
			return 0
		}
		forwardVisiting[id] = true
		es := 0
		for _, dep := range index[id].Deps {
			if _, ok := index[dep]; !ok {
				continue
			}
			if ef := forward(dep); ef > es {
				es = ef
			}
		}
		forwardVisiting[id] = false
		ts.ES = es
		ts.EF = es + ts.Duration
		forwardDone[id] = true
		return ts.EF
	}
	for _, id := range ids {
		forward(id)
	}

	// Total project duration
	for _, ts := range result.Tasks {
		if ts.EF > result.TotalDuration {
			result.TotalDuration = ts.EF
		}
	}

	// Backward pass: LF = min(LS of successors), or the project end for
	// tasks nothing waits on.
	backwardDone := make(map[string]bool, len(ids))
	backwardVisiting := make(map[string]bool)
	var backward func(id string) int
	backward = func(id string) int {
		ts := result.Tasks[id]
		if backwardDone[id] {
			return ts.LS
		}
		if backwardVisiting[id] {
			return result.TotalDuration
		}
		backwardVisiting[id] = true
		lf := result.TotalDuration
		for _, succ := range index[id].Succ {
			if _, ok := index[succ]; !ok {
				continue
			}
			if ls := backward(succ); ls < lf {
				lf = ls
			}
		}
		backwardVisiting[id] = false
		ts.LF = lf
		ts.LS = lf - ts.Duration
		backwardDone[id] = true
		return ts.LS
	}
	for _, id := range ids {
		backward(id)
	}

	for _, id := range ids {
		ts := result.Tasks[id]
		ts.Slack = ts.LS - ts.ES
		ts.IsCritical = ts.Slack == 0
		if ts.IsCritical {
			result.CriticalPath = append(result.CriticalPath, id)
		}
	}

	result.Stages = stages(result, ids)

	return result
}

// FromScheduled builds CPM nodes from scheduled tasks, using the number of
// workdays each task spans as its duration.
func FromScheduled(tasks []domain.ScheduledTask) []Node {
	nodes := make([]Node, 0, len(tasks))
	for _, t := range tasks {
		nodes = append(nodes, Node{
			ID:       t.ID,
			Duration: spanWorkdays(t.Start, t.End),
			Deps:     t.Dependencies,
			Succ:     t.Successors,
		})
	}
	return nodes
}

func spanWorkdays(start, end time.Time) int {
	n := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			n++
		}
	}
	if n == 0 {
		n = 1
	}
	return n
}

// IsCritical reports whether the task is on the critical path.
func (r *Result) IsCritical(id string) bool {
	ts, ok := r.Tasks[id]
	return ok && ts.IsCritical
}

func stages(result *Result, ids []string) []Stage {
	var starts []int
	byStart := make(map[int][]string)
	for _, id := range ids {
		es := result.Tasks[id].ES
		if _, ok := byStart[es]; !ok {
			starts = append(starts, es)
		}
		byStart[es] = append(byStart[es], id)
	}
	sort.Ints(starts)

	out := make([]Stage, 0, len(starts))
	for i, es := range starts {
		st := Stage{Start: es}
		var rest []string
		for _, id := range byStart[es] {
			ts := result.Tasks[id]
			ts.Stage = i
			if !ts.IsCritical {
				rest = append(rest, id)
				continue
			}
			st.Critical = true
			st.TaskIDs = append(st.TaskIDs, id)
		}
		st.TaskIDs = append(st.TaskIDs, rest...)
		out = append(out, st)
	}
	return out
}
