package graph

import (
	"sort"

	"github.com/rcliao/madlab/internal/domain"
)

// Build indexes tasks and derives the successor lists as the inverse of the
// declared dependencies. Later duplicates of an id are ignored.
func Build(tasks []domain.Task) *TaskGraph {
	g := &TaskGraph{
		Tasks:   make(map[string]*domain.Task, len(tasks)),
		Deps:    make(map[string][]string),
		Succ:    make(map[string][]string),
		Unknown: make(map[string][]string),
	}

	for i := range tasks {
		t := &tasks[i]
		if _, ok := g.Tasks[t.ID]; ok {
			continue
		}
		g.Tasks[t.ID] = t
		g.IDs = append(g.IDs, t.ID)
	}

	edgeSet := make(map[[2]string]bool)
	for _, id := range g.IDs {
		for _, dep := range g.Tasks[id].Dependencies {
			if _, ok := g.Tasks[dep]; !ok {
				g.Unknown[id] = append(g.Unknown[id], dep)
				continue
			}
			key := [2]string{dep, id}
			if edgeSet[key] {
				continue
			}
			edgeSet[key] = true
			g.Deps[id] = append(g.Deps[id], dep)
			g.Succ[dep] = append(g.Succ[dep], id)
		}
	}

	return g
}

// Dependencies returns the known prerequisites of a task.
func (g *TaskGraph) Dependencies(id string) []string {
	return g.Deps[id]
}

// Successors returns the tasks that depend on id, in input order.
func (g *TaskGraph) Successors(id string) []string {
	return g.Succ[id]
}

// Roots returns tasks with no known prerequisites, in input order.
func (g *TaskGraph) Roots() []string {
	var roots []string
	for _, id := range g.IDs {
		if len(g.Deps[id]) == 0 {
			roots = append(roots, id)
		}
	}
	return roots
}

// Leaves returns tasks nothing depends on, in input order.
func (g *TaskGraph) Leaves() []string {
	var leaves []string
	for _, id := range g.IDs {
		if len(g.Succ[id]) == 0 {
			leaves = append(leaves, id)
		}
	}
	return leaves
}

// TaskCount returns the number of tasks in the graph.
func (g *TaskGraph) TaskCount() int {
	return len(g.IDs)
}

// Sequence returns a topological order: every task comes after the
// prerequisites it lists, provided the graph is acyclic. Tasks are visited in
// input order and each one's dependencies are completed depth-first before it
// is emitted. An edge leading back into a task still being visited closes a
// cycle and is dropped, so cyclic input still yields every task exactly once.
func (g *TaskGraph) Sequence() []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make(map[string]int, len(g.IDs))
	order := make([]string, 0, len(g.IDs))

	var visit func(id string)
	visit = func(id string) {
		color[id] = gray
		for _, dep := range g.Deps[id] {
			if color[dep] == white {
				visit(dep)
			}
		}
		color[id] = black
		order = append(order, id)
	}

	for _, id := range g.IDs {
		if color[id] == white {
			visit(id)
		}
	}
	return order
}

// Validate reports dangling dependencies and dependency cycles. It returns
// nil for a well-formed graph and a *ValidationError otherwise.
func (g *TaskGraph) Validate() error {
	var verr ValidationError

	for _, id := range g.IDs {
		if unknown := g.Unknown[id]; len(unknown) > 0 {
			verr.Unknown = append(verr.Unknown, &UnknownDependencyError{TaskID: id, Missing: unknown})
		}
	}
	verr.Cycles = g.findCycles()

	if len(verr.Unknown) == 0 && len(verr.Cycles) == 0 {
		return nil
	}
	return &verr
}

// findCycles walks dependency edges with white/gray/black coloring and
// records one closed path per back edge found.
func (g *TaskGraph) findCycles() []*CycleError {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make(map[string]int, len(g.IDs))
	var stack []string
	var cycles []*CycleError
	seen := make(map[string]bool)

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		stack = append(stack, id)
		for _, dep := range g.Deps[id] {
			switch color[dep] {
			case gray:
				start := len(stack) - 1
				for stack[start] != dep {
					start--
				}
				path := append([]string(nil), stack[start:]...)
				// Dependency edges point backwards in time; reverse so the
				// path reads prerequisite first.
				for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				path = append(path, path[0])
				if key := cycleKey(path); !seen[key] {
					seen[key] = true
					cycles = append(cycles, &CycleError{Path: path})
				}
			case white:
				dfs(dep)
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
	}

	for _, id := range g.IDs {
		if color[id] == white {
			dfs(id)
		}
	}
	return cycles
}

// cycleKey identifies a cycle regardless of which node it starts from.
func cycleKey(path []string) string {
	nodes := append([]string(nil), path[:len(path)-1]...)
	sort.Strings(nodes)
	key := ""
	for _, n := range nodes {
		key += n + "\x00"
	}
	return key
}
