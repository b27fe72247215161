package graph

import "github.com/rcliao/madlab/internal/domain"

// TaskGraph is the dependency graph of a task set. Edges only connect tasks
// present in the set; dangling references are kept apart in Unknown.
type TaskGraph struct {
	Tasks   map[string]*domain.Task
	IDs     []string            // input order
	Deps    map[string][]string // task -> prerequisites it waits on
	Succ    map[string][]string // task -> tasks waiting on it
	Unknown map[string][]string // task -> dependency ids not in the set
}
