package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/madlab/internal/domain"
)

func task(id string, deps ...string) domain.Task {
	return domain.Task{ID: id, Difficulty: 1, Phase: 1, Dependencies: deps}
}

func indexOf(order []string, id string) int {
	for i, v := range order {
		if v == id {
			return i
		}
	}
	return -1
}

func assertTopological(t *testing.T, tasks []domain.Task, order []string) {
	t.Helper()
	require.Len(t, order, len(tasks))
	for _, tk := range tasks {
		for _, dep := range tk.Dependencies {
			assert.Less(t, indexOf(order, dep), indexOf(order, tk.ID), "%s must come before %s", dep, tk.ID)
		}
	}
}

func TestBuild_EdgesAndSuccessors(t *testing.T) {
	tasks := []domain.Task{
		task("a"),
		task("b", "a"),
		task("c", "a"),
		task("d", "b", "c", "ghost"),
	}
	g := Build(tasks)

	assert.Equal(t, 4, g.TaskCount())
	assert.Equal(t, []string{"b", "c"}, g.Successors("a"))
	assert.Equal(t, []string{"b", "c"}, g.Dependencies("d"))
	assert.Equal(t, []string{"ghost"}, g.Unknown["d"])
	assert.Equal(t, []string{"a"}, g.Roots())
	assert.Equal(t, []string{"d"}, g.Leaves())
}

func TestBuild_DuplicateDependencyIgnored(t *testing.T) {
	g := Build([]domain.Task{task("a"), task("b", "a", "a")})
	assert.Equal(t, []string{"a"}, g.Dependencies("b"))
	assert.Equal(t, []string{"b"}, g.Successors("a"))
}

func TestSequence_DependenciesFirst(t *testing.T) {
	// Input lists dependents before their prerequisites.
	tasks := []domain.Task{
		task("e", "c", "d"),
		task("d", "b"),
		task("c", "a"),
		task("b", "a"),
		task("a"),
		task("f"),
	}
	order := Build(tasks).Sequence()

	assertTopological(t, tasks, order)
	assert.Equal(t, []string{"a", "c", "b", "d", "e", "f"}, order)
}

func TestSequence_StableForSortedInput(t *testing.T) {
	tasks := []domain.Task{task("a"), task("b", "a"), task("c"), task("d", "c", "b")}
	order := Build(tasks).Sequence()
	assert.Equal(t, []string{"a", "b", "c", "d"}, order)
}

func TestSequence_ToleratesCycles(t *testing.T) {
	tasks := []domain.Task{
		task("a", "c"),
		task("b", "a"),
		task("c", "b"),
		task("d", "a"),
	}
	order := Build(tasks).Sequence()

	require.Len(t, order, 4)
	seen := make(map[string]bool)
	for _, id := range order {
		assert.False(t, seen[id], "duplicate %s", id)
		seen[id] = true
	}
	assert.Less(t, indexOf(order, "a"), indexOf(order, "d"))
}

func TestSequence_SkipsUnknownDependencies(t *testing.T) {
	order := Build([]domain.Task{task("a", "missing"), task("b", "a")}).Sequence()
	assert.Equal(t, []string{"a", "b"}, order)
}

func TestValidate_Acyclic(t *testing.T) {
	g := Build([]domain.Task{task("a"), task("b", "a"), task("c", "b")})
	assert.NoError(t, g.Validate())
}

func TestValidate_ReportsCycle(t *testing.T) {
	g := Build([]domain.Task{
		task("a", "c"),
		task("b", "a"),
		task("c", "b"),
		task("x"),
	})

	err := g.Validate()
	require.Error(t, err)
	assert.True(t, IsCycle(err))
	assert.False(t, IsUnknownDependency(err))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Cycles, 1)
	assert.Equal(t, []string{"b", "c", "a", "b"}, verr.Cycles[0].Path)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, verr.Cycles[0].Involved())
}

func TestValidate_SelfDependency(t *testing.T) {
	err := Build([]domain.Task{task("a", "a")}).Validate()

	var cerr *CycleError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, []string{"a", "a"}, cerr.Path)
}

func TestValidate_ReportsUnknownDependency(t *testing.T) {
	err := Build([]domain.Task{task("a"), task("b", "a", "zz")}).Validate()

	require.Error(t, err)
	assert.True(t, IsUnknownDependency(err))
	assert.False(t, IsCycle(err))

	var uerr *UnknownDependencyError
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, "b", uerr.TaskID)
	assert.Equal(t, []string{"zz"}, uerr.Missing)
	assert.Contains(t, err.Error(), "zz")
}
