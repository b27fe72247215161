package graph

import (
	"errors"
	"fmt"
	"strings"
)

// CycleError reports a dependency cycle as a closed path of task ids,
// e.g. [a b c a].
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Path, " -> "))
}

// Involved returns the distinct task ids on the cycle.
func (e *CycleError) Involved() []string {
	if len(e.Path) == 0 {
		return nil
	}
	return e.Path[:len(e.Path)-1]
}

// UnknownDependencyError reports dependency ids that reference no task.
type UnknownDependencyError struct {
	TaskID  string
	Missing []string
}

func (e *UnknownDependencyError) Error() string {
	return fmt.Sprintf("task %s depends on unknown tasks: %s", e.TaskID, strings.Join(e.Missing, ", "))
}

// ValidationError groups every problem found in a task graph.
type ValidationError struct {
	Cycles  []*CycleError
	Unknown []*UnknownDependencyError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Cycles)+len(e.Unknown))
	for _, c := range e.Cycles {
		msgs = append(msgs, c.Error())
	}
	for _, u := range e.Unknown {
		msgs = append(msgs, u.Error())
	}
	return "invalid task graph: " + strings.Join(msgs, "; ")
}

// Unwrap exposes the individual problems to errors.Is and errors.As.
func (e *ValidationError) Unwrap() []error {
	errs := make([]error, 0, len(e.Cycles)+len(e.Unknown))
	for _, c := range e.Cycles {
		errs = append(errs, c)
	}
	for _, u := range e.Unknown {
		errs = append(errs, u)
	}
	return errs
}

// IsCycle reports whether err contains a dependency cycle.
func IsCycle(err error) bool {
	var cerr *CycleError
	return errors.As(err, &cerr)
}

// IsUnknownDependency reports whether err contains a dangling dependency.
func IsUnknownDependency(err error) bool {
	var uerr *UnknownDependencyError
	return errors.As(err, &uerr)
}
