package cpm

// Node is a task as the critical path method sees it: a duration and the
// edges to its prerequisites and dependents.
type Node struct {
	ID       string
	Duration int
	Deps     []string
	Succ     []string
}

// Result holds the complete critical path analysis.
type Result struct {
	Tasks         map[string]*TaskSchedule
	CriticalPath  []string // critical task IDs in input order
	TotalDuration int
	// Stages groups the tasks by earliest start, earliest first.
	Stages []Stage
}

// TaskSchedule holds the scheduling info for a single task.
type TaskSchedule struct {
	TaskID     string
	Duration   int
	ES, EF     int // earliest start/finish
	LS, LF     int // latest start/finish
	Slack      int
	IsCritical bool
	Stage      int // index into Result.Stages
}

// Stage is the set of tasks that can begin Start days into the project.
// Critical tasks are listed first, the rest keep input order.
type Stage struct {
	Start    int
	TaskIDs  []string
	Critical bool
}
