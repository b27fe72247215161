package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	StatusNotStarted TaskStatus = "not-started"
	StatusPlanning   TaskStatus = "planning"
	StatusInProgress TaskStatus = "in-progress"
	StatusReview     TaskStatus = "review"
	StatusCompleted  TaskStatus = "completed"
)

// Statuses lists every status in workflow order.
var Statuses = []TaskStatus{
	StatusNotStarted,
	StatusPlanning,
	StatusInProgress,
	StatusReview,
	StatusCompleted,
}

func (s TaskStatus) Valid() bool {
	for _, st := range Statuses {
		if s == st {
			return true
		}
	}
	return false
}

const (
	MinDifficulty = 1
	MaxDifficulty = 5
)

// Lang is a display language for bilingual labels.
type Lang string

const (
	LangES Lang = "es"
	LangEN Lang = "en"
)

// LocalizedText holds the Spanish and English rendering of a label.
type LocalizedText struct {
	ES string `json:"es"`
	EN string `json:"en"`
}

// In returns the text for lang, falling back to the other language when empty.
func (t LocalizedText) In(lang Lang) string {
	if lang == LangEN {
		if t.EN != "" {
			return t.EN
		}
		return t.ES
	}
	if t.ES != "" {
		return t.ES
	}
	return t.EN
}

type Task struct {
	ID           string        `json:"id"`
	Name         LocalizedText `json:"name"`
	Assignee     string        `json:"assignee"`
	Hours        float64       `json:"hours"`
	Difficulty   int           `json:"difficulty"`
	Phase        int           `json:"phase"`
	Section      string        `json:"section"`
	Dependencies []string      `json:"dependencies"`
	Status       TaskStatus    `json:"status,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

func NewTask(id, nameES, nameEN string) *Task {
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now()
	return &Task{
		ID:           id,
		Name:         LocalizedText{ES: nameES, EN: nameEN},
		Difficulty:   MinDifficulty,
		Phase:        1,
		Dependencies: make([]string, 0),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Validate checks the field ranges of a task. Dependency references are
// checked by the graph package, which sees the whole task set.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("task id is required: %w", ErrNotValid)
	}
	if t.Hours < 0 {
		return fmt.Errorf("task %s: hours must be non-negative: %w", t.ID, ErrNotValid)
	}
	if t.Difficulty < MinDifficulty || t.Difficulty > MaxDifficulty {
		return fmt.Errorf("task %s: difficulty %d out of range %d-%d: %w", t.ID, t.Difficulty, MinDifficulty, MaxDifficulty, ErrNotValid)
	}
	if t.Phase < 1 || t.Phase > MaxPhases {
		return fmt.Errorf("task %s: phase %d out of range 1-%d: %w", t.ID, t.Phase, MaxPhases, ErrNotValid)
	}
	if t.Status != "" && !t.Status.Valid() {
		return fmt.Errorf("task %s: unknown status %q: %w", t.ID, t.Status, ErrNotValid)
	}
	return nil
}

// Clone returns a deep copy so callers can mutate the result freely.
func (t Task) Clone() Task {
	t.Dependencies = append([]string(nil), t.Dependencies...)
	return t
}

var collectiveAssignees = map[string]bool{
	"all":    true,
	"team":   true,
	"todos":  true,
	"equipo": true,
}

// IsCollectiveAssignee reports whether the assignee is a placeholder for the
// whole team rather than an individual.
func IsCollectiveAssignee(assignee string) bool {
	return collectiveAssignees[strings.ToLower(strings.TrimSpace(assignee))]
}

// ScheduledTask is a Task projected onto the calendar. It is recomputed on
// demand and never persisted.
type ScheduledTask struct {
	Task
	Start           time.Time  `json:"start"`
	End             time.Time  `json:"end"`
	Progress        int        `json:"progress"`
	Critical        bool       `json:"critical"`
	Successors      []string   `json:"successors"`
	Compressed      bool       `json:"compressed,omitempty"`
	Week            int        `json:"week"`
	EffectiveStatus TaskStatus `json:"effectiveStatus"`
}

type TaskFilter struct {
	Phases        []int
	Assignees     []string
	Sections      []string
	Statuses      []TaskStatus
	MinDifficulty int
	MaxDifficulty int
	Query         string
}

// Matches reports whether the task passes the filter. status is the status to
// filter on, which may be derived rather than the manual one.
func (f TaskFilter) Matches(t *Task, status TaskStatus) bool {
	if len(f.Phases) > 0 && !containsInt(f.Phases, t.Phase) {
		return false
	}
	if len(f.Assignees) > 0 && !containsFold(f.Assignees, t.Assignee) {
		return false
	}
	if len(f.Sections) > 0 && !containsFold(f.Sections, t.Section) {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if s == status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.MinDifficulty > 0 && t.Difficulty < f.MinDifficulty {
		return false
	}
	if f.MaxDifficulty > 0 && t.Difficulty > f.MaxDifficulty {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		haystack := strings.ToLower(strings.Join([]string{t.ID, t.Name.ES, t.Name.EN, t.Section, t.Assignee}, " "))
		if !strings.Contains(haystack, q) {
			return false
		}
	}
	return true
}

// IsZero reports whether the filter lets every task through.
func (f TaskFilter) IsZero() bool {
	return len(f.Phases) == 0 && len(f.Assignees) == 0 && len(f.Sections) == 0 &&
		len(f.Statuses) == 0 && f.MinDifficulty == 0 && f.MaxDifficulty == 0 &&
		strings.TrimSpace(f.Query) == ""
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func containsFold(list []string, v string) bool {
	for _, x := range list {
		if strings.EqualFold(x, v) {
			return true
		}
	}
	return false
}
