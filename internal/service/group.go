package service

import (
	"cmp"
	"slices"
	"strconv"

	"github.com/rcliao/madlab/internal/domain"
	"github.com/rcliao/madlab/internal/i18n"
)

const (
	teamKey       = "team"
	unassignedKey = ""
)

// TaskGroup is a labeled slice of tasks sharing a grouping key.
type TaskGroup struct {
	Key   string                 `json:"key"`
	Label string                 `json:"label"`
	Hours float64                `json:"hours"`
	Tasks []domain.ScheduledTask `json:"tasks"`
}

// Group splits tasks by the given dimension. Tasks keep their relative
// order inside a group. Phases and statuses are ordered naturally;
// assignees and sections follow the collation of lang, with the whole-team
// and empty buckets last. Collective assignees such as "Todos" or "All"
// share the team bucket.
func Group(tasks []domain.ScheduledTask, by domain.GroupBy, phases domain.PhaseCalendar, lang domain.Lang) []TaskGroup {
	if len(tasks) == 0 {
		return []TaskGroup{}
	}

	switch by {
	case domain.GroupPhase:
		return groupPhases(tasks, phases, lang)
	case domain.GroupAssignee:
		return groupNamed(tasks, lang, assigneeKey, func(key string) string {
			switch key {
			case teamKey:
				return i18n.T(lang, "team")
			case unassignedKey:
				return i18n.T(lang, "unassigned")
			}
			return key
		}, []string{teamKey, unassignedKey})
	case domain.GroupSection:
		return groupNamed(tasks, lang, func(t domain.ScheduledTask) string { return t.Section }, func(key string) string {
			if key == "" {
				return i18n.T(lang, "no-section")
			}
			return key
		}, []string{""})
	case domain.GroupStatus:
		return groupStatuses(tasks, lang)
	}

	g := TaskGroup{Key: "all", Label: i18n.T(lang, "all-tasks")}
	for _, t := range tasks {
		g.add(t)
	}
	return []TaskGroup{g}
}

func (g *TaskGroup) add(t domain.ScheduledTask) {
	g.Tasks = append(g.Tasks, t)
	g.Hours += t.Hours
}

func assigneeKey(t domain.ScheduledTask) string {
	if domain.IsCollectiveAssignee(t.Assignee) {
		return teamKey
	}
	return t.Assignee
}

func groupPhases(tasks []domain.ScheduledTask, phases domain.PhaseCalendar, lang domain.Lang) []TaskGroup {
	byPhase := make(map[int]*TaskGroup)
	var numbers []int
	for _, t := range tasks {
		g, ok := byPhase[t.Phase]
		if !ok {
			p, found := phases.Get(t.Phase)
			if !found {
				p = domain.Phase{Number: t.Phase}
			}
			g = &TaskGroup{Key: strconv.Itoa(t.Phase), Label: i18n.Phase(lang, p)}
			byPhase[t.Phase] = g
			numbers = append(numbers, t.Phase)
		}
		g.add(t)
	}

	slices.Sort(numbers)
	groups := make([]TaskGroup, 0, len(numbers))
	for _, n := range numbers {
		groups = append(groups, *byPhase[n])
	}
	return groups
}

func groupStatuses(tasks []domain.ScheduledTask, lang domain.Lang) []TaskGroup {
	byStatus := make(map[domain.TaskStatus]*TaskGroup)
	for _, t := range tasks {
		status := t.EffectiveStatus
		if status == "" {
			status = domain.StatusNotStarted
		}
		g, ok := byStatus[status]
		if !ok {
			g = &TaskGroup{Key: string(status), Label: i18n.Status(lang, status)}
			byStatus[status] = g
		}
		g.add(t)
	}

	groups := make([]TaskGroup, 0, len(byStatus))
	for _, s := range domain.Statuses {
		if g, ok := byStatus[s]; ok {
			groups = append(groups, *g)
		}
	}
	return groups
}

// groupNamed groups by a free-text key. Keys listed in last sort after the
// others, in the listed order.
func groupNamed(tasks []domain.ScheduledTask, lang domain.Lang, key func(domain.ScheduledTask) string, label func(string) string, last []string) []TaskGroup {
	byKey := make(map[string]*TaskGroup)
	var keys []string
	for _, t := range tasks {
		k := key(t)
		g, ok := byKey[k]
		if !ok {
			g = &TaskGroup{Key: k, Label: label(k)}
			byKey[k] = g
			keys = append(keys, k)
		}
		g.add(t)
	}

	rank := func(k string) int {
		if i := slices.Index(last, k); i >= 0 {
			return i + 1
		}
		return 0
	}
	coll := i18n.Collator(lang)
	slices.SortStableFunc(keys, func(a, b string) int {
		if c := cmp.Compare(rank(a), rank(b)); c != 0 {
			return c
		}
		return coll.CompareString(a, b)
	})

	groups := make([]TaskGroup, 0, len(keys))
	for _, k := range keys {
		groups = append(groups, *byKey[k])
	}
	return groups
}

// CompareIDs orders ids lexically except that runs of digits compare by
// numeric value.
func CompareIDs(a, b string) int {
	for a != "" && b != "" {
		if isDigit(a[0]) && isDigit(b[0]) {
			na, ra := splitDigits(a)
			nb, rb := splitDigits(b)
			if c := compareNumeric(na, nb); c != 0 {
				return c
			}
			a, b = ra, rb
			continue
		}
		if a[0] != b[0] {
			return cmp.Compare(a[0], b[0])
		}
		a, b = a[1:], b[1:]
	}
	return cmp.Compare(len(a), len(b))
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func splitDigits(s string) (string, string) {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return s[:i], s[i:]
}

func compareNumeric(a, b string) int {
	for len(a) > 1 && a[0] == '0' {
		a = a[1:]
	}
	for len(b) > 1 && b[0] == '0' {
		b = b[1:]
	}
	if c := cmp.Compare(len(a), len(b)); c != 0 {
		return c
	}
	return cmp.Compare(a, b)
}
