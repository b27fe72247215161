package view

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/rcliao/madlab/internal/domain"
	"github.com/rcliao/madlab/internal/i18n"
	"github.com/rcliao/madlab/internal/service"
)

const loadBarWidth = 30

func formatHours(h float64) string {
	return humanize.Ftoa(math.Round(h*10) / 10)
}

// Summary writes the project totals followed by the per status, phase,
// assignee and week breakdowns.
func (r *Renderer) Summary(sum service.Summary) error {
	var sb strings.Builder
	fmt.Fprintln(&sb, r.palette.Title(r.t("title.summary")))

	row := func(key, value string) {
		fmt.Fprintf(&sb, "  %-18s %s\n", r.t(key)+":", value)
	}
	row("summary.tasks", humanize.Comma(int64(sum.Tasks)))
	row("summary.hours", formatHours(sum.Hours))
	row("summary.completion", fmt.Sprintf("%s %d%%", progressBar(sum.Completion, 20), sum.Completion))
	row("summary.critical", humanize.Comma(int64(sum.Critical)))

	overdue := humanize.Comma(int64(len(sum.Overdue)))
	if len(sum.Overdue) > 0 {
		overdue = r.palette.Warning(fmt.Sprintf("%s (%s)", overdue, strings.Join(sum.Overdue, ", ")))
	}
	row("summary.overdue", overdue)

	if !sum.ProjectStart.IsZero() {
		days := int(sum.ProjectEnd.Sub(sum.ProjectStart).Hours()/24) + 1
		row("summary.span", fmt.Sprintf("%s → %s (%d %s)", formatDay(sum.ProjectStart), formatDay(sum.ProjectEnd), days, r.t("days")))
	}

	fmt.Fprintf(&sb, "\n%s\n", r.palette.Heading(r.t("summary.by-status")))
	for _, st := range domain.Statuses {
		if n := sum.ByStatus[st]; n > 0 {
			fmt.Fprintf(&sb, "  %s %-16s %d\n", statusIcon(st), i18n.Status(r.lang, st), n)
		}
	}

	fmt.Fprintf(&sb, "\n%s\n", r.palette.Heading(r.t("summary.by-phase")))
	phases := make([]int, 0, len(sum.ByPhase))
	for p := range sum.ByPhase {
		phases = append(phases, p)
	}
	sort.Ints(phases)
	for _, n := range phases {
		label := i18n.Phase(r.lang, domain.Phase{Number: n})
		if p, ok := r.phases.Get(n); ok {
			label = i18n.Phase(r.lang, p)
		}
		fmt.Fprintf(&sb, "  %-28s %3d  %s\n", label, sum.ByPhase[n], hours(sum.HoursByPhase[n]))
	}

	fmt.Fprintf(&sb, "\n%s\n", r.palette.Heading(r.t("summary.by-person")))
	people := make([]string, 0, len(sum.ByAssignee))
	for a := range sum.ByAssignee {
		people = append(people, a)
	}
	i18n.Collator(r.lang).SortStrings(people)
	for _, a := range people {
		label := a
		if label == "" {
			label = r.t("unassigned")
		}
		fmt.Fprintf(&sb, "  %-28s %3d  %s\n", label, sum.ByAssignee[a], hours(sum.HoursByAssignee[a]))
	}

	if len(sum.WeeklyLoad) > 0 {
		fmt.Fprintf(&sb, "\n%s\n", r.palette.Heading(r.t("summary.by-week")))
		peak := 0.0
		for _, w := range sum.WeeklyLoad {
			peak = math.Max(peak, w.Hours)
		}
		for _, w := range sum.WeeklyLoad {
			n := 0
			if peak > 0 {
				n = int(math.Round(w.Hours / peak * loadBarWidth))
			}
			fmt.Fprintf(&sb, "  %s %2d %s %s %s\n", r.t("summary.week"), w.Week+1, w.Start.Format("02/01"),
				r.palette.Bar(strings.Repeat(doneCell, n)), hours(w.Hours))
		}
	}

	_, err := fmt.Fprint(r.w, sb.String())
	return err
}

func progressBar(pct, width int) string {
	n := pct * width / 100
	if n < 0 {
		n = 0
	}
	if n > width {
		n = width
	}
	return "[" + strings.Repeat("#", n) + strings.Repeat("-", width-n) + "]"
}
