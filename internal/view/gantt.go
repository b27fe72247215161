package view

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rcliao/madlab/internal/domain"
	"github.com/rcliao/madlab/internal/service"
)

const (
	maxGanttLabel = 32
	doneCell      = "█"
	pendingCell   = "▒"
	todayCell     = "│"
)

// baseCellWidth is the width in characters of one time unit at zoom 1.
var baseCellWidth = map[domain.TimeScale]int{
	domain.ScaleDay:   2,
	domain.ScaleWeek:  4,
	domain.ScaleMonth: 8,
}

// Gantt draws one bar per task over the configured visible window, which
// defaults to the span of the tasks. Each column is a day, a week or a month
// depending on the time scale, and zoom widens or narrows the columns.
func (r *Renderer) Gantt(groups []service.TaskGroup, cfg domain.GanttConfig, now time.Time) error {
	start, end := span(groups)
	if start.IsZero() {
		_, err := fmt.Fprintln(r.w, r.palette.Dim(r.t("no-data")))
		return err
	}
	start, end = cfg.Window(start, end)

	scale := cfg.TimeScale
	if _, ok := baseCellWidth[scale]; !ok {
		scale = domain.ScaleWeek
	}
	zoom := cfg.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	width := int(math.Max(1, math.Round(float64(baseCellWidth[scale])*zoom)))
	units := timeUnits(start, end, scale)
	today := domain.Date(now)

	labelWidth := 0
	for _, g := range groups {
		for _, t := range g.Tasks {
			if n := utf8.RuneCountInString(ganttLabel(t, r.lang)); n > labelWidth {
				labelWidth = n
			}
		}
	}
	if labelWidth > maxGanttLabel {
		labelWidth = maxGanttLabel
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", r.palette.Title(r.t("title.gantt")), r.palette.Dim(fmt.Sprintf("%s → %s", formatDay(start), formatDay(end))))
	fmt.Fprintf(&sb, "%s %s\n", strings.Repeat(" ", labelWidth), r.palette.Dim(axis(units, scale, width)))

	for _, g := range groups {
		fmt.Fprintln(&sb, r.palette.Heading(g.Label))
		for _, t := range g.Tasks {
			fmt.Fprintf(&sb, "%s %s\n", pad(ganttLabel(t, r.lang), labelWidth), r.bar(t, units, scale, width, today))
		}
	}

	fmt.Fprintf(&sb, "%s: %s %s  %s %s  %s %s  %s\n",
		r.t("legend"),
		r.palette.Done(doneCell), r.t("done"),
		r.palette.Bar(pendingCell), r.t("pending"),
		r.palette.Today(todayCell), r.t("today"),
		r.palette.Critical(r.t("column.critical")),
	)

	_, err := fmt.Fprint(r.w, sb.String())
	return err
}

func ganttLabel(t domain.ScheduledTask, lang domain.Lang) string {
	return t.ID + " " + t.Name.In(lang)
}

// span returns the earliest start and latest end of the grouped tasks.
func span(groups []service.TaskGroup) (time.Time, time.Time) {
	var start, end time.Time
	for _, g := range groups {
		for _, t := range g.Tasks {
			if t.Start.IsZero() {
				continue
			}
			if start.IsZero() || t.Start.Before(start) {
				start = t.Start
			}
			if t.End.After(end) {
				end = t.End
			}
		}
	}
	return start, end
}

func unitStart(d time.Time, scale domain.TimeScale) time.Time {
	d = domain.Date(d)
	switch scale {
	case domain.ScaleWeek:
		for d.Weekday() != time.Monday {
			d = d.AddDate(0, 0, -1)
		}
	case domain.ScaleMonth:
		d = time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return d
}

func nextUnit(d time.Time, scale domain.TimeScale) time.Time {
	switch scale {
	case domain.ScaleWeek:
		return d.AddDate(0, 0, 7)
	case domain.ScaleMonth:
		return d.AddDate(0, 1, 0)
	}
	return d.AddDate(0, 0, 1)
}

// timeUnits returns the start of every unit overlapping [start, end].
func timeUnits(start, end time.Time, scale domain.TimeScale) []time.Time {
	var units []time.Time
	for u := unitStart(start, scale); !u.After(end); u = nextUnit(u, scale) {
		units = append(units, u)
	}
	return units
}

// axis labels the units, skipping labels that would overlap the previous one.
// The last label may run past the chart's right edge but is never cut.
func axis(units []time.Time, scale domain.TimeScale, width int) string {
	line := []rune(strings.Repeat(" ", len(units)*width))
	free := 0
	for i, u := range units {
		pos := i * width
		if pos < free {
			continue
		}
		label := []rune(unitLabel(u, scale))
		for len(line) < pos+len(label) {
			line = append(line, ' ')
		}
		copy(line[pos:], label)
		free = pos + len(label) + 1
	}
	return strings.TrimRight(string(line), " ")
}

func unitLabel(u time.Time, scale domain.TimeScale) string {
	switch scale {
	case domain.ScaleDay:
		return u.Format("02")
	case domain.ScaleMonth:
		return u.Format("01/2006")
	}
	return u.Format("02/01")
}

// bar draws the task across the units. Cells up to the task's progress are
// drawn as done; a task entirely outside the window shows an arrow on the
// side where it lies.
func (r *Renderer) bar(t domain.ScheduledTask, units []time.Time, scale domain.TimeScale, width int, today time.Time) string {
	if len(units) == 0 {
		return ""
	}

	var covered []int
	for i, u := range units {
		last := nextUnit(u, scale).AddDate(0, 0, -1)
		if !t.Start.After(last) && !t.End.Before(u) {
			covered = append(covered, i)
		}
	}

	paint := r.palette.Bar
	donePaint := r.palette.Done
	if t.Critical {
		paint = r.palette.Critical
		donePaint = r.palette.Critical
	}
	done := int(math.Round(float64(t.Progress) / 100 * float64(len(covered))))

	cells := make([]string, len(units))
	for i, u := range units {
		last := nextUnit(u, scale).AddDate(0, 0, -1)
		if !today.Before(u) && !today.After(last) {
			cells[i] = r.palette.Today(todayCell) + strings.Repeat(" ", width-1)
		} else {
			cells[i] = strings.Repeat(" ", width)
		}
	}
	for n, i := range covered {
		if n < done {
			cells[i] = donePaint(strings.Repeat(doneCell, width))
		} else {
			cells[i] = paint(strings.Repeat(pendingCell, width))
		}
	}

	if len(covered) == 0 && !t.Start.IsZero() {
		if t.End.Before(units[0]) {
			cells[0] = r.palette.Dim("‹") + strings.Repeat(" ", width-1)
		} else {
			cells[len(cells)-1] = strings.Repeat(" ", width-1) + r.palette.Dim("›")
		}
	}

	return strings.TrimRight(strings.Join(cells, ""), " ")
}
