package view

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rcliao/madlab/internal/domain"
	"github.com/rcliao/madlab/internal/i18n"
	"github.com/rcliao/madlab/internal/service"
)

var gridColumns = []string{
	"column.id",
	"column.name",
	"column.assignee",
	"column.hours",
	"column.difficulty",
	"column.phase",
	"column.status",
	"column.start",
	"column.end",
	"column.progress",
}

// Grid writes one aligned row per task. Critical tasks carry a trailing
// marker so colors never break the column alignment.
func (r *Renderer) Grid(tasks []domain.ScheduledTask) error {
	if len(tasks) == 0 {
		_, err := fmt.Fprintln(r.w, r.palette.Dim(r.t("no-data")))
		return err
	}

	tw := tabwriter.NewWriter(r.w, 0, 0, 2, ' ', 0)

	headers := make([]string, len(gridColumns))
	for i, c := range gridColumns {
		headers[i] = strings.ToUpper(r.t(c))
	}
	fmt.Fprintln(tw, strings.Join(headers, "\t")+"\t")

	for _, t := range tasks {
		marker := ""
		if t.Critical {
			marker = r.palette.Critical("*")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\t%s\t%s\t%d%%\t%s\n",
			t.ID,
			truncate(t.Name.In(r.lang), 40),
			t.Assignee,
			formatHours(t.Hours),
			t.Difficulty,
			t.Phase,
			i18n.Status(r.lang, t.EffectiveStatus),
			formatDay(t.Start),
			formatDay(t.End),
			t.Progress,
			marker,
		)
	}

	return tw.Flush()
}

// Critical writes the critical tasks as a numbered chain.
func (r *Renderer) Critical(tasks []domain.ScheduledTask) error {
	var sb strings.Builder
	fmt.Fprintln(&sb, r.palette.Title(r.t("title.critical")))
	if len(tasks) == 0 {
		fmt.Fprintln(&sb, r.palette.Dim(r.t("no-data")))
		_, err := fmt.Fprint(r.w, sb.String())
		return err
	}

	total := 0.0
	for i, t := range tasks {
		total += t.Hours
		fmt.Fprintf(&sb, "%2d. %s %s %s\n", i+1, r.palette.Critical(t.ID), t.Name.In(r.lang),
			r.palette.Dim(fmt.Sprintf("(%s → %s, %s)", formatDay(t.Start), formatDay(t.End), hours(t.Hours))))
	}
	fmt.Fprintf(&sb, "%s: %s\n", r.t("summary.hours"), hours(total))

	_, err := fmt.Fprint(r.w, sb.String())
	return err
}

// Stages writes the tasks that can run side by side, one stage per line
// labelled with its first workday counting from 1.
func (r *Renderer) Stages(stages []service.Stage) error {
	var sb strings.Builder
	fmt.Fprintln(&sb, r.palette.Title(r.t("title.stages")))
	if len(stages) == 0 {
		fmt.Fprintln(&sb, r.palette.Dim(r.t("no-data")))
	}

	for i, st := range stages {
		ids := make([]string, 0, len(st.Tasks))
		for _, t := range st.Tasks {
			if t.Critical {
				ids = append(ids, r.palette.Critical(t.ID))
				continue
			}
			ids = append(ids, t.ID)
		}
		fmt.Fprintf(&sb, "%2d. %s %d: %s\n", i+1, r.t("stage.day"), st.Start+1, strings.Join(ids, ", "))
	}

	_, err := fmt.Fprint(r.w, sb.String())
	return err
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.DateOnly)
}
