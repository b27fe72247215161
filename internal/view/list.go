package view

import (
	"fmt"
	"strings"

	"github.com/rcliao/madlab/internal/domain"
	"github.com/rcliao/madlab/internal/i18n"
	"github.com/rcliao/madlab/internal/service"
)

// List writes each group as a heading followed by one line per task.
func (r *Renderer) List(groups []service.TaskGroup) error {
	if len(groups) == 0 {
		_, err := fmt.Fprintln(r.w, r.palette.Dim(r.t("no-data")))
		return err
	}

	var sb strings.Builder
	for i, g := range groups {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%s %s\n", r.palette.Heading(g.Label), r.palette.Dim(fmt.Sprintf("(%d · %s)", len(g.Tasks), hours(g.Hours))))
		for _, t := range g.Tasks {
			sb.WriteString(r.listLine(t))
		}
	}

	_, err := fmt.Fprint(r.w, sb.String())
	return err
}

func (r *Renderer) listLine(t domain.ScheduledTask) string {
	icon := statusIcon(t.EffectiveStatus)
	if t.EffectiveStatus == domain.StatusCompleted {
		icon = r.palette.Done(icon)
	}

	id := t.ID
	if t.Critical {
		id = r.palette.Critical(id)
	}

	assignee := t.Assignee
	if assignee == "" {
		assignee = r.t("unassigned")
	}

	line := fmt.Sprintf("  %s %s  %s  %s", icon, id, t.Name.In(r.lang), r.palette.Dim(fmt.Sprintf("%s · %s · %d%%", assignee, hours(t.Hours), t.Progress)))
	if !t.Start.IsZero() {
		line += r.palette.Dim(fmt.Sprintf(" · %s → %s", t.Start.Format("02/01"), t.End.Format("02/01")))
	}
	if len(t.Dependencies) > 0 {
		line += r.palette.Dim(" ← " + strings.Join(t.Dependencies, ", "))
	}
	return line + "\n"
}

// Markdown writes the groups as a markdown checklist, one section per
// group. It never uses color.
func (r *Renderer) Markdown(groups []service.TaskGroup) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", r.t("title.tasks"))

	if len(groups) == 0 {
		fmt.Fprintf(&sb, "_%s_\n", r.t("no-data"))
		_, err := fmt.Fprint(r.w, sb.String())
		return err
	}

	for _, g := range groups {
		fmt.Fprintf(&sb, "## %s\n\n", g.Label)
		for _, t := range g.Tasks {
			sb.WriteString(r.markdownItem(t))
		}
		sb.WriteString("\n")
	}

	_, err := fmt.Fprint(r.w, strings.TrimRight(sb.String(), "\n")+"\n")
	return err
}

func (r *Renderer) markdownItem(t domain.ScheduledTask) string {
	checkbox := "[ ]"
	switch t.EffectiveStatus {
	case domain.StatusCompleted:
		checkbox = "[x]"
	case domain.StatusInProgress, domain.StatusReview:
		checkbox = "[>]"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "- %s **%s** `%s`", checkbox, t.Name.In(r.lang), t.ID)
	if t.Critical {
		fmt.Fprintf(&sb, " _%s_", r.t("column.critical"))
	}
	sb.WriteString("\n")

	details := []string{
		fmt.Sprintf("%s: %s", r.t("column.status"), i18n.Status(r.lang, t.EffectiveStatus)),
		fmt.Sprintf("%s: %s", r.t("column.hours"), formatHours(t.Hours)),
	}
	if t.Assignee != "" {
		details = append(details, fmt.Sprintf("%s: %s", r.t("column.assignee"), t.Assignee))
	}
	if !t.Start.IsZero() {
		details = append(details, fmt.Sprintf("%s: %s → %s", r.t("column.start"), t.Start.Format("2006-01-02"), t.End.Format("2006-01-02")))
	}
	fmt.Fprintf(&sb, "  %s\n", strings.Join(details, " · "))

	if len(t.Dependencies) > 0 {
		fmt.Fprintf(&sb, "  %s: %s\n", r.t("column.deps"), strings.Join(t.Dependencies, ", "))
	}
	return sb.String()
}
