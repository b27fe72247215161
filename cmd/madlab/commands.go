package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/rcliao/madlab/internal/command"
	"github.com/rcliao/madlab/internal/domain"
	"github.com/rcliao/madlab/internal/export"
	"github.com/rcliao/madlab/internal/service"
)

// filterFlags are the task selection flags shared by the plan views.
type filterFlags struct {
	phases        []int
	assignees     []string
	sections      []string
	statuses      []string
	minDifficulty int
	maxDifficulty int
	query         string
}

func (f *filterFlags) register(fs *pflag.FlagSet) {
	fs.IntSliceVar(&f.phases, "phase", nil, "Only tasks in these phases")
	fs.StringSliceVar(&f.assignees, "assignee", nil, "Only tasks of these assignees")
	fs.StringSliceVar(&f.sections, "section", nil, "Only tasks in these sections")
	fs.StringSliceVar(&f.statuses, "status", nil, "Only tasks with these statuses")
	fs.IntVar(&f.minDifficulty, "min-difficulty", 0, "Minimum difficulty (1-5)")
	fs.IntVar(&f.maxDifficulty, "max-difficulty", 0, "Maximum difficulty (1-5)")
	fs.StringVarP(&f.query, "query", "q", "", "Text to look for in names, sections, assignees and ids")
}

func (f filterFlags) toDomain() (domain.TaskFilter, error) {
	filter := domain.TaskFilter{
		Phases:        f.phases,
		Assignees:     f.assignees,
		Sections:      f.sections,
		MinDifficulty: f.minDifficulty,
		MaxDifficulty: f.maxDifficulty,
		Query:         f.query,
	}
	for _, s := range f.statuses {
		status := domain.TaskStatus(s)
		if !status.Valid() {
			return domain.TaskFilter{}, fmt.Errorf("unknown status %q: %w", s, domain.ErrNotValid)
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	return filter, nil
}

// plan loads the store and schedules it with the given filter.
func (a *app) plan(ctx context.Context, f filterFlags) (*service.Plan, error) {
	filter, err := f.toDomain()
	if err != nil {
		return nil, err
	}
	if err := a.load(ctx, filter); err != nil {
		return nil, err
	}
	return a.schedules.Compute(ctx, a.state, a.now)
}

func newImportCommand(r *rootCommand) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the task set with a YAML or JSON dataset",
		Args:  cobra.ExactArgs(1),
		RunE: r.withApp(func(ctx context.Context, a *app, args []string) error {
			ds, err := readDataset(ctx, args[0])
			if err != nil {
				return err
			}
			n, err := a.tasks.Import(ctx, ds.Tasks)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "%d tasks imported from %s\n", n, args[0])
			if len(ds.Phases) > 0 {
				fmt.Fprintf(a.stdout, "The dataset defines %d phases; set it as `dataset` in madlab.yaml to use them.\n", len(ds.Phases))
			}
			return nil
		}),
	}
}

func newTasksCommand(r *rootCommand) *cobra.Command {
	var (
		filter filterFlags
		group  string
		mode   string
	)

	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List the scheduled tasks",
		Args:  cobra.NoArgs,
		RunE: r.withApp(func(ctx context.Context, a *app, _ []string) error {
			plan, err := a.plan(ctx, filter)
			if err != nil {
				return err
			}

			by := a.state.Gantt.GroupBy
			if group != "" {
				by = domain.GroupBy(group)
				if !by.Valid() {
					return fmt.Errorf("unknown grouping %q: %w", group, domain.ErrNotValid)
				}
			}
			groups := service.Group(plan.Visible, by, a.state.Phases, a.state.Lang)

			switch mode {
			case "list":
				err = a.renderer.List(groups)
			case "grid":
				err = a.renderer.Grid(plan.Visible)
			case "markdown":
				err = a.renderer.Markdown(groups)
			default:
				return fmt.Errorf("unknown view %q: %w", mode, domain.ErrNotValid)
			}
			if err != nil {
				return err
			}
			return a.renderer.Warnings(plan.Warnings)
		}),
	}

	filter.register(cmd.Flags())
	cmd.Flags().StringVar(&group, "group", "", "Group by none|phase|assignee|section|status (default from the Gantt configuration)")
	cmd.Flags().StringVar(&mode, "view", "list", "Output view (list|grid|markdown)")

	return cmd
}

func newGanttCommand(r *rootCommand) *cobra.Command {
	var (
		filter filterFlags
		patch  ganttFlags
	)

	cmd := &cobra.Command{
		Use:   "gantt",
		Short: "Draw the Gantt chart",
		Args:  cobra.NoArgs,
		RunE: r.withApp(func(ctx context.Context, a *app, _ []string) error {
			plan, err := a.plan(ctx, filter)
			if err != nil {
				return err
			}

			cfg := a.state.Gantt
			if err := patch.toPatch().Apply(&cfg); err != nil {
				return err
			}
			groups := service.Group(plan.Visible, cfg.GroupBy, a.state.Phases, a.state.Lang)
			if err := a.renderer.Gantt(groups, cfg, a.now); err != nil {
				return err
			}
			return a.renderer.Warnings(plan.Warnings)
		}),
	}

	filter.register(cmd.Flags())
	patch.register(cmd.Flags())

	return cmd
}

func newCriticalCommand(r *rootCommand) *cobra.Command {
	var withStages bool

	cmd := &cobra.Command{
		Use:   "critical",
		Short: "Show the critical path",
		Args:  cobra.NoArgs,
		RunE: r.withApp(func(ctx context.Context, a *app, _ []string) error {
			if err := a.load(ctx, domain.TaskFilter{}); err != nil {
				return err
			}
			tasks, err := a.schedules.Critical(ctx, a.state, a.now)
			if err != nil {
				return err
			}
			if err := a.renderer.Critical(tasks); err != nil {
				return err
			}
			if !withStages {
				return nil
			}

			stages, err := a.schedules.Stages(ctx, a.state, a.now)
			if err != nil {
				return err
			}
			return a.renderer.Stages(stages)
		}),
	}
	cmd.Flags().BoolVar(&withStages, "stages", false, "Also list the tasks that can run in parallel")

	return cmd
}

func newSummaryCommand(r *rootCommand) *cobra.Command {
	var filter filterFlags

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarize hours, progress and workload",
		Args:  cobra.NoArgs,
		RunE: r.withApp(func(ctx context.Context, a *app, _ []string) error {
			f, err := filter.toDomain()
			if err != nil {
				return err
			}
			if err := a.load(ctx, f); err != nil {
				return err
			}
			sum, err := a.summaries.Generate(ctx, a.state, a.now)
			if err != nil {
				return err
			}
			return a.renderer.Summary(*sum)
		}),
	}

	filter.register(cmd.Flags())

	return cmd
}

func newExportCommand(r *rootCommand) *cobra.Command {
	var (
		filter filterFlags
		format string
		out    string
		title  string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the schedule as CSV, JSON or PDF",
		Args:  cobra.NoArgs,
		RunE: r.withApp(func(ctx context.Context, a *app, _ []string) error {
			toFile := out != "" && out != "-"

			name := format
			if name == "" && toFile {
				name = out
			}
			if name == "" {
				name = string(export.FormatCSV)
			}
			f, err := export.ParseFormat(name)
			if err != nil {
				return err
			}
			exporter, err := export.New(f)
			if err != nil {
				return err
			}

			plan, err := a.plan(ctx, filter)
			if err != nil {
				return err
			}

			w := a.stdout
			if toFile {
				file, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("could not create %s: %w", out, err)
				}
				defer file.Close()
				w = file
			}

			opts := export.Options{
				Lang:        a.state.Lang,
				Phases:      a.state.Phases,
				GeneratedAt: a.now,
				Title:       title,
			}
			if err := exporter.Export(w, plan.Visible, opts); err != nil {
				return fmt.Errorf("could not export: %w", err)
			}

			if toFile {
				if info, err := os.Stat(out); err == nil {
					a.logger.Infof("Exported %d tasks to %s (%s)", len(plan.Visible), out, humanize.Bytes(uint64(info.Size())))
				}
			}
			return nil
		}),
	}

	filter.register(cmd.Flags())
	cmd.Flags().StringVarP(&format, "format", "f", "", "Export format (csv|json|pdf), defaults to the output extension or csv")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file, stdout when empty or -")
	cmd.Flags().StringVar(&title, "title", "", "Document title")

	return cmd
}

// ganttFlags are the Gantt settings a command line can override.
type ganttFlags struct {
	fs           *pflag.FlagSet
	scale        string
	zoom         float64
	group        string
	autoSchedule bool
	critical     bool
	from         string
	to           string
}

func (g *ganttFlags) register(fs *pflag.FlagSet) {
	g.fs = fs
	fs.StringVar(&g.scale, "scale", "", "Time scale (day|week|month)")
	fs.Float64Var(&g.zoom, "zoom", 1, "Zoom factor (0.25-4)")
	fs.StringVar(&g.group, "group", "", "Group by none|phase|assignee|section|status")
	fs.BoolVar(&g.autoSchedule, "auto-schedule", true, "Compute dates automatically")
	fs.BoolVar(&g.critical, "critical-path", false, "Highlight the critical path")
	fs.StringVar(&g.from, "from", "", "First visible day (2006-01-02), empty clears it")
	fs.StringVar(&g.to, "to", "", "Last visible day (2006-01-02), empty clears it")
}

// toPatch returns a patch with only the flags set on the command line.
func (g *ganttFlags) toPatch() command.GanttPatch {
	var p command.GanttPatch
	changed := func(name string) bool { return g.fs != nil && g.fs.Changed(name) }

	if changed("scale") {
		scale := domain.TimeScale(g.scale)
		p.TimeScale = &scale
	}
	if changed("zoom") {
		p.Zoom = &g.zoom
	}
	if changed("group") {
		by := domain.GroupBy(g.group)
		p.GroupBy = &by
	}
	if changed("auto-schedule") {
		p.AutoSchedule = &g.autoSchedule
	}
	if changed("critical-path") {
		p.ShowCriticalPath = &g.critical
	}
	if changed("from") {
		p.VisibleStart = &g.from
	}
	if changed("to") {
		p.VisibleEnd = &g.to
	}
	return p
}

func newConfigCommand(r *rootCommand) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the saved Gantt configuration",
	}

	get := &cobra.Command{
		Use:   "get",
		Short: "Print the Gantt configuration",
		Args:  cobra.NoArgs,
		RunE: r.withApp(func(ctx context.Context, a *app, _ []string) error {
			return a.call(ctx, "madlab.gantt.get", nil)
		}),
	}

	var patch ganttFlags
	set := &cobra.Command{
		Use:   "set",
		Short: "Save Gantt settings",
		Args:  cobra.NoArgs,
		RunE: r.withApp(func(ctx context.Context, a *app, _ []string) error {
			params, err := json.Marshal(patch.toPatch())
			if err != nil {
				return err
			}
			return a.call(ctx, "madlab.gantt.set", params)
		}),
	}
	patch.register(set.Flags())

	cmd.AddCommand(get, set)
	return cmd
}

func newCallCommand(r *rootCommand) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "call <method> [json|-]",
		Short: "Run a planner method with JSON parameters",
		Long: `call runs one planner method and prints its JSON result. Parameters are
given as a JSON argument, or read from stdin when the argument is "-".`,
		Example: `  madlab call madlab.task.list '{"phases":[1]}'
  madlab call madlab.task.update '{"id":"t3","updates":{"status":"completed"}}'
  echo '{"timeScale":"day"}' | madlab call madlab.gantt.set -`,
		Args: cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				for _, m := range command.Methods() {
					fmt.Fprintln(r.stdout, m)
				}
				return nil
			}
			if len(args) == 0 {
				return fmt.Errorf("a method is required: %w", domain.ErrNotValid)
			}

			return r.withApp(func(ctx context.Context, a *app, args []string) error {
				var params json.RawMessage
				if len(args) > 1 {
					params = json.RawMessage(args[1])
					if args[1] == "-" {
						data, err := io.ReadAll(a.stdin)
						if err != nil {
							return fmt.Errorf("could not read parameters: %w", err)
						}
						params = json.RawMessage(strings.TrimSpace(string(data)))
					}
				}
				return a.call(ctx, args[0], params)
			})(cmd, args)
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "List the available methods")

	return cmd
}

// call serves a method through the dispatcher and prints the indented JSON
// result.
func (a *app) call(ctx context.Context, method string, params json.RawMessage) error {
	resp := a.dispatcher.Serve(ctx, command.Request{Method: method, Params: params})
	if resp.Error != nil {
		return fmt.Errorf("%s failed (%d): %s", method, resp.Error.Code, resp.Error.Message)
	}

	output, err := json.MarshalIndent(resp.Result, "", "  ")
	if err != nil {
		return fmt.Errorf("could not format result: %w", err)
	}
	fmt.Fprintln(a.stdout, string(output))
	return nil
}
