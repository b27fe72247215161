package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/rcliao/madlab/internal/command"
	"github.com/rcliao/madlab/internal/config"
	"github.com/rcliao/madlab/internal/domain"
	"github.com/rcliao/madlab/internal/i18n"
	"github.com/rcliao/madlab/internal/log"
	"github.com/rcliao/madlab/internal/search"
	"github.com/rcliao/madlab/internal/service"
	"github.com/rcliao/madlab/internal/storage"
	"github.com/rcliao/madlab/internal/storage/file"
	storageio "github.com/rcliao/madlab/internal/storage/io"
	"github.com/rcliao/madlab/internal/storage/memory"
	"github.com/rcliao/madlab/internal/storage/sqlite"
	"github.com/rcliao/madlab/internal/view"
)

// rootFlags are the global flags shared by every command.
type rootFlags struct {
	ConfigFile string
	Debug      bool
	NoLog      bool
	LoggerType string
	Lang       string
	Theme      string
	Storage    string
	Now        string
}

type rootCommand struct {
	cmd    *cobra.Command
	flags  rootFlags
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	logOnce sync.Once
	log     log.Logger
}

func newRootCommand(stdin io.Reader, stdout, stderr io.Writer) *rootCommand {
	r := &rootCommand{stdin: stdin, stdout: stdout, stderr: stderr}

	r.cmd = &cobra.Command{
		Use:   "madlab",
		Short: "Plan the MADLAB initiative: tasks, phases, Gantt and critical path",
		Long: `madlab schedules a bilingual task set inside fixed phase windows,
computes the critical path and renders the plan as a list, a grid, an ASCII
Gantt chart, a summary or an export file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := r.cmd.PersistentFlags()
	pf.StringVar(&r.flags.ConfigFile, "config", "", "Config file (default madlab.yaml in the current directory or $HOME/.madlab)")
	pf.BoolVar(&r.flags.Debug, "debug", false, "Enable debug mode")
	pf.BoolVar(&r.flags.NoLog, "no-log", false, "Disable logger")
	pf.StringVar(&r.flags.LoggerType, "logger", LoggerTypeDefault, "Logger type (default|json)")
	pf.StringVar(&r.flags.Lang, "lang", "", "Output language (es|en)")
	pf.StringVar(&r.flags.Theme, "theme", "", "Color theme (light|dark|none)")
	pf.StringVar(&r.flags.Storage, "storage", "", "Storage backend (memory|file|sqlite)")
	pf.StringVar(&r.flags.Now, "now", "", "Reference date (2006-01-02 or RFC3339), defaults to today")

	r.cmd.AddCommand(
		newImportCommand(r),
		newTasksCommand(r),
		newGanttCommand(r),
		newCriticalCommand(r),
		newSummaryCommand(r),
		newExportCommand(r),
		newConfigCommand(r),
		newCallCommand(r),
	)

	return r
}

// logger builds the logger on first use. The signal handler and the running
// command may both ask for it.
func (r *rootCommand) logger() log.Logger {
	r.logOnce.Do(func() {
		r.log = getLogger(r.flags, r.stderr)
	})
	return r.log
}

// withApp wires the application for a command and closes it afterwards.
func (r *rootCommand) withApp(fn func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, r, cmd.Flags())
		if err != nil {
			return err
		}
		defer a.Close()

		return fn(ctx, a, args)
	}
}

// app holds the services a command works with.
type app struct {
	cfg        *config.Config
	logger     log.Logger
	repo       storage.Repository
	tasks      *service.TaskService
	schedules  *service.ScheduleService
	summaries  *service.SummaryService
	dispatcher *command.Dispatcher
	state      *domain.AppState
	renderer   *view.Renderer
	now        time.Time
	stdin      io.Reader
	stdout     io.Writer
	closers    []io.Closer
}

func newApp(ctx context.Context, r *rootCommand, flags *pflag.FlagSet) (*app, error) {
	logger := r.logger()

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("could not get current directory: %w", err)
	}

	cfg, used, err := config.Load(config.LoadOptions{
		File: r.flags.ConfigFile,
		Dir:  cwd,
		Flags: map[string]*pflag.Flag{
			"lang":            flags.Lookup("lang"),
			"theme":           flags.Lookup("theme"),
			"storage.backend": flags.Lookup("storage"),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("could not load config: %w", err)
	}
	if used != "" {
		logger.Debugf("Config loaded from %s", used)
	}

	now, err := parseNow(r.flags.Now)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, now: now, stdin: r.stdin, stdout: r.stdout}

	phases, err := cfg.PhaseCalendar()
	if err != nil {
		return nil, err
	}

	var snapshots storage.SnapshotRepository
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		repo := memory.NewRepository()
		a.repo, snapshots = repo, repo
	case config.BackendFile:
		repo, err := file.NewRepository(file.RepositoryConfig{BasePath: cfg.StoragePath(cwd), Logger: logger})
		if err != nil {
			return nil, err
		}
		a.repo = repo
	case config.BackendSQLite:
		repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{DBPath: cfg.StoragePath(cwd), Logger: logger})
		if err != nil {
			return nil, err
		}
		a.repo, snapshots = repo, repo
		a.closers = append(a.closers, repo)
	}

	a.tasks = service.NewTaskService(a.repo, logger)
	a.schedules, err = service.NewScheduleService(service.ScheduleServiceConfig{
		Repository:    a.repo,
		Snapshots:     snapshots,
		Options:       cfg.SchedulerOptions(),
		GanttDefaults: cfg.GanttDefaults(),
		Logger:        logger,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.summaries = service.NewSummaryService(a.schedules)

	a.state = domain.NewAppState()
	a.state.Phases = phases
	a.state.Lang = i18n.ParseLang(cfg.Lang)

	if cfg.Dataset != "" {
		path := cfg.Dataset
		if !filepath.IsAbs(path) {
			path = filepath.Join(cwd, path)
		}
		if err := a.seed(ctx, path); err != nil {
			a.Close()
			return nil, err
		}
	}

	a.dispatcher, err = command.NewDispatcher(command.DispatcherConfig{
		Tasks:     a.tasks,
		Schedules: a.schedules,
		Summaries: a.summaries,
		Searcher:  search.NewSearcher(a.repo),
		Gantt:     a.repo,
		State:     a.state,
		Now:       func() time.Time { return a.now },
		Logger:    logger,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	a.renderer, err = view.NewRenderer(view.RendererConfig{
		Writer: r.stdout,
		Lang:   a.state.Lang,
		Theme:  view.Theme(cfg.Theme),
		Phases: a.state.Phases,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	return a, nil
}

func (a *app) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Warningf("Could not close resource: %s", err)
		}
	}
}

// seed imports the configured dataset into an empty store. Phases in the
// dataset replace the calendar unless the config sets its own.
func (a *app) seed(ctx context.Context, path string) error {
	ds, err := readDataset(ctx, path)
	if err != nil {
		return err
	}
	if len(ds.Phases) > 0 && len(a.cfg.Phases) == 0 {
		a.state.Phases = ds.Phases
	}

	existing, err := a.repo.ListTasks(ctx, domain.TaskFilter{})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	n, err := a.tasks.Import(ctx, ds.Tasks)
	if err != nil {
		return err
	}
	a.logger.Infof("Seeded %d tasks from %s", n, path)
	return nil
}

// load refreshes the state from the store. The config's Gantt defaults apply
// while the store holds no saved configuration of its own.
func (a *app) load(ctx context.Context, filter domain.TaskFilter) error {
	a.state.Filter = filter
	return a.schedules.Load(ctx, a.state)
}

func readDataset(ctx context.Context, path string) (storageio.Dataset, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return storageio.Dataset{}, err
	}
	repo := storageio.NewDatasetRepository(os.DirFS(filepath.Dir(abs)))
	return repo.LoadDataset(ctx, filepath.Base(abs))
}

func parseNow(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --now %q: %w", s, domain.ErrNotValid)
	}
	return t, nil
}
