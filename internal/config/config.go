// Package config loads the planner configuration from defaults, a madlab.yaml
// file, MADLAB_ environment variables (optionally preloaded from .env) and
// command line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/rcliao/madlab/internal/domain"
	"github.com/rcliao/madlab/internal/schedule"
)

const (
	EnvPrefix = "MADLAB"
	FileName  = "madlab"
	// DirName is the per-user and per-project data directory.
	DirName = ".madlab"
)

// Config represents the complete planner configuration.
type Config struct {
	Storage   StorageConfig   `mapstructure:"storage"`
	Lang      string          `mapstructure:"lang"`
	Theme     string          `mapstructure:"theme"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	// Phases overrides the default phase calendar when not empty.
	Phases []PhaseConfig `mapstructure:"phases"`
	Gantt  GanttConfig   `mapstructure:"gantt"`
	// Dataset is a YAML or JSON task file imported when the store is empty.
	Dataset string `mapstructure:"dataset"`
}

// StorageConfig selects where tasks are persisted.
type StorageConfig struct {
	// Backend is one of "memory", "file" or "sqlite".
	Backend string `mapstructure:"backend"`
	// Path is the project directory for the file backend and the database
	// file for sqlite.
	Path string `mapstructure:"path"`
}

type SchedulerConfig struct {
	Strict      bool    `mapstructure:"strict"`
	HoursPerDay int     `mapstructure:"hours_per_day"`
	Overflow    float64 `mapstructure:"overflow"`
}

type PhaseConfig struct {
	Number int    `mapstructure:"number"`
	NameES string `mapstructure:"name_es"`
	NameEN string `mapstructure:"name_en"`
	Start  string `mapstructure:"start"`
	End    string `mapstructure:"end"`
}

// GanttConfig holds the Gantt settings used until a configuration is saved
// in the store.
type GanttConfig struct {
	TimeScale        string  `mapstructure:"time_scale"`
	Zoom             float64 `mapstructure:"zoom"`
	GroupBy          string  `mapstructure:"group_by"`
	AutoSchedule     bool    `mapstructure:"auto_schedule"`
	ShowCriticalPath bool    `mapstructure:"show_critical_path"`
}

const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	gantt := domain.DefaultGanttConfig()
	return &Config{
		Storage: StorageConfig{
			Backend: BackendFile,
		},
		Lang:  "es",
		Theme: "light",
		Scheduler: SchedulerConfig{
			Strict:      true,
			HoursPerDay: schedule.DefaultHoursPerDay,
			Overflow:    schedule.DefaultOverflow,
		},
		Gantt: GanttConfig{
			TimeScale:        string(gantt.TimeScale),
			Zoom:             gantt.Zoom,
			GroupBy:          string(gantt.GroupBy),
			AutoSchedule:     gantt.AutoSchedule,
			ShowCriticalPath: gantt.ShowCriticalPath,
		},
	}
}

// SetDefaults registers the defaults on v. Every key needs a default so
// environment variables can override it.
func SetDefaults(v *viper.Viper) {
	defaults := Default()

	// Storage defaults
	v.SetDefault("storage.backend", defaults.Storage.Backend)
	v.SetDefault("storage.path", defaults.Storage.Path)

	v.SetDefault("lang", defaults.Lang)
	v.SetDefault("theme", defaults.Theme)
	v.SetDefault("dataset", defaults.Dataset)

	// Scheduler defaults
	v.SetDefault("scheduler.strict", defaults.Scheduler.Strict)
	v.SetDefault("scheduler.hours_per_day", defaults.Scheduler.HoursPerDay)
	v.SetDefault("scheduler.overflow", defaults.Scheduler.Overflow)

	// Gantt defaults
	v.SetDefault("gantt.time_scale", defaults.Gantt.TimeScale)
	v.SetDefault("gantt.zoom", defaults.Gantt.Zoom)
	v.SetDefault("gantt.group_by", defaults.Gantt.GroupBy)
	v.SetDefault("gantt.auto_schedule", defaults.Gantt.AutoSchedule)
	v.SetDefault("gantt.show_critical_path", defaults.Gantt.ShowCriticalPath)
}

// LoadOptions tell Load where to look.
type LoadOptions struct {
	// File is an explicit config file. When empty madlab.yaml is searched in
	// Dir and then in $HOME/.madlab.
	File string
	// EnvFile is preloaded into the environment when it exists. Variables
	// already set win.
	EnvFile string
	Dir     string
	Home    string
	// Flags maps config keys to command line flags. Only flags the user set
	// override the other sources.
	Flags map[string]*pflag.Flag
}

func (o *LoadOptions) defaults() {
	if o.Dir == "" {
		o.Dir, _ = os.Getwd()
	}
	if o.Home == "" {
		o.Home, _ = os.UserHomeDir()
	}
	if o.EnvFile == "" {
		o.EnvFile = filepath.Join(o.Dir, ".env")
	}
}

// Load reads the configuration and validates it. It returns the path of
// the config file used, empty when none was found.
func Load(opts LoadOptions) (*Config, string, error) {
	opts.defaults()

	if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, "", fmt.Errorf("could not load env file %s: %w", opts.EnvFile, err)
	}

	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.File != "" {
		v.SetConfigFile(opts.File)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(opts.Dir)
		if opts.Home != "" {
			v.AddConfigPath(filepath.Join(opts.Home, DirName))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.File != "" || !errors.As(err, &notFound) {
			return nil, "", fmt.Errorf("could not read config: %w", err)
		}
	}

	for key, flag := range opts.Flags {
		if flag == nil || !flag.Changed {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, "", fmt.Errorf("could not bind flag %s: %w", flag.Name, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("could not decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	return &cfg, v.ConfigFileUsed(), nil
}

// Validate checks every setting and reports the first problem.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory, BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("unknown storage backend %q: %w", c.Storage.Backend, domain.ErrNotValid)
	}
	switch c.Theme {
	case "light", "dark", "none":
	default:
		return fmt.Errorf("unknown theme %q: %w", c.Theme, domain.ErrNotValid)
	}
	if c.Scheduler.HoursPerDay <= 0 {
		return fmt.Errorf("scheduler.hours_per_day must be positive: %w", domain.ErrNotValid)
	}
	if c.Scheduler.Overflow < 0 {
		return fmt.Errorf("scheduler.overflow must not be negative: %w", domain.ErrNotValid)
	}
	if _, err := c.PhaseCalendar(); err != nil {
		return err
	}
	if err := c.GanttDefaults().Validate(); err != nil {
		return fmt.Errorf("invalid gantt defaults: %w", err)
	}
	return nil
}

// PhaseCalendar returns the configured phases, or the default calendar when
// none are configured.
func (c *Config) PhaseCalendar() (domain.PhaseCalendar, error) {
	if len(c.Phases) == 0 {
		return domain.DefaultPhaseCalendar(), nil
	}

	cal := make(domain.PhaseCalendar, 0, len(c.Phases))
	for _, p := range c.Phases {
		start, err := time.Parse(time.DateOnly, p.Start)
		if err != nil {
			return nil, fmt.Errorf("phase %d: invalid start %q: %w", p.Number, p.Start, domain.ErrNotValid)
		}
		end, err := time.Parse(time.DateOnly, p.End)
		if err != nil {
			return nil, fmt.Errorf("phase %d: invalid end %q: %w", p.Number, p.End, domain.ErrNotValid)
		}
		cal = append(cal, domain.Phase{
			Number: p.Number,
			Name:   domain.LocalizedText{ES: p.NameES, EN: p.NameEN},
			Start:  start,
			End:    end,
		})
	}
	if err := cal.Validate(); err != nil {
		return nil, fmt.Errorf("invalid phases: %w", err)
	}
	return cal, nil
}

func (c *Config) GanttDefaults() domain.GanttConfig {
	return domain.GanttConfig{
		TimeScale:        domain.TimeScale(c.Gantt.TimeScale),
		Zoom:             c.Gantt.Zoom,
		GroupBy:          domain.GroupBy(c.Gantt.GroupBy),
		AutoSchedule:     c.Gantt.AutoSchedule,
		ShowCriticalPath: c.Gantt.ShowCriticalPath,
	}
}

func (c *Config) SchedulerOptions() schedule.Options {
	return schedule.Options{
		Strict:      c.Scheduler.Strict,
		HoursPerDay: c.Scheduler.HoursPerDay,
		Overflow:    c.Scheduler.Overflow,
	}
}

// StoragePath resolves the storage path against dir: the project directory
// for the file backend and .madlab/madlab.db for sqlite.
func (c *Config) StoragePath(dir string) string {
	path := c.Storage.Path
	switch {
	case path == "" && c.Storage.Backend == BackendSQLite:
		path = filepath.Join(DirName, "madlab.db")
	case path == "":
		path = "."
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
