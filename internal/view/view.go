// Package view renders tasks, schedules and summaries for a terminal.
package view

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"

	"github.com/rcliao/madlab/internal/domain"
	"github.com/rcliao/madlab/internal/i18n"
	"github.com/rcliao/madlab/internal/schedule"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
	ThemeNone  Theme = "none"
)

func ParseTheme(s string) (Theme, error) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(s))); t {
	case ThemeLight, ThemeDark, ThemeNone:
		return t, nil
	case "":
		return ThemeLight, nil
	}
	return "", fmt.Errorf("unknown theme %q: %w", s, domain.ErrNotValid)
}

// Palette holds the color functions a renderer styles text with.
type Palette struct {
	Title    func(a ...interface{}) string
	Heading  func(a ...interface{}) string
	Dim      func(a ...interface{}) string
	Bar      func(a ...interface{}) string
	Done     func(a ...interface{}) string
	Critical func(a ...interface{}) string
	Today    func(a ...interface{}) string
	Warning  func(a ...interface{}) string
}

// NewPalette returns the palette of a theme. ThemeNone never emits escape
// codes; the other themes follow the terminal detection of fatih/color.
func NewPalette(theme Theme) Palette {
	mk := func(attrs ...color.Attribute) func(a ...interface{}) string {
		c := color.New(attrs...)
		if theme == ThemeNone {
			c.DisableColor()
		}
		return c.SprintFunc()
	}

	if theme == ThemeDark {
		return Palette{
			Title:    mk(color.Bold, color.FgHiWhite),
			Heading:  mk(color.Bold, color.FgHiCyan),
			Dim:      mk(color.Faint),
			Bar:      mk(color.FgHiBlue),
			Done:     mk(color.FgHiGreen),
			Critical: mk(color.Bold, color.FgHiRed),
			Today:    mk(color.FgHiYellow),
			Warning:  mk(color.FgHiYellow),
		}
	}
	return Palette{
		Title:    mk(color.Bold),
		Heading:  mk(color.Bold, color.FgBlue),
		Dim:      mk(color.Faint),
		Bar:      mk(color.FgBlue),
		Done:     mk(color.FgGreen),
		Critical: mk(color.Bold, color.FgRed),
		Today:    mk(color.FgMagenta),
		Warning:  mk(color.FgYellow),
	}
}

// RendererConfig is the configuration for a Renderer.
type RendererConfig struct {
	Writer io.Writer
	Lang   domain.Lang
	Theme  Theme
	Phases domain.PhaseCalendar
}

func (c *RendererConfig) defaults() error {
	if c.Writer == nil {
		c.Writer = os.Stdout
	}
	if c.Lang == "" {
		c.Lang = domain.LangES
	}
	if c.Theme == "" {
		c.Theme = ThemeLight
	}
	if _, err := ParseTheme(string(c.Theme)); err != nil {
		return err
	}
	if c.Phases == nil {
		c.Phases = domain.DefaultPhaseCalendar()
	}
	return nil
}

// Renderer writes views in one language and theme.
type Renderer struct {
	w       io.Writer
	lang    domain.Lang
	palette Palette
	phases  domain.PhaseCalendar
}

func NewRenderer(cfg RendererConfig) (*Renderer, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Renderer{
		w:       cfg.Writer,
		lang:    cfg.Lang,
		palette: NewPalette(cfg.Theme),
		phases:  cfg.Phases,
	}, nil
}

func (r *Renderer) t(key string) string {
	return i18n.T(r.lang, key)
}

// Warnings lists scheduler warnings with their localized kind.
func (r *Renderer) Warnings(warnings []schedule.Warning) error {
	for _, w := range warnings {
		label := r.t("warning." + string(w.Kind))
		if _, err := fmt.Fprintf(r.w, "%s %s: %s\n", r.palette.Warning("!"), r.palette.Warning(label), w.Message); err != nil {
			return err
		}
	}
	return nil
}

// statusIcon is the one-character marker of a status.
func statusIcon(s domain.TaskStatus) string {
	switch s {
	case domain.StatusCompleted:
		return "✓"
	case domain.StatusReview:
		return "◐"
	case domain.StatusInProgress:
		return "●"
	case domain.StatusPlanning:
		return "○"
	default:
		return "◌"
	}
}

// truncate shortens s to at most n runes, marking the cut with "…".
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-1]) + "…"
}

// pad right-pads s with spaces to n runes, truncating when longer.
func pad(s string, n int) string {
	s = truncate(s, n)
	return s + strings.Repeat(" ", n-utf8.RuneCountInString(s))
}

func hours(h float64) string {
	return formatHours(h) + "h"
}
