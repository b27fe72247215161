// Package export writes scheduled tasks to files other tools can read:
// CSV spreadsheets, JSON documents and printable PDF tables.
package export

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rcliao/madlab/internal/domain"
	"github.com/rcliao/madlab/internal/i18n"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatPDF  Format = "pdf"
)

var formats = []Format{FormatCSV, FormatJSON, FormatPDF}

// ParseFormat accepts a format name or a file path whose extension names
// the format.
func ParseFormat(s string) (Format, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if ext := filepath.Ext(name); ext != "" {
		name = strings.TrimPrefix(ext, ".")
	}
	for _, f := range formats {
		if Format(name) == f {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported export format %q (supported: csv, json, pdf): %w", s, domain.ErrNotValid)
}

// Options control the rendering of an export.
type Options struct {
	Lang        domain.Lang
	Phases      domain.PhaseCalendar
	GeneratedAt time.Time
	// Title overrides the document title of formats that carry one.
	Title string
}

func (o *Options) defaults() {
	if o.Lang == "" {
		o.Lang = domain.LangES
	}
	if o.Phases == nil {
		o.Phases = domain.DefaultPhaseCalendar()
	}
	if o.GeneratedAt.IsZero() {
		o.GeneratedAt = time.Now()
	}
	if o.Title == "" {
		o.Title = i18n.T(o.Lang, "title.report")
	}
}

// Exporter writes scheduled tasks in one format.
type Exporter interface {
	Export(w io.Writer, tasks []domain.ScheduledTask, opts Options) error
}

// New returns the exporter for a format.
func New(format Format) (Exporter, error) {
	switch format {
	case FormatCSV:
		return CSVExporter{}, nil
	case FormatJSON:
		return JSONExporter{}, nil
	case FormatPDF:
		return PDFExporter{}, nil
	}
	return nil, fmt.Errorf("unsupported export format %q: %w", format, domain.ErrNotValid)
}

// columns are the label keys of the tabular exports, in order.
var columns = []string{
	"column.id",
	"column.name",
	"column.assignee",
	"column.hours",
	"column.difficulty",
	"column.phase",
	"column.section",
	"column.deps",
	"column.status",
	"column.start",
	"column.end",
	"column.progress",
	"column.critical",
}

func header(lang domain.Lang) []string {
	h := make([]string, len(columns))
	for i, c := range columns {
		h[i] = i18n.T(lang, c)
	}
	return h
}

// row renders one task with the same cells as header.
func row(t domain.ScheduledTask, lang domain.Lang) []string {
	critical := i18n.T(lang, "no")
	if t.Critical {
		critical = i18n.T(lang, "yes")
	}
	return []string{
		t.ID,
		t.Name.In(lang),
		t.Assignee,
		strconv.FormatFloat(t.Hours, 'f', -1, 64),
		strconv.Itoa(t.Difficulty),
		strconv.Itoa(t.Phase),
		t.Section,
		strings.Join(t.Dependencies, ";"),
		i18n.Status(lang, t.EffectiveStatus),
		formatDate(t.Start),
		formatDate(t.End),
		strconv.Itoa(t.Progress) + "%",
		critical,
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}
