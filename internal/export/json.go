package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/rcliao/madlab/internal/domain"
	"github.com/rcliao/madlab/internal/i18n"
)

// JSONExporter writes a single document with the computed fields of every
// task plus their localized labels.
type JSONExporter struct{}

type document struct {
	GeneratedAt time.Time    `json:"generatedAt"`
	Lang        domain.Lang  `json:"lang"`
	Tasks       []taskRecord `json:"tasks"`
}

type taskRecord struct {
	domain.ScheduledTask
	StatusLabel string `json:"statusLabel"`
	PhaseLabel  string `json:"phaseLabel"`
}

func (JSONExporter) Export(w io.Writer, tasks []domain.ScheduledTask, opts Options) error {
	opts.defaults()

	doc := document{
		GeneratedAt: opts.GeneratedAt.UTC(),
		Lang:        opts.Lang,
		Tasks:       make([]taskRecord, 0, len(tasks)),
	}
	for _, t := range tasks {
		doc.Tasks = append(doc.Tasks, taskRecord{
			ScheduledTask: t,
			StatusLabel:   i18n.Status(opts.Lang, t.EffectiveStatus),
			PhaseLabel:    phaseLabel(opts, t.Phase),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("could not encode JSON export: %w", err)
	}
	return nil
}

func phaseLabel(opts Options, number int) string {
	if p, ok := opts.Phases.Get(number); ok {
		return i18n.Phase(opts.Lang, p)
	}
	return i18n.Phase(opts.Lang, domain.Phase{Number: number})
}
