package io

import (
	"context"
	"encoding/json"
	"fmt"
	stdio "io"
	"io/fs"
	"path"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rcliao/madlab/internal/domain"
	"github.com/rcliao/madlab/internal/storage"
)

// Format is a dataset file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the encoding from the file extension.
func FormatFromPath(p string) (Format, error) {
	switch strings.ToLower(path.Ext(p)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unsupported dataset extension %q: %w", path.Ext(p), domain.ErrNotValid)
}

const dateLayout = "2006-01-02"

// Dataset is a task list with an optional phase calendar.
type Dataset struct {
	Tasks  []domain.Task
	Phases domain.PhaseCalendar
}

// DatasetRepository loads task datasets from YAML or JSON files.
type DatasetRepository struct {
	fs fs.FS
}

func NewDatasetRepository(filesystem fs.FS) *DatasetRepository {
	return &DatasetRepository{fs: filesystem}
}

// LoadTasks reads the task list of a dataset file.
func (r *DatasetRepository) LoadTasks(ctx context.Context, p string) ([]domain.Task, error) {
	ds, err := r.LoadDataset(ctx, p)
	if err != nil {
		return nil, err
	}
	return ds.Tasks, nil
}

// LoadDataset reads and validates a dataset file. Phases are optional; when
// present they must form a valid calendar.
func (r *DatasetRepository) LoadDataset(ctx context.Context, p string) (Dataset, error) {
	format, err := FormatFromPath(p)
	if err != nil {
		return Dataset{}, err
	}

	data, err := fs.ReadFile(r.fs, p)
	if err != nil {
		return Dataset{}, fmt.Errorf("reading dataset file: %w", err)
	}

	if ctx.Err() != nil {
		return Dataset{}, ctx.Err()
	}

	var f DatasetFile
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &f)
	case FormatJSON:
		err = json.Unmarshal(data, &f)
	}
	if err != nil {
		return Dataset{}, fmt.Errorf("parsing %s: %w", format, err)
	}

	ds, err := f.toModel()
	if err != nil {
		return Dataset{}, fmt.Errorf("invalid dataset: %w", err)
	}
	return ds, nil
}

// WriteTasks encodes tasks in the dataset layout LoadDataset reads back.
func WriteTasks(w stdio.Writer, format Format, tasks []domain.Task) error {
	f := DatasetFile{Tasks: make([]TaskFile, 0, len(tasks))}
	for _, t := range tasks {
		f.Tasks = append(f.Tasks, taskFromModel(t))
	}

	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(f); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(f); err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
		return nil
	}
	return fmt.Errorf("unsupported format %q: %w", format, domain.ErrNotValid)
}

// DatasetFile is the on-disk structure of a dataset.
type DatasetFile struct {
	Phases []PhaseFile `yaml:"phases,omitempty" json:"phases,omitempty"`
	Tasks  []TaskFile  `yaml:"tasks" json:"tasks"`
}

// NameFile is a bilingual label.
type NameFile struct {
	ES string `yaml:"es" json:"es"`
	EN string `yaml:"en" json:"en"`
}

// PhaseFile is a phase window with dates written as YYYY-MM-DD.
type PhaseFile struct {
	Number int      `yaml:"number" json:"number"`
	Name   NameFile `yaml:"name" json:"name"`
	Start  string   `yaml:"start" json:"start"`
	End    string   `yaml:"end" json:"end"`
}

// TaskFile is a task as written in a dataset.
type TaskFile struct {
	ID           string   `yaml:"id" json:"id"`
	Name         NameFile `yaml:"name" json:"name"`
	Assignee     string   `yaml:"assignee" json:"assignee"`
	Hours        float64  `yaml:"hours" json:"hours"`
	Difficulty   int      `yaml:"difficulty" json:"difficulty"`
	Phase        int      `yaml:"phase" json:"phase"`
	Section      string   `yaml:"section" json:"section"`
	Dependencies []string `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`
	Status       string   `yaml:"status,omitempty" json:"status,omitempty"`
}

func (f DatasetFile) toModel() (Dataset, error) {
	var ds Dataset

	for _, p := range f.Phases {
		start, err := time.Parse(dateLayout, p.Start)
		if err != nil {
			return Dataset{}, fmt.Errorf("phase %d: start: %w", p.Number, err)
		}
		end, err := time.Parse(dateLayout, p.End)
		if err != nil {
			return Dataset{}, fmt.Errorf("phase %d: end: %w", p.Number, err)
		}
		ds.Phases = append(ds.Phases, domain.Phase{
			Number: p.Number,
			Name:   domain.LocalizedText{ES: p.Name.ES, EN: p.Name.EN},
			Start:  start,
			End:    end,
		})
	}
	if len(ds.Phases) > 0 {
		if err := ds.Phases.Validate(); err != nil {
			return Dataset{}, err
		}
	}

	ds.Tasks = make([]domain.Task, 0, len(f.Tasks))
	for _, t := range f.Tasks {
		ds.Tasks = append(ds.Tasks, t.toModel())
	}
	if err := storage.ValidateTaskSet(ds.Tasks); err != nil {
		return Dataset{}, err
	}

	return ds, nil
}

func (t TaskFile) toModel() domain.Task {
	deps := make([]string, 0, len(t.Dependencies))
	for _, d := range t.Dependencies {
		if d = strings.TrimSpace(d); d != "" {
			deps = append(deps, d)
		}
	}
	return domain.Task{
		ID:           strings.TrimSpace(t.ID),
		Name:         domain.LocalizedText{ES: t.Name.ES, EN: t.Name.EN},
		Assignee:     t.Assignee,
		Hours:        t.Hours,
		Difficulty:   t.Difficulty,
		Phase:        t.Phase,
		Section:      t.Section,
		Dependencies: deps,
		Status:       domain.TaskStatus(t.Status),
	}
}

func taskFromModel(t domain.Task) TaskFile {
	return TaskFile{
		ID:           t.ID,
		Name:         NameFile{ES: t.Name.ES, EN: t.Name.EN},
		Assignee:     t.Assignee,
		Hours:        t.Hours,
		Difficulty:   t.Difficulty,
		Phase:        t.Phase,
		Section:      t.Section,
		Dependencies: t.Dependencies,
		Status:       string(t.Status),
	}
}
