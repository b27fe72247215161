package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newWorkspace writes a config using the file backend in a temp dir, seeded
// from the test dataset.
func newWorkspace(t *testing.T) string {
	t.Helper()
	dataset, err := filepath.Abs(filepath.Join("testdata", "dataset.yaml"))
	require.NoError(t, err)

	dir := t.TempDir()
	cfg := fmt.Sprintf("theme: none\nstorage:\n  backend: file\n  path: %q\ndataset: %q\n", dir, dataset)
	path := filepath.Join(dir, "madlab.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path
}

func execute(t *testing.T, cfg string, stdin string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	argv := append([]string{"madlab", "--config", cfg, "--no-log", "--now", "2025-08-13"}, args...)
	err := Run(context.Background(), argv, strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), err
}

func TestRun_Views(t *testing.T) {
	tests := map[string]struct {
		args        []string
		expContains []string
		expMissing  []string
	}{
		"Tasks as a list in Spanish": {
			args:        []string{"tasks"},
			expContains: []string{"Fase 1: Preparación", "t1", "Diseñar talleres", "Reservar espacios"},
		},
		"Tasks as a grid in English": {
			args:        []string{"--lang", "en", "tasks", "--view", "grid"},
			expContains: []string{"ASSIGNEE", "Design workshops", "Completed"},
		},
		"Filtered tasks": {
			args:        []string{"tasks", "--assignee", "Luis"},
			expContains: []string{"t3", "t4"},
			expMissing:  []string{"Diseñar talleres"},
		},
		"Markdown": {
			args:        []string{"tasks", "--view", "markdown"},
			expContains: []string{"[x]", "t1"},
		},
		"Gantt chart": {
			args:        []string{"gantt", "--scale", "day"},
			expContains: []string{"t2", "█"},
		},
		"Critical path": {
			args:        []string{"critical"},
			expContains: []string{"t1", "t2", "t3"},
			expMissing:  []string{"t4"},
		},
		"Critical path with parallel stages": {
			args:        []string{"--lang", "en", "critical", "--stages"},
			expContains: []string{"Critical path", "Parallel stages", " 1. Day 1: t1", "t4"},
		},
		"Summary": {
			args:        []string{"--lang", "en", "summary"},
			expContains: []string{"Tasks", "40"},
		},
		"CSV export to stdout": {
			args:        []string{"--lang", "en", "export"},
			expContains: []string{"ID,Task,Assignee", "t2,Design workshops,Ana"},
		},
		"Method list": {
			args:        []string{"call", "--list"},
			expContains: []string{"madlab.task.list", "madlab.gantt.set"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			out, err := execute(t, newWorkspace(t), "", test.args...)
			require.NoError(t, err)
			for _, s := range test.expContains {
				assert.Contains(t, out, s)
			}
			for _, s := range test.expMissing {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestRun_ConfigSetPersists(t *testing.T) {
	cfg := newWorkspace(t)

	out, err := execute(t, cfg, "", "config", "set", "--scale", "day", "--zoom", "2")
	require.NoError(t, err)
	assert.Contains(t, out, `"timeScale": "day"`)

	out, err = execute(t, cfg, "", "config", "get")
	require.NoError(t, err)
	assert.Contains(t, out, `"timeScale": "day"`)
	assert.Contains(t, out, `"zoom": 2`)

	_, err = execute(t, cfg, "", "config", "set", "--zoom", "9")
	assert.Error(t, err)
}

func TestRun_ConfigFileGanttDefaults(t *testing.T) {
	cfg := newWorkspace(t)
	f, err := os.OpenFile(cfg, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("gantt:\n  time_scale: day\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	out, err := execute(t, cfg, "", "config", "get")
	require.NoError(t, err)
	assert.Contains(t, out, `"timeScale": "day"`)

	// Saving the built-in week scale must stick even though the config file
	// asks for days.
	_, err = execute(t, cfg, "", "config", "set", "--scale", "week")
	require.NoError(t, err)

	out, err = execute(t, cfg, "", "config", "get")
	require.NoError(t, err)
	assert.Contains(t, out, `"timeScale": "week"`)
}

func TestRun_Call(t *testing.T) {
	cfg := newWorkspace(t)

	out, err := execute(t, cfg, "", "call", "madlab.task.get", `{"id":"t2"}`)
	require.NoError(t, err)
	assert.Contains(t, out, `"id": "t2"`)

	out, err = execute(t, cfg, `{"id":"t4","updates":{"status":"in-progress"}}`, "call", "madlab.task.update", "-")
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "in-progress"`)

	_, err = execute(t, cfg, "", "call", "madlab.nope")
	assert.Error(t, err)

	_, err = execute(t, cfg, "", "call")
	assert.Error(t, err)
}

func TestRun_ImportAndExportFile(t *testing.T) {
	cfg := newWorkspace(t)
	dir := filepath.Dir(cfg)

	data := filepath.Join(dir, "other.json")
	require.NoError(t, os.WriteFile(data, []byte(`{"tasks":[{"id":"x1","name":{"es":"Uno","en":"One"},"hours":4,"difficulty":1,"phase":2,"section":"S"}]}`), 0o644))

	out, err := execute(t, cfg, "", "import", data)
	require.NoError(t, err)
	assert.Contains(t, out, "1 tasks imported")

	target := filepath.Join(dir, "plan.json")
	_, err = execute(t, cfg, "", "export", "--out", target)
	require.NoError(t, err)

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(got), `"x1"`)
	assert.NotContains(t, string(got), `"t1"`)
}

func TestRun_InvalidInput(t *testing.T) {
	tests := map[string]struct {
		args []string
	}{
		"Unknown view":     {args: []string{"tasks", "--view", "kanban"}},
		"Unknown status":   {args: []string{"tasks", "--status", "blocked"}},
		"Unknown grouping": {args: []string{"tasks", "--group", "team"}},
		"Unknown format":   {args: []string{"export", "--format", "xlsx"}},
		"Bad now":          {args: []string{"--now", "yesterday", "summary"}},
		"Bad storage":      {args: []string{"--storage", "mongo", "summary"}},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := execute(t, newWorkspace(t), "", test.args...)
			assert.Error(t, err)
		})
	}
}

func TestRootCommand_LoggerIsBuiltOnce(t *testing.T) {
	var stderr bytes.Buffer
	root := newRootCommand(strings.NewReader(""), &bytes.Buffer{}, &stderr)
	root.flags.Debug = true

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NotNil(t, root.logger())
		}()
	}
	wg.Wait()

	// Building a debug logger announces it once.
	assert.Equal(t, 1, strings.Count(stderr.String(), "Debug level is enabled"))
}
