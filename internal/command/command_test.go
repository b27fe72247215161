package command_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/madlab/internal/command"
	"github.com/rcliao/madlab/internal/domain"
	"github.com/rcliao/madlab/internal/schedule"
	"github.com/rcliao/madlab/internal/search"
	"github.com/rcliao/madlab/internal/service"
	"github.com/rcliao/madlab/internal/storage/memory"
)

var now = time.Date(2025, 8, 13, 10, 0, 0, 0, time.UTC)

func newDispatcher(t *testing.T) *command.Dispatcher {
	t.Helper()
	repo := memory.NewRepository()
	schedules, err := service.NewScheduleService(service.ScheduleServiceConfig{
		Repository: repo,
		Snapshots:  repo,
		Options:    schedule.DefaultOptions(),
	})
	require.NoError(t, err)

	d, err := command.NewDispatcher(command.DispatcherConfig{
		Tasks:     service.NewTaskService(repo, nil),
		Schedules: schedules,
		Searcher:  search.NewSearcher(repo),
		Gantt:     repo,
		Now:       func() time.Time { return now },
	})
	require.NoError(t, err)
	return d
}

// call runs a method and round trips its result through JSON into out.
func call(t *testing.T, d *command.Dispatcher, method string, params interface{}, out interface{}) command.Response {
	t.Helper()
	raw, err := json.Marshal(params)
	require.NoError(t, err)

	resp := d.Serve(context.Background(), command.Request{Method: method, Params: raw})
	if resp.Error == nil && out != nil {
		data, err := json.Marshal(resp.Result)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, out))
	}
	return resp
}

func seed(t *testing.T, d *command.Dispatcher) {
	t.Helper()
	tasks := []command.CreateTaskParams{
		{ID: "A", NameES: "Tarea A", NameEN: "Task A", Assignee: "Ana", Hours: 8, Difficulty: 1, Phase: 1},
		{ID: "B", NameES: "Tarea B", NameEN: "Task B", Assignee: "Ana", Hours: 16, Difficulty: 2, Phase: 1, Dependencies: []string{"A"}},
		{ID: "C", NameES: "Tarea C", NameEN: "Task C", Assignee: "Ana", Hours: 8, Difficulty: 1, Phase: 1, Dependencies: []string{"B"}},
		{ID: "D", NameES: "Diseño D", NameEN: "Design D", Assignee: "Ana", Hours: 8, Difficulty: 1, Phase: 1},
	}
	for _, p := range tasks {
		resp := call(t, d, "madlab.task.create", p, nil)
		require.Nil(t, resp.Error)
	}
}

func TestNewDispatcher_RequiresServices(t *testing.T) {
	_, err := command.NewDispatcher(command.DispatcherConfig{})
	assert.Error(t, err)
}

func TestDispatcher_TaskCommands(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	d := newDispatcher(t)
	seed(t, d)

	var created domain.Task
	resp := call(t, d, "madlab.task.create", command.CreateTaskParams{NameES: "Nueva", NameEN: "New", Hours: 2}, &created)
	require.Nil(resp.Error)
	assert.NotEmpty(created.ID)
	assert.Equal(1, created.Difficulty)
	assert.Equal(1, created.Phase)

	var listed []domain.Task
	resp = call(t, d, "madlab.task.list", command.FilterParams{Query: "task"}, &listed)
	require.Nil(resp.Error)
	require.Len(listed, 3)
	assert.Equal("A", listed[0].ID)

	var got domain.Task
	resp = call(t, d, "madlab.task.get", command.GetTaskParams{ID: "B"}, &got)
	require.Nil(resp.Error)
	assert.Equal([]string{"A"}, got.Dependencies)

	hours := 24.0
	var updated domain.Task
	resp = call(t, d, "madlab.task.update", command.UpdateTaskParams{ID: "B", Updates: service.TaskPatch{Hours: &hours}}, &updated)
	require.Nil(resp.Error)
	assert.Equal(24.0, updated.Hours)

	resp = call(t, d, "madlab.task.delete", command.DeleteTaskParams{ID: "A"}, nil)
	require.Nil(resp.Error)

	resp = call(t, d, "madlab.task.get", command.GetTaskParams{ID: "A"}, nil)
	require.NotNil(resp.Error)
	assert.Equal(command.CodeNotFound, resp.Error.Code)

	resp = call(t, d, "madlab.task.get", command.GetTaskParams{ID: "B"}, &got)
	require.Nil(resp.Error)
	assert.Empty(got.Dependencies)
}

func TestDispatcher_TaskSearch(t *testing.T) {
	d := newDispatcher(t)
	seed(t, d)

	var results []search.Result
	resp := call(t, d, "madlab.task.search", command.SearchTaskParams{Query: "diseno"}, &results)
	require.Nil(t, resp.Error)
	require.NotEmpty(t, results)
	assert.Equal(t, "D", results[0].Task.ID)
}

func TestDispatcher_ScheduleCommands(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	d := newDispatcher(t)
	seed(t, d)

	var plan struct {
		Order   []string               `json:"order"`
		Tasks   []domain.ScheduledTask `json:"tasks"`
		Visible []domain.ScheduledTask `json:"visible"`
	}
	resp := call(t, d, "madlab.schedule.compute", command.ScheduleParams{Filter: command.FilterParams{Query: "task c"}}, &plan)
	require.Nil(resp.Error)
	assert.Equal([]string{"A", "B", "C", "D"}, plan.Order)
	require.Len(plan.Visible, 1)
	assert.Equal(time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC), plan.Visible[0].Start)

	var critical []domain.ScheduledTask
	resp = call(t, d, "madlab.schedule.critical", nil, &critical)
	require.Nil(resp.Error)
	ids := []string{}
	for _, c := range critical {
		ids = append(ids, c.ID)
	}
	assert.Equal([]string{"A", "B", "C"}, ids)

	var snapshots []domain.ScheduleSnapshot
	resp = call(t, d, "madlab.schedule.snapshots", command.SnapshotsParams{Limit: 1}, &snapshots)
	require.Nil(resp.Error)
	assert.Len(snapshots, 1)

	var stages []service.Stage
	resp = call(t, d, "madlab.schedule.stages", nil, &stages)
	require.Nil(resp.Error)
	require.Len(stages, 3)
	require.Len(stages[0].Tasks, 2)
	assert.Equal("A", stages[0].Tasks[0].ID)
	assert.Equal("D", stages[0].Tasks[1].ID)
	assert.True(stages[0].Critical)

	var sum service.Summary
	resp = call(t, d, "madlab.summary", nil, &sum)
	require.Nil(resp.Error)
	assert.Equal(4, sum.Tasks)
	assert.Equal(40.0, sum.Hours)
	assert.Equal(3, sum.Critical)
}

func TestDispatcher_ScheduleRejectsCycles(t *testing.T) {
	d := newDispatcher(t)
	seed(t, d)

	deps := []string{"C"}
	resp := call(t, d, "madlab.task.update", command.UpdateTaskParams{ID: "A", Updates: service.TaskPatch{Dependencies: &deps}}, nil)
	require.Nil(t, resp.Error)

	resp = call(t, d, "madlab.schedule.compute", nil, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, command.CodeInvalidGraph, resp.Error.Code)
}

func TestDispatcher_GanttCommands(t *testing.T) {
	tests := map[string]struct {
		patch   string
		expErr  bool
		expCode int
		exp     func(cfg domain.GanttConfig) bool
	}{
		"Set scale and zoom": {
			patch: `{"timeScale":"day","zoom":2}`,
			exp: func(cfg domain.GanttConfig) bool {
				return cfg.TimeScale == domain.ScaleDay && cfg.Zoom == 2 && cfg.GroupBy == domain.GroupPhase
			},
		},
		"Set visible window": {
			patch: `{"visibleStart":"2025-09-01","visibleEnd":"2025-09-30"}`,
			exp: func(cfg domain.GanttConfig) bool {
				return cfg.VisibleStart != nil && cfg.VisibleStart.Day() == 1 && cfg.VisibleEnd != nil && cfg.VisibleEnd.Day() == 30
			},
		},
		"Zoom out of range": {
			patch:   `{"zoom":10}`,
			expErr:  true,
			expCode: command.CodeInvalidParams,
		},
		"Bad date": {
			patch:   `{"visibleStart":"01/09/2025"}`,
			expErr:  true,
			expCode: command.CodeInvalidParams,
		},
		"Malformed params": {
			patch:   `{"zoom":"big"}`,
			expErr:  true,
			expCode: command.CodeInvalidParams,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)
			d := newDispatcher(t)
			ctx := context.Background()

			resp := d.Serve(ctx, command.Request{Method: "madlab.gantt.set", Params: json.RawMessage(test.patch)})
			if test.expErr {
				require.NotNil(resp.Error)
				assert.Equal(test.expCode, resp.Error.Code)
				return
			}
			require.Nil(resp.Error)

			got, err := d.HandleCommand(ctx, "madlab.gantt.get", nil)
			require.NoError(err)
			cfg, ok := got.(domain.GanttConfig)
			require.True(ok)
			assert.True(test.exp(cfg))
		})
	}
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	d := newDispatcher(t)

	result, err := d.HandleCommand(context.Background(), "madlab.unknown.command", nil)
	assert.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, command.ErrUnknownMethod)

	resp := d.Serve(context.Background(), command.Request{Method: "nope"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, command.CodeMethodNotFound, resp.Error.Code)
}

func TestMethods(t *testing.T) {
	d := newDispatcher(t)
	for _, m := range command.Methods() {
		_, err := d.HandleCommand(context.Background(), m, nil)
		assert.NotErrorIs(t, err, command.ErrUnknownMethod, m)
	}
}
