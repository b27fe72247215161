// Package command exposes the planner operations as named methods taking JSON
// parameters, so scripts can drive the planner through `madlab call`.
package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rcliao/madlab/internal/domain"
	"github.com/rcliao/madlab/internal/graph"
	"github.com/rcliao/madlab/internal/log"
	"github.com/rcliao/madlab/internal/search"
	"github.com/rcliao/madlab/internal/service"
)

// GanttStore persists the Gantt configuration. Reads go through the schedule
// service so unsaved configurations resolve to its defaults.
type GanttStore interface {
	SaveGanttConfig(ctx context.Context, cfg domain.GanttConfig) error
}

// DispatcherConfig is the configuration for the Dispatcher.
type DispatcherConfig struct {
	Tasks     *service.TaskService
	Schedules *service.ScheduleService
	Summaries *service.SummaryService
	Searcher  *search.Searcher
	Gantt     GanttStore
	// State provides the phase calendar and language. The dispatcher works
	// on copies and never mutates it.
	State  *domain.AppState
	Now    func() time.Time
	Logger log.Logger
}

func (c *DispatcherConfig) defaults() error {
	if c.Tasks == nil {
		return fmt.Errorf("task service is required")
	}
	if c.Schedules == nil {
		return fmt.Errorf("schedule service is required")
	}
	if c.Gantt == nil {
		return fmt.Errorf("gantt store is required")
	}
	if c.Summaries == nil {
		c.Summaries = service.NewSummaryService(c.Schedules)
	}
	if c.State == nil {
		c.State = domain.NewAppState()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "command.Dispatcher"})
	return nil
}

type Dispatcher struct {
	tasks     *service.TaskService
	schedules *service.ScheduleService
	summaries *service.SummaryService
	searcher  *search.Searcher
	gantt     GanttStore
	state     *domain.AppState
	now       func() time.Time
	logger    log.Logger
}

func NewDispatcher(cfg DispatcherConfig) (*Dispatcher, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Dispatcher{
		tasks:     cfg.Tasks,
		schedules: cfg.Schedules,
		summaries: cfg.Summaries,
		searcher:  cfg.Searcher,
		gantt:     cfg.Gantt,
		state:     cfg.State,
		now:       cfg.Now,
		logger:    cfg.Logger,
	}, nil
}

type Request struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

type Response struct {
	Result interface{} `json:"result,omitempty"`
	Error  *Error      `json:"error,omitempty"`
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error codes follow JSON-RPC where one exists.
const (
	CodeInvalidParams  = -32602
	CodeMethodNotFound = -32601
	CodeInternal       = -32603
	CodeNotFound       = 404
	CodeConflict       = 409
	CodeInvalidGraph   = 422
)

// ErrUnknownMethod is returned for methods the dispatcher does not serve.
var ErrUnknownMethod = errors.New("unknown method")

// Serve handles a request and reports failures inside the response.
func (d *Dispatcher) Serve(ctx context.Context, req Request) Response {
	result, err := d.HandleCommand(ctx, req.Method, req.Params)
	if err != nil {
		return Response{Error: &Error{Code: errorCode(err), Message: err.Error()}}
	}
	return Response{Result: result}
}

func errorCode(err error) int {
	var verr *graph.ValidationError
	switch {
	case errors.Is(err, ErrUnknownMethod):
		return CodeMethodNotFound
	case errors.Is(err, domain.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, domain.ErrAlreadyExists):
		return CodeConflict
	case errors.As(err, &verr):
		return CodeInvalidGraph
	case errors.Is(err, domain.ErrNotValid):
		return CodeInvalidParams
	}
	return CodeInternal
}

// Methods lists every method the dispatcher serves.
func Methods() []string {
	return []string{
		"madlab.task.list",
		"madlab.task.get",
		"madlab.task.create",
		"madlab.task.update",
		"madlab.task.delete",
		"madlab.task.search",
		"madlab.schedule.compute",
		"madlab.schedule.critical",
		"madlab.schedule.stages",
		"madlab.schedule.snapshots",
		"madlab.summary",
		"madlab.gantt.get",
		"madlab.gantt.set",
	}
}

func (d *Dispatcher) HandleCommand(ctx context.Context, method string, params json.RawMessage) (interface{}, error) {
	d.logger.Debugf("Handling command: %s", method)

	switch method {
	// Task commands
	case "madlab.task.list":
		return d.handleTaskList(ctx, params)
	case "madlab.task.get":
		return d.handleTaskGet(ctx, params)
	case "madlab.task.create":
		return d.handleTaskCreate(ctx, params)
	case "madlab.task.update":
		return d.handleTaskUpdate(ctx, params)
	case "madlab.task.delete":
		return d.handleTaskDelete(ctx, params)
	case "madlab.task.search":
		return d.handleTaskSearch(ctx, params)

	// Schedule commands
	case "madlab.schedule.compute":
		return d.handleScheduleCompute(ctx, params)
	case "madlab.schedule.critical":
		return d.handleScheduleCritical(ctx, params)
	case "madlab.schedule.stages":
		return d.handleScheduleStages(ctx, params)
	case "madlab.schedule.snapshots":
		return d.handleScheduleSnapshots(ctx, params)
	case "madlab.summary":
		return d.handleSummary(ctx, params)

	// Gantt configuration
	case "madlab.gantt.get":
		return d.schedules.GanttConfig(ctx)
	case "madlab.gantt.set":
		return d.handleGanttSet(ctx, params)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
}

// decode unmarshals params into v. Empty params leave v untouched.
func decode(params json.RawMessage, v interface{}) error {
	if len(params) == 0 || string(params) == "null" {
		return nil
	}
	if err := json.Unmarshal(params, v); err != nil {
		return fmt.Errorf("invalid parameters: %s: %w", err, domain.ErrNotValid)
	}
	return nil
}

// loadState returns a working copy of the session state with the stored task set
// and Gantt configuration loaded.
func (d *Dispatcher) loadState(ctx context.Context, filter FilterParams) (*domain.AppState, error) {
	st := *d.state
	st.Filter = filter.toDomain()
	if err := d.schedules.Load(ctx, &st); err != nil {
		return nil, err
	}
	return &st, nil
}
