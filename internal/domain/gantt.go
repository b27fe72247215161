package domain

import (
	"fmt"
	"time"
)

type TimeScale string

const (
	ScaleDay   TimeScale = "day"
	ScaleWeek  TimeScale = "week"
	ScaleMonth TimeScale = "month"
)

type GroupBy string

const (
	GroupNone     GroupBy = "none"
	GroupPhase    GroupBy = "phase"
	GroupAssignee GroupBy = "assignee"
	GroupSection  GroupBy = "section"
	GroupStatus   GroupBy = "status"
)

func (g GroupBy) Valid() bool {
	switch g {
	case GroupNone, GroupPhase, GroupAssignee, GroupSection, GroupStatus:
		return true
	}
	return false
}

const (
	MinZoom = 0.25
	MaxZoom = 4.0
)

// GanttConfig is the user-facing Gantt configuration for a session.
type GanttConfig struct {
	TimeScale        TimeScale  `json:"timeScale"`
	VisibleStart     *time.Time `json:"visibleStart,omitempty"`
	VisibleEnd       *time.Time `json:"visibleEnd,omitempty"`
	Zoom             float64    `json:"zoom"`
	GroupBy          GroupBy    `json:"groupBy"`
	AutoSchedule     bool       `json:"autoSchedule"`
	ShowCriticalPath bool       `json:"showCriticalPath"`
}

func DefaultGanttConfig() GanttConfig {
	return GanttConfig{
		TimeScale:    ScaleWeek,
		Zoom:         1,
		GroupBy:      GroupPhase,
		AutoSchedule: true,
	}
}

func (c GanttConfig) Validate() error {
	switch c.TimeScale {
	case ScaleDay, ScaleWeek, ScaleMonth:
	default:
		return fmt.Errorf("unknown time scale %q: %w", c.TimeScale, ErrNotValid)
	}
	if c.Zoom < MinZoom || c.Zoom > MaxZoom {
		return fmt.Errorf("zoom %.2f out of range %.2f-%.2f: %w", c.Zoom, MinZoom, MaxZoom, ErrNotValid)
	}
	if !c.GroupBy.Valid() {
		return fmt.Errorf("unknown grouping %q: %w", c.GroupBy, ErrNotValid)
	}
	if c.VisibleStart != nil && c.VisibleEnd != nil && c.VisibleEnd.Before(*c.VisibleStart) {
		return fmt.Errorf("visible window ends before it starts: %w", ErrNotValid)
	}
	return nil
}

// Window returns the visible date range, defaulting to the given span.
func (c GanttConfig) Window(start, end time.Time) (time.Time, time.Time) {
	if c.VisibleStart != nil {
		start = Date(*c.VisibleStart)
	}
	if c.VisibleEnd != nil {
		end = Date(*c.VisibleEnd)
	}
	return start, end
}
