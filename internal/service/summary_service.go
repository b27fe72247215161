package service

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/rcliao/madlab/internal/domain"
	"github.com/rcliao/madlab/internal/schedule"
)

type SummaryService struct {
	schedules *ScheduleService
}

func NewSummaryService(schedules *ScheduleService) *SummaryService {
	return &SummaryService{schedules: schedules}
}

type Summary struct {
	GeneratedAt     time.Time                 `json:"generatedAt"`
	Tasks           int                       `json:"tasks"`
	Hours           float64                   `json:"hours"`
	Completion      int                       `json:"completion"`
	ByStatus        map[domain.TaskStatus]int `json:"byStatus"`
	ByPhase         map[int]int               `json:"byPhase"`
	HoursByPhase    map[int]float64           `json:"hoursByPhase"`
	ByAssignee      map[string]int            `json:"byAssignee"`
	HoursByAssignee map[string]float64        `json:"hoursByAssignee"`
	WeeklyLoad      []WeekLoad                `json:"weeklyLoad"`
	Overdue         []string                  `json:"overdue"`
	Critical        int                       `json:"critical"`
	ProjectStart    time.Time                 `json:"projectStart"`
	ProjectEnd      time.Time                 `json:"projectEnd"`
	Warnings        int                       `json:"warnings"`
}

// WeekLoad is the effort falling into one 7-day bucket counted from the
// Monday of the project start.
type WeekLoad struct {
	Week  int       `json:"week"`
	Start time.Time `json:"start"`
	Hours float64   `json:"hours"`
}

// Generate schedules the stored tasks with critical path analysis and
// summarizes the ones passing the state's filter.
func (s *SummaryService) Generate(ctx context.Context, state *domain.AppState, now time.Time) (*Summary, error) {
	saved := state.Gantt
	state.Gantt.ShowCriticalPath = true
	plan, err := s.schedules.Compute(ctx, state, now)
	state.Gantt = saved
	if err != nil {
		return nil, err
	}

	sum := Summarize(plan.Visible, now)
	sum.Warnings = len(plan.Warnings)
	return &sum, nil
}

// Summarize computes totals and breakdowns for scheduled tasks. Completion
// is the hours-weighted mean progress. A task is overdue when its end date
// has passed and its manual status is set to anything but completed.
func Summarize(tasks []domain.ScheduledTask, now time.Time) Summary {
	sum := Summary{
		GeneratedAt:     now,
		Tasks:           len(tasks),
		ByStatus:        make(map[domain.TaskStatus]int),
		ByPhase:         make(map[int]int),
		HoursByPhase:    make(map[int]float64),
		ByAssignee:      make(map[string]int),
		HoursByAssignee: make(map[string]float64),
		WeeklyLoad:      []WeekLoad{},
		Overdue:         []string{},
	}
	if len(tasks) == 0 {
		return sum
	}

	today := domain.Date(now)
	weighted, unweighted := 0.0, 0
	for _, t := range tasks {
		sum.Hours += t.Hours
		sum.ByStatus[t.EffectiveStatus]++
		sum.ByPhase[t.Phase]++
		sum.HoursByPhase[t.Phase] += t.Hours
		sum.ByAssignee[t.Assignee]++
		sum.HoursByAssignee[t.Assignee] += t.Hours
		weighted += float64(t.Progress) * t.Hours
		unweighted += t.Progress

		if t.Critical {
			sum.Critical++
		}
		if t.Status != "" && t.Status != domain.StatusCompleted && t.End.Before(today) {
			sum.Overdue = append(sum.Overdue, t.ID)
		}
		if sum.ProjectStart.IsZero() || t.Start.Before(sum.ProjectStart) {
			sum.ProjectStart = t.Start
		}
		if t.End.After(sum.ProjectEnd) {
			sum.ProjectEnd = t.End
		}
	}

	if sum.Hours > 0 {
		sum.Completion = int(math.Round(weighted / sum.Hours))
	} else {
		sum.Completion = int(math.Round(float64(unweighted) / float64(len(tasks))))
	}
	sort.Slice(sum.Overdue, func(i, j int) bool { return CompareIDs(sum.Overdue[i], sum.Overdue[j]) < 0 })
	sum.WeeklyLoad = weeklyLoad(tasks, sum.ProjectStart, sum.ProjectEnd)

	return sum
}

// weeklyLoad spreads each task's hours evenly over its workdays.
func weeklyLoad(tasks []domain.ScheduledTask, start, end time.Time) []WeekLoad {
	origin := start
	for origin.Weekday() != time.Monday {
		origin = origin.AddDate(0, 0, -1)
	}
	weeks := int(end.Sub(origin).Hours()/24)/7 + 1

	load := make([]WeekLoad, weeks)
	for w := range load {
		load[w] = WeekLoad{Week: w, Start: origin.AddDate(0, 0, 7*w)}
	}

	for _, t := range tasks {
		days := schedule.WorkdaysBetween(t.Start, t.End)
		if days == 0 {
			// A compressed task can sit on a weekend phase end.
			w := int(t.Start.Sub(origin).Hours()/24) / 7
			load[w].Hours += t.Hours
			continue
		}
		perDay := t.Hours / float64(days)
		for d := t.Start; !d.After(t.End); d = d.AddDate(0, 0, 1) {
			if !schedule.IsWorkday(d) {
				continue
			}
			w := int(d.Sub(origin).Hours()/24) / 7
			load[w].Hours += perDay
		}
	}
	return load
}
