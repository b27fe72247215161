package schedule

import (
	"math"
	"time"

	"github.com/rcliao/madlab/internal/domain"
)

var statusProgress = map[domain.TaskStatus]int{
	domain.StatusNotStarted: 0,
	domain.StatusPlanning:   10,
	domain.StatusInProgress: 50,
	domain.StatusReview:     80,
	domain.StatusCompleted:  100,
}

// Progress returns the completion percentage and effective status of a task
// scheduled over [start, end] as seen at now. A manually set status wins;
// otherwise both are derived from where now falls in the window.
func Progress(manual domain.TaskStatus, start, end, now time.Time) (int, domain.TaskStatus) {
	if pct, ok := statusProgress[manual]; ok {
		return pct, manual
	}

	today := domain.Date(now)
	switch {
	case today.Before(start):
		return 0, domain.StatusNotStarted
	case today.After(end):
		return 100, domain.StatusCompleted
	}

	total := WorkdaysBetween(start, end)
	if total == 0 {
		return 50, domain.StatusInProgress
	}
	elapsed := WorkdaysBetween(start, today)
	pct := int(math.Round(float64(elapsed) / float64(total) * 100))
	if pct >= 100 {
		pct = 99
	}
	return pct, domain.StatusInProgress
}
