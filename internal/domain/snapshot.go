package domain

import "time"

// ScheduleSnapshot is a computed schedule stored for later comparison.
type ScheduleSnapshot struct {
	ID           string          `json:"id"`
	CreatedAt    time.Time       `json:"createdAt"`
	Now          time.Time       `json:"now"`
	AutoSchedule bool            `json:"autoSchedule"`
	Tasks        []ScheduledTask `json:"tasks"`
	CriticalPath []string        `json:"criticalPath"`
}
