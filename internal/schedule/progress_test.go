package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rcliao/madlab/internal/domain"
)

func TestProgress(t *testing.T) {
	start, end := day(time.August, 11), day(time.August, 15)

	tests := map[string]struct {
		manual    domain.TaskStatus
		now       time.Time
		expPct    int
		expStatus domain.TaskStatus
	}{
		"before start":     {now: day(time.August, 1), expPct: 0, expStatus: domain.StatusNotStarted},
		"first day":        {now: day(time.August, 11), expPct: 20, expStatus: domain.StatusInProgress},
		"midweek":          {now: day(time.August, 13).Add(10 * time.Hour), expPct: 60, expStatus: domain.StatusInProgress},
		"last day":         {now: day(time.August, 15), expPct: 99, expStatus: domain.StatusInProgress},
		"after end":        {now: day(time.August, 18), expPct: 100, expStatus: domain.StatusCompleted},
		"manual planning":  {manual: domain.StatusPlanning, now: day(time.August, 18), expPct: 10, expStatus: domain.StatusPlanning},
		"manual completed": {manual: domain.StatusCompleted, now: day(time.August, 1), expPct: 100, expStatus: domain.StatusCompleted},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			pct, status := Progress(test.manual, start, end, test.now)
			assert.Equal(t, test.expPct, pct)
			assert.Equal(t, test.expStatus, status)
		})
	}
}
