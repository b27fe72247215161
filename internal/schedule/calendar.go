package schedule

import (
	"math"
	"time"

	"github.com/rcliao/madlab/internal/domain"
)

// IsWorkday reports whether d falls Monday to Friday.
func IsWorkday(d time.Time) bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// NextWorkday returns d when it is a workday, otherwise the following Monday.
func NextWorkday(d time.Time) time.Time {
	d = domain.Date(d)
	for !IsWorkday(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// AddWorkdays moves n workdays forward from d, skipping weekends. The start
// is first rolled to a workday.
func AddWorkdays(d time.Time, n int) time.Time {
	d = NextWorkday(d)
	for n > 0 {
		d = d.AddDate(0, 0, 1)
		if IsWorkday(d) {
			n--
		}
	}
	return d
}

// WorkdaysBetween counts workdays in the inclusive range [a, b].
func WorkdaysBetween(a, b time.Time) int {
	a, b = domain.Date(a), domain.Date(b)
	n := 0
	for d := a; !d.After(b); d = d.AddDate(0, 0, 1) {
		if IsWorkday(d) {
			n++
		}
	}
	return n
}

func maxDate(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}

// difficultyMultipliers scales effort by difficulty 1..5.
var difficultyMultipliers = [...]float64{1.0, 1.2, 1.5, 2.0, 2.5}

// DifficultyMultiplier returns the effort multiplier for a difficulty,
// clamping out-of-range values to 1..5.
func DifficultyMultiplier(difficulty int) float64 {
	if difficulty < domain.MinDifficulty {
		difficulty = domain.MinDifficulty
	}
	if difficulty > domain.MaxDifficulty {
		difficulty = domain.MaxDifficulty
	}
	return difficultyMultipliers[difficulty-1]
}

// DurationWorkdays converts estimated hours into whole workdays scaled by
// difficulty. Every task takes at least one workday.
func DurationWorkdays(hours float64, difficulty, hoursPerDay int) int {
	if hoursPerDay <= 0 {
		hoursPerDay = DefaultHoursPerDay
	}
	// The epsilon keeps float noise such as 6.000000000000001 from adding a day.
	days := int(math.Ceil(hours/float64(hoursPerDay)*DifficultyMultiplier(difficulty) - 1e-9))
	if days < 1 {
		days = 1
	}
	return days
}
