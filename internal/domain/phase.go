package domain

import (
	"fmt"
	"time"
)

// MaxPhases is the number of phases the initiative is split into.
const MaxPhases = 5

// Phase is a fixed calendar window. Start and End are inclusive civil dates
// at UTC midnight.
type Phase struct {
	Number int           `json:"number"`
	Name   LocalizedText `json:"name"`
	Start  time.Time     `json:"start"`
	End    time.Time     `json:"end"`
}

// Days returns the number of calendar days in the phase.
func (p Phase) Days() int {
	return int(p.End.Sub(p.Start).Hours()/24) + 1
}

// Contains reports whether the date falls inside the phase window.
func (p Phase) Contains(d time.Time) bool {
	d = Date(d)
	return !d.Before(p.Start) && !d.After(p.End)
}

// PhaseCalendar is the ordered set of phase windows.
type PhaseCalendar []Phase

// Date truncates t to its civil date at UTC midnight.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func civil(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DefaultPhaseCalendar returns the five phases of the 2025 initiative,
// 81 days from August 11 to October 30.
func DefaultPhaseCalendar() PhaseCalendar {
	return PhaseCalendar{
		{Number: 1, Name: LocalizedText{ES: "Preparación", EN: "Preparation"}, Start: civil(2025, time.August, 11), End: civil(2025, time.September, 5)},
		{Number: 2, Name: LocalizedText{ES: "Diseño", EN: "Design"}, Start: civil(2025, time.September, 6), End: civil(2025, time.September, 19)},
		{Number: 3, Name: LocalizedText{ES: "Desarrollo", EN: "Development"}, Start: civil(2025, time.September, 20), End: civil(2025, time.October, 3)},
		{Number: 4, Name: LocalizedText{ES: "Implementación", EN: "Delivery"}, Start: civil(2025, time.October, 4), End: civil(2025, time.October, 17)},
		{Number: 5, Name: LocalizedText{ES: "Cierre", EN: "Closing"}, Start: civil(2025, time.October, 18), End: civil(2025, time.October, 30)},
	}
}

// Validate checks that phases are numbered 1..N in order and that the
// windows are contiguous and non-overlapping.
func (c PhaseCalendar) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("phase calendar is empty: %w", ErrNotValid)
	}
	if len(c) > MaxPhases {
		return fmt.Errorf("phase calendar has %d phases, max %d: %w", len(c), MaxPhases, ErrNotValid)
	}
	for i, p := range c {
		if p.Number != i+1 {
			return fmt.Errorf("phase at position %d is numbered %d: %w", i+1, p.Number, ErrNotValid)
		}
		if p.End.Before(p.Start) {
			return fmt.Errorf("phase %d ends before it starts: %w", p.Number, ErrNotValid)
		}
		if i > 0 {
			want := c[i-1].End.AddDate(0, 0, 1)
			if !p.Start.Equal(want) {
				return fmt.Errorf("phase %d starts %s, want %s: %w", p.Number, p.Start.Format(time.DateOnly), want.Format(time.DateOnly), ErrNotValid)
			}
		}
	}
	return nil
}

// Get returns the phase with the given number.
func (c PhaseCalendar) Get(number int) (Phase, bool) {
	for _, p := range c {
		if p.Number == number {
			return p, true
		}
	}
	return Phase{}, false
}

// Span returns the first and last day covered by the calendar.
func (c PhaseCalendar) Span() (time.Time, time.Time) {
	if len(c) == 0 {
		return time.Time{}, time.Time{}
	}
	return c[0].Start, c[len(c)-1].End
}

// At returns the phase containing the date, if any.
func (c PhaseCalendar) At(d time.Time) (Phase, bool) {
	for _, p := range c {
		if p.Contains(d) {
			return p, true
		}
	}
	return Phase{}, false
}
