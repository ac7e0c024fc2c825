// Package timeslot produces the daily grid of bookable start times.
package timeslot

import (
	"fmt"
	"time"
)

// Business hours. Changing the grid only requires changing these.
const (
	DayStart = 9 * time.Hour
	DayEnd   = 17 * time.Hour
	Step     = 30 * time.Minute
)

// TimeOfDay is a wall-clock time as minutes since midnight.
type TimeOfDay int

func Of(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*60 + t.Minute())
}

func Parse(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	return Of(t), nil
}

func (d TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(d)/60, int(d)%60)
}

// On places d on the naive day of date.
func (d TimeOfDay) On(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC).
		Add(time.Duration(d) * time.Minute)
}

// Grid returns a fresh, ascending list of slot starts in [DayStart, DayEnd).
func Grid() []TimeOfDay {
	out := make([]TimeOfDay, 0, int((DayEnd-DayStart)/Step))
	for t := DayStart; t < DayEnd; t += Step {
		out = append(out, TimeOfDay(t/time.Minute))
	}
	return out
}

// ParseDate parses a YYYY-MM-DD calendar date into naive midnight.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return d, nil
}
