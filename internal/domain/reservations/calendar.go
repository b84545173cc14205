package reservations

import (
	"time"

	"villaledger/internal/domain/units"
)

type DayStatus string

const (
	StatusFree     DayStatus = "free"
	StatusMultiple DayStatus = "multiple"
)

type CalendarDay struct {
	Date   time.Time
	Units  []units.Unit
	Status DayStatus
}

// MonthCalendar is the occupancy grid of one month. LeadingBlanks is the
// number of empty cells before the 1st in a Monday-first week.
type MonthCalendar struct {
	Year          int
	Month         time.Month
	LeadingBlanks int
	Days          []CalendarDay
}

// Occupancy lays out month with, per day, the units whose guests sleep there
// that night (check-in inclusive, check-out exclusive).
func Occupancy(list []*Reservation, year int, month time.Month) MonthCalendar {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	cal := MonthCalendar{
		Year:          first.Year(),
		Month:         first.Month(),
		LeadingBlanks: (int(first.Weekday()) + 6) % 7,
		Days:          make([]CalendarDay, 0, last.Day()),
	}
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		day := CalendarDay{Date: d, Status: StatusFree}
		for _, r := range list {
			if r != nil && r.Range().ContainsDate(d) {
				day.Units = append(day.Units, r.Unit)
			}
		}
		switch len(day.Units) {
		case 0:
		case 1:
			day.Status = DayStatus(day.Units[0])
		default:
			day.Status = StatusMultiple
		}
		cal.Days = append(cal.Days, day)
	}
	return cal
}

// Busy reports the days of the month with at least one guest.
func (c MonthCalendar) Busy() int {
	n := 0
	for _, d := range c.Days {
		if d.Status != StatusFree {
			n++
		}
	}
	return n
}

// Conflicts lists reservations of the same unit whose stays overlap r.
func Conflicts(list []*Reservation, r *Reservation) []*Reservation {
	var out []*Reservation
	target := r.Range()
	for _, other := range list {
		if other == nil || other.ID == r.ID || other.Unit != r.Unit {
			continue
		}
		if other.Range().Overlaps(target) {
			out = append(out, other)
		}
	}
	return out
}
