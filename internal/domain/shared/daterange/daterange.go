package daterange

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Layout is the zero-padded ISO calendar date format shared with collaborators.
const Layout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

var (
	ErrInvalidRange = errors.New("daterange: checkout must be after checkin")
	ErrInvalidDay   = errors.New("daterange: invalid calendar date")
)

// Day truncates t to midnight UTC of its own calendar date. Time-of-day and
// zone offsets are dropped, only the year/month/day as written is kept.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDay accepts YYYY-MM-DD or an RFC3339 timestamp whose date part is used.
func ParseDay(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if idx := strings.IndexByte(value, 'T'); idx > 0 {
		value = value[:idx]
	}
	t, err := time.Parse(Layout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDay, raw)
	}
	return t, nil
}

func FormatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return Day(t).Format(Layout)
}

// DaysBetween counts whole calendar days from a to b; negative when b precedes a.
func DaysBetween(a, b time.Time) int {
	return int((Day(b).Unix() - Day(a).Unix()) / secondsPerDay)
}

// DateRange represents a half-open interval [checkIn, checkOut) of calendar days.
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

func New(checkIn, checkOut time.Time) (DateRange, error) {
	dr := DateRange{CheckIn: Day(checkIn), CheckOut: Day(checkOut)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

func (dr DateRange) Validate() error {
	if dr.CheckOut.IsZero() || dr.CheckIn.IsZero() {
		return ErrInvalidRange
	}
	if !Day(dr.CheckOut).After(Day(dr.CheckIn)) {
		return ErrInvalidRange
	}
	return nil
}

func (dr DateRange) Nights() int {
	return DaysBetween(dr.CheckIn, dr.CheckOut)
}

func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(dr.CheckOut)
}

// ContainsDate reports whether the guest occupies the unit on the night of t.
func (dr DateRange) ContainsDate(t time.Time) bool {
	t = Day(t)
	return !t.Before(dr.CheckIn) && t.Before(dr.CheckOut)
}

// EachNight calls fn for every occupied night, check-out day excluded.
func (dr DateRange) EachNight(fn func(night time.Time)) {
	for d := Day(dr.CheckIn); d.Before(Day(dr.CheckOut)); d = d.AddDate(0, 0, 1) {
		fn(d)
	}
}

func (dr DateRange) Equal(other DateRange) bool {
	return Day(dr.CheckIn).Equal(Day(other.CheckIn)) && Day(dr.CheckOut).Equal(Day(other.CheckOut))
}

func (dr DateRange) String() string {
	return FormatDay(dr.CheckIn) + "/" + FormatDay(dr.CheckOut)
}
