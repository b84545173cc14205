package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(t *testing.T, raw string) time.Time {
	t.Helper()
	d, err := ParseDay(raw)
	require.NoError(t, err)
	return d
}

func TestParseDayAcceptsTimestamps(t *testing.T) {
	d, err := ParseDay("2026-03-31T21:00:00.000Z")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-31", FormatDay(d))

	_, err = ParseDay("31.03.2026")
	assert.ErrorIs(t, err, ErrInvalidDay)
}

func TestNightsExcludeCheckoutDay(t *testing.T) {
	dr, err := New(day(t, "2026-06-01"), day(t, "2026-06-04"))
	require.NoError(t, err)
	assert.Equal(t, 3, dr.Nights())

	var nights []string
	dr.EachNight(func(n time.Time) { nights = append(nights, FormatDay(n)) })
	assert.Equal(t, []string{"2026-06-01", "2026-06-02", "2026-06-03"}, nights)
	assert.True(t, dr.ContainsDate(day(t, "2026-06-03")))
	assert.False(t, dr.ContainsDate(day(t, "2026-06-04")))
}

func TestNewRejectsEmptyAndReversedRanges(t *testing.T) {
	_, err := New(day(t, "2026-06-01"), day(t, "2026-06-01"))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = New(day(t, "2026-06-05"), day(t, "2026-06-01"))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = New(time.Time{}, day(t, "2026-06-01"))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestOverlapsIsHalfOpen(t *testing.T) {
	a := DateRange{CheckIn: day(t, "2026-07-01"), CheckOut: day(t, "2026-07-05")}
	back2back := DateRange{CheckIn: day(t, "2026-07-05"), CheckOut: day(t, "2026-07-08")}
	inside := DateRange{CheckIn: day(t, "2026-07-04"), CheckOut: day(t, "2026-07-06")}

	assert.False(t, a.Overlaps(back2back))
	assert.True(t, a.Overlaps(inside))
	assert.True(t, inside.Overlaps(a))
}

func TestDaysBetweenIgnoresTimeOfDay(t *testing.T) {
	a := time.Date(2026, 7, 1, 23, 59, 0, 0, time.UTC)
	b := time.Date(2026, 7, 2, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, 1, DaysBetween(a, b))
	assert.Equal(t, -1, DaysBetween(b, a))
}

func TestNightsAgreeWithEachNightOverCenturies(t *testing.T) {
	dr, err := New(day(t, "1500-01-01"), day(t, "2000-01-01"))
	require.NoError(t, err)

	walked := 0
	dr.EachNight(func(time.Time) { walked++ })
	assert.Equal(t, 182621, dr.Nights())
	assert.Equal(t, walked, dr.Nights())
	assert.Equal(t, -182621, DaysBetween(dr.CheckOut, dr.CheckIn))
}
