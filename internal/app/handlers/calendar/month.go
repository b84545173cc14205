package calendar

import (
	"context"
	"errors"
	"time"

	"villaledger/internal/app/dto"
	"villaledger/internal/app/handlers/support"
	"villaledger/internal/app/queries"
	"villaledger/internal/domain/reservations"
)

const monthKey = "calendar.month"

var ErrInvalidMonth = errors.New("calendar: month must be within 1..12")

// MonthCalendarQuery asks for the occupancy grid of a month. Zero values
// select the current month.
type MonthCalendarQuery struct {
	Year  int
	Month int
}

func (q MonthCalendarQuery) Key() string { return monthKey }

type MonthCalendarHandler struct {
	Reservations reservations.Repository
	Location     *time.Location
	Now          func() time.Time
}

func (h *MonthCalendarHandler) Handle(ctx context.Context, q MonthCalendarQuery) (dto.Calendar, error) {
	year, month := q.Year, q.Month
	if year == 0 || month == 0 {
		now := support.Clock(h.Now)
		if h.Location != nil {
			now = now.In(h.Location)
		}
		if year == 0 {
			year = now.Year()
		}
		if month == 0 {
			month = int(now.Month())
		}
	}
	if month < 1 || month > 12 {
		return dto.Calendar{}, ErrInvalidMonth
	}
	list, err := h.Reservations.List(ctx)
	if err != nil {
		return dto.Calendar{}, err
	}
	return dto.MapCalendar(reservations.Occupancy(list, year, time.Month(month))), nil
}

var _ queries.Handler[MonthCalendarQuery, dto.Calendar] = (*MonthCalendarHandler)(nil)
