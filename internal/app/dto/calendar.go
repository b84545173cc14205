package dto

import (
	"villaledger/internal/domain/reservations"
	"villaledger/internal/domain/shared/daterange"
)

type CalendarDay struct {
	Date   string   `json:"date"`
	Day    int      `json:"day"`
	Units  []string `json:"units"`
	Status string   `json:"status"`
}

type Calendar struct {
	Year          int           `json:"year"`
	Month         int           `json:"month"`
	LeadingBlanks int           `json:"leading_blanks"`
	BusyDays      int           `json:"busy_days"`
	Days          []CalendarDay `json:"days"`
}

func MapCalendar(cal reservations.MonthCalendar) Calendar {
	days := make([]CalendarDay, 0, len(cal.Days))
	for _, d := range cal.Days {
		unitNames := make([]string, 0, len(d.Units))
		for _, u := range d.Units {
			unitNames = append(unitNames, u.String())
		}
		days = append(days, CalendarDay{
			Date:   daterange.FormatDay(d.Date),
			Day:    d.Date.Day(),
			Units:  unitNames,
			Status: string(d.Status),
		})
	}
	return Calendar{
		Year:          cal.Year,
		Month:         int(cal.Month),
		LeadingBlanks: cal.LeadingBlanks,
		BusyDays:      cal.Busy(),
		Days:          days,
	}
}
