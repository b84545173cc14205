package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"villaledger/internal/app/dto"
	calendarapp "villaledger/internal/app/handlers/calendar"
	"villaledger/internal/app/queries"
)

type CalendarHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h CalendarHandler) Month(c *gin.Context) {
	year, err := queryInt(c, "year")
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	month, err := queryInt(c, "month")
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	q := calendarapp.MonthCalendarQuery{Year: year, Month: month}
	result, err := queries.Ask[calendarapp.MonthCalendarQuery, dto.Calendar](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ CalendarHTTP = CalendarHandler{}
