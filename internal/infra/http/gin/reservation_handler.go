package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"villaledger/internal/app/commands"
	"villaledger/internal/app/dto"
	reservationsapp "villaledger/internal/app/handlers/reservations"
	"villaledger/internal/app/queries"
)

type ReservationHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

func (h ReservationHandler) List(c *gin.Context) {
	result, err := queries.Ask[reservationsapp.ListReservationsQuery, []dto.Reservation](c.Request.Context(), h.Queries, reservationsapp.ListReservationsQuery{})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReservationHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	result, err := queries.Ask[reservationsapp.GetReservationQuery, dto.Reservation](c.Request.Context(), h.Queries, reservationsapp.GetReservationQuery{ID: id})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// reservationRequest accepts the field names of the spreadsheet records.
type reservationRequest struct {
	Unit           string   `json:"apart"`
	GuestName      string   `json:"name"`
	CheckIn        string   `json:"cin"`
	CheckOut       string   `json:"cout"`
	NightlyPrice   *float64 `json:"price"`
	CommissionRate *float64 `json:"commissionRate"`
	PaidAmount     *float64 `json:"paidAmt"`
	Precedence     string   `json:"precedence"`
}

func (h ReservationHandler) Create(c *gin.Context) {
	h.save(c, 0, http.StatusCreated)
}

func (h ReservationHandler) Update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	h.save(c, id, http.StatusOK)
}

func (h ReservationHandler) save(c *gin.Context, id int64, status int) {
	var req reservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	checkIn, err := parseDay(req.CheckIn)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	checkOut, err := parseDay(req.CheckOut)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	cmd := reservationsapp.SaveReservationCommand{
		ID:              id,
		GuestName:       req.GuestName,
		Unit:            req.Unit,
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		NightlyPrice:    nullDecimal(req.NightlyPrice),
		CommissionRate:  nullDecimal(req.CommissionRate),
		PaidAmount:      nullDecimal(req.PaidAmount),
		Precedence:      req.Precedence,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[reservationsapp.SaveReservationCommand, dto.SaveReservationResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	if !result.Created {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

func (h ReservationHandler) Delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	if _, err := commands.Dispatch[reservationsapp.DeleteReservationCommand, struct{}](c.Request.Context(), h.Commands, reservationsapp.DeleteReservationCommand{ID: id}); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h ReservationHandler) Dashboard(c *gin.Context) {
	today, err := parseOptionalDay(c.Query("today"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	result, err := queries.Ask[reservationsapp.DashboardQuery, dto.Dashboard](c.Request.Context(), h.Queries, reservationsapp.DashboardQuery{Today: today})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReservationHandler) CheckoutAlerts(c *gin.Context) {
	today, err := parseOptionalDay(c.Query("today"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	result, err := queries.Ask[reservationsapp.CheckoutAlertsQuery, []dto.CheckoutAlert](c.Request.Context(), h.Queries, reservationsapp.CheckoutAlertsQuery{Today: today})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ ReservationHTTP = ReservationHandler{}
