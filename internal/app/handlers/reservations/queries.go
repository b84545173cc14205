package reservations

import (
	"context"
	"time"

	"villaledger/internal/app/dto"
	"villaledger/internal/app/handlers/support"
	"villaledger/internal/app/queries"
	domain "villaledger/internal/domain/reservations"
)

const (
	listKey      = "reservations.list"
	getKey       = "reservations.get"
	dashboardKey = "reservations.dashboard"
	alertsKey    = "reservations.checkout_alerts"
)

type ListReservationsQuery struct{}

func (q ListReservationsQuery) Key() string { return listKey }

type ListReservationsHandler struct {
	Reservations domain.Repository
}

// Handle returns the ledger newest check-in first.
func (h *ListReservationsHandler) Handle(ctx context.Context, _ ListReservationsQuery) ([]dto.Reservation, error) {
	list, err := h.Reservations.List(ctx)
	if err != nil {
		return nil, err
	}
	return dto.MapReservations(domain.SortByCheckInDesc(list)), nil
}

type GetReservationQuery struct {
	ID int64 `validate:"required"`
}

func (q GetReservationQuery) Key() string { return getKey }

type GetReservationHandler struct {
	Reservations domain.Repository
}

func (h *GetReservationHandler) Handle(ctx context.Context, q GetReservationQuery) (dto.Reservation, error) {
	r, err := h.Reservations.ByID(ctx, domain.ID(q.ID))
	if err != nil {
		return dto.Reservation{}, err
	}
	return dto.MapReservation(r), nil
}

// DashboardQuery summarises the whole ledger. A zero Today means now.
type DashboardQuery struct {
	Today time.Time
}

func (q DashboardQuery) Key() string { return dashboardKey }

type DashboardHandler struct {
	Reservations domain.Repository
	Location     *time.Location
	Now          func() time.Time
}

func (h *DashboardHandler) Handle(ctx context.Context, q DashboardQuery) (dto.Dashboard, error) {
	list, err := h.Reservations.List(ctx)
	if err != nil {
		return dto.Dashboard{}, err
	}
	today := resolveToday(q.Today, h.Now, h.Location)
	return dto.Dashboard{
		Totals:       dto.MapTotals(domain.Summarize(list)),
		Reservations: dto.MapReservations(domain.SortByCheckInDesc(list)),
		Alerts:       dto.MapAlerts(domain.CheckoutAlerts(list, today)),
	}, nil
}

type CheckoutAlertsQuery struct {
	Today time.Time
}

func (q CheckoutAlertsQuery) Key() string { return alertsKey }

type CheckoutAlertsHandler struct {
	Reservations domain.Repository
	Location     *time.Location
	Now          func() time.Time
}

func (h *CheckoutAlertsHandler) Handle(ctx context.Context, q CheckoutAlertsQuery) ([]dto.CheckoutAlert, error) {
	list, err := h.Reservations.List(ctx)
	if err != nil {
		return nil, err
	}
	return dto.MapAlerts(domain.CheckoutAlerts(list, resolveToday(q.Today, h.Now, h.Location))), nil
}

// resolveToday reads the calendar date of now in the property's time zone;
// a UTC date would flip to tomorrow too early or too late.
func resolveToday(explicit time.Time, now func() time.Time, loc *time.Location) time.Time {
	if !explicit.IsZero() {
		return explicit
	}
	t := support.Clock(now)
	if loc != nil {
		t = t.In(loc)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

var (
	_ queries.Handler[ListReservationsQuery, []dto.Reservation] = (*ListReservationsHandler)(nil)
	_ queries.Handler[GetReservationQuery, dto.Reservation]     = (*GetReservationHandler)(nil)
	_ queries.Handler[DashboardQuery, dto.Dashboard]            = (*DashboardHandler)(nil)
	_ queries.Handler[CheckoutAlertsQuery, []dto.CheckoutAlert] = (*CheckoutAlertsHandler)(nil)
)
