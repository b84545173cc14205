package dto

import (
	"time"

	"villaledger/internal/domain/reservations"
	"villaledger/internal/domain/shared/daterange"
	"villaledger/internal/domain/shared/money"
)

// Reservation mirrors the record shape of the remote spreadsheet.
type Reservation struct {
	ID             int64     `json:"id"`
	Type           string    `json:"type"`
	Unit           string    `json:"apart"`
	GuestName      string    `json:"name"`
	CheckIn        string    `json:"cin"`
	CheckOut       string    `json:"cout"`
	Nights         int       `json:"nights"`
	Gross          float64   `json:"brut"`
	Net            float64   `json:"net"`
	NightlyPrice   float64   `json:"price"`
	Commission     float64   `json:"commAmt"`
	PaidAmount     float64   `json:"paidAmt"`
	Remaining      float64   `json:"remaining"`
	CommissionRate float64   `json:"commission_rate"`
	PriceSource    string    `json:"price_source,omitempty"`
	UpdatedAt      time.Time `json:"updated_at,omitempty"`
}

func MapReservation(r *reservations.Reservation) Reservation {
	if r == nil {
		return Reservation{}
	}
	return Reservation{
		ID:             int64(r.ID),
		Type:           r.Type,
		Unit:           r.Unit.String(),
		GuestName:      r.GuestName,
		CheckIn:        daterange.FormatDay(r.CheckIn),
		CheckOut:       daterange.FormatDay(r.CheckOut),
		Nights:         r.Nights,
		Gross:          money.Float(r.Gross),
		Net:            money.Float(r.Net),
		NightlyPrice:   money.Float(r.NightlyPrice),
		Commission:     money.Float(r.Commission),
		PaidAmount:     money.Float(r.PaidAmount),
		Remaining:      money.Float(r.Remaining),
		CommissionRate: money.Float(r.CommissionRate),
		PriceSource:    string(r.PriceSource),
		UpdatedAt:      r.UpdatedAt,
	}
}

func MapReservations(list []*reservations.Reservation) []Reservation {
	out := make([]Reservation, 0, len(list))
	for _, r := range list {
		out = append(out, MapReservation(r))
	}
	return out
}

type SaveReservationResult struct {
	Reservation Reservation   `json:"reservation"`
	Created     bool          `json:"created"`
	Overlaps    []Reservation `json:"overlaps,omitempty"`
}

type Totals struct {
	Count      int     `json:"count"`
	Gross      float64 `json:"brut"`
	Commission float64 `json:"comm"`
	Net        float64 `json:"net"`
	Paid       float64 `json:"paid"`
	Remaining  float64 `json:"remaining"`
	Formatted  struct {
		Gross      string `json:"brut"`
		Commission string `json:"comm"`
		Net        string `json:"net"`
	} `json:"formatted"`
}

func MapTotals(t reservations.Totals) Totals {
	out := Totals{
		Count:      t.Count,
		Gross:      money.Float(t.Gross),
		Commission: money.Float(t.Commission),
		Net:        money.Float(t.Net),
		Paid:       money.Float(t.Paid),
		Remaining:  money.Float(t.Remaining),
	}
	out.Formatted.Gross = money.Format(t.Gross)
	out.Formatted.Commission = money.Format(t.Commission)
	out.Formatted.Net = money.Format(t.Net)
	return out
}

type CheckoutAlert struct {
	When        string      `json:"when"`
	Reservation Reservation `json:"reservation"`
}

type Dashboard struct {
	Totals       Totals          `json:"totals"`
	Reservations []Reservation   `json:"reservations"`
	Alerts       []CheckoutAlert `json:"alerts"`
}

func MapAlerts(alerts []reservations.CheckoutAlert) []CheckoutAlert {
	out := make([]CheckoutAlert, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, CheckoutAlert{When: string(a.When), Reservation: MapReservation(a.Reservation)})
	}
	return out
}
