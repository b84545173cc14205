package reservations

import (
	"sort"
	"time"

	"villaledger/internal/domain/shared/daterange"
	"villaledger/internal/domain/shared/money"
)

// SortByCheckInDesc returns a copy ordered newest arrival first.
func SortByCheckInDesc(list []*Reservation) []*Reservation {
	out := make([]*Reservation, len(list))
	copy(out, list)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CheckIn.After(out[j].CheckIn)
	})
	return out
}

type Totals struct {
	Count      int
	Gross      money.Amount
	Commission money.Amount
	Net        money.Amount
	Paid       money.Amount
	Remaining  money.Amount
}

func Summarize(list []*Reservation) Totals {
	t := Totals{Gross: money.Zero, Commission: money.Zero, Net: money.Zero, Paid: money.Zero, Remaining: money.Zero}
	for _, r := range list {
		if r == nil {
			continue
		}
		t.Count++
		t.Gross = t.Gross.Add(r.Gross)
		t.Commission = t.Commission.Add(r.Commission)
		t.Net = t.Net.Add(r.Net)
		t.Paid = t.Paid.Add(r.PaidAmount)
		t.Remaining = t.Remaining.Add(r.Remaining)
	}
	return t
}

type AlertWhen string

const (
	CheckoutToday    AlertWhen = "today"
	CheckoutTomorrow AlertWhen = "tomorrow"
)

type CheckoutAlert struct {
	Reservation *Reservation
	When        AlertWhen
}

// CheckoutAlerts lists guests leaving today or tomorrow, newest arrival first.
func CheckoutAlerts(list []*Reservation, today time.Time) []CheckoutAlert {
	var alerts []CheckoutAlert
	for _, r := range SortByCheckInDesc(list) {
		if r == nil {
			continue
		}
		switch daterange.DaysBetween(today, r.CheckOut) {
		case 0:
			alerts = append(alerts, CheckoutAlert{Reservation: r, When: CheckoutToday})
		case 1:
			alerts = append(alerts, CheckoutAlert{Reservation: r, When: CheckoutTomorrow})
		}
	}
	return alerts
}
