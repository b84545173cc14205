package reservations

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"villaledger/internal/domain/shared/money"
	"villaledger/internal/domain/units"
)

func TestSummarize(t *testing.T) {
	list := []*Reservation{
		booking(t, 1, units.Safira, "2026-07-10", "2026-07-15", 4500),
		booking(t, 2, units.Destan, "2026-07-01", "2026-07-03", 4000),
		nil,
	}
	list[0].PaidAmount = money.FromInt(5000)
	list[0].Remaining = list[0].Net.Sub(list[0].PaidAmount)

	got := Summarize(list)
	assert.Equal(t, 2, got.Count)
	assert.True(t, got.Gross.Equal(money.FromInt(30500)))
	assert.True(t, got.Commission.Equal(money.FromInt(3050)))
	assert.True(t, got.Net.Equal(money.FromInt(27450)))
	assert.True(t, got.Paid.Equal(money.FromInt(5000)))
	assert.True(t, got.Remaining.Equal(money.FromInt(22450)))
}

func TestSortByCheckInDescDoesNotMutateInput(t *testing.T) {
	a := booking(t, 1, units.Safira, "2026-07-01", "2026-07-03", 4500)
	b := booking(t, 2, units.Safira, "2026-08-01", "2026-08-03", 4500)
	in := []*Reservation{a, b}

	out := SortByCheckInDesc(in)
	assert.Equal(t, []*Reservation{b, a}, out)
	assert.Equal(t, []*Reservation{a, b}, in)
}

func TestCheckoutAlerts(t *testing.T) {
	today := time.Date(2026, 7, 12, 22, 30, 0, 0, time.UTC)
	leavingToday := booking(t, 1, units.Safira, "2026-07-10", "2026-07-12", 4500)
	leavingTomorrow := booking(t, 2, units.Destan, "2026-07-11", "2026-07-13", 4000)
	later := booking(t, 3, units.Destan, "2026-07-20", "2026-07-25", 4000)
	past := booking(t, 4, units.Safira, "2026-07-01", "2026-07-11", 4500)

	alerts := CheckoutAlerts([]*Reservation{leavingToday, later, past, leavingTomorrow}, today)
	require.Len(t, alerts, 2)
	assert.Equal(t, leavingTomorrow, alerts[0].Reservation)
	assert.Equal(t, CheckoutTomorrow, alerts[0].When)
	assert.Equal(t, leavingToday, alerts[1].Reservation)
	assert.Equal(t, CheckoutToday, alerts[1].When)
}
