package pricing

import (
	"time"

	"villaledger/internal/domain/shared/daterange"
	"villaledger/internal/domain/shared/money"
	"villaledger/internal/domain/units"
)

// RuleSet is a frozen snapshot of the price list. Callers pass a fresh snapshot
// on every resolution; nothing here reads shared state.
type RuleSet []PriceRule

// Clone returns a copy that later edits to the source cannot reach.
func (rs RuleSet) Clone() RuleSet {
	return append(RuleSet(nil), rs...)
}

// MaxID returns the highest identifier in the set, or zero when empty.
func (rs RuleSet) MaxID() RuleID {
	var highest RuleID
	for _, r := range rs {
		if r.ID > highest {
			highest = r.ID
		}
	}
	return highest
}

// Rule picks the rule that prices unit on day. When several rules overlap the
// one with the highest ID wins, independent of slice order.
func (rs RuleSet) Rule(unit units.Unit, day time.Time) (PriceRule, bool) {
	var (
		best  PriceRule
		found bool
	)
	for _, r := range rs {
		if !r.Covers(unit, day) {
			continue
		}
		if !found || r.ID > best.ID {
			best = r
			found = true
		}
	}
	return best, found
}

// NightlyPrice resolves the price of a single night or reports ErrRateNotFound.
func (rs RuleSet) NightlyPrice(unit units.Unit, day time.Time) (money.Amount, error) {
	rule, ok := rs.Rule(unit, day)
	if !ok {
		return money.Zero, ErrRateNotFound
	}
	return rule.NightlyPrice, nil
}

// RangePrice is the per-night resolution of [CheckIn, CheckOut).
type RangePrice struct {
	Total          money.Amount
	Average        money.Amount
	Nights         int
	UnpricedNights int
}

// FullyPriced reports whether every night matched a rule.
func (p RangePrice) FullyPriced() bool {
	return p.UnpricedNights == 0
}

// RangePrice sums the nightly price of every night from checkIn up to but not
// including checkOut. Unpriced nights add nothing but still count. A reversed
// or empty range yields zero nights; ordering is validated by the caller.
func (rs RuleSet) RangePrice(unit units.Unit, checkIn, checkOut time.Time) RangePrice {
	out := RangePrice{Total: money.Zero, Average: money.Zero}
	dr := daterange.DateRange{CheckIn: checkIn, CheckOut: checkOut}
	dr.EachNight(func(night time.Time) {
		price, err := rs.NightlyPrice(unit, night)
		if err != nil {
			out.UnpricedNights++
		} else {
			out.Total = out.Total.Add(price)
		}
		out.Nights++
	})
	if out.Nights > 0 {
		out.Average = out.Total.Div(money.FromInt(int64(out.Nights)))
	}
	return out
}
