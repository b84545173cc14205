package stay

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"villaledger/internal/domain/pricing"
	"villaledger/internal/domain/shared/daterange"
	"villaledger/internal/domain/shared/money"
	"villaledger/internal/domain/units"
)

var (
	ErrInvalidDateRange      = errors.New("stay: check-out must be at least one night after check-in")
	ErrInvalidCommissionRate = errors.New("stay: commission rate must be within [0, 100]")
	ErrInvalidPrice          = errors.New("stay: amounts cannot be negative")
	ErrInvalidDiscount       = errors.New("stay: discount must be within [0, 100]")
	ErrUnknownPrecedence     = errors.New("stay: unknown price precedence")
	ErrRateNotFound          = pricing.ErrRateNotFound
)

var maxCommissionRate = decimal.NewFromInt(100)

// ValidateCommissionRate accepts rates within [0, 100].
func ValidateCommissionRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(maxCommissionRate) {
		return ErrInvalidCommissionRate
	}
	return nil
}

// Precedence decides between an operator's manual nightly price and the price
// resolved from the price list.
type Precedence int

const (
	// OverrideAlways uses a supplied override whatever else changed.
	OverrideAlways Precedence = iota
	// OverrideUntilStayChanges drops the override once unit or dates differ
	// from the previously saved stay.
	OverrideUntilStayChanges
)

func ParsePrecedence(raw string) (Precedence, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "always", "override_always":
		return OverrideAlways, nil
	case "until_stay_changes", "override_until_stay_changes", "until_dates_change":
		return OverrideUntilStayChanges, nil
	default:
		return OverrideAlways, fmt.Errorf("%w: %q", ErrUnknownPrecedence, raw)
	}
}

func (p Precedence) String() string {
	if p == OverrideUntilStayChanges {
		return "until_stay_changes"
	}
	return "always"
}

// PriceSource records where the nightly price of a stay came from.
type PriceSource string

const (
	SourceOverride PriceSource = "override"
	SourceResolved PriceSource = "resolved"
)

// Key identifies a stay for precedence decisions.
type Key struct {
	Unit     units.Unit
	CheckIn  time.Time
	CheckOut time.Time
}

func (k Key) Equal(other Key) bool {
	return k.Unit == other.Unit &&
		daterange.Day(k.CheckIn).Equal(daterange.Day(other.CheckIn)) &&
		daterange.Day(k.CheckOut).Equal(daterange.Day(other.CheckOut))
}

type Input struct {
	Unit                 units.Unit
	CheckIn              time.Time
	CheckOut             time.Time
	NightlyPriceOverride decimal.NullDecimal
	CommissionRate       decimal.Decimal
	PaidAmount           decimal.NullDecimal
	Precedence           Precedence
	// Previous is the stay as last saved; nil for a new booking.
	Previous *Key
	// StrictRates fails with ErrRateNotFound instead of averaging in unpriced nights.
	StrictRates bool
}

// Stay holds the inputs and every derived figure of one booking.
type Stay struct {
	Unit           units.Unit
	CheckIn        time.Time
	CheckOut       time.Time
	Nights         int
	NightlyPrice   money.Amount
	PriceSource    PriceSource
	UnpricedNights int
	CommissionRate decimal.Decimal
	PaidAmount     money.Amount
	Gross          money.Amount
	Commission     money.Amount
	Net            money.Amount
	Remaining      money.Amount
}

func (s Stay) Key() Key {
	return Key{Unit: s.Unit, CheckIn: s.CheckIn, CheckOut: s.CheckOut}
}

// Compute derives a stay from its inputs and the price list snapshot. It is a
// pure function: same inputs and rules, same result.
func Compute(rules pricing.RuleSet, in Input) (Stay, error) {
	dr, err := daterange.New(in.CheckIn, in.CheckOut)
	if err != nil {
		return Stay{}, ErrInvalidDateRange
	}
	if !in.Unit.Valid() {
		return Stay{}, units.ErrUnknownUnit
	}
	if err := ValidateCommissionRate(in.CommissionRate); err != nil {
		return Stay{}, err
	}
	paid := money.Zero
	if in.PaidAmount.Valid {
		if in.PaidAmount.Decimal.IsNegative() {
			return Stay{}, fmt.Errorf("%w: paid amount", ErrInvalidPrice)
		}
		paid = in.PaidAmount.Decimal
	}

	out := Stay{
		Unit:           in.Unit,
		CheckIn:        dr.CheckIn,
		CheckOut:       dr.CheckOut,
		Nights:         dr.Nights(),
		CommissionRate: in.CommissionRate,
		PaidAmount:     paid,
	}
	var gross money.Amount
	if useOverride(in, out.Key()) {
		out.NightlyPrice = in.NightlyPriceOverride.Decimal
		out.PriceSource = SourceOverride
		gross = out.NightlyPrice.Mul(money.FromInt(int64(out.Nights)))
	} else {
		resolved := rules.RangePrice(in.Unit, dr.CheckIn, dr.CheckOut)
		if in.StrictRates && !resolved.FullyPriced() {
			return Stay{}, ErrRateNotFound
		}
		out.NightlyPrice = resolved.Average
		out.PriceSource = SourceResolved
		out.UnpricedNights = resolved.UnpricedNights
		// The per-night sum is exact; nights * average may not be.
		gross = resolved.Total
	}
	if out.NightlyPrice.IsNegative() {
		return Stay{}, fmt.Errorf("%w: nightly price", ErrInvalidPrice)
	}

	out.Gross = gross
	out.Commission = money.Percent(out.Gross, out.CommissionRate)
	out.Net = out.Gross.Sub(out.Commission)
	out.Remaining = out.Net.Sub(out.PaidAmount)
	return out, nil
}

func useOverride(in Input, current Key) bool {
	if !in.NightlyPriceOverride.Valid {
		return false
	}
	if in.Precedence == OverrideUntilStayChanges && in.Previous != nil {
		return in.Previous.Equal(current)
	}
	return true
}

// Discounted is the quick calculator's view of a gross amount after a discount.
type Discounted struct {
	Rate           decimal.Decimal
	Total          money.Amount
	DiscountAmount money.Amount
}

// Discount takes rate percent off gross. Rates outside [0, 100] are rejected.
func Discount(gross money.Amount, rate decimal.Decimal) (Discounted, error) {
	if rate.IsNegative() || rate.GreaterThan(maxCommissionRate) {
		return Discounted{}, ErrInvalidDiscount
	}
	amount := money.Percent(gross, rate)
	return Discounted{Rate: rate, Total: gross.Sub(amount), DiscountAmount: amount}, nil
}
