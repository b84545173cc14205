package pricing

import (
	"context"
	"errors"
	"time"

	"villaledger/internal/domain/shared/daterange"
	"villaledger/internal/domain/shared/events"
	"villaledger/internal/domain/shared/money"
	"villaledger/internal/domain/units"
)

var (
	ErrRateNotFound     = errors.New("pricing: no price rule covers the date")
	ErrRuleNotFound     = errors.New("pricing: price rule not found")
	ErrInvalidRuleRange = errors.New("pricing: rule start must not be after end")
	ErrNegativePrice    = errors.New("pricing: nightly price cannot be negative")
)

type RuleID int64

// PriceRule sets the nightly price of one unit for an inclusive range of days.
// Rules of the same unit may overlap; the highest ID wins on shared days.
type PriceRule struct {
	ID           RuleID
	Unit         units.Unit
	Start        time.Time
	End          time.Time
	NightlyPrice money.Amount
}

type NewRuleParams struct {
	Unit         string
	Start        string
	End          string
	NightlyPrice money.Amount
}

// NewRule validates administrator input. The ID is assigned by the repository.
func NewRule(params NewRuleParams) (PriceRule, error) {
	unit, err := units.Parse(params.Unit)
	if err != nil {
		return PriceRule{}, err
	}
	start, err := daterange.ParseDay(params.Start)
	if err != nil {
		return PriceRule{}, err
	}
	end, err := daterange.ParseDay(params.End)
	if err != nil {
		return PriceRule{}, err
	}
	rule := PriceRule{Unit: unit, Start: start, End: end, NightlyPrice: params.NightlyPrice}
	if err := rule.Validate(); err != nil {
		return PriceRule{}, err
	}
	return rule, nil
}

func (r PriceRule) Validate() error {
	if !r.Unit.Valid() {
		return units.ErrUnknownUnit
	}
	if r.Start.IsZero() || r.End.IsZero() || daterange.Day(r.Start).After(daterange.Day(r.End)) {
		return ErrInvalidRuleRange
	}
	if r.NightlyPrice.IsNegative() {
		return ErrNegativePrice
	}
	return nil
}

// Covers reports whether the rule prices unit on day, both range ends inclusive.
func (r PriceRule) Covers(unit units.Unit, day time.Time) bool {
	if r.Unit != unit {
		return false
	}
	day = daterange.Day(day)
	return !day.Before(daterange.Day(r.Start)) && !day.After(daterange.Day(r.End))
}

// NextRuleID keeps identifiers increasing in creation order so that the newest
// rule wins ties. Millisecond clock values match ids minted by older clients.
func NextRuleID(last RuleID, now time.Time) RuleID {
	id := RuleID(now.UnixMilli())
	if id <= last {
		id = last + 1
	}
	return id
}

// RuleRepository persists the process-wide price list.
type RuleRepository interface {
	Snapshot(ctx context.Context) (RuleSet, error)
	Add(ctx context.Context, rule PriceRule) (PriceRule, error)
	Delete(ctx context.Context, id RuleID) error
	ReplaceAll(ctx context.Context, rules RuleSet) error
}

type RuleAdded struct {
	Rule PriceRule
	At   time.Time
}

func (e RuleAdded) EventName() string     { return "price_rule.added" }
func (e RuleAdded) AggregateID() string   { return e.Rule.Unit.String() }
func (e RuleAdded) OccurredAt() time.Time { return e.At }

type RuleDeleted struct {
	ID   RuleID
	Unit units.Unit
	At   time.Time
}

func (e RuleDeleted) EventName() string     { return "price_rule.deleted" }
func (e RuleDeleted) AggregateID() string   { return e.Unit.String() }
func (e RuleDeleted) OccurredAt() time.Time { return e.At }

var (
	_ events.DomainEvent = RuleAdded{}
	_ events.DomainEvent = RuleDeleted{}
)

// DefaultRules is the 2026 season list used when the store starts empty.
func DefaultRules() RuleSet {
	day := func(s string) time.Time {
		t, _ := daterange.ParseDay(s)
		return t
	}
	rule := func(id RuleID, unit units.Unit, start, end string, price int64) PriceRule {
		return PriceRule{ID: id, Unit: unit, Start: day(start), End: day(end), NightlyPrice: money.FromInt(price)}
	}
	return RuleSet{
		rule(99, units.Safira, "2026-01-01", "2026-05-31", 2500),
		rule(98, units.Destan, "2026-01-01", "2026-05-31", 2000),
		rule(1, units.Safira, "2026-06-01", "2026-06-30", 3500),
		rule(2, units.Safira, "2026-07-01", "2026-08-31", 4500),
		rule(3, units.Safira, "2026-09-01", "2026-09-30", 3500),
		rule(4, units.Destan, "2026-06-01", "2026-06-30", 3000),
		rule(5, units.Destan, "2026-07-01", "2026-08-31", 4000),
		rule(6, units.Destan, "2026-09-01", "2026-09-30", 3000),
	}
}
