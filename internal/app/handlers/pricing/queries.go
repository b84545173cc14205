package pricing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"villaledger/internal/app/dto"
	"villaledger/internal/app/handlers/support"
	"villaledger/internal/app/policies"
	"villaledger/internal/app/queries"
	domainpricing "villaledger/internal/domain/pricing"
	"villaledger/internal/domain/shared/daterange"
	"villaledger/internal/domain/shared/money"
	"villaledger/internal/domain/stay"
	"villaledger/internal/domain/units"
)

const (
	listRulesKey      = "pricing.rules.list"
	resolveNightlyKey = "pricing.nightly"
	rangePriceKey     = "pricing.range"
	quoteStayKey      = "pricing.quote"
	quickCalcKey      = "pricing.quick_calc"
)

type ListRulesQuery struct {
	Unit string
}

func (q ListRulesQuery) Key() string { return listRulesKey }

type ListRulesHandler struct {
	Rules domainpricing.RuleRepository
}

func (h *ListRulesHandler) Handle(ctx context.Context, q ListRulesQuery) ([]dto.PriceRule, error) {
	rules, err := h.Rules.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if q.Unit == "" {
		return dto.MapPriceRules(rules), nil
	}
	unit, err := units.Parse(q.Unit)
	if err != nil {
		return nil, err
	}
	filtered := make(domainpricing.RuleSet, 0, len(rules))
	for _, r := range rules {
		if r.Unit == unit {
			filtered = append(filtered, r)
		}
	}
	return dto.MapPriceRules(filtered), nil
}

type ResolveNightlyQuery struct {
	Unit string `validate:"required"`
	Date time.Time
}

func (q ResolveNightlyQuery) Key() string { return resolveNightlyKey }

type ResolveNightlyHandler struct {
	Rules domainpricing.RuleRepository
}

func (h *ResolveNightlyHandler) Handle(ctx context.Context, q ResolveNightlyQuery) (dto.NightlyPrice, error) {
	unit, err := units.Parse(q.Unit)
	if err != nil {
		return dto.NightlyPrice{}, err
	}
	rules, err := h.Rules.Snapshot(ctx)
	if err != nil {
		return dto.NightlyPrice{}, err
	}
	rule, ok := rules.Rule(unit, q.Date)
	if !ok {
		return dto.NightlyPrice{}, domainpricing.ErrRateNotFound
	}
	return dto.NightlyPrice{
		Unit:   unit.String(),
		Date:   daterange.FormatDay(q.Date),
		Price:  money.Float(rule.NightlyPrice),
		RuleID: int64(rule.ID),
	}, nil
}

type RangePriceQuery struct {
	Unit     string `validate:"required"`
	CheckIn  time.Time
	CheckOut time.Time
}

func (q RangePriceQuery) Key() string { return rangePriceKey }

type RangePriceHandler struct {
	Rules domainpricing.RuleRepository
}

// Handle never fails on an empty or reversed range; it reports zero nights.
func (h *RangePriceHandler) Handle(ctx context.Context, q RangePriceQuery) (dto.RangePrice, error) {
	unit, err := units.Parse(q.Unit)
	if err != nil {
		return dto.RangePrice{}, err
	}
	rules, err := h.Rules.Snapshot(ctx)
	if err != nil {
		return dto.RangePrice{}, err
	}
	rp := rules.RangePrice(unit, q.CheckIn, q.CheckOut)
	return dto.RangePrice{
		Unit:           unit.String(),
		CheckIn:        daterange.FormatDay(q.CheckIn),
		CheckOut:       daterange.FormatDay(q.CheckOut),
		Nights:         rp.Nights,
		Total:          money.Float(rp.Total),
		Average:        money.Float(rp.Average),
		UnpricedNights: rp.UnpricedNights,
	}, nil
}

type QuoteStayQuery struct {
	Unit           string `validate:"required"`
	CheckIn        time.Time
	CheckOut       time.Time
	NightlyPrice   decimal.NullDecimal
	CommissionRate decimal.NullDecimal
	PaidAmount     decimal.NullDecimal
	StrictRates    bool
}

func (q QuoteStayQuery) Key() string { return quoteStayKey }

type QuoteStayHandler struct {
	Rules    domainpricing.RuleRepository
	Settings policies.SettingsStore
}

func (h *QuoteStayHandler) Handle(ctx context.Context, q QuoteStayQuery) (dto.StayQuote, error) {
	unit, err := units.Parse(q.Unit)
	if err != nil {
		return dto.StayQuote{}, err
	}
	rate, err := support.CommissionRate(ctx, h.Settings, q.CommissionRate)
	if err != nil {
		return dto.StayQuote{}, err
	}
	rules, err := h.Rules.Snapshot(ctx)
	if err != nil {
		return dto.StayQuote{}, err
	}
	s, err := stay.Compute(rules, stay.Input{
		Unit:                 unit,
		CheckIn:              q.CheckIn,
		CheckOut:             q.CheckOut,
		NightlyPriceOverride: q.NightlyPrice,
		CommissionRate:       rate,
		PaidAmount:           q.PaidAmount,
		StrictRates:          q.StrictRates,
	})
	if err != nil {
		return dto.StayQuote{}, err
	}
	return dto.MapStay(s), nil
}

// QuickCalcQuery is the operator's what-if calculator: a stay price with an
// optional discount and no commission.
type QuickCalcQuery struct {
	Unit         string `validate:"required"`
	CheckIn      time.Time
	CheckOut     time.Time
	NightlyPrice decimal.NullDecimal
	Discount     decimal.Decimal
}

func (q QuickCalcQuery) Key() string { return quickCalcKey }

type QuickCalcHandler struct {
	Rules domainpricing.RuleRepository
}

func (h *QuickCalcHandler) Handle(ctx context.Context, q QuickCalcQuery) (dto.QuickCalc, error) {
	unit, err := units.Parse(q.Unit)
	if err != nil {
		return dto.QuickCalc{}, err
	}
	rules, err := h.Rules.Snapshot(ctx)
	if err != nil {
		return dto.QuickCalc{}, err
	}
	s, err := stay.Compute(rules, stay.Input{
		Unit:                 unit,
		CheckIn:              q.CheckIn,
		CheckOut:             q.CheckOut,
		NightlyPriceOverride: q.NightlyPrice,
		CommissionRate:       decimal.Zero,
	})
	if err != nil {
		return dto.QuickCalc{}, err
	}
	discounted, err := stay.Discount(s.Gross, q.Discount)
	if err != nil {
		return dto.QuickCalc{}, err
	}
	return dto.QuickCalc{
		Unit:           unit.String(),
		Nights:         s.Nights,
		NightlyPrice:   money.Float(s.NightlyPrice),
		PriceSource:    string(s.PriceSource),
		Gross:          money.Float(s.Gross),
		DiscountRate:   money.Float(discounted.Rate),
		DiscountAmount: money.Float(discounted.DiscountAmount),
		Total:          money.Float(discounted.Total),
	}, nil
}

var (
	_ queries.Handler[ListRulesQuery, []dto.PriceRule]       = (*ListRulesHandler)(nil)
	_ queries.Handler[ResolveNightlyQuery, dto.NightlyPrice] = (*ResolveNightlyHandler)(nil)
	_ queries.Handler[RangePriceQuery, dto.RangePrice]       = (*RangePriceHandler)(nil)
	_ queries.Handler[QuoteStayQuery, dto.StayQuote]         = (*QuoteStayHandler)(nil)
	_ queries.Handler[QuickCalcQuery, dto.QuickCalc]         = (*QuickCalcHandler)(nil)
)
