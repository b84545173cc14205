package dto

import (
	"villaledger/internal/domain/pricing"
	"villaledger/internal/domain/shared/daterange"
	"villaledger/internal/domain/shared/money"
	"villaledger/internal/domain/stay"
)

// PriceRule keeps the field names older clients and the spreadsheet use.
type PriceRule struct {
	ID    int64   `json:"id"`
	Unit  string  `json:"apart"`
	Start string  `json:"start"`
	End   string  `json:"end"`
	Price float64 `json:"price"`
}

func MapPriceRule(r pricing.PriceRule) PriceRule {
	return PriceRule{
		ID:    int64(r.ID),
		Unit:  r.Unit.String(),
		Start: daterange.FormatDay(r.Start),
		End:   daterange.FormatDay(r.End),
		Price: money.Float(r.NightlyPrice),
	}
}

func MapPriceRules(rules pricing.RuleSet) []PriceRule {
	out := make([]PriceRule, 0, len(rules))
	for _, r := range rules {
		out = append(out, MapPriceRule(r))
	}
	return out
}

type NightlyPrice struct {
	Unit   string  `json:"apart"`
	Date   string  `json:"date"`
	Price  float64 `json:"price"`
	RuleID int64   `json:"rule_id"`
}

type RangePrice struct {
	Unit           string  `json:"apart"`
	CheckIn        string  `json:"cin"`
	CheckOut       string  `json:"cout"`
	Nights         int     `json:"nights"`
	Total          float64 `json:"total"`
	Average        float64 `json:"avg"`
	UnpricedNights int     `json:"unpriced_nights"`
}

type StayQuote struct {
	Unit           string  `json:"apart"`
	CheckIn        string  `json:"cin"`
	CheckOut       string  `json:"cout"`
	Nights         int     `json:"nights"`
	NightlyPrice   float64 `json:"price"`
	PriceSource    string  `json:"price_source"`
	UnpricedNights int     `json:"unpriced_nights"`
	CommissionRate float64 `json:"commission_rate"`
	Gross          float64 `json:"brut"`
	Commission     float64 `json:"commAmt"`
	Net            float64 `json:"net"`
	PaidAmount     float64 `json:"paidAmt"`
	Remaining      float64 `json:"remaining"`
}

func MapStay(s stay.Stay) StayQuote {
	return StayQuote{
		Unit:           s.Unit.String(),
		CheckIn:        daterange.FormatDay(s.CheckIn),
		CheckOut:       daterange.FormatDay(s.CheckOut),
		Nights:         s.Nights,
		NightlyPrice:   money.Float(s.NightlyPrice),
		PriceSource:    string(s.PriceSource),
		UnpricedNights: s.UnpricedNights,
		CommissionRate: money.Float(s.CommissionRate),
		Gross:          money.Float(s.Gross),
		Commission:     money.Float(s.Commission),
		Net:            money.Float(s.Net),
		PaidAmount:     money.Float(s.PaidAmount),
		Remaining:      money.Float(s.Remaining),
	}
}

type QuickCalc struct {
	Unit           string  `json:"apart"`
	Nights         int     `json:"nights"`
	NightlyPrice   float64 `json:"price"`
	PriceSource    string  `json:"price_source"`
	Gross          float64 `json:"raw_total"`
	DiscountRate   float64 `json:"discount"`
	DiscountAmount float64 `json:"discount_amount"`
	Total          float64 `json:"total"`
}
