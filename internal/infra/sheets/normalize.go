package sheets

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"villaledger/internal/app/policies"
	"villaledger/internal/domain/pricing"
	"villaledger/internal/domain/reservations"
	"villaledger/internal/domain/shared/daterange"
	"villaledger/internal/domain/shared/money"
	"villaledger/internal/domain/stay"
	"villaledger/internal/domain/units"
)

var ErrUnexpectedPayload = errors.New("sheets: payload is neither a record list nor a dataset")

// Column aliases as they appear in hand-edited sheets, canonical name first.
var (
	keyID         = []string{"id", "ID"}
	keyUnit       = []string{"apart", "Apart"}
	keyGuest      = []string{"name", "Misafir", "Ad"}
	keyCheckIn    = []string{"cin", "Başlangıç", "Baslangic", "Giris"}
	keyCheckOut   = []string{"cout", "Bitiş", "Bitis", "Cikis"}
	keyNights     = []string{"nights", "Gece"}
	keyPrice      = []string{"price", "Fiyat", "Gecelik"}
	keyGross      = []string{"brut", "Brüt"}
	keyNet        = []string{"net", "Net"}
	keyCommission = []string{"commAmt", "Komisyon", "comm"}
	keyPaid       = []string{"paidAmt", "Odenen"}
	keyRemaining  = []string{"remaining", "Kalan"}
	keyStart      = []string{"start"}
	keyEnd        = []string{"end"}
)

type record map[string]any

type structuredPayload struct {
	Reservations []record `json:"reservations"`
	Prices       []record `json:"prices"`
	Config       record   `json:"config"`
}

// Normalize turns whatever the spreadsheet returned into canonical records.
// It accepts the structured {reservations, prices, config} document and the
// older bare array of reservations. Prices that do not validate are dropped,
// as are reservations naming an unknown unit.
func Normalize(raw []byte, now time.Time) (policies.RemoteDataset, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return policies.RemoteDataset{}, ErrUnexpectedPayload
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var out policies.RemoteDataset
	switch raw[0] {
	case '[':
		var items []record
		if err := dec.Decode(&items); err != nil {
			return policies.RemoteDataset{}, fmt.Errorf("sheets: decode records: %w", err)
		}
		out.Reservations = normalizeReservations(items, now)
	case '{':
		var doc structuredPayload
		if err := dec.Decode(&doc); err != nil {
			return policies.RemoteDataset{}, fmt.Errorf("sheets: decode dataset: %w", err)
		}
		if doc.Reservations == nil {
			return policies.RemoteDataset{}, ErrUnexpectedPayload
		}
		out.Reservations = normalizeReservations(doc.Reservations, now)
		out.Prices = normalizePrices(doc.Prices)
		if v, ok := doc.Config.lookup("commission"); ok && truthy(v) {
			if rate, ok := asDecimal(v); ok {
				out.Commission = decimal.NewNullDecimal(rate)
			}
		}
	default:
		return policies.RemoteDataset{}, ErrUnexpectedPayload
	}
	return out, nil
}

func normalizeReservations(items []record, now time.Time) []*reservations.Reservation {
	out := make([]*reservations.Reservation, 0, len(items))
	var last reservations.ID
	for _, item := range items {
		r, ok := item.reservation(now, &last)
		if ok {
			out = append(out, r)
		}
	}
	return out
}

func (item record) reservation(now time.Time, last *reservations.ID) (*reservations.Reservation, bool) {
	unit := units.Safira
	if v, ok := item.lookup(keyUnit...); ok && truthy(v) {
		parsed, err := units.Parse(asString(v))
		if err != nil {
			return nil, false
		}
		unit = parsed
	}

	var id reservations.ID
	if v, ok := item.lookup(keyID...); ok {
		if n, ok := asDecimal(v); ok {
			id = reservations.ID(n.IntPart())
		}
	}
	if id <= 0 {
		id = reservations.NextID(*last, now)
		*last = id
	}

	name := reservations.DefaultGuestName
	if v, ok := item.lookup(keyGuest...); ok && truthy(v) {
		name = strings.TrimSpace(asString(v))
	}

	checkIn := item.day(keyCheckIn)
	checkOut := item.day(keyCheckOut)
	derivedNights := 0
	if !checkIn.IsZero() && !checkOut.IsZero() {
		derivedNights = daterange.DaysBetween(checkIn, checkOut)
	}

	price := item.amount(keyPrice, money.Zero)
	nights := int(item.amount(keyNights, decimal.NewFromInt(int64(derivedNights))).IntPart())
	gross := item.amount(keyGross, price.Mul(decimal.NewFromInt(int64(derivedNights))))
	commission := item.amount(keyCommission, money.Zero)
	net := item.amount(keyNet, gross.Sub(commission))
	paid := item.amount(keyPaid, money.Zero)
	remaining := item.amount(keyRemaining, net.Sub(paid))

	r := &reservations.Reservation{
		ID:           id,
		Type:         reservations.Kind,
		Unit:         unit,
		GuestName:    name,
		CheckIn:      checkIn,
		CheckOut:     checkOut,
		Nights:       nights,
		NightlyPrice: price,
		PriceSource:  stay.SourceOverride,
		Gross:        gross,
		Commission:   commission,
		Net:          net,
		PaidAmount:   paid,
		Remaining:    remaining,
		CreatedAt:    now.UTC(),
		UpdatedAt:    now.UTC(),
	}
	r.CommissionRate = r.ImpliedCommissionRate(money.Zero)
	return r, true
}

func normalizePrices(items []record) pricing.RuleSet {
	out := make(pricing.RuleSet, 0, len(items))
	for _, item := range items {
		var params pricing.NewRuleParams
		if v, ok := item.lookup(keyUnit...); ok {
			params.Unit = asString(v)
		}
		if v, ok := item.lookup(keyStart...); ok {
			params.Start = asString(v)
		}
		if v, ok := item.lookup(keyEnd...); ok {
			params.End = asString(v)
		}
		params.NightlyPrice = item.amount(keyPrice, money.Zero)
		rule, err := pricing.NewRule(params)
		if err != nil {
			continue
		}
		if v, ok := item.lookup(keyID...); ok {
			if n, ok := asDecimal(v); ok {
				rule.ID = pricing.RuleID(n.IntPart())
			}
		}
		out = append(out, rule)
	}
	return out
}

// lookup returns the first alias present, trying an exact match for every
// alias before falling back to a case-insensitive one.
func (item record) lookup(keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := item[k]; ok {
			return v, true
		}
		for _, candidate := range item.sortedKeys() {
			if strings.EqualFold(candidate, k) {
				return item[candidate], true
			}
		}
	}
	return nil, false
}

func (item record) sortedKeys() []string {
	keys := make([]string, 0, len(item))
	for k := range item {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (item record) day(keys []string) time.Time {
	v, ok := item.lookup(keys...)
	if !ok || !truthy(v) {
		return time.Time{}
	}
	t, err := daterange.ParseDay(asString(v))
	if err != nil {
		return time.Time{}
	}
	return t
}

// amount reads a numeric column, using def when it is missing, empty or zero.
func (item record) amount(keys []string, def money.Amount) money.Amount {
	v, ok := item.lookup(keys...)
	if !ok || !truthy(v) {
		return def
	}
	d, ok := asDecimal(v)
	if !ok || d.IsZero() {
		return def
	}
	return d
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	case bool:
		return t
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		return err == nil && !d.IsZero()
	default:
		return true
	}
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

func asDecimal(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		return d, err == nil
	case string:
		d, err := money.Parse(t)
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(t), true
	}
	return decimal.Zero, false
}
