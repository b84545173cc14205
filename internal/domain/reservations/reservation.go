package reservations

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"villaledger/internal/domain/pricing"
	"villaledger/internal/domain/shared/daterange"
	"villaledger/internal/domain/shared/events"
	"villaledger/internal/domain/shared/money"
	"villaledger/internal/domain/stay"
	"villaledger/internal/domain/units"
)

var (
	ErrNotFound          = errors.New("reservations: not found")
	ErrGuestNameRequired = errors.New("reservations: guest name required")
)

// Kind is the record type understood by the remote spreadsheet.
const Kind = "villa"

// DefaultGuestName fills legacy rows that were stored without a guest.
const DefaultGuestName = "Misafir"

type ID int64

// NextID mints a millisecond id, bumping past last when the clock has not moved.
func NextID(last ID, now time.Time) ID {
	id := ID(now.UnixMilli())
	if id <= last {
		id = last + 1
	}
	return id
}

type Reservation struct {
	ID             ID
	Type           string
	Unit           units.Unit
	GuestName      string
	CheckIn        time.Time
	CheckOut       time.Time
	Nights         int
	NightlyPrice   money.Amount
	PriceSource    stay.PriceSource
	CommissionRate decimal.Decimal
	Gross          money.Amount
	Commission     money.Amount
	Net            money.Amount
	PaidAmount     money.Amount
	Remaining      money.Amount
	CreatedAt      time.Time
	UpdatedAt      time.Time
	events.EventRecorder
}

type Repository interface {
	// NextID reserves a fresh id; no two calls return the same one.
	NextID(ctx context.Context, now time.Time) (ID, error)
	List(ctx context.Context) ([]*Reservation, error)
	ByID(ctx context.Context, id ID) (*Reservation, error)
	Save(ctx context.Context, r *Reservation) error
	Delete(ctx context.Context, id ID) error
	ReplaceAll(ctx context.Context, list []*Reservation) error
}

type SaveParams struct {
	ID        ID
	GuestName string
	Stay      stay.Input
	Now       time.Time
}

// New books a stay. Every figure is derived through the stay calculator.
func New(rules pricing.RuleSet, params SaveParams) (*Reservation, error) {
	name := strings.TrimSpace(params.GuestName)
	if name == "" {
		return nil, ErrGuestNameRequired
	}
	in := params.Stay
	in.Previous = nil
	computed, err := stay.Compute(rules, in)
	if err != nil {
		return nil, err
	}
	now := params.Now.UTC()
	r := &Reservation{
		ID:        params.ID,
		Type:      Kind,
		GuestName: name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.apply(computed)
	r.Record(Saved{Reservation: r.Snapshot(), Created: true, At: now})
	return r, nil
}

// Revise replaces the editable inputs and recomputes the figures. The stay as
// currently stored is offered to the calculator for precedence decisions.
func (r *Reservation) Revise(rules pricing.RuleSet, params SaveParams) error {
	name := strings.TrimSpace(params.GuestName)
	if name == "" {
		return ErrGuestNameRequired
	}
	in := params.Stay
	previous := r.StayKey()
	in.Previous = &previous
	computed, err := stay.Compute(rules, in)
	if err != nil {
		return err
	}
	r.GuestName = name
	r.UpdatedAt = params.Now.UTC()
	r.apply(computed)
	r.Record(Saved{Reservation: r.Snapshot(), At: r.UpdatedAt})
	return nil
}

// MarkDeleted records the removal; the repository does the actual delete.
func (r *Reservation) MarkDeleted(now time.Time) {
	r.Record(Deleted{ID: r.ID, Unit: r.Unit, At: now.UTC()})
}

func (r *Reservation) apply(s stay.Stay) {
	r.Unit = s.Unit
	r.CheckIn = s.CheckIn
	r.CheckOut = s.CheckOut
	r.Nights = s.Nights
	r.NightlyPrice = s.NightlyPrice
	r.PriceSource = s.PriceSource
	r.CommissionRate = s.CommissionRate
	r.Gross = s.Gross
	r.Commission = s.Commission
	r.Net = s.Net
	r.PaidAmount = s.PaidAmount
	r.Remaining = s.Remaining
}

func (r *Reservation) StayKey() stay.Key {
	return stay.Key{Unit: r.Unit, CheckIn: r.CheckIn, CheckOut: r.CheckOut}
}

func (r *Reservation) Range() daterange.DateRange {
	return daterange.DateRange{CheckIn: r.CheckIn, CheckOut: r.CheckOut}
}

// ImpliedCommissionRate recovers the rate a stored booking was priced with,
// falling back to def when the gross amount is zero.
func (r *Reservation) ImpliedCommissionRate(def decimal.Decimal) decimal.Decimal {
	if !r.Gross.IsPositive() {
		return def
	}
	return r.Commission.Div(r.Gross).Mul(decimal.NewFromInt(100))
}

// Snapshot copies the record without its pending events.
func (r *Reservation) Snapshot() Reservation {
	return Reservation{
		ID:             r.ID,
		Type:           r.Type,
		Unit:           r.Unit,
		GuestName:      r.GuestName,
		CheckIn:        r.CheckIn,
		CheckOut:       r.CheckOut,
		Nights:         r.Nights,
		NightlyPrice:   r.NightlyPrice,
		PriceSource:    r.PriceSource,
		CommissionRate: r.CommissionRate,
		Gross:          r.Gross,
		Commission:     r.Commission,
		Net:            r.Net,
		PaidAmount:     r.PaidAmount,
		Remaining:      r.Remaining,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

// Clone returns an independent copy for repositories that hand out pointers.
func (r *Reservation) Clone() *Reservation {
	c := r.Snapshot()
	return &c
}
