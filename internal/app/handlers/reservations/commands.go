package reservations

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"villaledger/internal/app/commands"
	"villaledger/internal/app/dto"
	"villaledger/internal/app/handlers/support"
	"villaledger/internal/app/middleware"
	"villaledger/internal/app/outbox"
	"villaledger/internal/app/policies"
	domainpricing "villaledger/internal/domain/pricing"
	domain "villaledger/internal/domain/reservations"
	"villaledger/internal/domain/stay"
	"villaledger/internal/domain/units"
)

const (
	saveKey   = "reservations.save"
	deleteKey = "reservations.delete"
)

// SaveReservationCommand creates a booking when ID is zero and revises the
// stored one otherwise.
type SaveReservationCommand struct {
	ID             int64
	GuestName      string `validate:"required,max=200"`
	Unit           string `validate:"required"`
	CheckIn        time.Time
	CheckOut       time.Time
	NightlyPrice   decimal.NullDecimal
	CommissionRate decimal.NullDecimal
	PaidAmount     decimal.NullDecimal
	// Precedence overrides the configured policy when non-empty.
	Precedence      string
	IdempotencyKeyV string
}

func (c SaveReservationCommand) Key() string { return saveKey }

func (c SaveReservationCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c SaveReservationCommand) ResultPrototype() any { return &dto.SaveReservationResult{} }

type SaveReservationHandler struct {
	Reservations domain.Repository
	Rules        domainpricing.RuleRepository
	Settings     policies.SettingsStore
	Remote       policies.RemoteStore
	Outbox       outbox.Outbox
	Encoder      outbox.EventEncoder
	Backup       policies.BackupTrigger
	Precedence   stay.Precedence
	// StrictRates refuses stays with unpriced nights unless a manual price is given.
	StrictRates bool
	Now         func() time.Time
}

func (h *SaveReservationHandler) Handle(ctx context.Context, cmd SaveReservationCommand) (dto.SaveReservationResult, error) {
	var zero dto.SaveReservationResult
	unit, err := units.Parse(cmd.Unit)
	if err != nil {
		return zero, err
	}
	precedence := h.Precedence
	if cmd.Precedence != "" {
		if precedence, err = stay.ParsePrecedence(cmd.Precedence); err != nil {
			return zero, err
		}
	}
	rate, err := support.CommissionRate(ctx, h.Settings, cmd.CommissionRate)
	if err != nil {
		return zero, err
	}
	rules, err := h.Rules.Snapshot(ctx)
	if err != nil {
		return zero, err
	}
	now := support.Clock(h.Now)
	params := domain.SaveParams{
		GuestName: cmd.GuestName,
		Now:       now,
		Stay: stay.Input{
			Unit:                 unit,
			CheckIn:              cmd.CheckIn,
			CheckOut:             cmd.CheckOut,
			NightlyPriceOverride: cmd.NightlyPrice,
			CommissionRate:       rate,
			PaidAmount:           cmd.PaidAmount,
			Precedence:           precedence,
			StrictRates:          h.StrictRates,
		},
	}

	existing, err := h.Reservations.List(ctx)
	if err != nil {
		return zero, err
	}
	var (
		r       *domain.Reservation
		created bool
	)
	if cmd.ID == 0 {
		if params.ID, err = h.Reservations.NextID(ctx, now); err != nil {
			return zero, err
		}
		if r, err = domain.New(rules, params); err != nil {
			return zero, err
		}
		created = true
	} else {
		if r, err = h.Reservations.ByID(ctx, domain.ID(cmd.ID)); err != nil {
			return zero, err
		}
		// Without an explicit rate a revision keeps the one it was booked at.
		if !cmd.CommissionRate.Valid {
			params.Stay.CommissionRate = r.CommissionRate
		}
		if err = r.Revise(rules, params); err != nil {
			return zero, err
		}
	}

	if h.Remote != nil {
		if err := h.Remote.Save(ctx, r); err != nil {
			return zero, err
		}
	}
	if err := h.Reservations.Save(ctx, r); err != nil {
		return zero, err
	}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, support.Encoder(h.Encoder), r.Drain()); err != nil {
		return zero, err
	}
	support.AfterChange(ctx, h.Backup, saveKey)

	return dto.SaveReservationResult{
		Reservation: dto.MapReservation(r),
		Created:     created,
		Overlaps:    dto.MapReservations(domain.Conflicts(existing, r)),
	}, nil
}

type DeleteReservationCommand struct {
	ID int64 `validate:"required"`
}

func (c DeleteReservationCommand) Key() string { return deleteKey }

type DeleteReservationHandler struct {
	Reservations domain.Repository
	Remote       policies.RemoteStore
	Outbox       outbox.Outbox
	Encoder      outbox.EventEncoder
	Backup       policies.BackupTrigger
	Now          func() time.Time
}

func (h *DeleteReservationHandler) Handle(ctx context.Context, cmd DeleteReservationCommand) (struct{}, error) {
	r, err := h.Reservations.ByID(ctx, domain.ID(cmd.ID))
	if err != nil {
		return struct{}{}, err
	}
	if h.Remote != nil {
		if err := h.Remote.Delete(ctx, r.ID); err != nil {
			return struct{}{}, err
		}
	}
	if err := h.Reservations.Delete(ctx, r.ID); err != nil {
		return struct{}{}, err
	}
	r.MarkDeleted(support.Clock(h.Now))
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, support.Encoder(h.Encoder), r.Drain()); err != nil {
		return struct{}{}, err
	}
	support.AfterChange(ctx, h.Backup, deleteKey)
	return struct{}{}, nil
}

var (
	_ commands.Handler[SaveReservationCommand, dto.SaveReservationResult] = (*SaveReservationHandler)(nil)
	_ commands.Handler[DeleteReservationCommand, struct{}]                = (*DeleteReservationHandler)(nil)
	_ middleware.IdempotentCommand                                        = SaveReservationCommand{}
)
