package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"villaledger/internal/app/commands"
	"villaledger/internal/app/dto"
	"villaledger/internal/app/handlers/support"
	"villaledger/internal/app/outbox"
	"villaledger/internal/app/policies"
	domainpricing "villaledger/internal/domain/pricing"
	"villaledger/internal/domain/shared/events"
)

const (
	addRuleKey    = "pricing.rules.add"
	deleteRuleKey = "pricing.rules.delete"
)

type AddRuleCommand struct {
	Unit         string `validate:"required"`
	Start        string `validate:"required"`
	End          string `validate:"required"`
	NightlyPrice decimal.Decimal
}

func (c AddRuleCommand) Key() string { return addRuleKey }

type AddRuleHandler struct {
	Rules   domainpricing.RuleRepository
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Backup  policies.BackupTrigger
	Now     func() time.Time
}

func (h *AddRuleHandler) Handle(ctx context.Context, cmd AddRuleCommand) (dto.PriceRule, error) {
	rule, err := domainpricing.NewRule(domainpricing.NewRuleParams{
		Unit:         cmd.Unit,
		Start:        cmd.Start,
		End:          cmd.End,
		NightlyPrice: cmd.NightlyPrice,
	})
	if err != nil {
		return dto.PriceRule{}, err
	}
	saved, err := h.Rules.Add(ctx, rule)
	if err != nil {
		return dto.PriceRule{}, err
	}
	ev := domainpricing.RuleAdded{Rule: saved, At: support.Clock(h.Now)}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, support.Encoder(h.Encoder), []events.DomainEvent{ev}); err != nil {
		return dto.PriceRule{}, err
	}
	support.AfterChange(ctx, h.Backup, addRuleKey)
	return dto.MapPriceRule(saved), nil
}

type DeleteRuleCommand struct {
	ID int64 `validate:"required"`
}

func (c DeleteRuleCommand) Key() string { return deleteRuleKey }

type DeleteRuleHandler struct {
	Rules   domainpricing.RuleRepository
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Backup  policies.BackupTrigger
	Now     func() time.Time
}

// Handle removes a rule and returns the remaining price list.
func (h *DeleteRuleHandler) Handle(ctx context.Context, cmd DeleteRuleCommand) ([]dto.PriceRule, error) {
	id := domainpricing.RuleID(cmd.ID)
	current, err := h.Rules.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	var target *domainpricing.PriceRule
	for i := range current {
		if current[i].ID == id {
			target = &current[i]
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("%w: %d", domainpricing.ErrRuleNotFound, cmd.ID)
	}
	if err := h.Rules.Delete(ctx, id); err != nil {
		return nil, err
	}
	ev := domainpricing.RuleDeleted{ID: id, Unit: target.Unit, At: support.Clock(h.Now)}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, support.Encoder(h.Encoder), []events.DomainEvent{ev}); err != nil {
		return nil, err
	}
	support.AfterChange(ctx, h.Backup, deleteRuleKey)

	remaining, err := h.Rules.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return dto.MapPriceRules(remaining), nil
}

// EnsureSeeded installs the default season list into an empty store.
func EnsureSeeded(ctx context.Context, rules domainpricing.RuleRepository) (bool, error) {
	if rules == nil {
		return false, errors.New("pricing: rule repository required")
	}
	current, err := rules.Snapshot(ctx)
	if err != nil {
		return false, err
	}
	if len(current) > 0 {
		return false, nil
	}
	return true, rules.ReplaceAll(ctx, domainpricing.DefaultRules())
}

var (
	_ commands.Handler[AddRuleCommand, dto.PriceRule]      = (*AddRuleHandler)(nil)
	_ commands.Handler[DeleteRuleCommand, []dto.PriceRule] = (*DeleteRuleHandler)(nil)
)
