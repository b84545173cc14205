package settings

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"villaledger/internal/app/commands"
	"villaledger/internal/app/dto"
	"villaledger/internal/app/policies"
	"villaledger/internal/app/queries"
	"villaledger/internal/domain/shared/money"
	"villaledger/internal/domain/stay"
)

const (
	getKey    = "settings.get"
	updateKey = "settings.update"
)

type GetSettingsQuery struct{}

func (q GetSettingsQuery) Key() string { return getKey }

type GetSettingsHandler struct {
	Settings   policies.SettingsStore
	Precedence stay.Precedence
}

func (h *GetSettingsHandler) Handle(ctx context.Context, _ GetSettingsQuery) (dto.Settings, error) {
	rate, err := h.Settings.CommissionRate(ctx)
	if err != nil {
		return dto.Settings{}, err
	}
	return dto.Settings{CommissionRate: money.Float(rate), Precedence: h.Precedence.String()}, nil
}

type UpdateSettingsCommand struct {
	CommissionRate decimal.Decimal
}

func (c UpdateSettingsCommand) Key() string { return updateKey }

type UpdateSettingsHandler struct {
	Settings   policies.SettingsStore
	Precedence stay.Precedence
}

func (h *UpdateSettingsHandler) Handle(ctx context.Context, cmd UpdateSettingsCommand) (dto.Settings, error) {
	if h.Settings == nil {
		return dto.Settings{}, errors.New("settings: store not configured")
	}
	if err := stay.ValidateCommissionRate(cmd.CommissionRate); err != nil {
		return dto.Settings{}, err
	}
	if err := h.Settings.SetCommissionRate(ctx, cmd.CommissionRate); err != nil {
		return dto.Settings{}, err
	}
	return dto.Settings{CommissionRate: money.Float(cmd.CommissionRate), Precedence: h.Precedence.String()}, nil
}

var (
	_ queries.Handler[GetSettingsQuery, dto.Settings]       = (*GetSettingsHandler)(nil)
	_ commands.Handler[UpdateSettingsCommand, dto.Settings] = (*UpdateSettingsHandler)(nil)
)
