package remotesync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"villaledger/internal/app/commands"
	"villaledger/internal/app/dto"
	"villaledger/internal/app/handlers/support"
	"villaledger/internal/app/policies"
	"villaledger/internal/domain/pricing"
	"villaledger/internal/domain/reservations"
	"villaledger/internal/domain/stay"
)

const syncKey = "sync.remote"

const (
	PricesFromRemote   = "remote"
	PricesFromSnapshot = "snapshot"
	PricesUnchanged    = "unchanged"
)

var ErrRemoteNotConfigured = errors.New("sync: remote store not configured")

// SyncRemoteCommand pulls reservations, prices and the commission rate from
// the remote store into the local stores.
type SyncRemoteCommand struct{}

func (c SyncRemoteCommand) Key() string { return syncKey }

type SyncRemoteHandler struct {
	Remote       policies.RemoteStore
	Reservations reservations.Repository
	Rules        pricing.RuleRepository
	Settings     policies.SettingsStore
	Snapshot     policies.SnapshotStore
	Backup       policies.BackupTrigger
	Logger       *slog.Logger
}

// Handle falls back to the snapshot's price list when the remote store is
// unreachable; the local ledger is then left untouched.
func (h *SyncRemoteHandler) Handle(ctx context.Context, _ SyncRemoteCommand) (dto.SyncResult, error) {
	if h.Remote == nil {
		return h.fromSnapshot(ctx, ErrRemoteNotConfigured)
	}
	data, err := h.Remote.Load(ctx)
	if err != nil {
		return h.fromSnapshot(ctx, err)
	}

	if err := h.Reservations.ReplaceAll(ctx, data.Reservations); err != nil {
		return dto.SyncResult{}, err
	}
	res := dto.SyncResult{Reservations: len(data.Reservations), PriceSource: PricesUnchanged}
	if len(data.Prices) > 0 {
		if err := h.Rules.ReplaceAll(ctx, data.Prices); err != nil {
			return dto.SyncResult{}, err
		}
		res.Prices = len(data.Prices)
		res.PriceSource = PricesFromRemote
	}
	if data.Commission.Valid && h.Settings != nil {
		if err := stay.ValidateCommissionRate(data.Commission.Decimal); err != nil {
			h.logger().WarnContext(ctx, "ignoring remote commission rate", "rate", data.Commission.Decimal.String(), "error", err)
			res.Warning = fmt.Sprintf("remote commission rate %s ignored: %v", data.Commission.Decimal, err)
		} else {
			if err := h.Settings.SetCommissionRate(ctx, data.Commission.Decimal); err != nil {
				return dto.SyncResult{}, err
			}
			res.CommissionUpdated = true
		}
	}
	support.AfterChange(ctx, h.Backup, syncKey)
	return res, nil
}

func (h *SyncRemoteHandler) fromSnapshot(ctx context.Context, cause error) (dto.SyncResult, error) {
	h.logger().WarnContext(ctx, "remote store unavailable, syncing prices from snapshot", "error", cause)
	if h.Snapshot == nil {
		return dto.SyncResult{}, cause
	}
	b, err := h.Snapshot.Read(ctx)
	if err != nil {
		return dto.SyncResult{}, errors.Join(cause, err)
	}
	res := dto.SyncResult{PriceSource: PricesUnchanged, Warning: fmt.Sprintf("remote store: %v", cause)}
	if len(b.Prices) > 0 {
		if err := h.Rules.ReplaceAll(ctx, b.Prices); err != nil {
			return dto.SyncResult{}, err
		}
		res.Prices = len(b.Prices)
		res.PriceSource = PricesFromSnapshot
	}
	return res, nil
}

func (h *SyncRemoteHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

var _ commands.Handler[SyncRemoteCommand, dto.SyncResult] = (*SyncRemoteHandler)(nil)
