package support

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"villaledger/internal/app/outbox"
	"villaledger/internal/app/policies"
)

// DefaultCommissionRate applies when no settings store is wired.
var DefaultCommissionRate = decimal.NewFromInt(10)

// CommissionRate prefers an explicit rate over the configured default.
func CommissionRate(ctx context.Context, store policies.SettingsStore, explicit decimal.NullDecimal) (decimal.Decimal, error) {
	if explicit.Valid {
		return explicit.Decimal, nil
	}
	if store == nil {
		return DefaultCommissionRate, nil
	}
	return store.CommissionRate(ctx)
}

func Encoder(e outbox.EventEncoder) outbox.EventEncoder {
	if e != nil {
		return e
	}
	return outbox.JSONEventEncoder{}
}

func Clock(now func() time.Time) time.Time {
	if now != nil {
		return now().UTC()
	}
	return time.Now().UTC()
}

// AfterChange fires the backup trigger when one is wired.
func AfterChange(ctx context.Context, trigger policies.BackupTrigger, reason string) {
	if trigger != nil {
		trigger.AfterChange(ctx, reason)
	}
}
