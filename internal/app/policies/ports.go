package policies

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"villaledger/internal/domain/pricing"
	"villaledger/internal/domain/reservations"
)

// ErrRemoteStore wraps every failure talking to the remote record store.
var ErrRemoteStore = errors.New("remote store unavailable")

// RemoteDataset is everything the remote spreadsheet holds, already normalized.
type RemoteDataset struct {
	Reservations []*reservations.Reservation
	Prices       pricing.RuleSet
	Commission   decimal.NullDecimal
}

type RemoteStore interface {
	Load(ctx context.Context) (RemoteDataset, error)
	Save(ctx context.Context, r *reservations.Reservation) error
	Delete(ctx context.Context, id reservations.ID) error
}

// Backup is the payload embedded in the HTML snapshot.
type Backup struct {
	Reservations []*reservations.Reservation
	Prices       pricing.RuleSet
	UpdatedAt    time.Time
}

type SnapshotStore interface {
	Read(ctx context.Context) (Backup, error)
	Write(ctx context.Context, b Backup) error
}

type SettingsStore interface {
	CommissionRate(ctx context.Context) (decimal.Decimal, error)
	SetCommissionRate(ctx context.Context, rate decimal.Decimal) error
}

// BackupTrigger refreshes the snapshot after a change. Failures are the
// implementation's to log; callers never fail because of them.
type BackupTrigger interface {
	AfterChange(ctx context.Context, reason string)
}
