package backup_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"villaledger/internal/app/handlers/backup"
	"villaledger/internal/app/policies"
	"villaledger/internal/domain/pricing"
	"villaledger/internal/domain/reservations"
	"villaledger/internal/domain/stay"
	"villaledger/internal/domain/units"
	"villaledger/internal/infra/storage/memory"
)

type memSnapshot struct {
	current policies.Backup
	writes  int
	failing bool
}

func (m *memSnapshot) Read(context.Context) (policies.Backup, error) { return m.current, nil }

func (m *memSnapshot) Write(_ context.Context, b policies.Backup) error {
	if m.failing {
		return errors.New("disk full")
	}
	m.writes++
	m.current = b
	return nil
}

type brokenLedger struct{ reservations.Repository }

func (brokenLedger) List(context.Context) ([]*reservations.Reservation, error) {
	return nil, errors.New("connection refused")
}

func stayAt(t *testing.T, id reservations.ID, checkIn string) *reservations.Reservation {
	t.Helper()
	in, err := time.Parse(time.DateOnly, checkIn)
	require.NoError(t, err)
	r, err := reservations.New(pricing.DefaultRules(), reservations.SaveParams{
		ID:        id,
		GuestName: "Zeynep",
		Now:       in,
		Stay: stay.Input{
			Unit:           units.Safira,
			CheckIn:        in,
			CheckOut:       in.AddDate(0, 0, 2),
			CommissionRate: decimal.NewFromInt(10),
		},
	})
	require.NoError(t, err)
	return r
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestRunWritesLedgerNewestFirst(t *testing.T) {
	ctx := context.Background()
	ledger := memory.NewReservationRepository()
	require.NoError(t, ledger.Save(ctx, stayAt(t, 1, "2026-06-10")))
	require.NoError(t, ledger.Save(ctx, stayAt(t, 2, "2026-08-10")))
	snap := &memSnapshot{}
	now := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)

	svc := &backup.Service{
		Reservations: ledger,
		Rules:        memory.NewRuleRepository(pricing.DefaultRules()),
		Snapshot:     snap,
		Logger:       quiet(),
		Now:          func() time.Time { return now },
	}
	res, err := svc.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, backup.SourceLedger, res.Source)
	assert.Equal(t, 2, res.Reservations)
	assert.Equal(t, len(pricing.DefaultRules()), res.Prices)
	assert.Equal(t, now, snap.current.UpdatedAt)
	require.Len(t, snap.current.Reservations, 2)
	assert.Equal(t, reservations.ID(2), snap.current.Reservations[0].ID)
}

func TestRunKeepsPreviousReservationsWhenLedgerFails(t *testing.T) {
	previous := []*reservations.Reservation{stayAt(t, 9, "2026-07-01")}
	snap := &memSnapshot{current: policies.Backup{Reservations: previous}}
	svc := &backup.Service{
		Reservations: brokenLedger{},
		Rules:        memory.NewRuleRepository(nil),
		Snapshot:     snap,
		Logger:       quiet(),
	}

	res, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, backup.SourceSnapshot, res.Source)
	assert.Equal(t, 1, res.Reservations)
	assert.Equal(t, 1, snap.writes)
}

func TestAfterChangeSwallowsFailures(t *testing.T) {
	snap := &memSnapshot{failing: true}
	svc := &backup.Service{
		Reservations: memory.NewReservationRepository(),
		Rules:        memory.NewRuleRepository(nil),
		Snapshot:     snap,
		Logger:       quiet(),
	}
	assert.NotPanics(t, func() { svc.AfterChange(context.Background(), "test") })
	assert.Zero(t, snap.writes)
}
