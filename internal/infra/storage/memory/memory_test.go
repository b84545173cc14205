package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"villaledger/internal/app/middleware"
	"villaledger/internal/domain/pricing"
	"villaledger/internal/domain/reservations"
	"villaledger/internal/domain/units"
)

func TestReservationRepositoryHandsOutCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewReservationRepository()
	require.NoError(t, repo.Save(ctx, &reservations.Reservation{ID: 2, GuestName: "B", Unit: units.Safira}))
	require.NoError(t, repo.Save(ctx, &reservations.Reservation{ID: 1, GuestName: "A", Unit: units.Destan}))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, reservations.ID(1), list[0].ID)

	list[0].GuestName = "changed"
	stored, err := repo.ByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "A", stored.GuestName)

	require.NoError(t, repo.Delete(ctx, 1))
	assert.ErrorIs(t, repo.Delete(ctx, 1), reservations.ErrNotFound)
	_, err = repo.ByID(ctx, 1)
	assert.ErrorIs(t, err, reservations.ErrNotFound)

	require.NoError(t, repo.ReplaceAll(ctx, []*reservations.Reservation{{ID: 9}, nil}))
	list, _ = repo.List(ctx)
	require.Len(t, list, 1)
	assert.Equal(t, reservations.ID(9), list[0].ID)
}

func TestRuleRepositoryAssignsIncreasingIDs(t *testing.T) {
	ctx := context.Background()
	repo := NewRuleRepository(pricing.DefaultRules())
	clock := time.UnixMilli(50)
	repo.now = func() time.Time { return clock }

	start, _ := time.Parse(time.DateOnly, "2026-10-01")
	rule := pricing.PriceRule{Unit: units.Safira, Start: start, End: start.AddDate(0, 0, 9), NightlyPrice: decimal.NewFromInt(2000)}

	first, err := repo.Add(ctx, rule)
	require.NoError(t, err)
	assert.Equal(t, pricing.RuleID(100), first.ID, "clock behind the highest id bumps past it")
	second, err := repo.Add(ctx, rule)
	require.NoError(t, err)
	assert.Equal(t, pricing.RuleID(101), second.ID)

	snapshot, _ := repo.Snapshot(ctx)
	snapshot[0].NightlyPrice = decimal.Zero
	again, _ := repo.Snapshot(ctx)
	assert.False(t, again[0].NightlyPrice.IsZero())

	bad := rule
	bad.End = start.AddDate(0, 0, -1)
	_, err = repo.Add(ctx, bad)
	assert.ErrorIs(t, err, pricing.ErrInvalidRuleRange)
	assert.ErrorIs(t, repo.Delete(ctx, 12345), pricing.ErrRuleNotFound)
}

func TestIdempotencyStoreExpires(t *testing.T) {
	ctx := context.Background()
	store := NewIdempotencyStore(time.Minute)
	require.NoError(t, store.Save(ctx, middleware.IdempotencyRecord{Key: "fresh", OccurredAt: time.Now()}))
	require.NoError(t, store.Save(ctx, middleware.IdempotencyRecord{Key: "stale", OccurredAt: time.Now().Add(-time.Hour)}))

	_, found, err := store.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, found)
	_, found, _ = store.Get(ctx, "stale")
	assert.False(t, found)
	_, found, _ = store.Get(ctx, "missing")
	assert.False(t, found)
}

func TestSettingsStore(t *testing.T) {
	ctx := context.Background()
	store := NewSettingsStore(decimal.NewFromInt(10))
	require.NoError(t, store.SetCommissionRate(ctx, decimal.NewFromInt(15)))
	rate, err := store.CommissionRate(ctx)
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.NewFromInt(15)))
}

func TestReservationRepositoryNextIDNeverRepeats(t *testing.T) {
	ctx := context.Background()
	repo := NewReservationRepository()
	now := time.UnixMilli(1000)
	require.NoError(t, repo.Save(ctx, &reservations.Reservation{ID: 5000, Unit: units.Safira}))

	first, err := repo.NextID(ctx, now)
	require.NoError(t, err)
	second, err := repo.NextID(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, reservations.ID(5001), first, "stored ids ahead of the clock are skipped")
	assert.Equal(t, reservations.ID(5002), second, "issued ids count even before they are saved")
}
