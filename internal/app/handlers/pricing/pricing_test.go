package pricing_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "villaledger/internal/app/handlers/pricing"
	"villaledger/internal/app/outbox"
	domain "villaledger/internal/domain/pricing"
	"villaledger/internal/domain/shared/daterange"
	"villaledger/internal/infra/storage/memory"
)

type eventLog struct{ names []string }

func (l *eventLog) Add(_ context.Context, rec outbox.EventRecord) error {
	l.names = append(l.names, rec.Name)
	return nil
}

func (l *eventLog) Flush(context.Context) error { return nil }

func day(t *testing.T, raw string) time.Time {
	t.Helper()
	d, err := daterange.ParseDay(raw)
	require.NoError(t, err)
	return d
}

func TestAddRuleWinsOverExistingSeason(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRuleRepository(domain.DefaultRules())
	log := &eventLog{}
	add := &app.AddRuleHandler{Rules: repo, Outbox: log}

	added, err := add.Handle(ctx, app.AddRuleCommand{
		Unit:         "safira",
		Start:        "2026-07-20",
		End:          "2026-07-25",
		NightlyPrice: decimal.NewFromInt(6000),
	})
	require.NoError(t, err)
	assert.Equal(t, "Safira", added.Unit)
	assert.Greater(t, added.ID, int64(99))
	assert.Equal(t, []string{"price_rule.added"}, log.names)

	nightly := &app.ResolveNightlyHandler{Rules: repo}
	price, err := nightly.Handle(ctx, app.ResolveNightlyQuery{Unit: "Safira", Date: day(t, "2026-07-25")})
	require.NoError(t, err)
	assert.Equal(t, 6000.0, price.Price)
	assert.Equal(t, added.ID, price.RuleID)

	price, err = nightly.Handle(ctx, app.ResolveNightlyQuery{Unit: "Safira", Date: day(t, "2026-07-26")})
	require.NoError(t, err)
	assert.Equal(t, 4500.0, price.Price)
}

func TestAddRuleRejectsReversedRange(t *testing.T) {
	add := &app.AddRuleHandler{Rules: memory.NewRuleRepository(nil)}
	_, err := add.Handle(context.Background(), app.AddRuleCommand{
		Unit: "Destan", Start: "2026-08-10", End: "2026-08-01", NightlyPrice: decimal.NewFromInt(100),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRuleRange)
}

func TestDeleteRule(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRuleRepository(domain.DefaultRules())
	log := &eventLog{}
	del := &app.DeleteRuleHandler{Rules: repo, Outbox: log}

	remaining, err := del.Handle(ctx, app.DeleteRuleCommand{ID: 2})
	require.NoError(t, err)
	assert.Len(t, remaining, len(domain.DefaultRules())-1)
	for _, r := range remaining {
		assert.NotEqual(t, int64(2), r.ID)
	}
	assert.Equal(t, []string{"price_rule.deleted"}, log.names)

	_, err = del.Handle(ctx, app.DeleteRuleCommand{ID: 2})
	assert.ErrorIs(t, err, domain.ErrRuleNotFound)
}

func TestEnsureSeeded(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRuleRepository(nil)

	seeded, err := app.EnsureSeeded(ctx, repo)
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = app.EnsureSeeded(ctx, repo)
	require.NoError(t, err)
	assert.False(t, seeded)

	rules, _ := repo.Snapshot(ctx)
	assert.Len(t, rules, len(domain.DefaultRules()))
}

func TestRangePriceAndQuote(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRuleRepository(domain.DefaultRules())

	rp, err := (&app.RangePriceHandler{Rules: repo}).Handle(ctx, app.RangePriceQuery{
		Unit: "Destan", CheckIn: day(t, "2026-06-29"), CheckOut: day(t, "2026-07-02"),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, rp.Nights)
	assert.Equal(t, 10000.0, rp.Total)
	assert.Zero(t, rp.UnpricedNights)

	quote, err := (&app.QuoteStayHandler{Rules: repo, Settings: memory.NewSettingsStore(decimal.NewFromInt(15))}).Handle(ctx, app.QuoteStayQuery{
		Unit: "Safira", CheckIn: day(t, "2026-07-10"), CheckOut: day(t, "2026-07-12"),
	})
	require.NoError(t, err)
	assert.Equal(t, 9000.0, quote.Gross)
	assert.Equal(t, 1350.0, quote.Commission)
	assert.Equal(t, 7650.0, quote.Net)
	assert.Equal(t, 7650.0, quote.Remaining)
}

func TestQuickCalc(t *testing.T) {
	ctx := context.Background()
	h := &app.QuickCalcHandler{Rules: memory.NewRuleRepository(domain.DefaultRules())}

	res, err := h.Handle(ctx, app.QuickCalcQuery{
		Unit:     "Safira",
		CheckIn:  day(t, "2026-07-10"),
		CheckOut: day(t, "2026-07-14"),
		Discount: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Nights)
	assert.Equal(t, 18000.0, res.Gross)
	assert.Equal(t, 1800.0, res.DiscountAmount)
	assert.Equal(t, 16200.0, res.Total)

	_, err = h.Handle(ctx, app.QuickCalcQuery{
		Unit:     "Safira",
		CheckIn:  day(t, "2026-07-10"),
		CheckOut: day(t, "2026-07-14"),
		Discount: decimal.NewFromInt(120),
	})
	assert.Error(t, err)
}
