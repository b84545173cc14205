package redis

import (
	"context"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"villaledger/internal/domain/pricing"
	"villaledger/internal/domain/units"
)

type stubGetter struct {
	value string
	err   error
}

func (s stubGetter) Get(context.Context, string) *goredis.StringCmd {
	return goredis.NewStringResult(s.value, s.err)
}

func TestReadMissingKeyIsEmpty(t *testing.T) {
	repo := &RuleRepository{key: DefaultRulesKey}
	rules, err := repo.read(context.Background(), stubGetter{err: goredis.Nil})
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestEncodeThenRead(t *testing.T) {
	raw, err := encodeRules(pricing.DefaultRules())
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"apart":"Safira"`)
	assert.Contains(t, string(raw), `"price":"4500"`)

	repo := &RuleRepository{key: DefaultRulesKey}
	rules, err := repo.read(context.Background(), stubGetter{value: string(raw)})
	require.NoError(t, err)
	require.Len(t, rules, len(pricing.DefaultRules()))

	july, ok := rules.Rule(units.Safira, pricing.DefaultRules()[3].Start)
	require.True(t, ok)
	assert.True(t, july.NightlyPrice.Equal(pricing.DefaultRules()[3].NightlyPrice))
}

func TestReadRejectsCorruptValue(t *testing.T) {
	repo := &RuleRepository{key: DefaultRulesKey}
	_, err := repo.read(context.Background(), stubGetter{value: "{"})
	assert.Error(t, err)

	_, err = repo.read(context.Background(), stubGetter{value: `[{"id":1,"apart":"Safira","start":"bad","end":"2026-01-01","price":"1"}]`})
	assert.Error(t, err)
}
