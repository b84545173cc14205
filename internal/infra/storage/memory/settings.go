package memory

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"villaledger/internal/app/policies"
)

type SettingsStore struct {
	mu   sync.RWMutex
	rate decimal.Decimal
}

func NewSettingsStore(defaultRate decimal.Decimal) *SettingsStore {
	return &SettingsStore{rate: defaultRate}
}

func (s *SettingsStore) CommissionRate(ctx context.Context) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rate, nil
}

func (s *SettingsStore) SetCommissionRate(ctx context.Context, rate decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rate = rate
	return nil
}

var _ policies.SettingsStore = (*SettingsStore)(nil)
