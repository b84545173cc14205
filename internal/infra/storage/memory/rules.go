package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"villaledger/internal/domain/pricing"
)

// RuleRepository keeps the price list in process memory.
type RuleRepository struct {
	mu    sync.RWMutex
	rules pricing.RuleSet
	now   func() time.Time
}

func NewRuleRepository(initial pricing.RuleSet) *RuleRepository {
	return &RuleRepository{rules: initial.Clone(), now: time.Now}
}

// Snapshot hands out a copy; later writes never reach it.
func (r *RuleRepository) Snapshot(ctx context.Context) (pricing.RuleSet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rules.Clone(), nil
}

func (r *RuleRepository) Add(ctx context.Context, rule pricing.PriceRule) (pricing.PriceRule, error) {
	if err := rule.Validate(); err != nil {
		return pricing.PriceRule{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rule.ID = pricing.NextRuleID(r.rules.MaxID(), r.now())
	r.rules = append(r.rules, rule)
	return rule, nil
}

func (r *RuleRepository) Delete(ctx context.Context, id pricing.RuleID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, rule := range r.rules {
		if rule.ID == id {
			r.rules = append(r.rules[:i:i], r.rules[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %d", pricing.ErrRuleNotFound, id)
}

func (r *RuleRepository) ReplaceAll(ctx context.Context, rules pricing.RuleSet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = rules.Clone()
	return nil
}

var _ pricing.RuleRepository = (*RuleRepository)(nil)
