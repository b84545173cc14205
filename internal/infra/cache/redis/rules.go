package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"villaledger/internal/domain/pricing"
	"villaledger/internal/domain/shared/daterange"
	"villaledger/internal/domain/units"
)

const DefaultRulesKey = "villaledger:price_rules"

// maxTxRetries bounds optimistic-lock retries on the rules key.
const maxTxRetries = 5

var errTxConflict = errors.New("redis: price rules changed concurrently")

// RuleRepository keeps the whole price list as one JSON document so that every
// snapshot is read atomically.
type RuleRepository struct {
	client *goredis.Client
	key    string
	now    func() time.Time
}

func NewRuleRepository(client *goredis.Client, key string) *RuleRepository {
	if key == "" {
		key = DefaultRulesKey
	}
	return &RuleRepository{client: client, key: key, now: time.Now}
}

func (r *RuleRepository) Snapshot(ctx context.Context) (pricing.RuleSet, error) {
	return r.read(ctx, r.client)
}

func (r *RuleRepository) Add(ctx context.Context, rule pricing.PriceRule) (pricing.PriceRule, error) {
	if err := rule.Validate(); err != nil {
		return pricing.PriceRule{}, err
	}
	var added pricing.PriceRule
	err := r.update(ctx, func(set pricing.RuleSet) (pricing.RuleSet, error) {
		added = rule
		added.ID = pricing.NextRuleID(set.MaxID(), r.now())
		return append(set, added), nil
	})
	if err != nil {
		return pricing.PriceRule{}, err
	}
	return added, nil
}

func (r *RuleRepository) Delete(ctx context.Context, id pricing.RuleID) error {
	return r.update(ctx, func(set pricing.RuleSet) (pricing.RuleSet, error) {
		out := make(pricing.RuleSet, 0, len(set))
		for _, rule := range set {
			if rule.ID != id {
				out = append(out, rule)
			}
		}
		if len(out) == len(set) {
			return nil, fmt.Errorf("%w: %d", pricing.ErrRuleNotFound, id)
		}
		return out, nil
	})
}

func (r *RuleRepository) ReplaceAll(ctx context.Context, rules pricing.RuleSet) error {
	payload, err := encodeRules(rules)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key, payload, 0).Err()
}

func (r *RuleRepository) update(ctx context.Context, fn func(pricing.RuleSet) (pricing.RuleSet, error)) error {
	txf := func(tx *goredis.Tx) error {
		set, err := r.read(ctx, tx)
		if err != nil {
			return err
		}
		next, err := fn(set)
		if err != nil {
			return err
		}
		payload, err := encodeRules(next)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, r.key, payload, 0)
			return nil
		})
		return err
	}
	for i := 0; i < maxTxRetries; i++ {
		err := r.client.Watch(ctx, txf, r.key)
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		return err
	}
	return errTxConflict
}

func (r *RuleRepository) read(ctx context.Context, cmd getter) (pricing.RuleSet, error) {
	raw, err := cmd.Get(ctx, r.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return pricing.RuleSet{}, nil
	}
	if err != nil {
		return nil, err
	}
	var docs []ruleDocument
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("redis: decode price rules: %w", err)
	}
	out := make(pricing.RuleSet, 0, len(docs))
	for _, doc := range docs {
		rule, err := doc.toRule()
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, nil
}

type getter interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
}

type ruleDocument struct {
	ID    int64           `json:"id"`
	Unit  string          `json:"apart"`
	Start string          `json:"start"`
	End   string          `json:"end"`
	Price decimal.Decimal `json:"price"`
}

func encodeRules(rules pricing.RuleSet) ([]byte, error) {
	docs := make([]ruleDocument, 0, len(rules))
	for _, rule := range rules {
		docs = append(docs, ruleDocument{
			ID:    int64(rule.ID),
			Unit:  rule.Unit.String(),
			Start: daterange.FormatDay(rule.Start),
			End:   daterange.FormatDay(rule.End),
			Price: rule.NightlyPrice,
		})
	}
	return json.Marshal(docs)
}

func (d ruleDocument) toRule() (pricing.PriceRule, error) {
	start, err := daterange.ParseDay(d.Start)
	if err != nil {
		return pricing.PriceRule{}, err
	}
	end, err := daterange.ParseDay(d.End)
	if err != nil {
		return pricing.PriceRule{}, err
	}
	return pricing.PriceRule{
		ID:           pricing.RuleID(d.ID),
		Unit:         units.Unit(d.Unit),
		Start:        start,
		End:          end,
		NightlyPrice: d.Price,
	}, nil
}

var _ pricing.RuleRepository = (*RuleRepository)(nil)
