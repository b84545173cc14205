package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"villaledger/internal/domain/pricing"
	"villaledger/internal/domain/units"
)

type RuleRepository struct {
	col *mongo.Collection
	now func() time.Time
}

func NewRuleRepository(db *mongo.Database) *RuleRepository {
	return &RuleRepository{col: db.Collection("price_rules"), now: time.Now}
}

func (r *RuleRepository) Snapshot(ctx context.Context) (pricing.RuleSet, error) {
	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out pricing.RuleSet
	for cur.Next(ctx) {
		var doc ruleDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toRule())
	}
	return out, cur.Err()
}

// Add derives the id from the current maximum. Two concurrent adds in the
// same millisecond collide on _id and the second one fails.
func (r *RuleRepository) Add(ctx context.Context, rule pricing.PriceRule) (pricing.PriceRule, error) {
	if err := rule.Validate(); err != nil {
		return pricing.PriceRule{}, err
	}
	var last ruleDocument
	err := r.col.FindOne(ctx, bson.M{}, options.FindOne().SetSort(bson.D{{Key: "_id", Value: -1}})).Decode(&last)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return pricing.PriceRule{}, err
	}
	rule.ID = pricing.NextRuleID(pricing.RuleID(last.ID), r.now())
	if _, err := r.col.InsertOne(ctx, newRuleDocument(rule)); err != nil {
		return pricing.PriceRule{}, err
	}
	return rule, nil
}

func (r *RuleRepository) Delete(ctx context.Context, id pricing.RuleID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": int64(id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: %d", pricing.ErrRuleNotFound, id)
	}
	return nil
}

func (r *RuleRepository) ReplaceAll(ctx context.Context, rules pricing.RuleSet) error {
	if _, err := r.col.DeleteMany(ctx, bson.M{}); err != nil {
		return err
	}
	if len(rules) == 0 {
		return nil
	}
	docs := make([]any, 0, len(rules))
	for _, rule := range rules {
		docs = append(docs, newRuleDocument(rule))
	}
	_, err := r.col.InsertMany(ctx, docs)
	return err
}

type ruleDocument struct {
	ID    int64                `bson:"_id"`
	Unit  string               `bson:"unit"`
	Start time.Time            `bson:"start"`
	End   time.Time            `bson:"end"`
	Price primitive.Decimal128 `bson:"price"`
}

func newRuleDocument(r pricing.PriceRule) ruleDocument {
	return ruleDocument{
		ID:    int64(r.ID),
		Unit:  r.Unit.String(),
		Start: r.Start,
		End:   r.End,
		Price: toDecimal128(r.NightlyPrice),
	}
}

func (d ruleDocument) toRule() pricing.PriceRule {
	return pricing.PriceRule{
		ID:           pricing.RuleID(d.ID),
		Unit:         units.Unit(d.Unit),
		Start:        d.Start.UTC(),
		End:          d.End.UTC(),
		NightlyPrice: fromDecimal128(d.Price),
	}
}

var _ pricing.RuleRepository = (*RuleRepository)(nil)
