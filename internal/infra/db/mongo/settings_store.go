package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"villaledger/internal/app/policies"
)

const commissionSettingID = "commission"

// SettingsStore persists the commission rate; Default applies until one is saved.
type SettingsStore struct {
	col     *mongo.Collection
	Default decimal.Decimal
}

func NewSettingsStore(db *mongo.Database, def decimal.Decimal) *SettingsStore {
	return &SettingsStore{col: db.Collection("settings"), Default: def}
}

func (s *SettingsStore) CommissionRate(ctx context.Context) (decimal.Decimal, error) {
	var doc settingDocument
	if err := s.col.FindOne(ctx, bson.M{"_id": commissionSettingID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return s.Default, nil
		}
		return decimal.Zero, err
	}
	return fromDecimal128(doc.Value), nil
}

func (s *SettingsStore) SetCommissionRate(ctx context.Context, rate decimal.Decimal) error {
	doc := settingDocument{ID: commissionSettingID, Value: toDecimal128(rate), UpdatedAt: time.Now().UTC()}
	_, err := s.col.UpdateByID(ctx, doc.ID, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	return err
}

type settingDocument struct {
	ID        string               `bson:"_id"`
	Value     primitive.Decimal128 `bson:"value"`
	UpdatedAt time.Time            `bson:"updated_at"`
}

var _ policies.SettingsStore = (*SettingsStore)(nil)
