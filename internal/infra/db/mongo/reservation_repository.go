package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"villaledger/internal/domain/reservations"
	"villaledger/internal/domain/stay"
	"villaledger/internal/domain/units"
)

const reservationCounterID = "reservations"

type ReservationRepository struct {
	col      *mongo.Collection
	counters *mongo.Collection
}

func NewReservationRepository(db *mongo.Database) *ReservationRepository {
	col := db.Collection("reservations")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "unit", Value: 1}, {Key: "check_in", Value: -1}}}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &ReservationRepository{col: col, counters: db.Collection("counters")}
}

// NextID bumps a counter document with a single pipeline update, so
// concurrent creates never see the same id. The stored maximum is folded in
// because a sync may have loaded ids the counter never issued.
func (r *ReservationRepository) NextID(ctx context.Context, now time.Time) (reservations.ID, error) {
	var last struct {
		ID int64 `bson:"_id"`
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: -1}}).SetProjection(bson.M{"_id": 1})
	if err := r.col.FindOne(ctx, bson.M{}, opts).Decode(&last); err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return 0, err
	}
	floor := int64(reservations.NextID(reservations.ID(last.ID), now))
	update := mongo.Pipeline{{{Key: "$set", Value: bson.M{
		"last": bson.M{"$max": bson.A{
			floor,
			bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$last", int64(0)}}, int64(1)}},
		}},
	}}}}
	upsert := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var counter struct {
		Last int64 `bson:"last"`
	}
	var err error
	// Two first-time upserts can race on _id; the loser retries against the
	// document the winner created.
	for attempt := 0; attempt < 2; attempt++ {
		err = r.counters.FindOneAndUpdate(ctx, bson.M{"_id": reservationCounterID}, update, upsert).Decode(&counter)
		if !mongo.IsDuplicateKeyError(err) {
			break
		}
	}
	if err != nil {
		return 0, err
	}
	return reservations.ID(counter.Last), nil
}

func (r *ReservationRepository) List(ctx context.Context) ([]*reservations.Reservation, error) {
	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*reservations.Reservation
	for cur.Next(ctx) {
		var doc reservationDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cur.Err()
}

func (r *ReservationRepository) ByID(ctx context.Context, id reservations.ID) (*reservations.Reservation, error) {
	var doc reservationDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": int64(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, reservations.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ReservationRepository) Save(ctx context.Context, res *reservations.Reservation) error {
	doc := newReservationDocument(res)
	_, err := r.col.UpdateByID(ctx, doc.ID, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	return err
}

func (r *ReservationRepository) Delete(ctx context.Context, id reservations.ID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": int64(id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return reservations.ErrNotFound
	}
	return nil
}

// ReplaceAll is not atomic: a crash between the delete and the insert leaves
// the collection empty until the next sync.
func (r *ReservationRepository) ReplaceAll(ctx context.Context, list []*reservations.Reservation) error {
	if _, err := r.col.DeleteMany(ctx, bson.M{}); err != nil {
		return err
	}
	if len(list) == 0 {
		return nil
	}
	docs := make([]any, 0, len(list))
	for _, res := range list {
		if res != nil {
			docs = append(docs, newReservationDocument(res))
		}
	}
	_, err := r.col.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	return err
}

type reservationDocument struct {
	ID             int64                `bson:"_id"`
	Type           string               `bson:"type"`
	Unit           string               `bson:"unit"`
	GuestName      string               `bson:"guest_name"`
	CheckIn        time.Time            `bson:"check_in"`
	CheckOut       time.Time            `bson:"check_out"`
	Nights         int                  `bson:"nights"`
	NightlyPrice   primitive.Decimal128 `bson:"nightly_price"`
	PriceSource    string               `bson:"price_source"`
	CommissionRate primitive.Decimal128 `bson:"commission_rate"`
	Gross          primitive.Decimal128 `bson:"gross"`
	Commission     primitive.Decimal128 `bson:"commission"`
	Net            primitive.Decimal128 `bson:"net"`
	PaidAmount     primitive.Decimal128 `bson:"paid_amount"`
	Remaining      primitive.Decimal128 `bson:"remaining"`
	CreatedAt      time.Time            `bson:"created_at"`
	UpdatedAt      time.Time            `bson:"updated_at"`
}

func newReservationDocument(r *reservations.Reservation) reservationDocument {
	return reservationDocument{
		ID:             int64(r.ID),
		Type:           r.Type,
		Unit:           r.Unit.String(),
		GuestName:      r.GuestName,
		CheckIn:        r.CheckIn,
		CheckOut:       r.CheckOut,
		Nights:         r.Nights,
		NightlyPrice:   toDecimal128(r.NightlyPrice),
		PriceSource:    string(r.PriceSource),
		CommissionRate: toDecimal128(r.CommissionRate),
		Gross:          toDecimal128(r.Gross),
		Commission:     toDecimal128(r.Commission),
		Net:            toDecimal128(r.Net),
		PaidAmount:     toDecimal128(r.PaidAmount),
		Remaining:      toDecimal128(r.Remaining),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func (d reservationDocument) toAggregate() *reservations.Reservation {
	return &reservations.Reservation{
		ID:             reservations.ID(d.ID),
		Type:           d.Type,
		Unit:           units.Unit(d.Unit),
		GuestName:      d.GuestName,
		CheckIn:        d.CheckIn.UTC(),
		CheckOut:       d.CheckOut.UTC(),
		Nights:         d.Nights,
		NightlyPrice:   fromDecimal128(d.NightlyPrice),
		PriceSource:    stay.PriceSource(d.PriceSource),
		CommissionRate: fromDecimal128(d.CommissionRate),
		Gross:          fromDecimal128(d.Gross),
		Commission:     fromDecimal128(d.Commission),
		Net:            fromDecimal128(d.Net),
		PaidAmount:     fromDecimal128(d.PaidAmount),
		Remaining:      fromDecimal128(d.Remaining),
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}
}

var _ reservations.Repository = (*ReservationRepository)(nil)
