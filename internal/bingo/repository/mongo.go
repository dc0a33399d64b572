package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prospectbingo/bingo/backend/go-services/internal/bingo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// maxUpdateAttempts bounds the optimistic retry loop in Update.
const maxUpdateAttempts = 3

// record is the stored document shape. rev is bumped on every write and is
// never exposed on the wire.
type record[P bingo.Payload] struct {
	ID       primitive.ObjectID `bson:"_id"`
	Metadata bingo.MetaData     `bson:"metadata"`
	Data     P                  `bson:"data"`
	Rev      int64              `bson:"rev"`
}

func (r record[P]) saved() bingo.Saved[P] {
	return bingo.Saved[P]{ID: bingo.ObjectID(r.ID), Metadata: r.Metadata, Data: r.Data}
}

// MongoRepo stores one resource kind in a MongoDB collection.
type MongoRepo[P bingo.Payload] struct {
	col *mongo.Collection
	now func() time.Time
}

func NewMongoRepo[P bingo.Payload](col *mongo.Collection) *MongoRepo[P] {
	return &MongoRepo[P]{col: col, now: time.Now}
}

// EnsureIndexes creates the listing index on metadata.createdAt.
func (m *MongoRepo[P]) EnsureIndexes(ctx context.Context) error {
	idx := mongo.IndexModel{Keys: bson.D{{Key: "metadata.createdAt", Value: 1}}}
	if _, err := m.col.Indexes().CreateOne(ctx, idx); err != nil {
		return fmt.Errorf("create index on %s: %w", m.col.Name(), err)
	}
	return nil
}

func (m *MongoRepo[P]) Create(ctx context.Context, data P) (bingo.Saved[P], error) {
	rec := record[P]{
		ID:       primitive.NewObjectID(),
		Metadata: bingo.NewMetaData(m.now()),
		Data:     data,
		Rev:      1,
	}
	if _, err := m.col.InsertOne(ctx, rec); err != nil {
		return bingo.Saved[P]{}, fmt.Errorf("insert %s: %w", bingo.KindOf[P](), err)
	}
	return rec.saved(), nil
}

func (m *MongoRepo[P]) find(ctx context.Context, id bingo.ObjectID) (record[P], error) {
	var rec record[P]
	err := m.col.FindOne(ctx, bson.M{"_id": id.Primitive()}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return rec, ErrNotFound
		}
		return rec, err
	}
	return rec, nil
}

func (m *MongoRepo[P]) Get(ctx context.Context, id bingo.ObjectID) (bingo.Saved[P], error) {
	rec, err := m.find(ctx, id)
	if err != nil {
		return bingo.Saved[P]{}, err
	}
	return rec.saved(), nil
}

func (m *MongoRepo[P]) List(ctx context.Context) ([]bingo.Saved[P], error) {
	opts := options.Find().SetSort(bson.D{{Key: "metadata.createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := m.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []bingo.Saved[P]{}
	for cur.Next(ctx) {
		var rec record[P]
		if err := cur.Decode(&rec); err != nil {
			return nil, err
		}
		out = append(out, rec.saved())
	}
	return out, cur.Err()
}

func (m *MongoRepo[P]) Replace(ctx context.Context, id bingo.ObjectID, data P) (bingo.Saved[P], error) {
	now := m.now().UTC().Truncate(time.Millisecond)
	set := bson.M{"data": data, "metadata.updatedAt": now}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var rec record[P]
	err := m.col.FindOneAndUpdate(ctx, bson.M{"_id": id.Primitive()}, bson.M{"$set": set, "$inc": bson.M{"rev": 1}}, opts).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return bingo.Saved[P]{}, ErrNotFound
		}
		return bingo.Saved[P]{}, err
	}
	return rec.saved(), nil
}

// Update reads, mutates and writes back guarded by the stored revision.
// A lost race is retried; ErrConflict is returned once the attempts run out.
func (m *MongoRepo[P]) Update(ctx context.Context, id bingo.ObjectID, mutate MutateFunc[P]) (bingo.Saved[P], error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		rec, err := m.find(ctx, id)
		if err != nil {
			return bingo.Saved[P]{}, err
		}
		next, err := mutate(rec.Data)
		if err != nil {
			return bingo.Saved[P]{}, err
		}
		now := m.now().UTC().Truncate(time.Millisecond)
		filter := bson.M{"_id": rec.ID, "rev": rec.Rev}
		update := bson.M{"$set": bson.M{"data": next, "metadata.updatedAt": now}, "$inc": bson.M{"rev": 1}}
		res, err := m.col.UpdateOne(ctx, filter, update)
		if err != nil {
			return bingo.Saved[P]{}, err
		}
		if res.MatchedCount == 1 {
			rec.Data = next
			rec.Metadata = rec.Metadata.Touch(now)
			return rec.saved(), nil
		}
	}
	return bingo.Saved[P]{}, ErrConflict
}

func (m *MongoRepo[P]) Delete(ctx context.Context, id bingo.ObjectID) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"_id": id.Primitive()})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
