package mongo

import (
	"context"
	"fmt"
	"shelfkeeper/pkg/db"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CountersCollection = "Counters"

type counter struct {
	Name  string `bson:"_id"`
	Value int64  `bson:"value"`
}

type mongoSequencer struct {
	collection *mongo.Collection
}

func NewSequencer(database *mongo.Database) db.Sequencer {
	return &mongoSequencer{collection: database.Collection(CountersCollection)}
}

// Next increments the named counter. Callers allocate ids before opening a
// transaction so that concurrent units never conflict on the counter document.
func (s *mongoSequencer) Next(ctx context.Context, name string) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var c counter
	err := s.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"value": int64(1)}},
		opts,
	).Decode(&c)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate %s id: %w", name, err)
	}
	return c.Value, nil
}
