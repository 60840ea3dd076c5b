package repository

import (
	"context"
	"errors"
	"fmt"
	inventoryerrors "shelfkeeper/internal/inventory/errors"
	"shelfkeeper/pkg/config"
	mongodb "shelfkeeper/pkg/db/mongo"
	"shelfkeeper/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Books"
)

// InventoryRepository owns the copy counters of a book. No other code path
// writes copies_available or copies_provisioned.
type InventoryRepository interface {
	// Adjust adds delta to copies_available and returns the new value. It
	// fails with ErrInsufficient, leaving the counter unchanged, when the
	// result would be negative.
	Adjust(ctx context.Context, bookID int64, delta int) (int, error)
	// Provision adds delta to both counters under the same floor.
	Provision(ctx context.Context, bookID int64, delta int) (*model.Book, error)
	Get(ctx context.Context, bookID int64) (*model.Book, error)
}

type mongoInventoryRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoInventoryRepository(cfg *config.Config) InventoryRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoInventoryRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoInventoryRepository) Adjust(ctx context.Context, bookID int64, delta int) (int, error) {
	book, err := r.conditionalInc(ctx, bookID, delta, bson.M{"copies_available": delta})
	if err != nil {
		return 0, err
	}
	return book.CopiesAvailable, nil
}

func (r *mongoInventoryRepository) Provision(ctx context.Context, bookID int64, delta int) (*model.Book, error) {
	return r.conditionalInc(ctx, bookID, delta, bson.M{
		"copies_available":   delta,
		"copies_provisioned": delta,
	})
}

// conditionalInc applies inc only when copies_available stays >= 0. The
// filter and the update are one document operation, so concurrent callers
// on the same book serialize in the storage engine.
func (r *mongoInventoryRepository) conditionalInc(ctx context.Context, bookID int64, delta int, inc bson.M) (*model.Book, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"_id":              bookID,
		"copies_available": bson.M{"$gte": -delta},
	}
	update := bson.M{
		"$inc": inc,
		"$set": bson.M{"updated_at": time.Now().UTC().Truncate(time.Millisecond)},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var book model.Book
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&book)
	if err == nil {
		return &book, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to adjust copies of book %d: %w", bookID, err)
	}

	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": bookID})
	if err != nil {
		return nil, fmt.Errorf("failed to check book %d: %w", bookID, err)
	}
	if n == 0 {
		return nil, inventoryerrors.ErrNotFound
	}
	return nil, inventoryerrors.ErrInsufficient
}

func (r *mongoInventoryRepository) Get(ctx context.Context, bookID int64) (*model.Book, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var book model.Book
	err := r.collection.FindOne(ctx, bson.M{"_id": bookID}).Decode(&book)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, inventoryerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find book %d: %w", bookID, err)
	}
	return &book, nil
}
