package repository

import (
	"context"
	"fmt"
	"shelfkeeper/pkg/config"
	mongodb "shelfkeeper/pkg/db/mongo"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// LinkRepository stores one of a book's link sets (authors or categories).
type LinkRepository interface {
	// Replace makes targetIDs the complete link set of the book.
	Replace(ctx context.Context, bookID int64, targetIDs []int64) error
	// ListByBook returns the linked ids in ascending order.
	ListByBook(ctx context.Context, bookID int64) ([]int64, error)
	DeleteByBook(ctx context.Context, bookID int64) (int64, error)
	DeleteByTarget(ctx context.Context, targetID int64) (int64, error)
}

type mongoLinkRepository struct {
	cfg         *config.Config
	collection  *mongo.Collection
	targetField string
}

func NewMongoLinkRepository(cfg *config.Config, collection, targetField string) LinkRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoLinkRepository{
		cfg:         cfg,
		collection:  db.Collection(collection),
		targetField: targetField,
	}
}

func (r *mongoLinkRepository) Replace(ctx context.Context, bookID int64, targetIDs []int64) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.DeleteMany(ctx, bson.M{"book_id": bookID}); err != nil {
		return fmt.Errorf("failed to clear %s of book %d: %w", r.collection.Name(), bookID, err)
	}
	if len(targetIDs) == 0 {
		return nil
	}

	docs := make([]any, 0, len(targetIDs))
	for _, id := range targetIDs {
		docs = append(docs, bson.M{"book_id": bookID, r.targetField: id})
	}
	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to write %s of book %d: %w", r.collection.Name(), bookID, err)
	}
	return nil
}

func (r *mongoLinkRepository) ListByBook(ctx context.Context, bookID int64) ([]int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetProjection(bson.M{"_id": 0, r.targetField: 1}).
		SetSort(bson.D{{Key: r.targetField, Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"book_id": bookID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s of book %d: %w", r.collection.Name(), bookID, err)
	}
	defer cursor.Close(ctx)

	ids := []int64{}
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode %s row: %w", r.collection.Name(), err)
		}
		if id, ok := asInt64(doc[r.targetField]); ok {
			ids = append(ids, id)
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return ids, nil
}

func (r *mongoLinkRepository) DeleteByBook(ctx context.Context, bookID int64) (int64, error) {
	return r.deleteMany(ctx, bson.M{"book_id": bookID})
}

func (r *mongoLinkRepository) DeleteByTarget(ctx context.Context, targetID int64) (int64, error) {
	return r.deleteMany(ctx, bson.M{r.targetField: targetID})
}

func (r *mongoLinkRepository) deleteMany(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to delete from %s: %w", r.collection.Name(), err)
	}
	return result.DeletedCount, nil
}
