package repository

import (
	"context"
	"fmt"
	cartserrors "shelfkeeper/internal/carts/errors"
	"shelfkeeper/pkg/config"
	mongodb "shelfkeeper/pkg/db/mongo"
	"shelfkeeper/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Carts"
)

type CartRepository interface {
	// Add stores the entry. Adding a book already in the cart keeps the
	// original entry.
	Add(ctx context.Context, entry *model.CartEntry) (*model.CartEntry, error)
	Remove(ctx context.Context, memberID, bookID int64) error
	ListByMember(ctx context.Context, memberID int64) ([]*model.CartEntry, error)
	DeleteByBook(ctx context.Context, bookID int64) (int64, error)
	DeleteByMember(ctx context.Context, memberID int64) (int64, error)
}

type mongoCartRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoCartRepository(cfg *config.Config) CartRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoCartRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoCartRepository) Add(ctx context.Context, entry *model.CartEntry) (*model.CartEntry, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	entry.ID = model.CartEntryID(entry.MemberID, entry.BookID)
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var stored model.CartEntry
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": entry.ID},
		bson.M{"$setOnInsert": bson.M{
			"member_id": entry.MemberID,
			"book_id":   entry.BookID,
			"added_at":  entry.AddedAt,
		}},
		opts,
	).Decode(&stored)
	if err != nil {
		return nil, fmt.Errorf("failed to add cart entry: %w", err)
	}
	return &stored, nil
}

func (r *mongoCartRepository) Remove(ctx context.Context, memberID, bookID int64) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": model.CartEntryID(memberID, bookID)})
	if err != nil {
		return fmt.Errorf("failed to remove cart entry: %w", err)
	}
	if result.DeletedCount == 0 {
		return cartserrors.ErrNotFound
	}
	return nil
}

func (r *mongoCartRepository) ListByMember(ctx context.Context, memberID int64) ([]*model.CartEntry, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "added_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"member_id": memberID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart: %w", err)
	}
	defer cursor.Close(ctx)

	entries := []*model.CartEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	return entries, nil
}

func (r *mongoCartRepository) DeleteByBook(ctx context.Context, bookID int64) (int64, error) {
	return r.deleteMany(ctx, bson.M{"book_id": bookID})
}

func (r *mongoCartRepository) DeleteByMember(ctx context.Context, memberID int64) (int64, error) {
	return r.deleteMany(ctx, bson.M{"member_id": memberID})
}

func (r *mongoCartRepository) deleteMany(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to delete cart entries: %w", err)
	}
	return result.DeletedCount, nil
}
