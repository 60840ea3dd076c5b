package repository

import (
	"context"
	"errors"
	"fmt"
	catalogerrors "shelfkeeper/internal/catalog/errors"
	"shelfkeeper/pkg/config"
	mongodb "shelfkeeper/pkg/db/mongo"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	errAuthorNotFound    = catalogerrors.ErrAuthorNotFound
	errCategoryNotFound  = catalogerrors.ErrCategoryNotFound
	errMemberNotFound    = catalogerrors.ErrMemberNotFound
	errLibrarianNotFound = catalogerrors.ErrLibrarianNotFound
)

// RecordRepository stores one kind of int64-keyed catalog record. Callers
// assign ids before Create.
type RecordRepository[T any] interface {
	Create(ctx context.Context, record *T) error
	FindByID(ctx context.Context, id int64) (*T, error)
	// Touch stamps touched_at on every listed record and returns the ids, in
	// input order, that name no record. Inside a unit of work the write makes
	// a concurrent delete of a touched record conflict with the caller.
	Touch(ctx context.Context, ids []int64) ([]int64, error)
	Delete(ctx context.Context, id int64) error
}

type mongoRecordRepository[T any] struct {
	cfg        *config.Config
	collection *mongo.Collection
	notFound   error
}

func NewMongoRecordRepository[T any](cfg *config.Config, collection string, notFound error) RecordRepository[T] {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoRecordRepository[T]{
		cfg:        cfg,
		collection: db.Collection(collection),
		notFound:   notFound,
	}
}

func (r *mongoRecordRepository[T]) Create(ctx context.Context, record *T) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", r.collection.Name(), err)
	}
	return nil
}

func (r *mongoRecordRepository[T]) FindByID(ctx context.Context, id int64) (*T, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var record T
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, r.notFound
		}
		return nil, fmt.Errorf("failed to find %d in %s: %w", id, r.collection.Name(), err)
	}
	return &record, nil
}

func (r *mongoRecordRepository[T]) Touch(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"_id": bson.M{"$in": ids}}
	result, err := r.collection.UpdateMany(ctx, filter, bson.M{
		"$set": bson.M{"touched_at": time.Now().UTC().Truncate(time.Millisecond)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to touch ids in %s: %w", r.collection.Name(), err)
	}
	if result.MatchedCount == int64(len(ids)) {
		return nil, nil
	}

	found, err := r.collection.Distinct(ctx, "_id", filter)
	if err != nil {
		return nil, fmt.Errorf("failed to look up ids in %s: %w", r.collection.Name(), err)
	}

	existing := make(map[int64]bool, len(found))
	for _, v := range found {
		if id, ok := asInt64(v); ok {
			existing[id] = true
		}
	}

	var missing []int64
	for _, id := range ids {
		if !existing[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (r *mongoRecordRepository[T]) Delete(ctx context.Context, id int64) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete %d from %s: %w", id, r.collection.Name(), err)
	}
	if result.DeletedCount == 0 {
		return r.notFound
	}
	return nil
}

// asInt64 normalizes the numeric types the driver decodes distinct values to.
func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case float64:
		return int64(n), true
	}
	return 0, false
}
