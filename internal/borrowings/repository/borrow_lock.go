package repository

import (
	"context"
	"fmt"
	borrowingserrors "shelfkeeper/internal/borrowings/errors"
	"shelfkeeper/pkg/config"
	"shelfkeeper/pkg/db/memory"
	"shelfkeeper/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const LocksCollectionName = "Borrow_locks"

// BorrowLockRepository provides advisory locks on (member, book) pairs.
type BorrowLockRepository interface {
	// Create fails with ErrLockHeld while an unexpired lock with the same id exists.
	Create(ctx context.Context, lock *model.BorrowLock) error
	Delete(ctx context.Context, lockID string) error
}

type mongoBorrowLockRepository struct {
	collection *mongo.Collection
}

func NewMongoBorrowLockRepository(cfg *config.Config) BorrowLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBorrowLockRepository{
		collection: db.Collection(LocksCollectionName),
	}
}

// Create takes the lock, replacing one whose expires_at has passed. An
// unexpired lock does not match the filter, so the upsert collides with it on
// _id. The TTL index still removes locks nobody asks for again.
func (r *mongoBorrowLockRepository) Create(ctx context.Context, lock *model.BorrowLock) error {
	now := time.Now().UTC()
	lock.CreatedAt = now

	filter := bson.M{
		"_id":        lock.ID,
		"expires_at": bson.M{"$lte": now},
	}
	_, err := r.collection.ReplaceOne(ctx, filter, lock, options.Replace().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return borrowingserrors.ErrLockHeld
		}
		return fmt.Errorf("failed to create borrow lock: %w", err)
	}
	return nil
}

func (r *mongoBorrowLockRepository) Delete(ctx context.Context, lockID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID})
	return err
}

type memoryBorrowLockRepository struct {
	db    *memory.DB
	locks *memory.Table[string, model.BorrowLock]
}

func NewMemoryBorrowLockRepository(db *memory.DB) BorrowLockRepository {
	return &memoryBorrowLockRepository{
		db:    db,
		locks: memory.Register[string, model.BorrowLock](db, "borrow_locks"),
	}
}

func (r *memoryBorrowLockRepository) Create(ctx context.Context, lock *model.BorrowLock) error {
	return r.db.Run(ctx, func() error {
		now := time.Now().UTC()
		if held, ok := r.locks.Get(lock.ID); ok && held.ExpiresAt.After(now) {
			return borrowingserrors.ErrLockHeld
		}
		lock.CreatedAt = now
		r.locks.Put(lock.ID, *lock)
		return nil
	})
}

func (r *memoryBorrowLockRepository) Delete(ctx context.Context, lockID string) error {
	return r.db.Run(ctx, func() error {
		r.locks.Delete(lockID)
		return nil
	})
}
