package repository

import (
	"context"
	"errors"
	"fmt"
	borrowingserrors "shelfkeeper/internal/borrowings/errors"
	"shelfkeeper/pkg/config"
	mongodb "shelfkeeper/pkg/db/mongo"
	"shelfkeeper/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Borrowings"
)

type BorrowingRepository interface {
	// Create inserts an active borrowing. A second active borrowing of the
	// same (member, book) pair fails with ErrDuplicateActive.
	Create(ctx context.Context, borrowing *model.Borrowing) error
	FindByID(ctx context.Context, id int64) (*model.Borrowing, error)
	FindActive(ctx context.Context, memberID, bookID int64) (*model.Borrowing, error)
	// MarkReturned closes an active borrowing. It fails with ErrNotFound or
	// ErrAlreadyReturned and never rewrites a returned borrowing.
	MarkReturned(ctx context.Context, id int64, returnedAt time.Time, librarianID *int64) (*model.Borrowing, error)
	ListByMember(ctx context.Context, memberID int64, activeOnly bool) ([]*model.Borrowing, error)
	CountActiveByBook(ctx context.Context, bookID int64) (int64, error)
	DeleteByBook(ctx context.Context, bookID int64) (int64, error)
	DeleteByMember(ctx context.Context, memberID int64) (int64, error)
}

type mongoBorrowingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoBorrowingRepository(cfg *config.Config) BorrowingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBorrowingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoBorrowingRepository) Create(ctx context.Context, borrowing *model.Borrowing) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.InsertOne(ctx, borrowing); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return borrowingserrors.ErrDuplicateActive
		}
		return fmt.Errorf("failed to create borrowing: %w", err)
	}
	return nil
}

func (r *mongoBorrowingRepository) FindByID(ctx context.Context, id int64) (*model.Borrowing, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoBorrowingRepository) FindActive(ctx context.Context, memberID, bookID int64) (*model.Borrowing, error) {
	return r.findOne(ctx, bson.M{"member_id": memberID, "book_id": bookID, "active": true})
}

func (r *mongoBorrowingRepository) findOne(ctx context.Context, filter bson.M) (*model.Borrowing, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var borrowing model.Borrowing
	err := r.collection.FindOne(ctx, filter).Decode(&borrowing)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, borrowingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find borrowing: %w", err)
	}
	return &borrowing, nil
}

func (r *mongoBorrowingRepository) MarkReturned(ctx context.Context, id int64, returnedAt time.Time, librarianID *int64) (*model.Borrowing, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	set := bson.M{
		"returned_at": returnedAt,
		"status":      model.BorrowingStatusReturned,
		"active":      false,
	}
	if librarianID != nil {
		set["librarian_id"] = *librarianID
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var borrowing model.Borrowing
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id, "active": true}, bson.M{"$set": set}, opts).Decode(&borrowing)
	if err == nil {
		return &borrowing, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to return borrowing %d: %w", id, err)
	}

	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to check borrowing %d: %w", id, err)
	}
	if n == 0 {
		return nil, borrowingserrors.ErrNotFound
	}
	return nil, borrowingserrors.ErrAlreadyReturned
}

func (r *mongoBorrowingRepository) ListByMember(ctx context.Context, memberID int64, activeOnly bool) ([]*model.Borrowing, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"member_id": memberID}
	if activeOnly {
		filter["active"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list borrowings: %w", err)
	}
	defer cursor.Close(ctx)

	borrowings := []*model.Borrowing{}
	if err := cursor.All(ctx, &borrowings); err != nil {
		return nil, fmt.Errorf("failed to decode borrowings: %w", err)
	}
	return borrowings, nil
}

func (r *mongoBorrowingRepository) CountActiveByBook(ctx context.Context, bookID int64) (int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	n, err := r.collection.CountDocuments(ctx, bson.M{"book_id": bookID, "active": true})
	if err != nil {
		return 0, fmt.Errorf("failed to count active borrowings: %w", err)
	}
	return n, nil
}

func (r *mongoBorrowingRepository) DeleteByBook(ctx context.Context, bookID int64) (int64, error) {
	return r.deleteMany(ctx, bson.M{"book_id": bookID})
}

func (r *mongoBorrowingRepository) DeleteByMember(ctx context.Context, memberID int64) (int64, error) {
	return r.deleteMany(ctx, bson.M{"member_id": memberID})
}

func (r *mongoBorrowingRepository) deleteMany(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to delete borrowings: %w", err)
	}
	return result.DeletedCount, nil
}
