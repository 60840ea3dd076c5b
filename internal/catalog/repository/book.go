package repository

import (
	"context"
	"errors"
	"fmt"
	catalogerrors "shelfkeeper/internal/catalog/errors"
	"shelfkeeper/pkg/config"
	mongodb "shelfkeeper/pkg/db/mongo"
	"shelfkeeper/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BookRepository stores book metadata. Copy counters are written only by
// the inventory repository; UpdateFields never touches them.
type BookRepository interface {
	Create(ctx context.Context, book *model.Book) error
	FindByID(ctx context.Context, id int64) (*model.Book, error)
	UpdateFields(ctx context.Context, id int64, fields *model.BookFields) (*model.Book, error)
	Delete(ctx context.Context, id int64) error
}

type mongoBookRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoBookRepository(cfg *config.Config) BookRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookRepository{
		cfg:        cfg,
		collection: db.Collection(BooksCollection),
	}
}

func (r *mongoBookRepository) Create(ctx context.Context, book *model.Book) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	book.CreatedAt = now
	book.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, book); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return catalogerrors.ErrDuplicateISBN
		}
		return fmt.Errorf("failed to create book: %w", err)
	}
	return nil
}

func (r *mongoBookRepository) FindByID(ctx context.Context, id int64) (*model.Book, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var book model.Book
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&book)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, catalogerrors.ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to find book: %w", err)
	}
	return &book, nil
}

func (r *mongoBookRepository) UpdateFields(ctx context.Context, id int64, fields *model.BookFields) (*model.Book, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	set := bson.M{
		"title":            fields.Title,
		"publication_year": fields.PublicationYear,
		"updated_at":       time.Now().UTC().Truncate(time.Millisecond),
	}
	update := bson.M{"$set": set}
	// an absent isbn keeps the book out of the unique isbn index
	if fields.ISBN == "" {
		update["$unset"] = bson.M{"isbn": ""}
	} else {
		set["isbn"] = fields.ISBN
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var book model.Book
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&book)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, catalogerrors.ErrBookNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, catalogerrors.ErrDuplicateISBN
		}
		return nil, fmt.Errorf("failed to update book: %w", err)
	}
	return &book, nil
}

func (r *mongoBookRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	if result.DeletedCount == 0 {
		return catalogerrors.ErrBookNotFound
	}
	return nil
}
