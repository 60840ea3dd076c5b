package mongo

import (
	"context"
	"fmt"
	"shelfkeeper/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"shelfkeeper/internal/migrations/mongo/validators"
)

// Collection names mirror the repository packages.
const (
	Books          = "Books"
	Authors        = "Authors"
	Categories     = "Categories"
	Members        = "Members"
	Librarians     = "Librarians"
	BookAuthors    = "Book_authors"
	BookCategories = "Book_categories"
	Borrowings     = "Borrowings"
	BorrowLocks    = "Borrow_locks"
	Carts          = "Carts"
	AuditLog       = "Audit_log"
	Counters       = "Counters"
)

var (
	BooksIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "isbn", Value: 1}},
			Options: options.Index().
				SetName("uniq_isbn").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"isbn": bson.M{"$type": "string"}}),
		},
		{Keys: bson.D{{Key: "title", Value: 1}}},
	}

	BorrowingsIndexes = []mongo.IndexModel{
		{
			// at most one unreturned loan per (member, book)
			Keys: bson.D{{Key: "member_id", Value: 1}, {Key: "book_id", Value: 1}},
			Options: options.Index().
				SetName("uniq_active_loan").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"active": true}),
		},
		{Keys: bson.D{{Key: "book_id", Value: 1}, {Key: "active", Value: 1}}},
		{Keys: bson.D{{Key: "member_id", Value: 1}, {Key: "_id", Value: 1}}},
	}

	BorrowLocksIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("ttl_expires_at").SetExpireAfterSeconds(0),
		},
	}

	CartsIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "member_id", Value: 1}, {Key: "book_id", Value: 1}},
			Options: options.Index().SetName("uniq_cart_entry").SetUnique(true),
		},
		{Keys: bson.D{{Key: "book_id", Value: 1}}},
	}

	AuditLogIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "table", Value: 1}, {Key: "record_id", Value: 1}, {Key: "timestamp", Value: 1}}},
	}
)

// linkIndexes keeps each (book, target) pair unique and supports lookups from
// either side.
func linkIndexes(targetField string) []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "book_id", Value: 1}, {Key: targetField, Value: 1}},
			Options: options.Index().SetName("uniq_link").SetUnique(true),
		},
		{Keys: bson.D{{Key: targetField, Value: 1}}},
	}
}

type CollectionDefinition struct {
	Indexes   []mongo.IndexModel
	Validator bson.M
}

func Definitions() map[string]CollectionDefinition {
	return map[string]CollectionDefinition{
		Books:          {Indexes: BooksIndexes, Validator: validators.BookValidator},
		Authors:        {Validator: validators.AuthorValidator},
		Categories:     {Validator: validators.CategoryValidator},
		Members:        {Validator: validators.MemberValidator},
		Librarians:     {Validator: validators.LibrarianValidator},
		BookAuthors:    {Indexes: linkIndexes("author_id"), Validator: validators.LinkValidator("author_id")},
		BookCategories: {Indexes: linkIndexes("category_id"), Validator: validators.LinkValidator("category_id")},
		Borrowings:     {Indexes: BorrowingsIndexes, Validator: validators.BorrowingValidator},
		BorrowLocks:    {Indexes: BorrowLocksIndexes, Validator: validators.BorrowLockValidator},
		Carts:          {Indexes: CartsIndexes, Validator: validators.CartValidator},
		AuditLog:       {Indexes: AuditLogIndexes, Validator: validators.AuditValidator},
		Counters:       {},
	}
}

// RunMigration creates every collection with its validator and indexes.
// Collections are created up front because multi-document transactions
// cannot create them implicitly on older servers.
func RunMigration(ctx context.Context, client *mongo.Client, dbName string, log *logger.Logger) error {
	db := client.Database(dbName)
	log.Info("Running Mongo migrations", "database", dbName)

	for name, def := range Definitions() {
		if err := ensureCollection(ctx, db, name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if len(def.Indexes) == 0 {
			continue
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	log.Info("All migrations applied successfully")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection()
		if validator != nil {
			opts.SetValidator(validator)
		}
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	if validator == nil {
		return nil
	}

	log.Info("Collection already exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}

	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	coll := db.Collection(name)
	_, err := coll.Indexes().CreateMany(ctx, models)
	if err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "count", len(models))
	return nil
}
