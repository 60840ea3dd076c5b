package repository

import (
	"context"
	"fmt"
	"shelfkeeper/pkg/config"
	mongodb "shelfkeeper/pkg/db/mongo"
	"shelfkeeper/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Audit_log"
)

// AuditRepository is append-only.
type AuditRepository interface {
	Append(ctx context.Context, entry *model.AuditEntry) error
	ListByRecord(ctx context.Context, table string, recordID int64) ([]*model.AuditEntry, error)
}

type mongoAuditRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoAuditRepository(cfg *config.Config) AuditRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoAuditRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

// Append inserts the entry. Replaying an entry whose id is already stored is
// a no-op, so redelivered Kafka messages do not duplicate the log.
func (r *mongoAuditRepository) Append(ctx context.Context, entry *model.AuditEntry) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	_, err := r.collection.InsertOne(ctx, entry)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

func (r *mongoAuditRepository) ListByRecord(ctx context.Context, table string, recordID int64) ([]*model.AuditEntry, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"table": table, "record_id": recordID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*model.AuditEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode audit entries: %w", err)
	}
	return entries, nil
}
