package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "shelfkeeper"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort           = "8080"
	DefaultLogLevel       = "info"
	DefaultStorageBackend = StorageMongo

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultLoanPeriod    = 14 * 24 * time.Hour
	DefaultBorrowLockTTL = 30 * time.Second

	DefaultAuditKafkaEnabled  = false
	DefaultAuditKafkaTopic    = "shelfkeeper.audit"
	DefaultAuditKafkaDLQTopic = "shelfkeeper.audit.dlq"
	DefaultAuditSinkGroupID   = "shelfkeeper-audit-sink"
)

const (
	StorageMongo  = "mongo"
	StorageMemory = "memory"
)
