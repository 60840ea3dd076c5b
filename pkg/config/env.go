package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort           = "PORT"
	EnvLogLevel       = "LOG_LEVEL"
	EnvStorageBackend = "STORAGE_BACKEND"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvLoanPeriod    = "LOAN_PERIOD"
	EnvBorrowLockTTL = "BORROW_LOCK_TTL"

	EnvAuditKafkaEnabled  = "AUDIT_KAFKA_ENABLED"
	EnvAuditKafkaTopic    = "AUDIT_KAFKA_TOPIC"
	EnvAuditKafkaDLQTopic = "AUDIT_KAFKA_DLQ_TOPIC"
	EnvAuditSinkGroupID   = "AUDIT_SINK_GROUP_ID"
)
