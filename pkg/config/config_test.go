package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		MongoURI:          DefaultMongoURI,
		MongoDatabaseName: DefaultMongoDatabaseName,
		MongoConnTimeout:  DefaultMongoConnTimeout,
		Port:              DefaultPort,
		StorageBackend:    StorageMongo,
		RateLimitRequests: DefaultRateLimitRequests,
		RateLimitWindow:   DefaultRateLimitWindow,
		RequestTimeout:    DefaultRequestTimeout,
		IdempotencyTTL:    DefaultIdempotencyTTL,
		MaxRequestSize:    DefaultMaxRequestSize,
		ReadTimeout:       DefaultReadTimeout,
		WriteTimeout:      DefaultWriteTimeout,
		IdleTimeout:       DefaultIdleTimeout,
		ShutdownTimeout:   DefaultShutdownTimeout,
		LoanPeriod:        DefaultLoanPeriod,
		BorrowLockTTL:     DefaultBorrowLockTTL,
		AuditKafkaTopic:   DefaultAuditKafkaTopic,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "memory backend ignores mongo settings", mutate: func(c *Config) {
			c.StorageBackend = StorageMemory
			c.MongoURI = ""
		}},
		{name: "bad port", mutate: func(c *Config) { c.Port = "70000" }, wantErr: "Port"},
		{name: "unknown backend", mutate: func(c *Config) { c.StorageBackend = "sqlite" }, wantErr: "StorageBackend"},
		{name: "bad mongo uri", mutate: func(c *Config) { c.MongoURI = "http://localhost" }, wantErr: "MongoURI"},
		{name: "zero loan period", mutate: func(c *Config) { c.LoanPeriod = 0 }, wantErr: "LoanPeriod"},
		{name: "negative lock ttl", mutate: func(c *Config) { c.BorrowLockTTL = -time.Second }, wantErr: "BorrowLockTTL"},
		{name: "kafka without topic", mutate: func(c *Config) {
			c.AuditKafkaEnabled = true
			c.AuditKafkaTopic = ""
		}, wantErr: "AuditKafkaTopic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRedactMongoURI(t *testing.T) {
	got := redactMongoURI("mongodb://admin:secret@db:27017")
	if got != "mongodb://***:***@db:27017" {
		t.Errorf("unexpected redaction: %s", got)
	}
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("SHELFKEEPER_TEST_DURATION", "45s")
	if got := getEnvDuration("SHELFKEEPER_TEST_DURATION", time.Second); got != 45*time.Second {
		t.Errorf("expected 45s, got %s", got)
	}

	t.Setenv("SHELFKEEPER_TEST_DURATION", "soon")
	if got := getEnvDuration("SHELFKEEPER_TEST_DURATION", time.Second); got != time.Second {
		t.Errorf("expected fallback for unparseable value, got %s", got)
	}
}
