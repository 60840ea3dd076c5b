package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"shelfkeeper/internal/audit/consumer"
	"shelfkeeper/internal/audit/repository"
	"shelfkeeper/pkg/config"
	"shelfkeeper/pkg/kafka"
	kafka_config "shelfkeeper/pkg/kafka/config"
	kafka_middleware "shelfkeeper/pkg/kafka/middleware"
)

const ServiceName = "audit-sink"

func main() {
	cfg := config.Load(ServiceName)
	if !cfg.UsesMongo() {
		cfg.Log.Fatal("audit-sink requires the mongo storage backend", "storage_backend", cfg.StorageBackend)
	}
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	auditRepo := repository.NewMongoAuditRepository(cfg)
	c, err := kafka.NewConsumer(
		kafkaCfg,
		cfg.AuditKafkaTopic,
		cfg.AuditSinkGroupID,
		cfg.AuditKafkaDLQTopic,
		consumer.NewHandler(auditRepo, cfg.Log),
		cfg.Log.Component("audit-consumer"),
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create audit consumer", "error", err)
	}

	metrics := kafka_middleware.NewMetrics()
	c.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
	c.Use(kafka_middleware.MetricsConsumerMiddleware(metrics))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Starting audit sink",
		"topic", cfg.AuditKafkaTopic,
		"group_id", cfg.AuditSinkGroupID,
	)
	err = c.Start(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Audit consumer stopped", "error", err)
	}

	if err := c.Close(); err != nil {
		cfg.Log.Error("Failed to close audit consumer", "error", err)
	}
	cfg.Log.Info("Audit sink stopped", "metrics", metrics.Snapshot())
}
