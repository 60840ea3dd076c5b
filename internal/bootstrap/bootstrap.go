// Package bootstrap assembles repositories, services and handlers for the
// configured storage backend.
package bootstrap

import (
	"fmt"
	auditrepository "shelfkeeper/internal/audit/repository"
	auditservice "shelfkeeper/internal/audit/service"
	borrowingshandler "shelfkeeper/internal/borrowings/handler"
	borrowingsrepository "shelfkeeper/internal/borrowings/repository"
	borrowingsservice "shelfkeeper/internal/borrowings/service"
	borrowingsvalidator "shelfkeeper/internal/borrowings/validator"
	cartshandler "shelfkeeper/internal/carts/handler"
	cartsrepository "shelfkeeper/internal/carts/repository"
	cartsservice "shelfkeeper/internal/carts/service"
	cascadehandler "shelfkeeper/internal/cascade/handler"
	cascadeservice "shelfkeeper/internal/cascade/service"
	cataloghandler "shelfkeeper/internal/catalog/handler"
	catalogrepository "shelfkeeper/internal/catalog/repository"
	catalogservice "shelfkeeper/internal/catalog/service"
	catalogvalidator "shelfkeeper/internal/catalog/validator"
	healthhandler "shelfkeeper/internal/health/handler"
	inventoryhandler "shelfkeeper/internal/inventory/handler"
	inventoryrepository "shelfkeeper/internal/inventory/repository"
	inventoryservice "shelfkeeper/internal/inventory/service"
	"shelfkeeper/pkg/config"
	"shelfkeeper/pkg/contracts"
	"shelfkeeper/pkg/db"
	"shelfkeeper/pkg/db/memory"
	mongodb "shelfkeeper/pkg/db/mongo"
	"shelfkeeper/pkg/kafka"
	kafka_config "shelfkeeper/pkg/kafka/config"
	kafka_middleware "shelfkeeper/pkg/kafka/middleware"
	"shelfkeeper/pkg/model"
)

type storage struct {
	tx         db.TransactionManager
	seq        db.Sequencer
	inventory  inventoryrepository.InventoryRepository
	catalog    *catalogrepository.Repositories
	borrowings borrowingsrepository.BorrowingRepository
	locks      borrowingsrepository.BorrowLockRepository
	carts      cartsrepository.CartRepository
	audit      auditrepository.AuditRepository
	ping       healthhandler.Pinger
}

type Services struct {
	Inventory  inventoryservice.InventoryService
	Catalog    catalogservice.CatalogService
	Borrowings borrowingsservice.BorrowingService
	Carts      cartsservice.CartService
	Cascade    cascadeservice.CascadeService
	Recorder   auditservice.Recorder
	AuditLog   auditrepository.AuditRepository
}

type Components struct {
	Services *Services
	Health   contracts.Handler
	Handlers []contracts.Handler
	closers  []func()
}

// Close releases the audit publisher, if one was started.
func (c *Components) Close() {
	for _, fn := range c.closers {
		fn()
	}
}

// Build connects the backend named by cfg.StorageBackend and wires every
// component on top of it.
func Build(cfg *config.Config) (*Components, error) {
	store := newStorage(cfg)
	components := &Components{}

	sinks := []auditservice.Sink{auditservice.NewRepositorySink(store.audit)}
	var metrics *kafka_middleware.Metrics
	if cfg.AuditKafkaEnabled {
		producer, m, err := newAuditProducer(cfg)
		if err != nil {
			return nil, err
		}
		metrics = m
		sinks = append(sinks, auditservice.NewKafkaSink(producer))
		components.closers = append(components.closers, func() {
			if err := producer.Close(); err != nil {
				cfg.Log.Error("Failed to close audit producer", "error", err)
			}
		})
	}

	recorder := auditservice.NewRecorder(cfg.Log.Component("audit"), sinks,
		auditservice.WithAlert(func(sink string, entry *model.AuditEntry, err error) {
			cfg.Log.Error("Audit sink write failed",
				"sink", sink,
				"audit_id", entry.ID,
				"table", entry.Table,
				"record_id", entry.RecordID,
				"error", err,
			)
		}),
	)

	services := newServices(cfg, store, recorder)
	components.Services = services
	components.Health = healthhandler.NewHealthHandler(store.ping, recorder, metrics, cfg.Log)
	components.Handlers = []contracts.Handler{
		cataloghandler.NewCatalogHandler(services.Catalog, cfg.Log),
		inventoryhandler.NewInventoryHandler(services.Inventory, cfg.Log),
		borrowingshandler.NewBorrowingHandler(services.Borrowings, cfg.Log),
		cartshandler.NewCartHandler(services.Carts, cfg.Log),
		cascadehandler.NewCascadeHandler(services.Cascade, cfg.Log),
	}

	cfg.Log.Info("Components initialized",
		"storage_backend", cfg.StorageBackend,
		"audit_sinks", len(sinks),
	)
	return components, nil
}

func newStorage(cfg *config.Config) *storage {
	if cfg.UsesMongo() {
		if cfg.Client.Mongo == nil {
			cfg.SetMongo()
		}
		client := cfg.Client.Mongo
		return &storage{
			tx:         mongodb.NewTransactionManager(client),
			seq:        mongodb.NewSequencer(client.Database(cfg.MongoDatabaseName)),
			inventory:  inventoryrepository.NewMongoInventoryRepository(cfg),
			catalog:    catalogrepository.NewMongoRepositories(cfg),
			borrowings: borrowingsrepository.NewMongoBorrowingRepository(cfg),
			locks:      borrowingsrepository.NewMongoBorrowLockRepository(cfg),
			carts:      cartsrepository.NewMongoCartRepository(cfg),
			audit:      auditrepository.NewMongoAuditRepository(cfg),
			ping:       healthhandler.MongoPinger(client),
		}
	}

	mem := memory.New()
	return &storage{
		tx:         mem,
		seq:        mem,
		inventory:  inventoryrepository.NewMemoryInventoryRepository(mem),
		catalog:    catalogrepository.NewMemoryRepositories(mem),
		borrowings: borrowingsrepository.NewMemoryBorrowingRepository(mem),
		locks:      borrowingsrepository.NewMemoryBorrowLockRepository(mem),
		carts:      cartsrepository.NewMemoryCartRepository(mem),
		audit:      auditrepository.NewMemoryAuditRepository(mem),
	}
}

func newServices(cfg *config.Config, store *storage, recorder auditservice.Recorder) *Services {
	inventory := inventoryservice.NewInventoryService(store.inventory, store.borrowings, recorder, cfg)

	return &Services{
		Inventory: inventory,
		Catalog: catalogservice.NewCatalogService(
			store.catalog,
			inventory,
			store.tx,
			store.seq,
			catalogvalidator.NewCatalogValidator(cfg.Log),
			recorder,
			cfg,
		),
		Borrowings: borrowingsservice.NewBorrowingService(
			store.borrowings,
			store.locks,
			store.catalog,
			inventory,
			store.tx,
			store.seq,
			borrowingsvalidator.NewBorrowingValidator(cfg.Log),
			recorder,
			cfg,
		),
		Carts: cartsservice.NewCartService(store.carts, store.catalog, recorder, cfg),
		Cascade: cascadeservice.NewCascadeService(
			store.catalog,
			store.borrowings,
			store.carts,
			inventory,
			store.tx,
			recorder,
			cfg,
		),
		Recorder: recorder,
		AuditLog: store.audit,
	}
}

func newAuditProducer(cfg *config.Config) (*kafka.Producer, *kafka_middleware.Metrics, error) {
	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid kafka configuration: %w", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.AuditKafkaTopic, cfg.AuditKafkaDLQTopic, cfg.Log.Component("audit-producer"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create audit producer: %w", err)
	}

	metrics := kafka_middleware.NewMetrics()
	producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	producer.Use(kafka_middleware.MetricsProducerMiddleware(metrics))
	return producer, metrics, nil
}
