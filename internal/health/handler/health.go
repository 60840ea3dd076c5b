package handler

import (
	"context"
	"net/http"
	auditservice "shelfkeeper/internal/audit/service"
	httputil "shelfkeeper/pkg/http"
	kafka_middleware "shelfkeeper/pkg/kafka/middleware"
	"shelfkeeper/pkg/logger"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/mongo"
)

const pingTimeout = 2 * time.Second

// Pinger checks the storage backend. A nil Pinger means in-process storage.
type Pinger func(ctx context.Context) error

type HealthResponse struct {
	Status         string                            `json:"status"`
	Database       string                            `json:"database,omitempty"`
	AuditFailures  int64                             `json:"audit_failures"`
	AuditPublisher *kafka_middleware.MetricsSnapshot `json:"audit_publisher,omitempty"`
}

type HealthHandler struct {
	ping     Pinger
	recorder auditservice.Recorder
	metrics  *kafka_middleware.Metrics
	log      *logger.Logger
}

func NewHealthHandler(ping Pinger, recorder auditservice.Recorder, metrics *kafka_middleware.Metrics, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		ping:     ping,
		recorder: recorder,
		metrics:  metrics,
		log:      log,
	}
}

// MongoPinger adapts a connected client.
func MongoPinger(client *mongo.Client) Pinger {
	return func(ctx context.Context) error {
		return client.Ping(ctx, nil)
	}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	httputil.WriteJSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		AuditFailures: h.auditFailures(),
	})
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	resp := HealthResponse{
		Status:        "ready",
		Database:      "memory",
		AuditFailures: h.auditFailures(),
	}
	if h.metrics != nil {
		snapshot := h.metrics.Snapshot()
		resp.AuditPublisher = &snapshot
	}

	if h.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()

		if err := h.ping(ctx); err != nil {
			h.log.Error("Database health check failed",
				"error", err,
				"path", r.URL.Path,
			)
			resp.Status = "unavailable"
			resp.Database = "error"
			httputil.WriteJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
		resp.Database = "ok"
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *HealthHandler) auditFailures() int64 {
	if h.recorder == nil {
		return 0
	}
	return h.recorder.Failures()
}

func (h *HealthHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}
