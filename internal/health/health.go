// Package health serves liveness and readiness probes for every process.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	httputil "tripfare/pkg/http"
	kafka_middleware "tripfare/pkg/kafka/middleware"
	"tripfare/pkg/logger"
)

const readyTimeout = 2 * time.Second

// Checker probes one dependency for readiness.
type Checker struct {
	Name  string
	Check func(ctx context.Context) error
}

func MongoCheck(client *mongo.Client) Checker {
	return Checker{
		Name:  "database",
		Check: func(ctx context.Context) error { return client.Ping(ctx, nil) },
	}
}

func RedisCheck(rdb redis.UniversalClient) Checker {
	return Checker{
		Name:  "redis",
		Check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}
}

type HealthResponse struct {
	Status string                     `json:"status"`
	Checks map[string]string          `json:"checks,omitempty"`
	Kafka  *kafka_middleware.Snapshot `json:"kafka,omitempty"`
}

type HealthHandler struct {
	checks  []Checker
	metrics *kafka_middleware.Metrics
	log     *logger.Logger
}

func NewHealthHandler(log *logger.Logger, checks ...Checker) *HealthHandler {
	return &HealthHandler{
		checks: checks,
		log:    log,
	}
}

// WithKafkaMetrics adds producer and consumer counters to readiness responses.
func (h *HealthHandler) WithKafkaMetrics(metrics *kafka_middleware.Metrics) *HealthHandler {
	h.metrics = metrics
	return h
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := httputil.WriteJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Health", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	resp := HealthResponse{Status: "ready", Checks: make(map[string]string, len(h.checks))}
	status := http.StatusOK
	for _, c := range h.checks {
		if err := c.Check(ctx); err != nil {
			h.log.Error("Readiness check failed",
				"check", c.Name,
				"error", err,
				"path", r.URL.Path,
			)
			resp.Checks[c.Name] = "error"
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[c.Name] = "ok"
	}
	if h.metrics != nil {
		snapshot := h.metrics.Snapshot()
		resp.Kafka = &snapshot
	}

	if err := httputil.WriteJSON(w, status, resp); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Ready", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}
