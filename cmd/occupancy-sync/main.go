package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/julienschmidt/httprouter"

	"tripfare/internal/bootstrap"
	"tripfare/internal/health"
	"tripfare/internal/occupancy"
	"tripfare/pkg/clock"
	"tripfare/pkg/config"
	"tripfare/pkg/kafka"
	kafka_middleware "tripfare/pkg/kafka/middleware"
	"tripfare/pkg/middleware"
)

const ServiceName = "occupancy-sync"

func main() {
	cfg := config.Load(ServiceName)
	if cfg.Kafka == nil || !cfg.Kafka.Enabled {
		cfg.Log.Fatal("Occupancy sync requires KAFKA_ENABLED=true")
	}
	cfg.SetMongo()
	cfg.SetRedis()
	defer cfg.GracefulShutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers []func(context.Context)
	onClose := func(fn func(context.Context)) { closers = append(closers, fn) }

	metrics := &kafka_middleware.Metrics{}
	publisher := bootstrap.Publisher(cfg, metrics, onClose)
	quoteService := bootstrap.QuoteService(cfg, publisher, clock.NewRealClock())

	consumer, err := kafka.NewConsumer(
		cfg.Kafka,
		cfg.Log,
		cfg.Kafka.OccupancyTopic,
		cfg.Kafka.OccupancyGroupID,
		cfg.Kafka.OccupancyDLQTopic,
		occupancy.NewHandler(quoteService, cfg.Log).Handle,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create occupancy consumer", "error", err)
	}
	consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
	consumer.Use(metrics.ConsumerMiddleware())

	server := healthServer(cfg, metrics)
	go func() {
		cfg.Log.Info("Starting health server", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			cfg.Log.Error("Health server failed", "error", err)
			stop()
		}
	}()

	cfg.Log.Info("Consuming occupancy updates",
		"topic", cfg.Kafka.OccupancyTopic,
		"group_id", cfg.Kafka.OccupancyGroupID,
	)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Occupancy consumer stopped", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close occupancy consumer", "error", err)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		cfg.Log.Error("Health server shutdown failed", "error", err)
	}
	for _, fn := range closers {
		fn(shutdownCtx)
	}
	cfg.Log.Info("Occupancy sync stopped")
}

func healthServer(cfg *config.Config, metrics *kafka_middleware.Metrics) *http.Server {
	router := httprouter.New()
	health.NewHealthHandler(cfg.Log, bootstrap.HealthChecks(cfg)...).
		WithKafkaMetrics(metrics).
		RegisterRoutes(router)

	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      middleware.Recovery(cfg.Log)(router),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}
