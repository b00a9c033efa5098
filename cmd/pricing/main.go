package main

import (
	analyticshandler "tripfare/internal/analytics/handler"
	analyticsrepo "tripfare/internal/analytics/repository"
	analyticsservice "tripfare/internal/analytics/service"
	"tripfare/internal/bootstrap"
	"tripfare/internal/events"
	freezeshandler "tripfare/internal/freezes/handler"
	freezesrepo "tripfare/internal/freezes/repository"
	freezesservice "tripfare/internal/freezes/service"
	"tripfare/internal/health"
	inventoryhandler "tripfare/internal/inventory/handler"
	inventoryrepo "tripfare/internal/inventory/repository"
	inventoryservice "tripfare/internal/inventory/service"
	"tripfare/internal/inventory/validator"
	quoteshandler "tripfare/internal/quotes/handler"
	"tripfare/pkg/app"
	"tripfare/pkg/clock"
	"tripfare/pkg/config"
	"tripfare/pkg/contracts"
	kafka_middleware "tripfare/pkg/kafka/middleware"
	"tripfare/pkg/sealer"
)

const ServiceName = "pricing"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Pricing service")

	serverApp := app.NewApplication(cfg)
	kafkaMetrics := &kafka_middleware.Metrics{}
	publisher := bootstrap.Publisher(cfg, kafkaMetrics, serverApp.OnShutdown)

	healthHandler := health.NewHealthHandler(cfg.Log, bootstrap.HealthChecks(cfg)...).WithKafkaMetrics(kafkaMetrics)
	serverApp.SetApp(healthHandler, initHandlers(cfg, publisher)...)
	serverApp.Run()
}

func initHandlers(cfg *config.Config, publisher events.Publisher) []contracts.Handler {
	clk := clock.NewRealClock()

	inventoryService := inventoryservice.NewInventoryService(
		inventoryrepo.NewMongoInventoryRepository(cfg),
		validator.NewInventoryValidator(),
		clk,
		cfg,
	)
	quoteService := bootstrap.QuoteService(cfg, publisher, clk)

	freezeSealer, err := sealer.New(cfg.FreezeTokenKey)
	if err != nil {
		cfg.Log.Fatal("Invalid freeze token key", "error", err)
	}
	freezeService := freezesservice.NewFreezeService(
		freezesrepo.NewMongoFreezeRepository(cfg),
		freezesservice.NewMarkupReferencePricer(cfg.FreezeReferenceMarkup),
		freezeSealer,
		publisher,
		clk,
		cfg,
	)

	analyticsService := analyticsservice.NewAnalyticsService(analyticsrepo.NewMongoSummaryRepository(cfg), clk, cfg)

	cfg.Log.Info("Pricing services initialized", "database", cfg.MongoDatabaseName)
	return []contracts.Handler{
		inventoryhandler.NewInventoryHandler(inventoryService, cfg.Log),
		quoteshandler.NewQuoteHandler(quoteService, cfg.Log),
		freezeshandler.NewFreezeHandler(freezeService, cfg.Log),
		analyticshandler.NewAnalyticsHandler(analyticsService, cfg.Log),
	}
}
