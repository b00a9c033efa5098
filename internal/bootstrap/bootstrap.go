// Package bootstrap builds the components shared by the pricing API and the occupancy
// consumer from a loaded config. Misconfiguration is fatal.
package bootstrap

import (
	"context"
	"time"

	"tripfare/internal/demand"
	"tripfare/internal/events"
	"tripfare/internal/health"
	inventoryrepo "tripfare/internal/inventory/repository"
	"tripfare/internal/pricing"
	quotesrepo "tripfare/internal/quotes/repository"
	quotesservice "tripfare/internal/quotes/service"
	"tripfare/pkg/clock"
	"tripfare/pkg/config"
	"tripfare/pkg/kafka"
	kafka_middleware "tripfare/pkg/kafka/middleware"
	"tripfare/pkg/locale"
	"tripfare/pkg/lock"
)

const refreshLockPrefix = "tripfare:lock:"

func Repricer(cfg *config.Config) *pricing.Repricer {
	market, err := locale.Lookup(cfg.MarketRegion)
	if err != nil {
		cfg.Log.Fatal("Unknown market region", "region", cfg.MarketRegion, "error", err)
	}

	calendar := demand.DefaultCalendar()
	if cfg.DemandEventsFile != "" {
		calendar, err = demand.LoadCalendar(cfg.DemandEventsFile)
		if err != nil {
			cfg.Log.Fatal("Failed to load demand calendar", "path", cfg.DemandEventsFile, "error", err)
		}
		cfg.Log.Info("Demand calendar loaded",
			"path", cfg.DemandEventsFile,
			"seasons", len(calendar.Seasons),
			"events", len(calendar.Events),
		)
	}

	simulator, err := pricing.NewSimulator(cfg.DemandSimulation, cfg.DemandSimulationMaxUnits, time.Now().UnixNano())
	if err != nil {
		cfg.Log.Fatal("Invalid demand simulation", "mode", cfg.DemandSimulation, "error", err)
	}

	history := pricing.HistoryPolicy{Retention: cfg.HistoryRetention, MaxEntries: cfg.HistoryMaxEntries}
	return pricing.NewRepricer(demand.NewEngine(market, calendar), simulator, history)
}

// Locker uses Redis when configured so refreshes are serialized across replicas.
func Locker(cfg *config.Config, clk clock.Clock) lock.Locker {
	if cfg.Client.Redis != nil {
		cfg.Log.Info("Using Redis refresh locks")
		return lock.NewRedisLocker(cfg.Client.Redis, refreshLockPrefix)
	}
	return lock.NewLocalLocker(clk)
}

// Publisher returns a Kafka publisher when Kafka is enabled, otherwise a no-op. onClose
// receives a closer for every producer created.
func Publisher(cfg *config.Config, metrics *kafka_middleware.Metrics, onClose func(func(context.Context))) events.Publisher {
	if cfg.Kafka == nil || !cfg.Kafka.Enabled {
		cfg.Log.Info("Kafka disabled, change events are not published")
		return events.NoopPublisher{}
	}

	newProducer := func(topic string) *kafka.Producer {
		p, err := kafka.NewProducer(cfg.Kafka, cfg.Log, topic, "")
		if err != nil {
			cfg.Log.Fatal("Failed to create Kafka producer", "topic", topic, "error", err)
		}
		p.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
		p.Use(metrics.ProducerMiddleware())
		onClose(func(context.Context) {
			if err := p.Close(); err != nil {
				cfg.Log.Error("Failed to close Kafka producer", "topic", topic, "error", err)
			}
		})
		return p
	}

	return events.NewKafkaPublisher(
		newProducer(cfg.Kafka.PriceChangesTopic),
		newProducer(cfg.Kafka.FreezeEventsTopic),
		cfg.Log,
	)
}

func QuoteService(cfg *config.Config, publisher events.Publisher, clk clock.Clock) quotesservice.QuoteService {
	return quotesservice.NewQuoteService(
		quotesrepo.NewMongoPriceRecordRepository(cfg),
		inventoryrepo.NewMongoInventoryRepository(cfg),
		Repricer(cfg),
		Locker(cfg, clk),
		publisher,
		clk,
		cfg,
	)
}

func HealthChecks(cfg *config.Config) []health.Checker {
	checks := []health.Checker{health.MongoCheck(cfg.Client.Mongo)}
	if cfg.Client.Redis != nil {
		checks = append(checks, health.RedisCheck(cfg.Client.Redis))
	}
	return checks
}
