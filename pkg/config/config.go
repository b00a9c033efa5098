package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"tripfare/pkg/client"
	kafka_config "tripfare/pkg/kafka/config"
	"tripfare/pkg/locale"
	"tripfare/pkg/logger"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	RedisURL string

	Port string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	CORSAllowedOrigins []string

	PriceRefreshInterval time.Duration
	HistoryRetention     time.Duration
	HistoryMaxEntries    int

	FreezeWindow          time.Duration
	FreezeReferenceMarkup float64
	FreezeTokenKey        string

	MarketRegion             string
	DemandEventsFile         string
	DemandSimulation         string
	DemandSimulationMaxUnits int

	RefreshLockTTL  time.Duration
	StoreMaxRetries int

	Kafka  *kafka_config.Config
	Log    *logger.Logger
	Client *client.Client
}

// Load reads .env (when present) and the environment. Invalid configuration is fatal.
func Load(serviceName string) *Config {
	_ = godotenv.Load()

	log := logger.New(logger.Config{
		Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
		Format:    logger.JSON,
		AddSource: true,
		Service:   serviceName,
	})

	cfg, err := FromEnv(log)
	if err != nil {
		log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

// FromEnv builds and validates a Config from environment variables only.
func FromEnv(log *logger.Logger) (*Config, error) {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		RedisURL: getEnvStr(EnvRedisURL, ""),

		Port: getEnvStr(EnvPort, DefaultPort),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		CORSAllowedOrigins: getEnvList(EnvCORSAllowedOrigins, DefaultCORSAllowedOrigins),

		PriceRefreshInterval: getEnvDuration(EnvPriceRefreshInterval, DefaultPriceRefreshInterval),
		HistoryRetention:     getEnvDuration(EnvHistoryRetention, DefaultHistoryRetention),
		HistoryMaxEntries:    getEnvNum(EnvHistoryMaxEntries, DefaultHistoryMaxEntries),

		FreezeWindow:          getEnvDuration(EnvFreezeWindow, DefaultFreezeWindow),
		FreezeReferenceMarkup: getEnvFloat(EnvFreezeReferenceMarkup, DefaultFreezeReferenceMarkup),
		FreezeTokenKey:        getEnvStr(EnvFreezeTokenKey, DefaultFreezeTokenKey),

		MarketRegion:             strings.ToUpper(getEnvStr(EnvMarketRegion, DefaultMarketRegion)),
		DemandEventsFile:         getEnvStr(EnvDemandEventsFile, ""),
		DemandSimulation:         strings.ToLower(getEnvStr(EnvDemandSimulation, DefaultDemandSimulation)),
		DemandSimulationMaxUnits: getEnvNum(EnvDemandSimulationMaxUnits, DefaultDemandSimulationMaxUnits),

		RefreshLockTTL:  getEnvDuration(EnvRefreshLockTTL, DefaultRefreshLockTTL),
		StoreMaxRetries: getEnvNum(EnvStoreMaxRetries, DefaultStoreMaxRetries),

		Log:    log,
		Client: client.NewClient(),
	}

	var errs []string
	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		errs = append(errs, err.Error())
	}
	cfg.Kafka = kafkaCfg

	if err := cfg.Validate(); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%s", strings.Join(errs, "\n"))
	}
	return cfg, nil
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) SetRedis() {
	cfg.Client.SetRedis(cfg.Log, cfg.RedisURL, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactURI(cfg.MongoURI)))
	}
	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}
	if cfg.RedisURL != "" && !regexp.MustCompile(`^rediss?://`).MatchString(cfg.RedisURL) {
		errors = append(errors, fmt.Sprintf("RedisURL must start with 'redis://' or 'rediss://', got: %s", redactURI(cfg.RedisURL)))
	}

	positive := []struct {
		name  string
		value time.Duration
	}{
		{"MongoConnTimeout", cfg.MongoConnTimeout},
		{"RateLimitWindow", cfg.RateLimitWindow},
		{"RequestTimeout", cfg.RequestTimeout},
		{"IdempotencyTTL", cfg.IdempotencyTTL},
		{"ReadTimeout", cfg.ReadTimeout},
		{"WriteTimeout", cfg.WriteTimeout},
		{"IdleTimeout", cfg.IdleTimeout},
		{"ShutdownTimeout", cfg.ShutdownTimeout},
		{"PriceRefreshInterval", cfg.PriceRefreshInterval},
		{"HistoryRetention", cfg.HistoryRetention},
		{"FreezeWindow", cfg.FreezeWindow},
		{"RefreshLockTTL", cfg.RefreshLockTTL},
	}
	for _, p := range positive {
		if p.value <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", p.name, p.value))
		}
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.HistoryMaxEntries <= 0 {
		errors = append(errors, fmt.Sprintf("HistoryMaxEntries must be positive, got: %d", cfg.HistoryMaxEntries))
	}
	if cfg.FreezeReferenceMarkup < 0 || cfg.FreezeReferenceMarkup > 2 {
		errors = append(errors, fmt.Sprintf("FreezeReferenceMarkup must be between 0 and 2, got: %g", cfg.FreezeReferenceMarkup))
	}
	if key, err := base64.StdEncoding.DecodeString(cfg.FreezeTokenKey); err != nil || len(key) != 32 {
		errors = append(errors, "FreezeTokenKey must be a base64-encoded 32-byte key")
	}
	if _, err := locale.Lookup(cfg.MarketRegion); err != nil {
		errors = append(errors, fmt.Sprintf("MarketRegion is not supported, got: %s", cfg.MarketRegion))
	}
	if cfg.DemandSimulation != "none" && cfg.DemandSimulation != "random" {
		errors = append(errors, fmt.Sprintf("DemandSimulation must be 'none' or 'random', got: %s", cfg.DemandSimulation))
	}
	if cfg.DemandSimulationMaxUnits < 0 {
		errors = append(errors, fmt.Sprintf("DemandSimulationMaxUnits cannot be negative, got: %d", cfg.DemandSimulationMaxUnits))
	}
	if cfg.StoreMaxRetries < 0 {
		errors = append(errors, fmt.Sprintf("StoreMaxRetries cannot be negative, got: %d", cfg.StoreMaxRetries))
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		errors = append(errors, "CORSAllowedOrigins cannot be empty")
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"redis_uri", redactURI(cfg.RedisURL),
		"port", cfg.Port,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"cors_allowed_origins", cfg.CORSAllowedOrigins,
		"price_refresh_interval", cfg.PriceRefreshInterval,
		"history_retention", cfg.HistoryRetention,
		"history_max_entries", cfg.HistoryMaxEntries,
		"freeze_window", cfg.FreezeWindow,
		"freeze_reference_markup", cfg.FreezeReferenceMarkup,
		"freeze_token_key_default", cfg.FreezeTokenKey == DefaultFreezeTokenKey,
		"market_region", cfg.MarketRegion,
		"demand_events_file", cfg.DemandEventsFile,
		"demand_simulation", cfg.DemandSimulation,
		"demand_simulation_max_units", cfg.DemandSimulationMaxUnits,
		"refresh_lock_ttl", cfg.RefreshLockTTL,
		"store_max_retries", cfg.StoreMaxRetries,
	)
	if cfg.Kafka != nil {
		cfg.Kafka.LogConfiguration(cfg.Log.Info)
	}
	if cfg.FreezeTokenKey == DefaultFreezeTokenKey {
		cfg.Log.Warn("Using the development freeze token key, set FREEZE_TOKEN_KEY in production")
	}
}

func redactURI(uri string) string {
	credentialRegex := regexp.MustCompile(`^([a-z+]+://)[^@/]*@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key, fallback string) []string {
	var out []string
	for _, part := range strings.Split(getEnvStr(key, fallback), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
}

// NormalizeTopItems clamps the analytics top-N parameter.
func NormalizeTopItems(top int) int {
	if top <= 0 {
		return DefaultTopItems
	}
	return min(top, MaxTopItems)
}
