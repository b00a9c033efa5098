package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvRedisURL = "REDIS_URL"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvCORSAllowedOrigins = "CORS_ALLOWED_ORIGINS"

	EnvPriceRefreshInterval = "PRICE_REFRESH_INTERVAL"
	EnvHistoryRetention     = "HISTORY_RETENTION"
	EnvHistoryMaxEntries    = "HISTORY_MAX_ENTRIES"

	EnvFreezeWindow          = "FREEZE_WINDOW"
	EnvFreezeReferenceMarkup = "FREEZE_REFERENCE_MARKUP"
	EnvFreezeTokenKey        = "FREEZE_TOKEN_KEY"

	EnvMarketRegion             = "MARKET_REGION"
	EnvDemandEventsFile         = "DEMAND_EVENTS_FILE"
	EnvDemandSimulation         = "DEMAND_SIMULATION"
	EnvDemandSimulationMaxUnits = "DEMAND_SIMULATION_MAX_UNITS"

	EnvRefreshLockTTL  = "REFRESH_LOCK_TTL"
	EnvStoreMaxRetries = "STORE_MAX_RETRIES"
)
