package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "tripfare"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 100
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 10 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultCORSAllowedOrigins = "*"

	DefaultPriceRefreshInterval = 1 * time.Hour
	DefaultHistoryRetention     = 30 * 24 * time.Hour
	DefaultHistoryMaxEntries    = 100

	DefaultFreezeWindow          = 24 * time.Hour
	DefaultFreezeReferenceMarkup = 0.15

	// Development key only. Production deployments set FREEZE_TOKEN_KEY.
	DefaultFreezeTokenKey = "lfQVRuulcL2iOhOJ2r8BYTweoSKwVAJnIF9U+AL+M60="

	DefaultMarketRegion             = "US"
	DefaultDemandSimulation         = "none"
	DefaultDemandSimulationMaxUnits = 3

	DefaultRefreshLockTTL  = 5 * time.Second
	DefaultStoreMaxRetries = 3

	DefaultHistoryDays = 30
	DefaultTopItems    = 5
	MaxTopItems        = 50
)
