package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "canchas"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPageSize        = 10
	DefaultPaginationLimit = 100
	DefaultPartyListLimit  = 50

	DefaultReservationDuration = 1 * time.Hour
	DefaultLockTTL             = 10 * time.Second
	DefaultLockRetryAttempts   = 5
	DefaultLockRetryDelay      = 50 * time.Millisecond
	DefaultTimeZone            = "UTC"

	DefaultRedisAddr      = ""
	DefaultRedisDB        = 0
	DefaultSearchCacheTTL = 30 * time.Second

	DefaultEventsTopic = "reservation-events"

	DefaultRetentionCron = "0 4 * * *"
	DefaultRetentionAge  = 30 * 24 * time.Hour

	MinSessionSecretLength = 16
)

// Reservation consistency modes.
const (
	// ConsistencyRelaxed checks for conflicts and writes without isolation.
	ConsistencyRelaxed = "relaxed"
	// ConsistencyStrict wraps the check and the write in a slot lock and a transaction.
	ConsistencyStrict = "strict"

	DefaultReservationConsistency = ConsistencyRelaxed
)
