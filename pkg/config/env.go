package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvSessionSecret   = "SESSION_SECRET"
	EnvMailCredentials = "MAIL_CREDENTIALS"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvReservationConsistency     = "RESERVATION_CONSISTENCY"
	EnvPartyBlocksCourts          = "PARTY_BLOCKS_COURTS"
	EnvDefaultReservationDuration = "DEFAULT_RESERVATION_DURATION"
	EnvLockTTL                    = "LOCK_TTL"
	EnvLockRetryAttempts          = "LOCK_RETRY_ATTEMPTS"
	EnvLockRetryDelay             = "LOCK_RETRY_DELAY"
	EnvTimeZone                   = "TIMEZONE"

	EnvRedisAddr      = "REDIS_ADDR"
	EnvRedisPassword  = "REDIS_PASSWORD"
	EnvRedisDB        = "REDIS_DB"
	EnvSearchCacheTTL = "SEARCH_CACHE_TTL"

	EnvEventsEnabled = "EVENTS_ENABLED"
	EnvEventsTopic   = "EVENTS_TOPIC"

	EnvRetentionEnabled = "RETENTION_ENABLED"
	EnvRetentionCron    = "RETENTION_CRON"
	EnvRetentionAge     = "RETENTION_AGE"
)
