package config

import (
	"canchas/pkg/client"
	"canchas/pkg/logger"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	SessionSecret   string
	MailCredentials string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	ReservationConsistency     string
	PartyBlocksCourts          bool
	DefaultReservationDuration time.Duration
	LockTTL                    time.Duration
	LockRetryAttempts          int
	LockRetryDelay             time.Duration
	TimeZone                   string

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	SearchCacheTTL time.Duration

	EventsEnabled bool
	EventsTopic   string

	RetentionEnabled bool
	RetentionCron    string
	RetentionAge     time.Duration

	Log    *logger.Logger
	Client *client.Client

	location *time.Location
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment variables win.
func Load(serviceName string) *Config {
	_ = godotenv.Load()

	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		SessionSecret:   getEnvStr(EnvSessionSecret, ""),
		MailCredentials: getEnvStr(EnvMailCredentials, ""),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		ReservationConsistency:     strings.ToLower(getEnvStr(EnvReservationConsistency, DefaultReservationConsistency)),
		PartyBlocksCourts:          getEnvBool(EnvPartyBlocksCourts, false),
		DefaultReservationDuration: getEnvDuration(EnvDefaultReservationDuration, DefaultReservationDuration),
		LockTTL:                    getEnvDuration(EnvLockTTL, DefaultLockTTL),
		LockRetryAttempts:          getEnvNum(EnvLockRetryAttempts, DefaultLockRetryAttempts),
		LockRetryDelay:             getEnvDuration(EnvLockRetryDelay, DefaultLockRetryDelay),
		TimeZone:                   getEnvStr(EnvTimeZone, DefaultTimeZone),

		RedisAddr:      getEnvStr(EnvRedisAddr, DefaultRedisAddr),
		RedisPassword:  getEnvStr(EnvRedisPassword, ""),
		RedisDB:        getEnvNum(EnvRedisDB, DefaultRedisDB),
		SearchCacheTTL: getEnvDuration(EnvSearchCacheTTL, DefaultSearchCacheTTL),

		EventsEnabled: getEnvBool(EnvEventsEnabled, false),
		EventsTopic:   getEnvStr(EnvEventsTopic, DefaultEventsTopic),

		RetentionEnabled: getEnvBool(EnvRetentionEnabled, false),
		RetentionCron:    getEnvStr(EnvRetentionCron, DefaultRetentionCron),
		RetentionAge:     getEnvDuration(EnvRetentionAge, DefaultRetentionAge),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

// SetRedis connects the optional cache. An empty address leaves it disabled.
func (cfg *Config) SetRedis() {
	if cfg.RedisAddr == "" {
		cfg.Log.Info("Redis address not set, search cache disabled")
		return
	}
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if !regexp.MustCompile(`^mongodb(\+srv)?://.+`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}
	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		errors = append(errors, fmt.Sprintf("SessionSecret must be set and at least %d characters long", MinSessionSecretLength))
	}
	if cfg.MailCredentials != "" && !strings.Contains(cfg.MailCredentials, ":") {
		errors = append(errors, "MailCredentials must have the form user:password")
	}

	positiveDurations := []struct {
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
		{"DefaultReservationDuration", cfg.DefaultReservationDuration},
		{"LockTTL", cfg.LockTTL},
		{"SearchCacheTTL", cfg.SearchCacheTTL},
	}
	for _, d := range positiveDurations {
		if d.value <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", d.name, d.value))
		}
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if cfg.ReservationConsistency != ConsistencyRelaxed && cfg.ReservationConsistency != ConsistencyStrict {
		errors = append(errors, fmt.Sprintf("ReservationConsistency must be one of [%s, %s], got: %s",
			ConsistencyRelaxed, ConsistencyStrict, cfg.ReservationConsistency))
	}
	if cfg.LockRetryAttempts < 1 {
		errors = append(errors, fmt.Sprintf("LockRetryAttempts must be at least 1, got: %d", cfg.LockRetryAttempts))
	}
	if cfg.LockRetryDelay < 0 {
		errors = append(errors, fmt.Sprintf("LockRetryDelay cannot be negative, got: %s", cfg.LockRetryDelay))
	}

	if loc, err := time.LoadLocation(cfg.TimeZone); err != nil {
		errors = append(errors, fmt.Sprintf("TimeZone must be a valid IANA zone, got: %s", cfg.TimeZone))
	} else {
		cfg.location = loc
	}

	if cfg.RedisDB < 0 {
		errors = append(errors, fmt.Sprintf("RedisDB cannot be negative, got: %d", cfg.RedisDB))
	}
	if cfg.EventsEnabled && cfg.EventsTopic == "" {
		errors = append(errors, "EventsTopic cannot be empty when events are enabled")
	}
	if cfg.RetentionEnabled {
		if strings.TrimSpace(cfg.RetentionCron) == "" {
			errors = append(errors, "RetentionCron cannot be empty when retention is enabled")
		}
		if cfg.RetentionAge <= 0 {
			errors = append(errors, fmt.Sprintf("RetentionAge must be positive, got: %s", cfg.RetentionAge))
		}
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

// Location is the zone used to resolve calendar days and price step hours.
func (cfg *Config) Location() *time.Location {
	if cfg.location == nil {
		if loc, err := time.LoadLocation(cfg.TimeZone); err == nil && cfg.TimeZone != "" {
			cfg.location = loc
		} else {
			return time.UTC
		}
	}
	return cfg.location
}

func (cfg *Config) StrictConsistency() bool {
	return cfg.ReservationConsistency == ConsistencyStrict
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"session_secret_set", cfg.SessionSecret != "",
		"mail_credentials_set", cfg.MailCredentials != "",
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"max_request_size", cfg.MaxRequestSize,
		"reservation_consistency", cfg.ReservationConsistency,
		"party_blocks_courts", cfg.PartyBlocksCourts,
		"default_reservation_duration", cfg.DefaultReservationDuration,
		"lock_ttl", cfg.LockTTL,
		"timezone", cfg.TimeZone,
		"redis_enabled", cfg.RedisAddr != "",
		"search_cache_ttl", cfg.SearchCacheTTL,
		"events_enabled", cfg.EventsEnabled,
		"events_topic", cfg.EventsTopic,
		"retention_enabled", cfg.RetentionEnabled,
		"retention_cron", cfg.RetentionCron,
		"retention_age", cfg.RetentionAge,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`([a-z+]+://)[^:/@]+:[^@]+@`)
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

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	return min(limit, DefaultPaginationLimit)
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
