package config

import (
	"fmt"
	"math"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"megastrength/pkg/client"
	kafka_config "megastrength/pkg/kafka/config"
	"megastrength/pkg/logger"

	"github.com/joho/godotenv"
)

var (
	timeRegex   = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
	regionRegex = regexp.MustCompile(`^[A-Z]{2}$`)
)

type Config struct {
	Port      string
	LogLevel  string
	LogFormat string

	StorageBackend string

	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration
	MongoReadTimeout  time.Duration
	MongoWriteTimeout time.Duration
	MongoTransactions bool

	SQLHost            string
	SQLPort            int
	SQLUser            string
	SQLPassword        string
	SQLDatabase        string
	SQLSSLMode         string
	SQLMaxOpenConns    int
	SQLMaxIdleConns    int
	SQLConnMaxLifetime time.Duration

	SlotLockBackend string
	SlotLockTTL     time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	BookingTimeSlots []string
	PhoneRegion      string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	ExportMaxRows int

	OTLPEndpoint string

	Kafka *kafka_config.Config

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load(getEnvStr(EnvDotEnvPath, ".env"))

	storage := strings.ToLower(getEnvStr(EnvStorageBackend, DefaultStorageBackend))

	cfg := &Config{
		Port:      getEnvStr(EnvPort, DefaultPort),
		LogLevel:  getEnvStr(EnvLogLevel, DefaultLogLevel),
		LogFormat: getEnvStr(EnvLogFormat, DefaultLogFormat),

		StorageBackend: storage,

		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),
		MongoReadTimeout:  getEnvDuration(EnvMongoReadTimeout, DefaultMongoReadTimeout),
		MongoWriteTimeout: getEnvDuration(EnvMongoWriteTimeout, DefaultMongoWriteTimeout),
		MongoTransactions: getEnvBool(EnvMongoTransactions, DefaultMongoTransactions),

		SQLHost:            getEnvStr(EnvSQLHost, DefaultSQLHost),
		SQLPort:            getEnvNum(EnvSQLPort, defaultSQLPort(storage)),
		SQLUser:            getEnvStr(EnvSQLUser, DefaultSQLUser),
		SQLPassword:        getEnvStr(EnvSQLPassword, ""),
		SQLDatabase:        getEnvStr(EnvSQLDatabase, DefaultSQLDatabase),
		SQLSSLMode:         getEnvStr(EnvSQLSSLMode, DefaultSQLSSLMode),
		SQLMaxOpenConns:    getEnvNum(EnvSQLMaxOpenConns, DefaultSQLMaxOpenConns),
		SQLMaxIdleConns:    getEnvNum(EnvSQLMaxIdleConns, DefaultSQLMaxIdleConns),
		SQLConnMaxLifetime: getEnvDuration(EnvSQLConnMaxLifetime, DefaultSQLConnMaxLifetime),

		SlotLockBackend: strings.ToLower(getEnvStr(EnvSlotLockBackend, defaultSlotLockBackend(storage))),
		SlotLockTTL:     getEnvDuration(EnvSlotLockTTL, DefaultSlotLockTTL),

		RedisAddr:     getEnvStr(EnvRedisAddr, DefaultRedisAddr),
		RedisPassword: getEnvStr(EnvRedisPassword, ""),
		RedisDB:       getEnvNum(EnvRedisDB, DefaultRedisDB),

		BookingTimeSlots: ParseTimeSlots(getEnvStr(EnvBookingTimeSlots, DefaultBookingTimeSlots)),
		PhoneRegion:      strings.ToUpper(getEnvStr(EnvPhoneRegion, DefaultPhoneRegion)),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		ExportMaxRows: getEnvNum(EnvExportMaxRows, DefaultExportMaxRows),

		OTLPEndpoint: getEnvStr(EnvOTLPEndpoint, ""),

		Kafka:  kafka_config.Load(),
		Client: client.NewClient(),
	}

	cfg.Log = logger.New(logger.Config{
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
		AddSource: true,
		Service:   serviceName,
	})

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

// ParseTimeSlots splits a comma-separated slot list, keeping its order.
func ParseTimeSlots(raw string) []string {
	var slots []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			slots = append(slots, s)
		}
	}
	return slots
}

// UsesSQL reports whether bookings live in a relational store.
func (cfg *Config) UsesSQL() bool {
	return cfg.StorageBackend == StorageMySQL || cfg.StorageBackend == StoragePostgres
}

// NeedsMongo reports whether any component talks to MongoDB.
func (cfg *Config) NeedsMongo() bool {
	return cfg.StorageBackend == StorageMongo || cfg.SlotLockBackend == SlotLockMongo
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) SetSQL() {
	cfg.Client.SetSQL(cfg.Log, client.SQLOptions{
		Dialect:         cfg.StorageBackend,
		DSN:             cfg.SQLDSN(),
		MaxOpenConns:    cfg.SQLMaxOpenConns,
		MaxIdleConns:    cfg.SQLMaxIdleConns,
		ConnMaxLifetime: cfg.SQLConnMaxLifetime,
	})
}

// UsesRedis reports whether a Redis connection is configured. It then backs the
// idempotency store, and the slot lock when SlotLockBackend is redis.
func (cfg *Config) UsesRedis() bool {
	return cfg.RedisAddr != ""
}

func (cfg *Config) SetRedis() {
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.MongoConnTimeout)
}

// SQLDSN builds the driver-specific connection string for the configured backend.
func (cfg *Config) SQLDSN() string {
	if cfg.StorageBackend == StoragePostgres {
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
			cfg.SQLHost, cfg.SQLUser, cfg.SQLPassword, cfg.SQLDatabase, cfg.SQLPort, cfg.SQLSSLMode)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		cfg.SQLUser, cfg.SQLPassword, cfg.SQLHost, cfg.SQLPort, cfg.SQLDatabase)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	switch cfg.StorageBackend {
	case StorageMongo, StorageMySQL, StoragePostgres:
	default:
		errors = append(errors, fmt.Sprintf("StorageBackend must be one of [mongo, mysql, postgres], got: %s", cfg.StorageBackend))
	}

	switch cfg.SlotLockBackend {
	case SlotLockMongo, SlotLockRedis, SlotLockNone:
	default:
		errors = append(errors, fmt.Sprintf("SlotLockBackend must be one of [mongo, redis, none], got: %s", cfg.SlotLockBackend))
	}

	if cfg.NeedsMongo() {
		if cfg.MongoURI == "" {
			errors = append(errors, "MongoURI cannot be empty")
		} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
			errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
		}
		if cfg.MongoDatabaseName == "" {
			errors = append(errors, "MongoDatabaseName cannot be empty")
		}
		if cfg.MongoConnTimeout <= 0 {
			errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
		}
		if cfg.MongoReadTimeout <= 0 {
			errors = append(errors, fmt.Sprintf("MongoReadTimeout must be positive, got: %s", cfg.MongoReadTimeout))
		}
		if cfg.MongoWriteTimeout <= 0 {
			errors = append(errors, fmt.Sprintf("MongoWriteTimeout must be positive, got: %s", cfg.MongoWriteTimeout))
		}
	}

	if cfg.UsesSQL() {
		if cfg.SQLHost == "" {
			errors = append(errors, "SQLHost cannot be empty")
		}
		if cfg.SQLPort < 1 || cfg.SQLPort > 65535 {
			errors = append(errors, fmt.Sprintf("SQLPort must be between 1 and 65535, got: %d", cfg.SQLPort))
		}
		if cfg.SQLDatabase == "" {
			errors = append(errors, "SQLDatabase cannot be empty")
		}
		if cfg.SQLMaxOpenConns <= 0 {
			errors = append(errors, fmt.Sprintf("SQLMaxOpenConns must be positive, got: %d", cfg.SQLMaxOpenConns))
		}
		if cfg.SQLMaxIdleConns < 0 || cfg.SQLMaxIdleConns > cfg.SQLMaxOpenConns {
			errors = append(errors, fmt.Sprintf("SQLMaxIdleConns must be between 0 and SQLMaxOpenConns (%d), got: %d", cfg.SQLMaxOpenConns, cfg.SQLMaxIdleConns))
		}
	}

	if cfg.SlotLockBackend == SlotLockRedis && cfg.RedisAddr == "" {
		errors = append(errors, "RedisAddr cannot be empty when SlotLockBackend is redis")
	}
	if cfg.SlotLockBackend != SlotLockNone && cfg.SlotLockTTL <= 0 {
		errors = append(errors, fmt.Sprintf("SlotLockTTL must be positive, got: %s", cfg.SlotLockTTL))
	}

	errors = append(errors, validateTimeSlots(cfg.BookingTimeSlots)...)

	if !regionRegex.MatchString(cfg.PhoneRegion) {
		errors = append(errors, fmt.Sprintf("PhoneRegion must be a two-letter ISO country code, got: %s", cfg.PhoneRegion))
	}

	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.ExportMaxRows <= 0 {
		errors = append(errors, fmt.Sprintf("ExportMaxRows must be positive, got: %d", cfg.ExportMaxRows))
	}

	if cfg.Kafka != nil {
		if err := cfg.Kafka.Validate(); err != nil {
			errors = append(errors, err.Error())
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

func validateTimeSlots(slots []string) []string {
	var errors []string
	if len(slots) == 0 {
		errors = append(errors, "BookingTimeSlots must contain at least one slot")
	}
	for i, slot := range slots {
		if !timeRegex.MatchString(slot) {
			errors = append(errors, fmt.Sprintf("BookingTimeSlots[%d] must be in HH:MM format (00:00-23:59), got: %s", i, slot))
			continue
		}
		if slices.Index(slots, slot) != i {
			errors = append(errors, fmt.Sprintf("BookingTimeSlots contains duplicate slot: %s", slot))
		}
	}
	return errors
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"port", cfg.Port,
		"storage_backend", cfg.StorageBackend,
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"mongo_transactions", cfg.MongoTransactions,
		"sql_host", cfg.SQLHost,
		"sql_port", cfg.SQLPort,
		"sql_database", cfg.SQLDatabase,
		"sql_password_set", cfg.SQLPassword != "",
		"slot_lock_backend", cfg.SlotLockBackend,
		"slot_lock_ttl", cfg.SlotLockTTL,
		"redis_addr", cfg.RedisAddr,
		"booking_time_slots", cfg.BookingTimeSlots,
		"phone_region", cfg.PhoneRegion,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"export_max_rows", cfg.ExportMaxRows,
		"otlp_endpoint", cfg.OTLPEndpoint,
	)
	if cfg.Kafka != nil {
		cfg.Kafka.LogConfiguration(cfg.Log.Info)
	}
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func defaultSQLPort(storage string) int {
	if storage == StoragePostgres {
		return 5432
	}
	return DefaultSQLPort
}

// Redis is optional; without it the lock lives next to the bookings when they are in Mongo.
func defaultSlotLockBackend(storage string) string {
	if storage == StorageMongo {
		return DefaultSlotLockBackend
	}
	return SlotLockNone
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

// NormalizePage clamps a 1-based page number.
func NormalizePage(page int) int {
	return max(DefaultPage, page)
}

// PageOffset returns the number of rows before page. ok is false when the offset
// does not fit in an int64; such a page is past any stored data.
func PageOffset(page, limit int) (offset int64, ok bool) {
	page, limit = NormalizePage(page), NormalizePaginationLimit(limit)
	skipped := int64(page - 1)
	if skipped > math.MaxInt64/int64(limit) {
		return 0, false
	}
	return skipped * int64(limit), true
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = DefaultPageLimit
	} else if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return limit
}
