package config

const (
	EnvDotEnvPath = "DOTENV_PATH"

	EnvPort      = "PORT"
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"

	EnvStorageBackend = "STORAGE_BACKEND"

	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"
	EnvMongoReadTimeout  = "MONGO_READ_TIMEOUT"
	EnvMongoWriteTimeout = "MONGO_WRITE_TIMEOUT"
	EnvMongoTransactions = "MONGO_TRANSACTIONS"

	EnvSQLHost            = "SQL_HOST"
	EnvSQLPort            = "SQL_PORT"
	EnvSQLUser            = "SQL_USER"
	EnvSQLPassword        = "SQL_PASSWORD"
	EnvSQLDatabase        = "SQL_DATABASE"
	EnvSQLSSLMode         = "SQL_SSL_MODE"
	EnvSQLMaxOpenConns    = "SQL_MAX_OPEN_CONNS"
	EnvSQLMaxIdleConns    = "SQL_MAX_IDLE_CONNS"
	EnvSQLConnMaxLifetime = "SQL_CONN_MAX_LIFETIME"

	EnvSlotLockBackend = "SLOT_LOCK_BACKEND"
	EnvSlotLockTTL     = "SLOT_LOCK_TTL"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"

	EnvBookingTimeSlots = "BOOKING_TIME_SLOTS"
	EnvPhoneRegion      = "PHONE_DEFAULT_REGION"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvExportMaxRows = "EXPORT_MAX_ROWS"

	EnvOTLPEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"
)
