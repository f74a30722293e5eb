package config

import "time"

const (
	StorageMongo    = "mongo"
	StorageMySQL    = "mysql"
	StoragePostgres = "postgres"

	SlotLockMongo = "mongo"
	SlotLockRedis = "redis"
	SlotLockNone  = "none"
)

const (
	DefaultPort      = "8080"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultStorageBackend = StorageMongo

	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "megastrength"
	DefaultMongoConnTimeout  = 10 * time.Second
	DefaultMongoReadTimeout  = 5 * time.Second
	DefaultMongoWriteTimeout = 10 * time.Second
	DefaultMongoTransactions = false

	DefaultSQLHost            = "localhost"
	DefaultSQLPort            = 3306
	DefaultSQLUser            = "root"
	DefaultSQLDatabase        = "megastrength"
	DefaultSQLSSLMode         = "disable"
	DefaultSQLMaxOpenConns    = 20
	DefaultSQLMaxIdleConns    = 5
	DefaultSQLConnMaxLifetime = 30 * time.Minute

	DefaultSlotLockBackend = SlotLockMongo
	DefaultSlotLockTTL     = 30 * time.Second

	// Redis is only connected when REDIS_ADDR is set.
	DefaultRedisAddr = ""
	DefaultRedisDB   = 0

	DefaultBookingTimeSlots = "09:00,10:00,11:00,14:00,15:00,16:00"
	DefaultPhoneRegion      = "KE"

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPage          = 1
	DefaultPageLimit     = 20
	MaxPageLimit         = 100
	DefaultExportMaxRows = 10000
)
