package client

import (
	"time"

	"megastrength/pkg/logger"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type SQLOptions struct {
	Dialect         string // "mysql" or "postgres"
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// GormConfig returns the gorm settings shared by every relational connection:
// UTC timestamps, driver errors translated to gorm sentinels, logs through slog.
func GormConfig(log *logger.Logger) *gorm.Config {
	return &gorm.Config{
		Logger: gormlogger.New(log, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		TranslateError: true,
	}
}

func (c *Client) SetSQL(log *logger.Logger, opts SQLOptions) {
	var dialector gorm.Dialector
	switch opts.Dialect {
	case "postgres":
		dialector = postgres.Open(opts.DSN)
	default:
		dialector = mysql.Open(opts.DSN)
	}

	db, err := gorm.Open(dialector, GormConfig(log))
	if err != nil {
		log.Fatal("Failed to connect to SQL database", "error", err, "dialect", opts.Dialect)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("Failed to obtain SQL connection pool", "error", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	if err := sqlDB.Ping(); err != nil {
		log.Fatal("Failed to ping SQL database", "error", err)
	}

	log.Info("Successfully connected to SQL database", "dialect", opts.Dialect)
	c.SQL = db
}
