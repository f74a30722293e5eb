package main

import (
	"context"
	"time"

	mongoMigration "megastrength/internal/migrations/mongo"
	sqlMigration "megastrength/internal/migrations/sql"
	"megastrength/pkg/config"
)

const JobName = "migrate"

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	cfg := config.Load(JobName)
	cfg.Log.Info("Starting migration job", "storage", cfg.StorageBackend)
	defer cfg.GracefulShutdown()

	if cfg.UsesSQL() {
		cfg.SetSQL()
		if err := sqlMigration.RunMigration(ctx, cfg.Client.SQL, cfg.Log); err != nil {
			cfg.Log.Fatal("SQL migration failed", "error", err)
		}
	}

	// The lock collection is needed whenever Mongo backs the slot locker, even with SQL storage.
	if cfg.NeedsMongo() {
		cfg.SetMongo()
		if err := mongoMigration.RunMigration(ctx, cfg.Client.Mongo.Database(cfg.MongoDatabaseName), cfg.Log); err != nil {
			cfg.Log.Fatal("Mongo migration failed", "error", err)
		}
	}

	cfg.Log.Info("Migration completed successfully")
}
