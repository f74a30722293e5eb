package sql

import (
	"context"
	"fmt"

	"megastrength/internal/bookings/repository"
	"megastrength/pkg/logger"

	"gorm.io/gorm"
)

// RunMigration creates or alters the bookings table, including the unique slot_key index.
func RunMigration(ctx context.Context, db *gorm.DB, log *logger.Logger) error {
	log.Info("Running SQL migrations", "dialect", db.Dialector.Name())

	if err := db.WithContext(ctx).AutoMigrate(&repository.BookingRecord{}); err != nil {
		return fmt.Errorf("failed to migrate %s: %w", repository.TableName, err)
	}

	log.Info("All SQL migrations applied", "table", repository.TableName)
	return nil
}
