package database

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"alrater/internal/apperr"
	"alrater/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the calculation store and migrates its schema. driver is
// "sqlite" (dsn is a file path) or "postgres".
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		if dir := filepath.Dir(dsn); dir != "." && dsn != ":memory:" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, apperr.Storagef("failed to create database directory: %v", err)
			}
		}
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, apperr.Configurationf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, apperr.Storagef("failed to connect to %s: %v", driver, err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	slog.Info("calculation store ready", "driver", driver)
	return db, nil
}

// Migrate creates or updates the calculations and audit_logs tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.CalculationRecord{}, &model.AuditLog{}); err != nil {
		return fmt.Errorf("%w: failed to migrate schema: %v", apperr.ErrStorage, err)
	}
	return nil
}
