package database

import (
	"fmt"
	"strings"

	"github.com/SundayYogurt/image_service/internal/domain"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const sqlitePrefix = "sqlite:"

// migrateLockID serializes AutoMigrate across replicas on Postgres.
const migrateLockID int64 = 20260222

// Open connects to Postgres, or to SQLite when the DSN starts with "sqlite:"
// (for example "sqlite:images.db" or "sqlite::memory:").
func Open(dsn string, quiet bool) (*gorm.DB, error) {
	level := logger.Warn
	if quiet {
		level = logger.Silent
	}
	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(level),
	}

	if strings.HasPrefix(dsn, sqlitePrefix) {
		db, err := gorm.Open(sqlite.Open(strings.TrimPrefix(dsn, sqlitePrefix)), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("sqlite handle: %w", err)
		}
		// one connection keeps ":memory:" databases shared and serializes writers
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the users and images tables. On Postgres the
// advisory lock, the migration and the unlock share one pooled connection,
// since the lock belongs to the session that took it.
func Migrate(db *gorm.DB) error {
	return db.Connection(func(conn *gorm.DB) error {
		if conn.Dialector.Name() == "postgres" {
			if err := conn.Exec("SELECT pg_advisory_lock(?)", migrateLockID).Error; err != nil {
				return fmt.Errorf("migration lock: %w", err)
			}
			defer func() {
				_ = conn.Exec("SELECT pg_advisory_unlock(?)", migrateLockID).Error
			}()
		}

		if err := conn.AutoMigrate(&domain.User{}, &domain.Image{}); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	})
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
