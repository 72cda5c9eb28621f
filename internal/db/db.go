package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"valentine/internal/config"
	"valentine/models"
)

// sqliteParams are applied to every pooled connection through the DSN.
const sqliteParams = "_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + sqliteParams
}

func dialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverSQLite, "":
		return sqlite.Open(sqliteDSN(cfg.Path)), nil
	case config.DriverPostgres:
		return postgres.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func logLevel(name string) logger.LogLevel {
	switch name {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// ConnectDB opens the configured database and makes sure both tables exist.
// Opening a sqlite path that does not exist yet creates the file.
func ConnectDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}
	return Open(d, cfg.LogLevel)
}

// Open is ConnectDB for an already built dialector.
func Open(d gorm.Dialector, level string) (*gorm.DB, error) {
	database, err := gorm.Open(d, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel(level)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if database.Dialector.Name() == "sqlite" {
		sqlDB, err := database.DB()
		if err != nil {
			return nil, err
		}
		// SQLite takes one writer at a time; queue in the pool, not in the file lock.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	}

	if err := Initialize(database); err != nil {
		return nil, err
	}
	return database, nil
}

// Initialize creates the love_documents and button_clicks tables if they are
// missing. Existing rows are left alone, so it is safe to call repeatedly.
func Initialize(database *gorm.DB) error {
	if err := database.AutoMigrate(&models.Signature{}, &models.Click{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
