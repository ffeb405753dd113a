package database

import (
	"fmt"
	"os"

	"github.com/Gobusters/ectologger"
	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"

	"github.com/Ramsey-B/clover/config"
)

// MigrationLogger adapts ectologger to golang-migrate's Logger
type MigrationLogger struct {
	ectologger.Logger
}

func (l MigrationLogger) Verbose() bool {
	return true
}

func (l MigrationLogger) Printf(format string, v ...any) {
	l.Infof(format, v...)
}

// MigrationConfig controls schema migration behavior
type MigrationConfig struct {
	MigrationFolderPath string
	Version             uint // 0 means migrate to latest
	Force               int
}

// MigrationService runs schema migrations against PostgreSQL
type MigrationService struct {
	config *MigrationConfig
	logger ectologger.Logger
}

// NewMigrationServiceFromConfig creates a migration service from the
// service configuration
func NewMigrationServiceFromConfig(logger ectologger.Logger, cfg config.Config) *MigrationService {
	return NewMigrationService(logger, &MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
		Force:               cfg.DatabaseMigrationForce,
	})
}

// NewMigrationService creates a new migration service
func NewMigrationService(logger ectologger.Logger, config *MigrationConfig) *MigrationService {
	return &MigrationService{
		config: config,
		logger: logger,
	}
}

func (ms *MigrationService) resolveMigrationFolder() string {
	folder := ms.config.MigrationFolderPath
	if _, err := os.Stat(folder); err == nil {
		return folder
	}
	wd, _ := os.Getwd()
	return wd + "/" + folder
}

// MigrateSqlx runs migrations using an sqlx handle
func (ms *MigrationService) MigrateSqlx(databaseName string, db *sqlx.DB) error {
	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}
	return ms.Migrate(databaseName, driver)
}

// Migrate runs migrations using a golang-migrate database driver
func (ms *MigrationService) Migrate(databaseName string, instance migratedb.Driver) error {
	folder := ms.resolveMigrationFolder()
	if _, err := os.Stat(folder); err != nil {
		return fmt.Errorf("migration folder %s does not exist: %w", folder, err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+folder, databaseName, instance)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	m.Log = MigrationLogger{ms.logger}

	if ms.config.Force > 0 {
		if err := m.Force(ms.config.Force); err != nil {
			return fmt.Errorf("failed to force migration version %d: %w", ms.config.Force, err)
		}
	}

	if ms.config.Version > 0 {
		err = m.Migrate(ms.config.Version)
	} else {
		err = m.Up()
	}
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migration failed: %w", err)
	}

	version, dirty, _ := m.Version()
	ms.logger.WithFields(map[string]any{
		"version": version,
		"dirty":   dirty,
	}).Info("Database migrations applied")

	return nil
}
