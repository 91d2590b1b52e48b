package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"airwatch-platform/pkg/logging"
)

//go:embed migrations
var migrationsFS embed.FS

const migrationsTable = "schema_migrations"

// Migrate applies ("up") or reverts ("down") the embedded schema migrations.
// It opens its own connection because golang-migrate closes the handle it is
// given when it is done.
func Migrate(ctx context.Context, cfg *Config, direction string, logger *logging.StructuredLogger) error {
	dsn, err := cfg.DSN()
	if err != nil {
		return err
	}

	sqlDB, err := sql.Open(cfg.driverName(), dsn)
	if err != nil {
		return fmt.Errorf("failed to open migration connection: %w", err)
	}

	m, err := newMigrator(sqlDB, cfg.driverName())
	if err != nil {
		sqlDB.Close()
		return err
	}
	defer m.Close()

	logger.Info(ctx, "[MIGRATE_START] Running schema migrations", logging.Fields{
		"driver":    cfg.driverName(),
		"direction": direction,
	})

	switch direction {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	default:
		return fmt.Errorf("unsupported migration direction: %s", direction)
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration %s failed (driver %s): %w", direction, cfg.driverName(), err)
	}

	version, dirty, verErr := m.Version()
	if verErr != nil && !errors.Is(verErr, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read migration version: %w", verErr)
	}

	logger.Info(ctx, "[MIGRATE_COMPLETE] Schema migrations applied", logging.Fields{
		"direction": direction,
		"version":   version,
		"dirty":     dirty,
		"no_change": errors.Is(err, migrate.ErrNoChange),
	})

	return nil
}

func newMigrator(sqlDB *sql.DB, driver string) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations/"+driver)
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations for %s: %w", driver, err)
	}

	var dbDriver migratedb.Driver
	switch driver {
	case DriverPostgres:
		dbDriver, err = postgres.WithInstance(sqlDB, &postgres.Config{MigrationsTable: migrationsTable})
	case DriverSQLite:
		dbDriver, err = sqlite3.WithInstance(sqlDB, &sqlite3.Config{MigrationsTable: migrationsTable})
	default:
		err = fmt.Errorf("unsupported database driver for migration: %s", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, driver, dbDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}
