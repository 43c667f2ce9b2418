package gorm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	logger "github.com/tigerroll/surfin-backuprestore/pkg/batch/support/util/logger"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// DefaultMigrationsTable is where applied schema versions are tracked.
const DefaultMigrationsTable = "br_schema_migrations"

func migrationDriver(dbType string, sqlDB *sql.DB, table string) (migratedb.Driver, error) {
	switch dbType {
	case "postgres":
		return postgres.WithInstance(sqlDB, &postgres.Config{MigrationsTable: table})
	case "mysql":
		return mysql.WithInstance(sqlDB, &mysql.Config{MigrationsTable: table})
	case "sqlite":
		return sqlite.WithInstance(sqlDB, &sqlite.Config{MigrationsTable: table})
	default:
		return nil, fmt.Errorf("unsupported database type for migration: %s", dbType)
	}
}

// Migrate implements database.DBConnection. It applies every pending up
// migration found under dir in source.
func (a *GormDBAdapter) Migrate(ctx context.Context, source fs.FS, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logger.Infof("Applying migrations from '%s' to '%s' (%s)", dir, a.name, a.cfg.Type)

	sourceDriver, err := iofs.New(source, dir)
	if err != nil {
		return fmt.Errorf("failed to create iofs source driver for path %s: %w", dir, err)
	}
	dbDriver, err := migrationDriver(a.cfg.Type, a.sqlDB, DefaultMigrationsTable)
	if err != nil {
		_ = sourceDriver.Close()
		return fmt.Errorf("failed to create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", sourceDriver, a.cfg.Type, dbDriver)
	if err != nil {
		_ = sourceDriver.Close()
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	// m.Close would also close the sqlite driver, which owns a.sqlDB.
	defer func() {
		_ = sourceDriver.Close()
		if a.cfg.Type != "sqlite" {
			_ = dbDriver.Close()
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed (DB: %s, Path: %s): %w", a.cfg.Type, dir, err)
	}
	version, dirty, err := m.Version()
	if err == nil {
		logger.Debugf("Schema of '%s' is at version %d (dirty=%t)", a.name, version, dirty)
	}
	return nil
}
