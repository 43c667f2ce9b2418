// Package sqlite registers the SQLite dialector with the gorm adapter.
package sqlite

import (
	"errors"

	dbconfig "github.com/tigerroll/surfin-backuprestore/pkg/batch/adapter/database/config"
	gormadapter "github.com/tigerroll/surfin-backuprestore/pkg/batch/adapter/database/gorm"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DBType is the database type this package registers.
const DBType = "sqlite"

func init() {
	gormadapter.RegisterDialector(DBType, func(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error) {
		if cfg.Database == "" {
			return nil, errors.New("SQLite database path cannot be empty")
		}
		return sqlite.Open(ConnectionString(cfg)), nil
	})
}

// ConnectionString returns the DSN for cfg: the file path or the in-memory URI as configured.
func ConnectionString(c dbconfig.DatabaseConfig) string {
	return c.Database
}
