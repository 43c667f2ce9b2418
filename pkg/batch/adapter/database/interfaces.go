package database

import (
	"context"
	"database/sql"
	"io/fs"

	dbconfig "github.com/tigerroll/surfin-backuprestore/pkg/batch/adapter/database/config"
	coreAdapter "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/adapter"
)

// DBExecutor defines the write and read operations the repositories use.
type DBExecutor interface {
	// ExecuteInsert inserts model, a pointer to an entity or a slice of entities.
	ExecuteInsert(ctx context.Context, model interface{}) (rowsAffected int64, err error)

	// ExecuteUpsert inserts model or, on a conflict over conflictColumns, updates updateColumns.
	// With no updateColumns the conflicting row is left unchanged.
	ExecuteUpsert(ctx context.Context, model interface{}, conflictColumns []string, updateColumns []string) (rowsAffected int64, err error)

	// ExecuteQueryAdvanced executes a read operation with optional sorting and limiting.
	ExecuteQueryAdvanced(ctx context.Context, target interface{}, query map[string]interface{}, orderBy string, limit int) error

	// Count counts the number of records matching the query.
	Count(ctx context.Context, model interface{}, query map[string]interface{}) (int64, error)

	// Pluck retrieves the distinct values of a column.
	Pluck(ctx context.Context, model interface{}, column string, target interface{}, query map[string]interface{}) error
}

// DBConnection represents an abstraction of a database connection.
// It embeds coreAdapter.ResourceConnection for generic connection management
// and DBExecutor for database-specific operations.
type DBConnection interface {
	coreAdapter.ResourceConnection // Embeds Type(), Name(), Close()
	DBExecutor

	// Migrate applies the pending versioned migrations stored under dir in source.
	Migrate(ctx context.Context, source fs.FS, dir string) error
	// IsTableNotExistError checks if the given error indicates that a table does not exist.
	IsTableNotExistError(err error) bool
	// RefreshConnection checks that the connection is still usable.
	RefreshConnection(ctx context.Context) error
	// Config returns the database configuration associated with this connection.
	Config() dbconfig.DatabaseConfig
	// GetSQLDB returns the underlying *sql.DB connection.
	GetSQLDB() (*sql.DB, error)
}
