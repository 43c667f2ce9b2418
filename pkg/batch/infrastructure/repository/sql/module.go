package sql

import (
	"context"
	"embed"

	"github.com/tigerroll/surfin-backuprestore/pkg/batch/adapter/database"
	gormadapter "github.com/tigerroll/surfin-backuprestore/pkg/batch/adapter/database/gorm"
	_ "github.com/tigerroll/surfin-backuprestore/pkg/batch/adapter/database/gorm/mysql"
	_ "github.com/tigerroll/surfin-backuprestore/pkg/batch/adapter/database/gorm/postgres"
	_ "github.com/tigerroll/surfin-backuprestore/pkg/batch/adapter/database/gorm/sqlite"
	config "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/config"
	repository "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/repository"

	"go.uber.org/fx"
)

// LedgerConnectionName names the ledger database connection.
const LedgerConnectionName = "ledger"

//go:embed migrations
var migrationFS embed.FS

// Migrate brings the run history and ledger tables of conn up to the latest
// schema version for its dialect.
func Migrate(ctx context.Context, conn database.DBConnection) error {
	return conn.Migrate(ctx, migrationFS, "migrations/"+conn.Type())
}

// NewLedgerConnection opens and migrates the ledger database and closes it when
// the application stops.
func NewLedgerConnection(lc fx.Lifecycle, cfg *config.BackupRestoreConfig, logging *config.LoggingConfig) (database.DBConnection, error) {
	conn, err := gormadapter.Open(cfg.Ledger.Database, LedgerConnectionName, config.LogLevel(logging.Level))
	if err != nil {
		return nil, err
	}
	if err := Migrate(context.Background(), conn); err != nil {
		_ = conn.Close()
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return conn.Close()
		},
	})
	return conn, nil
}

// Module provides the durable job repository and ledger store. It replaces
// inmemory.RepositoryModule when the ledger is enabled.
var Module = fx.Options(
	fx.Provide(NewLedgerConnection),
	fx.Provide(fx.Annotate(
		NewSQLJobRepository,
		fx.As(new(repository.JobRepository)),
	)),
	fx.Provide(fx.Annotate(
		NewGormLedgerStore,
		fx.As(fx.Self()),
		fx.As(new(repository.RunLedger)),
	)),
)
