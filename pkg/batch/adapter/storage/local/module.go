package local

import (
	"context"

	storageAdapter "github.com/tigerroll/surfin-backuprestore/pkg/batch/adapter/storage"
	coreConfig "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/config"

	"go.uber.org/fx"
)

// ArchiveConnectionName names the archive storage connection in logs.
const ArchiveConnectionName = "archive"

// NewArchiveStorage opens the archive storage configured for backup and restore
// runs and closes it when the application stops.
func NewArchiveStorage(lc fx.Lifecycle, cfg *coreConfig.BackupRestoreConfig) (storageAdapter.StorageConnection, error) {
	conn, err := NewLocalAdapter(cfg.Archive, ArchiveConnectionName)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return conn.Close()
		},
	})
	return conn, nil
}

// Module is the Fx module for the local archive storage.
var Module = fx.Options(
	fx.Provide(NewArchiveStorage),
)
