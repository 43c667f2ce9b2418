package repository

import (
	"context"
	"errors"

	"github.com/tigerroll/surfin-backuprestore/pkg/batch/catalog"
	model "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/model"
)

// ErrRunNotFound is returned when no backup or restore run is registered under an execution ID.
var ErrRunNotFound = errors.New("backup/restore run not found")

// BackupRun is an active backup: the execution and the live catalog it reads.
type BackupRun struct {
	Execution *model.JobExecution
	Catalog   catalog.Catalog
}

// RestoreRun is an active restore: the execution and the catalog it writes into.
type RestoreRun struct {
	Execution *model.JobExecution
	Catalog   catalog.Catalog
}

// BackupRunRegistry looks up active backup runs.
type BackupRunRegistry interface {
	// FindBackupRun returns ErrRunNotFound when id is not an active backup.
	FindBackupRun(ctx context.Context, id string) (*BackupRun, error)
}

// RestoreRunRegistry looks up active restore runs.
type RestoreRunRegistry interface {
	// FindRestoreRun returns ErrRunNotFound when id is not an active restore.
	FindRestoreRun(ctx context.Context, id string) (*RestoreRun, error)
}

// RunRegistrar binds executions to catalogs for the lifetime of a run.
type RunRegistrar interface {
	RegisterBackup(execution *model.JobExecution, cat catalog.Catalog) (*BackupRun, error)
	RegisterRestore(execution *model.JobExecution, cat catalog.Catalog) (*RestoreRun, error)
	Unregister(id string)
}
