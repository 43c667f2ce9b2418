package usecase

import (
	"context"

	"github.com/tigerroll/surfin-backuprestore/pkg/batch/catalog"
	model "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/model"
)

// RunLauncher starts backup and restore runs.
type RunLauncher interface {
	// Backup writes source to the archive named by the "archive" parameter.
	// The returned error reports a failed run; the report is returned either way
	// once the run was created.
	Backup(ctx context.Context, source catalog.Catalog, params model.JobParameters) (*RunReport, error)

	// Restore reads the archive named by the "archive" parameter into a new,
	// isolated catalog returned in the report.
	Restore(ctx context.Context, params model.JobParameters) (*RunReport, error)

	// Stop cancels a running run, which then finishes as STOPPED. It returns
	// repository.ErrRunNotFound when executionID is not running.
	Stop(executionID string) error
}

// RunReport summarizes a finished run.
type RunReport struct {
	Execution *model.JobExecution
	Mode      model.RunMode
	// Catalog is the catalog the run read (backup) or wrote (restore).
	Catalog catalog.Catalog
	// Archive is the archive object the run wrote or read.
	Archive string
	// ParameterizedFields lists the placeholders a backup wrote in place of credentials.
	ParameterizedFields []string
}

// Warnings returns the problems a best-effort run skipped.
func (r *RunReport) Warnings() []string { return r.Execution.Warnings }

// Failures returns the problems that failed the run.
func (r *RunReport) Failures() []string { return r.Execution.Failures }
