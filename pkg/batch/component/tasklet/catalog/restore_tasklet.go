package catalog

import (
	"context"

	storage "github.com/tigerroll/surfin-backuprestore/pkg/batch/adapter/storage"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/catalog"
	port "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/application/port"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/core/backuprestore"
	model "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/model"
	metrics "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/metrics"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/support/util/exception"
	logger "github.com/tigerroll/surfin-backuprestore/pkg/batch/support/util/logger"
)

// CatalogRestoreTasklet reads an archive into the restore run's catalog.
// Records must appear after the resources they reference.
type CatalogRestoreTasklet struct {
	base
}

// NewCatalogRestoreTasklet creates a restore tasklet reading from conn.
func NewCatalogRestoreTasklet(id string, resolver *backuprestore.ExecutionContextResolver, conn storage.StorageConnection, recorder metrics.MetricRecorder) *CatalogRestoreTasklet {
	return &CatalogRestoreTasklet{base: newBase(id, resolver, conn, recorder)}
}

// Execute implements port.Tasklet. In a dry run resources are restored into a
// scratch catalog and the run's catalog is left untouched.
func (t *CatalogRestoreTasklet) Execute(ctx context.Context, stepExecution *model.StepExecution) (model.ExitStatus, error) {
	sc, err := t.context()
	if err != nil {
		return model.ExitStatusFailed, err
	}

	target := sc.Catalog
	if sc.IsDryRun() {
		target = catalog.NewMemoryCatalog()
		sc.Persister.SetCatalog(target)
	}

	archive := ArchiveName(sc.Run)
	rc, err := t.storage.Download(ctx, "", archive)
	if err != nil {
		return model.ExitStatusFailed, exception.NewBatchError(t.id, "failed to open archive", err, false, false)
	}
	defer rc.Close()

	var st stats
	err = catalog.ReadRecords(rc, func(lineNo int, line []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		st.read++
		info, err := sc.Persister.Unmarshal(line)
		if err != nil {
			if err := t.rejected(ctx, describeLine(lineNo), err); err != nil {
				return err
			}
			st.skipped++
			return nil
		}
		// A store or layer without a workspace cannot be matched and is dropped.
		strict := info.Kind() != catalog.KindWorkspace
		if !t.item.Included(ctx, info, catalog.OwningWorkspace(info), strict) {
			st.filtered++
			return nil
		}
		if result := sc.Validator.Validate(target, info, sc.IsNew); !result.IsValid() {
			if _, err := t.item.LogValidationExceptions(ctx, result, nil); err != nil {
				return err
			}
			st.skipped++
			return nil
		}
		if err := target.Add(info); err != nil {
			if err := t.rejected(ctx, info, err); err != nil {
				return err
			}
			st.skipped++
			return nil
		}
		st.written++
		return nil
	})

	t.ec.Put(StatArchive, archive)
	st.apply(t.ec, stepExecution)
	if err != nil {
		return model.ExitStatusFailed, err
	}

	if !sc.IsDryRun() {
		t.recorder.RecordItemWrite(ctx, stepExecution.StepName, st.written)
	}
	logger.Infof("CatalogRestoreTasklet '%s': restored %d of %d records from '%s' (%d skipped, %d filtered, dry run: %t).",
		t.id, st.written, st.read, archive, st.skipped, st.filtered, sc.IsDryRun())
	return model.ExitStatusCompleted, nil
}

var _ port.Tasklet = (*CatalogRestoreTasklet)(nil)
