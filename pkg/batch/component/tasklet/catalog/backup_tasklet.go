package catalog

import (
	"bytes"
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

// CatalogBackupTasklet writes the run's catalog to an archive, one record per
// line: workspaces, then stores, then layers.
type CatalogBackupTasklet struct {
	base
}

// NewCatalogBackupTasklet creates a backup tasklet writing to conn.
func NewCatalogBackupTasklet(id string, resolver *backuprestore.ExecutionContextResolver, conn storage.StorageConnection, recorder metrics.MetricRecorder) *CatalogBackupTasklet {
	return &CatalogBackupTasklet{base: newBase(id, resolver, conn, recorder)}
}

// Execute implements port.Tasklet.
func (t *CatalogBackupTasklet) Execute(ctx context.Context, stepExecution *model.StepExecution) (model.ExitStatus, error) {
	sc, err := t.context()
	if err != nil {
		return model.ExitStatusFailed, err
	}

	var buf bytes.Buffer
	var st stats
	visit := func(info catalog.Info) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		st.read++
		if !t.item.Included(ctx, info, catalog.OwningWorkspace(info), false) {
			st.filtered++
			return nil
		}
		if result := sc.Validate(info); !result.IsValid() {
			if _, err := t.item.LogValidationExceptions(ctx, result, nil); err != nil {
				return err
			}
			st.skipped++
			return nil
		}
		line, err := sc.Persister.Marshal(info)
		if err != nil {
			if err := t.rejected(ctx, info, err); err != nil {
				return err
			}
			st.skipped++
			return nil
		}
		buf.Write(line)
		buf.WriteByte('\n')
		st.written++
		return nil
	}

	for _, ws := range sc.Catalog.Workspaces() {
		if err := visit(ws); err != nil {
			return model.ExitStatusFailed, err
		}
	}
	for _, store := range sc.Catalog.Stores() {
		if err := visit(store); err != nil {
			return model.ExitStatusFailed, err
		}
	}
	for _, layer := range sc.Catalog.Layers() {
		if err := visit(layer); err != nil {
			return model.ExitStatusFailed, err
		}
	}

	archive := ArchiveName(sc.Run)
	t.ec.Put(StatArchive, archive)
	if sc.Tokenizer != nil {
		t.ec.Put(backuprestore.ParameterizedFieldsKey, sc.Tokenizer.Emitted())
	}
	st.apply(t.ec, stepExecution)

	if sc.IsDryRun() {
		logger.Infof("CatalogBackupTasklet '%s': dry run, %d records not written to '%s'.", t.id, st.written, archive)
		return model.ExitStatusCompleted, nil
	}
	if err := t.storage.Upload(ctx, "", archive, &buf, storage.ArchiveContentType); err != nil {
		return model.ExitStatusFailed, exception.NewBatchError(t.id, "failed to write archive", err, false, false)
	}
	t.recorder.RecordItemWrite(ctx, stepExecution.StepName, st.written)
	logger.Infof("CatalogBackupTasklet '%s': wrote %d records to '%s' (%d skipped, %d filtered).",
		t.id, st.written, archive, st.skipped, st.filtered)
	return model.ExitStatusCompleted, nil
}

var _ port.Tasklet = (*CatalogBackupTasklet)(nil)
