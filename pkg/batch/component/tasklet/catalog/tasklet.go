// Package catalog provides the tasklets that back up a catalog into an archive
// and restore an archive into the isolated catalog of a restore run.
package catalog

import (
	"context"
	"fmt"

	storage "github.com/tigerroll/surfin-backuprestore/pkg/batch/adapter/storage"
	port "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/application/port"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/core/backuprestore"
	model "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/model"
	metrics "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/metrics"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/support/util/exception"
)

// ParamArchive is the job parameter naming the archive object in storage.
const ParamArchive = "archive"

// ExecutionContext keys written by the tasklets.
const (
	StatRead     = "catalog.read"
	StatWritten  = "catalog.written"
	StatSkipped  = "catalog.skipped"
	StatFiltered = "catalog.filtered"
	StatArchive  = "catalog.archive"
)

// ArchiveName returns the archive object of a run: the "archive" parameter,
// or "<run id>.ndjson" when it is absent.
func ArchiveName(execution *model.JobExecution) string {
	if name, ok := execution.Parameters.GetString(ParamArchive); ok && name != "" {
		return name
	}
	return execution.ID + ".ndjson"
}

// stats counts what a tasklet did with the resources it saw.
type stats struct {
	read, written, skipped, filtered int
}

func (s stats) apply(ec model.ExecutionContext, se *model.StepExecution) {
	ec.Put(StatRead, s.read)
	ec.Put(StatWritten, s.written)
	ec.Put(StatSkipped, s.skipped)
	ec.Put(StatFiltered, s.filtered)
	se.ReadCount = s.read
	se.WriteCount = s.written
	se.SkipProcessCount = s.skipped
	se.FilterCount = s.filtered
}

// base holds what backup and restore tasklets share.
type base struct {
	id       string
	item     *backuprestore.Item
	storage  storage.StorageConnection
	recorder metrics.MetricRecorder
	ec       model.ExecutionContext
}

func newBase(id string, resolver *backuprestore.ExecutionContextResolver, conn storage.StorageConnection, recorder metrics.MetricRecorder) base {
	if recorder == nil {
		recorder = metrics.NewNoOpMetricRecorder()
	}
	return base{
		id:       id,
		item:     backuprestore.NewItem(resolver, nil),
		storage:  conn,
		recorder: recorder,
		ec:       model.NewExecutionContext(),
	}
}

// Listener returns the step listener resolving the tasklet's context. It must
// be registered on the step running the tasklet.
func (b *base) Listener() port.StepExecutionListener { return b.item }

// context returns the resolved context or a precondition error.
func (b *base) context() (*backuprestore.StepContext, error) {
	sc := b.item.Context()
	if sc == nil {
		return nil, exception.NewPreconditionError(b.id, "no backup/restore context resolved for the step", nil)
	}
	return sc, nil
}

// rejected hands a resource that failed validation or serialization to the
// policy. A nil error means the run goes on without the resource.
func (b *base) rejected(ctx context.Context, resource interface{}, cause error) error {
	_, err := b.item.LogInvalidResource(ctx, resource, cause)
	return err
}

// Close implements port.Tasklet.
func (b *base) Close(ctx context.Context) error { return nil }

// SetExecutionContext implements port.Tasklet.
func (b *base) SetExecutionContext(ctx context.Context, ec model.ExecutionContext) error {
	if ec == nil {
		ec = model.NewExecutionContext()
	}
	b.ec = ec
	return nil
}

// GetExecutionContext implements port.Tasklet.
func (b *base) GetExecutionContext(ctx context.Context) (model.ExecutionContext, error) {
	return b.ec, nil
}

func describeLine(lineNo int) string {
	return fmt.Sprintf("archive line %d", lineNo)
}
