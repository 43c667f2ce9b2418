package metrics

import (
	"context"
	"time"

	model "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/model"
)

// MetricRecorder is an abstract interface for recording metrics of backup and restore runs.
//
// This facilitates integration with different metrics backends (e.g., Prometheus, OpenTelemetry Metrics).
type MetricRecorder interface {
	// RecordJobStart records the start of a JobExecution.
	//
	// ctx: The context for the operation.
	// execution: Details of the started JobExecution.
	RecordJobStart(ctx context.Context, execution *model.JobExecution)

	// RecordJobEnd records the end of a JobExecution.
	//
	// ctx: The context for the operation.
	// execution: Details of the ended JobExecution.
	RecordJobEnd(ctx context.Context, execution *model.JobExecution)

	// RecordStepStart records the start of a StepExecution.
	//
	// ctx: The context for the operation.
	// execution: Details of the started StepExecution.
	RecordStepStart(ctx context.Context, execution *model.StepExecution)

	// RecordStepEnd records the end of a StepExecution.
	//
	// ctx: The context for the operation.
	// execution: Details of the ended StepExecution.
	RecordStepEnd(ctx context.Context, execution *model.StepExecution)

	// RecordContextResolved records a successfully resolved step execution context.
	//
	// ctx: The context for the operation.
	// mode: The run mode the context was resolved for ("BACKUP" or "RESTORE").
	RecordContextResolved(ctx context.Context, mode string)

	// RecordContextFailure records a failed context resolution.
	//
	// ctx: The context for the operation.
	// reason: A short reason label (e.g., "run_not_found", "invalid_filter").
	RecordContextFailure(ctx context.Context, reason string)

	// RecordPolicyOutcome records the outcome of the validation failure policy.
	//
	// ctx: The context for the operation.
	// stepName: The step the resource was validated in.
	// outcome: "accepted", "warning" or "failure".
	RecordPolicyOutcome(ctx context.Context, stepName string, outcome string)

	// RecordResourceFiltered records a resource excluded by the resource filter.
	//
	// ctx: The context for the operation.
	// stepName: The step the resource was filtered in.
	// kind: The catalog kind of the resource.
	RecordResourceFiltered(ctx context.Context, stepName string, kind string)

	// RecordItemWrite records resources written to an archive or a catalog.
	//
	// ctx: The context for the operation.
	// stepName: The name of the step where the items were written.
	// count: The number of items written.
	RecordItemWrite(ctx context.Context, stepName string, count int)

	// RecordDuration records the execution time of a specific operation.
	//
	// ctx: The context for the operation.
	// name: The name of the duration to record (e.g., "context_resolution").
	// duration: The length of the duration to record.
	// tags: A map of additional tags or attributes to associate with the duration.
	RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string)
}
