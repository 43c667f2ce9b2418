package metrics

import (
	"context"

	model "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/model"
)

// Tracer opens spans for runs and steps and annotates them with resolver and
// policy events.
type Tracer interface {
	// StartJobSpan returns ctx carrying the run's span and the function ending it.
	StartJobSpan(ctx context.Context, execution *model.JobExecution) (context.Context, func())
	// StartStepSpan returns ctx carrying the step's span and the function ending it.
	StartStepSpan(ctx context.Context, execution *model.StepExecution) (context.Context, func())

	// RecordError marks the current span as failed. module names the component,
	// e.g. "resolver" or "policy".
	RecordError(ctx context.Context, module string, err error)

	// RecordEvent adds an event such as "context_resolved" or "validation_warning"
	// to the current span.
	RecordEvent(ctx context.Context, name string, attributes map[string]interface{})
}
