// Package port defines the contracts between the run launcher, the steps it
// executes and the listeners attached to every backup and restore run.
package port

import (
	"context"

	model "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/model"
)

// Step is one step of a backup or restore run.
type Step interface {
	// Execute runs the step. A returned error fails the step and the run.
	Execute(ctx context.Context, jobExecution *model.JobExecution, stepExecution *model.StepExecution) error
	// StepName returns the logical name of the step, e.g. "backupCatalog".
	StepName() string
	ID() string
}

// Tasklet is the unit of work of a tasklet step. The catalog backup and
// restore tasklets are the only implementations.
type Tasklet interface {
	// Execute runs the tasklet and returns the ExitStatus the step completes with.
	Execute(ctx context.Context, stepExecution *model.StepExecution) (model.ExitStatus, error)
	Close(ctx context.Context) error
	// SetExecutionContext hands the step's ExecutionContext to the tasklet before it runs.
	SetExecutionContext(ctx context.Context, ec model.ExecutionContext) error
	// GetExecutionContext returns what the tasklet wants merged back into the step's context.
	GetExecutionContext(ctx context.Context) (model.ExecutionContext, error)
}

// StepExecutionListener receives step lifecycle callbacks.
// An error returned from BeforeStep fails the step before its tasklet runs.
type StepExecutionListener interface {
	BeforeStep(ctx context.Context, stepExecution *model.StepExecution) error
	// AfterStep is called after the step body ran, whatever its outcome.
	AfterStep(ctx context.Context, stepExecution *model.StepExecution)
}

// JobExecutionListener receives run lifecycle callbacks.
type JobExecutionListener interface {
	BeforeJob(ctx context.Context, jobExecution *model.JobExecution)
	// AfterJob is called once the run reached COMPLETED or FAILED.
	AfterJob(ctx context.Context, jobExecution *model.JobExecution)
}

// Fx value groups collecting the listeners attached to every run.
const (
	JobListenerGroup  = `group:"job_listeners"`
	StepListenerGroup = `group:"step_listeners"`
)

type contextKey string

// StepExecutionKey is the context key of the running StepExecution.
const StepExecutionKey contextKey = "stepExecution"

// GetContextWithStepExecution returns a copy of ctx carrying se.
func GetContextWithStepExecution(ctx context.Context, se *model.StepExecution) context.Context {
	return context.WithValue(ctx, StepExecutionKey, se)
}

// GetStepExecutionFromContext returns the StepExecution stored in ctx, or nil.
func GetStepExecutionFromContext(ctx context.Context) *model.StepExecution {
	if se, ok := ctx.Value(StepExecutionKey).(*model.StepExecution); ok {
		return se
	}
	return nil
}
