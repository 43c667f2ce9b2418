package repository

import (
	"context"
	"errors"

	model "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/model"
)

var (
	// ErrJobExecutionNotFound is returned when no run is stored under an execution ID.
	ErrJobExecutionNotFound = errors.New("job execution not found")
	// ErrStepExecutionNotFound is returned when no step is stored under an execution ID.
	ErrStepExecutionNotFound = errors.New("step execution not found")
)

// RunHistory stores backup and restore runs.
type RunHistory interface {
	SaveJobExecution(ctx context.Context, jobExecution *model.JobExecution) error
	UpdateJobExecution(ctx context.Context, jobExecution *model.JobExecution) error

	// FindJobExecutionByID returns the run with its steps in start order.
	FindJobExecutionByID(ctx context.Context, executionID string) (*model.JobExecution, error)

	// FindJobExecutionsByJobName returns the most recent runs of jobName, newest
	// first. A limit of 0 returns every run. Steps are not loaded.
	FindJobExecutionsByJobName(ctx context.Context, jobName string, limit int) ([]*model.JobExecution, error)
}

// StepHistory stores the steps of backup and restore runs.
type StepHistory interface {
	SaveStepExecution(ctx context.Context, stepExecution *model.StepExecution) error
	UpdateStepExecution(ctx context.Context, stepExecution *model.StepExecution) error
	FindStepExecutionByID(ctx context.Context, executionID string) (*model.StepExecution, error)

	// FindStepExecutionsByJobExecutionID returns the steps of a run in start order.
	FindStepExecutionsByJobExecutionID(ctx context.Context, jobExecutionID string) ([]*model.StepExecution, error)
}

// JobRepository persists execution metadata of backup and restore runs.
type JobRepository interface {
	RunHistory
	StepHistory

	// Close releases resources (such as database connections) used by the repository.
	Close() error
}

// RunLedger stores failure and warning entries raised while validating catalog resources.
type RunLedger interface {
	// Record appends an entry. Implementations must be safe for concurrent use.
	Record(ctx context.Context, entry model.LedgerEntry) error
}
