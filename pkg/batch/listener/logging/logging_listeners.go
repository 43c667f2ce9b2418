package logging

import (
	"context"

	port "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/application/port"
	model "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/model"
	logger "github.com/tigerroll/surfin-backuprestore/pkg/batch/support/util/logger"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/support/util/serialization"
)

// --- Job Execution Listener ---

// LoggingJobListener logs the start and the outcome of every run.
type LoggingJobListener struct{}

func NewLoggingJobListener() *LoggingJobListener {
	return &LoggingJobListener{}
}

func (l *LoggingJobListener) BeforeJob(ctx context.Context, jobExecution *model.JobExecution) {
	logger.Infof("JobExecutionListener: BeforeJob - JobName: %s, ID: %s, Params: %v",
		jobExecution.JobName, jobExecution.ID, serialization.GetMaskedJobParametersMap(jobExecution.Parameters.Params))
}

func (l *LoggingJobListener) AfterJob(ctx context.Context, jobExecution *model.JobExecution) {
	logger.Infof("JobExecutionListener: AfterJob - JobName: %s, Status: %s, ExitStatus: %s, Warnings: %d, Failures: %d",
		jobExecution.JobName, jobExecution.Status, jobExecution.ExitStatus, len(jobExecution.Warnings), len(jobExecution.Failures))
	for _, f := range jobExecution.Failures {
		logger.Errorf("JobExecutionListener: %s failed: %s", jobExecution.ID, f)
	}
}

var _ port.JobExecutionListener = (*LoggingJobListener)(nil)

// --- Step Execution Listener ---

// LoggingStepListener logs the counters of every step.
type LoggingStepListener struct{}

func NewLoggingStepListener() *LoggingStepListener {
	return &LoggingStepListener{}
}

func (l *LoggingStepListener) BeforeStep(ctx context.Context, stepExecution *model.StepExecution) error {
	logger.Infof("StepExecutionListener: BeforeStep - StepName: %s, ID: %s", stepExecution.StepName, stepExecution.ID)
	return nil
}

func (l *LoggingStepListener) AfterStep(ctx context.Context, stepExecution *model.StepExecution) {
	logger.Infof("StepExecutionListener: AfterStep - StepName: %s, Status: %s, Read: %d, Written: %d, Filtered: %d, Skipped: %d",
		stepExecution.StepName, stepExecution.Status, stepExecution.ReadCount, stepExecution.WriteCount,
		stepExecution.FilterCount, stepExecution.SkipProcessCount)
}

var _ port.StepExecutionListener = (*LoggingStepListener)(nil)
