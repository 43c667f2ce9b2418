package tasklet

import (
	"context"

	port "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/application/port"
	model "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/model"
	repository "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/repository"
	metrics "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/metrics"
	exception "github.com/tigerroll/surfin-backuprestore/pkg/batch/support/util/exception"
	logger "github.com/tigerroll/surfin-backuprestore/pkg/batch/support/util/logger"
)

// TaskletStep is an implementation of port.Step running a single Tasklet.
type TaskletStep struct {
	id                     string
	tasklet                port.Tasklet
	jobRepository          repository.JobRepository
	stepExecutionListeners []port.StepExecutionListener
	// promotedKeys are copied from the step's ExecutionContext to the job's on success.
	promotedKeys []string

	metricRecorder metrics.MetricRecorder
	tracer         metrics.Tracer
}

// NewTaskletStep creates a new TaskletStep instance.
func NewTaskletStep(
	id string,
	tasklet port.Tasklet,
	jobRepository repository.JobRepository,
	stepExecutionListeners []port.StepExecutionListener,
	promotedKeys []string,
	metricRecorder metrics.MetricRecorder,
	tracer metrics.Tracer,
) *TaskletStep {
	if metricRecorder == nil {
		metricRecorder = metrics.NewNoOpMetricRecorder()
	}
	if tracer == nil {
		tracer = metrics.NewNoOpTracer()
	}
	return &TaskletStep{
		id:                     id,
		tasklet:                tasklet,
		jobRepository:          jobRepository,
		stepExecutionListeners: stepExecutionListeners,
		promotedKeys:           promotedKeys,
		metricRecorder:         metricRecorder,
		tracer:                 tracer,
	}
}

// ID returns the step ID.
func (s *TaskletStep) ID() string {
	return s.id
}

// StepName returns the step name.
func (s *TaskletStep) StepName() string {
	return s.id
}

// notifyBeforeStep calls BeforeStep on each listener in order and stops at the
// first error. It returns how many listeners were notified.
func (s *TaskletStep) notifyBeforeStep(ctx context.Context, stepExecution *model.StepExecution) (int, error) {
	for i, l := range s.stepExecutionListeners {
		if err := l.BeforeStep(ctx, stepExecution); err != nil {
			return i + 1, err
		}
	}
	return len(s.stepExecutionListeners), nil
}

// notifyAfterStep calls AfterStep, in reverse order, on the first n listeners.
func (s *TaskletStep) notifyAfterStep(ctx context.Context, stepExecution *model.StepExecution, n int) {
	for i := n - 1; i >= 0; i-- {
		s.stepExecutionListeners[i].AfterStep(ctx, stepExecution)
	}
}

// Execute runs the Tasklet. A listener failing in BeforeStep fails the step
// without running the Tasklet. A Tasklet error raised after ctx was cancelled
// stops the step instead of failing it.
func (s *TaskletStep) Execute(ctx context.Context, jobExecution *model.JobExecution, stepExecution *model.StepExecution) (err error) {
	ctx, endSpan := s.tracer.StartStepSpan(ctx, stepExecution)
	defer endSpan()
	ctx = port.GetContextWithStepExecution(ctx, stepExecution)

	logger.Infof("TaskletStep '%s' executing.", s.id)
	s.metricRecorder.RecordStepStart(ctx, stepExecution)
	defer func() { s.metricRecorder.RecordStepEnd(ctx, stepExecution) }()

	// 1. Update StepExecution status to STARTED
	stepExecution.MarkAsStarted()
	if err := s.jobRepository.UpdateStepExecution(ctx, stepExecution); err != nil {
		return exception.NewBatchError(s.id, "Failed to update StepExecution status to STARTED", err, false, false)
	}

	// 2. Set Tasklet Execution Context
	if err := s.tasklet.SetExecutionContext(ctx, stepExecution.ExecutionContext); err != nil {
		stepExecution.MarkAsFailed(err)
		s.persist(ctx, stepExecution)
		return exception.NewBatchError(s.id, "Failed to set Tasklet ExecutionContext", err, false, false)
	}

	// 3. Listener notification (BeforeStep)
	notified, err := s.notifyBeforeStep(ctx, stepExecution)

	// 4. Execute Tasklet
	var exitStatus model.ExitStatus
	if err == nil {
		exitStatus, err = s.tasklet.Execute(ctx, stepExecution)

		if taskletEC, getErr := s.tasklet.GetExecutionContext(ctx); getErr == nil {
			stepExecution.ExecutionContext = taskletEC
		} else {
			logger.Warnf("TaskletStep '%s': Failed to retrieve ExecutionContext from Tasklet: %v", s.id, getErr)
		}
	} else {
		logger.Errorf("TaskletStep '%s': step listener failed, tasklet not run: %v", s.id, err)
	}

	// 5. Close Tasklet
	if closeErr := s.tasklet.Close(ctx); closeErr != nil {
		logger.Errorf("TaskletStep '%s': Failed to close Tasklet: %v", s.id, closeErr)
		if err == nil {
			err = closeErr
		}
	}

	// 6. Update StepExecution status
	if err != nil && ctx.Err() != nil {
		logger.Warnf("TaskletStep '%s' stopped: %v", s.id, err)
		stepExecution.MarkAsStopped()
		ctx = context.WithoutCancel(ctx)
	} else if err != nil {
		s.tracer.RecordError(ctx, s.id, err)
		stepExecution.MarkAsFailed(err)
	} else {
		stepExecution.MarkAsCompleted(exitStatus)
		s.promote(jobExecution, stepExecution)
	}

	// 7. Listener notification (AfterStep)
	s.notifyAfterStep(ctx, stepExecution, notified)

	// 8. Persistence
	if updateErr := s.jobRepository.UpdateStepExecution(ctx, stepExecution); updateErr != nil {
		logger.Errorf("TaskletStep '%s': Failed to update final StepExecution state: %v", s.id, updateErr)
		if err == nil {
			err = updateErr
		}
	}

	logger.Infof("TaskletStep '%s' finished. ExitStatus: %s", s.id, stepExecution.ExitStatus)
	return err
}

func (s *TaskletStep) persist(ctx context.Context, stepExecution *model.StepExecution) {
	if err := s.jobRepository.UpdateStepExecution(ctx, stepExecution); err != nil {
		logger.Errorf("TaskletStep '%s': Failed to update StepExecution: %v", s.id, err)
	}
}

// promote copies the promoted keys present in the step's ExecutionContext to the job's.
func (s *TaskletStep) promote(jobExecution *model.JobExecution, stepExecution *model.StepExecution) {
	if jobExecution == nil || len(s.promotedKeys) == 0 {
		return
	}
	if jobExecution.ExecutionContext == nil {
		jobExecution.ExecutionContext = model.NewExecutionContext()
	}
	for _, key := range s.promotedKeys {
		if v, ok := stepExecution.ExecutionContext.Get(key); ok {
			jobExecution.ExecutionContext.Put(key, v)
			logger.Debugf("TaskletStep '%s': promoted '%s' to the job ExecutionContext.", s.id, key)
		}
	}
}

// Verify that TaskletStep implements the port.Step interface.
var _ port.Step = (*TaskletStep)(nil)
