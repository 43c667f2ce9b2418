package usecase

import (
	"context"
	"fmt"
	"sync"

	storage "github.com/tigerroll/surfin-backuprestore/pkg/batch/adapter/storage"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/catalog"
	tasklets "github.com/tigerroll/surfin-backuprestore/pkg/batch/component/tasklet/catalog"
	port "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/application/port"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/core/backuprestore"
	model "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/model"
	repository "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/repository"
	metrics "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/metrics"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/engine/step/tasklet"
	exception "github.com/tigerroll/surfin-backuprestore/pkg/batch/support/util/exception"
	logger "github.com/tigerroll/surfin-backuprestore/pkg/batch/support/util/logger"

	"go.uber.org/fx"
)

// Job and step names of the runs started by SimpleRunLauncher.
const (
	BackupJobName   = "catalogBackup"
	RestoreJobName  = "catalogRestore"
	BackupStepName  = "backupCatalog"
	RestoreStepName = "restoreCatalog"
)

// RunLauncherParams holds the dependencies of a SimpleRunLauncher.
type RunLauncherParams struct {
	fx.In

	Repository repository.JobRepository
	Registrar  repository.RunRegistrar
	Resolver   *backuprestore.ExecutionContextResolver
	Storage    storage.StorageConnection
	Recorder   metrics.MetricRecorder `optional:"true"`
	Tracer     metrics.Tracer         `optional:"true"`

	JobListeners  []port.JobExecutionListener  `group:"job_listeners"`
	StepListeners []port.StepExecutionListener `group:"step_listeners"`
}

// SimpleRunLauncher runs backups and restores synchronously, one step each.
type SimpleRunLauncher struct {
	jobRepository repository.JobRepository
	registrar     repository.RunRegistrar
	resolver      *backuprestore.ExecutionContextResolver
	storage       storage.StorageConnection
	recorder      metrics.MetricRecorder
	tracer        metrics.Tracer
	jobListeners  []port.JobExecutionListener
	stepListeners []port.StepExecutionListener

	// activeRunCancellations holds the cancel functions for running runs.
	activeRunCancellations map[string]context.CancelFunc
	mu                     sync.Mutex
}

// NewSimpleRunLauncher creates a new SimpleRunLauncher.
func NewSimpleRunLauncher(p RunLauncherParams) *SimpleRunLauncher {
	l := &SimpleRunLauncher{
		jobRepository:          p.Repository,
		registrar:              p.Registrar,
		resolver:               p.Resolver,
		storage:                p.Storage,
		recorder:               p.Recorder,
		tracer:                 p.Tracer,
		jobListeners:           p.JobListeners,
		stepListeners:          p.StepListeners,
		activeRunCancellations: make(map[string]context.CancelFunc),
	}
	if l.recorder == nil {
		l.recorder = metrics.NewNoOpMetricRecorder()
	}
	if l.tracer == nil {
		l.tracer = metrics.NewNoOpTracer()
	}
	return l
}

// Backup implements RunLauncher.
func (l *SimpleRunLauncher) Backup(ctx context.Context, source catalog.Catalog, params model.JobParameters) (*RunReport, error) {
	bt := tasklets.NewCatalogBackupTasklet(BackupStepName, l.resolver, l.storage, l.recorder)
	report := &RunReport{Mode: model.RunModeBackup, Catalog: source}
	err := l.launch(ctx, BackupJobName, params, report, bt, bt.Listener(), func(je *model.JobExecution) error {
		_, err := l.registrar.RegisterBackup(je, source)
		return err
	})
	if report.Execution != nil {
		if tokens, ok := report.Execution.ExecutionContext.Get(backuprestore.ParameterizedFieldsKey); ok {
			report.ParameterizedFields, _ = tokens.([]string)
		}
	}
	return report, err
}

// Restore implements RunLauncher.
func (l *SimpleRunLauncher) Restore(ctx context.Context, params model.JobParameters) (*RunReport, error) {
	rt := tasklets.NewCatalogRestoreTasklet(RestoreStepName, l.resolver, l.storage, l.recorder)
	target := catalog.NewMemoryCatalog()
	report := &RunReport{Mode: model.RunModeRestore, Catalog: target}
	err := l.launch(ctx, RestoreJobName, params, report, rt, rt.Listener(), func(je *model.JobExecution) error {
		_, err := l.registrar.RegisterRestore(je, target)
		return err
	})
	return report, err
}

// Stop implements RunLauncher.
func (l *SimpleRunLauncher) Stop(executionID string) error {
	l.mu.Lock()
	cancel, ok := l.activeRunCancellations[executionID]
	l.mu.Unlock()
	if !ok {
		return fmt.Errorf("run %s is not running: %w", executionID, repository.ErrRunNotFound)
	}
	cancel()
	logger.Infof("Stop requested for run %s.", executionID)
	return nil
}

func (l *SimpleRunLauncher) launch(
	ctx context.Context,
	jobName string,
	params model.JobParameters,
	report *RunReport,
	t port.Tasklet,
	listener port.StepExecutionListener,
	register func(*model.JobExecution) error,
) error {
	const op = "SimpleRunLauncher.launch"
	logger.Infof("Launching %s run '%s'. Parameters: %s", report.Mode, jobName, params.String())

	je := model.NewJobExecution(jobName, params)
	report.Execution = je
	report.Archive = tasklets.ArchiveName(je)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	je.CancelFunc = cancel
	l.registerCancelFunc(je.ID, cancel)
	defer l.unregisterCancelFunc(je.ID)

	if err := l.jobRepository.SaveJobExecution(runCtx, je); err != nil {
		return exception.NewBatchError(op, "Failed to save JobExecution initially", err, false, false)
	}
	if err := register(je); err != nil {
		je.MarkAsFailed(err)
		l.update(runCtx, je)
		return exception.NewBatchError(op, fmt.Sprintf("Failed to register %s run", report.Mode), err, false, false)
	}
	defer l.registrar.Unregister(je.ID)

	runCtx, endSpan := l.tracer.StartJobSpan(runCtx, je)
	defer endSpan()
	l.recorder.RecordJobStart(runCtx, je)

	je.MarkAsStarted()
	l.update(runCtx, je)
	for _, jl := range l.jobListeners {
		jl.BeforeJob(runCtx, je)
	}

	stepName := BackupStepName
	if report.Mode == model.RunModeRestore {
		stepName = RestoreStepName
	}
	se := model.NewStepExecution(model.NewID(), je, stepName)
	je.AddStepExecution(se)
	je.CurrentStepName = stepName
	if err := l.jobRepository.SaveStepExecution(runCtx, se); err != nil {
		je.MarkAsFailed(err)
		l.finish(runCtx, je)
		return exception.NewBatchError(op, "Failed to save StepExecution", err, false, false)
	}

	listeners := append([]port.StepExecutionListener{listener}, l.stepListeners...)
	step := tasklet.NewTaskletStep(stepName, t, l.jobRepository,
		listeners,
		[]string{backuprestore.ParameterizedFieldsKey},
		l.recorder, l.tracer)
	err := step.Execute(runCtx, je, se)
	if err != nil && runCtx.Err() != nil {
		je.MarkAsStopped()
		je.AddFailureException(err)
		logger.Warnf("%s run %s stopped: %v", report.Mode, je.ID, err)
		runCtx = context.WithoutCancel(runCtx)
	} else if err != nil {
		je.MarkAsFailed(err)
		logger.Errorf("%s run %s failed: %v", report.Mode, je.ID, err)
	} else {
		je.MarkAsCompleted()
		logger.Infof("%s run %s completed with %d warning(s).", report.Mode, je.ID, len(je.Warnings))
	}
	l.finish(runCtx, je)
	return err
}

func (l *SimpleRunLauncher) finish(ctx context.Context, je *model.JobExecution) {
	l.update(ctx, je)
	for i := len(l.jobListeners) - 1; i >= 0; i-- {
		l.jobListeners[i].AfterJob(ctx, je)
	}
	l.recorder.RecordJobEnd(ctx, je)
}

func (l *SimpleRunLauncher) update(ctx context.Context, je *model.JobExecution) {
	if err := l.jobRepository.UpdateJobExecution(ctx, je); err != nil {
		logger.Warnf("Failed to update JobExecution (ID: %s): %v", je.ID, err)
	}
}

func (l *SimpleRunLauncher) registerCancelFunc(executionID string, cancel context.CancelFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.activeRunCancellations[executionID] = cancel
}

func (l *SimpleRunLauncher) unregisterCancelFunc(executionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.activeRunCancellations, executionID)
}

var _ RunLauncher = (*SimpleRunLauncher)(nil)
