package backuprestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tigerroll/surfin-backuprestore/pkg/batch/catalog"
	config "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/config"
	model "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/model"
	repository "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/repository"
	metrics "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/metrics"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/support/util/exception"
	logger "github.com/tigerroll/surfin-backuprestore/pkg/batch/support/util/logger"

	"go.uber.org/fx"
)

const resolverModule = "resolver"

// PersisterFactory creates the serializer bound to a catalog.
type PersisterFactory func(cat catalog.Catalog) *catalog.Persister

// ResolverParams holds the dependencies of an ExecutionContextResolver.
type ResolverParams struct {
	fx.In

	Backups  repository.BackupRunRegistry
	Restores repository.RestoreRunRegistry
	Config   *config.BackupRestoreConfig
	Recorder metrics.MetricRecorder
	Tracer   metrics.Tracer

	// Ledger receives a durable copy of every ledger entry.
	Ledger    repository.RunLedger `optional:"true"`
	Persister PersisterFactory     `optional:"true"`
	Validator *catalog.Validator   `optional:"true"`
}

// ExecutionContextResolver builds the StepContext of a step from the run it belongs to.
// Nothing is cached: every call looks the run up again.
type ExecutionContextResolver struct {
	backups   repository.BackupRunRegistry
	restores  repository.RestoreRunRegistry
	cfg       *config.BackupRestoreConfig
	recorder  metrics.MetricRecorder
	tracer    metrics.Tracer
	ledger    repository.RunLedger
	persister PersisterFactory
	validator *catalog.Validator
}

// NewExecutionContextResolver creates a resolver. A missing persister factory
// is reported when a context is resolved, not here.
func NewExecutionContextResolver(p ResolverParams) *ExecutionContextResolver {
	r := &ExecutionContextResolver{
		backups:   p.Backups,
		restores:  p.Restores,
		cfg:       p.Config,
		recorder:  p.Recorder,
		tracer:    p.Tracer,
		ledger:    p.Ledger,
		persister: p.Persister,
		validator: p.Validator,
	}
	if r.cfg == nil {
		r.cfg = &config.NewConfig().Surfin.BackupRestore
	}
	if r.recorder == nil {
		r.recorder = metrics.NewNoOpMetricRecorder()
	}
	if r.tracer == nil {
		r.tracer = metrics.NewNoOpTracer()
	}
	if r.validator == nil {
		r.validator = catalog.NewValidator()
	}
	return r
}

// DefaultPersisterFactory binds a plain catalog.Persister.
func DefaultPersisterFactory(cat catalog.Catalog) *catalog.Persister {
	return catalog.NewPersister(cat)
}

// Resolve builds the context of stepExecution. It fails with an
// exception.ErrPrecondition error when the run is unknown, has no catalog,
// no serializer is available or the filter cannot be parsed.
func (r *ExecutionContextResolver) Resolve(ctx context.Context, stepExecution *model.StepExecution) (*StepContext, error) {
	start := time.Now()

	runID := stepExecution.RunID()
	if runID == "" {
		return nil, r.fail(ctx, "no_run", "step '%s' is not attached to a run", nil, stepExecution.StepName)
	}

	sc := &StepContext{Step: stepExecution}
	if run, err := r.restores.FindRestoreRun(ctx, runID); err == nil {
		sc.Mode = model.RunModeRestore
		sc.Run = run.Execution
		sc.Catalog = run.Catalog
		sc.IsNew = true
	} else if !errors.Is(err, repository.ErrRunNotFound) {
		return nil, r.fail(ctx, "registry", "failed to look up restore run %s", err, runID)
	} else if run, err := r.backups.FindBackupRun(ctx, runID); err == nil {
		sc.Mode = model.RunModeBackup
		sc.Run = run.Execution
		sc.Catalog = run.Catalog
	} else if !errors.Is(err, repository.ErrRunNotFound) {
		return nil, r.fail(ctx, "registry", "failed to look up backup run %s", err, runID)
	} else {
		return nil, r.fail(ctx, "run_not_found", "no catalog bound for run %s", repository.ErrRunNotFound, runID)
	}

	if sc.Catalog == nil {
		return nil, r.fail(ctx, "catalog_unbound", "%s run %s has no catalog", nil, sc.Mode, runID)
	}
	if sc.Run == nil {
		sc.Run = stepExecution.JobExecution
	}
	if sc.Run == nil {
		return nil, r.fail(ctx, "no_run", "%s run %s has no execution", nil, sc.Mode, runID)
	}
	if r.persister == nil {
		return nil, r.fail(ctx, "no_serializer", "no serializer available for run %s", nil, runID)
	}

	params, err := NewJobParameterSet(sc.Run.Parameters, r.cfg.ReplacementSeparator)
	if err != nil {
		return nil, r.fail(ctx, "invalid_parameters", "invalid job parameters for run %s", err, runID)
	}
	sc.Params = params
	sc.SerializationMode = model.SerializationModeFor(sc.Mode)

	filter, err := CompileFilter(params.FilterExpression())
	if err != nil {
		return nil, r.fail(ctx, "invalid_filter", "Filter is not valid!", err)
	}
	sc.Filter = filter

	sc.Persister = r.persister(sc.Catalog)
	if sc.Persister == nil {
		return nil, r.fail(ctx, "no_serializer", "no serializer available for run %s", nil, runID)
	}
	sc.Persister.SetExcludeIDs(sc.SerializationMode == model.ExcludeIDs)
	sc.Persister.SetReferenceByName(true)

	if params.ParameterizePasswords() {
		switch sc.Mode {
		case model.RunModeRestore:
			sc.TokenCodec = NewCredentialTokenCodec(params.ConcatenatedPasswordTokens(), params.ReplacementSeparator())
			err = RegisterDecodeTransforms(sc.Persister, sc.TokenCodec)
		case model.RunModeBackup:
			sc.Tokenizer = NewCredentialTokenizer(r.cfg.SensitiveConnectionKeys)
			err = RegisterEncodeTransforms(sc.Persister, sc.Tokenizer)
		}
		if err != nil {
			sc.Close()
			return nil, r.fail(ctx, "no_serializer", "failed to register credential transforms", err)
		}
	}

	sc.Validator = r.validator
	sc.Evaluator = NewResourceFilterEvaluator(filter, stepExecution.StepName, r.recorder)
	sc.Ledger = NewExecutionLedger(sc.Run)
	var ledger repository.RunLedger = sc.Ledger
	if r.ledger != nil {
		ledger = MultiLedger{sc.Ledger, r.ledger}
	}
	sc.Policy = NewValidationFailurePolicy(params.BestEffort(), stepExecution, ledger, r.recorder, r.tracer)

	r.recorder.RecordContextResolved(ctx, sc.Mode.String())
	r.recorder.RecordDuration(ctx, "context_resolution", time.Since(start), map[string]string{"mode": sc.Mode.String()})
	r.tracer.RecordEvent(ctx, "context_resolved", map[string]interface{}{
		"run_id":      runID,
		"mode":        sc.Mode.String(),
		"dry_run":     params.DryRun(),
		"best_effort": params.BestEffort(),
		"filtered":    filter != nil,
	})
	logger.Infof("Resolved %s context for step '%s' of run %s. Parameters: %s",
		sc.Mode, stepExecution.StepName, runID, sc.Run.Parameters.String())

	return sc, nil
}

func (r *ExecutionContextResolver) fail(ctx context.Context, reason, format string, cause error, args ...interface{}) error {
	err := exception.NewPreconditionError(resolverModule, fmt.Sprintf(format, args...), cause)
	r.recorder.RecordContextFailure(ctx, reason)
	r.tracer.RecordError(ctx, resolverModule, err)
	logger.Errorf("Context resolution failed: %v", err)
	return err
}
