package backuprestore

import (
	"context"
	"fmt"

	"github.com/tigerroll/surfin-backuprestore/pkg/batch/catalog"
	model "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/model"
	repository "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/repository"
	metrics "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/metrics"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/support/util/exception"
	logger "github.com/tigerroll/surfin-backuprestore/pkg/batch/support/util/logger"
)

// OutcomeKind is the decision taken for one problematic resource.
type OutcomeKind int

const (
	OutcomeAccepted OutcomeKind = iota
	OutcomeWarning
	OutcomeFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeWarning:
		return "warning"
	case OutcomeFailure:
		return "failure"
	}
	return "unknown"
}

// Outcome is the result of handing a validation problem to the policy.
type Outcome struct {
	Kind OutcomeKind
	// Err is the error recorded in the ledger.
	Err error
}

// Accepted reports whether the caller may keep the resource. The policy never accepts.
func (o Outcome) Accepted() bool { return o.Kind == OutcomeAccepted }

// ValidationFailurePolicy turns validation problems into step failures (strict)
// or recorded warnings (best effort). Every problem is recorded in the ledger
// before the decision is returned.
type ValidationFailurePolicy struct {
	bestEffort    bool
	stepExecution *model.StepExecution
	ledger        repository.RunLedger
	recorder      metrics.MetricRecorder
	tracer        metrics.Tracer
}

// NewValidationFailurePolicy creates a policy for one step. recorder and tracer may be nil.
func NewValidationFailurePolicy(bestEffort bool, stepExecution *model.StepExecution, ledger repository.RunLedger, recorder metrics.MetricRecorder, tracer metrics.Tracer) *ValidationFailurePolicy {
	if recorder == nil {
		recorder = metrics.NewNoOpMetricRecorder()
	}
	if tracer == nil {
		tracer = metrics.NewNoOpTracer()
	}
	return &ValidationFailurePolicy{
		bestEffort:    bestEffort,
		stepExecution: stepExecution,
		ledger:        ledger,
		recorder:      recorder,
		tracer:        tracer,
	}
}

// BestEffort reports the policy mode.
func (p *ValidationFailurePolicy) BestEffort() bool { return p.bestEffort }

// Handle processes a failed validation. In strict mode the returned error is
// the first violation of result, or err itself when result carries none.
func (p *ValidationFailurePolicy) Handle(ctx context.Context, result *catalog.ValidationResult, err error, resource interface{}) (Outcome, error) {
	cause := err
	if cause == nil {
		cause = result.FirstViolation()
	}
	var recorded *exception.CatalogError
	if cause == nil {
		recorded = exception.NewInvalidResourceError(resource)
	} else {
		recorded = exception.NewCatalogError(cause)
	}

	outcome := p.record(ctx, recorded, resource)
	if outcome.Kind == OutcomeWarning {
		return outcome, nil
	}
	if first := result.FirstViolation(); first != nil {
		return outcome, exception.NewCatalogError(first)
	}
	if err != nil {
		return outcome, err
	}
	return outcome, recorded
}

// HandleInvalid processes a resource that could not be validated at all, for
// example because it failed to deserialize.
func (p *ValidationFailurePolicy) HandleInvalid(ctx context.Context, resource interface{}, cause error) (Outcome, error) {
	var recorded *exception.CatalogError
	if cause == nil {
		recorded = exception.NewInvalidResourceError(resource)
	} else {
		recorded = exception.NewCatalogError(cause)
	}

	outcome := p.record(ctx, recorded, resource)
	if outcome.Kind == OutcomeWarning {
		return outcome, nil
	}
	return outcome, recorded
}

func (p *ValidationFailurePolicy) record(ctx context.Context, err error, resource interface{}) Outcome {
	kind := model.LedgerFailure
	outcome := Outcome{Kind: OutcomeFailure, Err: err}
	if p.bestEffort {
		kind = model.LedgerWarning
		outcome.Kind = OutcomeWarning
	}

	entry := model.NewLedgerEntry(p.stepExecution, kind, describe(resource), err)
	if p.ledger != nil {
		if lerr := p.ledger.Record(ctx, entry); lerr != nil {
			logger.Errorf("Failed to record %s for %s: %v", kind, entry.Resource, lerr)
		}
	}

	stepName := ""
	if p.stepExecution != nil {
		stepName = p.stepExecution.StepName
	}
	p.recorder.RecordPolicyOutcome(ctx, stepName, outcome.Kind.String())
	p.tracer.RecordEvent(ctx, "validation_"+outcome.Kind.String(), map[string]interface{}{
		"resource": entry.Resource,
		"message":  entry.Message,
	})
	if outcome.Kind == OutcomeWarning {
		logger.Warnf("Best effort: skipping %s: %v", entry.Resource, err)
	} else {
		logger.Errorf("Validation failed for %s: %v", entry.Resource, err)
	}
	return outcome
}

func describe(resource interface{}) string {
	if resource == nil {
		return "<unknown>"
	}
	return fmt.Sprint(resource)
}
