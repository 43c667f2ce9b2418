package backuprestore

import (
	"context"

	"github.com/tigerroll/surfin-backuprestore/pkg/batch/catalog"
	model "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/model"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/support/util/cql"
)

// ParameterizedFieldsKey is the job ExecutionContext key listing the
// placeholders a backup wrote in place of credentials.
const ParameterizedFieldsKey = "backupRestoreParameterizedFields"

// StepContext is everything a backup or restore step needs, resolved fresh
// for every step execution. Catalog is never nil.
type StepContext struct {
	Run               *model.JobExecution
	Step              *model.StepExecution
	Mode              model.RunMode
	Catalog           catalog.Catalog
	IsNew             bool
	SerializationMode model.SerializationMode
	Persister         *catalog.Persister
	Validator         *catalog.Validator
	Params            JobParameterSet

	// TokenCodec is set for restores with parameterized passwords.
	TokenCodec *CredentialTokenCodec
	// Tokenizer is set for backups with parameterized passwords.
	Tokenizer *CredentialTokenizer

	Filter    cql.Filter
	Evaluator *ResourceFilterEvaluator
	Policy    *ValidationFailurePolicy
	Ledger    *ExecutionLedger
}

// IsDryRun reports whether the step must skip persistence.
func (sc *StepContext) IsDryRun() bool { return sc.Params.DryRun() }

// IsBestEffort reports whether validation problems are downgraded to warnings.
func (sc *StepContext) IsBestEffort() bool { return sc.Params.BestEffort() }

// Included reports whether resource takes part in the step.
func (sc *StepContext) Included(ctx context.Context, resource interface{}, ws *catalog.WorkspaceInfo, strict bool) bool {
	return sc.Evaluator.Included(ctx, resource, ws, strict)
}

// Validate validates info against the bound catalog.
func (sc *StepContext) Validate(info catalog.Info) *catalog.ValidationResult {
	return sc.Validator.Validate(sc.Catalog, info, sc.IsNew)
}

// Close releases the sealed credential values of the context.
func (sc *StepContext) Close() {
	if sc.TokenCodec != nil {
		sc.TokenCodec.Destroy()
	}
}
