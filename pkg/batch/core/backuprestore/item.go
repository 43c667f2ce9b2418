package backuprestore

import (
	"context"
	"sync"

	"github.com/tigerroll/surfin-backuprestore/pkg/batch/catalog"
	port "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/application/port"
	model "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/model"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/support/util/exception"
)

// Initializer is implemented by steps that need the resolved context before they run.
type Initializer interface {
	Initialize(ctx context.Context, sc *StepContext) error
}

// Item is the base of every backup and restore step. Registered as a step
// listener, it resolves the step's context before the step body runs and
// releases it afterwards.
type Item struct {
	resolver    *ExecutionContextResolver
	initializer Initializer

	mu      sync.RWMutex
	current *StepContext
}

// NewItem creates an Item. initializer may be nil.
func NewItem(resolver *ExecutionContextResolver, initializer Initializer) *Item {
	return &Item{resolver: resolver, initializer: initializer}
}

// BeforeStep implements port.StepExecutionListener.
func (i *Item) BeforeStep(ctx context.Context, stepExecution *model.StepExecution) error {
	sc, err := i.resolver.Resolve(ctx, stepExecution)
	if err != nil {
		return err
	}
	i.mu.Lock()
	i.current = sc
	i.mu.Unlock()

	if i.initializer != nil {
		if err := i.initializer.Initialize(ctx, sc); err != nil {
			return err
		}
	}
	return nil
}

// AfterStep implements port.StepExecutionListener.
func (i *Item) AfterStep(ctx context.Context, stepExecution *model.StepExecution) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.current != nil {
		i.current.Close()
		i.current = nil
	}
}

// Context returns the context of the running step, or nil outside of a step.
func (i *Item) Context() *StepContext {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.current
}

// Included reports whether resource takes part in the running step.
func (i *Item) Included(ctx context.Context, resource interface{}, ws *catalog.WorkspaceInfo, strict bool) bool {
	sc := i.Context()
	if sc == nil {
		return true
	}
	return sc.Included(ctx, resource, ws, strict)
}

// LogValidationExceptions hands a failed validation to the policy. The
// returned bool is always false: the resource is not accepted.
func (i *Item) LogValidationExceptions(ctx context.Context, result *catalog.ValidationResult, err error) (bool, error) {
	sc := i.Context()
	if sc == nil {
		return false, exception.NewPreconditionError(resolverModule, "no step context", err)
	}
	var resource interface{}
	if result != nil {
		resource = result.Resource
	}
	outcome, err := sc.Policy.Handle(ctx, result, err, resource)
	return outcome.Accepted(), err
}

// LogInvalidResource hands a resource that could not be processed to the policy.
func (i *Item) LogInvalidResource(ctx context.Context, resource interface{}, cause error) (bool, error) {
	sc := i.Context()
	if sc == nil {
		return false, exception.NewPreconditionError(resolverModule, "no step context", cause)
	}
	outcome, err := sc.Policy.HandleInvalid(ctx, resource, cause)
	return outcome.Accepted(), err
}

var _ port.StepExecutionListener = (*Item)(nil)
