package backuprestore

import (
	"context"
	"strings"

	"github.com/tigerroll/surfin-backuprestore/pkg/batch/catalog"
	metrics "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/metrics"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/support/util/cql"
	logger "github.com/tigerroll/surfin-backuprestore/pkg/batch/support/util/logger"
)

// CompileFilter parses text when it references a name predicate. Text that
// does not contain "name" yields no filter and no error.
func CompileFilter(text string) (cql.Filter, error) {
	if text == "" {
		return nil, nil
	}
	if !strings.Contains(text, "name") {
		logger.Debugf("Ignoring filter without a name predicate: %s", text)
		return nil, nil
	}
	return cql.Parse(text)
}

// WorkspaceFeature exposes a workspace to filter evaluation.
type WorkspaceFeature struct {
	Workspace *catalog.WorkspaceInfo
}

// Property implements cql.Feature.
func (w WorkspaceFeature) Property(name string) (interface{}, bool) {
	switch name {
	case "name":
		return w.Workspace.Name, true
	case "id":
		return w.Workspace.ID, true
	case "isolated":
		return w.Workspace.Isolated, true
	}
	return nil, false
}

// ResourceFilterEvaluator decides whether a resource is in scope, testing the
// filter against the resource's owning workspace only.
type ResourceFilterEvaluator struct {
	filter   cql.Filter
	stepName string
	recorder metrics.MetricRecorder
}

// NewResourceFilterEvaluator creates an evaluator. filter may be nil.
func NewResourceFilterEvaluator(filter cql.Filter, stepName string, recorder metrics.MetricRecorder) *ResourceFilterEvaluator {
	if recorder == nil {
		recorder = metrics.NewNoOpMetricRecorder()
	}
	return &ResourceFilterEvaluator{filter: filter, stepName: stepName, recorder: recorder}
}

// Filter returns the compiled filter or nil.
func (e *ResourceFilterEvaluator) Filter() cql.Filter { return e.filter }

// Included reports whether resource takes part in the step. Without a filter
// everything is included. With one, a resource is excluded when strict is set
// and it has no workspace, or when its workspace does not match.
func (e *ResourceFilterEvaluator) Included(ctx context.Context, resource interface{}, ws *catalog.WorkspaceInfo, strict bool) bool {
	if e.filter == nil {
		return true
	}
	if (strict && ws == nil) || (ws != nil && !e.filter.Evaluate(WorkspaceFeature{Workspace: ws})) {
		logger.Infof("Skipped filtered resource: %v", resource)
		e.recorder.RecordResourceFiltered(ctx, e.stepName, kindOf(resource))
		return false
	}
	return true
}

func kindOf(resource interface{}) string {
	if info, ok := resource.(catalog.Info); ok {
		return string(info.Kind())
	}
	return "unknown"
}
