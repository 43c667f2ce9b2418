package test

import (
	"context"
	"sync"

	metrics "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/metrics"
)

// CountingMetricRecorder counts the backup/restore specific metric calls.
type CountingMetricRecorder struct {
	metrics.NoOpMetricRecorder

	mu             sync.Mutex
	Resolved       map[string]int
	Failures       map[string]int
	PolicyOutcomes map[string]int
	Filtered       map[string]int
	ItemsWritten   int
}

// NewCountingMetricRecorder creates an empty CountingMetricRecorder.
func NewCountingMetricRecorder() *CountingMetricRecorder {
	return &CountingMetricRecorder{
		Resolved:       make(map[string]int),
		Failures:       make(map[string]int),
		PolicyOutcomes: make(map[string]int),
		Filtered:       make(map[string]int),
	}
}

func (r *CountingMetricRecorder) RecordContextResolved(ctx context.Context, mode string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Resolved[mode]++
}

func (r *CountingMetricRecorder) RecordContextFailure(ctx context.Context, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Failures[reason]++
}

func (r *CountingMetricRecorder) RecordPolicyOutcome(ctx context.Context, stepName string, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.PolicyOutcomes[outcome]++
}

func (r *CountingMetricRecorder) RecordResourceFiltered(ctx context.Context, stepName string, kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Filtered[kind]++
}

func (r *CountingMetricRecorder) RecordItemWrite(ctx context.Context, stepName string, count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ItemsWritten += count
}

var _ metrics.MetricRecorder = (*CountingMetricRecorder)(nil)
