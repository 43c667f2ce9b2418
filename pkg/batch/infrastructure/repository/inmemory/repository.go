// Package inmemory keeps execution metadata and the active backup and restore
// runs in memory. Runs only live as long as the process.
package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	model "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/model"
	repository "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/repository"
)

// InMemoryJobRepository is the run history used when no ledger database is configured.
// Stored executions are shared with the launcher; finders return copies.
type InMemoryJobRepository struct {
	mu    sync.RWMutex
	runs  map[string]*model.JobExecution
	steps map[string]*model.StepExecution
}

// NewInMemoryJobRepository creates an empty repository.
func NewInMemoryJobRepository() *InMemoryJobRepository {
	return &InMemoryJobRepository{
		runs:  make(map[string]*model.JobExecution),
		steps: make(map[string]*model.StepExecution),
	}
}

func (r *InMemoryJobRepository) SaveJobExecution(ctx context.Context, jobExecution *model.JobExecution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.runs[jobExecution.ID]; exists {
		return fmt.Errorf("run %s already exists", jobExecution.ID)
	}
	r.runs[jobExecution.ID] = jobExecution
	return nil
}

func (r *InMemoryJobRepository) UpdateJobExecution(ctx context.Context, jobExecution *model.JobExecution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.runs[jobExecution.ID]; !exists {
		return fmt.Errorf("run %s: %w", jobExecution.ID, repository.ErrJobExecutionNotFound)
	}
	r.runs[jobExecution.ID] = jobExecution
	return nil
}

func (r *InMemoryJobRepository) FindJobExecutionByID(ctx context.Context, id string) (*model.JobExecution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.runs[id]
	if !ok {
		return nil, repository.ErrJobExecutionNotFound
	}
	cloned := *run
	cloned.StepExecutions = r.stepsOf(id)
	return &cloned, nil
}

func (r *InMemoryJobRepository) FindJobExecutionsByJobName(ctx context.Context, jobName string, limit int) ([]*model.JobExecution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.JobExecution, 0)
	for _, run := range r.runs {
		if run.JobName != jobName {
			continue
		}
		cloned := *run
		cloned.StepExecutions = nil
		out = append(out, &cloned)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreateTime.After(out[j].CreateTime) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *InMemoryJobRepository) SaveStepExecution(ctx context.Context, stepExecution *model.StepExecution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.steps[stepExecution.ID]; exists {
		return fmt.Errorf("step %s already exists", stepExecution.ID)
	}
	r.steps[stepExecution.ID] = stepExecution
	return nil
}

func (r *InMemoryJobRepository) UpdateStepExecution(ctx context.Context, stepExecution *model.StepExecution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.steps[stepExecution.ID]; !exists {
		return fmt.Errorf("step %s: %w", stepExecution.ID, repository.ErrStepExecutionNotFound)
	}
	r.steps[stepExecution.ID] = stepExecution
	return nil
}

func (r *InMemoryJobRepository) FindStepExecutionByID(ctx context.Context, id string) (*model.StepExecution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	step, ok := r.steps[id]
	if !ok {
		return nil, repository.ErrStepExecutionNotFound
	}
	cloned := *step
	return &cloned, nil
}

func (r *InMemoryJobRepository) FindStepExecutionsByJobExecutionID(ctx context.Context, jobExecutionID string) ([]*model.StepExecution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stepsOf(jobExecutionID), nil
}

// stepsOf must be called with r.mu held.
func (r *InMemoryJobRepository) stepsOf(runID string) []*model.StepExecution {
	out := make([]*model.StepExecution, 0)
	for _, step := range r.steps {
		if step.RunID() == runID {
			out = append(out, step)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

// Close is a no-op.
func (r *InMemoryJobRepository) Close() error {
	return nil
}

var _ repository.JobRepository = (*InMemoryJobRepository)(nil)
