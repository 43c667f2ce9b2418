package inmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/tigerroll/surfin-backuprestore/pkg/batch/catalog"
	model "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/model"
	repository "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/repository"
)

// RunRegistry tracks the active backup and restore runs by execution ID.
// A run is registered in at most one of the two maps.
type RunRegistry struct {
	mu       sync.RWMutex
	backups  map[string]*repository.BackupRun
	restores map[string]*repository.RestoreRun
}

// NewRunRegistry creates an empty registry.
func NewRunRegistry() *RunRegistry {
	return &RunRegistry{
		backups:  make(map[string]*repository.BackupRun),
		restores: make(map[string]*repository.RestoreRun),
	}
}

// RegisterBackup registers execution as a backup reading cat.
func (r *RunRegistry) RegisterBackup(execution *model.JobExecution, cat catalog.Catalog) (*repository.BackupRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkFree(execution.ID); err != nil {
		return nil, err
	}
	run := &repository.BackupRun{Execution: execution, Catalog: cat}
	r.backups[execution.ID] = run
	return run, nil
}

// RegisterRestore registers execution as a restore writing into cat.
func (r *RunRegistry) RegisterRestore(execution *model.JobExecution, cat catalog.Catalog) (*repository.RestoreRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkFree(execution.ID); err != nil {
		return nil, err
	}
	run := &repository.RestoreRun{Execution: execution, Catalog: cat}
	r.restores[execution.ID] = run
	return run, nil
}

func (r *RunRegistry) checkFree(id string) error {
	if id == "" {
		return fmt.Errorf("run has no execution ID")
	}
	if _, ok := r.backups[id]; ok {
		return fmt.Errorf("run %s is already registered as a backup", id)
	}
	if _, ok := r.restores[id]; ok {
		return fmt.Errorf("run %s is already registered as a restore", id)
	}
	return nil
}

// Unregister removes the run with the given ID from both maps.
func (r *RunRegistry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.backups, id)
	delete(r.restores, id)
}

// FindBackupRun implements repository.BackupRunRegistry.
func (r *RunRegistry) FindBackupRun(ctx context.Context, id string) (*repository.BackupRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if run, ok := r.backups[id]; ok {
		return run, nil
	}
	return nil, repository.ErrRunNotFound
}

// FindRestoreRun implements repository.RestoreRunRegistry.
func (r *RunRegistry) FindRestoreRun(ctx context.Context, id string) (*repository.RestoreRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if run, ok := r.restores[id]; ok {
		return run, nil
	}
	return nil, repository.ErrRunNotFound
}

var (
	_ repository.BackupRunRegistry  = (*RunRegistry)(nil)
	_ repository.RestoreRunRegistry = (*RunRegistry)(nil)
	_ repository.RunRegistrar       = (*RunRegistry)(nil)
)
