package inmemory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tigerroll/surfin-backuprestore/pkg/batch/catalog"
	model "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/model"
	repository "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/repository"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/infrastructure/repository/inmemory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunRegistry_RegisterAndFind(t *testing.T) {
	ctx := context.Background()
	reg := inmemory.NewRunRegistry()
	production := catalog.NewMemoryCatalog()

	backup := model.NewJobExecution("catalogBackup", model.NewJobParameters())
	restore := model.NewJobExecution("catalogRestore", model.NewJobParameters())

	_, err := reg.RegisterBackup(backup, production)
	require.NoError(t, err)
	_, err = reg.RegisterRestore(restore, catalog.NewMemoryCatalog())
	require.NoError(t, err)

	run, err := reg.FindBackupRun(ctx, backup.ID)
	require.NoError(t, err)
	assert.Same(t, production, run.Catalog)

	_, err = reg.FindRestoreRun(ctx, backup.ID)
	assert.True(t, errors.Is(err, repository.ErrRunNotFound))

	rrun, err := reg.FindRestoreRun(ctx, restore.ID)
	require.NoError(t, err)
	assert.NotSame(t, production, rrun.Catalog)

	reg.Unregister(backup.ID)
	_, err = reg.FindBackupRun(ctx, backup.ID)
	assert.True(t, errors.Is(err, repository.ErrRunNotFound))
}

func TestRunRegistry_RejectsDoubleRegistration(t *testing.T) {
	reg := inmemory.NewRunRegistry()
	je := model.NewJobExecution("catalogBackup", model.NewJobParameters())

	_, err := reg.RegisterBackup(je, catalog.NewMemoryCatalog())
	require.NoError(t, err)
	_, err = reg.RegisterRestore(je, catalog.NewMemoryCatalog())
	assert.Error(t, err)
	_, err = reg.RegisterBackup(je, catalog.NewMemoryCatalog())
	assert.Error(t, err)
}

func TestRunRegistry_ConcurrentRuns(t *testing.T) {
	ctx := context.Background()
	reg := inmemory.NewRunRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(restore bool) {
			defer wg.Done()
			je := model.NewJobExecution("run", model.NewJobParameters())
			if restore {
				_, err := reg.RegisterRestore(je, catalog.NewMemoryCatalog())
				assert.NoError(t, err)
				_, err = reg.FindRestoreRun(ctx, je.ID)
				assert.NoError(t, err)
			} else {
				_, err := reg.RegisterBackup(je, catalog.NewMemoryCatalog())
				assert.NoError(t, err)
				_, err = reg.FindBackupRun(ctx, je.ID)
				assert.NoError(t, err)
			}
			reg.Unregister(je.ID)
		}(i%2 == 0)
	}
	wg.Wait()
}

func TestInMemoryJobRepository_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	repo := inmemory.NewInMemoryJobRepository()
	je := model.NewJobExecution("catalogBackup", model.NewJobParameters())
	se := model.NewStepExecution(model.NewID(), je, "backupStep")

	require.NoError(t, repo.SaveJobExecution(ctx, je))
	assert.Error(t, repo.SaveJobExecution(ctx, je))
	require.NoError(t, repo.SaveStepExecution(ctx, se))

	found, err := repo.FindJobExecutionByID(ctx, je.ID)
	require.NoError(t, err)
	require.Len(t, found.StepExecutions, 1)
	assert.Equal(t, "backupStep", found.StepExecutions[0].StepName)

	_, err = repo.FindJobExecutionByID(ctx, "missing")
	assert.True(t, errors.Is(err, repository.ErrJobExecutionNotFound))
	_, err = repo.FindStepExecutionByID(ctx, "missing")
	assert.True(t, errors.Is(err, repository.ErrStepExecutionNotFound))
}

func TestInMemoryJobRepository_FindByJobName(t *testing.T) {
	ctx := context.Background()
	repo := inmemory.NewInMemoryJobRepository()
	base := time.Now()
	for i := 0; i < 3; i++ {
		je := model.NewJobExecution("catalogBackup", model.NewJobParameters())
		je.CreateTime = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, repo.SaveJobExecution(ctx, je))
	}
	require.NoError(t, repo.SaveJobExecution(ctx, model.NewJobExecution("catalogRestore", model.NewJobParameters())))

	runs, err := repo.FindJobExecutionsByJobName(ctx, "catalogBackup", 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.True(t, runs[0].CreateTime.After(runs[1].CreateTime))

	all, err := repo.FindJobExecutionsByJobName(ctx, "catalogBackup", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	missing := model.NewJobExecution("catalogBackup", model.NewJobParameters())
	assert.ErrorIs(t, repo.UpdateJobExecution(ctx, missing), repository.ErrJobExecutionNotFound)
}
