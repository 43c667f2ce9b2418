package usecase_test

import (
	"context"
	"errors"
	"testing"

	storageConfig "github.com/tigerroll/surfin-backuprestore/pkg/batch/adapter/storage/config"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/adapter/storage/local"
	port "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/application/port"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/core/application/usecase"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/core/backuprestore"
	model "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/model"
	repository "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/repository"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/infrastructure/repository/inmemory"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/test"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type launcherFixture struct {
	launcher *usecase.SimpleRunLauncher
	registry *inmemory.RunRegistry
	repo     *inmemory.InMemoryJobRepository
	ledger   *test.RecordingLedger
}

func newLauncherFixture(t *testing.T) *launcherFixture {
	t.Helper()
	f := &launcherFixture{
		registry: inmemory.NewRunRegistry(),
		repo:     inmemory.NewInMemoryJobRepository(),
		ledger:   &test.RecordingLedger{},
	}
	conn, err := local.NewLocalAdapter(storageConfig.StorageConfig{Type: "local", BaseDir: t.TempDir()}, "archive")
	require.NoError(t, err)
	resolver := backuprestore.NewExecutionContextResolver(backuprestore.ResolverParams{
		Backups:   f.registry,
		Restores:  f.registry,
		Ledger:    f.ledger,
		Persister: backuprestore.DefaultPersisterFactory,
	})
	f.launcher = usecase.NewSimpleRunLauncher(usecase.RunLauncherParams{
		Repository: f.repo,
		Registrar:  f.registry,
		Resolver:   resolver,
		Storage:    conn,
	})
	return f
}

func TestSimpleRunLauncher_BackupAndRestore(t *testing.T) {
	f := newLauncherFixture(t)
	ctx := context.Background()

	backup, err := f.launcher.Backup(ctx, test.NewTestCatalog("sf"), test.NewTestJobParameters(map[string]interface{}{
		backuprestore.ParamParameterizePasswords: "true",
		"archive":                                "sf.ndjson",
	}))
	require.NoError(t, err)
	assert.Equal(t, model.BatchStatusCompleted, backup.Execution.Status)
	assert.Equal(t, model.RunModeBackup, backup.Mode)
	assert.Equal(t, "sf.ndjson", backup.Archive)
	assert.Equal(t, []string{"${sf.dem.url}", "${sf.sf.passwd}"}, backup.ParameterizedFields)
	assert.Empty(t, backup.Warnings())

	_, err = f.registry.FindBackupRun(ctx, backup.Execution.ID)
	assert.ErrorIs(t, err, repository.ErrRunNotFound)

	stored, err := f.repo.FindJobExecutionByID(ctx, backup.Execution.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BatchStatusCompleted, stored.Status)

	restore, err := f.launcher.Restore(ctx, test.NewTestJobParameters(map[string]interface{}{
		backuprestore.ParamParameterizePasswords: "true",
		backuprestore.ParamPasswordTokens:        "${sf.sf.passwd}=restored",
		"archive":                                "sf.ndjson",
	}))
	require.NoError(t, err)
	assert.Equal(t, model.BatchStatusCompleted, restore.Execution.Status)
	require.Len(t, restore.Catalog.Workspaces(), 1)
	store := restore.Catalog.GetStoreByName("sf", "sf")
	require.NotNil(t, store)
	assert.Equal(t, "restored", store.ConnectionParameters["passwd"])
	require.NotNil(t, restore.Catalog.GetLayerByName("sf", "sf_roads"))

	_, err = f.registry.FindRestoreRun(ctx, restore.Execution.ID)
	assert.ErrorIs(t, err, repository.ErrRunNotFound)
}

func TestSimpleRunLauncher_RestoreMissingArchive(t *testing.T) {
	f := newLauncherFixture(t)

	report, err := f.launcher.Restore(context.Background(), test.NewTestJobParameters(map[string]interface{}{
		"archive": "missing.ndjson",
	}))
	require.Error(t, err)
	require.NotNil(t, report.Execution)
	assert.Equal(t, model.BatchStatusFailed, report.Execution.Status)
	assert.NotEmpty(t, report.Failures())
	assert.Empty(t, report.Catalog.Workspaces())
}

func TestSimpleRunLauncher_InvalidFilterFailsRun(t *testing.T) {
	f := newLauncherFixture(t)

	report, err := f.launcher.Backup(context.Background(), test.NewTestCatalog("sf"), test.NewTestJobParameters(map[string]interface{}{
		backuprestore.ParamFilter: "name IN ('sf'",
	}))
	require.Error(t, err)
	assert.Equal(t, model.BatchStatusFailed, report.Execution.Status)
	assert.Contains(t, report.Failures(), "Filter is not valid!")
	assert.Zero(t, f.ledger.Count(model.LedgerFailure))
}

func TestSimpleRunLauncher_BestEffortWarnings(t *testing.T) {
	f := newLauncherFixture(t)
	source := test.NewTestCatalog("sf")
	// A layer without a name fails validation.
	roads := source.GetLayerByName("sf", "sf_roads")
	require.NotNil(t, roads)
	roads.Name = ""

	report, err := f.launcher.Backup(context.Background(), source, test.NewTestJobParameters(map[string]interface{}{
		backuprestore.ParamBestEffortMode: "true",
	}))
	require.NoError(t, err)
	assert.Equal(t, model.BatchStatusCompleted, report.Execution.Status)
	assert.Len(t, report.Warnings(), 1)
	assert.Equal(t, 1, f.ledger.Count(model.LedgerWarning))
}

func TestSimpleRunLauncher_StopUnknownRun(t *testing.T) {
	f := newLauncherFixture(t)

	err := f.launcher.Stop("nope")
	assert.True(t, errors.Is(err, repository.ErrRunNotFound))
}

// stoppingListener stops every run as soon as it starts.
type stoppingListener struct {
	launcher **usecase.SimpleRunLauncher
}

func (l stoppingListener) BeforeJob(ctx context.Context, je *model.JobExecution) {
	_ = (*l.launcher).Stop(je.ID)
}

func (l stoppingListener) AfterJob(ctx context.Context, je *model.JobExecution) {}

func TestSimpleRunLauncher_StopRunningRun(t *testing.T) {
	registry := inmemory.NewRunRegistry()
	repo := inmemory.NewInMemoryJobRepository()
	conn, err := local.NewLocalAdapter(storageConfig.StorageConfig{Type: "local", BaseDir: t.TempDir()}, "archive")
	require.NoError(t, err)

	var launcher *usecase.SimpleRunLauncher
	launcher = usecase.NewSimpleRunLauncher(usecase.RunLauncherParams{
		Repository: repo,
		Registrar:  registry,
		Resolver: backuprestore.NewExecutionContextResolver(backuprestore.ResolverParams{
			Backups:   registry,
			Restores:  registry,
			Persister: backuprestore.DefaultPersisterFactory,
		}),
		Storage:      conn,
		JobListeners: []port.JobExecutionListener{stoppingListener{launcher: &launcher}},
	})

	report, err := launcher.Backup(context.Background(), test.NewTestCatalog("sf"), test.NewTestJobParameters(nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, model.BatchStatusStopped, report.Execution.Status)

	stored, err := repo.FindJobExecutionByID(context.Background(), report.Execution.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BatchStatusStopped, stored.Status)
	require.Len(t, stored.StepExecutions, 1)
	assert.Equal(t, model.BatchStatusStopped, stored.StepExecutions[0].Status)
}
