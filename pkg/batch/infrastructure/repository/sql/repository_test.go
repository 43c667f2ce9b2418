package sql_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	dbconfig "github.com/tigerroll/surfin-backuprestore/pkg/batch/adapter/database/config"
	gormadapter "github.com/tigerroll/surfin-backuprestore/pkg/batch/adapter/database/gorm"
	_ "github.com/tigerroll/surfin-backuprestore/pkg/batch/adapter/database/gorm/sqlite"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/catalog"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/core/backuprestore"
	config "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/config"
	model "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/model"
	repository "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/repository"
	sqlrepo "github.com/tigerroll/surfin-backuprestore/pkg/batch/infrastructure/repository/sql"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/support/util/serialization"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/test"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openLedgerDB(t *testing.T) *gormadapter.GormDBAdapter {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	conn, err := gormadapter.Open(dbconfig.DatabaseConfig{
		Type:     "sqlite",
		Database: fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		Pool:     dbconfig.PoolConfig{MaxOpenConns: 1, MaxIdleConns: 1},
	}, sqlrepo.LedgerConnectionName, config.LogLevelSilent)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, sqlrepo.Migrate(context.Background(), conn))
	return conn
}

func TestSQLJobRepository_SaveUpdateFind(t *testing.T) {
	ctx := context.Background()
	repo := sqlrepo.NewSQLJobRepository(openLedgerDB(t))

	je := test.NewTestJobExecution("catalogBackup", map[string]interface{}{
		backuprestore.ParamPasswordTokens: "${sf.sf.passwd}=secret",
		backuprestore.ParamDryRunMode:     "true",
	})
	require.NoError(t, repo.SaveJobExecution(ctx, je))

	se := test.NewTestStepExecution(je, "backupCatalog")
	require.NoError(t, repo.SaveStepExecution(ctx, se))

	se.MarkAsStarted()
	se.WriteCount = 8
	se.FilterCount = 2
	se.ExecutionContext.Put("catalog.archive", "nightly.ndjson")
	se.MarkAsCompleted(model.ExitStatusCompleted)
	require.NoError(t, repo.UpdateStepExecution(ctx, se))

	je.MarkAsStarted()
	je.AddWarningException(errors.New("skipped sf:roads"))
	je.MarkAsCompleted()
	require.NoError(t, repo.UpdateJobExecution(ctx, je))

	found, err := repo.FindJobExecutionByID(ctx, je.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BatchStatusCompleted, found.Status)
	assert.Equal(t, model.FailureList{"skipped sf:roads"}, found.Warnings)
	assert.Equal(t, serialization.MaskValue, found.Parameters.Get(backuprestore.ParamPasswordTokens))
	assert.Equal(t, "true", found.Parameters.Get(backuprestore.ParamDryRunMode))

	require.Len(t, found.StepExecutions, 1)
	step := found.StepExecutions[0]
	assert.Same(t, found, step.JobExecution)
	assert.Equal(t, 8, step.WriteCount)
	assert.Equal(t, 2, step.FilterCount)
	assert.Equal(t, model.BatchStatusCompleted, step.Status)
	archive, ok := step.ExecutionContext.GetString("catalog.archive")
	require.True(t, ok)
	assert.Equal(t, "nightly.ndjson", archive)

	byID, err := repo.FindStepExecutionByID(ctx, se.ID)
	require.NoError(t, err)
	assert.Equal(t, je.ID, byID.JobExecutionID)
}

func TestSQLJobRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := sqlrepo.NewSQLJobRepository(openLedgerDB(t))

	_, err := repo.FindJobExecutionByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrJobExecutionNotFound)

	_, err = repo.FindStepExecutionByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrStepExecutionNotFound)
}

func TestMigrate_AppliesLatestSchema(t *testing.T) {
	ctx := context.Background()
	conn := openLedgerDB(t)
	require.NoError(t, sqlrepo.Migrate(ctx, conn))

	sqlDB, err := conn.GetSQLDB()
	require.NoError(t, err)
	var version int
	var dirty bool
	require.NoError(t, sqlDB.QueryRowContext(ctx, "SELECT version, dirty FROM "+gormadapter.DefaultMigrationsTable).Scan(&version, &dirty))
	assert.Equal(t, 2, version)
	assert.False(t, dirty)

	for _, table := range []string{"br_job_execution", "br_step_execution", "br_run_ledger"} {
		var name string
		require.NoError(t, sqlDB.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name), table)
	}
}

func TestSQLJobRepository_FindByJobName(t *testing.T) {
	ctx := context.Background()
	repo := sqlrepo.NewSQLJobRepository(openLedgerDB(t))

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		je := test.NewTestJobExecution("catalogBackup", nil)
		je.CreateTime = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.SaveJobExecution(ctx, je))
		ids = append(ids, je.ID)
	}
	require.NoError(t, repo.SaveJobExecution(ctx, test.NewTestJobExecution("catalogRestore", nil)))

	runs, err := repo.FindJobExecutionsByJobName(ctx, "catalogBackup", 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)

	all, err := repo.FindJobExecutionsByJobName(ctx, "catalogBackup", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestGormLedgerStore_RecordAndFind(t *testing.T) {
	ctx := context.Background()
	store := sqlrepo.NewGormLedgerStore(openLedgerDB(t))

	je := test.NewTestJobExecution("catalogRestore", nil)
	se := test.NewTestStepExecution(je, "restoreCatalog")

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	first := model.NewLedgerEntry(se, model.LedgerWarning, "sf:roads", errors.New("bad layer"))
	first.RecordedAt = base
	second := model.NewLedgerEntry(se, model.LedgerFailure, "sf:dem", errors.New("bad store"))
	second.RecordedAt = base.Add(time.Second)

	require.NoError(t, store.Record(ctx, second))
	require.NoError(t, store.Record(ctx, first))
	require.NoError(t, store.Record(ctx, first))

	entries, err := store.FindByRun(ctx, je.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "sf:roads", entries[0].Resource)
	assert.Equal(t, model.LedgerWarning, entries[0].Kind)
	assert.Equal(t, "bad layer", entries[0].Message)
	assert.Equal(t, "restoreCatalog", entries[0].StepName)
	assert.Equal(t, "sf:dem", entries[1].Resource)

	warnings, err := store.CountByRun(ctx, je.ID, model.LedgerWarning)
	require.NoError(t, err)
	assert.Equal(t, 1, warnings)

	runs, err := store.Runs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{je.ID}, runs)

	none, err := store.FindByRun(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGormLedgerStore_ReceivesPolicyDecisions(t *testing.T) {
	ctx := context.Background()
	store := sqlrepo.NewGormLedgerStore(openLedgerDB(t))

	je := test.NewTestJobExecution("catalogRestore", nil)
	se := test.NewTestStepExecution(je, "restoreCatalog")
	ledger := backuprestore.MultiLedger{backuprestore.NewExecutionLedger(je), store}
	policy := backuprestore.NewValidationFailurePolicy(true, se, ledger, nil, nil)

	cat := catalog.NewMemoryCatalog()
	validator := catalog.NewValidator()
	for i := 0; i < 3; i++ {
		ws := &catalog.WorkspaceInfo{Name: fmt.Sprintf("ws%d", i)}
		info := &catalog.StoreInfo{Name: "pg", Type: catalog.KindDataStore, Workspace: ws}
		result := validator.Validate(cat, info, true)
		require.False(t, result.IsValid())
		outcome, err := policy.Handle(ctx, result, nil, info)
		require.NoError(t, err)
		assert.Equal(t, backuprestore.OutcomeWarning, outcome.Kind)
	}

	count, err := store.CountByRun(ctx, je.ID, model.LedgerWarning)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Len(t, je.Warnings, 3)
}
