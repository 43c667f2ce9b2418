package backuprestore_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/tigerroll/surfin-backuprestore/pkg/batch/catalog"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/core/backuprestore"
	config "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/config"
	model "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/model"
	repository "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/repository"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/infrastructure/repository/inmemory"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/support/util/exception"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/test"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resolverFixture struct {
	registry *inmemory.RunRegistry
	recorder *test.CountingMetricRecorder
	ledger   *test.RecordingLedger
	resolver *backuprestore.ExecutionContextResolver
}

func newResolverFixture(factory backuprestore.PersisterFactory) *resolverFixture {
	f := &resolverFixture{
		registry: inmemory.NewRunRegistry(),
		recorder: test.NewCountingMetricRecorder(),
		ledger:   &test.RecordingLedger{},
	}
	f.resolver = backuprestore.NewExecutionContextResolver(backuprestore.ResolverParams{
		Backups:   f.registry,
		Restores:  f.registry,
		Config:    &config.NewConfig().Surfin.BackupRestore,
		Recorder:  f.recorder,
		Ledger:    f.ledger,
		Persister: factory,
	})
	return f
}

func TestResolve_Backup(t *testing.T) {
	ctx := context.Background()
	f := newResolverFixture(backuprestore.DefaultPersisterFactory)
	production := test.NewTestCatalog("sf")
	se := test.NewTestBackupRun(t, f.registry, production, map[string]interface{}{
		backuprestore.ParamParameterizePasswords: "true",
		backuprestore.ParamDryRunMode:            "TRUE",
	})

	sc, err := f.resolver.Resolve(ctx, se)
	require.NoError(t, err)
	defer sc.Close()

	assert.Equal(t, model.RunModeBackup, sc.Mode)
	assert.Same(t, production, sc.Catalog)
	assert.Same(t, se.JobExecution, sc.Run)
	assert.False(t, sc.IsNew)
	assert.Equal(t, model.ExcludeIDs, sc.SerializationMode)
	assert.True(t, sc.Persister.ExcludeIDs())
	assert.True(t, sc.Persister.ReferenceByName())
	assert.Same(t, production, sc.Persister.Catalog())
	assert.NotNil(t, sc.Tokenizer)
	assert.Nil(t, sc.TokenCodec)
	assert.Len(t, sc.Persister.Transforms(), 2)
	assert.True(t, sc.IsDryRun())
	assert.False(t, sc.IsBestEffort())
	assert.Nil(t, sc.Filter)
	assert.Equal(t, 1, f.recorder.Resolved[model.RunModeBackup.String()])
}

func TestResolve_Restore(t *testing.T) {
	ctx := context.Background()
	f := newResolverFixture(backuprestore.DefaultPersisterFactory)
	target := catalog.NewMemoryCatalog()
	se := test.NewTestRestoreRun(t, f.registry, target, map[string]interface{}{
		backuprestore.ParamParameterizePasswords: "true",
		backuprestore.ParamPasswordTokens:        "${sf.sf.passwd}=geoserver;${it.it.passwd}=s3cr3t",
		backuprestore.ParamReplacementSeparator:  ";",
		backuprestore.ParamBestEffortMode:        "true",
		backuprestore.ParamFilter:                "name = 'sf'",
	})

	sc, err := f.resolver.Resolve(ctx, se)
	require.NoError(t, err)

	assert.Equal(t, model.RunModeRestore, sc.Mode)
	assert.Same(t, target, sc.Catalog)
	assert.True(t, sc.IsNew)
	assert.Equal(t, model.PreserveIDs, sc.SerializationMode)
	assert.False(t, sc.Persister.ExcludeIDs())
	assert.True(t, sc.IsBestEffort())
	assert.Nil(t, sc.Tokenizer)
	require.NotNil(t, sc.TokenCodec)
	assert.Equal(t, "geoserver", sc.TokenCodec.Resolve("${sf.sf.passwd}"))
	assert.Equal(t, "s3cr3t", sc.TokenCodec.Resolve("${it.it.passwd}"))
	require.NotNil(t, sc.Filter)
	assert.True(t, sc.Included(ctx, "sf", &catalog.WorkspaceInfo{Name: "sf"}, true))
	assert.False(t, sc.Included(ctx, "it", &catalog.WorkspaceInfo{Name: "it"}, true))

	sc.Close()
	assert.Zero(t, sc.TokenCodec.Len())
}

func TestResolve_WithoutParameterizedPasswords(t *testing.T) {
	f := newResolverFixture(backuprestore.DefaultPersisterFactory)
	se := test.NewTestRestoreRun(t, f.registry, catalog.NewMemoryCatalog(), map[string]interface{}{
		backuprestore.ParamPasswordTokens: "${sf.sf.passwd}=geoserver",
	})

	sc, err := f.resolver.Resolve(context.Background(), se)
	require.NoError(t, err)
	assert.Nil(t, sc.TokenCodec)
	assert.Empty(t, sc.Persister.Transforms())
}

func TestResolve_FreshContextPerCall(t *testing.T) {
	ctx := context.Background()
	f := newResolverFixture(backuprestore.DefaultPersisterFactory)
	se := test.NewTestBackupRun(t, f.registry, test.NewTestCatalog("sf"), nil)

	first, err := f.resolver.Resolve(ctx, se)
	require.NoError(t, err)
	second, err := f.resolver.Resolve(ctx, se)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.NotSame(t, first.Persister, second.Persister)
	assert.NotSame(t, first.Ledger, second.Ledger)

	// A run bound after a failed resolution is picked up on the next call.
	je := test.NewTestJobExecution("catalogRestore", nil)
	late := test.NewTestStepExecution(je, "restoreCatalog")
	_, err = f.resolver.Resolve(ctx, late)
	require.Error(t, err)
	_, err = f.registry.RegisterRestore(je, catalog.NewMemoryCatalog())
	require.NoError(t, err)
	sc, err := f.resolver.Resolve(ctx, late)
	require.NoError(t, err)
	assert.Equal(t, model.RunModeRestore, sc.Mode)
}

func TestResolve_ConcurrentRunsAreIsolated(t *testing.T) {
	ctx := context.Background()
	f := newResolverFixture(backuprestore.DefaultPersisterFactory)

	const runs = 8
	catalogs := make([]*catalog.MemoryCatalog, runs)
	steps := make([]*model.StepExecution, runs)
	for i := range steps {
		catalogs[i] = catalog.NewMemoryCatalog()
		if i%2 == 0 {
			steps[i] = test.NewTestRestoreRun(t, f.registry, catalogs[i], nil)
		} else {
			steps[i] = test.NewTestBackupRun(t, f.registry, catalogs[i], nil)
		}
	}

	contexts := make([]*backuprestore.StepContext, runs)
	var wg sync.WaitGroup
	for i := range steps {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sc, err := f.resolver.Resolve(ctx, steps[i])
			assert.NoError(t, err)
			contexts[i] = sc
		}(i)
	}
	wg.Wait()

	for i, sc := range contexts {
		require.NotNil(t, sc)
		assert.Same(t, catalogs[i], sc.Catalog)
		assert.Same(t, steps[i].JobExecution, sc.Run)
	}
}

func TestResolve_UnknownRun(t *testing.T) {
	f := newResolverFixture(backuprestore.DefaultPersisterFactory)
	se := test.NewTestStepExecution(test.NewTestJobExecution("catalogBackup", nil), "backupCatalog")

	sc, err := f.resolver.Resolve(context.Background(), se)
	assert.Nil(t, sc)
	require.Error(t, err)
	assert.True(t, exception.IsPrecondition(err))
	assert.True(t, errors.Is(err, repository.ErrRunNotFound))
	assert.Equal(t, 1, f.recorder.Failures["run_not_found"])
}

func TestResolve_NoSerializer(t *testing.T) {
	f := newResolverFixture(nil)
	se := test.NewTestBackupRun(t, f.registry, test.NewTestCatalog("sf"), nil)

	_, err := f.resolver.Resolve(context.Background(), se)
	require.Error(t, err)
	assert.True(t, exception.IsPrecondition(err))
	assert.Equal(t, 1, f.recorder.Failures["no_serializer"])

	f = newResolverFixture(func(catalog.Catalog) *catalog.Persister { return nil })
	se = test.NewTestBackupRun(t, f.registry, test.NewTestCatalog("sf"), nil)
	_, err = f.resolver.Resolve(context.Background(), se)
	require.Error(t, err)
	assert.True(t, exception.IsPrecondition(err))
}

func TestResolve_InvalidFilter(t *testing.T) {
	f := newResolverFixture(backuprestore.DefaultPersisterFactory)
	se := test.NewTestBackupRun(t, f.registry, test.NewTestCatalog("sf"), map[string]interface{}{
		backuprestore.ParamFilter: "name IN ('sf'",
	})

	_, err := f.resolver.Resolve(context.Background(), se)
	require.Error(t, err)
	assert.True(t, exception.IsPrecondition(err))
	assert.Equal(t, "Filter is not valid!", exception.ExtractErrorMessage(err))
	assert.Equal(t, 1, f.recorder.Failures["invalid_filter"])
	assert.Empty(t, f.ledger.Entries)
}

func TestResolve_FilterWithoutNameIsIgnored(t *testing.T) {
	f := newResolverFixture(backuprestore.DefaultPersisterFactory)
	se := test.NewTestBackupRun(t, f.registry, test.NewTestCatalog("sf"), map[string]interface{}{
		backuprestore.ParamFilter: "isolated = (",
	})

	sc, err := f.resolver.Resolve(context.Background(), se)
	require.NoError(t, err)
	assert.Nil(t, sc.Filter)
}

func TestResolve_UnboundCatalog(t *testing.T) {
	f := newResolverFixture(backuprestore.DefaultPersisterFactory)
	se := test.NewTestRestoreRun(t, f.registry, nil, nil)

	_, err := f.resolver.Resolve(context.Background(), se)
	require.Error(t, err)
	assert.True(t, exception.IsPrecondition(err))
	assert.Equal(t, 1, f.recorder.Failures["catalog_unbound"])
}

type failingRegistry struct{ err error }

func (r failingRegistry) FindBackupRun(context.Context, string) (*repository.BackupRun, error) {
	return nil, r.err
}

func (r failingRegistry) FindRestoreRun(context.Context, string) (*repository.RestoreRun, error) {
	return nil, r.err
}

func TestResolve_RegistryError(t *testing.T) {
	boom := errors.New("registry offline")
	resolver := backuprestore.NewExecutionContextResolver(backuprestore.ResolverParams{
		Backups:   failingRegistry{err: boom},
		Restores:  failingRegistry{err: boom},
		Persister: backuprestore.DefaultPersisterFactory,
	})
	se := test.NewTestStepExecution(test.NewTestJobExecution("catalogBackup", nil), "backupCatalog")

	_, err := resolver.Resolve(context.Background(), se)
	require.Error(t, err)
	assert.True(t, exception.IsPrecondition(err))
	assert.True(t, errors.Is(err, boom))
}

func TestResolve_LedgerReachesDurableStore(t *testing.T) {
	ctx := context.Background()
	f := newResolverFixture(backuprestore.DefaultPersisterFactory)
	se := test.NewTestRestoreRun(t, f.registry, catalog.NewMemoryCatalog(), map[string]interface{}{
		backuprestore.ParamBestEffortMode: "true",
	})

	sc, err := f.resolver.Resolve(ctx, se)
	require.NoError(t, err)
	_, err = sc.Policy.HandleInvalid(ctx, "line 1", errors.New("malformed archive record"))
	require.NoError(t, err)

	assert.Equal(t, 1, sc.Ledger.Count(model.LedgerWarning))
	assert.Equal(t, 1, f.ledger.Count(model.LedgerWarning))
	assert.Equal(t, se.RunID(), f.ledger.Entries[0].RunID)
}
