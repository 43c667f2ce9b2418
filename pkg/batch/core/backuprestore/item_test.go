package backuprestore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/tigerroll/surfin-backuprestore/pkg/batch/catalog"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/core/backuprestore"
	model "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/model"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/support/util/exception"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/test"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type initializerFunc func(ctx context.Context, sc *backuprestore.StepContext) error

func (f initializerFunc) Initialize(ctx context.Context, sc *backuprestore.StepContext) error {
	return f(ctx, sc)
}

func TestItem_Lifecycle(t *testing.T) {
	ctx := context.Background()
	f := newResolverFixture(backuprestore.DefaultPersisterFactory)
	se := test.NewTestRestoreRun(t, f.registry, catalog.NewMemoryCatalog(), map[string]interface{}{
		backuprestore.ParamParameterizePasswords: "true",
		backuprestore.ParamPasswordTokens:        "tok=value",
	})

	var seen *backuprestore.StepContext
	item := backuprestore.NewItem(f.resolver, initializerFunc(func(_ context.Context, sc *backuprestore.StepContext) error {
		seen = sc
		return nil
	}))
	assert.Nil(t, item.Context())

	require.NoError(t, item.BeforeStep(ctx, se))
	sc := item.Context()
	require.NotNil(t, sc)
	assert.Same(t, sc, seen)
	assert.Equal(t, "value", sc.TokenCodec.Resolve("tok"))

	item.AfterStep(ctx, se)
	assert.Nil(t, item.Context())
	assert.Equal(t, "tok", sc.TokenCodec.Resolve("tok"))
}

func TestItem_BeforeStepFailures(t *testing.T) {
	ctx := context.Background()
	f := newResolverFixture(backuprestore.DefaultPersisterFactory)

	item := backuprestore.NewItem(f.resolver, nil)
	orphan := test.NewTestStepExecution(test.NewTestJobExecution("catalogBackup", nil), "backupCatalog")
	err := item.BeforeStep(ctx, orphan)
	require.Error(t, err)
	assert.True(t, exception.IsPrecondition(err))
	assert.Nil(t, item.Context())

	boom := errors.New("archive unreadable")
	item = backuprestore.NewItem(f.resolver, initializerFunc(func(context.Context, *backuprestore.StepContext) error {
		return boom
	}))
	se := test.NewTestBackupRun(t, f.registry, test.NewTestCatalog("sf"), nil)
	assert.ErrorIs(t, item.BeforeStep(ctx, se), boom)
}

func TestItem_LogValidationExceptions(t *testing.T) {
	ctx := context.Background()
	f := newResolverFixture(backuprestore.DefaultPersisterFactory)
	target := catalog.NewMemoryCatalog()
	se := test.NewTestRestoreRun(t, f.registry, target, map[string]interface{}{
		backuprestore.ParamBestEffortMode: "true",
	})
	item := backuprestore.NewItem(f.resolver, nil)
	require.NoError(t, item.BeforeStep(ctx, se))
	defer item.AfterStep(ctx, se)

	store := &catalog.StoreInfo{Name: "sf", Type: catalog.KindDataStore, Workspace: &catalog.WorkspaceInfo{Name: "sf"}}
	result := item.Context().Validate(store)
	require.False(t, result.IsValid())

	accepted, err := item.LogValidationExceptions(ctx, result, nil)
	assert.False(t, accepted)
	assert.NoError(t, err)

	accepted, err = item.LogInvalidResource(ctx, "line 4", errors.New("malformed archive record"))
	assert.False(t, accepted)
	assert.NoError(t, err)

	assert.Equal(t, 2, item.Context().Ledger.Count(model.LedgerWarning))
	assert.Len(t, se.JobExecution.Warnings, 2)
}

func TestItem_OutsideStep(t *testing.T) {
	ctx := context.Background()
	item := backuprestore.NewItem(newResolverFixture(backuprestore.DefaultPersisterFactory).resolver, nil)

	assert.True(t, item.Included(ctx, "anything", nil, true))
	_, err := item.LogValidationExceptions(ctx, nil, errors.New("x"))
	assert.True(t, exception.IsPrecondition(err))
	_, err = item.LogInvalidResource(ctx, "line 1", nil)
	assert.True(t, exception.IsPrecondition(err))
}
