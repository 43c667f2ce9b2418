package backuprestore_test

import (
	"context"
	"testing"

	"github.com/tigerroll/surfin-backuprestore/pkg/batch/catalog"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/core/backuprestore"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/test"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileFilter(t *testing.T) {
	f, err := backuprestore.CompileFilter("")
	require.NoError(t, err)
	assert.Nil(t, f)

	// No name predicate: ignored even though it would not parse.
	f, err = backuprestore.CompileFilter("isolated = ")
	require.NoError(t, err)
	assert.Nil(t, f)

	f, err = backuprestore.CompileFilter("name IN ('sf', 'it')")
	require.NoError(t, err)
	require.NotNil(t, f)

	_, err = backuprestore.CompileFilter("name = ")
	assert.Error(t, err)
}

func TestResourceFilterEvaluator_NoFilter(t *testing.T) {
	e := backuprestore.NewResourceFilterEvaluator(nil, "backupCatalog", nil)
	assert.True(t, e.Included(context.Background(), "anything", nil, true))
	assert.True(t, e.Included(context.Background(), "anything", &catalog.WorkspaceInfo{Name: "x"}, false))
}

func TestResourceFilterEvaluator_Workspaces(t *testing.T) {
	ctx := context.Background()
	cat := test.NewTestCatalog("sf", "it", "topp")
	f, err := backuprestore.CompileFilter("name IN ('sf', 'topp')")
	require.NoError(t, err)
	recorder := test.NewCountingMetricRecorder()
	e := backuprestore.NewResourceFilterEvaluator(f, "backupCatalog", recorder)

	var included []string
	for _, layer := range cat.Layers() {
		if e.Included(ctx, layer, layer.Workspace(), true) {
			included = append(included, layer.Name)
		}
	}
	assert.ElementsMatch(t, []string{"sf_roads", "topp_roads"}, included)
	assert.Equal(t, 1, recorder.Filtered[string(catalog.KindLayer)])

	it := cat.GetStoreByName("it", "it")
	assert.False(t, e.Included(ctx, it, it.Workspace, false))
	assert.Equal(t, 1, recorder.Filtered[string(catalog.KindDataStore)])
}

func TestResourceFilterEvaluator_NoWorkspace(t *testing.T) {
	ctx := context.Background()
	f, err := backuprestore.CompileFilter("name = 'sf'")
	require.NoError(t, err)
	e := backuprestore.NewResourceFilterEvaluator(f, "restoreCatalog", nil)

	orphan := &catalog.LayerInfo{Name: "orphan"}
	assert.False(t, e.Included(ctx, orphan, nil, true))
	assert.True(t, e.Included(ctx, orphan, nil, false))
}

func TestResourceFilterEvaluator_OtherProperties(t *testing.T) {
	ctx := context.Background()
	f, err := backuprestore.CompileFilter("name LIKE 's%' AND isolated = false")
	require.NoError(t, err)
	e := backuprestore.NewResourceFilterEvaluator(f, "backupCatalog", nil)

	assert.True(t, e.Included(ctx, nil, &catalog.WorkspaceInfo{Name: "sf"}, true))
	assert.False(t, e.Included(ctx, nil, &catalog.WorkspaceInfo{Name: "sf", Isolated: true}, true))
	assert.False(t, e.Included(ctx, nil, &catalog.WorkspaceInfo{Name: "it"}, true))
}
