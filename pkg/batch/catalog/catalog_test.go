package catalog_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/tigerroll/surfin-backuprestore/pkg/batch/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCatalog(t *testing.T) (*catalog.MemoryCatalog, *catalog.WorkspaceInfo, *catalog.StoreInfo) {
	t.Helper()
	cat := catalog.NewMemoryCatalog()
	ws := &catalog.WorkspaceInfo{Name: "sf"}
	require.NoError(t, cat.Add(ws))
	st := &catalog.StoreInfo{
		Name:      "sf",
		Type:      catalog.KindDataStore,
		Workspace: ws,
		Enabled:   true,
		ConnectionParameters: map[string]interface{}{
			"directory": "file:data/sf",
			"passwd":    "geoserver",
			"port":      5432.0,
		},
	}
	require.NoError(t, cat.Add(st))
	require.NoError(t, cat.Add(&catalog.LayerInfo{Name: "roads", Title: "Roads", Store: st, Enabled: true}))
	return cat, ws, st
}

func TestMemoryCatalog_AddAndLookup(t *testing.T) {
	cat, ws, st := seedCatalog(t)

	assert.NotEmpty(t, ws.ID)
	assert.NotEmpty(t, st.ID)
	assert.Same(t, ws, cat.GetWorkspaceByName("sf"))
	assert.Same(t, ws, cat.GetWorkspace(ws.ID))
	assert.Same(t, st, cat.GetStoreByName("sf", "sf"))
	assert.Same(t, st, cat.GetStore(st.ID))
	assert.NotNil(t, cat.GetLayerByName("sf", "roads"))
	assert.Nil(t, cat.GetStoreByName("other", "sf"))
	assert.Nil(t, cat.GetWorkspace(st.ID))
}

func TestMemoryCatalog_RejectsDuplicates(t *testing.T) {
	cat, ws, _ := seedCatalog(t)

	err := cat.Add(&catalog.WorkspaceInfo{Name: "sf"})
	assert.True(t, errors.Is(err, catalog.ErrDuplicate))

	err = cat.Add(&catalog.StoreInfo{Name: "sf", Type: catalog.KindDataStore, Workspace: ws})
	assert.True(t, errors.Is(err, catalog.ErrDuplicate))
}

func TestMemoryCatalog_ReassignsTakenID(t *testing.T) {
	cat, ws, _ := seedCatalog(t)

	other := &catalog.WorkspaceInfo{ID: ws.ID, Name: "topp"}
	require.NoError(t, cat.Add(other))
	assert.NotEqual(t, ws.ID, other.ID)
	assert.Same(t, ws, cat.GetWorkspace(ws.ID))
}

func TestMemoryCatalog_ListingIsOrdered(t *testing.T) {
	cat := catalog.NewMemoryCatalog()
	for _, name := range []string{"topp", "cite", "sf"} {
		require.NoError(t, cat.Add(&catalog.WorkspaceInfo{Name: name}))
	}
	var names []string
	for _, ws := range cat.Workspaces() {
		names = append(names, ws.Name)
	}
	assert.Equal(t, []string{"cite", "sf", "topp"}, names)
}

func TestKind_Matches(t *testing.T) {
	assert.True(t, catalog.KindStore.Matches(catalog.KindDataStore))
	assert.True(t, catalog.KindStore.Matches(catalog.KindCoverageStore))
	assert.False(t, catalog.KindStore.Matches(catalog.KindLayer))
	assert.True(t, catalog.KindLayer.Matches(catalog.KindLayer))
	assert.False(t, catalog.KindDataStore.Matches(catalog.KindStore))
}

func TestOwningWorkspace(t *testing.T) {
	cat, ws, st := seedCatalog(t)

	assert.Same(t, ws, catalog.OwningWorkspace(ws))
	assert.Same(t, ws, catalog.OwningWorkspace(st))
	assert.Same(t, ws, catalog.OwningWorkspace(cat.GetLayerByName("sf", "roads")))
	assert.Nil(t, catalog.OwningWorkspace(&catalog.StoreInfo{Name: "orphan"}))
}

func TestSnapshot_RoundTrip(t *testing.T) {
	cat, ws, st := seedCatalog(t)

	var buf bytes.Buffer
	require.NoError(t, catalog.SaveSnapshot(&buf, cat))
	assert.Equal(t, 3, strings.Count(buf.String(), "\n"))

	loaded, err := catalog.LoadSnapshot(&buf)
	require.NoError(t, err)

	lws := loaded.GetWorkspaceByName("sf")
	require.NotNil(t, lws)
	assert.Equal(t, ws.ID, lws.ID)

	lst := loaded.GetStoreByName("sf", "sf")
	require.NotNil(t, lst)
	assert.Equal(t, st.ID, lst.ID)
	assert.Same(t, lws, lst.Workspace)
	assert.Equal(t, "geoserver", lst.ConnectionParameters["passwd"])

	layer := loaded.GetLayerByName("sf", "roads")
	require.NotNil(t, layer)
	assert.Same(t, lst, layer.Store)
}

func TestLoadSnapshot_ReportsLine(t *testing.T) {
	_, err := catalog.LoadSnapshot(strings.NewReader("\n{not json}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}
