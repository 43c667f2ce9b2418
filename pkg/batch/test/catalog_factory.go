package test

import (
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/catalog"
)

// NewTestCatalog creates a catalog with the given workspaces. Every workspace
// gets a data store and a layer named after it, and a coverage store "dem".
//
// Store connection parameters carry a password "secret-<workspace>".
func NewTestCatalog(workspaces ...string) *catalog.MemoryCatalog {
	cat := catalog.NewMemoryCatalog()
	for _, name := range workspaces {
		ws := &catalog.WorkspaceInfo{Name: name}
		mustAdd(cat, ws)
		st := &catalog.StoreInfo{
			Name:      name,
			Type:      catalog.KindDataStore,
			Workspace: ws,
			Enabled:   true,
			ConnectionParameters: map[string]interface{}{
				"dbtype": "postgis",
				"host":   "db.local",
				"passwd": "secret-" + name,
			},
		}
		mustAdd(cat, st)
		mustAdd(cat, &catalog.StoreInfo{
			Name:      "dem",
			Type:      catalog.KindCoverageStore,
			Workspace: ws,
			Enabled:   true,
			URL:       "file:data/" + name + "/dem.tif",
		})
		mustAdd(cat, &catalog.LayerInfo{Name: name + "_roads", Title: "Roads", Store: st, Enabled: true})
	}
	return cat
}

func mustAdd(cat *catalog.MemoryCatalog, info catalog.Info) {
	if err := cat.Add(info); err != nil {
		panic(err)
	}
}
