package catalog

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// ErrDuplicate is returned by Add when a resource with the same identity already exists.
var ErrDuplicate = errors.New("catalog resource already exists")

// Catalog is the configuration catalog a run reads from or writes into.
type Catalog interface {
	Workspaces() []*WorkspaceInfo
	Stores() []*StoreInfo
	Layers() []*LayerInfo

	GetWorkspaceByName(name string) *WorkspaceInfo
	GetStoreByName(workspace, name string) *StoreInfo
	GetLayerByName(workspace, name string) *LayerInfo
	GetWorkspace(id string) *WorkspaceInfo
	GetStore(id string) *StoreInfo

	// Add inserts a resource, assigning an ID when it has none.
	Add(info Info) error
}

// MemoryCatalog is a thread-safe in-memory Catalog.
type MemoryCatalog struct {
	mu         sync.RWMutex
	workspaces map[string]*WorkspaceInfo // by name
	stores     map[string]*StoreInfo     // by ws:name
	layers     map[string]*LayerInfo     // by ws:name
	byID       map[string]Info
}

// NewMemoryCatalog creates an empty catalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		workspaces: make(map[string]*WorkspaceInfo),
		stores:     make(map[string]*StoreInfo),
		layers:     make(map[string]*LayerInfo),
		byID:       make(map[string]Info),
	}
}

// Workspaces returns all workspaces ordered by name.
func (c *MemoryCatalog) Workspaces() []*WorkspaceInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*WorkspaceInfo, 0, len(c.workspaces))
	for _, w := range c.workspaces {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Stores returns all stores ordered by qualified name.
func (c *MemoryCatalog) Stores() []*StoreInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*StoreInfo, 0, len(c.stores))
	for _, s := range c.stores {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identity() < out[j].Identity() })
	return out
}

// Layers returns all layers ordered by qualified name.
func (c *MemoryCatalog) Layers() []*LayerInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*LayerInfo, 0, len(c.layers))
	for _, l := range c.layers {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identity() < out[j].Identity() })
	return out
}

// GetWorkspaceByName returns the named workspace or nil.
func (c *MemoryCatalog) GetWorkspaceByName(name string) *WorkspaceInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.workspaces[name]
}

// GetStoreByName returns the store or nil.
func (c *MemoryCatalog) GetStoreByName(workspace, name string) *StoreInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stores[workspace+":"+name]
}

// GetLayerByName returns the layer or nil.
func (c *MemoryCatalog) GetLayerByName(workspace, name string) *LayerInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.layers[workspace+":"+name]
}

// GetWorkspace returns the workspace with the given ID or nil.
func (c *MemoryCatalog) GetWorkspace(id string) *WorkspaceInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ws, _ := c.byID[id].(*WorkspaceInfo)
	return ws
}

// GetStore returns the store with the given ID or nil.
func (c *MemoryCatalog) GetStore(id string) *StoreInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st, _ := c.byID[id].(*StoreInfo)
	return st
}

// Add inserts a resource. Stores and layers must reference a workspace by pointer;
// the workspace itself does not have to be in this catalog, validation checks that.
func (c *MemoryCatalog) Add(info Info) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch v := info.(type) {
	case *WorkspaceInfo:
		if _, ok := c.workspaces[v.Name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicate, v)
		}
		c.assignID(&v.ID, v)
		c.workspaces[v.Name] = v
	case *StoreInfo:
		key := v.Identity()
		if _, ok := c.stores[key]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicate, v)
		}
		c.assignID(&v.ID, v)
		c.stores[key] = v
	case *LayerInfo:
		key := v.Identity()
		if _, ok := c.layers[key]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicate, v)
		}
		c.assignID(&v.ID, v)
		c.layers[key] = v
	default:
		return fmt.Errorf("unsupported catalog resource %T", info)
	}
	return nil
}

func (c *MemoryCatalog) assignID(id *string, info Info) {
	if *id == "" || c.byID[*id] != nil {
		*id = uuid.New().String()
	}
	c.byID[*id] = info
}

var _ Catalog = (*MemoryCatalog)(nil)
