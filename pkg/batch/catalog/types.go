// Package catalog holds the minimal configuration catalog that backup and
// restore runs walk: workspaces, the stores they own and the layers published
// from those stores.
package catalog

import "fmt"

// Kind identifies the type of a catalog resource.
type Kind string

const (
	KindWorkspace     Kind = "Workspace"
	KindDataStore     Kind = "DataStore"
	KindCoverageStore Kind = "CoverageStore"
	KindLayer         Kind = "Layer"
	// KindStore matches both data and coverage stores.
	KindStore Kind = "Store"
)

// Matches reports whether a transform or rule declared for k applies to a resource of kind target.
func (k Kind) Matches(target Kind) bool {
	if k == target {
		return true
	}
	return k == KindStore && (target == KindDataStore || target == KindCoverageStore)
}

// Info is implemented by every catalog resource.
type Info interface {
	Kind() Kind
	// Identity is the human readable name of the resource, qualified by workspace where it has one.
	Identity() string
}

// WorkspaceInfo is a namespace grouping stores and layers.
type WorkspaceInfo struct {
	ID       string
	Name     string `validate:"required,catalogname"`
	Isolated bool
}

// Kind implements Info.
func (w *WorkspaceInfo) Kind() Kind { return KindWorkspace }

// Identity implements Info.
func (w *WorkspaceInfo) Identity() string { return w.Name }

func (w *WorkspaceInfo) String() string {
	return fmt.Sprintf("WorkspaceInfo[%s]", w.Name)
}

// StoreInfo is a connection to a data source, owned by a workspace.
// ConnectionParameters values are usually strings; other JSON values are kept as decoded.
type StoreInfo struct {
	ID                   string
	Name                 string `validate:"required,catalogname"`
	Type                 Kind   `validate:"required,oneof=DataStore CoverageStore"`
	Workspace            *WorkspaceInfo `validate:"required"`
	Enabled              bool
	Description          string
	ConnectionParameters map[string]interface{}
	URL                  string `validate:"required_if=Type CoverageStore"`
}

// Kind implements Info.
func (s *StoreInfo) Kind() Kind { return s.Type }

// Identity implements Info.
func (s *StoreInfo) Identity() string {
	return qualified(s.Workspace, s.Name)
}

func (s *StoreInfo) String() string {
	return fmt.Sprintf("StoreInfo[%s]", s.Identity())
}

// LayerInfo is a published resource backed by a store.
type LayerInfo struct {
	ID      string
	Name    string     `validate:"required,catalogname"`
	Title   string     `validate:"max=256"`
	Store   *StoreInfo `validate:"required"`
	Enabled bool
}

// Kind implements Info.
func (l *LayerInfo) Kind() Kind { return KindLayer }

// Identity implements Info.
func (l *LayerInfo) Identity() string {
	return qualified(l.Workspace(), l.Name)
}

// Workspace returns the workspace owning the layer's store, or nil.
func (l *LayerInfo) Workspace() *WorkspaceInfo {
	if l.Store == nil {
		return nil
	}
	return l.Store.Workspace
}

func (l *LayerInfo) String() string {
	return fmt.Sprintf("LayerInfo[%s]", l.Identity())
}

func qualified(ws *WorkspaceInfo, name string) string {
	if ws == nil {
		return name
	}
	return ws.Name + ":" + name
}

// OwningWorkspace returns the workspace a resource belongs to.
// A workspace is its own owner.
func OwningWorkspace(info Info) *WorkspaceInfo {
	switch v := info.(type) {
	case *WorkspaceInfo:
		return v
	case *StoreInfo:
		return v.Workspace
	case *LayerInfo:
		return v.Workspace()
	default:
		return nil
	}
}
