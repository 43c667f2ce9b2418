package catalog

import (
	"fmt"
	"sync"

	"github.com/goccy/go-json"
)

// Field names a transformable field of a catalog resource.
type Field string

const (
	FieldConnectionParameters Field = "connectionParameters"
	FieldURL                  Field = "url"
)

// Direction selects when a field transform runs.
type Direction int

const (
	// Encode transforms run while writing an archive record.
	Encode Direction = iota
	// Decode transforms run while reading an archive record.
	Decode
)

// TransformShape says how a transform is applied to its field.
type TransformShape int

const (
	// WholeValue applies the transform to a string field.
	WholeValue TransformShape = iota
	// MapValues applies the transform to every string value of a map field.
	MapValues
)

// FieldContext locates the value a transform is applied to.
type FieldContext struct {
	Workspace string
	Store     string
	// Key is the map key for MapValues transforms and the field name otherwise.
	Key string
}

// FieldTransform rewrites string values of one field during (de)serialization.
type FieldTransform struct {
	Kind      Kind
	Field     Field
	Shape     TransformShape
	Direction Direction
	Apply     func(fc FieldContext, value string) string
}

var fieldShapes = map[Field]TransformShape{
	FieldConnectionParameters: MapValues,
	FieldURL:                  WholeValue,
}

// Record is one line of an archive: a kind tag and the resource payload.
type Record struct {
	Kind    Kind            `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

type reference struct {
	ID        string `json:"id,omitempty"`
	Workspace string `json:"workspace,omitempty"`
	Name      string `json:"name,omitempty"`
}

type workspaceRecord struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Isolated bool   `json:"isolated,omitempty"`
}

type storeRecord struct {
	ID                   string                 `json:"id,omitempty"`
	Name                 string                 `json:"name"`
	Workspace            reference              `json:"workspace"`
	Enabled              bool                   `json:"enabled"`
	Description          string                 `json:"description,omitempty"`
	ConnectionParameters map[string]interface{} `json:"connectionParameters,omitempty"`
	URL                  string                 `json:"url,omitempty"`
}

type layerRecord struct {
	ID      string    `json:"id,omitempty"`
	Name    string    `json:"name"`
	Title   string    `json:"title,omitempty"`
	Store   reference `json:"store"`
	Enabled bool      `json:"enabled"`
}

// Persister converts catalog resources to and from archive records.
// References to other resources are resolved against the bound catalog.
type Persister struct {
	mu              sync.RWMutex
	catalog         Catalog
	excludeIDs      bool
	referenceByName bool
	transforms      []FieldTransform
}

// NewPersister creates a persister bound to cat.
func NewPersister(cat Catalog) *Persister {
	return &Persister{catalog: cat}
}

// SetCatalog binds the catalog used to resolve references.
func (p *Persister) SetCatalog(cat Catalog) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.catalog = cat
}

// Catalog returns the bound catalog.
func (p *Persister) Catalog() Catalog {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.catalog
}

// SetExcludeIDs drops internal identifiers from written records and ignores them on read.
func (p *Persister) SetExcludeIDs(exclude bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.excludeIDs = exclude
}

// ExcludeIDs reports the identifier mode.
func (p *Persister) ExcludeIDs() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.excludeIDs
}

// SetReferenceByName writes references as names instead of identifiers.
func (p *Persister) SetReferenceByName(byName bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.referenceByName = byName
}

// ReferenceByName reports the reference mode.
func (p *Persister) ReferenceByName() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.referenceByName
}

// RegisterFieldTransform adds a transform. The shape must match the field.
func (p *Persister) RegisterFieldTransform(t FieldTransform) error {
	shape, ok := fieldShapes[t.Field]
	if !ok {
		return fmt.Errorf("field '%s' does not support transforms", t.Field)
	}
	if shape != t.Shape {
		return fmt.Errorf("field '%s' cannot be transformed with shape %d", t.Field, t.Shape)
	}
	if t.Apply == nil {
		return fmt.Errorf("transform for %s.%s has no function", t.Kind, t.Field)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transforms = append(p.transforms, t)
	return nil
}

// Transforms returns the registered transforms.
func (p *Persister) Transforms() []FieldTransform {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]FieldTransform(nil), p.transforms...)
}

// Marshal encodes info as one archive record. The resource itself is never modified.
func (p *Persister) Marshal(info Info) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var payload interface{}
	switch v := info.(type) {
	case *WorkspaceInfo:
		payload = workspaceRecord{ID: p.id(v.ID), Name: v.Name, Isolated: v.Isolated}
	case *StoreInfo:
		rec := storeRecord{
			ID:                   p.id(v.ID),
			Name:                 v.Name,
			Workspace:            p.workspaceRef(v.Workspace),
			Enabled:              v.Enabled,
			Description:          v.Description,
			ConnectionParameters: copyParams(v.ConnectionParameters),
			URL:                  v.URL,
		}
		p.applyTransforms(Encode, v.Type, nameOf(v.Workspace), &rec)
		payload = rec
	case *LayerInfo:
		payload = layerRecord{
			ID:      p.id(v.ID),
			Name:    v.Name,
			Title:   v.Title,
			Store:   p.storeRef(v.Store),
			Enabled: v.Enabled,
		}
	default:
		return nil, fmt.Errorf("unsupported catalog resource %T", info)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Record{Kind: info.Kind(), Payload: raw})
}

// Unmarshal decodes one archive record. References that cannot be resolved in
// the bound catalog are kept as detached resources carrying only their names,
// so validation can report them.
func (p *Persister) Unmarshal(data []byte) (Info, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("malformed archive record: %w", err)
	}

	switch rec.Kind {
	case KindWorkspace:
		var w workspaceRecord
		if err := json.Unmarshal(rec.Payload, &w); err != nil {
			return nil, fmt.Errorf("malformed workspace record: %w", err)
		}
		return &WorkspaceInfo{ID: p.id(w.ID), Name: w.Name, Isolated: w.Isolated}, nil
	case KindDataStore, KindCoverageStore:
		var s storeRecord
		if err := json.Unmarshal(rec.Payload, &s); err != nil {
			return nil, fmt.Errorf("malformed store record: %w", err)
		}
		ws := p.resolveWorkspace(s.Workspace)
		p.applyTransforms(Decode, rec.Kind, nameOf(ws), &s)
		return &StoreInfo{
			ID:                   p.id(s.ID),
			Name:                 s.Name,
			Type:                 rec.Kind,
			Workspace:            ws,
			Enabled:              s.Enabled,
			Description:          s.Description,
			ConnectionParameters: s.ConnectionParameters,
			URL:                  s.URL,
		}, nil
	case KindLayer:
		var l layerRecord
		if err := json.Unmarshal(rec.Payload, &l); err != nil {
			return nil, fmt.Errorf("malformed layer record: %w", err)
		}
		return &LayerInfo{
			ID:      p.id(l.ID),
			Name:    l.Name,
			Title:   l.Title,
			Store:   p.resolveStore(l.Store),
			Enabled: l.Enabled,
		}, nil
	default:
		return nil, fmt.Errorf("unknown archive record kind '%s'", rec.Kind)
	}
}

func (p *Persister) id(id string) string {
	if p.excludeIDs {
		return ""
	}
	return id
}

func (p *Persister) workspaceRef(ws *WorkspaceInfo) reference {
	if ws == nil {
		return reference{}
	}
	if p.referenceByName || ws.ID == "" {
		return reference{Name: ws.Name}
	}
	return reference{ID: ws.ID}
}

func (p *Persister) storeRef(st *StoreInfo) reference {
	if st == nil {
		return reference{}
	}
	if p.referenceByName || st.ID == "" {
		ref := reference{Name: st.Name}
		if st.Workspace != nil {
			ref.Workspace = st.Workspace.Name
		}
		return ref
	}
	return reference{ID: st.ID}
}

func (p *Persister) resolveWorkspace(ref reference) *WorkspaceInfo {
	if ref.Name == "" && ref.ID == "" {
		return nil
	}
	if p.catalog != nil {
		if ref.Name != "" {
			if ws := p.catalog.GetWorkspaceByName(ref.Name); ws != nil {
				return ws
			}
		} else if ws := p.catalog.GetWorkspace(ref.ID); ws != nil {
			return ws
		}
	}
	return &WorkspaceInfo{Name: ref.Name}
}

func (p *Persister) resolveStore(ref reference) *StoreInfo {
	if ref.Name == "" && ref.ID == "" {
		return nil
	}
	if p.catalog != nil {
		if ref.Name != "" {
			if st := p.catalog.GetStoreByName(ref.Workspace, ref.Name); st != nil {
				return st
			}
		} else if st := p.catalog.GetStore(ref.ID); st != nil {
			return st
		}
	}
	detached := &StoreInfo{Name: ref.Name}
	if ref.Workspace != "" {
		detached.Workspace = p.resolveWorkspace(reference{Name: ref.Workspace})
	}
	return detached
}

func (p *Persister) applyTransforms(dir Direction, kind Kind, workspace string, rec *storeRecord) {
	for _, t := range p.transforms {
		if t.Direction != dir || !t.Kind.Matches(kind) {
			continue
		}
		fc := FieldContext{Workspace: workspace, Store: rec.Name}
		switch t.Field {
		case FieldConnectionParameters:
			for key, value := range rec.ConnectionParameters {
				if s, ok := value.(string); ok {
					fc.Key = key
					rec.ConnectionParameters[key] = t.Apply(fc, s)
				}
			}
		case FieldURL:
			if rec.URL != "" {
				fc.Key = string(FieldURL)
				rec.URL = t.Apply(fc, rec.URL)
			}
		}
	}
}

func nameOf(ws *WorkspaceInfo) string {
	if ws == nil {
		return ""
	}
	return ws.Name
}

func copyParams(in map[string]interface{}) map[string]interface{} {
	if in == nil {
		return nil
	}
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
