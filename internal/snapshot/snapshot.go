// Package snapshot holds the declarative model snapshots that migrations are computed from.
//
// A snapshot is a flat list of entities. Each entity maps to one store object (a table or a view),
// carries its properties with their physical column names, and a bag of annotations written by the
// configuration layer. Feature extractors read the annotations once and turn them into typed descriptors.
package snapshot

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultSchema is used when neither the snapshot nor the caller names a schema.
const DefaultSchema = "public"

// ErrInvalidSnapshot is returned when a snapshot document is structurally invalid.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// StoreObjectKind identifies the kind of database object an entity is mapped to.
type StoreObjectKind string

const (
	StoreObjectTable StoreObjectKind = "table"
	StoreObjectView  StoreObjectKind = "view"
)

// StoreObject is the storage identity of an entity: schema plus table or view name.
type StoreObject struct {
	Kind   StoreObjectKind
	Schema string
	Name   string
}

// Key returns "schema.name", the form used for column overrides and identity keys.
func (o StoreObject) Key() string {
	return o.Schema + "." + o.Name
}

// Property is one model-level field of an entity.
type Property struct {
	Name       string `yaml:"name"`
	Column     string `yaml:"column,omitempty"`
	Type       string `yaml:"type,omitempty"`
	Nullable   bool   `yaml:"nullable,omitempty"`
	PrimaryKey bool   `yaml:"primary_key,omitempty"`
	// ColumnOverrides maps a store object key ("schema.name") to the column name used there.
	ColumnOverrides map[string]string `yaml:"column_overrides,omitempty"`
}

// ColumnName returns the physical column name of the property in the given store object.
func (p *Property) ColumnName(obj StoreObject) string {
	if c, ok := p.ColumnOverrides[obj.Key()]; ok && c != "" {
		return c
	}
	if p.Column != "" {
		return p.Column
	}
	return p.Name
}

// Entity is one mapped model type.
type Entity struct {
	Name        string      `yaml:"name"`
	Schema      string      `yaml:"schema"`
	Table       string      `yaml:"table,omitempty"`
	View        string      `yaml:"view,omitempty"`
	Properties  []Property  `yaml:"properties"`
	Annotations Annotations `yaml:"annotations,omitempty"`
}

// StoreObject returns the table or view the entity is mapped to. Entities mapped to
// neither report false.
func (e *Entity) StoreObject() (StoreObject, bool) {
	switch {
	case e.Table != "":
		return StoreObject{Kind: StoreObjectTable, Schema: e.Schema, Name: e.Table}, true
	case e.View != "":
		return StoreObject{Kind: StoreObjectView, Schema: e.Schema, Name: e.View}, true
	default:
		return StoreObject{}, false
	}
}

// Property looks up a property by its model name.
func (e *Entity) Property(name string) (*Property, bool) {
	for i := range e.Properties {
		if e.Properties[i].Name == name {
			return &e.Properties[i], true
		}
	}
	return nil, false
}

// ColumnName resolves a reference to a physical column in obj. The reference is matched against
// property names first; a reference that already names a physical column resolves to itself.
func (e *Entity) ColumnName(ref string, obj StoreObject) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}
	if p, ok := e.Property(ref); ok {
		return p.ColumnName(obj), true
	}
	for i := range e.Properties {
		if e.Properties[i].ColumnName(obj) == ref {
			return ref, true
		}
	}
	return "", false
}

// Snapshot is a complete declarative model.
type Snapshot struct {
	DefaultSchema string   `yaml:"default_schema"`
	Entities      []Entity `yaml:"entities"`
}

// Empty returns a snapshot with no entities, used as the source of a first migration.
func Empty(defaultSchema string) *Snapshot {
	if defaultSchema == "" {
		defaultSchema = DefaultSchema
	}
	return &Snapshot{DefaultSchema: defaultSchema}
}

// New builds a snapshot in code and applies the same defaulting as Load.
func New(defaultSchema string, entities ...Entity) *Snapshot {
	s := Empty(defaultSchema)
	s.Entities = entities
	s.applyDefaults()
	return s
}

// Load decodes a YAML (or JSON) snapshot document. The document's default_schema wins over
// defaultSchema; entities without a schema inherit the resulting default.
func Load(data []byte, defaultSchema string) (*Snapshot, error) {
	s := &Snapshot{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if s.DefaultSchema == "" {
		s.DefaultSchema = defaultSchema
	}
	if s.DefaultSchema == "" {
		s.DefaultSchema = DefaultSchema
	}
	s.applyDefaults()
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Marshal encodes the snapshot back to YAML.
func (s *Snapshot) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

// FindEntity returns the entity with the given model name.
func (s *Snapshot) FindEntity(name string) (*Entity, bool) {
	if s == nil {
		return nil, false
	}
	for i := range s.Entities {
		if s.Entities[i].Name == name {
			return &s.Entities[i], true
		}
	}
	return nil, false
}

// FindByStoreObject returns the entity mapped to the given table or view name. name may be
// schema-qualified.
func (s *Snapshot) FindByStoreObject(name string) (*Entity, bool) {
	if s == nil {
		return nil, false
	}
	schema, object := s.DefaultSchema, name
	if i := strings.IndexByte(name, '.'); i >= 0 {
		schema, object = name[:i], name[i+1:]
	}
	for i := range s.Entities {
		obj, ok := s.Entities[i].StoreObject()
		if ok && obj.Schema == schema && obj.Name == object {
			return &s.Entities[i], true
		}
	}
	return nil, false
}

func (s *Snapshot) applyDefaults() {
	for i := range s.Entities {
		if s.Entities[i].Schema == "" {
			s.Entities[i].Schema = s.DefaultSchema
		}
		if s.Entities[i].Annotations == nil {
			s.Entities[i].Annotations = Annotations{}
		}
	}
}

func (s *Snapshot) validate() error {
	seen := make(map[string]bool, len(s.Entities))
	for i, e := range s.Entities {
		if strings.TrimSpace(e.Name) == "" {
			return fmt.Errorf("%w: entity %d has no name", ErrInvalidSnapshot, i)
		}
		if seen[e.Name] {
			return fmt.Errorf("%w: duplicate entity %q", ErrInvalidSnapshot, e.Name)
		}
		seen[e.Name] = true
		if e.Table != "" && e.View != "" {
			return fmt.Errorf("%w: entity %q is mapped to both table %q and view %q", ErrInvalidSnapshot, e.Name, e.Table, e.View)
		}
	}
	return nil
}
