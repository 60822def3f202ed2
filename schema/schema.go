// Package schema describes the catalog of entity objects a report can be
// composed over: objects, their fields (with semantic types), and the
// foreign-key relationships between them.
//
// The catalog is loaded once at startup, either from a YAML file or via
// Default(), and is immutable afterwards. Every other package reads it
// through *Catalog and never mutates it.
package schema

import (
	"errors"
	"fmt"
)

// Catalog construction errors. These surface at startup only; a malformed
// catalog is a deployment defect, not a user-input condition.
var (
	ErrDuplicateObject    = errors.New("schema: duplicate object name")
	ErrUnknownObject      = errors.New("schema: unknown object")
	ErrUnknownViaField    = errors.New("schema: relationship via field not declared on source object")
	ErrEnumWithoutValues  = errors.New("schema: enum field declares no values")
	ErrUnknownFieldType   = errors.New("schema: unknown field type")
	ErrDuplicateFieldName = errors.New("schema: duplicate field name")
)

// FieldType is the semantic type of a field's values.
type FieldType string

// Field type constants.
const (
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeDate    FieldType = "date"
	TypeBoolean FieldType = "boolean"
	TypeEnum    FieldType = "enum"
)

// ParseFieldType converts a type string (as it appears in YAML) to a FieldType.
func ParseFieldType(s string) (FieldType, error) {
	switch FieldType(s) {
	case TypeString, TypeNumber, TypeDate, TypeBoolean, TypeEnum:
		return FieldType(s), nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownFieldType, s)
}

// Field is a single column of an object.
type Field struct {
	Name string
	Type FieldType

	// Enum holds the allowed values when Type is TypeEnum.
	Enum []string
}

// Object is an entity type: an ordered list of fields plus the priority list
// of timestamp candidates used to derive a row's canonical timestamp.
type Object struct {
	Name   string
	Fields []*Field

	// Timestamps is ordered by preference; the first field with a non-null
	// value on a record becomes the row's timestamp. Empty means records of
	// this object carry no canonical timestamp.
	Timestamps []string
}

// Field returns the named field, or nil if the object doesn't declare it.
func (o *Object) Field(name string) *Field {
	for _, f := range o.Fields {
		if f.Name == name {
			return f
		}
	}

	return nil
}

// Relationship is a directed foreign-key edge: From.Via references To.id.
type Relationship struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
	Via  string `yaml:"via"`
}

// FieldRef identifies a field by its owning object.
type FieldRef struct {
	Object string `yaml:"object" json:"object"`
	Field  string `yaml:"field" json:"field"`
}

// Qualified returns the "<object>.<field>" key used in row-view display maps.
func (r FieldRef) Qualified() string {
	return r.Object + "." + r.Field
}

// Catalog is the immutable set of objects and relationships.
type Catalog struct {
	objects []*Object
	index   map[string]*Object
	rels    []Relationship
}

// NewCatalog validates the objects and relationships and builds a catalog.
func NewCatalog(objects []*Object, rels []Relationship) (*Catalog, error) {
	c := &Catalog{
		objects: objects,
		index:   make(map[string]*Object, len(objects)),
		rels:    rels,
	}

	for _, obj := range objects {
		if _, dup := c.index[obj.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateObject, obj.Name)
		}

		seen := make(map[string]bool, len(obj.Fields))
		for _, f := range obj.Fields {
			if seen[f.Name] {
				return nil, fmt.Errorf("%w: %s.%s", ErrDuplicateFieldName, obj.Name, f.Name)
			}
			seen[f.Name] = true

			if f.Type == TypeEnum && len(f.Enum) == 0 {
				return nil, fmt.Errorf("%w: %s.%s", ErrEnumWithoutValues, obj.Name, f.Name)
			}
		}

		c.index[obj.Name] = obj
	}

	for _, rel := range rels {
		from, ok := c.index[rel.From]
		if !ok {
			return nil, fmt.Errorf("%w: relationship source %q", ErrUnknownObject, rel.From)
		}
		if _, ok := c.index[rel.To]; !ok {
			return nil, fmt.Errorf("%w: relationship target %q", ErrUnknownObject, rel.To)
		}
		if from.Field(rel.Via) == nil {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownViaField, rel.From, rel.Via)
		}
	}

	return c, nil
}

// Object returns the named object definition.
func (c *Catalog) Object(name string) (*Object, bool) {
	obj, ok := c.index[name]

	return obj, ok
}

// AllObjects returns the objects in declaration order.
// The returned slice must not be mutated.
func (c *Catalog) AllObjects() []*Object {
	return c.objects
}

// Relationships returns all declared foreign-key edges.
func (c *Catalog) Relationships() []Relationship {
	return c.rels
}

// ForeignKey returns the field on from that references to.id, preferring a
// declared relationship and falling back to the "<to>_id" naming convention
// when from declares a field of that name.
func (c *Catalog) ForeignKey(from, to string) (string, bool) {
	for _, rel := range c.rels {
		if rel.From == from && rel.To == to {
			return rel.Via, true
		}
	}

	conventional := to + "_id"
	if obj, ok := c.index[from]; ok && obj.Field(conventional) != nil {
		return conventional, true
	}

	return "", false
}

// Timestamps returns the timestamp priority list for an object, or nil.
func (c *Catalog) Timestamps(object string) []string {
	if obj, ok := c.index[object]; ok {
		return obj.Timestamps
	}

	return nil
}
