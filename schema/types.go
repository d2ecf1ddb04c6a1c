// Package schema contains the entity and relationship types shared by every
// schemaviz view.
package schema

import (
	"fmt"
	"strings"
)

// Attribute is a single field of a collection.
type Attribute struct {
	Name     string `json:"name" yaml:"name"`
	DataType string `json:"type" yaml:"type"`
	Required bool   `json:"required,omitempty" yaml:"required,omitempty"`
}

// Entity is a collection (or model) being visualized.
type Entity struct {
	ID         string      `json:"id" yaml:"id"`
	Name       string      `json:"name" yaml:"name"`
	Kind       string      `json:"kind,omitempty" yaml:"kind,omitempty"` // Styling only
	Attributes []Attribute `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// Link is a directed relationship between two entities.
type Link struct {
	SourceID    string      `json:"source" yaml:"source"`
	TargetID    string      `json:"target" yaml:"target"`
	Cardinality Cardinality `json:"cardinality" yaml:"cardinality"`
}

// Dataset is the complete input of a render. It is supplied wholesale by the
// caller and treated as read-only by every renderer.
type Dataset struct {
	Entities []Entity `json:"entities" yaml:"entities"`
	Links    []Link   `json:"links" yaml:"links"`
}

// IsEmpty returns true if the dataset has no entities.
func (d Dataset) IsEmpty() bool {
	return len(d.Entities) == 0
}

// Clone creates a deep copy of the dataset.
func (d Dataset) Clone() Dataset {
	clone := Dataset{
		Entities: make([]Entity, len(d.Entities)),
		Links:    make([]Link, len(d.Links)),
	}

	for i, e := range d.Entities {
		attrs := make([]Attribute, len(e.Attributes))
		copy(attrs, e.Attributes)
		clone.Entities[i] = Entity{
			ID:         e.ID,
			Name:       e.Name,
			Kind:       e.Kind,
			Attributes: attrs,
		}
	}
	copy(clone.Links, d.Links)

	return clone
}

// Label returns the display name, falling back to the id.
func (e Entity) Label() string {
	if e.Name != "" {
		return e.Name
	}
	return e.ID
}

// Tooltip returns the hover text lines for an entity: its name, its kind and
// one line per attribute.
func (e Entity) Tooltip() []string {
	lines := []string{e.Label()}
	if e.Kind != "" {
		lines = append(lines, fmt.Sprintf("Type: %s", e.Kind))
	}
	if len(e.Attributes) > 0 {
		lines = append(lines, "Fields:")
		for _, a := range e.Attributes {
			line := fmt.Sprintf("  %s: %s", a.Name, a.DataType)
			if a.Required {
				line += " (required)"
			}
			lines = append(lines, line)
		}
	}
	return lines
}

// IsKeyAttribute reports whether an attribute name is conventionally a
// primary or foreign key.
func IsKeyAttribute(name string) bool {
	return IsPrimaryKey(name) || IsForeignKey(name)
}

// IsPrimaryKey reports whether name is "id" or Mongo's "_id".
func IsPrimaryKey(name string) bool {
	return name == "id" || name == "_id"
}

// IsForeignKey reports whether name ends in "Id" (userId, postId).
func IsForeignKey(name string) bool {
	return len(name) > 2 && strings.HasSuffix(name, "Id")
}
