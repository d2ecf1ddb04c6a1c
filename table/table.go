// Package table renders a schema dataset as one table per entity.
package table

import (
	"schemaviz/schema"
)

// NoAttributes is the text of the placeholder row shown for entities with
// no attributes.
const NoAttributes = "(no attributes)"

// AttributeRow is one attribute line of an entity table.
type AttributeRow struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Placeholder bool   `json:"placeholder,omitempty"`
}

// RequiredText returns "yes" or "no", or "" for the placeholder row.
func (r AttributeRow) RequiredText() string {
	switch {
	case r.Placeholder:
		return ""
	case r.Required:
		return "yes"
	default:
		return "no"
	}
}

// RelationRow is one relationship touching an entity.
type RelationRow struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Cardinality string `json:"cardinality"`
}

// EntityTable is the tabular view of one entity.
type EntityTable struct {
	EntityID   string         `json:"id"`
	Title      string         `json:"title"`
	Kind       string         `json:"kind,omitempty"`
	Attributes []AttributeRow `json:"attributes"`
	Relations  []RelationRow  `json:"relations,omitempty"`
}

// Render builds one table per entity, in input order. Links whose endpoints
// are missing are ignored.
func Render(ds schema.Dataset) []EntityTable {
	return RenderResolved(schema.Resolve(ds, nil))
}

// RenderResolved is Render for an already resolved dataset.
func RenderResolved(r *schema.Resolved) []EntityTable {
	tables := make([]EntityTable, 0, len(r.Entities))

	for _, e := range r.Entities {
		t := EntityTable{
			EntityID: e.ID,
			Title:    e.Label(),
			Kind:     e.Kind,
		}

		for _, a := range e.Attributes {
			t.Attributes = append(t.Attributes, AttributeRow{
				Name:     a.Name,
				Type:     a.DataType,
				Required: a.Required,
			})
		}
		if len(t.Attributes) == 0 {
			t.Attributes = []AttributeRow{{Name: NoAttributes, Placeholder: true}}
		}

		// LinksOf lists a self link once
		for _, l := range r.LinksOf(e.ID) {
			from, _ := r.Entity(l.SourceID)
			to, _ := r.Entity(l.TargetID)
			t.Relations = append(t.Relations, RelationRow{
				From:        from.Label(),
				To:          to.Label(),
				Cardinality: l.Cardinality.String(),
			})
		}

		tables = append(tables, t)
	}

	return tables
}
