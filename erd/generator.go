// Package erd generates Mermaid erDiagram source for a schema dataset and
// hands it to a rendering engine.
package erd

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"schemaviz/schema"
)

// Relationship symbols by cardinality.
const (
	SymbolOneToOne   = "||--||"
	SymbolOneToMany  = "||--o{"
	SymbolManyToOne  = "}o--||"
	SymbolManyToMany = "}o--o{"
	SymbolAssociated = "}o..o{" // Non-identifying, used for unknown cardinalities
)

// PlaceholderAttribute is emitted for entities without attributes so every
// block parses.
const PlaceholderAttribute = "string id"

// Symbol returns the relationship symbol for a cardinality.
func Symbol(c schema.Cardinality) string {
	switch c {
	case schema.OneToOne:
		return SymbolOneToOne
	case schema.OneToMany:
		return SymbolOneToMany
	case schema.ManyToOne:
		return SymbolManyToOne
	case schema.ManyToMany:
		return SymbolManyToMany
	default:
		return SymbolAssociated
	}
}

// Generator builds diagram source. The zero value is usable.
type Generator struct {
	logger *zap.Logger
}

// NewGenerator creates a generator that reports dropped links to logger.
func NewGenerator(logger *zap.Logger) *Generator {
	return &Generator{logger: logger}
}

// Generate returns the erDiagram source for ds using a silent generator.
func Generate(ds schema.Dataset) string {
	return NewGenerator(nil).Generate(ds)
}

// Generate returns the erDiagram source for ds. The output is a pure
// function of the input: the same entities and links in the same order
// always produce the same bytes.
func (g *Generator) Generate(ds schema.Dataset) string {
	return g.GenerateResolved(schema.Resolve(ds, g.logger))
}

// GenerateResolved is Generate for an already resolved dataset.
func (g *Generator) GenerateResolved(r *schema.Resolved) string {
	var sb strings.Builder
	sb.WriteString("erDiagram\n")

	idents := Identifiers(r.Entities)

	for i, e := range r.Entities {
		sb.WriteString(fmt.Sprintf("    %s {\n", idents[i]))
		lines := attributeLines(e.Attributes)
		if len(lines) == 0 {
			sb.WriteString("        " + PlaceholderAttribute + "\n")
		}
		for _, line := range lines {
			sb.WriteString("        " + line + "\n")
		}
		sb.WriteString("    }\n")
	}

	for _, l := range r.Links {
		src := idents[r.Position(l.SourceID)]
		dst := idents[r.Position(l.TargetID)]
		sb.WriteString(fmt.Sprintf("    %s %s %s : %q\n", src, Symbol(l.Cardinality), dst, l.Cardinality.String()))
	}

	return sb.String()
}

// Identifiers returns the diagram identifier for each entity, in order.
// Names that do not sanitize to a usable identifier become entity_<n>
// where n is the 1-based position.
func Identifiers(entities []schema.Entity) []string {
	out := make([]string, len(entities))
	for i, e := range entities {
		ident := schema.Sanitize(e.Label())
		if !schema.ValidIdentifier(ident) {
			ident = fmt.Sprintf("entity_%d", i+1)
		}
		out[i] = ident
	}
	return out
}

// SortAttributes returns the attributes with required ones first, each group
// ordered by name. The input is not modified.
func SortAttributes(attrs []schema.Attribute) []schema.Attribute {
	sorted := make([]schema.Attribute, len(attrs))
	copy(sorted, attrs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Required != sorted[j].Required {
			return sorted[i].Required
		}
		return sorted[i].Name < sorted[j].Name
	})
	return sorted
}

// Marker returns the key marker for an attribute, or "" for none.
func Marker(a schema.Attribute) string {
	switch {
	case schema.IsPrimaryKey(a.Name):
		return "PK"
	case schema.IsForeignKey(a.Name):
		return "FK"
	case a.Required:
		return "PK"
	}
	return ""
}

func attributeLines(attrs []schema.Attribute) []string {
	sorted := SortAttributes(attrs)
	lines := make([]string, 0, len(sorted))

	for i, a := range sorted {
		typ := schema.Sanitize(a.DataType)
		if !schema.ValidIdentifier(typ) {
			typ = "string"
		}
		name := schema.SanitizeField(a.Name)
		if !schema.ValidIdentifier(name) {
			name = fmt.Sprintf("field_%d", i+1)
		}

		line := typ + " " + name
		if m := Marker(a); m != "" {
			line += " " + m
		}
		lines = append(lines, line)
	}
	return lines
}
