// Package export writes a resolved dataset in the text formats schemaviz
// produces without a layout: tables, Mermaid, Markdown, JSON and YAML.
package export

import (
	"fmt"
	"strings"

	"schemaviz/schema"
)

// Format represents an export format
type Format string

const (
	// FormatTable exports the box-drawn attribute tables
	FormatTable Format = "table"
	// FormatMermaid exports Mermaid erDiagram source
	FormatMermaid Format = "mermaid"
	// FormatMarkdown exports the erDiagram wrapped in a fenced block
	FormatMarkdown Format = "markdown"
	// FormatJSON exports the canonical dataset document
	FormatJSON Format = "json"
	// FormatYAML exports the canonical dataset document as YAML
	FormatYAML Format = "yaml"
)

// Exporter interface for different export formats
type Exporter interface {
	// Export converts a resolved dataset to the target format
	Export(r *schema.Resolved) (string, error)
	// GetFileExtension returns the recommended file extension for this format
	GetFileExtension() string
	// GetFormatName returns a human-readable name for this format
	GetFormatName() string
}

// NewExporter creates an exporter for the specified format
func NewExporter(format Format) (Exporter, error) {
	switch format {
	case FormatTable:
		return NewTableExporter(), nil
	case FormatMermaid:
		return NewMermaidExporter(), nil
	case FormatMarkdown:
		return NewMarkdownExporter(), nil
	case FormatJSON:
		return NewJSONExporter(), nil
	case FormatYAML:
		return NewYAMLExporter(), nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// ParseFormat converts a string to a Format
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "table", "tables", "txt":
		return FormatTable, nil
	case "mermaid", "mmd", "erd":
		return FormatMermaid, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format: %s", s)
	}
}

// GetAvailableFormats returns a list of all available export formats
func GetAvailableFormats() []Format {
	return []Format{
		FormatTable,
		FormatMermaid,
		FormatMarkdown,
		FormatJSON,
		FormatYAML,
	}
}

// GetFormatDescriptions returns human-readable descriptions of all formats
func GetFormatDescriptions() map[Format]string {
	return map[Format]string{
		FormatTable:    "Attribute and relation tables",
		FormatMermaid:  "Mermaid erDiagram source",
		FormatMarkdown: "Mermaid erDiagram in a Markdown code fence",
		FormatJSON:     "Canonical dataset JSON",
		FormatYAML:     "Canonical dataset YAML",
	}
}

// dataset returns the resolved entities and surviving links as a plain
// dataset; dropped links are not exported.
func dataset(r *schema.Resolved) (schema.Dataset, error) {
	if r == nil {
		return schema.Dataset{}, fmt.Errorf("dataset is nil")
	}
	ds := schema.Dataset{Entities: r.Entities, Links: r.Links}
	if ds.Entities == nil {
		ds.Entities = []schema.Entity{}
	}
	if ds.Links == nil {
		ds.Links = []schema.Link{}
	}
	return ds, nil
}
