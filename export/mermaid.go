package export

import (
	"fmt"

	"schemaviz/erd"
	"schemaviz/schema"
)

// MermaidExporter exports erDiagram source
type MermaidExporter struct {
	generator *erd.Generator
}

// NewMermaidExporter creates a new Mermaid exporter
func NewMermaidExporter() *MermaidExporter {
	return &MermaidExporter{generator: erd.NewGenerator(nil)}
}

// Export generates the diagram source
func (e *MermaidExporter) Export(r *schema.Resolved) (string, error) {
	if r == nil {
		return "", fmt.Errorf("dataset is nil")
	}
	return e.generator.GenerateResolved(r), nil
}

// GetFileExtension returns the file extension for Mermaid
func (e *MermaidExporter) GetFileExtension() string {
	return ".mmd"
}

// GetFormatName returns the format name
func (e *MermaidExporter) GetFormatName() string {
	return "Mermaid"
}

// MarkdownExporter wraps the erDiagram in a mermaid code fence so it can be
// pasted into documentation.
type MarkdownExporter struct {
	mermaid *MermaidExporter
}

// NewMarkdownExporter creates a new Markdown exporter
func NewMarkdownExporter() *MarkdownExporter {
	return &MarkdownExporter{mermaid: NewMermaidExporter()}
}

// Export generates the fenced diagram
func (e *MarkdownExporter) Export(r *schema.Resolved) (string, error) {
	source, err := e.mermaid.Export(r)
	if err != nil {
		return "", err
	}
	return "```mermaid\n" + source + "```\n", nil
}

// GetFileExtension returns the file extension for Markdown
func (e *MarkdownExporter) GetFileExtension() string {
	return ".md"
}

// GetFormatName returns the format name
func (e *MarkdownExporter) GetFormatName() string {
	return "Markdown"
}
