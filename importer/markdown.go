package importer

import (
	"errors"
	"strings"

	"schemaviz/erd"
	"schemaviz/markdown"
	"schemaviz/schema"
)

// ErrNoDiagram is returned when a Markdown document has no erDiagram block.
var ErrNoDiagram = errors.New("no erDiagram block found")

// MarkdownImporter reads the first mermaid erDiagram block of a Markdown
// document.
type MarkdownImporter struct{}

// NewMarkdownImporter creates a new Markdown importer
func NewMarkdownImporter() *MarkdownImporter {
	return &MarkdownImporter{}
}

// CanImport checks for a fenced erDiagram block.
func (m *MarkdownImporter) CanImport(content []byte) bool {
	if !strings.Contains(string(content), "```") {
		return false
	}
	return len(markdown.NewScanner(string(content)).ERDiagrams()) > 0
}

// Import parses the first erDiagram block.
func (m *MarkdownImporter) Import(content []byte) (schema.Dataset, error) {
	blocks := markdown.NewScanner(string(content)).ERDiagrams()
	if len(blocks) == 0 {
		return schema.Dataset{}, ErrNoDiagram
	}
	return erd.Parse(blocks[0].Content)
}

// GetFormatName returns the format name
func (m *MarkdownImporter) GetFormatName() string {
	return "markdown"
}

// GetFileExtensions returns supported file extensions
func (m *MarkdownImporter) GetFileExtensions() []string {
	return []string{".md", ".markdown"}
}
