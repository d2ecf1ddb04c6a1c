package importer

import (
	"strings"

	"schemaviz/erd"
	"schemaviz/schema"
)

// MermaidImporter reads Mermaid erDiagram source.
type MermaidImporter struct{}

// NewMermaidImporter creates a new Mermaid importer
func NewMermaidImporter() *MermaidImporter {
	return &MermaidImporter{}
}

// CanImport checks whether the first statement is erDiagram.
func (m *MermaidImporter) CanImport(content []byte) bool {
	for _, line := range strings.Split(string(content), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "%%") {
			continue
		}
		return strings.HasPrefix(trimmed, "erDiagram")
	}
	return false
}

// Import parses the diagram. Entities are keyed by their diagram name.
func (m *MermaidImporter) Import(content []byte) (schema.Dataset, error) {
	return erd.Parse(string(content))
}

// GetFormatName returns the format name
func (m *MermaidImporter) GetFormatName() string {
	return "mermaid"
}

// GetFileExtensions returns supported file extensions
func (m *MermaidImporter) GetFileExtensions() []string {
	return []string{".mmd", ".mermaid"}
}
