package importer

import (
	"bytes"
	"encoding/json"
	"fmt"

	"schemaviz/schema"
)

// JSONImporter reads a dataset object: either entities and links, or the
// nodes and links graph shape, or an object holding a models list.
type JSONImporter struct{}

// NewJSONImporter creates a new JSON importer
func NewJSONImporter() *JSONImporter {
	return &JSONImporter{}
}

// CanImport checks for a JSON object with at least one dataset key.
func (j *JSONImporter) CanImport(content []byte) bool {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	var doc document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return false
	}
	return !doc.empty()
}

// Import converts JSON content into a dataset
func (j *JSONImporter) Import(content []byte) (schema.Dataset, error) {
	var doc document
	if err := json.Unmarshal(content, &doc); err != nil {
		return schema.Dataset{}, fmt.Errorf("invalid JSON: %w", err)
	}
	return doc.dataset()
}

// GetFormatName returns the format name
func (j *JSONImporter) GetFormatName() string {
	return "json"
}

// GetFileExtensions returns supported file extensions
func (j *JSONImporter) GetFileExtensions() []string {
	return []string{".json"}
}
