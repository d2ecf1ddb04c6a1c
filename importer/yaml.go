package importer

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"schemaviz/schema"
)

// YAMLImporter reads the same document shapes as JSONImporter written as
// YAML.
type YAMLImporter struct{}

// NewYAMLImporter creates a new YAML importer
func NewYAMLImporter() *YAMLImporter {
	return &YAMLImporter{}
}

// CanImport checks for a YAML mapping with at least one dataset key.
func (y *YAMLImporter) CanImport(content []byte) bool {
	var doc document
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return false
	}
	return !doc.empty()
}

// Import converts YAML content into a dataset
func (y *YAMLImporter) Import(content []byte) (schema.Dataset, error) {
	var doc document
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return schema.Dataset{}, fmt.Errorf("invalid YAML: %w", err)
	}
	return doc.dataset()
}

// GetFormatName returns the format name
func (y *YAMLImporter) GetFormatName() string {
	return "yaml"
}

// GetFileExtensions returns supported file extensions
func (y *YAMLImporter) GetFileExtensions() []string {
	return []string{".yaml", ".yml"}
}
