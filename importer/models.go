package importer

import (
	"bytes"
	"encoding/json"
	"fmt"

	"schemaviz/schema"
)

// ModelsImporter reads a bare JSON array of model definitions, the way the
// models endpoint returns them:
//
//	[{"name": "users", "fields": [...], "relations": [{"from": "users", "to": "posts"}]}]
type ModelsImporter struct{}

// NewModelsImporter creates a new models importer
func NewModelsImporter() *ModelsImporter {
	return &ModelsImporter{}
}

// CanImport checks for a JSON array whose elements name a model.
func (m *ModelsImporter) CanImport(content []byte) bool {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return false
	}
	var models []modelDoc
	if err := json.Unmarshal(trimmed, &models); err != nil {
		return false
	}
	for _, model := range models {
		if model.Name == "" {
			return false
		}
	}
	return true
}

// Import converts the model list into a dataset
func (m *ModelsImporter) Import(content []byte) (schema.Dataset, error) {
	var models []modelDoc
	if err := json.Unmarshal(content, &models); err != nil {
		return schema.Dataset{}, fmt.Errorf("invalid models JSON: %w", err)
	}
	for i, model := range models {
		if model.Name == "" {
			return schema.Dataset{}, fmt.Errorf("model %d has no name", i+1)
		}
	}
	return modelsDataset(models), nil
}

// GetFormatName returns the format name
func (m *ModelsImporter) GetFormatName() string {
	return "models"
}

// GetFileExtensions returns supported file extensions
func (m *ModelsImporter) GetFileExtensions() []string {
	return []string{".json"}
}
