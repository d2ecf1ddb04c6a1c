package export

import (
	"encoding/json"

	"gopkg.in/yaml.v3"

	"schemaviz/schema"
)

// JSONExporter exports datasets to JSON format
type JSONExporter struct{}

// NewJSONExporter creates a new JSON exporter
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{}
}

// Export converts a dataset to JSON
func (e *JSONExporter) Export(r *schema.Resolved) (string, error) {
	ds, err := dataset(r)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}

// GetFileExtension returns the file extension for JSON
func (e *JSONExporter) GetFileExtension() string {
	return ".json"
}

// GetFormatName returns the format name
func (e *JSONExporter) GetFormatName() string {
	return "JSON"
}

// YAMLExporter exports datasets to YAML format
type YAMLExporter struct{}

// NewYAMLExporter creates a new YAML exporter
func NewYAMLExporter() *YAMLExporter {
	return &YAMLExporter{}
}

// Export converts a dataset to YAML
func (e *YAMLExporter) Export(r *schema.Resolved) (string, error) {
	ds, err := dataset(r)
	if err != nil {
		return "", err
	}
	data, err := yaml.Marshal(ds)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// GetFileExtension returns the file extension for YAML
func (e *YAMLExporter) GetFileExtension() string {
	return ".yaml"
}

// GetFormatName returns the format name
func (e *YAMLExporter) GetFormatName() string {
	return "YAML"
}
