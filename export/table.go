package export

import (
	"fmt"

	"schemaviz/schema"
	"schemaviz/table"
)

// TableExporter exports the tabular view
type TableExporter struct{}

// NewTableExporter creates a new table exporter
func NewTableExporter() *TableExporter {
	return &TableExporter{}
}

// Export renders one grid per entity
func (e *TableExporter) Export(r *schema.Resolved) (string, error) {
	if r == nil {
		return "", fmt.Errorf("dataset is nil")
	}
	return table.String(table.RenderResolved(r)), nil
}

// GetFileExtension returns the recommended file extension
func (e *TableExporter) GetFileExtension() string {
	return ".txt"
}

// GetFormatName returns the format name
func (e *TableExporter) GetFormatName() string {
	return "Tables"
}
