// Package importer loads schema datasets from the formats schemaviz accepts.
package importer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"schemaviz/schema"
)

// ErrUnknownFormat is returned when no importer accepts the content.
var ErrUnknownFormat = errors.New("unable to detect format")

// Importer interface defines methods for importing datasets from various formats
type Importer interface {
	// CanImport checks if the given content can be imported by this importer
	CanImport(content []byte) bool

	// Import converts the input content into a dataset
	Import(content []byte) (schema.Dataset, error)

	// GetFormatName returns the short name of the format
	GetFormatName() string

	// GetFileExtensions returns common file extensions for this format
	GetFileExtensions() []string
}

// Registry manages available importers. Detection tries them in
// registration order, so more specific formats come first.
type Registry struct {
	importers []Importer
	logger    *zap.Logger
}

// NewRegistry creates a registry with every built-in importer.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		logger: logger,
		importers: []Importer{
			NewBSONImporter(),
			NewJSONImporter(),
			NewModelsImporter(),
			NewMermaidImporter(),
			NewMarkdownImporter(),
			NewYAMLImporter(),
		},
	}
}

// Register adds a new importer to the registry
func (r *Registry) Register(importer Importer) {
	r.importers = append(r.importers, importer)
}

// DetectFormat attempts to detect the format of the given content
func (r *Registry) DetectFormat(content []byte) (Importer, error) {
	for _, imp := range r.importers {
		if imp.CanImport(content) {
			return imp, nil
		}
	}
	return nil, ErrUnknownFormat
}

// Lookup returns the importer for a format name.
func (r *Registry) Lookup(format string) (Importer, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	for _, imp := range r.importers {
		if imp.GetFormatName() == format {
			return imp, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
}

// Import attempts to import content using auto-detection
func (r *Registry) Import(content []byte) (schema.Dataset, error) {
	imp, err := r.DetectFormat(content)
	if err != nil {
		return schema.Dataset{}, err
	}
	return r.run(imp, content)
}

// ImportWithFormat imports content using a specific format. An empty
// format means auto-detection.
func (r *Registry) ImportWithFormat(content []byte, format string) (schema.Dataset, error) {
	if format == "" || format == "auto" {
		return r.Import(content)
	}
	imp, err := r.Lookup(format)
	if err != nil {
		return schema.Dataset{}, err
	}
	return r.run(imp, content)
}

// ImportFile reads a file and imports it. The format is taken from the
// argument, then the file extension, then the content.
func (r *Registry) ImportFile(path, format string) (schema.Dataset, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return schema.Dataset{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if format == "" || format == "auto" {
		if imp := r.byExtension(path, content); imp != nil {
			return r.run(imp, content)
		}
	}
	ds, err := r.ImportWithFormat(content, format)
	if err != nil {
		return schema.Dataset{}, fmt.Errorf("failed to import %s: %w", path, err)
	}
	return ds, nil
}

// byExtension returns the first importer claiming the extension that also
// accepts the content.
func (r *Registry) byExtension(path string, content []byte) Importer {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return nil
	}
	for _, imp := range r.importers {
		for _, e := range imp.GetFileExtensions() {
			if e == ext && imp.CanImport(content) {
				return imp
			}
		}
	}
	return nil
}

func (r *Registry) run(imp Importer, content []byte) (schema.Dataset, error) {
	ds, err := imp.Import(content)
	if err != nil {
		return schema.Dataset{}, fmt.Errorf("%s import: %w", imp.GetFormatName(), err)
	}
	r.logger.Debug("dataset imported",
		zap.String("format", imp.GetFormatName()),
		zap.Int("entities", len(ds.Entities)),
		zap.Int("links", len(ds.Links)))
	return ds, nil
}

// GetAvailableFormats returns a list of available import formats
func (r *Registry) GetAvailableFormats() []string {
	formats := make([]string, len(r.importers))
	for i, imp := range r.importers {
		formats[i] = imp.GetFormatName()
	}
	return formats
}
