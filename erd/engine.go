package erd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEngineUnavailable is returned when the rendering engine cannot be
	// reached or has been failing repeatedly.
	ErrEngineUnavailable = errors.New("diagram engine unavailable")
	// ErrEmptyDiagram is returned when asked to render empty source.
	ErrEmptyDiagram = errors.New("empty diagram source")
)

// Engine renders diagram source into an image.
type Engine interface {
	Render(ctx context.Context, source string, cfg Config) ([]byte, error)
}

// EngineFunc adapts a function to the Engine interface.
type EngineFunc func(ctx context.Context, source string, cfg Config) ([]byte, error)

// Render calls f.
func (f EngineFunc) Render(ctx context.Context, source string, cfg Config) ([]byte, error) {
	return f(ctx, source, cfg)
}

// OutputFormat is the image format an engine produces.
type OutputFormat string

const (
	OutputSVG OutputFormat = "svg"
	OutputPNG OutputFormat = "png"
)

// ParseOutputFormat converts a string to an OutputFormat.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(s) {
	case "", "svg":
		return OutputSVG, nil
	case "png":
		return OutputPNG, nil
	default:
		return "", fmt.Errorf("unknown diagram output format: %s", s)
	}
}

// ERConfig holds the erDiagram options passed to the engine.
type ERConfig struct {
	DiagramPadding  int    `json:"diagramPadding"`
	EntityPadding   int    `json:"entityPadding"`
	UseMaxWidth     bool   `json:"useMaxWidth"`
	LayoutDirection string `json:"layoutDirection"`
	MinEntityWidth  int    `json:"minEntityWidth"`
	MinEntityHeight int    `json:"minEntityHeight"`
	FontSize        int    `json:"fontSize"`
}

// Config is the engine configuration. It is passed with every render call
// instead of being installed globally.
type Config struct {
	Theme         string       `json:"theme"`
	SecurityLevel string       `json:"securityLevel"`
	ER            ERConfig     `json:"er"`
	Format        OutputFormat `json:"-"`
	Background    string       `json:"-"`
}

// DefaultConfig returns the configuration used by the diagram view.
func DefaultConfig() Config {
	return Config{
		Theme:         "default",
		SecurityLevel: "loose",
		ER: ERConfig{
			DiagramPadding:  20,
			EntityPadding:   15,
			UseMaxWidth:     true,
			LayoutDirection: "TB",
			MinEntityWidth:  100,
			MinEntityHeight: 75,
			FontSize:        12,
		},
		Format:     OutputSVG,
		Background: "white",
	}
}

// JSON returns the engine configuration document.
func (c Config) JSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// SourceEngine "renders" by returning the source unchanged. It stands in
// when no external engine is configured.
type SourceEngine struct{}

// Render returns source as bytes.
func (SourceEngine) Render(ctx context.Context, source string, cfg Config) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(source) == "" {
		return nil, ErrEmptyDiagram
	}
	return []byte(source), nil
}
