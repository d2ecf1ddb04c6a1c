package view

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"schemaviz/erd"
	"schemaviz/table"
)

// DiagramRenderer generates erDiagram source and passes it to an engine.
// Successful engine output is cached by source, so an unchanged dataset is
// rendered once.
type DiagramRenderer struct {
	gen    *erd.Generator
	engine erd.Engine
	cfg    erd.Config
	logger *zap.Logger

	mu        sync.Mutex
	cacheKey  string
	cacheBody []byte
}

// NewDiagramRenderer creates a diagram renderer. A nil engine returns the
// source itself.
func NewDiagramRenderer(engine erd.Engine, cfg erd.Config, logger *zap.Logger) *DiagramRenderer {
	if engine == nil {
		engine = erd.SourceEngine{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DiagramRenderer{
		gen:    erd.NewGenerator(logger),
		engine: engine,
		cfg:    cfg,
		logger: logger,
	}
}

// Mode returns ModeDiagram.
func (r *DiagramRenderer) Mode() Mode {
	return ModeDiagram
}

// Render generates the source and renders it. An engine failure is
// returned as an error together with a frame that still carries the
// source.
func (r *DiagramRenderer) Render(ctx context.Context, req Request) (Frame, error) {
	frame := Frame{Mode: ModeDiagram, ContentType: "text/plain; charset=utf-8"}

	if req.Dataset == nil || req.Dataset.IsEmpty() {
		frame.Text = table.EmptyState
		return frame, nil
	}

	source := r.gen.GenerateResolved(req.Dataset)
	frame.Text = source

	body, err := r.render(ctx, source)
	if err != nil {
		return frame, fmt.Errorf("failed to render diagram: %w", err)
	}
	frame.Body = body
	if _, ok := r.engine.(erd.SourceEngine); !ok {
		frame.ContentType = contentType(r.cfg.Format)
	}
	return frame, nil
}

func (r *DiagramRenderer) render(ctx context.Context, source string) ([]byte, error) {
	sum := sha256.Sum256([]byte(source))
	key := hex.EncodeToString(sum[:])

	r.mu.Lock()
	if key == r.cacheKey {
		body := r.cacheBody
		r.mu.Unlock()
		return body, nil
	}
	r.mu.Unlock()

	body, err := r.engine.Render(ctx, source, r.cfg)
	if err != nil {
		r.logger.Warn("diagram engine failed", zap.String("hash", key[:12]), zap.Error(err))
		return nil, err
	}

	r.mu.Lock()
	r.cacheKey, r.cacheBody = key, body
	r.mu.Unlock()
	return body, nil
}

// Resize is a no-op; the engine sizes the diagram itself.
func (r *DiagramRenderer) Resize(Surface) {}

// Close drops the cached output.
func (r *DiagramRenderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cacheKey, r.cacheBody = "", nil
}

func contentType(f erd.OutputFormat) string {
	if f == erd.OutputPNG {
		return "image/png"
	}
	return "image/svg+xml"
}
