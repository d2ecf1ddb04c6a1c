package view

import (
	"context"

	"schemaviz/canvas"
	"schemaviz/geometry"
	"schemaviz/layout"
	"schemaviz/schema"
	"schemaviz/table"
)

// Format selects what a renderer produces.
type Format int

const (
	FormatText Format = iota // Terminal text
	FormatSVG                // Vector image, or the diagram engine output
)

// Surface is the drawing area in terminal cells. Vector output uses the
// matching size in layout units.
type Surface struct {
	Cols int
	Rows int
}

// DefaultSurface is an 800x600 unit area.
var DefaultSurface = Surface{Cols: 80, Rows: 30}

// World returns the surface size in layout units.
func (s Surface) World() (width, height float64) {
	return float64(s.Cols) * canvas.CellWidth, float64(s.Rows) * canvas.CellHeight
}

// Valid reports whether the surface has room to draw.
func (s Surface) Valid() bool {
	return s.Cols > 0 && s.Rows > 0
}

// Request carries everything a renderer needs for one frame.
type Request struct {
	Dataset  *schema.Resolved
	Viewport layout.Viewport
	Surface  Surface
	Format   Format
}

// Frame is the output of one render.
type Frame struct {
	Mode        Mode
	Fullscreen  bool
	Scale       float64
	Text        string
	Canvas      *canvas.MatrixCanvas // Layout text frames only
	Body        []byte               // Image or engine output
	ContentType string
	Tables      []table.EntityTable
	Positions   map[string]geometry.Vec
	Err         error
}

// Renderer draws one view. Renderers are independent: a failing renderer
// never affects another.
type Renderer interface {
	Mode() Mode
	Render(ctx context.Context, req Request) (Frame, error)
	Resize(s Surface)
	Close()
}
