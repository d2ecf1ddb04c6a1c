package canvas

import (
	"schemaviz/geometry"
	"schemaviz/layout"
	"schemaviz/schema"
)

// Size of one terminal cell in layout units. Cells are about twice as tall
// as they are wide.
const (
	CellWidth  = 10.0
	CellHeight = 20.0
)

// LabelOffset is how far below an entity centre its label is drawn, in
// layout units.
const LabelOffset = 45.0

// EmptyState is drawn when there is nothing to lay out.
const EmptyState = "(no entities)"

// Projection maps layout space to canvas cells through a viewport.
type Projection struct {
	Viewport layout.Viewport
}

// NewProjection returns a projection for a cols x rows canvas. The
// viewport is resized to the canvas, zoom and pan are kept.
func NewProjection(cols, rows int, vp layout.Viewport) Projection {
	vp.Resize(float64(cols)*CellWidth, float64(rows)*CellHeight)
	return Projection{Viewport: vp}
}

// ToCell maps a layout position to the cell it falls in.
func (p Projection) ToCell(v geometry.Vec) Point {
	s := p.Viewport.ToScreen(v)
	return Point{X: geometry.Round(s.X / CellWidth), Y: geometry.Round(s.Y / CellHeight)}
}

// ToWorld maps a cell back to layout space, for hit testing.
func (p Projection) ToWorld(pt Point) geometry.Vec {
	return p.Viewport.ToWorld(geometry.Vec{X: float64(pt.X) * CellWidth, Y: float64(pt.Y) * CellHeight})
}

// DrawOptions tweak DrawLayout.
type DrawOptions struct {
	Selected string // Entity drawn highlighted, usually the one being dragged
}

var linkStyle = Colored(schema.KindColor(""))

// DrawLayout draws links as lines with a short cardinality tag at their
// middle, then each entity as a coloured marker with its label below.
// Entities without a position are skipped.
func DrawLayout(c *MatrixCanvas, r *schema.Resolved, positions map[string]geometry.Vec, proj Projection, opts DrawOptions) {
	w, h := c.Size()
	if r == nil || r.IsEmpty() {
		c.DrawTextCentered(w/2, h/2, EmptyState, Style{})
		return
	}

	for _, l := range r.Links {
		a, okA := positions[l.SourceID]
		b, okB := positions[l.TargetID]
		if !okA || !okB {
			continue
		}
		pa, pb := proj.ToCell(a), proj.ToCell(b)

		if l.SourceID == l.TargetID {
			_ = c.SetStyled(Point{X: pa.X + 1, Y: pa.Y - 1}, '↺', linkStyle)
			continue
		}

		c.DrawLine(pa, pb, lineRune(pa, pb, l.Cardinality), linkStyle)
		mid := Point{X: (pa.X + pb.X) / 2, Y: (pa.Y + pb.Y) / 2}
		c.DrawTextCentered(mid.X, mid.Y, ShortCardinality(l.Cardinality), linkStyle)
	}

	for _, e := range r.Entities {
		p, ok := positions[e.ID]
		if !ok {
			continue
		}
		style := Colored(schema.KindColor(e.Kind))
		marker := '●'
		if e.ID == opts.Selected {
			style.Bold = true
			marker = '◉'
		}

		cell := proj.ToCell(p)
		_ = c.SetStyled(cell, marker, style)

		label := proj.ToCell(p.Add(geometry.Vec{Y: LabelOffset}))
		if label.Y <= cell.Y {
			label.Y = cell.Y + 1
		}
		c.DrawTextCentered(cell.X, label.Y, e.Label(), Style{})
	}
}

// ShortCardinality is the compact tag drawn on terminal links.
func ShortCardinality(c schema.Cardinality) string {
	switch c {
	case schema.OneToOne:
		return "1:1"
	case schema.OneToMany:
		return "1:N"
	case schema.ManyToOne:
		return "N:1"
	case schema.ManyToMany:
		return "N:M"
	default:
		return "~"
	}
}

// lineRune picks a character that follows the direction of the segment.
func lineRune(a, b Point, c schema.Cardinality) rune {
	if !c.Known() {
		return '·'
	}
	dx, dy := b.X-a.X, b.Y-a.Y
	switch {
	case dy == 0:
		return '─'
	case dx == 0:
		return '│'
	case geometry.Abs(dx) > 3*geometry.Abs(dy):
		return '─'
	case geometry.Abs(dy)*3 > geometry.Abs(dx)*2:
		return '│'
	case (dx > 0) == (dy > 0):
		return '╲'
	default:
		return '╱'
	}
}
