package layout

import (
	"math"

	"schemaviz/geometry"
)

// Zoom limits and step factors.
const (
	MinScale      = 0.1
	MaxScale      = 4.0
	ZoomInFactor  = 1.2
	ZoomOutFactor = 0.8
)

// Viewport is the pan/zoom transform applied at render time. It scales
// around the middle of the view and never touches simulated positions.
type Viewport struct {
	Scale   float64
	OffsetX float64
	OffsetY float64
	Width   float64
	Height  float64
}

// NewViewport returns an identity transform for a view of the given size.
func NewViewport(width, height float64) Viewport {
	return Viewport{Scale: 1, Width: width, Height: height}
}

// ZoomIn multiplies the scale by ZoomInFactor, up to MaxScale.
func (v *Viewport) ZoomIn() {
	v.Scale = math.Min(v.scale()*ZoomInFactor, MaxScale)
}

// ZoomOut multiplies the scale by ZoomOutFactor, down to MinScale.
func (v *Viewport) ZoomOut() {
	v.Scale = math.Max(v.scale()*ZoomOutFactor, MinScale)
}

// SetScale sets the scale directly, clamped to the allowed range.
func (v *Viewport) SetScale(scale float64) {
	v.Scale = geometry.Clamp(scale, MinScale, MaxScale)
}

// Reset returns to scale 1 with no pan.
func (v *Viewport) Reset() {
	v.Scale = 1
	v.OffsetX = 0
	v.OffsetY = 0
}

// Pan shifts the view by (dx, dy) screen units.
func (v *Viewport) Pan(dx, dy float64) {
	v.OffsetX += dx
	v.OffsetY += dy
}

// Resize changes the size of the view without altering zoom or pan.
func (v *Viewport) Resize(width, height float64) {
	v.Width = width
	v.Height = height
}

// ToScreen maps a layout position to view coordinates.
func (v Viewport) ToScreen(p geometry.Vec) geometry.Vec {
	cx, cy := v.Width/2, v.Height/2
	return geometry.Vec{
		X: (p.X-cx)*v.scale() + cx + v.OffsetX,
		Y: (p.Y-cy)*v.scale() + cy + v.OffsetY,
	}
}

// ToWorld maps view coordinates back to layout space.
func (v Viewport) ToWorld(p geometry.Vec) geometry.Vec {
	cx, cy := v.Width/2, v.Height/2
	return geometry.Vec{
		X: (p.X-v.OffsetX-cx)/v.scale() + cx,
		Y: (p.Y-v.OffsetY-cy)/v.scale() + cy,
	}
}

// scale treats the zero value as identity.
func (v Viewport) scale() float64 {
	if v.Scale == 0 {
		return 1
	}
	return v.Scale
}
