package layout

import (
	"math"

	"schemaviz/geometry"
)

// Body is the simulated state of one entity.
type Body struct {
	X, Y   float64
	VX, VY float64
	FX, FY *float64 // Pin, set while the entity is being dragged
}

// Pinned returns true if the body is held at a fixed position.
func (b *Body) Pinned() bool {
	return b.FX != nil && b.FY != nil
}

// Pin fixes the body at (x, y) until Unpin is called.
func (b *Body) Pin(x, y float64) {
	fx, fy := x, y
	b.FX, b.FY = &fx, &fy
}

// Unpin returns the body to simulation control.
func (b *Body) Unpin() {
	b.FX, b.FY = nil, nil
}

// Pos returns the current position.
func (b *Body) Pos() geometry.Vec {
	return geometry.Vec{X: b.X, Y: b.Y}
}

// Positions is the position table owned by a simulation, keyed by entity id.
type Positions map[string]*Body

// Clone returns a deep copy, so callers can hold a frame while the
// simulation keeps moving.
func (p Positions) Clone() Positions {
	out := make(Positions, len(p))
	for id, b := range p {
		c := *b
		if b.Pinned() {
			c.Pin(*b.FX, *b.FY)
		}
		out[id] = &c
	}
	return out
}

// Points flattens the table to plain coordinates.
func (p Positions) Points() map[string]geometry.Vec {
	out := make(map[string]geometry.Vec, len(p))
	for id, b := range p {
		out[id] = b.Pos()
	}
	return out
}

// initialPositions places bodies on a phyllotaxis spiral around center, or
// uniformly at random within a 300 unit square when rnd is set.
func initialPositions(ids []string, center geometry.Vec, rnd func() float64) Positions {
	const (
		initialRadius = 10.0
	)
	initialAngle := math.Pi * (3 - math.Sqrt(5))

	p := make(Positions, len(ids))
	for i, id := range ids {
		b := &Body{}
		if rnd != nil {
			b.X = center.X + (rnd()-0.5)*300
			b.Y = center.Y + (rnd()-0.5)*300
		} else {
			radius := initialRadius * math.Sqrt(0.5+float64(i))
			angle := float64(i) * initialAngle
			b.X = center.X + radius*math.Cos(angle)
			b.Y = center.Y + radius*math.Sin(angle)
		}
		p[id] = b
	}
	return p
}
