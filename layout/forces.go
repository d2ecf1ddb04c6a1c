package layout

import "math"

// Each force takes the position table, adjusts velocities (or positions for
// centering and collision) and returns the same table. Iteration always
// follows ids so results do not depend on map order.

// spring is a link prepared for the link force.
type spring struct {
	source, target string
	bias           float64 // Share of the correction applied to the target
	strength       float64
}

// distanceMin2 bounds the many-body force for nearly coincident bodies.
const distanceMin2 = 1.0

// jiggle separates coincident bodies along a direction that is opposite for
// the two members of the pair.
func jiggle(i, j int) float64 {
	return float64(j-i) * 1e-6
}

// applyLinks pulls linked bodies toward distance apart.
func applyLinks(p Positions, springs []spring, distance, alpha float64) Positions {
	for i, s := range springs {
		src, dst := p[s.source], p[s.target]
		if src == nil || dst == nil || src == dst {
			continue
		}

		dx := dst.X + dst.VX - src.X - src.VX
		dy := dst.Y + dst.VY - src.Y - src.VY
		if dx == 0 && dy == 0 {
			dx = jiggle(i, i+1)
		}

		l := math.Hypot(dx, dy)
		l = (l - distance) / l * alpha * s.strength
		dx *= l
		dy *= l

		dst.VX -= dx * s.bias
		dst.VY -= dy * s.bias
		src.VX += dx * (1 - s.bias)
		src.VY += dy * (1 - s.bias)
	}
	return p
}

// applyCharge applies pairwise inverse-distance repulsion (or attraction for a
// positive strength) between every pair of bodies.
func applyCharge(p Positions, ids []string, strength, alpha float64) Positions {
	for i, a := range ids {
		bi := p[a]
		for j, b := range ids {
			if i == j {
				continue
			}
			bj := p[b]

			dx := bj.X - bi.X
			dy := bj.Y - bi.Y
			if dx == 0 && dy == 0 {
				dx = jiggle(i, j)
			}

			l := dx*dx + dy*dy
			if l < distanceMin2 {
				l = math.Sqrt(distanceMin2 * l)
			}

			w := strength * alpha / l
			bi.VX += dx * w
			bi.VY += dy * w
		}
	}
	return p
}

// applyCenter translates every body so the mean position sits on (cx, cy).
func applyCenter(p Positions, ids []string, cx, cy float64) Positions {
	if len(ids) == 0 {
		return p
	}

	var sx, sy float64
	for _, id := range ids {
		sx += p[id].X
		sy += p[id].Y
	}
	sx = sx/float64(len(ids)) - cx
	sy = sy/float64(len(ids)) - cy

	for _, id := range ids {
		p[id].X -= sx
		p[id].Y -= sy
	}
	return p
}

// integrate applies velocity decay and moves bodies. Pinned bodies are set to
// their pin and lose their velocity.
func integrate(p Positions, ids []string, velocityDecay float64) Positions {
	keep := 1 - velocityDecay
	for _, id := range ids {
		b := p[id]
		if b.Pinned() {
			b.X, b.Y = *b.FX, *b.FY
			b.VX, b.VY = 0, 0
			continue
		}
		b.VX *= keep
		b.VY *= keep
		b.X += b.VX
		b.Y += b.VY
	}
	return p
}

// applyCollision pushes apart bodies whose circles overlap. Pinned bodies
// never move; when one side of a pair is pinned the other takes the whole
// correction.
func applyCollision(p Positions, ids []string, radius float64, iterations int) Positions {
	minDist := 2 * radius

	for it := 0; it < iterations; it++ {
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				a, b := p[ids[i]], p[ids[j]]
				if a.Pinned() && b.Pinned() {
					continue
				}

				dx := b.X - a.X
				dy := b.Y - a.Y
				d := math.Hypot(dx, dy)
				if d >= minDist {
					continue
				}
				if d == 0 {
					dx, dy = jiggle(i, j), 0
					d = math.Abs(dx)
				}

				overlap := minDist - d
				ux, uy := dx/d, dy/d

				switch {
				case a.Pinned():
					b.X += ux * overlap
					b.Y += uy * overlap
				case b.Pinned():
					a.X -= ux * overlap
					a.Y -= uy * overlap
				default:
					half := overlap / 2
					a.X -= ux * half
					a.Y -= uy * half
					b.X += ux * half
					b.Y += uy * half
				}
			}
		}
	}
	return p
}
