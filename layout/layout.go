// Package layout positions schema entities with a force-directed simulation.
//
// The simulation owns an explicit position table (entity id -> Body). Each
// tick applies link springs, many-body repulsion, centering and collision
// separation, then integrates velocities. An alpha parameter cools from 1
// toward a target; the layout is settled once alpha drops below AlphaMin.
//
// Simulation is not safe for concurrent use. Runner wraps it in a single
// event loop so ticks, drags and resizes are applied one at a time in
// arrival order.
package layout

import (
	"math"

	"schemaviz/geometry"
)

// Config holds the tunable parameters of the simulation.
type Config struct {
	Width  float64 // Canvas width, the centering force targets Width/2
	Height float64 // Canvas height

	Charge          float64 // Many-body strength, negative repels
	LinkDistance    float64 // Rest length of link springs
	CollisionRadius float64 // Entity circle radius, centers stay 2x apart

	Alpha         float64 // Starting energy
	AlphaMin      float64 // Settled below this
	AlphaDecay    float64 // Fraction of (target - alpha) applied per tick
	AlphaTarget   float64 // Energy the simulation cools toward
	VelocityDecay float64 // Fraction of velocity lost per tick

	DragAlphaTarget float64 // Target while an entity is held
	ReheatAlpha     float64 // Minimum alpha after a drag or resize

	MaxTicks          int // Upper bound for Run
	CollideIterations int // Position-correction passes per tick

	Seed int64 // 0 = deterministic spiral placement, otherwise seeded random
}

// DefaultConfig returns the parameters used by the dashboard graph: -800
// charge, 150 unit links, 30 unit circles on an 800x600 canvas.
func DefaultConfig() Config {
	return Config{
		Width:             800,
		Height:            600,
		Charge:            -800,
		LinkDistance:      150,
		CollisionRadius:   30,
		Alpha:             1,
		AlphaMin:          0.001,
		AlphaDecay:        1 - math.Pow(0.001, 1.0/300),
		AlphaTarget:       0,
		VelocityDecay:     0.4,
		DragAlphaTarget:   0.3,
		ReheatAlpha:       0.3,
		MaxTicks:          1000,
		CollideIterations: 2,
	}
}

// Center returns the canvas midpoint.
func (c Config) Center() geometry.Vec {
	return geometry.Vec{X: c.Width / 2, Y: c.Height / 2}
}

// withDefaults fills zero values so a partially specified Config still runs.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Width <= 0 {
		c.Width = d.Width
	}
	if c.Height <= 0 {
		c.Height = d.Height
	}
	if c.Charge == 0 {
		c.Charge = d.Charge
	}
	if c.LinkDistance <= 0 {
		c.LinkDistance = d.LinkDistance
	}
	if c.CollisionRadius <= 0 {
		c.CollisionRadius = d.CollisionRadius
	}
	if c.Alpha <= 0 {
		c.Alpha = d.Alpha
	}
	if c.AlphaMin <= 0 {
		c.AlphaMin = d.AlphaMin
	}
	if c.AlphaDecay <= 0 || c.AlphaDecay >= 1 {
		c.AlphaDecay = d.AlphaDecay
	}
	if c.VelocityDecay <= 0 || c.VelocityDecay >= 1 {
		c.VelocityDecay = d.VelocityDecay
	}
	if c.DragAlphaTarget <= 0 {
		c.DragAlphaTarget = d.DragAlphaTarget
	}
	if c.ReheatAlpha <= 0 {
		c.ReheatAlpha = d.ReheatAlpha
	}
	if c.MaxTicks <= 0 {
		c.MaxTicks = d.MaxTicks
	}
	if c.CollideIterations <= 0 {
		c.CollideIterations = d.CollideIterations
	}
	return c
}
