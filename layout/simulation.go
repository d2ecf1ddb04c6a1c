package layout

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"schemaviz/geometry"
	"schemaviz/schema"
)

// ErrUnknownEntity is returned by drag operations on an id the simulation
// does not know.
var ErrUnknownEntity = errors.New("unknown entity")

// Simulation is a force-directed layout over one resolved dataset.
type Simulation struct {
	cfg     Config
	ids     []string // Entity ids in input order, duplicates removed
	springs []spring
	bodies  Positions

	alpha       float64
	alphaTarget float64
	ticks       int
	dragging    map[string]bool
	ticking     bool // Guards against re-entrant Tick calls
}

// NewSimulation creates a simulation for the resolved dataset. Links must
// already be resolved: every endpoint exists.
func NewSimulation(r *schema.Resolved, cfg Config) *Simulation {
	cfg = cfg.withDefaults()

	s := &Simulation{
		cfg:         cfg,
		alpha:       cfg.Alpha,
		alphaTarget: cfg.AlphaTarget,
		dragging:    make(map[string]bool),
	}

	seen := make(map[string]bool)
	for _, e := range r.Entities {
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		s.ids = append(s.ids, e.ID)
	}

	var rnd func() float64
	if cfg.Seed != 0 {
		rnd = rand.New(rand.NewSource(cfg.Seed)).Float64
	}
	s.bodies = initialPositions(s.ids, cfg.Center(), rnd)
	s.springs = buildSprings(r.Links)

	return s
}

// buildSprings derives bias and strength from node degree so hubs are not
// pulled around as much as leaves.
func buildSprings(links []schema.Link) []spring {
	count := make(map[string]int)
	for _, l := range links {
		if l.SourceID == l.TargetID {
			continue
		}
		count[l.SourceID]++
		count[l.TargetID]++
	}

	springs := make([]spring, 0, len(links))
	for _, l := range links {
		if l.SourceID == l.TargetID {
			continue // Self links carry no force
		}
		cs, ct := count[l.SourceID], count[l.TargetID]
		springs = append(springs, spring{
			source:   l.SourceID,
			target:   l.TargetID,
			bias:     float64(cs) / float64(cs+ct),
			strength: 1 / float64(min(cs, ct)),
		})
	}
	return springs
}

// Tick advances the simulation by one step.
func (s *Simulation) Tick() {
	if s.ticking {
		return
	}
	s.ticking = true
	defer func() { s.ticking = false }()

	s.alpha += (s.alphaTarget - s.alpha) * s.cfg.AlphaDecay

	center := s.cfg.Center()
	s.bodies = applyLinks(s.bodies, s.springs, s.cfg.LinkDistance, s.alpha)
	s.bodies = applyCharge(s.bodies, s.ids, s.cfg.Charge, s.alpha)
	s.bodies = applyCenter(s.bodies, s.ids, center.X, center.Y)
	s.bodies = integrate(s.bodies, s.ids, s.cfg.VelocityDecay)
	s.bodies = applyCollision(s.bodies, s.ids, s.cfg.CollisionRadius, s.cfg.CollideIterations)

	s.ticks++
}

// Run ticks until the simulation settles or maxTicks is reached, and
// returns the number of ticks taken. maxTicks <= 0 uses Config.MaxTicks.
func (s *Simulation) Run(maxTicks int) int {
	if maxTicks <= 0 {
		maxTicks = s.cfg.MaxTicks
	}
	n := 0
	for n < maxTicks && !s.Converged() {
		s.Tick()
		n++
	}
	return n
}

// Converged returns true once alpha has cooled below AlphaMin.
func (s *Simulation) Converged() bool {
	return s.alpha < s.cfg.AlphaMin
}

// Alpha returns the current energy.
func (s *Simulation) Alpha() float64 {
	return s.alpha
}

// Ticks returns the number of ticks applied so far.
func (s *Simulation) Ticks() int {
	return s.ticks
}

// Config returns the effective configuration.
func (s *Simulation) Config() Config {
	return s.cfg
}

// IDs returns the simulated entity ids in input order.
func (s *Simulation) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Positions returns a copy of the position table.
func (s *Simulation) Positions() Positions {
	return s.bodies.Clone()
}

// Position returns the current position of one entity.
func (s *Simulation) Position(id string) (geometry.Vec, bool) {
	b, ok := s.bodies[id]
	if !ok {
		return geometry.Vec{}, false
	}
	return b.Pos(), true
}

// Restart raises alpha to at least ReheatAlpha so the layout re-settles.
func (s *Simulation) Restart() {
	s.alpha = math.Max(s.alpha, s.cfg.ReheatAlpha)
}

// DragStart pins the entity at its current position and keeps the
// simulation warm while it is held.
func (s *Simulation) DragStart(id string) error {
	b, ok := s.bodies[id]
	if !ok {
		return fmt.Errorf("drag start %q: %w", id, ErrUnknownEntity)
	}
	b.Pin(b.X, b.Y)
	s.dragging[id] = true
	s.alphaTarget = s.cfg.DragAlphaTarget
	s.Restart()
	return nil
}

// DragMove moves the pin of a held entity. The body reaches (x, y) on the
// next tick regardless of the forces acting on it.
func (s *Simulation) DragMove(id string, x, y float64) error {
	b, ok := s.bodies[id]
	if !ok {
		return fmt.Errorf("drag move %q: %w", id, ErrUnknownEntity)
	}
	if !s.dragging[id] {
		return fmt.Errorf("drag move %q: not being dragged", id)
	}
	b.Pin(x, y)
	return nil
}

// DragEnd releases the entity back to the simulation.
func (s *Simulation) DragEnd(id string) error {
	b, ok := s.bodies[id]
	if !ok {
		return fmt.Errorf("drag end %q: %w", id, ErrUnknownEntity)
	}
	b.Unpin()
	delete(s.dragging, id)
	if len(s.dragging) == 0 {
		s.alphaTarget = s.cfg.AlphaTarget
	}
	s.Restart()
	return nil
}

// Dragging reports whether the entity is currently held.
func (s *Simulation) Dragging(id string) bool {
	return s.dragging[id]
}

// Resize moves the centering target to the middle of the new canvas and
// reheats the layout.
func (s *Simulation) Resize(width, height float64) {
	if width <= 0 || height <= 0 {
		return
	}
	s.cfg.Width = width
	s.cfg.Height = height
	s.Restart()
}

// Nearest returns the entity whose center is closest to pt, if it lies
// within the given distance.
func (s *Simulation) Nearest(pt geometry.Vec, within float64) (string, bool) {
	best := ""
	bestDist := math.Inf(1)
	for _, id := range s.ids {
		d := geometry.Distance(pt, s.bodies[id].Pos())
		if d < bestDist {
			best, bestDist = id, d
		}
	}
	if best == "" || bestDist > within {
		return "", false
	}
	return best, true
}
