package view

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"schemaviz/canvas"
	"schemaviz/geometry"
	"schemaviz/layout"
	"schemaviz/schema"
)

// ErrNoEntity is returned when a pointer position does not hit an entity.
var ErrNoEntity = errors.New("no entity at position")

// LayoutOptions configures the layout view.
type LayoutOptions struct {
	Config   layout.Config
	Live     bool          // Tick on a Runner instead of settling up front
	Interval time.Duration // Runner tick interval
	FPS      float64       // Runner frame rate
	Ticks    int           // Static mode tick budget, Config.MaxTicks when zero
	OnFrame  func(layout.Frame)
	Logger   *zap.Logger
}

// LayoutRenderer owns the force simulation for the current dataset. In live
// mode a Runner ticks it in the background; otherwise each load, drag and
// resize is settled synchronously.
type LayoutRenderer struct {
	opts   LayoutOptions
	logger *zap.Logger

	mu       sync.Mutex
	resolved *schema.Resolved
	sim      *layout.Simulation
	runner   *layout.Runner
	width    float64
	height   float64
	selected string
}

// NewLayoutRenderer creates a layout renderer with no dataset.
func NewLayoutRenderer(opts LayoutOptions) *LayoutRenderer {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LayoutRenderer{opts: opts, logger: logger}
}

// Mode returns ModeLayout.
func (r *LayoutRenderer) Mode() Mode {
	return ModeLayout
}

// Load tears down the current simulation and starts one for res. ctx bounds
// the lifetime of a live runner.
func (r *LayoutRenderer) Load(ctx context.Context, res *schema.Resolved) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.teardown()
	r.resolved = res
	r.selected = ""

	cfg := r.opts.Config
	if r.width > 0 && r.height > 0 {
		cfg.Width, cfg.Height = r.width, r.height
	}
	r.sim = layout.NewSimulation(res, cfg)

	if !r.opts.Live {
		ticks := r.sim.Run(r.opts.Ticks)
		r.logger.Debug("layout settled",
			zap.Int("entities", len(res.Entities)),
			zap.Int("ticks", ticks),
			zap.Bool("converged", r.sim.Converged()))
		return
	}

	r.runner = layout.NewRunner(r.sim, layout.RunnerOptions{
		Interval: r.opts.Interval,
		FPS:      r.opts.FPS,
		OnFrame:  r.opts.OnFrame,
		Logger:   r.logger,
	})
	r.runner.Start(ctx)
}

func (r *LayoutRenderer) teardown() {
	if r.runner != nil {
		r.runner.Stop()
		r.runner = nil
	}
	r.sim = nil
}

// Positions returns the latest entity positions.
func (r *LayoutRenderer) Positions() map[string]geometry.Vec {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.positions()
}

func (r *LayoutRenderer) positions() map[string]geometry.Vec {
	switch {
	case r.runner != nil:
		return r.runner.Frame().Positions
	case r.sim != nil:
		return r.sim.Positions().Points()
	default:
		return nil
	}
}

// Converged reports whether the layout has settled.
func (r *LayoutRenderer) Converged() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case r.runner != nil:
		return r.runner.Frame().Converged
	case r.sim != nil:
		return r.sim.Converged()
	default:
		return true
	}
}

// HitTest returns the entity whose circle contains the layout point.
func (r *LayoutRenderer) HitTest(p geometry.Vec) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		id string
		ok bool
	)
	find := func(s *layout.Simulation) error {
		id, ok = s.Nearest(p, s.Config().CollisionRadius)
		return nil
	}
	switch {
	case r.runner != nil:
		if err := r.runner.Do(find); err != nil {
			return "", false
		}
	case r.sim != nil:
		_ = find(r.sim)
	}
	return id, ok
}

// DragStart pins an entity where it is.
func (r *LayoutRenderer) DragStart(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.apply(func(s *layout.Simulation) error { return s.DragStart(id) }, false)
	if err == nil {
		r.selected = id
	}
	return err
}

// Dragging returns the id of the held entity, or "".
func (r *LayoutRenderer) Dragging() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.selected
}

// DragMove moves a held entity to (x, y) in layout units.
func (r *LayoutRenderer) DragMove(id string, x, y float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.apply(func(s *layout.Simulation) error { return s.DragMove(id, x, y) }, false)
}

// DragEnd releases a held entity.
func (r *LayoutRenderer) DragEnd(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.selected == id {
		r.selected = ""
	}
	return r.apply(func(s *layout.Simulation) error { return s.DragEnd(id) }, true)
}

// apply runs fn on the simulation. Without a runner the simulation is
// advanced right away: one tick, or until settled when settle is set.
func (r *LayoutRenderer) apply(fn func(*layout.Simulation) error, settle bool) error {
	switch {
	case r.runner != nil:
		return r.runner.Do(fn)
	case r.sim != nil:
		if err := fn(r.sim); err != nil {
			return err
		}
		if settle {
			r.sim.Run(r.opts.Ticks)
		} else {
			r.sim.Tick()
		}
		return nil
	default:
		return fmt.Errorf("no layout loaded: %w", layout.ErrUnknownEntity)
	}
}

// Resize recentres the layout on a new surface.
func (r *LayoutRenderer) Resize(s Surface) {
	if !s.Valid() {
		return
	}
	w, h := s.World()

	r.mu.Lock()
	defer r.mu.Unlock()

	if w == r.width && h == r.height {
		return
	}
	r.width, r.height = w, h

	switch {
	case r.runner != nil:
		if err := r.runner.Resize(w, h); err != nil {
			r.logger.Debug("layout resize dropped", zap.Error(err))
		}
	case r.sim != nil:
		r.sim.Resize(w, h)
		r.sim.Run(r.opts.Ticks)
	}
}

// Render draws the current positions.
func (r *LayoutRenderer) Render(ctx context.Context, req Request) (Frame, error) {
	r.mu.Lock()
	positions := r.positions()
	selected := r.selected
	radius := r.opts.Config.CollisionRadius
	r.mu.Unlock()

	frame := Frame{Mode: ModeLayout, Positions: positions}

	switch req.Format {
	case FormatSVG:
		w, h := req.Surface.World()
		var buf bytes.Buffer
		if err := canvas.SVG(&buf, req.Dataset, positions, req.Viewport, canvas.SVGOptions{
			Width:  int(w),
			Height: int(h),
			Radius: int(radius),
		}); err != nil {
			return frame, fmt.Errorf("failed to draw layout: %w", err)
		}
		frame.Body = buf.Bytes()
		frame.ContentType = "image/svg+xml"

	default:
		c, err := canvas.NewMatrixCanvas(req.Surface.Cols, req.Surface.Rows)
		if err != nil {
			return frame, fmt.Errorf("failed to draw layout: %w", err)
		}
		proj := canvas.NewProjection(req.Surface.Cols, req.Surface.Rows, req.Viewport)
		canvas.DrawLayout(c, req.Dataset, positions, proj, canvas.DrawOptions{Selected: selected})
		frame.Canvas = c
		frame.Text = c.String()
		frame.ContentType = "text/plain; charset=utf-8"
	}

	return frame, nil
}

// Close stops the simulation.
func (r *LayoutRenderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.teardown()
}
