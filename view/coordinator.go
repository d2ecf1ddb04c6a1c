// Package view switches between the layout, diagram and table views of one
// dataset and carries the shared zoom, pan and fullscreen state.
package view

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"schemaviz/canvas"
	"schemaviz/erd"
	"schemaviz/geometry"
	"schemaviz/layout"
	"schemaviz/schema"
)

// ChromeRows is the number of surface rows taken by the header and status
// line outside fullscreen.
const ChromeRows = 2

// ErrClosed is returned by operations on a closed coordinator.
var ErrClosed = errors.New("view coordinator is closed")

// Options configures a Coordinator.
type Options struct {
	Layout   layout.Config
	Live     bool          // Run the layout on a background runner
	Interval time.Duration // Runner tick interval
	FPS      float64       // Runner frame rate
	Ticks    int           // Static layout tick budget

	Engine  erd.Engine // nil renders diagram source only
	Diagram erd.Config

	Surface Surface // Full drawing area, DefaultSurface when zero
	Logger  *zap.Logger

	// OnChange is called from the runner goroutine when the live layout
	// moves. It must not block or call back into the coordinator.
	OnChange func()
}

// Coordinator owns the dataset snapshot, the active mode and the viewport.
// All methods are safe for concurrent use.
type Coordinator struct {
	logger *zap.Logger

	mu         sync.Mutex
	ctx        context.Context
	mode       Mode
	fullscreen bool
	surface    Surface
	viewport   layout.Viewport
	dataset    schema.Dataset
	resolved   *schema.Resolved
	layout     *LayoutRenderer
	renderers  map[Mode]Renderer
	dragging   string
	closed     bool
}

// New creates a coordinator in layout mode, not fullscreen, with an empty
// dataset.
func New(opts Options) *Coordinator {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if !opts.Surface.Valid() {
		opts.Surface = DefaultSurface
	}

	lr := NewLayoutRenderer(LayoutOptions{
		Config:   opts.Layout,
		Live:     opts.Live,
		Interval: opts.Interval,
		FPS:      opts.FPS,
		Ticks:    opts.Ticks,
		Logger:   logger.Named("layout"),
		OnFrame: func(layout.Frame) {
			if opts.OnChange != nil {
				opts.OnChange()
			}
		},
	})

	c := &Coordinator{
		logger:  logger,
		ctx:     context.Background(),
		mode:    ModeLayout,
		surface: opts.Surface,
		layout:  lr,
		renderers: map[Mode]Renderer{
			ModeLayout:  lr,
			ModeDiagram: NewDiagramRenderer(opts.Engine, opts.Diagram, logger.Named("diagram")),
			ModeTable:   NewTableRenderer(),
		},
	}

	active := c.activeSurface()
	w, h := active.World()
	c.viewport = layout.NewViewport(w, h)
	lr.Resize(active)
	c.resolved = schema.Resolve(schema.Dataset{}, nil)
	return c
}

// Mode returns the active mode.
func (c *Coordinator) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Fullscreen reports whether fullscreen is on.
func (c *Coordinator) Fullscreen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fullscreen
}

// Viewport returns the current zoom and pan.
func (c *Coordinator) Viewport() layout.Viewport {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewport
}

// Surface returns the area the active renderer draws into.
func (c *Coordinator) Surface() Surface {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeSurface()
}

// Dataset returns a copy of the current dataset.
func (c *Coordinator) Dataset() schema.Dataset {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dataset.Clone()
}

// Resolved returns the resolved form of the current dataset.
func (c *Coordinator) Resolved() *schema.Resolved {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resolved
}

// Layout exposes the layout renderer for pointer interaction in layout
// units.
func (c *Coordinator) Layout() *LayoutRenderer {
	return c.layout
}

// SetContext sets the context that bounds live layout runners started by
// later SetDataset calls.
func (c *Coordinator) SetContext(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ctx = ctx
}

// SetDataset replaces the dataset wholesale. The previous simulation is torn
// down and a new one started; links with unknown endpoints are dropped and
// logged.
func (c *Coordinator) SetDataset(ds schema.Dataset) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	c.dataset = ds.Clone()
	c.resolved = schema.Resolve(c.dataset, c.logger)
	c.dragging = ""
	c.layout.Load(c.ctx, c.resolved)

	c.logger.Info("dataset loaded",
		zap.Int("entities", len(c.resolved.Entities)),
		zap.Int("links", len(c.resolved.Links)),
		zap.Int("dropped", len(c.resolved.Dropped)))
	return nil
}

// SelectMode switches the active view and resets the viewport.
func (c *Coordinator) SelectMode(m Mode) error {
	if !m.Valid() {
		return fmt.Errorf("unknown view mode %d", int(m))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != m {
		c.logger.Debug("switching view", zap.Stringer("from", c.mode), zap.Stringer("to", m))
	}
	c.mode = m
	c.dragging = ""
	c.viewport.Reset()
	return nil
}

// NextMode switches to the following view.
func (c *Coordinator) NextMode() Mode {
	c.mu.Lock()
	next := c.mode.Next()
	c.mu.Unlock()

	_ = c.SelectMode(next)
	return next
}

// ToggleFullscreen flips fullscreen, resets the viewport and makes the
// active renderer size itself to the new surface.
func (c *Coordinator) ToggleFullscreen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.fullscreen = !c.fullscreen
	c.resize()
	return c.fullscreen
}

// SetSurface changes the full drawing area, for example when the terminal
// is resized.
func (c *Coordinator) SetSurface(s Surface) {
	if !s.Valid() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.surface = s
	c.resize()
}

func (c *Coordinator) resize() {
	active := c.activeSurface()
	w, h := active.World()
	c.viewport.Resize(w, h)
	c.viewport.Reset()
	c.renderers[c.mode].Resize(active)
	if c.mode != ModeLayout {
		c.layout.Resize(active)
	}
}

func (c *Coordinator) activeSurface() Surface {
	s := c.surface
	if !c.fullscreen && s.Rows > ChromeRows+1 {
		s.Rows -= ChromeRows
	}
	return s
}

// ZoomIn zooms the viewport in one step.
func (c *Coordinator) ZoomIn() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewport.ZoomIn()
	return c.viewport.Scale
}

// ZoomOut zooms the viewport out one step.
func (c *Coordinator) ZoomOut() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewport.ZoomOut()
	return c.viewport.Scale
}

// SetZoom sets the scale directly, clamped to the allowed range.
func (c *Coordinator) SetZoom(scale float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewport.SetScale(scale)
	return c.viewport.Scale
}

// ResetZoom restores scale 1 with no pan.
func (c *Coordinator) ResetZoom() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewport.Reset()
}

// Pan moves the view by (dx, dy) layout units.
func (c *Coordinator) Pan(dx, dy float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewport.Pan(dx, dy)
}

// DragStartAt starts dragging the entity under a surface cell. It only
// applies in layout mode.
func (c *Coordinator) DragStartAt(cell canvas.Point) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != ModeLayout {
		return "", fmt.Errorf("drag in %s view: %w", c.mode, ErrNoEntity)
	}

	world := c.projection().ToWorld(cell)
	id, ok := c.layout.HitTest(world)
	if !ok {
		return "", ErrNoEntity
	}
	if err := c.layout.DragStart(id); err != nil {
		return "", err
	}
	c.dragging = id
	return id, nil
}

// DragTo moves the dragged entity to a surface cell.
func (c *Coordinator) DragTo(cell canvas.Point) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dragging == "" {
		return nil
	}
	world := c.projection().ToWorld(cell)
	return c.layout.DragMove(c.dragging, world.X, world.Y)
}

// DragEnd releases the dragged entity, if any.
func (c *Coordinator) DragEnd() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dragging == "" {
		return nil
	}
	id := c.dragging
	c.dragging = ""
	return c.layout.DragEnd(id)
}

// Dragging returns the id of the entity being dragged, or "".
func (c *Coordinator) Dragging() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dragging
}

// ToWorld maps a surface cell to layout units under the current viewport.
func (c *Coordinator) ToWorld(cell canvas.Point) geometry.Vec {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projection().ToWorld(cell)
}

func (c *Coordinator) projection() canvas.Projection {
	active := c.activeSurface()
	return canvas.NewProjection(active.Cols, active.Rows, c.viewport)
}

// Render draws the active view as text.
func (c *Coordinator) Render(ctx context.Context) Frame {
	c.mu.Lock()
	mode := c.mode
	c.mu.Unlock()
	return c.RenderAs(ctx, mode, FormatText)
}

// RenderAs draws a view without making it active. A renderer that fails or
// panics yields a frame with Err set and an error panel as text; the other
// views are unaffected.
func (c *Coordinator) RenderAs(ctx context.Context, mode Mode, format Format) Frame {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Frame{Mode: mode, Err: ErrClosed, Text: ErrorPanel(mode, ErrClosed)}
	}
	renderer, ok := c.renderers[mode]
	req := Request{
		Dataset:  c.resolved,
		Viewport: c.viewport,
		Surface:  c.activeSurface(),
		Format:   format,
	}
	fullscreen := c.fullscreen
	c.mu.Unlock()

	if !ok {
		err := fmt.Errorf("unknown view mode %d", int(mode))
		return Frame{Mode: mode, Err: err, Text: ErrorPanel(mode, err)}
	}

	frame, err := c.safeRender(ctx, renderer, req)
	frame.Mode = mode
	frame.Fullscreen = fullscreen
	frame.Scale = req.Viewport.Scale
	if err != nil {
		c.logger.Warn("view render failed", zap.Stringer("mode", mode), zap.Error(err))
		frame.Err = err
		frame.Text = ErrorPanel(mode, err)
		frame.Canvas = nil
		frame.Body = nil
	}
	return frame
}

func (c *Coordinator) safeRender(ctx context.Context, r Renderer, req Request) (frame Frame, err error) {
	defer func() {
		if p := recover(); p != nil {
			c.logger.Error("view renderer panicked",
				zap.Stringer("mode", r.Mode()),
				zap.Any("panic", p),
				zap.ByteString("stack", debug.Stack()))
			frame = Frame{}
			err = fmt.Errorf("renderer panicked: %v", p)
		}
	}()
	return r.Render(ctx, req)
}

// Close stops the layout simulation and releases every renderer.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	for _, m := range Modes() {
		c.renderers[m].Close()
	}
}

// ErrorPanel is the text shown in place of a view that failed to render.
func ErrorPanel(mode Mode, err error) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("⚠ %s view could not be rendered\n\n", mode.Title()))
	for _, line := range strings.Split(err.Error(), "\n") {
		sb.WriteString("  " + line + "\n")
	}
	sb.WriteString("\nOther views are still available.\n")
	return sb.String()
}
