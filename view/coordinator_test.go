package view

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"schemaviz/canvas"
	"schemaviz/erd"
	"schemaviz/geometry"
	"schemaviz/layout"
	"schemaviz/schema"
)

func userPost() schema.Dataset {
	return schema.Dataset{
		Entities: []schema.Entity{
			{ID: "u", Name: "User", Kind: "collection", Attributes: []schema.Attribute{
				{Name: "email", DataType: "string", Required: true},
			}},
			{ID: "p", Name: "Post", Kind: "collection", Attributes: []schema.Attribute{
				{Name: "userId", DataType: "objectId"},
			}},
		},
		Links: []schema.Link{{SourceID: "u", TargetID: "p", Cardinality: schema.OneToMany}},
	}
}

func newTestCoordinator(t *testing.T, opts Options) *Coordinator {
	t.Helper()
	opts.Logger = zaptest.NewLogger(t)
	c := New(opts)
	t.Cleanup(c.Close)
	require.NoError(t, c.SetDataset(userPost()))
	return c
}

func TestCoordinatorInitialState(t *testing.T) {
	c := newTestCoordinator(t, Options{})

	assert.Equal(t, ModeLayout, c.Mode())
	assert.False(t, c.Fullscreen())
	assert.Equal(t, 1.0, c.Viewport().Scale)
	assert.Equal(t, Surface{Cols: 80, Rows: 28}, c.Surface())
}

func TestCoordinatorViews(t *testing.T) {
	c := newTestCoordinator(t, Options{})
	ctx := context.Background()

	frame := c.Render(ctx)
	require.NoError(t, frame.Err)
	assert.Equal(t, ModeLayout, frame.Mode)
	assert.Contains(t, frame.Text, "User")
	assert.Contains(t, frame.Text, "Post")
	assert.Len(t, frame.Positions, 2)
	require.NotNil(t, frame.Canvas)

	require.NoError(t, c.SelectMode(ModeDiagram))
	frame = c.Render(ctx)
	require.NoError(t, frame.Err)
	assert.Contains(t, frame.Text, `user ||--o{ post : "one-to-many"`)
	diagram := frame.Text

	require.NoError(t, c.SelectMode(ModeTable))
	frame = c.Render(ctx)
	require.NoError(t, frame.Err)
	require.Len(t, frame.Tables, 2)
	assert.Equal(t, "one-to-many", frame.Tables[0].Relations[0].Cardinality)
	assert.Contains(t, frame.Text, "│ User │ Post │ one-to-many │")
	tables := frame.Text

	// Going back to the layout, and moving it, leaves the other views alone
	require.NoError(t, c.SelectMode(ModeLayout))
	frame = c.Render(ctx)
	require.NoError(t, frame.Err)
	require.NoError(t, c.Layout().DragStart("u"))
	require.NoError(t, c.Layout().DragMove("u", 10, 10))
	require.NoError(t, c.Layout().DragEnd("u"))

	require.NoError(t, c.SelectMode(ModeDiagram))
	frame = c.Render(ctx)
	require.NoError(t, frame.Err)
	assert.Equal(t, diagram, frame.Text)

	require.NoError(t, c.SelectMode(ModeTable))
	frame = c.Render(ctx)
	require.NoError(t, frame.Err)
	assert.Equal(t, tables, frame.Text)
}

func TestCoordinatorEngineFailureIsolated(t *testing.T) {
	failing := erd.EngineFunc(func(ctx context.Context, source string, cfg erd.Config) ([]byte, error) {
		return nil, errors.New("parser exploded")
	})
	c := newTestCoordinator(t, Options{Engine: failing, Diagram: erd.DefaultConfig()})
	ctx := context.Background()

	require.NoError(t, c.SelectMode(ModeDiagram))
	frame := c.Render(ctx)
	require.Error(t, frame.Err)
	assert.Contains(t, frame.Text, "ER Diagram view could not be rendered")
	assert.Contains(t, frame.Text, "parser exploded")

	// The other views keep working
	for _, m := range []Mode{ModeLayout, ModeTable} {
		require.NoError(t, c.SelectMode(m))
		frame := c.Render(ctx)
		assert.NoError(t, frame.Err, "mode %s", m)
		assert.Contains(t, frame.Text, "User", "mode %s", m)
	}

	// Interaction still works after the failure
	assert.Greater(t, c.ZoomIn(), 1.0)
}

func TestCoordinatorPanicIsolated(t *testing.T) {
	panicking := erd.EngineFunc(func(ctx context.Context, source string, cfg erd.Config) ([]byte, error) {
		panic("boom")
	})
	c := newTestCoordinator(t, Options{Engine: panicking})

	frame := c.RenderAs(context.Background(), ModeDiagram, FormatSVG)
	require.Error(t, frame.Err)
	assert.Contains(t, frame.Err.Error(), "boom")
	assert.Nil(t, frame.Body)

	frame = c.RenderAs(context.Background(), ModeLayout, FormatSVG)
	require.NoError(t, frame.Err)
	assert.Equal(t, "image/svg+xml", frame.ContentType)
	assert.Contains(t, string(frame.Body), "<svg")
}

func TestCoordinatorDiagramCache(t *testing.T) {
	var calls int32
	engine := erd.EngineFunc(func(ctx context.Context, source string, cfg erd.Config) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		return []byte("<svg/>"), nil
	})
	c := newTestCoordinator(t, Options{Engine: engine})

	for i := 0; i < 3; i++ {
		frame := c.RenderAs(context.Background(), ModeDiagram, FormatSVG)
		require.NoError(t, frame.Err)
		assert.Equal(t, "<svg/>", string(frame.Body))
		assert.Equal(t, "image/svg+xml", frame.ContentType)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	ds := userPost()
	ds.Entities[0].Name = "Account"
	require.NoError(t, c.SetDataset(ds))
	c.RenderAs(context.Background(), ModeDiagram, FormatSVG)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestCoordinatorZoomBounds(t *testing.T) {
	c := newTestCoordinator(t, Options{})

	for i := 0; i < 50; i++ {
		c.ZoomIn()
	}
	assert.Equal(t, layout.MaxScale, c.Viewport().Scale)

	for i := 0; i < 100; i++ {
		c.ZoomOut()
	}
	assert.Equal(t, layout.MinScale, c.Viewport().Scale)

	c.ResetZoom()
	assert.Equal(t, 1.0, c.Viewport().Scale)
	assert.Equal(t, 4.0, c.SetZoom(100))
}

func TestCoordinatorModeSwitchResetsViewport(t *testing.T) {
	c := newTestCoordinator(t, Options{})

	c.ZoomIn()
	c.Pan(10, 10)
	require.NoError(t, c.SelectMode(ModeTable))

	vp := c.Viewport()
	assert.Equal(t, 1.0, vp.Scale)
	assert.Zero(t, vp.OffsetX)
	assert.Zero(t, vp.OffsetY)

	assert.Error(t, c.SelectMode(Mode(42)))
	assert.Equal(t, ModeTable, c.Mode())
	assert.Equal(t, ModeLayout, c.NextMode())
}

func TestCoordinatorFullscreen(t *testing.T) {
	c := newTestCoordinator(t, Options{})
	before := c.Dataset()

	c.ZoomIn()
	assert.True(t, c.ToggleFullscreen())
	assert.Equal(t, 1.0, c.Viewport().Scale)
	assert.Equal(t, DefaultSurface, c.Surface())
	assert.Equal(t, before, c.Dataset())

	frame := c.Render(context.Background())
	assert.True(t, frame.Fullscreen)
	assert.Len(t, strings.Split(frame.Text, "\n"), DefaultSurface.Rows)

	assert.False(t, c.ToggleFullscreen())
	assert.Equal(t, DefaultSurface.Rows-ChromeRows, c.Surface().Rows)
}

func TestCoordinatorDrag(t *testing.T) {
	c := newTestCoordinator(t, Options{})
	proj := canvas.NewProjection(c.Surface().Cols, c.Surface().Rows, c.Viewport())

	pos := c.Layout().Positions()["u"]
	id, err := c.DragStartAt(proj.ToCell(pos))
	require.NoError(t, err)
	assert.Equal(t, "u", id)
	assert.Equal(t, "u", c.Dragging())

	target := canvas.Point{X: 5, Y: 5}
	require.NoError(t, c.DragTo(target))
	want := c.ToWorld(target)
	got := c.Layout().Positions()["u"]
	assert.InDelta(t, want.X, got.X, 1e-9)
	assert.InDelta(t, want.Y, got.Y, 1e-9)

	require.NoError(t, c.DragEnd())
	assert.Empty(t, c.Dragging())

	_, err = c.DragStartAt(canvas.Point{X: 0, Y: 0})
	assert.ErrorIs(t, err, ErrNoEntity)
}

func TestCoordinatorDanglingLinks(t *testing.T) {
	c := newTestCoordinator(t, Options{})

	ds := userPost()
	ds.Links = append(ds.Links, schema.Link{SourceID: "u", TargetID: "ghost"})
	require.NoError(t, c.SetDataset(ds))

	assert.Len(t, c.Resolved().Links, 1)
	assert.Len(t, c.Resolved().Dropped, 1)
	for _, m := range Modes() {
		assert.NoError(t, c.RenderAs(context.Background(), m, FormatText).Err, "mode %s", m)
	}
}

func TestCoordinatorEmptyDataset(t *testing.T) {
	c := newTestCoordinator(t, Options{})
	require.NoError(t, c.SetDataset(schema.Dataset{}))

	for _, m := range Modes() {
		frame := c.RenderAs(context.Background(), m, FormatText)
		assert.NoError(t, frame.Err, "mode %s", m)
		assert.Contains(t, frame.Text, "(no entities)", "mode %s", m)
	}
}

func TestCoordinatorLive(t *testing.T) {
	var frames int32
	c := New(Options{
		Live:     true,
		Interval: time.Millisecond,
		FPS:      1000,
		Logger:   zaptest.NewLogger(t),
		OnChange: func() { atomic.AddInt32(&frames, 1) },
	})
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.SetContext(ctx)
	require.NoError(t, c.SetDataset(userPost()))

	require.Eventually(t, c.Layout().Converged, 10*time.Second, 5*time.Millisecond)
	assert.Greater(t, atomic.LoadInt32(&frames), int32(0))

	a, b := c.Layout().Positions()["u"], c.Layout().Positions()["p"]
	assert.GreaterOrEqual(t, geometry.Distance(a, b), 60.0)

	c.Close()
	frame := c.Render(context.Background())
	assert.ErrorIs(t, frame.Err, ErrClosed)
	assert.ErrorIs(t, c.SetDataset(userPost()), ErrClosed)
}

func TestParseMode(t *testing.T) {
	tests := map[string]Mode{
		"layout":  ModeLayout,
		"Graph":   ModeLayout,
		"diagram": ModeDiagram,
		"erd":     ModeDiagram,
		"tables":  ModeTable,
	}
	for in, want := range tests {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseMode("pie")
	assert.Error(t, err)
	assert.Equal(t, "unknown", Mode(9).String())
}
