package canvas

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"
	"testing"

	"schemaviz/geometry"
	"schemaviz/layout"
	"schemaviz/schema"
)

func userPost() *schema.Resolved {
	return schema.Resolve(schema.Dataset{
		Entities: []schema.Entity{
			{ID: "u", Name: "User", Kind: "collection", Attributes: []schema.Attribute{{Name: "email", DataType: "string", Required: true}}},
			{ID: "p", Name: "Post", Kind: "model"},
		},
		Links: []schema.Link{{SourceID: "u", TargetID: "p", Cardinality: schema.OneToMany}},
	}, nil)
}

func userPostPositions() map[string]geometry.Vec {
	return map[string]geometry.Vec{
		"u": {X: 100, Y: 200},
		"p": {X: 500, Y: 200},
	}
}

func TestProjectionRoundTrip(t *testing.T) {
	vp := layout.NewViewport(0, 0)
	vp.ZoomIn()
	vp.Pan(20, -40)
	proj := NewProjection(80, 30, vp)

	if proj.Viewport.Width != 800 || proj.Viewport.Height != 600 {
		t.Errorf("Viewport should match the canvas, got %vx%v", proj.Viewport.Width, proj.Viewport.Height)
	}

	cell := Point{X: 17, Y: 9}
	if back := proj.ToCell(proj.ToWorld(cell)); back != cell {
		t.Errorf("Round trip moved %v to %v", cell, back)
	}
}

func TestDrawLayout(t *testing.T) {
	c := newTestCanvas(t, 80, 30)
	proj := NewProjection(80, 30, layout.NewViewport(0, 0))

	DrawLayout(c, userPost(), userPostPositions(), proj, DrawOptions{})
	out := c.String()

	for _, want := range []string{"User", "Post", "1:N", "●", "─"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in:\n%s", want, out)
		}
	}

	if c.Get(Point{X: 10, Y: 10}) != '●' || c.Get(Point{X: 50, Y: 10}) != '●' {
		t.Errorf("Entity markers should sit on their cells:\n%s", out)
	}

	cell, _ := c.Cell(Point{X: 10, Y: 10})
	if !cell.Style.HasColor || cell.Style.Color.Hex() != schema.KindColor("collection").Hex() {
		t.Errorf("Marker should use the kind colour, got %+v", cell.Style)
	}
}

func TestDrawLayoutSelected(t *testing.T) {
	c := newTestCanvas(t, 80, 30)
	proj := NewProjection(80, 30, layout.NewViewport(0, 0))

	DrawLayout(c, userPost(), userPostPositions(), proj, DrawOptions{Selected: "p"})
	if c.Get(Point{X: 50, Y: 10}) != '◉' {
		t.Errorf("Selected entity should be highlighted:\n%s", c.String())
	}
}

func TestDrawLayoutEmpty(t *testing.T) {
	c := newTestCanvas(t, 40, 5)
	DrawLayout(c, schema.Resolve(schema.Dataset{}, nil), nil, NewProjection(40, 5, layout.Viewport{}), DrawOptions{})
	if !strings.Contains(c.String(), EmptyState) {
		t.Errorf("Expected empty state, got:\n%s", c.String())
	}
}

func TestSVG(t *testing.T) {
	var buf bytes.Buffer
	vp := layout.NewViewport(800, 600)
	if err := SVG(&buf, userPost(), userPostPositions(), vp, SVGOptions{}); err != nil {
		t.Fatalf("SVG failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		`<svg`,
		`width="800"`,
		`fill:#4c6ef5`,
		`fill:#40c057`,
		`marker-end:url(#end-many)`,
		`>User</text>`,
		`scale(1.0000)`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in SVG output", want)
		}
	}

	// Output is well formed XML
	dec := xml.NewDecoder(strings.NewReader(out))
	for {
		_, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("SVG is not well formed: %v\n%s", err, out)
		}
	}
}

func TestSVGViewportTransform(t *testing.T) {
	var buf bytes.Buffer
	vp := layout.NewViewport(800, 600)
	vp.SetScale(2)
	if err := SVG(&buf, userPost(), userPostPositions(), vp, SVGOptions{}); err != nil {
		t.Fatalf("SVG failed: %v", err)
	}
	if !strings.Contains(buf.String(), "translate(-400.00,-300.00) scale(2.0000)") {
		t.Errorf("Expected zoom about the centre in transform:\n%s", buf.String())
	}
}

func TestSVGEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := SVG(&buf, nil, nil, layout.NewViewport(200, 100), SVGOptions{}); err != nil {
		t.Fatalf("SVG failed: %v", err)
	}
	if !strings.Contains(buf.String(), EmptyState) {
		t.Errorf("Expected empty state in:\n%s", buf.String())
	}

	if err := SVG(&buf, nil, nil, layout.Viewport{}, SVGOptions{}); err == nil {
		t.Error("Expected error for a zero sized document")
	}
}
