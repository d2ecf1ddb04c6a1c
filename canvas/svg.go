package canvas

import (
	"fmt"
	"html"
	"io"
	"math"
	"strings"

	svg "github.com/ajstarks/svgo"

	"schemaviz/geometry"
	"schemaviz/layout"
	"schemaviz/schema"
)

// SVGOptions configures SVG output.
type SVGOptions struct {
	Width  int // Defaults to the viewport width
	Height int // Defaults to the viewport height
	Radius int // Entity circle radius, 30 when zero
}

// Marker ids used on link ends.
var markerIDs = map[schema.Cardinality]string{
	schema.OneToOne:   "end-one",
	schema.OneToMany:  "end-many",
	schema.ManyToOne:  "end-one",
	schema.ManyToMany: "end-many",
	schema.Associated: "end-assoc",
}

// SVG writes the layout as a standalone SVG document: links as arcs ending
// in a cardinality marker, entities as circles coloured by kind with a
// hover tooltip and a label below. The viewport becomes a group transform
// so zoom and pan do not touch the coordinates themselves.
func SVG(w io.Writer, r *schema.Resolved, positions map[string]geometry.Vec, vp layout.Viewport, opts SVGOptions) error {
	if opts.Width <= 0 {
		opts.Width = int(vp.Width)
	}
	if opts.Height <= 0 {
		opts.Height = int(vp.Height)
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, opts.Width, opts.Height)
	}
	if opts.Radius <= 0 {
		opts.Radius = 30
	}

	ew := &errWriter{w: w}
	doc := svg.New(ew)
	doc.Start(opts.Width, opts.Height)
	doc.Rect(0, 0, opts.Width, opts.Height, "fill:#ffffff")

	if r == nil || r.IsEmpty() {
		doc.Text(opts.Width/2, opts.Height/2, EmptyState, "fill:#868e96;font-size:14px;font-family:sans-serif;text-anchor:middle")
		doc.End()
		return ew.err
	}

	writeMarkers(doc)

	scale := vp.Scale
	if scale == 0 {
		scale = 1
	}
	cx, cy := vp.Width/2, vp.Height/2
	tx := cx*(1-scale) + vp.OffsetX
	ty := cy*(1-scale) + vp.OffsetY
	doc.Gtransform(fmt.Sprintf("translate(%.2f,%.2f) scale(%.4f)", tx, ty, scale))

	doc.Gid("links")
	for _, l := range r.Links {
		a, okA := positions[l.SourceID]
		b, okB := positions[l.TargetID]
		if !okA || !okB {
			continue
		}
		doc.Path(linkPath(a, b, float64(opts.Radius)), svgLinkStyle(l.Cardinality))
	}
	doc.Gend()

	doc.Gid("entities")
	for _, e := range r.Entities {
		p, ok := positions[e.ID]
		if !ok {
			continue
		}
		x, y := geometry.Round(p.X), geometry.Round(p.Y)
		fill := schema.KindColor(e.Kind)
		stroke := schema.StrokeColor(e.Kind)

		doc.Group(`class="entity"`, fmt.Sprintf(`data-id="%s"`, html.EscapeString(e.ID)))
		doc.Title(strings.Join(e.Tooltip(), "\n"))
		doc.Circle(x, y, opts.Radius, fmt.Sprintf("fill:%s;stroke:%s;stroke-width:2;cursor:move", fill.Hex(), stroke.Hex()))
		doc.Text(x, y+int(LabelOffset), e.Label(), "fill:#212529;font-size:12px;font-family:sans-serif;text-anchor:middle")
		doc.Gend()
	}
	doc.Gend()

	doc.Gend()
	doc.End()
	return ew.err
}

func writeMarkers(doc *svg.SVG) {
	const style = "fill:none;stroke:#868e96;stroke-width:1.5"

	doc.Def()
	doc.Marker("end-one", 10, 5, 10, 10, `orient="auto"`, `markerUnits="userSpaceOnUse"`)
	doc.Path("M 8 0 L 8 10", style)
	doc.MarkerEnd()

	doc.Marker("end-many", 10, 5, 10, 10, `orient="auto"`, `markerUnits="userSpaceOnUse"`)
	doc.Path("M 0 5 L 10 0 M 0 5 L 10 5 M 0 5 L 10 10", style)
	doc.MarkerEnd()

	doc.Marker("end-assoc", 10, 5, 10, 10, `orient="auto"`, `markerUnits="userSpaceOnUse"`)
	doc.Circle(5, 5, 3, style)
	doc.MarkerEnd()
	doc.DefEnd()
}

func svgLinkStyle(c schema.Cardinality) string {
	style := fmt.Sprintf("fill:none;stroke:#868e96;stroke-width:1.5;marker-end:url(#%s)", markerIDs[c])
	if !c.Known() {
		style += ";stroke-dasharray:4,3"
	}
	return style
}

// linkPath returns an arc from a to the rim of b's circle. Self links
// become a small loop above the entity.
func linkPath(a, b geometry.Vec, radius float64) string {
	if a == b {
		return fmt.Sprintf("M%.1f,%.1f a%.1f,%.1f 0 1,1 %.1f,0",
			a.X-radius/2, a.Y-radius, radius/2, radius/2, radius)
	}

	d := b.Sub(a)
	dist := d.Len()
	end := b
	if dist > radius {
		end = b.Sub(d.Scale(radius / dist))
	}
	dr := math.Max(dist, 1)
	return fmt.Sprintf("M%.1f,%.1f A%.1f,%.1f 0 0,1 %.1f,%.1f", a.X, a.Y, dr, dr, end.X, end.Y)
}

// errWriter remembers the first write error, svgo does not report them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return len(p), nil
	}
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, nil
}
