// Package canvas draws a schema layout as terminal text or as SVG.
package canvas

import (
	"errors"
	"fmt"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-runewidth"

	"schemaviz/geometry"
)

// Common errors
var (
	ErrOutOfBounds = errors.New("position out of bounds")
	ErrInvalidSize = errors.New("invalid canvas size")
)

// Point is a cell position. Origin (0,0) is top-left, Y grows downward.
type Point struct {
	X, Y int
}

// Style is the foreground colour and weight of a cell. The zero value is
// the terminal default.
type Style struct {
	Color    colorful.Color
	HasColor bool
	Bold     bool
}

// Colored returns a style with the given foreground colour.
func Colored(c colorful.Color) Style {
	return Style{Color: c, HasColor: true}
}

// Cell is one character position of a MatrixCanvas.
type Cell struct {
	Rune  rune // 0 marks the right half of a wide rune
	Style Style
}

// MatrixCanvas is a fixed-size grid of styled runes.
//
// MatrixCanvas is NOT safe for concurrent writes; each frame is drawn on
// a fresh canvas by one goroutine.
type MatrixCanvas struct {
	cells  [][]Cell
	width  int
	height int
}

// NewMatrixCanvas creates a blank canvas of the given size.
func NewMatrixCanvas(width, height int) (*MatrixCanvas, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}

	cells := make([][]Cell, height)
	for y := range cells {
		cells[y] = make([]Cell, width)
	}
	c := &MatrixCanvas{cells: cells, width: width, height: height}
	c.Clear()
	return c, nil
}

// Size returns the width and height of the canvas.
func (c *MatrixCanvas) Size() (width, height int) {
	return c.width, c.height
}

// InBounds reports whether p lies on the canvas.
func (c *MatrixCanvas) InBounds(p Point) bool {
	return p.X >= 0 && p.X < c.width && p.Y >= 0 && p.Y < c.height
}

// Get returns the rune at p, or ' ' outside the canvas.
func (c *MatrixCanvas) Get(p Point) rune {
	if !c.InBounds(p) {
		return ' '
	}
	return c.cells[p.Y][p.X].Rune
}

// Cell returns the full cell at p.
func (c *MatrixCanvas) Cell(p Point) (Cell, bool) {
	if !c.InBounds(p) {
		return Cell{}, false
	}
	return c.cells[p.Y][p.X], true
}

// Set places an unstyled rune at p.
func (c *MatrixCanvas) Set(p Point, r rune) error {
	return c.SetStyled(p, r, Style{})
}

// SetStyled places a rune with a style at p.
func (c *MatrixCanvas) SetStyled(p Point, r rune, style Style) error {
	if !c.InBounds(p) {
		return ErrOutOfBounds
	}
	c.cells[p.Y][p.X] = Cell{Rune: r, Style: style}
	return nil
}

// Clear resets every cell to an unstyled space.
func (c *MatrixCanvas) Clear() {
	for y := 0; y < c.height; y++ {
		for x := 0; x < c.width; x++ {
			c.cells[y][x] = Cell{Rune: ' '}
		}
	}
}

// DrawText writes text starting at (x, y), clipping at the edges. Wide
// runes take two cells.
func (c *MatrixCanvas) DrawText(x, y int, text string, style Style) {
	if y < 0 || y >= c.height {
		return
	}

	cx := x
	for _, r := range text {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if cx >= c.width {
			break
		}
		if cx >= 0 && cx+w <= c.width {
			c.cells[y][cx] = Cell{Rune: r, Style: style}
			if w == 2 {
				c.cells[y][cx+1] = Cell{Rune: 0, Style: style}
			}
		}
		cx += w
	}
}

// DrawTextCentered writes text so that its middle sits on x.
func (c *MatrixCanvas) DrawTextCentered(x, y int, text string, style Style) {
	c.DrawText(x-runewidth.StringWidth(text)/2, y, text, style)
}

// DrawLine draws a line between two points using Bresenham's algorithm.
// Cells off the canvas are skipped.
func (c *MatrixCanvas) DrawLine(p1, p2 Point, r rune, style Style) {
	dx := geometry.Abs(p2.X - p1.X)
	dy := -geometry.Abs(p2.Y - p1.Y)

	sx := 1
	if p1.X > p2.X {
		sx = -1
	}
	sy := 1
	if p1.Y > p2.Y {
		sy = -1
	}

	x, y := p1.X, p1.Y
	e := dx + dy
	for {
		_ = c.SetStyled(Point{x, y}, r, style)
		if x == p2.X && y == p2.Y {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x += sx
		}
		if e2 <= dx {
			e += dx
			y += sy
		}
	}
}

// String returns the canvas text, one line per row, without styles.
func (c *MatrixCanvas) String() string {
	var sb strings.Builder
	sb.Grow(c.height * (c.width + 1))

	for y := 0; y < c.height; y++ {
		for x := 0; x < c.width; x++ {
			if r := c.cells[y][x].Rune; r != 0 {
				sb.WriteRune(r)
			}
		}
		if y < c.height-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// ColoredString is String with 24-bit ANSI colour escapes.
func (c *MatrixCanvas) ColoredString() string {
	const reset = "\033[0m"
	var sb strings.Builder

	for y := 0; y < c.height; y++ {
		var current *Style
		for x := 0; x < c.width; x++ {
			cell := c.cells[y][x]
			if cell.Rune == 0 {
				continue
			}
			if current == nil || *current != cell.Style {
				if current != nil {
					sb.WriteString(reset)
				}
				sb.WriteString(ansi(cell.Style))
				s := cell.Style
				current = &s
			}
			sb.WriteRune(cell.Rune)
		}
		if current != nil {
			sb.WriteString(reset)
		}
		if y < c.height-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func ansi(s Style) string {
	var sb strings.Builder
	if s.Bold {
		sb.WriteString("\033[1m")
	}
	if s.HasColor {
		r, g, b := s.Color.Clamped().RGB255()
		sb.WriteString(fmt.Sprintf("\033[38;2;%d;%d;%dm", r, g, b))
	}
	return sb.String()
}
