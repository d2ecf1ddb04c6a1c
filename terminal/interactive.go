// Package terminal is the interactive tcell viewer for the three schema
// views.
package terminal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	"go.uber.org/zap"

	"schemaviz/canvas"
	"schemaviz/view"
)

// PanStep is how far one arrow key press moves the view, in layout units.
const PanStep = 40

// ctxDone is posted to wake the event loop when its context ends.
type ctxDone struct{}

// Viewer draws coordinator frames on a tcell screen and turns keys and
// mouse drags into coordinator calls.
type Viewer struct {
	screen tcell.Screen
	coord  *view.Coordinator
	logger *zap.Logger
	title  string

	pressed bool // Mouse button 1 held
	message string
}

// Refresher returns an OnChange callback that asks the viewer running on
// screen to redraw. It never blocks: when the event queue is full the
// frame is skipped.
func Refresher(screen tcell.Screen) func() {
	return func() {
		_ = screen.PostEvent(tcell.NewEventInterrupt(nil))
	}
}

// NewViewer creates a viewer. The screen must already be initialised.
func NewViewer(screen tcell.Screen, coord *view.Coordinator, title string, logger *zap.Logger) *Viewer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Viewer{screen: screen, coord: coord, title: title, logger: logger}
}

// Run handles events until the user quits or ctx ends. It takes over the
// screen and finalises it on return.
func (v *Viewer) Run(ctx context.Context) error {
	defer v.screen.Fini()

	v.screen.EnableMouse(tcell.MouseButtonEvents | tcell.MouseDragEvents)
	v.screen.HideCursor()
	cols, rows := v.screen.Size()
	v.coord.SetSurface(view.Surface{Cols: cols, Rows: rows})
	v.coord.SetContext(ctx)

	go func() {
		<-ctx.Done()
		_ = v.screen.PostEvent(tcell.NewEventInterrupt(ctxDone{}))
	}()

	v.Draw(ctx)
	for {
		ev := v.screen.PollEvent()
		if ev == nil {
			return nil
		}
		if !v.HandleEvent(ev) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		v.Draw(ctx)
	}
}

// HandleEvent applies one event. It returns false when the viewer should
// exit.
func (v *Viewer) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		v.screen.Sync()
		cols, rows := ev.Size()
		v.coord.SetSurface(view.Surface{Cols: cols, Rows: rows})

	case *tcell.EventKey:
		return v.handleKey(ev)

	case *tcell.EventMouse:
		v.handleMouse(ev)

	case *tcell.EventInterrupt:
		if _, done := ev.Data().(ctxDone); done {
			return false
		}
	}
	return true
}

func (v *Viewer) handleKey(ev *tcell.EventKey) bool {
	v.message = ""

	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyTab:
		v.coord.NextMode()
	case tcell.KeyUp:
		v.coord.Pan(0, PanStep)
	case tcell.KeyDown:
		v.coord.Pan(0, -PanStep)
	case tcell.KeyLeft:
		v.coord.Pan(PanStep, 0)
	case tcell.KeyRight:
		v.coord.Pan(-PanStep, 0)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return false
		case '1', '2', '3':
			mode := view.Modes()[ev.Rune()-'1']
			if err := v.coord.SelectMode(mode); err != nil {
				v.message = err.Error()
			}
		case '+', '=':
			v.coord.ZoomIn()
		case '-', '_':
			v.coord.ZoomOut()
		case '0':
			v.coord.ResetZoom()
		case 'f':
			v.coord.ToggleFullscreen()
		}
	}
	return true
}

// handleMouse maps button 1 press, motion and release onto a drag of the
// entity under the pointer.
func (v *Viewer) handleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	cell := canvas.Point{X: x, Y: y - v.contentTop()}
	held := ev.Buttons()&tcell.Button1 != 0

	switch {
	case held && !v.pressed:
		v.pressed = true
		id, err := v.coord.DragStartAt(cell)
		if err != nil {
			v.logger.Debug("nothing to drag", zap.Int("x", cell.X), zap.Int("y", cell.Y), zap.Error(err))
			return
		}
		v.message = v.tooltip(id)

	case held && v.pressed:
		if err := v.coord.DragTo(cell); err != nil {
			v.logger.Debug("drag move rejected", zap.Error(err))
		}

	case !held && v.pressed:
		v.pressed = false
		if v.coord.Dragging() != "" {
			v.message = ""
		}
		if err := v.coord.DragEnd(); err != nil {
			v.logger.Debug("drag end rejected", zap.Error(err))
		}
	}
}

// tooltip flattens the hover text of an entity onto one status line.
func (v *Viewer) tooltip(id string) string {
	e, ok := v.coord.Resolved().Entity(id)
	if !ok {
		return id
	}
	lines := e.Tooltip()
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return strings.Join(lines, "  ")
}

// contentTop is the first screen row of the view area.
func (v *Viewer) contentTop() int {
	if v.coord.Fullscreen() {
		return 0
	}
	return 1
}

// Draw renders the active view with the header and status lines.
func (v *Viewer) Draw(ctx context.Context) {
	v.screen.Clear()
	frame := v.coord.Render(ctx)
	cols, rows := v.screen.Size()
	top := v.contentTop()

	switch {
	case frame.Canvas != nil:
		v.drawCanvas(frame.Canvas, top)
	default:
		style := tcell.StyleDefault
		if frame.Err != nil {
			style = style.Foreground(tcell.ColorRed)
		}
		for i, line := range strings.Split(frame.Text, "\n") {
			if top+i >= rows {
				break
			}
			drawString(v.screen, 0, top+i, cols, line, style)
		}
	}

	if !frame.Fullscreen {
		v.drawHeader(frame, cols)
		v.drawStatus(frame, cols, rows-1)
	}
	v.screen.Show()
}

func (v *Viewer) drawCanvas(c *canvas.MatrixCanvas, top int) {
	w, h := c.Size()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			cell, _ := c.Cell(canvas.Point{X: x, Y: y})
			if cell.Rune == 0 {
				continue
			}
			v.screen.SetContent(x, top+y, cell.Rune, nil, cellStyle(cell.Style))
		}
	}
}

func (v *Viewer) drawHeader(frame view.Frame, cols int) {
	x := 0
	if v.title != "" {
		x = drawString(v.screen, x, 0, cols, " "+v.title+" ", tcell.StyleDefault.Bold(true))
	}
	for i, m := range view.Modes() {
		style := tcell.StyleDefault
		if m == frame.Mode {
			style = style.Reverse(true)
		}
		x = drawString(v.screen, x, 0, cols, fmt.Sprintf(" %d %s ", i+1, m.Title()), style)
	}
	if frame.Mode == view.ModeLayout {
		zoom := fmt.Sprintf("%d%% ", int(frame.Scale*100+0.5))
		drawString(v.screen, cols-runewidth.StringWidth(zoom), 0, cols, zoom, tcell.StyleDefault.Dim(true))
	}
}

func (v *Viewer) drawStatus(frame view.Frame, cols, row int) {
	r := v.coord.Resolved()
	status := fmt.Sprintf("Entities: %d | Links: %d", len(r.Entities), len(r.Links))
	if n := len(r.Dropped); n > 0 {
		status += fmt.Sprintf(" | Dropped: %d", n)
	}
	if v.message != "" {
		status += " | " + v.message
	}
	status += " | tab/1-3 view  +/-/0 zoom  arrows pan  f fullscreen  q quit"
	drawString(v.screen, 0, row, cols, status, tcell.StyleDefault.Reverse(true))
}

func cellStyle(s canvas.Style) tcell.Style {
	style := tcell.StyleDefault.Bold(s.Bold)
	if s.HasColor {
		r, g, b := s.Color.Clamped().RGB255()
		style = style.Foreground(tcell.NewRGBColor(int32(r), int32(g), int32(b)))
	}
	return style
}

// drawString writes text from x on row y, clipped at maxX, and returns the
// column after the last rune.
func drawString(s tcell.Screen, x, y, maxX int, text string, style tcell.Style) int {
	for _, r := range text {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if x+w > maxX {
			break
		}
		if x >= 0 {
			s.SetContent(x, y, r, nil, style)
		}
		x += w
	}
	return x
}
