// Package server exposes the schema views over HTTP and streams the live
// layout to browsers over a websocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"schemaviz/geometry"
	"schemaviz/importer"
	"schemaviz/view"
)

// MaxDatasetBytes bounds uploaded datasets.
const MaxDatasetBytes = 8 << 20

// ErrEntityHeld is returned when a client tries to drag an entity another
// client is already dragging.
var ErrEntityHeld = errors.New("entity is being dragged by another client")

// Options configures a Server.
type Options struct {
	Addr           string
	WriteTimeout   time.Duration // Per websocket write, 10s when zero
	OriginPatterns []string      // Extra origins allowed to open /ws
	Importers      *importer.Registry
	Logger         *zap.Logger
}

// ClientMessage is sent by browsers over /ws. Coordinates are layout units.
type ClientMessage struct {
	Type      string  `json:"type"` // dragstart, drag, dragend, resize, zoom
	ID        string  `json:"id,omitempty"`
	X         float64 `json:"x,omitempty"`
	Y         float64 `json:"y,omitempty"`
	Cols      int     `json:"cols,omitempty"`
	Rows      int     `json:"rows,omitempty"`
	Scale     float64 `json:"scale,omitempty"`
	Direction string  `json:"direction,omitempty"` // in, out or reset for zoom
}

// ServerMessage is sent to browsers over /ws.
type ServerMessage struct {
	Type      string                  `json:"type"` // frame or error
	Positions map[string]geometry.Vec `json:"positions,omitempty"`
	Converged bool                    `json:"converged,omitempty"`
	Scale     float64                 `json:"scale,omitempty"`
	Error     string                  `json:"error,omitempty"`
}

// Server serves one coordinator.
type Server struct {
	coord     *view.Coordinator
	hub       *Hub
	importers *importer.Registry
	opts      Options
	logger    *zap.Logger
	mux       *http.ServeMux

	holdMu  sync.Mutex
	holders map[string]*client // Entity id -> client dragging it
}

// New creates a server for coord. hub must be the one whose Notify is wired
// to the coordinator's OnChange; nil creates a private hub that is only
// notified by websocket events.
func New(coord *view.Coordinator, hub *Hub, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if hub == nil {
		hub = NewHub(logger.Named("hub"))
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	if opts.Importers == nil {
		opts.Importers = importer.NewRegistry(logger)
	}

	s := &Server{
		coord:     coord,
		hub:       hub,
		importers: opts.Importers,
		opts:      opts,
		logger:    logger,
		mux:       http.NewServeMux(),
		holders:   make(map[string]*client),
	}
	s.mux.HandleFunc("GET /view", s.handleView)
	s.mux.HandleFunc("GET /dataset", s.handleGetDataset)
	s.mux.HandleFunc("PUT /dataset", s.handlePutDataset)
	s.mux.HandleFunc("GET /ws", s.handleWS)
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start runs the broadcast loop until ctx ends.
func (s *Server) Start(ctx context.Context) {
	go s.hub.Run(ctx, s.snapshot)
}

// ListenAndServe serves on opts.Addr until ctx ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.Start(ctx)
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", s.opts.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handleView renders one view: GET /view?mode=layout|diagram|table&format=text|svg|json
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	mode := s.coord.Mode()
	if m := r.URL.Query().Get("mode"); m != "" {
		parsed, err := view.ParseMode(m)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		mode = parsed
	}

	format := strings.ToLower(r.URL.Query().Get("format"))
	renderFormat := view.FormatText
	switch format {
	case "", "text", "json":
	case "svg":
		renderFormat = view.FormatSVG
	default:
		http.Error(w, fmt.Sprintf("unknown format %q", format), http.StatusBadRequest)
		return
	}

	frame := s.coord.RenderAs(r.Context(), mode, renderFormat)
	if frame.Err != nil {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, frame.Text)
		return
	}

	switch {
	case format == "json":
		writeJSON(w, viewJSON(frame))
	case frame.Body != nil:
		w.Header().Set("Content-Type", frame.ContentType)
		_, _ = w.Write(frame.Body)
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, frame.Text)
	}
}

// viewJSON is the structured form of a frame.
func viewJSON(frame view.Frame) interface{} {
	switch frame.Mode {
	case view.ModeLayout:
		return map[string]interface{}{"mode": frame.Mode.String(), "scale": frame.Scale, "positions": frame.Positions}
	case view.ModeTable:
		return map[string]interface{}{"mode": frame.Mode.String(), "tables": frame.Tables}
	default:
		return map[string]interface{}{"mode": frame.Mode.String(), "source": frame.Text}
	}
}

func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.coord.Dataset())
}

// handlePutDataset replaces the dataset. The body may be in any importable
// format; ?format= skips detection.
func (s *Server) handlePutDataset(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxDatasetBytes+1))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if len(body) > MaxDatasetBytes {
		http.Error(w, "dataset too large", http.StatusRequestEntityTooLarge)
		return
	}

	ds, err := s.importers.ImportWithFormat(body, r.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.coord.SetDataset(ds); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.hub.Notify()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.opts.OriginPatterns,
	})
	if err != nil {
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	c := newClient(conn)
	s.hub.add(c)
	defer s.hub.remove(c)
	go c.writePump(s.opts.WriteTimeout, s.logger)

	s.hub.sendTo(c, s.snapshot())

	ctx := r.Context()
	for {
		var msg ClientMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
				s.logger.Debug("websocket read failed", zap.Error(err))
			}
			s.release(c)
			return
		}
		if err := s.apply(c, msg); err != nil {
			s.hub.sendTo(c, ServerMessage{Type: "error", Error: err.Error()})
			continue
		}
		s.hub.Notify()
	}
}

// apply handles one client message.
func (s *Server) apply(c *client, msg ClientMessage) error {
	layout := s.coord.Layout()

	switch msg.Type {
	case "dragstart":
		if c.dragging != msg.ID {
			if err := s.hold(c, msg.ID); err != nil {
				return err
			}
			if err := s.release(c); err != nil {
				s.unhold(c, msg.ID)
				return err
			}
		}
		if err := layout.DragStart(msg.ID); err != nil {
			c.dragging = ""
			s.unhold(c, msg.ID)
			return err
		}
		c.dragging = msg.ID
		return nil

	case "drag":
		if c.dragging == "" {
			return errors.New("drag without dragstart")
		}
		return layout.DragMove(c.dragging, msg.X, msg.Y)

	case "dragend":
		return s.release(c)

	case "resize":
		s.coord.SetSurface(view.Surface{Cols: msg.Cols, Rows: msg.Rows})
		return nil

	case "zoom":
		switch msg.Direction {
		case "in":
			s.coord.ZoomIn()
		case "out":
			s.coord.ZoomOut()
		case "reset":
			s.coord.ResetZoom()
		case "":
			if msg.Scale <= 0 {
				return errors.New("zoom needs a direction or a positive scale")
			}
			s.coord.SetZoom(msg.Scale)
		default:
			return fmt.Errorf("unknown zoom direction %q", msg.Direction)
		}
		return nil

	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
}

// release ends the drag held by c, if any.
func (s *Server) release(c *client) error {
	if c.dragging == "" {
		return nil
	}
	id := c.dragging
	c.dragging = ""
	s.unhold(c, id)
	return s.coord.Layout().DragEnd(id)
}

// hold records c as the only client allowed to drag id.
func (s *Server) hold(c *client, id string) error {
	s.holdMu.Lock()
	defer s.holdMu.Unlock()

	if other, ok := s.holders[id]; ok && other != c {
		return fmt.Errorf("dragstart %q: %w", id, ErrEntityHeld)
	}
	s.holders[id] = c
	return nil
}

func (s *Server) unhold(c *client, id string) {
	s.holdMu.Lock()
	defer s.holdMu.Unlock()

	if s.holders[id] == c {
		delete(s.holders, id)
	}
}

func (s *Server) snapshot() ServerMessage {
	layout := s.coord.Layout()
	return ServerMessage{
		Type:      "frame",
		Positions: layout.Positions(),
		Converged: layout.Converged(),
		Scale:     s.coord.Viewport().Scale,
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
