package layout

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"schemaviz/geometry"
)

// ErrStopped is returned when an event is posted to a runner that is not
// running.
var ErrStopped = errors.New("layout runner is not running")

// Frame is a snapshot of the layout published after a tick.
type Frame struct {
	Tick      int                     `json:"tick"`
	Alpha     float64                 `json:"alpha"`
	Converged bool                    `json:"converged"`
	Positions map[string]geometry.Vec `json:"positions"`
}

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	Interval time.Duration // Time between ticks (default 16ms)
	FPS      float64       // Maximum frames handed to OnFrame per second (default 30)
	OnFrame  func(Frame)   // Called on the runner goroutine, must not block
	Logger   *zap.Logger
}

type event struct {
	name  string
	apply func(*Simulation) error
	errc  chan error
}

// Runner drives a Simulation from a single goroutine. Ticks and posted
// events (drags, resizes) are applied strictly one after another in arrival
// order, so a drag start is always seen by the next tick and a drag end
// always clears the pin before the next tick.
type Runner struct {
	sim     *Simulation
	opts    RunnerOptions
	logger  *zap.Logger
	limiter *rate.Limiter
	events  chan event
	done    chan struct{}

	lifecycle sync.Mutex
	started   bool
	stopped   bool
	cancel    context.CancelFunc

	frameMu sync.RWMutex
	last    Frame
}

// NewRunner wraps sim. The runner owns sim from Start until Stop; callers
// must not touch sim directly in between.
func NewRunner(sim *Simulation, opts RunnerOptions) *Runner {
	if opts.Interval <= 0 {
		opts.Interval = 16 * time.Millisecond
	}
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Runner{
		sim:     sim,
		opts:    opts,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(opts.FPS), 1),
		events:  make(chan event),
		done:    make(chan struct{}),
	}
	r.last = r.snapshot()
	return r
}

// Start launches the event loop. It returns immediately; the loop stops
// when ctx is cancelled or Stop is called.
func (r *Runner) Start(ctx context.Context) {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	if r.started || r.stopped {
		return
	}
	r.started = true

	ctx, r.cancel = context.WithCancel(ctx)
	go r.loop(ctx)
}

// Stop tears the loop down at the next tick boundary and waits for it to
// exit. It is safe to call more than once, and before Start.
func (r *Runner) Stop() {
	r.lifecycle.Lock()
	if r.stopped {
		r.lifecycle.Unlock()
		<-r.done
		return
	}
	r.stopped = true
	if !r.started {
		close(r.done)
		r.lifecycle.Unlock()
		return
	}
	cancel := r.cancel
	r.lifecycle.Unlock()

	cancel()
	<-r.done
}

// Done is closed once the loop has exited.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

// Frame returns the most recent snapshot, whether or not it was handed to
// OnFrame.
func (r *Runner) Frame() Frame {
	r.frameMu.RLock()
	defer r.frameMu.RUnlock()
	return r.last
}

// DragStart pins an entity. See Simulation.DragStart.
func (r *Runner) DragStart(id string) error {
	return r.post("dragstart", func(s *Simulation) error { return s.DragStart(id) })
}

// DragMove moves a held entity. See Simulation.DragMove.
func (r *Runner) DragMove(id string, x, y float64) error {
	return r.post("drag", func(s *Simulation) error { return s.DragMove(id, x, y) })
}

// DragEnd releases a held entity. See Simulation.DragEnd.
func (r *Runner) DragEnd(id string) error {
	return r.post("dragend", func(s *Simulation) error { return s.DragEnd(id) })
}

// Resize recenters the layout for a new canvas size.
func (r *Runner) Resize(width, height float64) error {
	return r.post("resize", func(s *Simulation) error {
		s.Resize(width, height)
		return nil
	})
}

// Do runs fn on the loop goroutine between two ticks.
func (r *Runner) Do(fn func(*Simulation) error) error {
	return r.post("do", fn)
}

// post hands an event to the loop and waits until it has been applied.
func (r *Runner) post(name string, fn func(*Simulation) error) error {
	r.lifecycle.Lock()
	running := r.started && !r.stopped
	r.lifecycle.Unlock()
	if !running {
		return ErrStopped
	}

	ev := event{name: name, apply: fn, errc: make(chan error, 1)}
	select {
	case r.events <- ev:
	case <-r.done:
		return ErrStopped
	}

	select {
	case err := <-ev.errc:
		return err
	case <-r.done:
		return ErrStopped
	}
}

func (r *Runner) loop(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.opts.Interval)
	defer ticker.Stop()

	r.logger.Debug("layout runner started", zap.Int("entities", len(r.sim.ids)))
	settled := false

	for {
		select {
		case <-ctx.Done():
			r.logger.Debug("layout runner stopped", zap.Int("ticks", r.sim.Ticks()))
			return

		case ev := <-r.events:
			err := ev.apply(r.sim)
			if err != nil {
				r.logger.Debug("layout event rejected", zap.String("event", ev.name), zap.Error(err))
			}
			ev.errc <- err
			settled = false

		case <-ticker.C:
			if r.sim.Converged() {
				if !settled {
					// Always hand out the final resting frame
					r.publish(true)
					settled = true
				}
				continue
			}
			r.sim.Tick()
			r.publish(false)
		}
	}
}

func (r *Runner) publish(force bool) {
	frame := r.snapshot()

	r.frameMu.Lock()
	r.last = frame
	r.frameMu.Unlock()

	if r.opts.OnFrame == nil {
		return
	}
	if force || r.limiter.Allow() {
		r.opts.OnFrame(frame)
	}
}

func (r *Runner) snapshot() Frame {
	return Frame{
		Tick:      r.sim.Ticks(),
		Alpha:     r.sim.Alpha(),
		Converged: r.sim.Converged(),
		Positions: r.sim.bodies.Points(),
	}
}
