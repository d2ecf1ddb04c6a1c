package layout

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"schemaviz/geometry"
	"schemaviz/schema"
)

func newTestRunner(t *testing.T, frames chan Frame) *Runner {
	t.Helper()
	sim := NewSimulation(schema.Resolve(chainDataset(3), nil), DefaultConfig())
	return NewRunner(sim, RunnerOptions{
		Interval: time.Millisecond,
		FPS:      1000,
		Logger:   zaptest.NewLogger(t),
		OnFrame: func(f Frame) {
			select {
			case frames <- f:
			default:
			}
		},
	})
}

func waitConverged(t *testing.T, frames chan Frame) Frame {
	t.Helper()
	timeout := time.After(10 * time.Second)
	for {
		select {
		case f := <-frames:
			if f.Converged {
				return f
			}
		case <-timeout:
			t.Fatal("Timed out waiting for the layout to settle")
		}
	}
}

func TestRunnerPublishesFinalFrame(t *testing.T) {
	frames := make(chan Frame, 8)
	r := newTestRunner(t, frames)
	r.Start(context.Background())
	defer r.Stop()

	f := waitConverged(t, frames)
	if len(f.Positions) != 3 {
		t.Errorf("Expected 3 positions, got %d", len(f.Positions))
	}
	if f.Tick == 0 {
		t.Error("Final frame should report ticks")
	}
	if got := r.Frame(); got.Tick != f.Tick {
		t.Errorf("Frame() should match the last published frame: %d vs %d", got.Tick, f.Tick)
	}
}

func TestRunnerDragOrdering(t *testing.T) {
	frames := make(chan Frame, 8)
	r := newTestRunner(t, frames)
	r.Start(context.Background())
	defer r.Stop()

	if err := r.DragStart("e0"); err != nil {
		t.Fatalf("DragStart failed: %v", err)
	}
	if err := r.DragMove("e0", 50, 60); err != nil {
		t.Fatalf("DragMove failed: %v", err)
	}

	var pos geometry.Vec
	err := r.Do(func(s *Simulation) error {
		s.Tick()
		pos, _ = s.Position("e0")
		return nil
	})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if pos != (geometry.Vec{X: 50, Y: 60}) {
		t.Errorf("Held entity should be at the pointer, got %v", pos)
	}

	if err := r.DragEnd("e0"); err != nil {
		t.Fatalf("DragEnd failed: %v", err)
	}
	if err := r.DragStart("nope"); !errors.Is(err, ErrUnknownEntity) {
		t.Errorf("Expected ErrUnknownEntity, got %v", err)
	}
}

func TestRunnerStop(t *testing.T) {
	r := newTestRunner(t, make(chan Frame, 1))

	if err := r.Resize(100, 100); !errors.Is(err, ErrStopped) {
		t.Errorf("Posting before Start should fail, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx)
	cancel()

	select {
	case <-r.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("Runner did not stop after context cancel")
	}

	r.Stop()
	r.Stop()
	if err := r.DragStart("e0"); !errors.Is(err, ErrStopped) {
		t.Errorf("Posting after Stop should fail, got %v", err)
	}
}

func TestRunnerStopBeforeStart(t *testing.T) {
	r := newTestRunner(t, make(chan Frame, 1))
	r.Stop()
	select {
	case <-r.Done():
	default:
		t.Error("Done should be closed after Stop")
	}
	r.Start(context.Background())
	if err := r.DragStart("e0"); !errors.Is(err, ErrStopped) {
		t.Errorf("Stopped runner should not restart, got %v", err)
	}
}
