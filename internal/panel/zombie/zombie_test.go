package zombie

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/corerun/orchestrator/internal/orchtypes"
)

type fakeObserved struct {
	mu        sync.Mutex
	phase     orchtypes.PanelPhase
	sessionID string
}

func (f *fakeObserved) Phase() orchtypes.PanelPhase {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.phase
}

func (f *fakeObserved) ActiveSessionID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessionID
}

func (f *fakeObserved) set(phase orchtypes.PanelPhase) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.phase = phase
}

func TestTickDoesNotStopFreshlyStuckSession(t *testing.T) {
	observed := &fakeObserved{phase: orchtypes.PanelRunning, sessionID: "s1"}
	stopped := false
	w := New(observed, func(ctx context.Context) error { stopped = true; return nil }, time.Minute, time.Minute, nil)

	now := time.Now()
	if err := w.tick(context.Background(), now); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if err := w.tick(context.Background(), now.Add(30*time.Second)); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if stopped {
		t.Fatalf("did not expect stop to be called before 2x maxDuration elapses")
	}
}

func TestTickStopsAfterDoubleMaxDuration(t *testing.T) {
	observed := &fakeObserved{phase: orchtypes.PanelRunning, sessionID: "s1"}
	var stoppedCount int
	w := New(observed, func(ctx context.Context) error { stoppedCount++; return nil }, time.Minute, time.Minute, nil)

	base := time.Now()
	if err := w.tick(context.Background(), base); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if err := w.tick(context.Background(), base.Add(3*time.Minute)); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if stoppedCount != 1 {
		t.Fatalf("expected exactly one stop call, got %d", stoppedCount)
	}
}

func TestTickResetsBoundaryOnPhaseChange(t *testing.T) {
	observed := &fakeObserved{phase: orchtypes.PanelRunning, sessionID: "s1"}
	stopped := false
	w := New(observed, func(ctx context.Context) error { stopped = true; return nil }, time.Minute, time.Minute, nil)

	base := time.Now()
	_ = w.tick(context.Background(), base)
	observed.set(orchtypes.PanelSynthesizing)
	_ = w.tick(context.Background(), base.Add(3*time.Minute))
	observed.set(orchtypes.PanelRunning)
	_ = w.tick(context.Background(), base.Add(3*time.Minute+time.Second))

	if stopped {
		t.Fatalf("expected the boundary reset by the non-stuck phase to prevent a stop")
	}
}

func TestTickResetsBoundaryOnNewSession(t *testing.T) {
	observed := &fakeObserved{phase: orchtypes.PanelRunning, sessionID: "s1"}
	stopped := false
	w := New(observed, func(ctx context.Context) error { stopped = true; return nil }, time.Minute, time.Minute, nil)

	base := time.Now()
	_ = w.tick(context.Background(), base)
	observed.sessionID = "s2"
	_ = w.tick(context.Background(), base.Add(3*time.Minute))

	if stopped {
		t.Fatalf("expected a new session id to reset the zombie boundary")
	}
}

func TestRunRecoversFromPanickingStop(t *testing.T) {
	observed := &fakeObserved{phase: orchtypes.PanelRunning, sessionID: "s1"}
	w := New(observed, func(ctx context.Context) error { panic("boom") }, time.Nanosecond, 5*time.Millisecond, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run did not return after ctx cancellation; a panicking tick may have killed the loop")
	}
}
