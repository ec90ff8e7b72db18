// Package zombie implements the Panel Zombie Cleanup Watcher described in
// §4.11 (C11): a periodic ticker that stops a Panel discussion stuck too long
// in Running or Paused. Grounded in the teacher's recover-wrapped background
// loop shape (internal/heartbeat.Runner, internal/tasks/scheduler.go's
// cleanupLoop).
package zombie

import (
	"context"
	"log/slog"
	"time"

	"github.com/corerun/orchestrator/internal/orchtypes"
)

// Observed is the minimal view of a Panel orchestrator the watcher needs.
// internal/panel.Manager satisfies this.
type Observed interface {
	Phase() orchtypes.PanelPhase
	ActiveSessionID() string
}

// Stopper is invoked to end a stuck discussion. internal/panel.Manager's
// Stop method (bound to a background context) satisfies this.
type Stopper func(ctx context.Context) error

// Watcher polls an Observed panel orchestrator and stops it once it has spent
// longer than 2x maxDuration inside a non-terminal phase without the watcher
// ever observing a phase change away from Running/Paused.
type Watcher struct {
	observed    Observed
	stop        Stopper
	maxDuration time.Duration
	interval    time.Duration
	logger      *slog.Logger

	lastNonStuckPhase orchtypes.PanelPhase
	lastBoundary      time.Time
	lastSessionID     string
}

// defaultInterval is the watcher's default tick cadence (§4.11).
const defaultInterval = 5 * time.Minute

// New creates a Watcher. interval defaults to 5 minutes when <= 0.
func New(observed Observed, stop Stopper, maxDuration, interval time.Duration, logger *slog.Logger) *Watcher {
	if interval <= 0 {
		interval = defaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		observed:    observed,
		stop:        stop,
		maxDuration: maxDuration,
		interval:    interval,
		logger:      logger.With("component", "panel-zombie-watcher"),
	}
}

// Run blocks, ticking every interval until ctx is cancelled. Panics inside a
// tick are recovered and logged; the loop itself never dies (§4.11).
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			w.safeTick(ctx, now)
		}
	}
}

func (w *Watcher) safeTick(ctx context.Context, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("zombie watcher tick panicked", "recovered", r)
		}
	}()
	if err := w.tick(ctx, now); err != nil {
		w.logger.Error("zombie watcher tick failed", "error", err)
	}
}

func (w *Watcher) tick(ctx context.Context, now time.Time) error {
	phase := w.observed.Phase()
	sessionID := w.observed.ActiveSessionID()

	if !isStuckEligible(phase) || sessionID != w.lastSessionID {
		w.lastNonStuckPhase = phase
		w.lastBoundary = now
		w.lastSessionID = sessionID
		return nil
	}

	if w.lastBoundary.IsZero() {
		w.lastBoundary = now
		return nil
	}

	if now.Sub(w.lastBoundary) <= 2*w.maxDuration {
		return nil
	}

	w.logger.Warn("stopping zombie panel discussion", "phase", phase, "session_id", sessionID, "elapsed", now.Sub(w.lastBoundary))
	return w.stop(ctx)
}

func isStuckEligible(phase orchtypes.PanelPhase) bool {
	return phase == orchtypes.PanelRunning || phase == orchtypes.PanelPaused
}
