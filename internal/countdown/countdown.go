// Package countdown implements the tickable rest-interval scheduler described
// in §4.3 (C3). Its ticker/stop-channel shape is grounded in the teacher's
// internal/heartbeat.Runner.
package countdown

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// TickEvent is delivered once per second while a wait is in progress, and a
// final time with SecondsRemaining=0 on both natural completion and early
// cancellation (§4.3 invariants, §8 "Tick finality").
type TickEvent struct {
	SecondsRemaining int
	TotalSeconds     int
}

// OnTick is invoked for every tick. Implementations must not block for long;
// the Scheduler does not protect against a slow handler stalling the 1 Hz
// cadence.
type OnTick func(TickEvent)

// Scheduler runs a single countdown at a time. It is safe to reuse across
// Office iterations but NOT safe for concurrent WaitForNextIteration calls.
type Scheduler struct {
	mu      sync.Mutex
	onTick  OnTick
	logger  *slog.Logger
	cancel  context.CancelFunc
	overrideCh chan int // minutes
}

// New creates a Scheduler that calls onTick (if non-nil) once per second.
func New(onTick OnTick, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		onTick:     onTick,
		logger:     logger.With("component", "countdown"),
		overrideCh: make(chan int, 1),
	}
}

// minDuration is the clamp floor from §4.3: "Minimum duration: 1 second".
const minDuration = time.Second

// WaitForNextIteration blocks until minutes have elapsed, the parent ctx is
// cancelled, CancelRest is called, or OverrideRestDuration is called. Overrides
// cancel the active wait; per §4.3 the caller is expected to re-invoke with the
// new duration, so WaitForNextIteration returns immediately on override rather
// than looping internally.
func (s *Scheduler) WaitForNextIteration(ctx context.Context, minutes int) {
	duration := time.Duration(minutes) * time.Minute
	if duration < minDuration {
		duration = minDuration
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.cancel = nil
		s.mu.Unlock()
	}()

	totalSeconds := int(duration / time.Second)
	remaining := totalSeconds

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	s.emit(remaining, totalSeconds)

	for {
		select {
		case <-runCtx.Done():
			s.emit(0, totalSeconds)
			return
		case <-s.overrideCh:
			s.emit(0, totalSeconds)
			return
		case <-ticker.C:
			remaining--
			if remaining <= 0 {
				s.emit(0, totalSeconds)
				return
			}
			s.emit(remaining, totalSeconds)
		}
	}
}

// cronParser accepts the standard five-field crontab format used by
// OfficeConfig.RestScheduleCron.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// WaitForNextRest resolves the Resting phase's wait duration from
// cronExpr when set, falling back to fallbackMinutes when cronExpr is empty
// or fails to parse (a malformed cron expression must never stall an Office
// run). The schedule is re-evaluated against the current time on every call,
// so each Resting phase waits for the next matching instant rather than a
// fixed interval.
func (s *Scheduler) WaitForNextRest(ctx context.Context, cronExpr string, fallbackMinutes int) {
	minutes := fallbackMinutes
	if cronExpr != "" {
		schedule, err := cronParser.Parse(cronExpr)
		if err != nil {
			s.logger.Warn("invalid rest schedule cron expression, falling back to check interval", "cron", cronExpr, "error", err)
		} else {
			now := time.Now()
			until := schedule.Next(now).Sub(now)
			minutes = int(until / time.Minute)
			if until%time.Minute != 0 {
				minutes++
			}
		}
	}
	s.WaitForNextIteration(ctx, minutes)
}

func (s *Scheduler) emit(remaining, total int) {
	if s.onTick != nil {
		s.onTick(TickEvent{SecondsRemaining: remaining, TotalSeconds: total})
	}
}

// CancelRest ends the active wait early. A final tick with SecondsRemaining=0
// is guaranteed (§4.3, §8 "Tick finality").
func (s *Scheduler) CancelRest() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// OverrideRestDuration cancels the active wait. The owner of the original call
// is expected to observe the cancellation and re-invoke WaitForNextIteration
// with the new duration (§4.3).
func (s *Scheduler) OverrideRestDuration(minutes int) {
	select {
	case s.overrideCh <- minutes:
	default:
		// A pending override is already queued; the latest one wins by
		// draining and replacing it.
		select {
		case <-s.overrideCh:
		default:
		}
		s.overrideCh <- minutes
	}
}
