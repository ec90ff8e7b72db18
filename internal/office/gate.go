package office

import (
	"context"
	"sync"
)

// pauseGate is a re-armable one-shot gate: released (open) lets Wait return
// immediately; Pause re-arms it into a blocking state; Resume releases it
// again. Grounded in the teacher's internal/heartbeat override-channel swap
// idiom, generalized from a single-shot override into a re-armable pause.
type pauseGate struct {
	mu sync.Mutex
	ch chan struct{}
}

func newPauseGate() *pauseGate {
	ch := make(chan struct{})
	close(ch)
	return &pauseGate{ch: ch}
}

// Wait blocks until the gate is released or ctx ends.
func (g *pauseGate) Wait(ctx context.Context) error {
	g.mu.Lock()
	ch := g.ch
	g.mu.Unlock()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pause re-arms the gate into a blocking state, if not already paused.
func (g *pauseGate) Pause() {
	g.mu.Lock()
	defer g.mu.Unlock()
	select {
	case <-g.ch:
		g.ch = make(chan struct{})
	default:
	}
}

// Resume releases the gate, unblocking every current and future Wait call
// until the next Pause.
func (g *pauseGate) Resume() {
	g.mu.Lock()
	defer g.mu.Unlock()
	select {
	case <-g.ch:
	default:
		close(g.ch)
	}
}

// clarificationFuture resolves exactly once with a user-supplied answer,
// mirroring approval.Future's shape (§4.2) generalized to a plain string
// payload for the Office's clarification exchange (§4.7).
type clarificationFuture struct {
	once   sync.Once
	done   chan struct{}
	answer string
}

func newClarificationFuture() *clarificationFuture {
	return &clarificationFuture{done: make(chan struct{})}
}

func (f *clarificationFuture) Resolve(answer string) {
	f.once.Do(func() {
		f.answer = answer
		close(f.done)
	})
}

func (f *clarificationFuture) Wait(ctx context.Context) (string, error) {
	select {
	case <-f.done:
		return f.answer, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// approvalFuture resolves exactly once with a plan approval decision (§4.7
// AwaitingApproval).
type approvalFuture struct {
	once     sync.Once
	done     chan struct{}
	approved bool
	feedback string
}

func newApprovalFuture() *approvalFuture {
	return &approvalFuture{done: make(chan struct{})}
}

func (f *approvalFuture) Resolve(approved bool, feedback string) {
	f.once.Do(func() {
		f.approved = approved
		f.feedback = feedback
		close(f.done)
	})
}

func (f *approvalFuture) Wait(ctx context.Context) (approved bool, feedback string, err error) {
	select {
	case <-f.done:
		return f.approved, f.feedback, nil
	case <-ctx.Done():
		return false, "", ctx.Err()
	}
}
