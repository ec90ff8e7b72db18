package panel

import (
	"context"
	"sync"
)

// pauseGate mirrors internal/office's re-armable one-shot gate, generalized
// here for the Panel's discussion loop (§4.8 "Pause/Resume").
type pauseGate struct {
	mu sync.Mutex
	ch chan struct{}
}

func newPauseGate() *pauseGate {
	ch := make(chan struct{})
	close(ch)
	return &pauseGate{ch: ch}
}

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

func (g *pauseGate) Pause() {
	g.mu.Lock()
	defer g.mu.Unlock()
	select {
	case <-g.ch:
		g.ch = make(chan struct{})
	default:
	}
}

func (g *pauseGate) Resume() {
	g.mu.Lock()
	defer g.mu.Unlock()
	select {
	case <-g.ch:
	default:
		close(g.ch)
	}
}

// replyFuture resolves exactly once with a user's reply during one round of
// the Clarifying loop (§4.8). A fresh replyFuture is created per round since
// the Head may ask multiple rounds of questions before signaling CLEAR.
type replyFuture struct {
	once  sync.Once
	done  chan struct{}
	reply string
}

func newReplyFuture() *replyFuture {
	return &replyFuture{done: make(chan struct{})}
}

func (f *replyFuture) Resolve(reply string) {
	f.once.Do(func() {
		f.reply = reply
		close(f.done)
	})
}

func (f *replyFuture) Wait(ctx context.Context) (string, error) {
	select {
	case <-f.done:
		return f.reply, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// approvalFuture resolves exactly once with the user's plan-approval
// decision (§4.8 "AwaitingApproval").
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
