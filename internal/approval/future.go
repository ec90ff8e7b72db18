package approval

import (
	"sync"

	"github.com/corerun/orchestrator/internal/orchtypes"
)

// Future resolves exactly once with a ToolApprovalResponse (§3 "Each request
// owns a response future that resolves exactly once").
type Future struct {
	once sync.Once
	done chan struct{}
	resp orchtypes.ToolApprovalResponse
}

// NewFuture returns an unresolved Future.
func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Resolve completes the future. Only the first call has any effect.
func (f *Future) Resolve(resp orchtypes.ToolApprovalResponse) {
	f.once.Do(func() {
		f.resp = resp
		close(f.done)
	})
}

// Done returns a channel closed once the future resolves.
func (f *Future) Done() <-chan struct{} { return f.done }

// Wait blocks until resolved and returns the response.
func (f *Future) Wait() orchtypes.ToolApprovalResponse {
	<-f.done
	return f.resp
}
