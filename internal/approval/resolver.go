package approval

import (
	"context"
	"time"

	"github.com/corerun/orchestrator/internal/orchtypes"
)

// UIResolver is one of the three resolution strategies from §4.2: Modal
// blocks until the user answers, Inline shows a non-blocking toast with an
// auto-deny timeout, Both races a quick-action toast against a modal
// escalation.
type UIResolver interface {
	Resolve(ctx context.Context, req orchtypes.ToolApprovalRequest, ask AskFunc) (orchtypes.ToolApprovalResponse, error)
}

// AskFunc presents req to the human/UI collaborator and returns a future the
// resolver can wait on (or race against a timeout).
type AskFunc func(ctx context.Context, req orchtypes.ToolApprovalRequest) *Future

// ModalResolver blocks until the user answers, with no timeout of its own
// (bounded only by ctx).
type ModalResolver struct{}

func (ModalResolver) Resolve(ctx context.Context, req orchtypes.ToolApprovalRequest, ask AskFunc) (orchtypes.ToolApprovalResponse, error) {
	f := ask(ctx, req)
	select {
	case <-f.Done():
		return f.Wait(), nil
	case <-ctx.Done():
		return orchtypes.ToolApprovalResponse{}, ctx.Err()
	}
}

// InlineAutoDenyTimeout is the fixed auto-deny window for Inline resolution (§4.2).
const InlineAutoDenyTimeout = 10 * time.Second

// InlineResolver shows a non-blocking toast; if no answer arrives within
// Timeout (defaults to InlineAutoDenyTimeout), the request is auto-denied.
type InlineResolver struct {
	Timeout time.Duration
}

func (r InlineResolver) Resolve(ctx context.Context, req orchtypes.ToolApprovalRequest, ask AskFunc) (orchtypes.ToolApprovalResponse, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = InlineAutoDenyTimeout
	}
	f := ask(ctx, req)
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-f.Done():
		return f.Wait(), nil
	case <-timer.C:
		return orchtypes.ToolApprovalResponse{Approved: false, Scope: orchtypes.ScopeOnce, Reason: "auto-denied: inline timeout"}, nil
	case <-ctx.Done():
		return orchtypes.ToolApprovalResponse{}, ctx.Err()
	}
}

// BothQuickActionTimeout is how long Both waits for a quick answer before
// escalating to a blocking modal (§4.2).
const BothQuickActionTimeout = 3 * time.Second

// BothResolver shows a quick-action toast for Timeout (defaults to
// BothQuickActionTimeout) then escalates to a blocking modal if no quick
// answer arrived.
type BothResolver struct {
	Timeout time.Duration
}

func (r BothResolver) Resolve(ctx context.Context, req orchtypes.ToolApprovalRequest, ask AskFunc) (orchtypes.ToolApprovalResponse, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = BothQuickActionTimeout
	}
	f := ask(ctx, req)
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-f.Done():
		return f.Wait(), nil
	case <-timer.C:
		// Escalate: keep waiting on the same future (the "modal" is just the
		// same pending request now rendered blocking) until ctx ends.
		select {
		case <-f.Done():
			return f.Wait(), nil
		case <-ctx.Done():
			return orchtypes.ToolApprovalResponse{}, ctx.Err()
		}
	case <-ctx.Done():
		return orchtypes.ToolApprovalResponse{}, ctx.Err()
	}
}

// ResolverFor returns the UIResolver for the configured mode. inlineTimeout and
// bothTimeout override InlineAutoDenyTimeout/BothQuickActionTimeout when
// positive, letting ApprovalConfig's configurable seconds actually take
// effect (§4.2); a zero value keeps the spec's hardcoded 10s/3s defaults.
func ResolverFor(mode orchtypes.ApprovalUIMode, inlineTimeout, bothTimeout time.Duration) UIResolver {
	switch mode {
	case orchtypes.UIInline:
		return InlineResolver{Timeout: inlineTimeout}
	case orchtypes.UIBoth:
		return BothResolver{Timeout: bothTimeout}
	default:
		return ModalResolver{}
	}
}
