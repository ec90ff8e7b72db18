// Package approval implements the Tool Approval Broker described in §4.2
// (C2): per-request approval futures, a rule cache with Global/Session/Once
// precedence, and pluggable UI resolution strategies. Grounded in the
// teacher's internal/tools/policy/approval.go ApprovalManager, adapted from
// trust-level auto-approval to the spec's UI-resolution-strategy model.
package approval

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/corerun/orchestrator/internal/orchtypes"
)

// RequestedHandler is invoked whenever a request needs UI resolution (i.e.
// after a rule-cache miss). It must not block the broker for long; heavy work
// should be handed off.
type RequestedHandler func(req orchtypes.ToolApprovalRequest)

// Broker resolves tool approval requests per §4.2's pipeline.
type Broker struct {
	mu       sync.Mutex
	cache    *RuleCache
	resolver UIResolver
	logger   *slog.Logger

	onRequested RequestedHandler
	pending     map[string]*Future
}

// New creates a Broker using resolver for UI escalation. inlineTimeout and
// bothTimeout configure the Inline/Both resolvers' auto-deny and
// quick-action windows (§4.2); pass 0 for either to keep the spec's
// hardcoded 10s/3s defaults.
func New(mode orchtypes.ApprovalUIMode, inlineTimeout, bothTimeout time.Duration, logger *slog.Logger) *Broker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broker{
		cache:    NewRuleCache(),
		resolver: ResolverFor(mode, inlineTimeout, bothTimeout),
		logger:   logger.With("component", "approval-broker"),
		pending:  make(map[string]*Future),
	}
}

// OnApprovalRequested registers the handler fired when a request reaches the
// UI step (rule cache miss). Only one handler is supported; registering again
// replaces the previous one.
func (b *Broker) OnApprovalRequested(fn RequestedHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onRequested = fn
}

// RequestApproval runs the resolution pipeline from §4.2:
//  1. Session rule, then Global rule, then UI resolution.
//  2. On any UI failure, fail-closed: {approved:false}.
//  3. If rememberDecision or scope != Once, persist in the rule cache.
//
// The Autonomous bypass (§4.2) short-circuits everything with
// {approved:true, scope:Once} and never touches the rule cache.
func (b *Broker) RequestApproval(ctx context.Context, req orchtypes.ToolApprovalRequest) (orchtypes.ToolApprovalResponse, error) {
	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now().UTC()
	}

	if req.Autonomous {
		return orchtypes.ToolApprovalResponse{Approved: true, Scope: orchtypes.ScopeOnce}, nil
	}

	if decision, ok := b.cache.Lookup(req.ToolName, req.SessionID); ok {
		return orchtypes.ToolApprovalResponse{Approved: decision == orchtypes.RuleAllow, Scope: orchtypes.ScopeGlobal}, nil
	}

	b.mu.Lock()
	handler := b.onRequested
	b.mu.Unlock()
	if handler != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error("panic in OnApprovalRequested handler", "recover", r)
				}
			}()
			handler(req)
		}()
	}

	resp, err := b.resolver.Resolve(ctx, req, b.ask)
	if err != nil {
		b.logger.Warn("UI resolution failed, failing closed", "tool", req.ToolName, "error", err)
		resp = orchtypes.ToolApprovalResponse{Approved: false, Reason: err.Error()}
	}

	if resp.RememberDecision || resp.Scope != orchtypes.ScopeOnce {
		decision := orchtypes.RuleDeny
		if resp.Approved {
			decision = orchtypes.RuleAllow
		}
		scope := resp.Scope
		if scope == "" {
			scope = orchtypes.ScopeOnce
		}
		b.cache.Record(orchtypes.RuleKey{ToolName: req.ToolName, Scope: scope, SessionID: req.SessionID}, decision)
	}

	return resp, nil
}

// ask creates (or reuses) a pending Future for req.ID and tracks it so
// RecordDecision can resolve it from an external UI reply.
func (b *Broker) ask(ctx context.Context, req orchtypes.ToolApprovalRequest) *Future {
	b.mu.Lock()
	defer b.mu.Unlock()
	if f, ok := b.pending[req.ID]; ok {
		return f
	}
	f := NewFuture()
	b.pending[req.ID] = f
	return f
}

// RecordDecision resolves the pending future for req.ID with resp. It is the
// UI's entry point for delivering a human decision.
func (b *Broker) RecordDecision(req orchtypes.ToolApprovalRequest, resp orchtypes.ToolApprovalResponse) {
	b.mu.Lock()
	f, ok := b.pending[req.ID]
	if ok {
		delete(b.pending, req.ID)
	}
	b.mu.Unlock()
	if ok {
		f.Resolve(resp)
	}
}

// SaveRules returns a snapshot of Global rules suitable for persistence
// (§6 "tool-approval-rules.json").
func (b *Broker) SaveRules() map[string]orchtypes.RuleDecision {
	return b.cache.GlobalRules()
}

// LoadRules restores Global rules from a persisted snapshot.
func (b *Broker) LoadRules(rules map[string]orchtypes.RuleDecision) {
	b.cache.LoadGlobalRules(rules)
}
