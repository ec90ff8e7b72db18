package approval

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/corerun/orchestrator/internal/orchtypes"
)

func TestRuleShortCircuitsWithoutUICallback(t *testing.T) {
	b := New(orchtypes.UIModal, 0, 0, nil)
	b.cache.Record(orchtypes.RuleKey{ToolName: "read_file", Scope: orchtypes.ScopeGlobal}, orchtypes.RuleAllow)

	called := false
	b.OnApprovalRequested(func(req orchtypes.ToolApprovalRequest) { called = true })

	resp, err := b.RequestApproval(context.Background(), orchtypes.ToolApprovalRequest{ToolName: "read_file"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Approved {
		t.Fatalf("expected approved=true from cached global rule")
	}
	if called {
		t.Fatalf("OnApprovalRequested should not fire on a rule cache hit")
	}
}

func TestAutonomousBypassNeverTouchesRuleCache(t *testing.T) {
	b := New(orchtypes.UIModal, 0, 0, nil)
	resp, err := b.RequestApproval(context.Background(), orchtypes.ToolApprovalRequest{ToolName: "danger_tool", Autonomous: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Approved || resp.Scope != orchtypes.ScopeOnce {
		t.Fatalf("expected {approved:true, scope:Once}, got %+v", resp)
	}
	if _, ok := b.cache.Lookup("danger_tool", ""); ok {
		t.Fatalf("autonomous bypass must not populate the rule cache")
	}
}

func TestSessionPrecedesGlobal(t *testing.T) {
	b := New(orchtypes.UIModal, 0, 0, nil)
	b.cache.Record(orchtypes.RuleKey{ToolName: "write_file", Scope: orchtypes.ScopeGlobal}, orchtypes.RuleDeny)
	b.cache.Record(orchtypes.RuleKey{ToolName: "write_file", Scope: orchtypes.ScopeSession, SessionID: "s1"}, orchtypes.RuleAllow)

	resp, err := b.RequestApproval(context.Background(), orchtypes.ToolApprovalRequest{ToolName: "write_file", SessionID: "s1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Approved {
		t.Fatalf("expected session rule (allow) to take precedence over global (deny)")
	}
}

func TestInlineAutoDenyTimeout(t *testing.T) {
	b := New(orchtypes.UIInline, 0, 0, nil)
	b.resolver = InlineResolver{Timeout: 20 * time.Millisecond}

	start := time.Now()
	resp, err := b.RequestApproval(context.Background(), orchtypes.ToolApprovalRequest{ToolName: "slow_ui_tool"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Approved {
		t.Fatalf("expected auto-deny on inline timeout")
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Fatalf("resolved before the inline timeout elapsed: %v", elapsed)
	}
}

func TestUIFailureFailsClosed(t *testing.T) {
	b := New(orchtypes.UIModal, 0, 0, nil)
	b.resolver = failingResolver{}

	resp, err := b.RequestApproval(context.Background(), orchtypes.ToolApprovalRequest{ToolName: "any_tool"})
	if err != nil {
		t.Fatalf("RequestApproval itself should not error: %v", err)
	}
	if resp.Approved {
		t.Fatalf("expected fail-closed (approved=false) on UI failure")
	}
}

func TestRecordDecisionResolvesModal(t *testing.T) {
	b := New(orchtypes.UIModal, 0, 0, nil)
	req := orchtypes.ToolApprovalRequest{ID: "req-1", ToolName: "exec"}

	done := make(chan orchtypes.ToolApprovalResponse, 1)
	go func() {
		resp, _ := b.RequestApproval(context.Background(), req)
		done <- resp
	}()

	time.Sleep(10 * time.Millisecond)
	b.RecordDecision(req, orchtypes.ToolApprovalResponse{Approved: true, Scope: orchtypes.ScopeOnce})

	select {
	case resp := <-done:
		if !resp.Approved {
			t.Fatalf("expected approved response")
		}
	case <-time.After(time.Second):
		t.Fatal("RequestApproval did not resolve after RecordDecision")
	}
}

type failingResolver struct{}

func (failingResolver) Resolve(ctx context.Context, req orchtypes.ToolApprovalRequest, ask AskFunc) (orchtypes.ToolApprovalResponse, error) {
	return orchtypes.ToolApprovalResponse{}, errUIFailure
}

var errUIFailure = errors.New("simulated UI failure")
