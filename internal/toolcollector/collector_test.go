package toolcollector

import (
	"testing"
	"time"
)

func TestCollectorOrderedTraceRoundTrip(t *testing.T) {
	c := Start("sess-1")
	t0 := time.Now()

	c.Handle(ToolEvent{SessionID: "sess-1", Kind: KindToolStart, ToolCallID: "a", ToolName: "read_file", At: t0})
	c.Handle(ToolEvent{SessionID: "sess-1", Kind: KindToolComplete, ToolCallID: "a", At: t0.Add(time.Millisecond)})
	c.Handle(ToolEvent{SessionID: "sess-1", Kind: KindToolStart, ToolCallID: "b", ToolName: "write_file", At: t0.Add(2 * time.Millisecond)})
	c.Handle(ToolEvent{SessionID: "sess-1", Kind: KindToolComplete, ToolCallID: "b", At: t0.Add(3 * time.Millisecond)})

	trace := c.Complete()
	if len(trace) != 2 {
		t.Fatalf("expected exactly 2 entries, got %d: %+v", len(trace), trace)
	}
	if trace[0].ToolName != "read_file" || !trace[0].Success {
		t.Fatalf("unexpected first entry: %+v", trace[0])
	}
	if trace[1].ToolName != "write_file" || !trace[1].Success {
		t.Fatalf("unexpected second entry: %+v", trace[1])
	}
}

func TestCollectorSupersedesUnclosedTool(t *testing.T) {
	c := Start("sess-1")
	t0 := time.Now()

	c.Handle(ToolEvent{SessionID: "sess-1", Kind: KindToolStart, ToolCallID: "a", ToolName: "slow_tool", At: t0})
	// No ToolComplete for "a" before a new ToolStart arrives.
	c.Handle(ToolEvent{SessionID: "sess-1", Kind: KindToolStart, ToolCallID: "b", ToolName: "fast_tool", At: t0.Add(time.Millisecond)})
	c.Handle(ToolEvent{SessionID: "sess-1", Kind: KindToolComplete, ToolCallID: "b", At: t0.Add(2 * time.Millisecond)})

	trace := c.Complete()
	if len(trace) != 2 {
		t.Fatalf("expected 2 entries (superseded + completed), got %d", len(trace))
	}
	if trace[0].ToolName != "slow_tool" || trace[0].Description != "superseded" || !trace[0].Success {
		t.Fatalf("unexpected superseded entry: %+v", trace[0])
	}
	if trace[1].ToolName != "fast_tool" {
		t.Fatalf("unexpected second entry: %+v", trace[1])
	}
}

func TestCollectorFlushesOpenToolAtCompletion(t *testing.T) {
	c := Start("sess-1")
	c.Handle(ToolEvent{SessionID: "sess-1", Kind: KindToolStart, ToolCallID: "a", ToolName: "lingering", At: time.Now()})

	trace := c.Complete()
	if len(trace) != 1 {
		t.Fatalf("expected 1 flushed entry, got %d", len(trace))
	}
	if trace[0].Description != "finalized at collection end" || !trace[0].Success {
		t.Fatalf("unexpected flushed entry: %+v", trace[0])
	}
}

func TestCollectorIgnoresOtherSessions(t *testing.T) {
	c := Start("sess-1")
	c.Handle(ToolEvent{SessionID: "sess-2", Kind: KindToolStart, ToolCallID: "x", ToolName: "other_session_tool", At: time.Now()})

	trace := c.Complete()
	if len(trace) != 0 {
		t.Fatalf("expected no entries for unrelated session, got %d", len(trace))
	}
}
