// Package toolcollector implements the per-task tool execution trace
// collector described in §4.6 (C6). Each Collector is scoped to a single
// assistant task's ephemeral session id and holds its own lock; there is no
// coupling between collectors.
package toolcollector

import (
	"sync"
	"time"

	"github.com/corerun/orchestrator/internal/orchtypes"
)

// ToolEventKind distinguishes the two tool lifecycle events a Collector reacts
// to. Reasoning-delta events are not tool events and are ignored here.
type ToolEventKind int

const (
	KindToolStart ToolEventKind = iota
	KindToolComplete
)

// ToolEvent is the tagged-sum payload delivered by the Chat Client Adapter's
// tool/reasoning event channel, filtered down to tool-relevant events before
// reaching a Collector (§4.1, §9 "replace with a tagged-sum").
type ToolEvent struct {
	SessionID  string
	Kind       ToolEventKind
	ToolCallID string
	ToolName   string
	At         time.Time
}

// Collector subscribes to one session's tool events and yields an ordered
// list of ToolExecution records.
type Collector struct {
	mu        sync.Mutex
	sessionID string
	open      *orchtypes.ToolExecution
	openID    string
	completed []orchtypes.ToolExecution
}

// Start begins collecting tool events for sessionID.
func Start(sessionID string) *Collector {
	return &Collector{sessionID: sessionID}
}

// Handle processes one tool event. Events for other sessions are ignored,
// matching the adapter's "route tool events solely by id" contract (§4.1).
func (c *Collector) Handle(e ToolEvent) {
	if e.SessionID != c.sessionID {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch e.Kind {
	case KindToolStart:
		// If a previous tool is still open, a new ToolStart supersedes it (§4.6).
		if c.open != nil {
			c.closeOpenLocked(e.At, true, "superseded")
		}
		c.open = &orchtypes.ToolExecution{
			ToolName:  e.ToolName,
			StartedAt: e.At,
		}
		c.openID = e.ToolCallID
	case KindToolComplete:
		if c.open != nil && c.openID == e.ToolCallID {
			c.closeOpenLocked(e.At, true, "")
		}
		// A ToolComplete with no matching open tool is dropped: the stream
		// only ever reports completions for the most recently opened tool.
	}
}

func (c *Collector) closeOpenLocked(at time.Time, success bool, description string) {
	exec := *c.open
	exec.CompletedAt = at
	exec.Success = success
	exec.Description = description
	c.completed = append(c.completed, exec)
	c.open = nil
	c.openID = ""
}

// Complete flushes any still-open tool (recorded as success with
// "finalized at collection end") and returns the ordered trace (§4.6).
// Callers must call Complete exactly once per task, in a finally-style
// guarantee, to avoid leaking the subscription (§3 "strictly scoped ...
// unsubscribe in a finally-style guarantee").
func (c *Collector) Complete() []orchtypes.ToolExecution {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.open != nil {
		c.closeOpenLocked(time.Now(), true, "finalized at collection end")
	}

	out := make([]orchtypes.ToolExecution, len(c.completed))
	copy(out, c.completed)
	return out
}
