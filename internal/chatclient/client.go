// Package chatclient defines the uniform interface over the external
// "Copilot-style" chat service described in §4.1 (C1). The transport itself
// is out of scope (§1); this package only defines the boundary the Office and
// Panel orchestrators depend on, following the teacher's agent.LLMProvider
// dependency-inversion boundary (internal/agent/provider_types.go).
package chatclient

import (
	"context"
	"time"
)

// Role identifies the speaker of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ToolEventKind tags the three possible shapes of a tool/reasoning event,
// replacing the reflection/dynamic-typing the original system used at this
// boundary (§9 "replace with a tagged-sum over
// {ReasoningDelta, ToolStart, ToolComplete}").
type ToolEventKind string

const (
	EventReasoningDelta ToolEventKind = "ReasoningDelta"
	EventToolStart      ToolEventKind = "ToolStart"
	EventToolComplete   ToolEventKind = "ToolComplete"
)

// ToolEvent is one event on the adapter's tool/reasoning channel, keyed by
// SessionID so consumers can route purely on that id (§4.1 "Session identity").
type ToolEvent struct {
	SessionID  string
	Kind       ToolEventKind
	ToolCallID string
	ToolName   string
	Delta      string
	At         time.Time
}

// StreamChunk is one item of a SendStreaming response. Content is cumulative,
// never a delta: consumers must track the previous length and take the new
// suffix (§4.1 "Streaming contract" — the "cumulative vs delta" bug is fixed
// here by making the contract explicit and documented rather than ambiguous).
type StreamChunk struct {
	Content string
	Role    Role
	Done    bool
	Err     error
}

// Model describes one model the adapter can route to.
type Model struct {
	ID   string
	Name string
}

// ChatClient is the adapter boundary the Office and Panel orchestrators
// depend on. Implementations must be safe for concurrent use across distinct
// session ids, and must never cross-talk tool events between sessions (§4.1).
type ChatClient interface {
	// SendBlocking sends prompt on session and waits for the complete response.
	SendBlocking(ctx context.Context, sessionID, prompt string) (Role, string, error)

	// SendStreaming sends prompt and returns a channel of cumulative chunks.
	// Cancelling ctx aborts the stream and yields no further items (§4.1).
	SendStreaming(ctx context.Context, sessionID, prompt string) (<-chan StreamChunk, error)

	// TerminateSession ends a session. Must be idempotent: terminating an
	// already-terminated or unknown session is not an error (§3 "No session
	// leaks", §7 "Session termination failures are logged and swallowed").
	TerminateSession(ctx context.Context, sessionID string) error

	// ListModels returns the models available through this adapter.
	ListModels(ctx context.Context) ([]Model, error)

	// ToolEvents returns a channel of tool/reasoning events across all
	// sessions. Consumers filter by SessionID themselves (§4.1).
	ToolEvents() <-chan ToolEvent
}

// Delta computes the new suffix of a cumulative stream chunk given the length
// of content already observed, implementing the consumer-side half of the
// cumulative streaming contract (§4.1, §9).
func Delta(previousLen int, cumulative string) string {
	if previousLen >= len(cumulative) {
		return ""
	}
	return cumulative[previousLen:]
}
