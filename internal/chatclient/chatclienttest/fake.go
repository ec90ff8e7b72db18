// Package chatclienttest provides a scriptable in-memory chatclient.ChatClient
// for use in Office/Panel orchestrator tests, standing in for the external
// chat transport (§1 "out of scope ... consumed via interfaces only").
package chatclienttest

import (
	"context"
	"fmt"
	"sync"

	"github.com/corerun/orchestrator/internal/chatclient"
)

// Fake is a ChatClient whose responses are scripted per-session via Script or
// computed by a Responder function.
type Fake struct {
	mu        sync.Mutex
	responses map[string][]string // sessionID -> queued responses, consumed in order
	Responder func(sessionID, prompt string) (string, error)

	activeSessions map[string]bool
	terminated     []string

	events chan chatclient.ToolEvent
}

// New creates an empty Fake.
func New() *Fake {
	return &Fake{
		responses:      make(map[string][]string),
		activeSessions: make(map[string]bool),
		events:         make(chan chatclient.ToolEvent, 256),
	}
}

// Script queues responses to be returned in order for sessionID's subsequent
// SendBlocking/SendStreaming calls.
func (f *Fake) Script(sessionID string, responses ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[sessionID] = append(f.responses[sessionID], responses...)
}

func (f *Fake) next(sessionID, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activeSessions[sessionID] = true

	if f.Responder != nil {
		return f.Responder(sessionID, prompt)
	}
	queue := f.responses[sessionID]
	if len(queue) == 0 {
		return "", nil
	}
	resp := queue[0]
	f.responses[sessionID] = queue[1:]
	return resp, nil
}

func (f *Fake) SendBlocking(ctx context.Context, sessionID, prompt string) (chatclient.Role, string, error) {
	resp, err := f.next(sessionID, prompt)
	if err != nil {
		return "", "", err
	}
	return chatclient.RoleAssistant, resp, nil
}

func (f *Fake) SendStreaming(ctx context.Context, sessionID, prompt string) (<-chan chatclient.StreamChunk, error) {
	resp, err := f.next(sessionID, prompt)
	if err != nil {
		return nil, err
	}
	ch := make(chan chatclient.StreamChunk, 1)
	go func() {
		defer close(ch)
		select {
		case <-ctx.Done():
			ch <- chatclient.StreamChunk{Err: ctx.Err()}
			return
		default:
		}
		ch <- chatclient.StreamChunk{Content: resp, Role: chatclient.RoleAssistant, Done: true}
	}()
	return ch, nil
}

func (f *Fake) TerminateSession(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.activeSessions, sessionID)
	f.terminated = append(f.terminated, sessionID)
	return nil
}

func (f *Fake) ListModels(ctx context.Context) ([]chatclient.Model, error) {
	return []chatclient.Model{{ID: "fake-model", Name: "Fake Model"}}, nil
}

func (f *Fake) ToolEvents() <-chan chatclient.ToolEvent { return f.events }

// Emit pushes a tool event onto the shared event channel, simulating the
// adapter observing a tool call during some session's completion.
func (f *Fake) Emit(e chatclient.ToolEvent) {
	f.events <- e
}

// ActiveSessionCount returns how many sessions have been created but not
// terminated, for leak-detection assertions (§8 property 3).
func (f *Fake) ActiveSessionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.activeSessions)
}

// TerminatedSessions returns every session id TerminateSession was called with.
func (f *Fake) TerminatedSessions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.terminated))
	copy(out, f.terminated)
	return out
}

// Err is a convenience constructor for scripted transport failures.
func Err(msg string) error { return fmt.Errorf("fake chatclient: %s", msg) }
