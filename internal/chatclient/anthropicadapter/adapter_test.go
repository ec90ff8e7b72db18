package anthropicadapter

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/corerun/orchestrator/internal/chatclient"
)

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for missing API key")
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	adapter, err := New(Config{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if adapter.defaultModel != "claude-sonnet-4-20250514" {
		t.Fatalf("unexpected default model: %s", adapter.defaultModel)
	}
	if adapter.maxTokens != 4096 {
		t.Fatalf("unexpected default max tokens: %d", adapter.maxTokens)
	}
}

func TestSendBlockingReturnsAssistantText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/messages") {
			t.Errorf("expected /messages path, got %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-sonnet-4-20250514",
			"content": [{"type": "text", "text": "hello there"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 3}
		}`)
	}))
	defer server.Close()

	adapter, err := New(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	role, text, err := adapter.SendBlocking(context.Background(), "sess-1", "hi")
	if err != nil {
		t.Fatalf("SendBlocking: %v", err)
	}
	if role != chatclient.RoleAssistant {
		t.Fatalf("unexpected role: %s", role)
	}
	if text != "hello there" {
		t.Fatalf("unexpected text: %q", text)
	}

	adapter.mu.Lock()
	history := adapter.sessions["sess-1"]
	adapter.mu.Unlock()
	if len(history) != 2 {
		t.Fatalf("expected user+assistant history, got %d messages", len(history))
	}
}

func TestSendBlockingEmitsToolEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id": "msg_2",
			"type": "message",
			"role": "assistant",
			"model": "claude-sonnet-4-20250514",
			"content": [{"type": "tool_use", "id": "tool_1", "name": "search", "input": {"q": "test"}}],
			"stop_reason": "tool_use",
			"usage": {"input_tokens": 10, "output_tokens": 3}
		}`)
	}))
	defer server.Close()

	adapter, err := New(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, _, err := adapter.SendBlocking(context.Background(), "sess-2", "search for test"); err != nil {
		t.Fatalf("SendBlocking: %v", err)
	}

	select {
	case evt := <-adapter.ToolEvents():
		if evt.Kind != chatclient.EventToolStart || evt.ToolName != "search" {
			t.Fatalf("unexpected first event: %+v", evt)
		}
	default:
		t.Fatal("expected a ToolStart event")
	}

	select {
	case evt := <-adapter.ToolEvents():
		if evt.Kind != chatclient.EventToolComplete || evt.ToolName != "search" {
			t.Fatalf("unexpected second event: %+v", evt)
		}
	default:
		t.Fatal("expected a ToolComplete event")
	}
}

func TestSendStreamingAccumulatesCumulativeChunks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher, ok := w.(http.Flusher)
		if !ok {
			t.Fatal("expected http.Flusher")
		}

		events := []string{
			`event: message_start`,
			`data: {"type":"message_start","message":{"id":"msg_3","type":"message","role":"assistant","usage":{"input_tokens":5}}}`,
			``,
			`event: content_block_start`,
			`data: {"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`,
			``,
			`event: content_block_delta`,
			`data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hello"}}`,
			``,
			`event: content_block_delta`,
			`data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":" world"}}`,
			``,
			`event: content_block_stop`,
			`data: {"type":"content_block_stop","index":0}`,
			``,
			`event: message_delta`,
			`data: {"type":"message_delta","delta":{"stop_reason":"end_turn"},"usage":{"output_tokens":2}}`,
			``,
			`event: message_stop`,
			`data: {"type":"message_stop"}`,
			``,
		}
		for _, e := range events {
			fmt.Fprintln(w, e)
			flusher.Flush()
		}
	}))
	defer server.Close()

	adapter, err := New(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	chunks, err := adapter.SendStreaming(context.Background(), "sess-3", "say hello")
	if err != nil {
		t.Fatalf("SendStreaming: %v", err)
	}

	var last chatclient.StreamChunk
	var seen []string
	for chunk := range chunks {
		if chunk.Err != nil {
			t.Fatalf("unexpected stream error: %v", chunk.Err)
		}
		seen = append(seen, chunk.Content)
		last = chunk
	}

	if !last.Done {
		t.Fatal("expected final chunk to be marked Done")
	}
	if last.Content != "Hello world" {
		t.Fatalf("expected cumulative content 'Hello world', got %q", last.Content)
	}
	if len(seen) < 2 {
		t.Fatalf("expected at least two incremental chunks, got %d", len(seen))
	}
	if seen[0] != "Hello" {
		t.Fatalf("expected first chunk to be the first delta, got %q", seen[0])
	}
}

func TestTerminateSessionDropsHistory(t *testing.T) {
	adapter, err := New(Config{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	adapter.mu.Lock()
	adapter.sessions["sess-4"] = nil
	adapter.mu.Unlock()

	if err := adapter.TerminateSession(context.Background(), "sess-4"); err != nil {
		t.Fatalf("TerminateSession: %v", err)
	}
	if err := adapter.TerminateSession(context.Background(), "unknown"); err != nil {
		t.Fatalf("TerminateSession on unknown session should be a no-op: %v", err)
	}

	adapter.mu.Lock()
	_, exists := adapter.sessions["sess-4"]
	adapter.mu.Unlock()
	if exists {
		t.Fatal("expected session history to be dropped")
	}
}

func TestListModelsReturnsKnownModels(t *testing.T) {
	adapter, err := New(Config{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	models, err := adapter.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(models) == 0 {
		t.Fatal("expected at least one model")
	}
}
