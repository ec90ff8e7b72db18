// Package anthropicadapter is a concrete chatclient.ChatClient backed by the
// Anthropic Messages API, grounded in the teacher's
// internal/agent/providers.AnthropicProvider. It is never imported by the
// Office or Panel orchestrators directly (§4.1's "out of scope" transport
// boundary) — only cmd/orchestratord wires it in at process startup.
package anthropicadapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/corerun/orchestrator/internal/chatclient"
)

// Config holds the parameters needed to construct an Adapter.
type Config struct {
	// APIKey authenticates against the Anthropic API (required).
	APIKey string

	// BaseURL overrides the default API endpoint, mainly for testing against
	// a local stub.
	BaseURL string

	// DefaultModel is the model used for every request.
	// Default: "claude-sonnet-4-20250514".
	DefaultModel string

	// MaxTokens bounds each response. Default: 4096.
	MaxTokens int64

	// Logger receives adapter-level diagnostics (dropped tool events).
	// Defaults to slog.Default().
	Logger *slog.Logger
}

// Adapter implements chatclient.ChatClient against the Anthropic Messages
// API. Each SessionID maps to an independent, accumulating message history,
// since the Anthropic API itself is stateless per request.
type Adapter struct {
	client       anthropic.Client
	defaultModel string
	maxTokens    int64
	logger       *slog.Logger

	mu       sync.Mutex
	sessions map[string][]anthropic.MessageParam

	events chan chatclient.ToolEvent
}

// New constructs an Adapter from config.
func New(config Config) (*Adapter, error) {
	if config.APIKey == "" {
		return nil, errors.New("anthropicadapter: API key is required")
	}
	if config.DefaultModel == "" {
		config.DefaultModel = "claude-sonnet-4-20250514"
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 4096
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &Adapter{
		client:       anthropic.NewClient(opts...),
		defaultModel: config.DefaultModel,
		maxTokens:    config.MaxTokens,
		logger:       config.Logger.With("component", "anthropicadapter"),
		sessions:     make(map[string][]anthropic.MessageParam),
		events:       make(chan chatclient.ToolEvent, 256),
	}, nil
}

// appendUser appends a user message to session's history and returns a copy
// of the full history to send; the lock is released before the network call
// (callers append the assistant reply back in once it completes).
func (a *Adapter) appendUser(sessionID, prompt string) []anthropic.MessageParam {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sessions[sessionID] = append(a.sessions[sessionID], anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)))
	history := make([]anthropic.MessageParam, len(a.sessions[sessionID]))
	copy(history, a.sessions[sessionID])
	return history
}

func (a *Adapter) appendAssistant(sessionID string, blocks ...anthropic.ContentBlockParamUnion) {
	if len(blocks) == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sessions[sessionID] = append(a.sessions[sessionID], anthropic.NewAssistantMessage(blocks...))
}

func (a *Adapter) emit(e chatclient.ToolEvent) {
	select {
	case a.events <- e:
	default:
		a.logger.Warn("dropping tool event, consumer too slow", "session_id", e.SessionID, "kind", e.Kind)
	}
}

// SendBlocking implements chatclient.ChatClient.
func (a *Adapter) SendBlocking(ctx context.Context, sessionID, prompt string) (chatclient.Role, string, error) {
	history := a.appendUser(sessionID, prompt)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.defaultModel),
		Messages:  history,
		MaxTokens: a.maxTokens,
	}

	message, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", "", fmt.Errorf("anthropicadapter: send blocking: %w", err)
	}

	var text string
	var replyBlocks []anthropic.ContentBlockParamUnion
	for _, block := range message.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			text += variant.Text
			replyBlocks = append(replyBlocks, anthropic.NewTextBlock(variant.Text))
		case anthropic.ToolUseBlock:
			a.emit(chatclient.ToolEvent{
				SessionID:  sessionID,
				Kind:       chatclient.EventToolStart,
				ToolCallID: variant.ID,
				ToolName:   variant.Name,
				At:         time.Now(),
			})
			a.emit(chatclient.ToolEvent{
				SessionID:  sessionID,
				Kind:       chatclient.EventToolComplete,
				ToolCallID: variant.ID,
				ToolName:   variant.Name,
				At:         time.Now(),
			})
		}
	}

	a.appendAssistant(sessionID, replyBlocks...)
	return chatclient.RoleAssistant, text, nil
}

// SendStreaming implements chatclient.ChatClient. Chunks are cumulative, per
// the StreamChunk contract.
func (a *Adapter) SendStreaming(ctx context.Context, sessionID, prompt string) (<-chan chatclient.StreamChunk, error) {
	history := a.appendUser(sessionID, prompt)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.defaultModel),
		Messages:  history,
		MaxTokens: a.maxTokens,
	}

	stream := a.client.Messages.NewStreaming(ctx, params)
	out := make(chan chatclient.StreamChunk)

	go func() {
		defer close(out)

		var accumulated string
		var currentToolID, currentToolName string
		var replyBlocks []anthropic.ContentBlockParamUnion

		for stream.Next() {
			event := stream.Current()

			switch event.Type {
			case "content_block_start":
				block := event.AsContentBlockStart().ContentBlock
				if block.Type == "tool_use" {
					toolUse := block.AsToolUse()
					currentToolID = toolUse.ID
					currentToolName = toolUse.Name
					a.emit(chatclient.ToolEvent{
						SessionID:  sessionID,
						Kind:       chatclient.EventToolStart,
						ToolCallID: currentToolID,
						ToolName:   currentToolName,
						At:         time.Now(),
					})
				}

			case "content_block_delta":
				delta := event.AsContentBlockDelta().Delta
				switch delta.Type {
				case "text_delta":
					if delta.Text == "" {
						continue
					}
					accumulated += delta.Text
					select {
					case out <- chatclient.StreamChunk{Content: accumulated, Role: chatclient.RoleAssistant}:
					case <-ctx.Done():
						return
					}
				case "input_json_delta":
					if delta.PartialJSON == "" {
						continue
					}
					a.emit(chatclient.ToolEvent{
						SessionID:  sessionID,
						Kind:       chatclient.EventReasoningDelta,
						ToolCallID: currentToolID,
						ToolName:   currentToolName,
						Delta:      delta.PartialJSON,
						At:         time.Now(),
					})
				}

			case "content_block_stop":
				if currentToolID != "" {
					a.emit(chatclient.ToolEvent{
						SessionID:  sessionID,
						Kind:       chatclient.EventToolComplete,
						ToolCallID: currentToolID,
						ToolName:   currentToolName,
						At:         time.Now(),
					})
					currentToolID, currentToolName = "", ""
				}

			case "message_stop":
				if accumulated != "" {
					replyBlocks = append(replyBlocks, anthropic.NewTextBlock(accumulated))
				}
				a.appendAssistant(sessionID, replyBlocks...)
				select {
				case out <- chatclient.StreamChunk{Content: accumulated, Role: chatclient.RoleAssistant, Done: true}:
				case <-ctx.Done():
				}
				return
			}
		}

		if err := stream.Err(); err != nil {
			select {
			case out <- chatclient.StreamChunk{Err: fmt.Errorf("anthropicadapter: stream: %w", err)}:
			case <-ctx.Done():
			}
		}
	}()

	return out, nil
}

// TerminateSession implements chatclient.ChatClient. There is no remote
// session to close against the Anthropic API itself; this only drops the
// locally accumulated history. Idempotent.
func (a *Adapter) TerminateSession(ctx context.Context, sessionID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.sessions, sessionID)
	return nil
}

// ListModels implements chatclient.ChatClient.
func (a *Adapter) ListModels(ctx context.Context) ([]chatclient.Model, error) {
	return []chatclient.Model{
		{ID: "claude-sonnet-4-20250514", Name: "Claude Sonnet 4"},
		{ID: "claude-opus-4-20250514", Name: "Claude Opus 4"},
		{ID: "claude-3-5-sonnet-20241022", Name: "Claude 3.5 Sonnet"},
		{ID: "claude-3-haiku-20240307", Name: "Claude 3 Haiku"},
	}, nil
}

// ToolEvents implements chatclient.ChatClient.
func (a *Adapter) ToolEvents() <-chan chatclient.ToolEvent {
	return a.events
}
