// Package pool implements the bounded, priority-ordered Assistant Pool
// described in §4.5 (C5). Concurrency is bounded with
// golang.org/x/sync/semaphore.Weighted, grounded in the teacher's
// internal/tasks/scheduler.go worker-pool shape (buffered-channel semaphore +
// per-task goroutine), generalized to honor task priority and to manage one
// ephemeral chat session and tool-trace collector per task.
package pool

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/corerun/orchestrator/internal/chatclient"
	"github.com/corerun/orchestrator/internal/orchtypes"
	"github.com/corerun/orchestrator/internal/toolcollector"
)

// Config bounds one executeTasks call (§3 OfficeConfig fields relevant to the pool).
type Config struct {
	MaxAssistants        int
	AssistantTimeoutSecs int
	AssistantModel       string
	MCPIdentifiers       []string
	SkillIdentifiers     []string
}

// ProgressEvent is emitted as a task's stream produces new content. Throttling
// is left to the caller / event sink (§4.5f "throttling is an implementation
// choice, not a contract").
type ProgressEvent struct {
	TaskID string
	Delta  string
}

// OutcomeKind classifies a terminal assistant task outcome (§4.5h).
type OutcomeKind string

const (
	OutcomeSuccess        OutcomeKind = "Success"
	OutcomeTimeout        OutcomeKind = "Timeout"
	OutcomeUserCancel     OutcomeKind = "UserCancel"
	OutcomeUnspecifiedErr OutcomeKind = "UnspecifiedFailure"
)

// Events the pool emits. Callers subscribe via Pool.OnEvent.
type (
	SchedulingDispatchedEvent struct{ Task orchtypes.AssistantTask }
	TaskStartedEvent          struct {
		TaskID         string
		AssistantIndex int
	}
	TaskProgressEvent  struct{ ProgressEvent }
	TaskOutcomeEvent   struct {
		TaskID  string
		Outcome OutcomeKind
	}
)

// EventHandler receives pool events. Must not block for long.
type EventHandler func(any)

// Pool dispatches AssistantTasks against a ChatClient, bounded by
// Config.MaxAssistants (§4.5).
type Pool struct {
	client  chatclient.ChatClient
	logger  *slog.Logger
	onEvent EventHandler

	mu         sync.Mutex
	nextIndex  int
	eventsOnce sync.Once
	collectors map[string]*toolcollector.Collector
}

// New creates a Pool against client.
func New(client chatclient.ChatClient, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		client:     client,
		logger:     logger.With("component", "assistant-pool"),
		collectors: make(map[string]*toolcollector.Collector),
	}
}

// Dispatch routes one tool/reasoning event from the ChatClient's shared
// ToolEvents() channel to the active task collector for its session, if any
// (§4.6). The caller (cmd/orchestratord's single ToolEvents() consumer) must
// forward every event here alongside whatever else it does with it, since the
// channel has only one reader.
func (p *Pool) Dispatch(e chatclient.ToolEvent) {
	var kind toolcollector.ToolEventKind
	switch e.Kind {
	case chatclient.EventToolStart:
		kind = toolcollector.KindToolStart
	case chatclient.EventToolComplete:
		kind = toolcollector.KindToolComplete
	default:
		return
	}

	p.mu.Lock()
	collector, ok := p.collectors[e.SessionID]
	p.mu.Unlock()
	if !ok {
		return
	}

	collector.Handle(toolcollector.ToolEvent{
		SessionID:  e.SessionID,
		Kind:       kind,
		ToolCallID: e.ToolCallID,
		ToolName:   e.ToolName,
		At:         e.At,
	})
}

func (p *Pool) registerCollector(sessionID string) *toolcollector.Collector {
	c := toolcollector.Start(sessionID)
	p.mu.Lock()
	p.collectors[sessionID] = c
	p.mu.Unlock()
	return c
}

func (p *Pool) unregisterCollector(sessionID string) {
	p.mu.Lock()
	delete(p.collectors, sessionID)
	p.mu.Unlock()
}

// OnEvent registers the single event handler for pool lifecycle events.
func (p *Pool) OnEvent(fn EventHandler) {
	p.onEvent = fn
}

func (p *Pool) emit(e any) {
	if p.onEvent == nil {
		return
	}
	func() {
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("panic in pool event handler", "recover", r)
			}
		}()
		p.onEvent(e)
	}()
}

// ExecuteTasks runs tasks against the pool per §4.5's algorithm and returns
// results in task submission order (§8 property 4), regardless of completion
// order. The concurrency bound (§8 property 5) is enforced by a weighted
// semaphore of size max(1, config.MaxAssistants).
func (p *Pool) ExecuteTasks(ctx context.Context, tasks []orchtypes.AssistantTask, config Config) []orchtypes.AssistantResult {
	if len(tasks) == 0 {
		return nil
	}

	capacity := config.MaxAssistants
	if capacity < 1 {
		capacity = 1
	}
	sem := semaphore.NewWeighted(int64(capacity))

	// Stable sort by (priority ascending, submission order) — submission
	// order is preserved by a stable sort over the original slice order (§4.5 step 1).
	ordered := make([]int, len(tasks))
	for i := range ordered {
		ordered[i] = i
	}
	sort.SliceStable(ordered, func(a, b int) bool {
		return tasks[ordered[a]].Priority < tasks[ordered[b]].Priority
	})

	results := make([]orchtypes.AssistantResult, len(tasks))
	var wg sync.WaitGroup

	for _, idx := range ordered {
		task := tasks[idx]
		wg.Add(1)
		go func(slot int, task orchtypes.AssistantTask) {
			defer wg.Done()
			results[slot] = p.runTask(ctx, task, sem, config)
		}(idx, task)
	}

	wg.Wait()
	return results
}

func (p *Pool) runTask(ctx context.Context, task orchtypes.AssistantTask, sem *semaphore.Weighted, config Config) orchtypes.AssistantResult {
	task.SetStatus(orchtypes.TaskQueued)
	p.emit(SchedulingDispatchedEvent{Task: task})

	if err := sem.Acquire(ctx, 1); err != nil {
		return p.cancelledResult(task, "Task was cancelled")
	}
	defer sem.Release(1)

	p.mu.Lock()
	assistantIndex := p.nextIndex
	p.nextIndex++
	p.mu.Unlock()

	task.SetStatus(orchtypes.TaskRunning)
	p.emit(TaskStartedEvent{TaskID: task.ID, AssistantIndex: assistantIndex})

	timeout := time.Duration(config.AssistantTimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	taskCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	sessionID := fmt.Sprintf("assistant-%s-%d", task.ID, assistantIndex)
	collector := p.registerCollector(sessionID)

	if config.AssistantTimeoutSecs <= 0 {
		config.AssistantTimeoutSecs = int(timeout / time.Second)
	}
	result := p.stream(taskCtx, sessionID, task, assistantIndex, collector, config)

	// Collector completion and session termination happen on every exit
	// path, guaranteed-cleanup style (§5 "guaranteed-cleanup block").
	result.ToolExecutions = collector.Complete()
	p.unregisterCollector(sessionID)
	if err := p.client.TerminateSession(context.Background(), sessionID); err != nil {
		p.logger.Warn("session termination failed", "session_id", sessionID, "error", err)
	}

	return result
}

func (p *Pool) stream(ctx context.Context, sessionID string, task orchtypes.AssistantTask, assistantIndex int, collector *toolcollector.Collector, config Config) orchtypes.AssistantResult {
	systemPrompt := buildSystemPrompt(task, config)
	chunks, err := p.client.SendStreaming(ctx, sessionID, systemPrompt+"\n\n"+task.Prompt)
	if err != nil {
		return p.failureResult(task, assistantIndex, classifyOutcome(ctx, err), err.Error(), config.AssistantTimeoutSecs)
	}

	var full string
	prevLen := 0
	for chunk := range chunks {
		if chunk.Err != nil {
			return p.failureResult(task, assistantIndex, classifyOutcome(ctx, chunk.Err), chunk.Err.Error(), config.AssistantTimeoutSecs)
		}
		delta := chatclient.Delta(prevLen, chunk.Content)
		prevLen = len(chunk.Content)
		full = chunk.Content
		if delta != "" {
			p.emit(TaskProgressEvent{ProgressEvent{TaskID: task.ID, Delta: delta}})
		}
		if chunk.Done {
			break
		}
	}

	content := buildConciseContent(task, full)
	p.emit(TaskOutcomeEvent{TaskID: task.ID, Outcome: OutcomeSuccess})
	return orchtypes.AssistantResult{
		TaskID:         task.ID,
		AssistantIndex: assistantIndex,
		Success:        true,
		Content:        content,
		CompletedAt:    time.Now().UTC(),
	}
}

func (p *Pool) failureResult(task orchtypes.AssistantTask, assistantIndex int, outcome OutcomeKind, message string, timeoutSecs int) orchtypes.AssistantResult {
	p.emit(TaskOutcomeEvent{TaskID: task.ID, Outcome: outcome})
	switch outcome {
	case OutcomeTimeout:
		message = fmt.Sprintf("Task timed out after %ds", timeoutSecs)
	case OutcomeUserCancel:
		message = "Task was cancelled"
	}
	return orchtypes.AssistantResult{
		TaskID:         task.ID,
		AssistantIndex: assistantIndex,
		Success:        false,
		ErrorMessage:   message,
		CompletedAt:    time.Now().UTC(),
	}
}

func (p *Pool) cancelledResult(task orchtypes.AssistantTask, message string) orchtypes.AssistantResult {
	p.emit(TaskOutcomeEvent{TaskID: task.ID, Outcome: OutcomeUserCancel})
	return orchtypes.AssistantResult{
		TaskID:       task.ID,
		Success:      false,
		ErrorMessage: message,
		CompletedAt:  time.Now().UTC(),
	}
}

// classifyOutcome distinguishes a timeout from external cancellation from an
// unspecified transport failure (§4.5h, §5 "Timeouts").
func classifyOutcome(ctx context.Context, err error) OutcomeKind {
	if ctx.Err() == context.DeadlineExceeded {
		return OutcomeTimeout
	}
	if ctx.Err() == context.Canceled {
		return OutcomeUserCancel
	}
	return OutcomeUnspecifiedErr
}

func buildSystemPrompt(task orchtypes.AssistantTask, config Config) string {
	prompt := fmt.Sprintf("You are an ephemeral assistant for task %q.", task.Title)
	for _, id := range config.MCPIdentifiers {
		prompt += fmt.Sprintf("\nMCP: %s", id)
	}
	for _, id := range config.SkillIdentifiers {
		prompt += fmt.Sprintf("\nSkill: %s", id)
	}
	return prompt
}

func buildConciseContent(task orchtypes.AssistantTask, response string) string {
	trimmed := response
	for len(trimmed) > 0 && (trimmed[len(trimmed)-1] == '\n' || trimmed[len(trimmed)-1] == ' ') {
		trimmed = trimmed[:len(trimmed)-1]
	}
	return orchtypes.TruncateContent(task.Title + ": " + trimmed)
}

// Cancellation: ExecuteTasks takes its cancel signal from ctx. Cancelling ctx
// (the caller's "cancelAll()", §4.5) cancels every active task's linked
// anchor; in-flight tasks resolve as failures with "Task was cancelled" and
// release their semaphore slot and session on the way out.
