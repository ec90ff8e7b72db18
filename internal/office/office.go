// Package office implements the Office Manager FSM described in §4.7 (C7):
// a cyclic Idle→Planning→(Clarifying*)→AwaitingApproval→FetchingEvents→
// Scheduling→Executing→Aggregating→Resting loop with instruction injection,
// pause/resume, and stop. Grounded in the teacher's internal/tasks.Scheduler
// run-loop shape (internal/tasks/scheduler.go) and internal/multiagent's
// event-callback orchestration pattern (internal/multiagent/orchestrator.go),
// generalized from a polling task scheduler into a single long-lived FSM loop.
package office

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/corerun/orchestrator/internal/chatclient"
	"github.com/corerun/orchestrator/internal/countdown"
	"github.com/corerun/orchestrator/internal/eventbus"
	"github.com/corerun/orchestrator/internal/eventlog"
	"github.com/corerun/orchestrator/internal/llmproto"
	"github.com/corerun/orchestrator/internal/orchtypes"
	"github.com/corerun/orchestrator/internal/pool"
)

// EventTypes used on the Office's event taxonomy (§9 "Office and Panel keep
// disjoint event taxonomies").
const (
	EventPhaseChanged = "PhaseChanged"
	EventChatMessage  = "ChatMessage"
	EventNoTasks      = "NoTasks"
	EventTaskStarted  = "TaskStarted"
	EventTaskProgress = "TaskProgress"
	EventTaskOutcome  = "TaskOutcome"
)

// ChatMessagePayload carries one message posted to the Office's chat stream.
type ChatMessagePayload struct {
	IterationNum int    `json:"iterationNumber"`
	Role         string `json:"role"`
	Content      string `json:"content"`
}

// IterationNumber implements eventlog's iterationPayload filter interface.
func (p ChatMessagePayload) IterationNumber() int { return p.IterationNum }

// NoTasksPayload marks an iteration where fetchEventsAndCreateTasks produced
// nothing to dispatch.
type NoTasksPayload struct {
	IterationNum int `json:"iterationNumber"`
}

func (p NoTasksPayload) IterationNumber() int { return p.IterationNum }

// Manager runs the Office Manager FSM (§4.7).
type Manager struct {
	client    chatclient.ChatClient
	pool      *pool.Pool
	scheduler *countdown.Scheduler
	bus       *eventbus.Bus
	log       *eventlog.Log
	logger    *slog.Logger

	mu          sync.Mutex
	phase       orchtypes.ManagerPhase
	config      orchtypes.OfficeConfig
	sessionID   string
	iteration   int
	plan        string
	reports     []orchtypes.IterationReport
	cancel      context.CancelFunc
	loopDone    chan struct{}
	pauseGate   *pauseGate
	clarifyWait *clarificationFuture
	approveWait *approvalFuture
	instrs      []string
}

// New creates a Manager. bus and log may be the same process-wide instances
// shared with the Panel (each Event's Source disambiguates them).
func New(client chatclient.ChatClient, p *pool.Pool, scheduler *countdown.Scheduler, bus *eventbus.Bus, log *eventlog.Log, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		client:    client,
		pool:      p,
		scheduler: scheduler,
		bus:       bus,
		log:       log,
		logger:    logger.With("component", "office-manager"),
		phase:     orchtypes.ManagerIdle,
		pauseGate: newPauseGate(),
	}
	p.OnEvent(m.handlePoolEvent)
	return m
}

// handlePoolEvent republishes Assistant Pool lifecycle events onto the
// Office's own taxonomy so UIs subscribed only to the office event stream see
// task progress without reaching into the pool directly.
func (m *Manager) handlePoolEvent(e any) {
	switch ev := e.(type) {
	case pool.TaskStartedEvent:
		m.publish(m.event(EventTaskStarted, ev))
	case pool.TaskProgressEvent:
		m.publish(m.event(EventTaskProgress, ev))
	case pool.TaskOutcomeEvent:
		m.publish(m.event(EventTaskOutcome, ev))
	case pool.SchedulingDispatchedEvent:
		m.mu.Lock()
		iterationNum := ev.Task.IterationNumber
		m.mu.Unlock()
		m.publish(m.event(eventlog.SchedulingEventType, schedulingPayload{
			IterationNum: iterationNum,
			TaskID:       ev.Task.ID,
			Priority:     ev.Task.Priority,
			Title:        ev.Task.Title,
		}))
	}
}

// schedulingPayload carries one scheduling-dispatch decision, filterable by
// iteration via eventlog's GetByIteration (§4.4).
type schedulingPayload struct {
	IterationNum int    `json:"iterationNumber"`
	TaskID       string `json:"taskId"`
	Priority     int    `json:"priority"`
	Title        string `json:"title"`
}

func (p schedulingPayload) IterationNumber() int { return p.IterationNum }

// Phase returns the Manager's current phase.
func (m *Manager) Phase() orchtypes.ManagerPhase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Reports returns a snapshot of every completed iteration's report.
func (m *Manager) Reports() []orchtypes.IterationReport {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]orchtypes.IterationReport, len(m.reports))
	copy(out, m.reports)
	return out
}

// Start transitions Idle→Planning (§4.7). A Start call while not Idle is an
// FSM no-op (§7).
func (m *Manager) Start(config orchtypes.OfficeConfig) error {
	config.Normalize()

	m.mu.Lock()
	if m.phase != orchtypes.ManagerIdle {
		m.mu.Unlock()
		return noopErr("office", "Start", m.phase)
	}
	m.config = config
	m.sessionID = "office-" + uuid.NewString()
	m.loopDone = make(chan struct{})
	runCtx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.setPhaseLocked(orchtypes.ManagerPlanning, "Start")
	m.mu.Unlock()

	go m.run(runCtx)
	return nil
}

// InjectInstruction queues an instruction absorbed atomically by the next
// iteration's drain (§4.7 "exactly once per iteration").
func (m *Manager) InjectInstruction(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.instrs = append(m.instrs, text)
}

// drainInstructions atomically empties the injected-instruction queue.
func (m *Manager) drainInstructions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.instrs
	m.instrs = nil
	return out
}

// RespondToClarification answers an open clarification request, if one is
// pending (§4.7). The phase is flipped back to Planning here, before the
// future resolves and the awaiting goroutine wakes up — a known past bug
// preserved intentionally (§4.7): a caller that reads Phase() immediately
// after this call already observes Planning.
func (m *Manager) RespondToClarification(answer string) error {
	m.mu.Lock()
	f := m.clarifyWait
	if f == nil || m.phase != orchtypes.ManagerClarifying {
		m.mu.Unlock()
		return noopErr("office", "RespondToClarification", m.phase)
	}
	m.clarifyWait = nil
	m.setPhaseLocked(orchtypes.ManagerPlanning, "ClarificationAnswered")
	m.mu.Unlock()

	f.Resolve(answer)
	return nil
}

// ApprovePlan releases a pending AwaitingApproval gate with approval (§4.7).
func (m *Manager) ApprovePlan() error {
	m.mu.Lock()
	f := m.approveWait
	if f == nil || m.phase != orchtypes.ManagerAwaitingApproval {
		m.mu.Unlock()
		return noopErr("office", "ApprovePlan", m.phase)
	}
	m.approveWait = nil
	m.mu.Unlock()

	f.Resolve(true, "")
	return nil
}

// RejectPlan releases a pending AwaitingApproval gate with rejection and
// optional feedback, which re-runs plan generation (§4.7).
func (m *Manager) RejectPlan(feedback string) error {
	m.mu.Lock()
	f := m.approveWait
	if f == nil || m.phase != orchtypes.ManagerAwaitingApproval {
		m.mu.Unlock()
		return noopErr("office", "RejectPlan", m.phase)
	}
	m.approveWait = nil
	m.mu.Unlock()

	f.Resolve(false, feedback)
	return nil
}

// Pause drains the pause gate; the loop blocks at the top of its next
// iteration boundary (§4.7).
func (m *Manager) Pause() error {
	m.mu.Lock()
	if m.phase == orchtypes.ManagerIdle || m.phase == orchtypes.ManagerStopped {
		m.mu.Unlock()
		return noopErr("office", "Pause", m.phase)
	}
	m.pauseGate.Pause()
	m.setPhaseLocked(orchtypes.ManagerPaused, "Pause")
	m.mu.Unlock()
	return nil
}

// Resume releases the pause gate. The loop itself sets the next concrete
// phase once it wakes (§4.7).
func (m *Manager) Resume() error {
	m.mu.Lock()
	if m.phase != orchtypes.ManagerPaused {
		m.mu.Unlock()
		return noopErr("office", "Resume", m.phase)
	}
	m.mu.Unlock()
	m.pauseGate.Resume()
	return nil
}

// Stop cancels the run, releases every gate so the loop can observe
// cancellation, awaits loop completion, terminates the manager session, and
// transitions to Stopped (§4.7).
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	if m.phase == orchtypes.ManagerIdle || m.phase == orchtypes.ManagerStopped {
		m.mu.Unlock()
		return noopErr("office", "Stop", m.phase)
	}
	cancel := m.cancel
	loopDone := m.loopDone
	sessionID := m.sessionID
	if m.clarifyWait != nil {
		m.clarifyWait.Resolve("")
	}
	if m.approveWait != nil {
		m.approveWait.Resolve(false, "")
	}
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.scheduler.CancelRest()
	m.pauseGate.Resume()

	if loopDone != nil {
		<-loopDone
	}

	if sessionID != "" {
		if err := m.client.TerminateSession(context.Background(), sessionID); err != nil {
			m.logger.Warn("manager session termination failed", "session_id", sessionID, "error", err)
		}
	}

	m.mu.Lock()
	m.setPhaseLocked(orchtypes.ManagerStopped, "Stop")
	m.mu.Unlock()
	return nil
}

// Reset performs a Stop (if running) then returns to Idle with cleared
// context and an empty log (§4.7).
func (m *Manager) Reset(ctx context.Context) error {
	if m.Phase() != orchtypes.ManagerIdle {
		if err := m.Stop(ctx); err != nil && !orchtypes.IsFsmNoop(err) {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.phase = orchtypes.ManagerIdle
	m.sessionID = ""
	m.iteration = 0
	m.plan = ""
	m.reports = nil
	m.instrs = nil
	m.log.Clear()
	return nil
}

// run drives the plan/approval pipeline then the main iteration loop. It runs
// on its own goroutine for the lifetime of one Start call.
func (m *Manager) run(ctx context.Context) {
	defer close(m.loopDone)

	plan, err := m.generatePlanLoop(ctx, "")
	if err != nil {
		m.finishOnError(err)
		return
	}
	m.mu.Lock()
	m.plan = plan
	requireApproval := m.config.RequirePlanApproval
	m.mu.Unlock()

	for requireApproval {
		m.mu.Lock()
		m.setPhaseLocked(orchtypes.ManagerAwaitingApproval, "PlanReady")
		f := newApprovalFuture()
		m.approveWait = f
		m.mu.Unlock()

		approved, feedback, err := f.Wait(ctx)
		if err != nil {
			m.finishOnError(err)
			return
		}
		if approved {
			break
		}

		m.mu.Lock()
		m.setPhaseLocked(orchtypes.ManagerPlanning, "RejectPlan")
		m.mu.Unlock()

		plan, err = m.generatePlanLoop(ctx, feedback)
		if err != nil {
			m.finishOnError(err)
			return
		}
		m.mu.Lock()
		m.plan = plan
		m.mu.Unlock()
	}

	m.mu.Lock()
	m.setPhaseLocked(orchtypes.ManagerFetchingEvents, "ApprovePlan")
	m.mu.Unlock()

	m.iterationLoop(ctx)
}

// finishOnError transitions to Error unless the run simply observed an
// external stop/cancel, in which case Stop already owns the phase transition.
func (m *Manager) finishOnError(err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	m.mu.Lock()
	m.setPhaseLocked(orchtypes.ManagerError, "Error")
	m.mu.Unlock()
	m.logger.Error("office run failed", "error", err)
}

// generatePlanLoop calls generatePlan, routing through Clarifying whenever
// the response carries the clarification marker, until a non-clarifying plan
// is produced or ctx ends (§4.7 "Planning → Clarifying → Planning").
func (m *Manager) generatePlanLoop(ctx context.Context, feedback string) (string, error) {
	prompt := buildPlanPrompt(m.config, feedback)
	for {
		_, resp, err := m.client.SendBlocking(ctx, m.sessionID, prompt)
		if err != nil {
			return "", err
		}

		question, needsClarification := llmproto.IsClarificationRequest(resp)
		if !needsClarification {
			return resp, nil
		}

		m.mu.Lock()
		m.setPhaseLocked(orchtypes.ManagerClarifying, "ClarificationNeeded")
		f := newClarificationFuture()
		m.clarifyWait = f
		m.mu.Unlock()

		m.postChatMessage(0, "assistant", question)

		answer, err := f.Wait(ctx)
		if err != nil {
			return "", err
		}
		prompt = buildPlanPrompt(m.config, answer)
	}
}

// iterationLoop is the main cyclic loop from §4.7.
func (m *Manager) iterationLoop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := m.pauseGate.Wait(ctx); err != nil {
			return
		}

		m.mu.Lock()
		m.iteration++
		iterationNum := m.iteration
		m.setPhaseLocked(orchtypes.ManagerFetchingEvents, "Iterate")
		m.mu.Unlock()

		instructions := m.drainInstructions()
		report := orchtypes.IterationReport{
			IterationNumber:      iterationNum,
			InstructionsAbsorbed: instructions,
			StartedAt:            time.Now().UTC(),
		}

		tasks, err := m.fetchEventsAndCreateTasks(ctx, instructions, iterationNum)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.logger.Error("fetchEventsAndCreateTasks failed", "iteration", iterationNum, "error", err)
		}

		if len(tasks) == 0 {
			m.publish(m.event(EventNoTasks, NoTasksPayload{IterationNum: iterationNum}))
			m.postChatMessage(iterationNum, "system", "No tasks")
		} else {
			m.mu.Lock()
			m.setPhaseLocked(orchtypes.ManagerScheduling, "TasksCreated")
			m.mu.Unlock()
			m.postChatMessage(iterationNum, "system", fmt.Sprintf("Dispatching %d tasks", len(tasks)))

			m.mu.Lock()
			m.setPhaseLocked(orchtypes.ManagerExecuting, "Dispatch")
			m.mu.Unlock()

			poolConfig := pool.Config{
				MaxAssistants:        m.config.MaxAssistants,
				AssistantTimeoutSecs: m.config.AssistantTimeoutSecs,
				AssistantModel:       m.config.AssistantModel,
				MCPIdentifiers:       m.config.MCPIdentifiers,
				SkillIdentifiers:     m.config.SkillIdentifiers,
			}
			results := m.pool.ExecuteTasks(ctx, tasks, poolConfig)

			m.mu.Lock()
			m.setPhaseLocked(orchtypes.ManagerAggregating, "ResultsReady")
			m.mu.Unlock()

			summary := m.aggregate(ctx, results)
			report.Results = results
			for _, r := range results {
				switch {
				case r.Success:
					report.Succeeded++
				case r.ErrorMessage == "Task was cancelled":
					report.Cancelled++
				default:
					report.Failed++
				}
			}
			report.Dispatched = len(results)
			report.Summary = summary
			m.postChatMessage(iterationNum, "assistant", summary)
		}

		report.CompletedAt = time.Now().UTC()
		m.mu.Lock()
		m.reports = append(m.reports, report)
		m.setPhaseLocked(orchtypes.ManagerResting, "IterationComplete")
		m.mu.Unlock()

		m.scheduler.WaitForNextRest(ctx, m.config.RestScheduleCron, m.config.CheckIntervalMinutes)
		if ctx.Err() != nil {
			return
		}
	}
}

// fetchEventsAndCreateTasks asks the manager session to turn pending events
// plus injected instructions into a task list, falling back to two generic
// tasks derived from the objective on any parse failure (§4.7 "Tasks").
func (m *Manager) fetchEventsAndCreateTasks(ctx context.Context, instructions []string, iterationNum int) ([]orchtypes.AssistantTask, error) {
	prompt := buildTaskPrompt(m.config, instructions)
	_, resp, err := m.client.SendBlocking(ctx, m.sessionID, prompt)
	if err != nil {
		return nil, err
	}

	specs, parseErr := llmproto.ParseTasks(resp)
	if parseErr != nil || len(specs) == 0 {
		specs = fallbackTaskSpecs(m.config.Objective)
	}

	now := time.Now().UTC()
	tasks := make([]orchtypes.AssistantTask, len(specs))
	for i, spec := range specs {
		tasks[i] = orchtypes.AssistantTask{
			ID:              orchtypes.NewTaskID(),
			IterationNumber: iterationNum,
			Title:           spec.Title,
			Prompt:          spec.Prompt,
			Priority:        spec.Priority,
			Status:          orchtypes.TaskQueued,
			QueuedAt:        now,
		}
	}
	return tasks, nil
}

// aggregate asks the manager session to summarize results in prose, falling
// back to one status line per task on parse/transport failure (§4.7
// "Aggregation").
func (m *Manager) aggregate(ctx context.Context, results []orchtypes.AssistantResult) string {
	prompt := buildAggregationPrompt(results)
	_, resp, err := m.client.SendBlocking(ctx, m.sessionID, prompt)
	if err != nil || strings.TrimSpace(resp) == "" {
		return fallbackAggregation(results)
	}
	return resp
}

func (m *Manager) postChatMessage(iterationNum int, role, content string) {
	m.publish(m.event(EventChatMessage, ChatMessagePayload{IterationNum: iterationNum, Role: role, Content: content}))
}

// setPhaseLocked transitions phase and emits PhaseChanged. Caller must hold m.mu.
func (m *Manager) setPhaseLocked(next orchtypes.ManagerPhase, trigger string) {
	prev := m.phase
	m.phase = next
	m.publish(m.event(EventPhaseChanged, orchtypes.PhaseChangedPayload{
		Previous: string(prev),
		New:      string(next),
		Trigger:  trigger,
	}))
}

func (m *Manager) event(eventType string, payload any) orchtypes.Event {
	return orchtypes.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    orchtypes.SourceOffice,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// publish appends e to the durable log and fans it out on the bus.
func (m *Manager) publish(e orchtypes.Event) {
	m.log.Append(e)
	m.bus.Emit(e)
}

func buildPlanPrompt(config orchtypes.OfficeConfig, feedback string) string {
	prompt := fmt.Sprintf("Objective: %s\nWorkspace: %s\nProduce a plan.", config.Objective, config.WorkspacePath)
	if feedback != "" {
		prompt += "\n\nFeedback on the previous plan: " + feedback
	}
	return prompt
}

func buildTaskPrompt(config orchtypes.OfficeConfig, instructions []string) string {
	prompt := "Fetch pending events and produce a JSON task array: [{\"title\":...,\"prompt\":...,\"priority\":...}]."
	for _, instr := range instructions {
		prompt += "\nInjected instruction: " + instr
	}
	return prompt
}

func buildAggregationPrompt(results []orchtypes.AssistantResult) string {
	prompt := "Summarize the following task results for the user:\n"
	for _, r := range results {
		status := "failed"
		if r.Success {
			status = "succeeded"
		}
		prompt += fmt.Sprintf("- %s: %s (%s)\n", r.TaskID, status, r.Content)
	}
	return prompt
}

func fallbackAggregation(results []orchtypes.AssistantResult) string {
	var b strings.Builder
	for _, r := range results {
		if r.Success {
			fmt.Fprintf(&b, "%s: succeeded\n", r.TaskID)
		} else {
			fmt.Fprintf(&b, "%s: failed (%s)\n", r.TaskID, r.ErrorMessage)
		}
	}
	return b.String()
}

func fallbackTaskSpecs(objective string) []llmproto.TaskSpec {
	return []llmproto.TaskSpec{
		{Title: "Investigate objective", Prompt: "Investigate progress toward: " + objective, Priority: 0},
		{Title: "Report status", Prompt: "Report current status toward: " + objective, Priority: 1},
	}
}

// noopErr builds the FsmTransitionError OrchError for a command issued in the
// wrong phase, which callers are expected to treat as a no-op (§7).
func noopErr(component, trigger string, phase orchtypes.ManagerPhase) error {
	return orchtypes.NewOrchError(orchtypes.CategoryFsmTransition, component,
		fmt.Sprintf("%s has no transition for %q in phase %q", component, trigger, phase),
		orchtypes.ErrFsmNoTransition)
}
