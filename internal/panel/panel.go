// Package panel implements the Panel FSM + Orchestrator described in §4.8
// (C8): a multi-LLM discussion that clarifies a topic with a long-lived Head
// session, runs a moderated turn loop across N panelists, and synthesizes a
// Knowledge Brief. Grounded in the teacher's internal/tasks.Scheduler run-loop
// shape and internal/multiagent/orchestrator.go's event-callback pattern,
// generalized from single-agent delegation into a moderated multi-panelist
// discussion.
package panel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/corerun/orchestrator/internal/chatclient"
	"github.com/corerun/orchestrator/internal/eventbus"
	"github.com/corerun/orchestrator/internal/eventlog"
	"github.com/corerun/orchestrator/internal/llmproto"
	"github.com/corerun/orchestrator/internal/orchtypes"
	"github.com/corerun/orchestrator/internal/panel/brief"
	"github.com/corerun/orchestrator/internal/panel/moderator"
)

// Event types on the Panel's event taxonomy (§9 "Office and Panel keep
// disjoint event taxonomies").
const (
	EventPhaseChanged    = "PhaseChanged"
	EventAgentMessage     = "AgentMessage"
	EventAgentStatus      = "AgentStatus"
	EventConvergenceScore = "ConvergenceScore"
	EventKnowledgeBrief   = "KnowledgeBrief"
)

// AgentStatusPayload lets UIs stop "thinking" indicators on pause/resume/stop
// (§4.8 "Pause/Resume/Stop mirror the Office semantics...").
type AgentStatusPayload struct {
	AgentName string `json:"agentName"`
	Status    string `json:"status"` // "thinking" | "idle"
}

// ConvergenceScorePayload carries one heuristic convergence evaluation.
type ConvergenceScorePayload struct {
	Turn      int  `json:"turn"`
	Score     int  `json:"score"`
	Converged bool `json:"converged"`
}

// Manager runs the Panel FSM (§4.8).
type Manager struct {
	client chatclient.ChatClient
	bus    *eventbus.Bus
	log    *eventlog.Log
	logger *slog.Logger

	prohibited       []*moderator.RegexMatcher
	maxTokensPerTurn int

	mu                  sync.Mutex
	phase               orchtypes.PanelPhase
	config              orchtypes.PanelSettings
	headSessionID       string
	moderatorSessionID  string
	panelists           []Panelist
	messages            []orchtypes.PanelMessage
	turn                int
	topic               string
	depthSelected       bool
	cancel              context.CancelFunc
	loopDone            chan struct{}
	pauseGate           *pauseGate
	replyWait           *replyFuture
	approveWait         *approvalFuture
	brief               *orchtypes.KnowledgeBrief
	activeSessionID     string
}

// New creates a Manager. bus and log may be the same process-wide instances
// shared with the Office (each Event's Source disambiguates them).
func New(client chatclient.ChatClient, bus *eventbus.Bus, log *eventlog.Log, logger *slog.Logger, prohibited []*moderator.RegexMatcher, maxTokensPerTurn int) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		client:           client,
		bus:              bus,
		log:              log,
		logger:           logger.With("component", "panel-manager"),
		prohibited:       prohibited,
		maxTokensPerTurn: maxTokensPerTurn,
		phase:            orchtypes.PanelIdle,
		pauseGate:        newPauseGate(),
	}
}

// Phase returns the Manager's current phase. Satisfies zombie.Observed.
func (m *Manager) Phase() orchtypes.PanelPhase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// ActiveSessionID returns the session id backing the current phase's activity
// (head during Clarifying/Synthesizing, moderator during Running/Paused).
// Satisfies zombie.Observed.
func (m *Manager) ActiveSessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeSessionID
}

// Messages returns a snapshot of the discussion transcript.
func (m *Manager) Messages() []orchtypes.PanelMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]orchtypes.PanelMessage, len(m.messages))
	copy(out, m.messages)
	return out
}

// Brief returns the generated Knowledge Brief, if Synthesizing has completed.
func (m *Manager) Brief() (orchtypes.KnowledgeBrief, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.brief == nil {
		return orchtypes.KnowledgeBrief{}, false
	}
	return *m.brief, true
}

// Start transitions Idle→Clarifying, opening a long-lived Head session for
// prompt (§4.8). A Start call while not Idle is an FSM no-op (§7).
func (m *Manager) Start(prompt string, config orchtypes.PanelSettings) error {
	config.Normalize()

	m.mu.Lock()
	if m.phase != orchtypes.PanelIdle {
		m.mu.Unlock()
		return noopErr("panel", "Start", m.phase)
	}
	m.config = config
	m.headSessionID = "panel-head-" + uuid.NewString()
	m.loopDone = make(chan struct{})
	runCtx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.setPhaseLocked(orchtypes.PanelClarifying, "UserSubmitted")
	m.mu.Unlock()

	go m.run(runCtx, prompt)
	return nil
}

// SendUserMessage answers an open round of the Clarifying loop (§4.8).
func (m *Manager) SendUserMessage(text string) error {
	m.mu.Lock()
	f := m.replyWait
	if f == nil || m.phase != orchtypes.PanelClarifying {
		m.mu.Unlock()
		return noopErr("panel", "SendUserMessage", m.phase)
	}
	m.replyWait = nil
	m.mu.Unlock()

	f.Resolve(text)
	return nil
}

// ApproveAndStartPanel releases a pending AwaitingApproval gate with approval
// (§4.8).
func (m *Manager) ApproveAndStartPanel() error {
	m.mu.Lock()
	f := m.approveWait
	if f == nil || m.phase != orchtypes.PanelAwaitingApproval {
		m.mu.Unlock()
		return noopErr("panel", "UserApproved", m.phase)
	}
	m.approveWait = nil
	m.mu.Unlock()

	f.Resolve(true, "")
	return nil
}

// RejectPlan releases a pending AwaitingApproval gate with rejection and
// feedback, returning the discussion to Clarifying for another round (§4.8).
func (m *Manager) RejectPlan(feedback string) error {
	m.mu.Lock()
	f := m.approveWait
	if f == nil || m.phase != orchtypes.PanelAwaitingApproval {
		m.mu.Unlock()
		return noopErr("panel", "UserRejected", m.phase)
	}
	m.approveWait = nil
	m.mu.Unlock()

	f.Resolve(false, feedback)
	return nil
}

// Pause drains the pause gate and emits per-agent idle status (§4.8).
func (m *Manager) Pause() error {
	m.mu.Lock()
	if m.phase != orchtypes.PanelRunning {
		m.mu.Unlock()
		return noopErr("panel", "UserPaused", m.phase)
	}
	m.pauseGate.Pause()
	m.setPhaseLocked(orchtypes.PanelPaused, "UserPaused")
	panelists := append([]Panelist(nil), m.panelists...)
	m.mu.Unlock()

	for _, p := range panelists {
		m.publish(m.event(EventAgentStatus, AgentStatusPayload{AgentName: p.Name, Status: "idle"}))
	}
	return nil
}

// Resume releases the pause gate (§4.8).
func (m *Manager) Resume() error {
	m.mu.Lock()
	if m.phase != orchtypes.PanelPaused {
		m.mu.Unlock()
		return noopErr("panel", "UserResumed", m.phase)
	}
	m.mu.Unlock()
	m.pauseGate.Resume()
	return nil
}

// Stop cancels the run, releases every gate, awaits loop completion,
// terminates every session the Manager owns, and transitions to Stopped
// (§4.8).
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	if m.phase == orchtypes.PanelIdle || m.phase == orchtypes.PanelStopped || m.phase == orchtypes.PanelCompleted {
		m.mu.Unlock()
		return noopErr("panel", "UserStopped", m.phase)
	}
	cancel := m.cancel
	loopDone := m.loopDone
	if m.replyWait != nil {
		m.replyWait.Resolve("")
	}
	if m.approveWait != nil {
		m.approveWait.Resolve(false, "")
	}
	sessions := m.allSessionIDsLocked()
	panelists := append([]Panelist(nil), m.panelists...)
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.pauseGate.Resume()

	if loopDone != nil {
		<-loopDone
	}

	for _, p := range panelists {
		m.publish(m.event(EventAgentStatus, AgentStatusPayload{AgentName: p.Name, Status: "idle"}))
	}
	for _, sessionID := range sessions {
		if sessionID == "" {
			continue
		}
		if err := m.client.TerminateSession(context.Background(), sessionID); err != nil {
			m.logger.Warn("panel session termination failed", "session_id", sessionID, "error", err)
		}
	}

	m.mu.Lock()
	m.setPhaseLocked(orchtypes.PanelStopped, "UserStopped")
	m.mu.Unlock()
	return nil
}

func (m *Manager) allSessionIDsLocked() []string {
	sessions := []string{m.headSessionID, m.moderatorSessionID}
	for _, p := range m.panelists {
		sessions = append(sessions, p.SessionID)
	}
	return sessions
}

// Reset disposes every agent and session and returns the Manager to Idle
// (§4.8 "Reset disposes all agents and their sessions").
func (m *Manager) Reset(ctx context.Context) error {
	if m.Phase() != orchtypes.PanelIdle {
		if err := m.Stop(ctx); err != nil && !orchtypes.IsFsmNoop(err) {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.phase = orchtypes.PanelIdle
	m.headSessionID = ""
	m.moderatorSessionID = ""
	m.panelists = nil
	m.messages = nil
	m.turn = 0
	m.topic = ""
	m.depthSelected = false
	m.brief = nil
	m.activeSessionID = ""
	m.log.Clear()
	return nil
}

// run drives clarification, approval, panelist preparation, the turn loop,
// and synthesis. It runs on its own goroutine for the lifetime of one Start
// call.
func (m *Manager) run(ctx context.Context, prompt string) {
	defer close(m.loopDone)

	topic, err := m.clarifyLoop(ctx, prompt)
	if err != nil {
		m.finishOnError(err)
		return
	}
	m.mu.Lock()
	m.topic = topic
	m.mu.Unlock()

	for {
		m.mu.Lock()
		m.setPhaseLocked(orchtypes.PanelAwaitingApproval, "ClarificationsComplete")
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
		m.setPhaseLocked(orchtypes.PanelClarifying, "UserRejected")
		m.mu.Unlock()

		topic, err = m.clarifyLoop(ctx, "Feedback on the proposed topic: "+feedback)
		if err != nil {
			m.finishOnError(err)
			return
		}
		m.mu.Lock()
		m.topic = topic
		m.mu.Unlock()
	}

	m.mu.Lock()
	m.setPhaseLocked(orchtypes.PanelPreparing, "UserApproved")
	m.panelists = buildPanelists(m.config.MaxPanelists, m.config.PanelistModels, m.config.PrimaryModel, func(i int) string {
		return fmt.Sprintf("panel-panelist-%d-%s", i, uuid.NewString())
	})
	m.moderatorSessionID = "panel-moderator-" + uuid.NewString()
	m.mu.Unlock()

	m.setPhaseWithEvent(orchtypes.PanelRunning, "PanelistsReady")
	m.runTurnLoop(ctx)
	if ctx.Err() != nil {
		return
	}

	m.setPhaseWithEvent(orchtypes.PanelSynthesizing, "StartSynthesis")
	m.synthesize(ctx)
}

// clarifyLoop drives one round-trip pass of the Head clarification exchange:
// send prompt, and while the reply doesn't carry a CLEAR signal, emit the
// question, wait for the user's reply, and resend (§4.8 "Clarification").
func (m *Manager) clarifyLoop(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	if !m.depthSelected && m.config.DiscussionDepthOverride != "" {
		m.config.ApplyDepth(m.config.DiscussionDepthOverride)
		m.depthSelected = true
	}
	m.mu.Unlock()

	for {
		_, resp, err := m.client.SendBlocking(ctx, m.headSessionID, prompt)
		if err != nil {
			return "", err
		}

		if !m.depthSelected {
			if depth, ok := llmproto.ParseDiscussionDepth(resp); ok {
				m.mu.Lock()
				m.config.ApplyDepth(orchtypes.DiscussionDepth(depth))
				m.depthSelected = true
				m.mu.Unlock()
			}
		}

		if topic, ok := llmproto.IsClearSignal(resp); ok {
			return topic, nil
		}

		m.postAgentMessage(orchtypes.RoleHead, "head", resp, orchtypes.MsgClarification)

		m.mu.Lock()
		f := newReplyFuture()
		m.replyWait = f
		m.activeSessionID = m.headSessionID
		m.mu.Unlock()

		reply, err := f.Wait(ctx)
		if err != nil {
			return "", err
		}
		prompt = reply
	}
}

// finishOnError transitions to Failed unless the run simply observed an
// external stop/cancel.
func (m *Manager) finishOnError(err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	m.mu.Lock()
	m.setPhaseLocked(orchtypes.PanelFailed, "Error")
	m.mu.Unlock()
	m.logger.Error("panel run failed", "error", err)
}

// runTurnLoop is the main cyclic turn loop from §4.8 "Running loop".
func (m *Manager) runTurnLoop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := m.pauseGate.Wait(ctx); err != nil {
			return
		}

		m.mu.Lock()
		m.turn++
		turn := m.turn
		maxTurns := m.config.MaxTurns
		m.activeSessionID = m.moderatorSessionID
		m.mu.Unlock()

		decision := m.askModerator(ctx, turn)
		if decision.StopDiscussion {
			m.setPhaseWithEvent(orchtypes.PanelConverging, "ConvergenceDetected")
			return
		}

		forceConverge := m.runOneTurn(ctx, decision)
		if ctx.Err() != nil {
			return
		}
		if forceConverge {
			m.setPhaseWithEvent(orchtypes.PanelConverging, "ConvergenceDetected")
			return
		}

		if moderator.ShouldEvaluate(turn, maxTurns) {
			m.mu.Lock()
			messages := append([]orchtypes.PanelMessage(nil), m.messages...)
			names := panelistNames(m.panelists)
			threshold := m.config.ConvergenceThreshold
			m.mu.Unlock()

			converged, score := moderator.Detect(messages, names, turn, maxTurns, threshold)
			m.publish(m.event(EventConvergenceScore, ConvergenceScorePayload{Turn: turn, Score: score, Converged: converged}))
			if converged {
				m.setPhaseWithEvent(orchtypes.PanelConverging, "ConvergenceDetected")
				return
			}
		}
	}
}

// askModerator asks the Moderator for this turn's decision, falling back on
// any parse/transport failure to "continue with all panelists" (§4.8 step 3,
// §4.9).
func (m *Manager) askModerator(ctx context.Context, turn int) orchtypes.ModeratorDecision {
	m.mu.Lock()
	prompt := buildModeratorPrompt(m.topic, m.messages, turn, m.config.MaxTurns)
	m.mu.Unlock()

	_, resp, err := m.client.SendBlocking(ctx, m.moderatorSessionID, prompt)
	if err != nil {
		return orchtypes.FallbackModeratorDecision()
	}
	return moderator.ParseDecision(resp)
}

// runOneTurn selects speakers per the Moderator's decision, collects their
// messages (preserving list order even for a concurrent parallel group),
// appends and validates each in order, and reports whether validation forced
// convergence (§4.8 steps 5-6).
func (m *Manager) runOneTurn(ctx context.Context, decision orchtypes.ModeratorDecision) bool {
	m.mu.Lock()
	panelists := append([]Panelist(nil), m.panelists...)
	topic := m.topic
	transcript := append([]orchtypes.PanelMessage(nil), m.messages...)
	m.mu.Unlock()

	speakers := selectSpeakers(panelists, decision)

	contents := make([]string, len(speakers))
	if decision.AllowParallelThinking && len(decision.ParallelGroup) >= 2 && allResolve(panelists, decision.ParallelGroup) {
		g, gctx := errgroup.WithContext(ctx)
		for i, speaker := range speakers {
			i, speaker := i, speaker
			g.Go(func() error {
				resp, err := m.askPanelist(gctx, speaker, topic, transcript, decision.RedirectMessage)
				if err != nil {
					return err
				}
				contents[i] = resp
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			m.logger.Error("parallel panelist turn failed", "error", err)
			return false
		}
	} else {
		for i, speaker := range speakers {
			resp, err := m.askPanelist(ctx, speaker, topic, transcript, decision.RedirectMessage)
			if err != nil {
				m.logger.Error("panelist turn failed", "panelist", speaker.Name, "error", err)
				continue
			}
			contents[i] = resp
		}
	}

	for i, speaker := range speakers {
		if ctx.Err() != nil {
			return false
		}
		content := contents[i]
		if content == "" {
			continue
		}

		verdict := moderator.Validate(content, m.prohibited, m.maxTokensPerTurn)
		switch verdict {
		case orchtypes.ValidationBlocked:
			m.publish(m.event(EventAgentStatus, AgentStatusPayload{AgentName: speaker.Name, Status: "idle"}))
			continue
		case orchtypes.ValidationForceConverge:
			m.postAgentMessage(orchtypes.RolePanelist, speaker.Name, content, orchtypes.MsgPanelistArgument)
			return true
		default:
			m.postAgentMessage(orchtypes.RolePanelist, speaker.Name, content, orchtypes.MsgPanelistArgument)
		}
	}
	return false
}

func (m *Manager) askPanelist(ctx context.Context, speaker Panelist, topic string, transcript []orchtypes.PanelMessage, redirect string) (string, error) {
	prompt := buildPanelistPrompt(speaker, topic, transcript, redirect)
	_, resp, err := m.client.SendBlocking(ctx, speaker.SessionID, prompt)
	if err != nil {
		return "", err
	}
	return resp, nil
}

// selectSpeakers resolves the Moderator's decision into an ordered speaker
// list (§4.8 step 5): a resolved parallel group (in its listed order), a
// single resolved next speaker, or every panelist in round-robin order.
func selectSpeakers(panelists []Panelist, decision orchtypes.ModeratorDecision) []Panelist {
	if decision.AllowParallelThinking && len(decision.ParallelGroup) >= 2 && allResolve(panelists, decision.ParallelGroup) {
		speakers := make([]Panelist, 0, len(decision.ParallelGroup))
		for _, name := range decision.ParallelGroup {
			if p, ok := panelistByName(panelists, name); ok {
				speakers = append(speakers, p)
			}
		}
		return speakers
	}
	if decision.NextSpeaker != "" {
		if p, ok := panelistByName(panelists, decision.NextSpeaker); ok {
			return []Panelist{p}
		}
	}
	return panelists
}

func allResolve(panelists []Panelist, names []string) bool {
	for _, name := range names {
		if _, ok := panelistByName(panelists, name); !ok {
			return false
		}
	}
	return true
}

// synthesize compresses the transcript, asks the Head for a structured
// Markdown report, and on success generates the Knowledge Brief before
// transitioning to Completed (§4.8 "Synthesizing", §4.10).
func (m *Manager) synthesize(ctx context.Context) {
	m.mu.Lock()
	compressed := compressTranscript(m.messages)
	m.activeSessionID = m.headSessionID
	m.mu.Unlock()

	prompt := buildSynthesisPrompt(compressed)
	_, resp, err := m.client.SendBlocking(ctx, m.headSessionID, prompt)
	if err != nil {
		m.finishOnError(err)
		return
	}

	m.postAgentMessage(orchtypes.RoleHead, "head", resp, orchtypes.MsgSynthesis)

	oneLiners := panelistOneLiners(compressed)
	generated := brief.Generate(ctx, m.client, resp, oneLiners)

	m.mu.Lock()
	m.brief = &generated
	m.setPhaseLocked(orchtypes.PanelCompleted, "SynthesisComplete")
	m.mu.Unlock()

	m.publish(m.event(EventKnowledgeBrief, generated))
}

func panelistOneLiners(messages []orchtypes.PanelMessage) []string {
	var lines []string
	for _, m := range messages {
		if m.AuthorRole != orchtypes.RolePanelist {
			continue
		}
		line := m.Content
		if len(line) > 120 {
			line = line[:120] + "..."
		}
		lines = append(lines, fmt.Sprintf("%s: %s", m.AuthorName, line))
	}
	return lines
}

func (m *Manager) postAgentMessage(role orchtypes.AgentRole, authorName, content string, msgType orchtypes.PanelMessageType) {
	msg := orchtypes.PanelMessage{
		SessionID:  m.sessionIDFor(role, authorName),
		AuthorName: authorName,
		AuthorRole: role,
		Content:    content,
		Type:       msgType,
		Timestamp:  time.Now().UTC(),
	}
	m.mu.Lock()
	m.messages = append(m.messages, msg)
	m.mu.Unlock()
	m.publish(m.event(EventAgentMessage, msg))
}

func (m *Manager) sessionIDFor(role orchtypes.AgentRole, authorName string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch role {
	case orchtypes.RoleHead:
		return m.headSessionID
	case orchtypes.RoleModerator:
		return m.moderatorSessionID
	default:
		if p, ok := panelistByName(m.panelists, authorName); ok {
			return p.SessionID
		}
		return ""
	}
}

// setPhaseWithEvent acquires the lock, transitions phase, and publishes
// PhaseChanged. Convenience wrapper for call sites outside a held lock.
func (m *Manager) setPhaseWithEvent(next orchtypes.PanelPhase, trigger string) {
	m.mu.Lock()
	m.setPhaseLocked(next, trigger)
	m.mu.Unlock()
}

// setPhaseLocked transitions phase and emits PhaseChanged. Caller must hold m.mu.
func (m *Manager) setPhaseLocked(next orchtypes.PanelPhase, trigger string) {
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
		Source:    orchtypes.SourcePanel,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// publish appends e to the durable log and fans it out on the bus.
func (m *Manager) publish(e orchtypes.Event) {
	m.log.Append(e)
	m.bus.Emit(e)
}

func buildModeratorPrompt(topic string, messages []orchtypes.PanelMessage, turn, maxTurns int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\nTurn %d of %d.\n", topic, turn, maxTurns)
	b.WriteString("Decide the next step as a JSON object {\"nextSpeaker\":...,\"convergenceScore\":...,\"stopDiscussion\":...,\"allowParallelThinking\":...,\"parallelGroup\":[...]}.\n")
	for _, m := range messages {
		fmt.Fprintf(&b, "[%s] %s: %s\n", m.Type, m.AuthorName, m.Content)
	}
	return b.String()
}

func buildPanelistPrompt(speaker Panelist, topic string, transcript []orchtypes.PanelMessage, redirect string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s. Topic: %s\n", speaker.Name, topic)
	if redirect != "" {
		b.WriteString("Moderator redirect: " + redirect + "\n")
	}
	b.WriteString("Transcript so far:\n")
	for _, m := range transcript {
		fmt.Fprintf(&b, "%s: %s\n", m.AuthorName, m.Content)
	}
	b.WriteString("Respond with your contribution to the discussion.")
	return b.String()
}

func buildSynthesisPrompt(compressed []orchtypes.PanelMessage) string {
	var b strings.Builder
	b.WriteString("Synthesize the following discussion into a structured Markdown report:\n\n")
	for _, m := range compressed {
		fmt.Fprintf(&b, "%s (%s): %s\n", m.AuthorName, m.Type, m.Content)
	}
	return b.String()
}

// noopErr builds the FsmTransitionError OrchError for a command issued in the
// wrong phase, which callers are expected to treat as a no-op (§7).
func noopErr(component, trigger string, phase orchtypes.PanelPhase) error {
	return orchtypes.NewOrchError(orchtypes.CategoryFsmTransition, component,
		fmt.Sprintf("%s has no transition for %q in phase %q", component, trigger, phase),
		orchtypes.ErrFsmNoTransition)
}
