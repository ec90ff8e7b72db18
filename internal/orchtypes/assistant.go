package orchtypes

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// TaskStatus is the lifecycle state of an AssistantTask. Completed and Failed
// are terminal: once set, nothing may overwrite them (§3 invariant).
type TaskStatus string

const (
	TaskQueued    TaskStatus = "Queued"
	TaskRunning   TaskStatus = "Running"
	TaskCompleted TaskStatus = "Completed"
	TaskFailed    TaskStatus = "Failed"
	TaskCancelled TaskStatus = "Cancelled"
)

// IsTerminal reports whether status can no longer change.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskCompleted || s == TaskFailed
}

// NewTaskID returns a stable 8-hex task id (§3).
func NewTaskID() string {
	var b [4]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

// AssistantTask is one unit of ephemeral work dispatched by the Office loop (§3).
type AssistantTask struct {
	ID              string     `json:"id"`
	IterationNumber int        `json:"iterationNumber"`
	Title           string     `json:"title"`
	Prompt          string     `json:"prompt"`
	Priority        int        `json:"priority"`
	Status          TaskStatus `json:"status"`
	AssistantIndex  *int       `json:"assistantIndex,omitempty"`
	QueuedAt        time.Time  `json:"queuedAt"`
	StartedAt       *time.Time `json:"startedAt,omitempty"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	ErrorMessage    string     `json:"errorMessage,omitempty"`
}

// SetStatus assigns status, refusing to overwrite a terminal status.
func (t *AssistantTask) SetStatus(s TaskStatus) {
	if t.Status.IsTerminal() {
		return
	}
	t.Status = s
}

// ToolExecution records one tool invocation observed by the Tool-Trace
// Collector during an assistant task (§3).
type ToolExecution struct {
	ToolName    string    `json:"toolName"`
	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt"`
	Success     bool      `json:"success"`
	Description string    `json:"description,omitempty"`
}

// Duration returns CompletedAt - StartedAt, or zero if not yet completed.
func (e ToolExecution) Duration() time.Duration {
	if e.CompletedAt.IsZero() || e.StartedAt.IsZero() {
		return 0
	}
	return e.CompletedAt.Sub(e.StartedAt)
}

// AssistantResult is the outcome of one AssistantTask (§3).
type AssistantResult struct {
	TaskID         string          `json:"taskId"`
	AssistantIndex int             `json:"assistantIndex"`
	Success        bool            `json:"success"`
	Content        string          `json:"content"`
	ToolExecutions []ToolExecution `json:"toolExecutions,omitempty"`
	Duration       time.Duration   `json:"duration"`
	CompletedAt    time.Time       `json:"completedAt"`
	ErrorMessage   string          `json:"errorMessage,omitempty"`
}

// MaxResultContentChars is the truncation limit for concise assistant results (§4.5g).
const MaxResultContentChars = 500

// TruncateContent truncates s to MaxResultContentChars, appending an ellipsis
// when truncated, as required by §4.5g.
func TruncateContent(s string) string {
	if len(s) <= MaxResultContentChars {
		return s
	}
	return s[:MaxResultContentChars] + "..."
}

// SchedulingDecision records why/how a task was dispatched, for the Event Log's
// scheduling filter (§4.4).
type SchedulingDecision struct {
	TaskID      string    `json:"taskId"`
	Priority    int       `json:"priority"`
	DispatchedAt time.Time `json:"dispatchedAt"`
	Note        string    `json:"note,omitempty"`
}

// IterationReport summarizes one Office iteration (§3).
type IterationReport struct {
	IterationNumber      int                   `json:"iterationNumber"`
	Dispatched           int                   `json:"dispatched"`
	Succeeded            int                   `json:"succeeded"`
	Failed               int                   `json:"failed"`
	Cancelled            int                   `json:"cancelled"`
	SchedulingDecisions  []SchedulingDecision  `json:"schedulingDecisions,omitempty"`
	Results              []AssistantResult     `json:"results,omitempty"`
	Summary              string                `json:"summary"`
	InstructionsAbsorbed []string              `json:"instructionsAbsorbed,omitempty"`
	StartedAt            time.Time             `json:"startedAt"`
	CompletedAt          time.Time             `json:"completedAt"`
}
