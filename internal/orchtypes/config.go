package orchtypes

import "time"

// DiscussionDepth selects a preset of maxTurns/convergenceThreshold for a Panel run.
type DiscussionDepth string

const (
	DepthAuto     DiscussionDepth = "Auto"
	DepthQuick    DiscussionDepth = "Quick"
	DepthStandard DiscussionDepth = "Standard"
	DepthDeep     DiscussionDepth = "Deep"
)

// ApprovalUIMode selects how the Tool Approval Broker resolves a request against
// a human (§4.2). Modal blocks, Inline auto-denies after a timeout, Both races a
// quick-action toast against an escalation to Modal.
type ApprovalUIMode string

const (
	UIModal  ApprovalUIMode = "Modal"
	UIInline ApprovalUIMode = "Inline"
	UIBoth   ApprovalUIMode = "Both"
)

// OfficeConfig is immutable once an Office run starts (§3).
type OfficeConfig struct {
	Objective             string        `json:"objective" yaml:"objective"`
	WorkspacePath         string        `json:"workspacePath" yaml:"workspace_path"`
	CheckIntervalMinutes  int           `json:"checkIntervalMinutes" yaml:"check_interval_minutes"`
	MaxAssistants         int           `json:"maxAssistants" yaml:"max_assistants"`
	RequirePlanApproval   bool          `json:"requirePlanApproval" yaml:"require_plan_approval"`
	ManagerModel          string        `json:"managerModel" yaml:"manager_model"`
	AssistantModel        string        `json:"assistantModel" yaml:"assistant_model"`
	AssistantTimeoutSecs  int           `json:"assistantTimeoutSeconds" yaml:"assistant_timeout_seconds"`
	MaxRetries            int           `json:"maxRetries" yaml:"max_retries"`
	MCPIdentifiers        []string      `json:"mcpIdentifiers,omitempty" yaml:"mcp_identifiers,omitempty"`
	SkillIdentifiers      []string      `json:"skillIdentifiers,omitempty" yaml:"skill_identifiers,omitempty"`
	// RestScheduleCron, if set, overrides CheckIntervalMinutes: the Resting phase
	// waits until the next cron-matching instant instead of a fixed interval.
	// See DESIGN.md for the robfig/cron wiring rationale.
	RestScheduleCron string `json:"restScheduleCron,omitempty" yaml:"rest_schedule_cron,omitempty"`
}

// Normalize clamps OfficeConfig fields to their documented minimums (§3).
func (c *OfficeConfig) Normalize() {
	if c.CheckIntervalMinutes < 1 {
		c.CheckIntervalMinutes = 1
	}
	if c.MaxAssistants < 1 {
		c.MaxAssistants = 1
	}
	if c.AssistantTimeoutSecs <= 0 {
		c.AssistantTimeoutSecs = 120
	}
}

// PanelSettings configures a Panel discussion (§3).
type PanelSettings struct {
	PrimaryModel            string          `json:"primaryModel" yaml:"primary_model"`
	PanelistModels          []string        `json:"panelistModels" yaml:"panelist_models"`
	MaxPanelists            int             `json:"maxPanelists" yaml:"max_panelists"`
	MaxTurns                int             `json:"maxTurns" yaml:"max_turns"`
	MaxTotalTokens           int             `json:"maxTotalTokens" yaml:"max_total_tokens"`
	MaxToolCalls             int             `json:"maxToolCalls" yaml:"max_tool_calls"`
	MaxDurationMinutes       int             `json:"maxDurationMinutes" yaml:"max_duration_minutes"`
	ConvergenceThreshold     int             `json:"convergenceThreshold" yaml:"convergence_threshold"`
	DiscussionDepthOverride  DiscussionDepth `json:"discussionDepthOverride,omitempty" yaml:"discussion_depth_override,omitempty"`
}

// Normalize clamps PanelSettings fields to their documented ranges (§3).
func (s *PanelSettings) Normalize() {
	if s.MaxPanelists < 2 {
		s.MaxPanelists = 2
	}
	if s.MaxPanelists > 8 {
		s.MaxPanelists = 8
	}
	if s.ConvergenceThreshold < 0 {
		s.ConvergenceThreshold = 0
	}
	if s.ConvergenceThreshold > 100 {
		s.ConvergenceThreshold = 100
	}
	if s.MaxTurns <= 0 {
		s.MaxTurns = 20
	}
}

// ApplyDepth adjusts MaxTurns/ConvergenceThreshold for a detected or overridden
// discussion depth (§4.8). Standard depth leaves the settings untouched.
func (s *PanelSettings) ApplyDepth(depth DiscussionDepth) {
	switch depth {
	case DepthQuick:
		if s.MaxTurns > 10 || s.MaxTurns == 0 {
			s.MaxTurns = 10
		}
		s.ConvergenceThreshold = 60
	case DepthDeep:
		if s.MaxTurns < 50 {
			s.MaxTurns = 50
		}
		s.ConvergenceThreshold = 90
	}
}

// MaxDiscussionDuration returns MaxDurationMinutes as a time.Duration, defaulting
// to 60 minutes per §4.11.
func (s *PanelSettings) MaxDiscussionDuration() time.Duration {
	if s.MaxDurationMinutes <= 0 {
		return 60 * time.Minute
	}
	return time.Duration(s.MaxDurationMinutes) * time.Minute
}
