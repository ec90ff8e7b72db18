package orchtypes

import (
	"encoding/json"
	"time"
)

// RiskLevel mirrors the four-level risk taxonomy the teacher's tool-policy
// package uses for trust decisions (internal/tools/policy/approval.go in the
// reference runtime). It is carried on each request; the Broker picks its UI
// resolver from ApprovalUIMode alone and does not read RiskLevel.
type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskMedium   RiskLevel = "Medium"
	RiskHigh     RiskLevel = "High"
	RiskCritical RiskLevel = "Critical"
)

// ApprovalScope controls how long a ToolApprovalResponse's decision is cached (§3).
type ApprovalScope string

const (
	ScopeOnce    ApprovalScope = "Once"
	ScopeSession ApprovalScope = "Session"
	ScopeGlobal  ApprovalScope = "Global"
)

// ToolApprovalRequest is one pending ask for human sign-off on a tool call (§3).
type ToolApprovalRequest struct {
	ID               string          `json:"id"`
	ToolName         string          `json:"toolName"`
	ToolArgs         json.RawMessage `json:"toolArgs,omitempty"`
	WorkingDirectory string          `json:"workingDirectory,omitempty"`
	RiskLevel        RiskLevel       `json:"riskLevel"`
	Description      string          `json:"description,omitempty"`
	SessionID        string          `json:"sessionId,omitempty"`
	Timestamp        time.Time       `json:"timestamp"`
	// Autonomous bypasses every resolution step with {approved:true, scope:Once}
	// and must never touch the rule cache (§4.2 "Autonomous-mode bypass").
	Autonomous bool `json:"-"`
}

// ToolApprovalResponse is the human (or cached-rule) decision for a request (§3).
type ToolApprovalResponse struct {
	Approved         bool          `json:"approved"`
	Scope            ApprovalScope `json:"scope"`
	RememberDecision bool          `json:"rememberDecision"`
	Reason           string        `json:"reason,omitempty"`
}

// RuleDecision is the cached verdict for a (toolName, scope, sessionId) key (§3).
type RuleDecision string

const (
	RuleAllow RuleDecision = "Allow"
	RuleDeny  RuleDecision = "Deny"
)

// RuleKey identifies one entry in the approval rule cache (§3). Once is never
// stored; only Session and Global keys are ever looked up with a non-empty
// SessionID/empty SessionID respectively.
type RuleKey struct {
	ToolName  string
	Scope     ApprovalScope
	SessionID string
}
