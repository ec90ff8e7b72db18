package orchtypes

import "time"

// AgentRole names the role a PanelMessage author plays (§3).
type AgentRole string

const (
	RoleHead      AgentRole = "Head"
	RoleModerator AgentRole = "Moderator"
	RolePanelist  AgentRole = "Panelist"
)

// PanelMessageType classifies a PanelMessage's purpose in the transcript (§3).
type PanelMessageType string

const (
	MsgUserMessage       PanelMessageType = "UserMessage"
	MsgClarification     PanelMessageType = "Clarification"
	MsgTopicOfDiscussion PanelMessageType = "TopicOfDiscussion"
	MsgPanelistArgument  PanelMessageType = "PanelistArgument"
	MsgModerationNote    PanelMessageType = "ModerationNote"
	MsgSynthesis         PanelMessageType = "Synthesis"
)

// ToolCallRef is an opaque reference to a tool call made while composing a
// PanelMessage; the payload itself is out of scope (§3, §1).
type ToolCallRef struct {
	ToolCallID string `json:"toolCallId"`
	ToolName   string `json:"toolName"`
}

// PanelMessage is one entry in a Panel discussion transcript (§3).
type PanelMessage struct {
	SessionID     string           `json:"sessionId"`
	AuthorAgentID int              `json:"authorAgentId"` // 0 = user
	AuthorName    string           `json:"authorName"`
	AuthorRole    AgentRole        `json:"authorRole"`
	Content       string           `json:"content"`
	Type          PanelMessageType `json:"type"`
	InReplyTo     string           `json:"inReplyTo,omitempty"`
	ToolCalls     []ToolCallRef    `json:"toolCalls,omitempty"`
	Timestamp     time.Time        `json:"timestamp"`
}
