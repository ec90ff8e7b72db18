// Package orchtypes holds the value types shared by the Office and Panel
// orchestrators: phases, events, ids, configuration, and scoring. Nothing in
// this package depends on the orchestrators themselves.
package orchtypes

// ManagerPhase is a state of the Office Manager FSM (C7).
type ManagerPhase string

const (
	ManagerIdle             ManagerPhase = "Idle"
	ManagerClarifying       ManagerPhase = "Clarifying"
	ManagerPlanning         ManagerPhase = "Planning"
	ManagerAwaitingApproval ManagerPhase = "AwaitingApproval"
	ManagerFetchingEvents   ManagerPhase = "FetchingEvents"
	ManagerScheduling       ManagerPhase = "Scheduling"
	ManagerExecuting        ManagerPhase = "Executing"
	ManagerAggregating      ManagerPhase = "Aggregating"
	ManagerResting          ManagerPhase = "Resting"
	ManagerPaused           ManagerPhase = "Paused"
	ManagerStopped          ManagerPhase = "Stopped"
	ManagerError            ManagerPhase = "Error"
)

// PanelPhase is a state of the Panel FSM (C8).
type PanelPhase string

const (
	PanelIdle             PanelPhase = "Idle"
	PanelClarifying       PanelPhase = "Clarifying"
	PanelAwaitingApproval PanelPhase = "AwaitingApproval"
	PanelPreparing        PanelPhase = "Preparing"
	PanelRunning          PanelPhase = "Running"
	PanelPaused           PanelPhase = "Paused"
	PanelConverging       PanelPhase = "Converging"
	PanelSynthesizing     PanelPhase = "Synthesizing"
	PanelCompleted        PanelPhase = "Completed"
	PanelStopped          PanelPhase = "Stopped"
	PanelFailed           PanelPhase = "Failed"
)

// PanelTrigger names a Panel FSM transition trigger, used for FsmTransitionError
// messages and for illegal-transition detection.
type PanelTrigger string

const (
	TriggerUserSubmitted         PanelTrigger = "UserSubmitted"
	TriggerClarificationsComplete PanelTrigger = "ClarificationsComplete"
	TriggerUserApproved          PanelTrigger = "UserApproved"
	TriggerUserRejected          PanelTrigger = "UserRejected"
	TriggerPanelistsReady        PanelTrigger = "PanelistsReady"
	TriggerUserPaused            PanelTrigger = "UserPaused"
	TriggerUserResumed           PanelTrigger = "UserResumed"
	TriggerConvergenceDetected   PanelTrigger = "ConvergenceDetected"
	TriggerStartSynthesis        PanelTrigger = "StartSynthesis"
	TriggerSynthesisComplete     PanelTrigger = "SynthesisComplete"
	TriggerUserStopped           PanelTrigger = "UserStopped"
	TriggerReset                 PanelTrigger = "Reset"
	TriggerError                 PanelTrigger = "Error"
)
