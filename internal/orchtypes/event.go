package orchtypes

import "time"

// EventSource distinguishes the Office and Panel event taxonomies, which the
// spec requires to stay disjoint rather than merged into one union (§9 Open
// Questions).
type EventSource string

const (
	SourceOffice EventSource = "Office"
	SourcePanel  EventSource = "Panel"
)

// Event is the common immutable, UTC-timestamped envelope emitted to
// subscribers (§6 "Event stream out"). Payload is one of the *Event or
// *Payload structs defined by the office/panel packages; orchtypes only
// defines the envelope and the few payload shapes shared by both taxonomies.
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    EventSource `json:"source"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   any         `json:"payload,omitempty"`
}

// PhaseChangedPayload is carried by every FSM transition event (§4.7, §4.8, §8 property 1).
type PhaseChangedPayload struct {
	Previous string `json:"previous"`
	New      string `json:"new"`
	Trigger  string `json:"trigger,omitempty"`
}
