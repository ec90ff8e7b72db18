// Package eventlog is the thread-safe, append-only event store described in
// §4.4 (C4). It never blocks readers on writers for longer than a single
// slice copy, and readers always see a consistent snapshot.
package eventlog

import (
	"sync"

	"github.com/corerun/orchestrator/internal/orchtypes"
)

// Log is an append-only, mutex-guarded event store.
type Log struct {
	mu     sync.RWMutex
	events []orchtypes.Event
}

// New returns an empty Log.
func New() *Log {
	return &Log{}
}

// Append adds e to the log. Safe for concurrent use.
func (l *Log) Append(e orchtypes.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

// GetAll returns a snapshot copy of every logged event, in append order.
func (l *Log) GetAll() []orchtypes.Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]orchtypes.Event, len(l.events))
	copy(out, l.events)
	return out
}

// iterationPayload is implemented by event payloads that carry an iteration
// number, so GetByIteration can filter without knowing every concrete payload
// type defined by the office package.
type iterationPayload interface {
	IterationNumber() int
}

// GetByIteration returns every event whose payload reports the given
// iteration number via the iterationPayload interface.
func (l *Log) GetByIteration(n int) []orchtypes.Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []orchtypes.Event
	for _, e := range l.events {
		if p, ok := e.Payload.(iterationPayload); ok && p.IterationNumber() == n {
			out = append(out, e)
		}
	}
	return out
}

// GetByType returns every event whose Type equals t.
func (l *Log) GetByType(t string) []orchtypes.Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []orchtypes.Event
	for _, e := range l.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// SchedulingEventType is the event Type used for scheduling-decision events,
// shared between Office publishing and this log's filter helper.
const SchedulingEventType = "SchedulingDispatched"

// GetSchedulingLog returns every scheduling-decision event (§4.4).
func (l *Log) GetSchedulingLog() []orchtypes.Event {
	return l.GetByType(SchedulingEventType)
}

// Clear empties the log.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = nil
}

// Len returns the number of events currently logged.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}
