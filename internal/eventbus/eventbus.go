// Package eventbus is a small typed pub/sub fan-out standing in for the
// external UI collaborator (§1 "the GUI ... treated as an event/command bus").
// It mirrors the teacher's agent.EventSink / ChanSink shape
// (internal/agent/event_sink.go): non-blocking Emit, one buffered channel per
// subscriber, never blocks the publisher on a slow subscriber.
package eventbus

import (
	"log/slog"
	"sync"

	"github.com/corerun/orchestrator/internal/orchtypes"
)

// Bus fans out Events to any number of subscribers. A bad or slow subscriber
// never blocks another, and never blocks the publisher (§7 "Errors inside
// event subscribers MUST be caught and logged; one bad subscriber MUST NOT
// break the loop").
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]chan orchtypes.Event
	nextID int
	logger *slog.Logger
}

// New creates an empty Bus.
func New(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		subs:   make(map[int]chan orchtypes.Event),
		logger: logger.With("component", "eventbus"),
	}
}

// Subscribe registers a new subscriber with the given buffer size and returns
// a receive-only channel plus an unsubscribe function.
func (b *Bus) Subscribe(buffer int) (<-chan orchtypes.Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan orchtypes.Event, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if existing, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(existing)
		}
	}
	return ch, unsubscribe
}

// Emit delivers e to every current subscriber, in the order Emit is called by
// the producer (§5 "Events are delivered to each subscriber in the order the
// producer emitted them"). A subscriber whose buffer is full is skipped with a
// warning rather than blocking Emit.
func (b *Bus) Emit(e orchtypes.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subs {
		select {
		case ch <- e:
		default:
			b.logger.Warn("dropping event for slow subscriber", "subscriber", id, "event_type", e.Type)
		}
	}
}

// Close unsubscribes and closes every subscriber channel.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
}
