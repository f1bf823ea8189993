package events

import "github.com/soomtochukwu/Veritasor-Contracts-sub001/core/types"

// Event represents a structured state change emitted by an engine.
type Event interface {
	EventType() string
}

// Broadcastable is implemented by payloads that can render themselves as a
// flat attribute map for RPC and indexer consumers.
type Broadcastable interface {
	Event() *types.Event
}

// Emitter broadcasts events to downstream subscribers (e.g. RPC, indexers).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter is a helper that satisfies the Emitter interface while discarding
// all events. It is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// ToTypes converts an event into its broadcast form. Payloads that do not
// implement Broadcastable are rendered with their type only.
func ToTypes(evt Event) *types.Event {
	if evt == nil {
		return nil
	}
	if b, ok := evt.(Broadcastable); ok {
		if out := b.Event(); out != nil {
			return out
		}
	}
	return &types.Event{Type: evt.EventType(), Attributes: map[string]string{}}
}

// Buffer holds events until the surrounding transaction commits. Engines emit
// into the buffer; the host drains it after a successful commit and resets it
// on rollback.
type Buffer struct {
	pending []Event
}

// Emit implements the Emitter interface.
func (b *Buffer) Emit(evt Event) {
	if evt == nil {
		return
	}
	b.pending = append(b.pending, evt)
}

// Len reports the number of buffered events.
func (b *Buffer) Len() int { return len(b.pending) }

// Drain returns the buffered events and empties the buffer.
func (b *Buffer) Drain() []Event {
	out := b.pending
	b.pending = nil
	return out
}

// Reset discards buffered events.
func (b *Buffer) Reset() { b.pending = nil }

// Multi fans a single emission out to several emitters in order.
type Multi []Emitter

// Emit implements the Emitter interface.
func (m Multi) Emit(evt Event) {
	for _, emitter := range m {
		if emitter != nil {
			emitter.Emit(evt)
		}
	}
}
