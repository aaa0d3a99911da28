// Package events delivers domain events to every interested sink: live
// SSE clients and, when configured, a Kafka topic.
package events

// Emitter receives domain events. Emit must not block the caller.
type Emitter interface {
	Emit(event any)
}

// Fanout forwards each event to every emitter in order.
type Fanout []Emitter

// Emit implements Emitter.
func (f Fanout) Emit(event any) {
	for _, e := range f {
		e.Emit(event)
	}
}

// Noop discards events.
type Noop struct{}

// Emit implements Emitter.
func (Noop) Emit(any) {}
