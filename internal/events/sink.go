package events

// Sink receives debate events as they are emitted. Implementations must
// not block: the engine emits from the step path and a slow sink would
// stall the debate.
type Sink interface {
	Emit(event Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(event Event)

// Emit implements Sink.
func (f SinkFunc) Emit(event Event) {
	f(event)
}

// NullSink discards all events.
type NullSink struct{}

// Emit implements Sink.
func (NullSink) Emit(Event) {}

// MultiSink fans one event out to several sinks in order.
type MultiSink []Sink

// Emit implements Sink.
func (m MultiSink) Emit(event Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(event)
		}
	}
}
