package events

import "testing"

func TestMultiSink(t *testing.T) {
	var first, second []Event
	m := MultiSink{
		SinkFunc(func(ev Event) { first = append(first, ev) }),
		nil,
		SinkFunc(func(ev Event) { second = append(second, ev) }),
	}

	m.Emit(Event{ThreadID: "t1", Type: TypeDone})

	if len(first) != 1 || len(second) != 1 {
		t.Errorf("both sinks should receive the event: %d, %d", len(first), len(second))
	}
}

func TestNullSink(t *testing.T) {
	// Must accept events without effect.
	NullSink{}.Emit(Event{Type: TypeError})
}
