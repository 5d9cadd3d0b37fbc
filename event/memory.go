package event

import (
	"sync"
)

// MemorySink records everything emitted into it. It is the test double for
// the external event/telemetry collaborator and is safe for concurrent use.
type MemorySink struct {
	mu      sync.Mutex
	events  []Event
	samples []Sample
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// EmitEvent records the event.
func (m *MemorySink) EmitEvent(ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

// EmitTelemetry records the sample.
func (m *MemorySink) EmitTelemetry(sample Sample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = append(m.samples, sample)
	return nil
}

// Events returns a copy of all recorded events.
func (m *MemorySink) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// EventsByID returns all recorded events with the given ID.
func (m *MemorySink) EventsByID(id string) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Event
	for _, ev := range m.events {
		if ev.ID == id {
			out = append(out, ev)
		}
	}
	return out
}

// Samples returns a copy of all recorded telemetry samples.
func (m *MemorySink) Samples() []Sample {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Sample, len(m.samples))
	copy(out, m.samples)
	return out
}

// SamplesByChannel returns all recorded samples on the given channel.
func (m *MemorySink) SamplesByChannel(channel string) []Sample {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Sample
	for _, s := range m.samples {
		if s.Channel == channel {
			out = append(out, s)
		}
	}
	return out
}

// Reset discards everything recorded so far.
func (m *MemorySink) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
	m.samples = nil
}

// MultiSink fans every emission out to all member sinks. The first error is
// returned after all members have been attempted.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink creates a fan-out sink over the given members. Nil members
// are skipped.
func NewMultiSink(sinks ...Sink) *MultiSink {
	var members []Sink
	for _, s := range sinks {
		if s != nil {
			members = append(members, s)
		}
	}
	return &MultiSink{sinks: members}
}

// EmitEvent forwards the event to every member.
func (m *MultiSink) EmitEvent(ev Event) error {
	var first error
	for _, s := range m.sinks {
		if err := s.EmitEvent(ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// EmitTelemetry forwards the sample to every member.
func (m *MultiSink) EmitTelemetry(sample Sample) error {
	var first error
	for _, s := range m.sinks {
		if err := s.EmitTelemetry(sample); err != nil && first == nil {
			first = err
		}
	}
	return first
}
