// Package event defines the diagnostic events, telemetry samples, and
// throttling used by active components, plus the narrow Sink interface
// through which they leave the runtime.
//
// The sink's storage and transport are external collaborators; this package
// ships only the emit boundary, an in-memory sink for tests, and a fan-out
// helper. Concrete transports live under sink/.
package event

import (
	"github.com/c360/activekit/pkg/timestamp"
)

// Severity classifies a diagnostic event.
type Severity int

const (
	// SeverityActivityLow marks routine low-rate activity reports.
	SeverityActivityLow Severity = iota
	// SeverityActivityHigh marks significant operational activity.
	SeverityActivityHigh
	// SeverityWarning marks conditions needing ground attention but not halting.
	SeverityWarning
	// SeverityFatal marks unrecoverable assembly or invariant failures.
	SeverityFatal
)

// String returns the string representation of Severity.
func (s Severity) String() string {
	switch s {
	case SeverityActivityLow:
		return "activity_low"
	case SeverityActivityHigh:
		return "activity_high"
	case SeverityWarning:
		return "warning"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Event is a timestamped diagnostic report.
type Event struct {
	// ID names the event kind (e.g. "FACTOR_UPDATED"). Throttle state is
	// tracked per ID.
	ID string `json:"id"`
	// Component is the emitting component's name.
	Component string `json:"component"`
	Severity  Severity `json:"severity"`
	// Time is Unix milliseconds at emission.
	Time    int64  `json:"time"`
	Message string `json:"message"`
	// Args carries the event's typed payload values.
	Args map[string]any `json:"args,omitempty"`
	// Throttled is set on the emission that saturates a throttle, telling
	// consumers that further occurrences of this ID are suppressed until
	// cleared.
	Throttled bool `json:"throttled,omitempty"`
}

// Sample is a timestamped telemetry value on a named channel. Samples are
// written once per relevant handler invocation, not periodically.
type Sample struct {
	// Channel names the telemetry channel (e.g. "mathReceiver.OPERATION").
	Channel string `json:"channel"`
	// Time is Unix milliseconds at sampling.
	Time  int64 `json:"time"`
	Value any   `json:"value"`
}

// New builds an event stamped with the current time.
func New(component, id string, severity Severity, message string) Event {
	return Event{
		ID:        id,
		Component: component,
		Severity:  severity,
		Time:      timestamp.Now(),
		Message:   message,
	}
}

// WithArgs returns a copy of the event with the payload attached.
func (e Event) WithArgs(args map[string]any) Event {
	e.Args = args
	return e
}

// NewSample builds a telemetry sample stamped with the current time.
func NewSample(channel string, value any) Sample {
	return Sample{
		Channel: channel,
		Time:    timestamp.Now(),
		Value:   value,
	}
}

// Sink accepts events and telemetry samples. Implementations must be safe
// for use from a single component goroutine; they are not required to be
// safe for concurrent emitters unless documented.
type Sink interface {
	EmitEvent(ev Event) error
	EmitTelemetry(sample Sample) error
}
