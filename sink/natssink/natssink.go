// Package natssink provides an event/telemetry sink that publishes JSON
// envelopes to NATS subjects for ground-side consumption.
//
// Events go to "<prefix>.events.<severity>" and telemetry samples to
// "<prefix>.telemetry.<channel>". Publishing is fire-and-forget: durable
// delivery is the surrounding framework's concern, not the runtime's.
package natssink

import (
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/c360/activekit/errors"
	"github.com/c360/activekit/event"
)

// DefaultPrefix is the subject prefix used when none is configured.
const DefaultPrefix = "activekit"

// envelope is the wire shape published for both events and samples. Each
// envelope carries a unique id so ground tooling can deduplicate across
// reconnects.
type envelope struct {
	ID    string        `json:"id"`
	Kind  string        `json:"kind"` // "event" or "telemetry"
	Event *event.Event  `json:"event,omitempty"`
	Tlm   *event.Sample `json:"telemetry,omitempty"`
}

// Sink publishes events and telemetry to NATS.
type Sink struct {
	nc     *nats.Conn
	prefix string
	logger *slog.Logger
}

// New creates a NATS-backed sink on an established connection.
func New(nc *nats.Conn, prefix string, logger *slog.Logger) (*Sink, error) {
	if nc == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "NATSSink", "New", "connection validation")
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{nc: nc, prefix: prefix, logger: logger}, nil
}

func eventEnvelope(ev event.Event) envelope {
	return envelope{ID: uuid.NewString(), Kind: "event", Event: &ev}
}

func telemetryEnvelope(sample event.Sample) envelope {
	return envelope{ID: uuid.NewString(), Kind: "telemetry", Tlm: &sample}
}

func (s *Sink) eventSubject(ev event.Event) string {
	return s.prefix + ".events." + ev.Severity.String()
}

func (s *Sink) telemetrySubject(sample event.Sample) string {
	return s.prefix + ".telemetry." + sample.Channel
}

// EmitEvent publishes the event to "<prefix>.events.<severity>".
func (s *Sink) EmitEvent(ev event.Event) error {
	data, err := json.Marshal(eventEnvelope(ev))
	if err != nil {
		return errors.WrapInvalid(err, "NATSSink", "EmitEvent", "envelope marshal")
	}

	if err := s.nc.Publish(s.eventSubject(ev), data); err != nil {
		return errors.WrapTransient(err, "NATSSink", "EmitEvent", "publish")
	}
	return nil
}

// EmitTelemetry publishes the sample to "<prefix>.telemetry.<channel>".
func (s *Sink) EmitTelemetry(sample event.Sample) error {
	data, err := json.Marshal(telemetryEnvelope(sample))
	if err != nil {
		return errors.WrapInvalid(err, "NATSSink", "EmitTelemetry", "envelope marshal")
	}

	if err := s.nc.Publish(s.telemetrySubject(sample), data); err != nil {
		return errors.WrapTransient(err, "NATSSink", "EmitTelemetry", "publish")
	}
	return nil
}

// Flush forces any buffered publishes onto the wire. Called at component
// shutdown so the last events are not lost in the client buffer.
func (s *Sink) Flush() error {
	if err := s.nc.Flush(); err != nil {
		return errors.WrapTransient(err, "NATSSink", "Flush", "connection flush")
	}
	return nil
}
