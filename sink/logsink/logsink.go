// Package logsink provides an event/telemetry sink backed by log/slog.
// It is the default collaborator when no transport is configured: every
// event becomes a structured log record at a level derived from its
// severity, and telemetry samples are logged at debug level.
package logsink

import (
	"log/slog"

	"github.com/c360/activekit/event"
	"github.com/c360/activekit/pkg/timestamp"
)

// Sink writes events and telemetry to a structured logger.
type Sink struct {
	logger *slog.Logger
}

// New creates a log-backed sink. A nil logger defaults to slog.Default().
func New(logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{logger: logger}
}

// EmitEvent logs the event at a level mapped from its severity.
func (s *Sink) EmitEvent(ev event.Event) error {
	attrs := []any{
		"event", ev.ID,
		"component", ev.Component,
		"time", timestamp.Format(ev.Time),
	}
	if len(ev.Args) > 0 {
		attrs = append(attrs, "args", ev.Args)
	}
	if ev.Throttled {
		attrs = append(attrs, "throttled", true)
	}

	switch ev.Severity {
	case event.SeverityActivityLow:
		s.logger.Debug(ev.Message, attrs...)
	case event.SeverityActivityHigh:
		s.logger.Info(ev.Message, attrs...)
	case event.SeverityWarning:
		s.logger.Warn(ev.Message, attrs...)
	case event.SeverityFatal:
		s.logger.Error(ev.Message, attrs...)
	default:
		s.logger.Info(ev.Message, attrs...)
	}
	return nil
}

// EmitTelemetry logs the sample at debug level.
func (s *Sink) EmitTelemetry(sample event.Sample) error {
	s.logger.Debug("telemetry",
		"channel", sample.Channel,
		"value", sample.Value,
		"time", timestamp.Format(sample.Time),
	)
	return nil
}
