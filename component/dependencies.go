package component

import (
	"log/slog"

	"github.com/c360/activekit/event"
	"github.com/c360/activekit/metric"
)

// Dependencies provides all external collaborators a component needs.
// Components receive this structure at construction rather than individual
// fields, so assembly code owns the wiring in one place.
type Dependencies struct {
	Sink            event.Sink              // Event/telemetry sink (required)
	MetricsRegistry *metric.MetricsRegistry // Metrics registry (can be nil)
	Logger          *slog.Logger            // Structured logger (can be nil, defaults to slog.Default())
}

// GetLogger returns the configured logger or a default logger if none is
// provided.
func (d *Dependencies) GetLogger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// GetLoggerWithComponent returns a logger configured with component context.
func (d *Dependencies) GetLoggerWithComponent(componentName string) *slog.Logger {
	return d.GetLogger().With("component", componentName)
}
