// Package metric provides Prometheus metrics for the ActiveKit runtime.
// A MetricsRegistry owns a private Prometheus registry pre-populated with the
// core runtime metrics every deployment wants; components register their own
// collectors under a namespaced key so duplicate registration is caught early.
package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains runtime-level metrics shared by all active components.
type Metrics struct {
	ComponentStatus    *prometheus.GaugeVec
	MessagesEnqueued   *prometheus.CounterVec
	MessagesDispatched *prometheus.CounterVec
	QueueDepth         *prometheus.GaugeVec
	QueueDrops         *prometheus.CounterVec
	DispatchDuration   *prometheus.HistogramVec
	CommandsTotal      *prometheus.CounterVec
	EventsEmitted      *prometheus.CounterVec
	EventsSuppressed   *prometheus.CounterVec
	TelemetrySamples   *prometheus.CounterVec
	PortDrops          *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all runtime metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		ComponentStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "activekit",
				Subsystem: "component",
				Name:      "status",
				Help:      "Component lifecycle state (0=created, 1=initialized, 2=started, 3=stopped, 4=failed)",
			},
			[]string{"component"},
		),

		MessagesEnqueued: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "activekit",
				Subsystem: "queue",
				Name:      "enqueued_total",
				Help:      "Total number of messages enqueued",
			},
			[]string{"component", "kind"},
		),

		MessagesDispatched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "activekit",
				Subsystem: "dispatch",
				Name:      "messages_total",
				Help:      "Total number of messages dispatched",
			},
			[]string{"component", "kind", "status"},
		),

		QueueDepth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "activekit",
				Subsystem: "queue",
				Name:      "depth",
				Help:      "Current message queue depth",
			},
			[]string{"component"},
		),

		QueueDrops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "activekit",
				Subsystem: "queue",
				Name:      "drops_total",
				Help:      "Total number of enqueue attempts rejected by a full queue",
			},
			[]string{"component"},
		),

		DispatchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "activekit",
				Subsystem: "dispatch",
				Name:      "duration_seconds",
				Help:      "Duration of a single bounded drain",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
			},
			[]string{"component"},
		),

		CommandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "activekit",
				Subsystem: "command",
				Name:      "responses_total",
				Help:      "Total number of command responses by status",
			},
			[]string{"component", "status"},
		),

		EventsEmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "activekit",
				Subsystem: "event",
				Name:      "emitted_total",
				Help:      "Total number of events emitted by severity",
			},
			[]string{"component", "severity"},
		),

		EventsSuppressed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "activekit",
				Subsystem: "event",
				Name:      "suppressed_total",
				Help:      "Total number of event emissions suppressed by throttling",
			},
			[]string{"component", "event"},
		),

		TelemetrySamples: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "activekit",
				Subsystem: "telemetry",
				Name:      "samples_total",
				Help:      "Total number of telemetry samples written",
			},
			[]string{"component", "channel"},
		),

		PortDrops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "activekit",
				Subsystem: "port",
				Name:      "unconnected_invocations_total",
				Help:      "Total number of invocations of unconnected output ports",
			},
			[]string{"component", "port"},
		),
	}
}

// RecordComponentStatus updates the lifecycle state gauge.
func (m *Metrics) RecordComponentStatus(component string, state int) {
	m.ComponentStatus.WithLabelValues(component).Set(float64(state))
}

// RecordEnqueue increments the enqueued message counter.
func (m *Metrics) RecordEnqueue(component, kind string) {
	m.MessagesEnqueued.WithLabelValues(component, kind).Inc()
}

// RecordDispatch increments the dispatched message counter.
func (m *Metrics) RecordDispatch(component, kind, status string) {
	m.MessagesDispatched.WithLabelValues(component, kind, status).Inc()
}

// RecordQueueDepth updates the queue depth gauge.
func (m *Metrics) RecordQueueDepth(component string, depth int) {
	m.QueueDepth.WithLabelValues(component).Set(float64(depth))
}

// RecordQueueDrop increments the queue-full rejection counter.
func (m *Metrics) RecordQueueDrop(component string) {
	m.QueueDrops.WithLabelValues(component).Inc()
}

// RecordDrainDuration records the duration of one bounded drain.
func (m *Metrics) RecordDrainDuration(component string, d time.Duration) {
	m.DispatchDuration.WithLabelValues(component).Observe(d.Seconds())
}

// RecordCommand increments the command response counter.
func (m *Metrics) RecordCommand(component, status string) {
	m.CommandsTotal.WithLabelValues(component, status).Inc()
}

// RecordEvent increments the emitted event counter.
func (m *Metrics) RecordEvent(component, severity string) {
	m.EventsEmitted.WithLabelValues(component, severity).Inc()
}

// RecordSuppressed increments the throttled event counter.
func (m *Metrics) RecordSuppressed(component, event string) {
	m.EventsSuppressed.WithLabelValues(component, event).Inc()
}

// RecordTelemetry increments the telemetry sample counter.
func (m *Metrics) RecordTelemetry(component, channel string) {
	m.TelemetrySamples.WithLabelValues(component, channel).Inc()
}

// RecordPortDrop increments the unconnected port invocation counter.
func (m *Metrics) RecordPortDrop(component, port string) {
	m.PortDrops.WithLabelValues(component, port).Inc()
}
