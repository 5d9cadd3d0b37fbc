package component

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/c360/activekit/errors"
	"github.com/c360/activekit/event"
	"github.com/c360/activekit/metric"
	"github.com/c360/activekit/param"
	"github.com/c360/activekit/queue"
)

// TickContext is the argument delivered by a scheduling tick: the tick
// source's port number and a call-order context from the scheduler.
type TickContext struct {
	Port    int
	Context uint32
}

// portEntry pairs a port descriptor with a connectivity probe for output
// ports, whose wiring state is only known after assembly.
type portEntry struct {
	info      PortInfo
	connected func() bool
}

// Active is the composition root of one active component: it owns the
// message queue, the async port handler table, the command dispatcher, a
// parameter store view, and the event/telemetry sink handle.
//
// Concurrency contract: enqueuing (async port invocations, SubmitCommand) is
// safe from any goroutine; Drain runs on exactly one goroutine at a time.
// Everything a handler touches — parameters, throttles, component state —
// is protected by that serial dispatch guarantee alone.
type Active struct {
	name   string
	queue  *queue.Queue[Message]
	ports  []portEntry
	router map[string]func(any) error

	commands    *CommandDispatcher
	responseOut *Output[Response]

	params  *param.Store
	sink    event.Sink
	logger  *slog.Logger
	metrics *metric.Metrics

	draining   atomic.Bool
	state      atomic.Int32
	startTime  time.Time
	dispatched atomic.Int64
	errorCount atomic.Int64
	lastErr    atomic.Value // string
}

// NewActive creates an active component with a bounded queue of the given
// capacity. The sink must not be nil: diagnostics are not optional. Metrics
// and logger may be nil (disabled / slog.Default()).
func NewActive(name string, queueCapacity int, deps Dependencies) (*Active, error) {
	if name == "" {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Active", "NewActive", "empty name")
	}
	if deps.Sink == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, name, "NewActive", "sink validation")
	}

	logger := deps.GetLoggerWithComponent(name)

	var coreMetrics *metric.Metrics
	if deps.MetricsRegistry != nil {
		coreMetrics = deps.MetricsRegistry.CoreMetrics()
	}

	c := &Active{
		name:     name,
		router:   make(map[string]func(any) error),
		commands: NewCommandDispatcher(name, logger),
		params:   param.NewStore(),
		sink:     deps.Sink,
		logger:   logger,
		metrics:  coreMetrics,
	}
	c.queue = queue.New(queueCapacity, queue.WithMetrics[Message](coreMetrics, name))
	c.responseOut = NewOutput[Response](c, "cmdResponseOut")
	c.state.Store(int32(StateCreated))
	c.setStatus(StateCreated)

	return c, nil
}

// Name returns the component's instance name.
func (c *Active) Name() string {
	return c.name
}

// Params returns the component's parameter store. Mutation outside the
// component's own dispatch goroutine violates the concurrency contract.
func (c *Active) Params() *param.Store {
	return c.params
}

// Commands returns the command dispatcher for handler registration at
// construction time.
func (c *Active) Commands() *CommandDispatcher {
	return c.commands
}

// CmdResponseOut is the output port carrying command completion responses.
func (c *Active) CmdResponseOut() *Output[Response] {
	return c.responseOut
}

// Logger returns the component-scoped logger.
func (c *Active) Logger() *slog.Logger {
	return c.logger
}

// QueueDepth returns the number of pending messages.
func (c *Active) QueueDepth() int {
	return c.queue.Depth()
}

// QueueStats returns the always-on queue statistics.
func (c *Active) QueueStats() *queue.Statistics {
	return c.queue.Stats()
}

func (c *Active) registerHandler(port string, handler func(any) error) error {
	if port == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, c.name, "registerHandler", "empty port name")
	}
	if _, exists := c.router[port]; exists {
		return errors.WrapInvalid(
			fmt.Errorf("port %q already registered", port),
			c.name, "registerHandler", "duplicate port check")
	}
	c.router[port] = handler
	return nil
}

func (c *Active) addPort(info PortInfo) {
	c.ports = append(c.ports, portEntry{info: info})
}

func (c *Active) addPortRef(info PortInfo, connected func() bool) {
	c.ports = append(c.ports, portEntry{info: info, connected: connected})
}

// Ports returns descriptors for all declared ports, with current output
// connectivity.
func (c *Active) Ports() []PortInfo {
	out := make([]PortInfo, len(c.ports))
	for i, pe := range c.ports {
		info := pe.info
		if pe.connected != nil {
			info.Connected = pe.connected()
		}
		out[i] = info
	}
	return out
}

// enqueuePort enqueues an async port invocation.
func (c *Active) enqueuePort(port string, payload any) error {
	if err := c.queue.Enqueue(portMessage(port, payload)); err != nil {
		return err
	}
	if c.metrics != nil {
		c.metrics.RecordEnqueue(c.name, KindPortInvocation.String())
	}
	return nil
}

// SubmitCommand enqueues a command invocation for the next dispatch pass.
// The sequence number is the caller's correlation token and must be
// non-zero; it is echoed in exactly one response once the command runs.
func (c *Active) SubmitCommand(opcode Opcode, seq uint32, payload any) error {
	if seq == 0 {
		return errors.WrapInvalid(errors.ErrZeroSequence, c.name, "SubmitCommand",
			fmt.Sprintf("opcode 0x%X", uint32(opcode)))
	}
	if err := c.queue.Enqueue(commandMessage(opcode, seq, payload)); err != nil {
		return err
	}
	if c.metrics != nil {
		c.metrics.RecordEnqueue(c.name, KindCommand.String())
	}
	return nil
}

// Drain performs one bounded dispatch pass: it captures the messages present
// when the pass starts and dispatches exactly those, in arrival order.
// Entries enqueued during the pass wait for the next tick, which caps
// per-tick work and keeps the external scheduler from being starved.
//
// Operational handler failures are logged and counted, and the pass
// continues. Fatal errors — unregistered ports, payload type mismatches,
// invariant violations inside handlers — abort the pass and surface to the
// scheduler: they are assembly defects, not conditions to ride through.
// No two drains of one component ever run concurrently.
func (c *Active) Drain() (int, error) {
	if !c.draining.CompareAndSwap(false, true) {
		return 0, errors.WrapFatal(errors.ErrDrainInProgress, c.name, "Drain", "exclusivity check")
	}
	defer c.draining.Store(false)

	start := time.Now()
	msgs := c.queue.DequeueAll()

	processed := 0
	for _, msg := range msgs {
		err := c.dispatchOne(msg)
		processed++
		c.dispatched.Add(1)

		status := "ok"
		if err != nil {
			status = "error"
			c.recordError(err)
		}
		if c.metrics != nil {
			c.metrics.RecordDispatch(c.name, msg.Kind.String(), status)
		}

		if err != nil {
			if errors.IsFatal(err) {
				c.emitFatal(err)
				return processed, err
			}
			c.logger.Warn("message dispatch failed",
				"kind", msg.Kind.String(),
				"port", msg.Port,
				"error", err)
		}
	}

	if c.metrics != nil {
		c.metrics.RecordDrainDuration(c.name, time.Since(start))
	}
	return processed, nil
}

// Tick is the scheduling entry point: one tick, one bounded drain. Wire it
// to a SyncInput[TickContext] so a rate group can drive the component.
func (c *Active) Tick(_ TickContext) error {
	_, err := c.Drain()
	return err
}

// dispatchOne routes one message by its kind. The kind set is closed;
// anything else is a fatal defect.
func (c *Active) dispatchOne(msg Message) error {
	switch msg.Kind {
	case KindPortInvocation:
		handler, exists := c.router[msg.Port]
		if !exists {
			return errors.WrapFatal(errors.ErrUnknownPort, c.name, "dispatchOne", msg.Port)
		}
		return handler(msg.Payload)

	case KindCommand:
		resp, fatal := c.commands.Dispatch(msg.Opcode, msg.Seq, msg.Payload)
		if c.metrics != nil {
			c.metrics.RecordCommand(c.name, resp.Status.String())
		}
		if err := c.responseOut.Invoke(resp); err != nil {
			// No response consumer wired; the drop counter already saw it.
			c.logger.Debug("command response dropped",
				"opcode", fmt.Sprintf("0x%X", uint32(resp.Opcode)),
				"seq", resp.Seq,
				"status", resp.Status.String())
		}
		return fatal

	default:
		return errors.WrapFatal(errors.ErrUnknownKind, c.name, "dispatchOne",
			fmt.Sprintf("kind %d", msg.Kind))
	}
}

// EmitEvent sends a diagnostic event to the sink. Sink failures are logged,
// not propagated: a broken diagnostics path must not fail computation.
func (c *Active) EmitEvent(ev event.Event) {
	if ev.Component == "" {
		ev.Component = c.name
	}
	if c.metrics != nil {
		c.metrics.RecordEvent(c.name, ev.Severity.String())
	}
	if err := c.sink.EmitEvent(ev); err != nil {
		c.logger.Warn("event sink emit failed", "event", ev.ID, "error", err)
	}
}

// EmitThrottled sends an event through a throttle. The emission that
// saturates the throttle carries the Throttled flag; suppressed emissions
// are counted but never reach the sink.
func (c *Active) EmitThrottled(t *event.Throttle, ev event.Event) {
	allowed, saturating := t.Note()
	if !allowed {
		if c.metrics != nil {
			c.metrics.RecordSuppressed(c.name, ev.ID)
		}
		return
	}
	ev.Throttled = saturating
	c.EmitEvent(ev)
}

// EmitTelemetry writes one telemetry sample to the sink.
func (c *Active) EmitTelemetry(channel string, value any) {
	if c.metrics != nil {
		c.metrics.RecordTelemetry(c.name, channel)
	}
	if err := c.sink.EmitTelemetry(event.NewSample(channel, value)); err != nil {
		c.logger.Warn("telemetry sink emit failed", "channel", channel, "error", err)
	}
}

func (c *Active) emitFatal(err error) {
	c.EmitEvent(event.New(c.name, "DISPATCH_FATAL", event.SeverityFatal, err.Error()))
	c.setState(StateFailed)
}

func (c *Active) recordError(err error) {
	c.errorCount.Add(1)
	c.lastErr.Store(err.Error())
}

func (c *Active) setStatus(s State) {
	if c.metrics != nil {
		c.metrics.RecordComponentStatus(c.name, int(s))
	}
}

func (c *Active) setState(s State) {
	c.state.Store(int32(s))
	c.setStatus(s)
}

// State returns the component's lifecycle state.
func (c *Active) State() State {
	return State(c.state.Load())
}

// MarkInitialized transitions Created -> Initialized. Embedding components
// call it at the end of their Initialize.
func (c *Active) MarkInitialized() error {
	if State(c.state.Load()) != StateCreated {
		return errors.WrapFatal(errors.ErrAlreadyStarted, c.name, "MarkInitialized", "state check")
	}
	c.setState(StateInitialized)
	return nil
}

// MarkStarted transitions Initialized -> Started.
func (c *Active) MarkStarted() error {
	if State(c.state.Load()) != StateInitialized {
		return errors.WrapFatal(errors.ErrNotStarted, c.name, "MarkStarted", "state check")
	}
	c.startTime = time.Now()
	c.setState(StateStarted)
	return nil
}

// MarkStopped transitions Started -> Stopped and closes the queue; pending
// messages are discarded with the component.
func (c *Active) MarkStopped() error {
	if State(c.state.Load()) != StateStarted {
		return errors.WrapInvalid(errors.ErrNotStarted, c.name, "MarkStopped", "state check")
	}
	c.queue.Close()
	c.setState(StateStopped)
	return nil
}

// Health returns the component's current health status.
func (c *Active) Health() Health {
	state := State(c.state.Load())
	lastErr, _ := c.lastErr.Load().(string)

	var uptime time.Duration
	if !c.startTime.IsZero() {
		uptime = time.Since(c.startTime)
	}

	return Health{
		Healthy:    state == StateStarted,
		State:      state.String(),
		ErrorCount: c.errorCount.Load(),
		LastError:  lastErr,
		Uptime:     uptime,
		QueueDepth: c.queue.Depth(),
		Dispatched: c.dispatched.Load(),
	}
}
