// Package activekit provides a runtime for active components: self-contained
// units of computation that serialize all asynchronous work through a single
// bounded message queue and are driven by an external scheduling tick.
//
// # Philosophy
//
// ActiveKit is a miniature actor runtime shaped for control software. Each
// active component owns exactly one message queue and one logical thread of
// control. Producers (other components, command sources) enqueue work
// concurrently; a rate-group tick drains the queue and runs handlers strictly
// serially. That single ordering guarantee is what makes parameter reads,
// throttle counters, and telemetry emission race-free without any locking
// inside component code.
//
// ActiveKit MUST NOT contain:
//   - Distributed scheduling across nodes (single-process runtime only)
//   - Durable storage of events or telemetry (sinks publish, they don't persist)
//   - Network transport framing (the surrounding framework's concern)
//
// # Architecture
//
//	┌─────────────────────────────────────┐
//	│           Assembly                  │  Wiring, lifecycle,
//	│  (build, connect, start, stop)      │  rate groups
//	└─────────────────────────────────────┘
//	           ↓ schedules
//	┌─────────────────────────────────────┐
//	│       Active Components             │  Ports, command
//	│  (queue + serial dispatch loop)     │  dispatcher, params
//	└─────────────────────────────────────┘
//	           ↓ emit via
//	┌─────────────────────────────────────┐
//	│       Event/Telemetry Sinks         │  slog, NATS,
//	│    (events, telemetry samples)      │  in-memory (tests)
//	└─────────────────────────────────────┘
//
// # Core Guarantees
//
//   - Bounded drain: one tick dispatches exactly the messages present when the
//     drain starts; arrivals during the drain wait for the next tick.
//   - Ordered dispatch: messages from one producer to one component are
//     processed in submission order; no two messages of one component run
//     concurrently.
//   - Acknowledged commands: every dispatched command produces exactly one
//     response echoing the caller's sequence number, after its side effects
//     are applied.
//   - No silent loss: a full queue and an unconnected output port are
//     first-class, observable results, never hidden drops.
//
// # Package Layout
//
//   - queue: bounded, thread-safe FIFO message queue
//   - component: ports, messages, the dispatch loop, command dispatcher
//   - param: validated parameter store with validity tracking and persistence
//   - event: events, telemetry samples, throttling, sink interfaces
//   - sink/logsink, sink/natssink: concrete sink collaborators
//   - assembly: system assembly, wiring, rate-group scheduling
//   - mathops: illustrative sender/receiver component pair
//   - errors: error classification shared across the runtime
//   - metric: Prometheus metrics registry
//   - pkg/retry, pkg/timestamp: small shared utilities
//   - cmd/activekit: reference deployment binary
package activekit
