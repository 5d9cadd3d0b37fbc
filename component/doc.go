// Package component implements the active component runtime: typed ports,
// the message queue dispatch loop, and the command dispatcher.
//
// # Active Components
//
// An active component owns one bounded message queue and one logical thread
// of control. Asynchronous input ports and submitted commands enqueue
// messages; a scheduling tick (normally delivered by an assembly.RateGroup
// through a synchronous input port) performs one bounded drain: exactly the
// messages present when the drain starts are dispatched, in arrival order,
// strictly serially. Nothing else in the component needs locks.
//
// # Ports
//
// Ports are typed invocation points polymorphic over the Invoker capability:
//
//   - SyncInput[T]: the handler runs immediately on the caller's goroutine.
//     Used for low-latency paths like scheduling ticks.
//   - AsyncInput[T]: invocation only enqueues; the handler always runs later
//     on the owning component's dispatch goroutine.
//   - Output[T]: connects to exactly one peer input at assembly time and is
//     immutable afterwards. Invoking an unconnected output is a safe,
//     observable no-op: it returns errors.ErrPortNotConnected and bumps a
//     drop counter, so partially-wired test configurations stay safe and
//     nothing is lost silently.
//
// # Commands
//
// The CommandDispatcher maps opcodes to handlers and guarantees exactly one
// response per dispatched command, always echoing the caller's sequence
// number — including for unknown opcodes and handler failures.
package component
