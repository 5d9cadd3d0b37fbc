package component

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/c360/activekit/errors"
	"github.com/c360/activekit/pkg/retry"
)

// Direction for port data flow.
type Direction string

// Direction constants for port data flow.
const (
	DirectionInput  Direction = "input"
	DirectionOutput Direction = "output"
)

// Synchrony describes when a port's handler runs relative to the caller.
type Synchrony string

// Synchrony constants.
const (
	// SynchronySync runs the handler immediately on the caller's goroutine.
	SynchronySync Synchrony = "sync"
	// SynchronyAsync enqueues a message; the handler runs on the owner's
	// dispatch goroutine.
	SynchronyAsync Synchrony = "async"
)

// PortInfo describes one port for discovery and health reporting.
type PortInfo struct {
	Name      string    `json:"name"`
	Direction Direction `json:"direction"`
	Synchrony Synchrony `json:"synchrony"`
	Connected bool      `json:"connected"`
}

// Invoker is the capability every input port exposes: deliver one value.
// Output ports resolve their single connected peer through this interface,
// so a sync input (immediate call) and an async input (enqueue) are
// interchangeable wiring targets.
type Invoker[T any] interface {
	Invoke(v T) error
	Name() string
}

// SyncInput is a synchronous input port: the handler executes immediately on
// the caller's thread of control, with no queueing. Used for low-latency
// paths such as scheduling ticks.
type SyncInput[T any] struct {
	name    string
	owner   *Active
	handler func(T) error
}

// NewSyncInput creates a synchronous input port on the given component.
func NewSyncInput[T any](c *Active, name string, handler func(T) error) *SyncInput[T] {
	c.addPort(PortInfo{Name: name, Direction: DirectionInput, Synchrony: SynchronySync, Connected: true})
	return &SyncInput[T]{name: name, owner: c, handler: handler}
}

// Invoke runs the handler immediately and returns its result.
func (p *SyncInput[T]) Invoke(v T) error {
	return p.handler(v)
}

// Name returns the port identifier.
func (p *SyncInput[T]) Name() string {
	return p.name
}

// AsyncInput is an asynchronous input port: invocation only enqueues a
// message tagged with the port name and returns immediately. The handler
// never executes on the caller's goroutine.
type AsyncInput[T any] struct {
	name  string
	owner *Active
}

// NewAsyncInput creates an asynchronous input port and registers its handler
// with the owning component's dispatch table.
func NewAsyncInput[T any](c *Active, name string, handler func(T) error) (*AsyncInput[T], error) {
	wrapped := func(payload any) error {
		v, ok := payload.(T)
		if !ok {
			var want T
			return errors.WrapFatal(errors.ErrPayloadMismatch, c.name, "dispatch",
				fmt.Sprintf("port %s: got %T, want %T", name, payload, want))
		}
		return handler(v)
	}

	if err := c.registerHandler(name, wrapped); err != nil {
		return nil, err
	}
	c.addPort(PortInfo{Name: name, Direction: DirectionInput, Synchrony: SynchronyAsync, Connected: true})
	return &AsyncInput[T]{name: name, owner: c}, nil
}

// Invoke enqueues the value for the next dispatch pass. A full queue returns
// transient errors.ErrQueueFull backpressure to the caller.
func (p *AsyncInput[T]) Invoke(v T) error {
	return p.owner.enqueuePort(p.name, v)
}

// Name returns the port identifier.
func (p *AsyncInput[T]) Name() string {
	return p.name
}

// Output is a typed output port. It connects to exactly one peer input at
// assembly time; the connection is immutable afterwards. Invoking an
// unconnected output is deliberately safe: it returns
// errors.ErrPortNotConnected and increments a drop counter rather than
// crashing, so partially-wired configurations remain testable and the
// no-silent-loss property stays observable.
type Output[T any] struct {
	name  string
	owner *Active
	peer  Invoker[T]
	drops atomic.Int64
}

// NewOutput creates an unconnected output port on the given component.
func NewOutput[T any](c *Active, name string) *Output[T] {
	out := &Output[T]{name: name, owner: c}
	c.addPortRef(PortInfo{Name: name, Direction: DirectionOutput, Synchrony: SynchronyAsync},
		func() bool { return out.peer != nil })
	return out
}

// Connect wires the output to its single peer. Connecting twice is an
// assembly defect.
func (p *Output[T]) Connect(peer Invoker[T]) error {
	if peer == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, p.owner.name, "Connect",
			fmt.Sprintf("port %s: nil peer", p.name))
	}
	if p.peer != nil {
		return errors.WrapInvalid(errors.ErrPortConnected, p.owner.name, "Connect", p.name)
	}
	p.peer = peer
	return nil
}

// Connected reports whether a peer is wired.
func (p *Output[T]) Connected() bool {
	return p.peer != nil
}

// Invoke delivers the value to the connected peer. Unconnected ports return
// errors.ErrPortNotConnected without side effects.
func (p *Output[T]) Invoke(v T) error {
	if p.peer == nil {
		p.drops.Add(1)
		if p.owner.metrics != nil {
			p.owner.metrics.RecordPortDrop(p.owner.name, p.name)
		}
		return errors.WrapInvalid(errors.ErrPortNotConnected, p.owner.name, "Invoke", p.name)
	}
	return p.peer.Invoke(v)
}

// InvokeRetry delivers the value, retrying transient backpressure (a full
// peer queue) with the given policy. Non-transient failures, including an
// unconnected port, fail immediately.
func (p *Output[T]) InvokeRetry(ctx context.Context, v T, cfg retry.Config) error {
	return retry.Do(ctx, cfg, func() error {
		err := p.Invoke(v)
		if err != nil && !errors.IsTransient(err) {
			return retry.NonRetryable(err)
		}
		return err
	})
}

// Drops returns how many invocations found no peer.
func (p *Output[T]) Drops() int64 {
	return p.drops.Load()
}

// Name returns the port identifier.
func (p *Output[T]) Name() string {
	return p.name
}
