package component

import (
	"context"
	"time"
)

// State represents the current lifecycle state of a component.
type State int

const (
	// StateCreated indicates the component was created but not initialized.
	StateCreated State = iota
	// StateInitialized indicates the component was initialized but not started.
	StateInitialized
	// StateStarted indicates the component is running.
	StateStarted
	// StateStopped indicates the component was stopped.
	StateStopped
	// StateFailed indicates the component failed a lifecycle operation or a
	// fatal dispatch.
	StateFailed
)

// String returns a string representation of the component state.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateInitialized:
		return "initialized"
	case StateStarted:
		return "started"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Metadata describes what a component is.
type Metadata struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Version     string `json:"version"`
}

// Health describes the current health state of a component.
type Health struct {
	Healthy    bool          `json:"healthy"`
	State      string        `json:"state"`
	ErrorCount int64         `json:"error_count"`
	LastError  string        `json:"last_error,omitempty"`
	Uptime     time.Duration `json:"uptime"`
	QueueDepth int           `json:"queue_depth"`
	Dispatched int64         `json:"dispatched"`
}

// Component is the full lifecycle contract every active component satisfies:
//   - Initialize() error                  // setup only, no I/O, no context
//   - Start(ctx context.Context) error    // begin accepting work
//   - Stop(timeout time.Duration) error   // graceful shutdown with deadline
//
// plus discovery of metadata, ports, and health.
type Component interface {
	Meta() Metadata
	Ports() []PortInfo
	Health() Health
	Initialize() error
	Start(ctx context.Context) error
	Stop(timeout time.Duration) error
}

// Tickable is satisfied by components that expose a scheduling tick input.
// Rate groups drive members through this interface.
type Tickable interface {
	Tick(tick TickContext) error
}
